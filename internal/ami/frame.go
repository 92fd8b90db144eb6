package ami

import "strings"

const (
	// FrameTerminator ends an ordinary response or event frame.
	FrameTerminator = "\r\n\r\n"
	// CommandTerminator ends the bulk output of a Command action. Command
	// output routinely embeds blank lines, so the ordinary terminator would
	// truncate it.
	CommandTerminator = "--END COMMAND--"

	headerResponse = "Response"
	headerMessage  = "Message"
	headerActionID = "ActionID"
)

// Frame is one parsed manager frame.
type Frame struct {
	// Success is true iff a Response header carried the value "Success".
	Success bool
	// Message is the last Message header, or the Response value when the
	// frame carries no explicit Message.
	Message string
	// Events holds one map per blank-line-delimited sub-block, in wire order.
	Events []map[string]string
	// Flat merges all event maps in order; later duplicate keys win.
	Flat map[string]string
	// Raw is the undecoded frame text, terminator excluded.
	Raw string

	hasResponse bool
}

// IsResponse reports whether the frame carried a Response header. A frame
// without one is event-only and never satisfies a pending dispatch.
func (f Frame) IsResponse() bool { return f.hasResponse }

// ActionID returns the correlation header value, if the frame carried one.
func (f Frame) ActionID() (string, bool) {
	id, ok := f.Flat[headerActionID]
	return id, ok
}

// ParseFrame decodes raw frame text. Lines without a key separator are
// skipped rather than rejected: the wire format tolerates informational
// lines that do not fit the Key: Value shape.
func ParseFrame(raw string) Frame {
	f := Frame{
		Flat: make(map[string]string),
		Raw:  raw,
	}
	current := make(map[string]string)
	sawMessage := false

	for _, line := range strings.Split(raw, "\r\n") {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				f.Events = append(f.Events, current)
				current = make(map[string]string)
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case headerResponse:
			f.hasResponse = true
			f.Success = value == "Success"
			if !sawMessage {
				f.Message = value
			}
		case headerMessage:
			sawMessage = true
			f.Message = value
		default:
			current[key] = value
			f.Flat[key] = value
		}
	}

	if len(current) > 0 {
		f.Events = append(f.Events, current)
	}
	return f
}
