package ami

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// bannerSubstring must appear in the connect-time greeting.
const bannerSubstring = "Asterisk Call Manager"

const drainPoll = 10 * time.Millisecond

// State tracks the connection lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateClosing
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Param is one ordered request parameter.
type Param struct {
	Key   string
	Value string
}

// Conn is a synchronous manager connection. One outstanding request at a
// time; concurrent use requires external serialization.
type Conn struct {
	conn   net.Conn
	cfg    Config
	state  State
	nextID uint64
	logoff bool
}

// Connect dials the manager interface, validates the banner, and performs
// the login handshake. The returned connection is Ready.
func Connect(host string, port int, username, secret string, cfg Config) (*Conn, error) {
	cfg = cfg.WithDefaults()
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	c := &Conn{cfg: cfg, state: StateConnecting}
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		c.state = StateFailed
		return nil, fmt.Errorf("%w: dial %s: %v", ErrConnection, addr, err)
	}
	c.conn = conn

	banner, err := c.readFrame(FrameTerminator, time.Now().Add(cfg.CallTimeout))
	if err != nil {
		c.fail()
		return nil, fmt.Errorf("%w: read banner: %v", ErrConnection, err)
	}
	if !strings.Contains(banner, bannerSubstring) {
		c.fail()
		return nil, fmt.Errorf("%w: unexpected banner %q", ErrConnection, strings.TrimSpace(banner))
	}

	c.state = StateAuthenticating
	if err := c.authenticate(username, secret); err != nil {
		c.fail()
		return nil, err
	}

	// Flush boot-time event noise the peer pushes right after login.
	c.drain(cfg.PostLoginDrain)
	c.state = StateReady
	log.Debug().Str("addr", addr).Msg("ami_connected")
	return c, nil
}

// authenticate runs the Login exchange. The handshake is looser than
// steady-state dispatch: no ActionID correlation, and success is detected by
// a substring match on the raw response, preserving observed wire behavior.
func (c *Conn) authenticate(username, secret string) error {
	deadline := time.Now().Add(c.cfg.CallTimeout)
	params := []Param{
		{Key: "Username", Value: username},
		{Key: "Secret", Value: secret},
	}
	if err := c.writeRequest("Login", "", params, deadline); err != nil {
		return fmt.Errorf("%w: send login: %v", ErrConnection, err)
	}
	raw, err := c.readFrame(FrameTerminator, deadline)
	if err != nil {
		return fmt.Errorf("%w: read login response: %v", ErrAuthentication, err)
	}
	if !strings.Contains(raw, "Success") {
		f := ParseFrame(raw)
		return fmt.Errorf("%w: %s", ErrAuthentication, f.Message)
	}
	return nil
}

// State reports the current lifecycle state.
func (c *Conn) State() State { return c.state }

// Send dispatches one action and waits for its correlated response frame.
// Event frames and responses to other requests are discarded. A timeout or
// I/O failure leaves the connection Failed; callers must Close and
// re-establish rather than retry in place.
func (c *Conn) Send(action string, params ...Param) (Frame, error) {
	if c.state != StateReady {
		return Frame{}, fmt.Errorf("%w: state=%s", ErrClosed, c.state)
	}

	deadline := time.Now().Add(c.cfg.CallTimeout)
	c.drain(c.cfg.DrainBudget)

	id := c.allocActionID()
	if err := c.writeRequest(action, id, params, deadline); err != nil {
		c.state = StateFailed
		return Frame{}, fmt.Errorf("ami: send %s: %w", action, err)
	}
	return c.awaitResponse(action, id, deadline)
}

// Command executes one CLI command via the Command action. Its response is
// free-form console output terminated by a sentinel line instead of a blank
// line, because the captured text may embed blank lines. Returns the output
// lines joined with newlines, no trailing newline.
func (c *Conn) Command(text string) (string, error) {
	if c.state != StateReady {
		return "", fmt.Errorf("%w: state=%s", ErrClosed, c.state)
	}

	deadline := time.Now().Add(c.cfg.CallTimeout)
	c.drain(c.cfg.DrainBudget)

	id := c.allocActionID()
	params := []Param{{Key: "Command", Value: text}}
	if err := c.writeRequest("Command", id, params, deadline); err != nil {
		c.state = StateFailed
		return "", fmt.Errorf("ami: send Command: %w", err)
	}

	for {
		raw, err := c.readFrame(CommandTerminator, deadline)
		if err != nil {
			c.state = StateFailed
			if errors.Is(err, ErrTimeout) {
				return "", fmt.Errorf("%w: no response to Command", ErrTimeout)
			}
			return "", fmt.Errorf("ami: read Command response: %w", err)
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		// The first frame read may be a stray event; keep reading under the
		// same deadline.
		f := ParseFrame(raw)
		if !f.IsResponse() {
			continue
		}
		if got, ok := f.ActionID(); ok && got != id {
			continue
		}
		return extractOutput(raw), nil
	}
}

// Ping sends a liveness request and reports whether the manager answered
// with a success response.
func (c *Conn) Ping() (bool, error) {
	f, err := c.Send("Ping")
	if err != nil {
		return false, err
	}
	return f.Success, nil
}

// Close is idempotent. On a healthy connection it best-effort sends a single
// Logoff before releasing the socket; failures are swallowed since the
// socket is being discarded regardless. A Failed connection skips the logoff
// (the stream may be mid-frame) but still releases the socket.
func (c *Conn) Close() error {
	switch c.state {
	case StateDisconnected, StateClosed:
		return nil
	case StateFailed:
		c.release()
		c.state = StateClosed
		return nil
	}

	c.state = StateClosing
	if !c.logoff {
		c.logoff = true
		id := c.allocActionID()
		_ = c.writeRequest("Logoff", id, nil, time.Now().Add(time.Second))
	}
	c.release()
	c.state = StateClosed
	return nil
}

func (c *Conn) allocActionID() string {
	c.nextID++
	return strconv.FormatUint(c.nextID, 10)
}

func (c *Conn) writeRequest(action, id string, params []Param, deadline time.Time) error {
	var b strings.Builder
	b.WriteString("Action: ")
	b.WriteString(action)
	b.WriteString("\r\n")
	if id != "" {
		b.WriteString("ActionID: ")
		b.WriteString(id)
		b.WriteString("\r\n")
	}
	for _, p := range params {
		b.WriteString(p.Key)
		b.WriteString(": ")
		b.WriteString(p.Value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")

	_ = c.conn.SetWriteDeadline(deadline)
	_, err := io.WriteString(c.conn, b.String())
	return err
}

// awaitResponse loops reading frames until one qualifies as the response to
// the pending request: it must carry a Response header, and its ActionID
// must equal the request's or be absent entirely (some server versions do
// not echo it).
func (c *Conn) awaitResponse(action, id string, deadline time.Time) (Frame, error) {
	for {
		raw, err := c.readFrame(FrameTerminator, deadline)
		if err != nil {
			c.state = StateFailed
			if errors.Is(err, ErrTimeout) {
				return Frame{}, fmt.Errorf("%w: no response to %s", ErrTimeout, action)
			}
			return Frame{}, fmt.Errorf("ami: read response to %s: %w", action, err)
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		f := ParseFrame(raw)
		if !f.IsResponse() {
			log.Debug().Str("action", action).Msg("ami_discard_event")
			continue
		}
		if got, ok := f.ActionID(); ok && got != id {
			log.Debug().Str("action", action).Str("want", id).Str("got", got).Msg("ami_discard_mismatch")
			continue
		}
		return f, nil
	}
}

// readFrame accumulates socket reads until the terminator appears or the
// wall-clock deadline passes. A deadline with bytes already buffered returns
// the partial frame best-effort; a deadline with nothing read is ErrTimeout.
func (c *Conn) readFrame(terminator string, deadline time.Time) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		if !time.Now().Before(deadline) {
			if buf.Len() > 0 {
				return buf.String(), nil
			}
			return "", ErrTimeout
		}
		_ = c.conn.SetReadDeadline(deadline)
		n, err := c.conn.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if strings.Contains(buf.String(), terminator) {
				return buf.String(), nil
			}
		}
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				if buf.Len() > 0 {
					return buf.String(), nil
				}
				return "", ErrTimeout
			}
			if errors.Is(err, io.EOF) && buf.Len() > 0 {
				return buf.String(), nil
			}
			return "", err
		}
	}
}

// drain discards whatever unsolicited data sits unread in the socket,
// bounded by budget. Reads poll with short deadlines so an empty socket
// returns immediately; the read deadline is restored on every exit path.
// Nothing-to-read is the expected case, not an error.
func (c *Conn) drain(budget time.Duration) {
	if c.conn == nil {
		return
	}
	deadline := time.Now().Add(budget)
	defer func() { _ = c.conn.SetReadDeadline(time.Time{}) }()

	chunk := make([]byte, 4096)
	for time.Now().Before(deadline) {
		poll := time.Now().Add(drainPoll)
		if poll.After(deadline) {
			poll = deadline
		}
		_ = c.conn.SetReadDeadline(poll)
		n, err := c.conn.Read(chunk)
		if n > 0 {
			log.Debug().Int("bytes", n).Msg("ami_drain")
		}
		if err != nil {
			// Timeout here means the socket is quiet; hard failures will
			// surface on the next send.
			return
		}
	}
}

func (c *Conn) fail() {
	c.release()
	c.state = StateFailed
}

func (c *Conn) release() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// extractOutput collects the Output-prefixed lines of a Command response up
// to the sentinel line, exclusive.
func extractOutput(raw string) string {
	var out []string
	for _, line := range strings.Split(raw, "\r\n") {
		if strings.TrimSpace(line) == CommandTerminator {
			break
		}
		if after, ok := strings.CutPrefix(line, "Output:"); ok {
			out = append(out, strings.TrimLeft(after, " \t"))
		}
	}
	return strings.Join(out, "\n")
}
