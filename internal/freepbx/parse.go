package freepbx

import "strings"

// SystemInfo is the version/uptime snapshot.
type SystemInfo struct {
	RawVersion string `json:"raw_version"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
}

// Extension is one endpoint or peer.
type Extension struct {
	Extension string `json:"extension"`
	Tech      string `json:"tech"`
	Status    string `json:"status"`
	Type      string `json:"type"`
}

// Trunk is one outbound registration.
type Trunk struct {
	Name  string `json:"name,omitempty"`
	Host  string `json:"host,omitempty"`
	Tech  string `json:"tech"`
	State string `json:"state"`
	Type  string `json:"type"`
}

// Queue is one call queue summary.
type Queue struct {
	Name     string `json:"name"`
	Calls    string `json:"calls"`
	Members  string `json:"members"`
	HoldTime string `json:"holdtime"`
}

// Call is one active channel.
type Call struct {
	Channel      string `json:"channel"`
	CallerID     string `json:"caller_id,omitempty"`
	CallerName   string `json:"caller_name,omitempty"`
	State        string `json:"state,omitempty"`
	Duration     string `json:"duration,omitempty"`
	ConnectedNum string `json:"connected_num,omitempty"`
}

// The console listings below vary by server version; parsing is best-effort
// line scanning, never a strict grammar.

func parsePJSIPEndpoints(out string) []Extension {
	var extensions []Extension
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") ||
			strings.HasPrefix(line, "Endpoint") || strings.HasPrefix(line, "Object") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		endpoint := fields[0]
		if strings.Contains(endpoint, "/") {
			endpoint = strings.SplitN(endpoint, "/", 2)[0]
		}
		extensions = append(extensions, Extension{
			Extension: endpoint,
			Tech:      "PJSIP",
			Status:    fields[1],
			Type:      "endpoint",
		})
	}
	return extensions
}

func parseSIPPeers(out string) []Extension {
	var peers []Extension
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") ||
			strings.HasPrefix(line, "Name/username") ||
			strings.Contains(strings.ToLower(line), "sip peers") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		peer := strings.SplitN(fields[0], "/", 2)[0]
		peers = append(peers, Extension{
			Extension: peer,
			Tech:      "SIP",
			Status:    fields[len(fields)-1],
			Type:      "peer",
		})
	}
	return peers
}

func parseRegistrations(out string) []Trunk {
	var trunks []Trunk
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") ||
			strings.HasPrefix(line, "Objects found") ||
			strings.Contains(line, "Registration") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		trunks = append(trunks, Trunk{
			Name:  fields[0],
			Tech:  "PJSIP",
			State: fields[1],
			Type:  "registration",
		})
	}
	return trunks
}

func parseSIPRegistry(out string) []Trunk {
	var trunks []Trunk
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "=") ||
			strings.Contains(strings.ToLower(line), "sip registrations") {
			continue
		}
		if strings.Contains(line, "Host") && strings.Contains(line, "Username") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		trunks = append(trunks, Trunk{
			Host:  fields[0],
			Tech:  "SIP",
			State: fields[2],
			Type:  "registration",
		})
	}
	return trunks
}

func parseQueues(out string) []Queue {
	var queues []Queue
	var current *Queue
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if current != nil {
				queues = append(queues, *current)
				current = nil
			}
			continue
		}

		if strings.Contains(line, "has") && strings.Contains(line, "calls") {
			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}
			q := Queue{Name: fields[0], Calls: "0", Members: "0", HoldTime: "0"}
			for i, f := range fields {
				if f == "has" && i+1 < len(fields) {
					q.Calls = fields[i+1]
					break
				}
			}
			current = &q
			continue
		}
		if current == nil {
			continue
		}
		if strings.Contains(line, "Members:") {
			current.Members = fieldAfterColon(line)
		} else if strings.Contains(line, "Longest Hold Time:") {
			current.HoldTime = fieldAfterColon(line)
		}
	}
	if current != nil {
		queues = append(queues, *current)
	}
	return queues
}

func fieldAfterColon(line string) string {
	parts := strings.Split(line, ":")
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseActiveCalls(out string) []Call {
	var calls []Call
	var current *Call
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Channel:"):
			if current != nil {
				calls = append(calls, *current)
			}
			current = &Call{Channel: valueAfter(line, "Channel:")}
		case current == nil:
		case strings.HasPrefix(line, "CallerIDNum:"):
			current.CallerID = valueAfter(line, "CallerIDNum:")
		case strings.HasPrefix(line, "CallerIDName:"):
			current.CallerName = valueAfter(line, "CallerIDName:")
		case strings.HasPrefix(line, "State:"):
			current.State = valueAfter(line, "State:")
		case strings.HasPrefix(line, "Duration:"):
			current.Duration = valueAfter(line, "Duration:")
		case strings.HasPrefix(line, "ConnectedLineNum:"):
			current.ConnectedNum = valueAfter(line, "ConnectedLineNum:")
		}
	}
	if current != nil {
		calls = append(calls, *current)
	}
	return calls
}

func valueAfter(line, prefix string) string {
	return strings.TrimSpace(strings.TrimPrefix(line, prefix))
}
