package ami

import "testing"

func TestParseFrameSuccessResponse(t *testing.T) {
	f := ParseFrame("Response: Success\r\nPing: Pong\r\n\r\n")
	if !f.IsResponse() {
		t.Fatalf("expected response frame")
	}
	if !f.Success {
		t.Fatalf("expected success")
	}
	if f.Message != "Success" {
		t.Fatalf("message mismatch: %q", f.Message)
	}
	if f.Flat["Ping"] != "Pong" {
		t.Fatalf("flat mismatch: %+v", f.Flat)
	}
}

func TestParseFrameErrorResponseWithMessage(t *testing.T) {
	f := ParseFrame("Response: Error\r\nMessage: Authentication failed\r\n\r\n")
	if f.Success {
		t.Fatalf("expected failure")
	}
	if f.Message != "Authentication failed" {
		t.Fatalf("message mismatch: %q", f.Message)
	}
}

func TestParseFrameEventOnly(t *testing.T) {
	f := ParseFrame("Event: FullyBooted\r\nPrivilege: system,all\r\n\r\n")
	if f.IsResponse() {
		t.Fatalf("event-only frame must not count as a response")
	}
	if len(f.Events) != 1 {
		t.Fatalf("expected one event, got %d", len(f.Events))
	}
	if f.Events[0]["Event"] != "FullyBooted" {
		t.Fatalf("event mismatch: %+v", f.Events[0])
	}
}

func TestParseFrameSplitsEventsOnBlankLines(t *testing.T) {
	raw := "Response: Success\r\n" +
		"EventList: start\r\n" +
		"\r\n" +
		"Event: PeerEntry\r\nObjectName: 101\r\n" +
		"\r\n" +
		"Event: PeerEntry\r\nObjectName: 102\r\n" +
		"\r\n"
	f := ParseFrame(raw)
	if len(f.Events) != 3 {
		t.Fatalf("expected 3 event blocks, got %d", len(f.Events))
	}
	if f.Events[1]["ObjectName"] != "101" || f.Events[2]["ObjectName"] != "102" {
		t.Fatalf("event order lost: %+v", f.Events)
	}
}

func TestParseFrameFlatLaterDuplicateWins(t *testing.T) {
	raw := "ObjectName: first\r\n\r\nObjectName: second\r\n\r\n"
	f := ParseFrame(raw)
	if f.Flat["ObjectName"] != "second" {
		t.Fatalf("later duplicate must win, got %q", f.Flat["ObjectName"])
	}
	if f.Events[0]["ObjectName"] != "first" {
		t.Fatalf("per-event value lost: %+v", f.Events)
	}
}

func TestParseFrameSkipsMalformedLines(t *testing.T) {
	raw := "Response: Success\r\nAsterisk Call Manager/8.0\r\nUptime: 42\r\n\r\n"
	f := ParseFrame(raw)
	if !f.Success {
		t.Fatalf("expected success despite malformed line")
	}
	if f.Flat["Uptime"] != "42" {
		t.Fatalf("header after malformed line lost: %+v", f.Flat)
	}
}

func TestParseFrameMessageSurvivesResponseOrder(t *testing.T) {
	f := ParseFrame("Message: Pong sent\r\nResponse: Success\r\n\r\n")
	if f.Message != "Pong sent" {
		t.Fatalf("explicit Message must win regardless of order, got %q", f.Message)
	}
}

func TestParseFrameActionID(t *testing.T) {
	f := ParseFrame("Response: Success\r\nActionID: 7\r\n\r\n")
	id, ok := f.ActionID()
	if !ok || id != "7" {
		t.Fatalf("action id mismatch: %q ok=%v", id, ok)
	}
	if _, ok := ParseFrame("Response: Success\r\n\r\n").ActionID(); ok {
		t.Fatalf("missing action id must report absent")
	}
}
