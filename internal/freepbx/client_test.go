package freepbx

import (
	"errors"
	"testing"

	"github.com/danmuck/shtops/internal/testutil/testlog"
)

type fakeManager struct {
	outputs map[string]string
	errs    map[string]error
	ran     []string
	pingOK  bool
	closed  bool
}

func (f *fakeManager) Command(cmd string) (string, error) {
	f.ran = append(f.ran, cmd)
	if err, ok := f.errs[cmd]; ok {
		return "", err
	}
	return f.outputs[cmd], nil
}

func (f *fakeManager) Ping() (bool, error) { return f.pingOK, nil }

func (f *fakeManager) Close() error {
	f.closed = true
	return nil
}

func TestAsteriskInfo(t *testing.T) {
	testlog.Start(t)
	c := &Client{conn: &fakeManager{outputs: map[string]string{
		"core show version": "Asterisk 20.5.0 built by mockbuild @ localhost on a x86_64\n",
		"core show uptime":  "System uptime: 3 weeks, 2 days\n",
	}}}

	info, err := c.AsteriskInfo()
	if err != nil {
		t.Fatalf("asterisk info: %v", err)
	}
	if info.Version != "Asterisk 20.5.0 built by mockbuild @ localhost on a x86_64" {
		t.Fatalf("version mismatch: %q", info.Version)
	}
	if info.Uptime != "System uptime: 3 weeks, 2 days" {
		t.Fatalf("uptime mismatch: %q", info.Uptime)
	}
}

func TestExtensionsMergesLegacyPeers(t *testing.T) {
	testlog.Start(t)
	c := &Client{conn: &fakeManager{outputs: map[string]string{
		"pjsip show endpoints": "" +
			" Endpoint:  <Endpoint/CID.....>   <State.....>  <Channels.>\n" +
			"==========================================================\n" +
			" 101/101    Not in use    0 of inf\n" +
			" 102/102    Unavailable   0 of inf\n",
		"sip show peers": "" +
			"Name/username    Host          Dyn Forcerport  Status\n" +
			"102/102          192.168.1.12  D   Yes         OK (12 ms)\n" +
			"201/201          192.168.1.21  D   Yes         UNREACHABLE\n" +
			"2 sip peers [Monitored: 2 online, 0 offline]\n",
	}}}

	exts, err := c.Extensions()
	if err != nil {
		t.Fatalf("extensions: %v", err)
	}
	if len(exts) != 3 {
		t.Fatalf("expected 3 extensions, got %d: %+v", len(exts), exts)
	}
	if exts[0].Extension != "101" || exts[0].Tech != "PJSIP" {
		t.Fatalf("pjsip endpoint mismatch: %+v", exts[0])
	}
	// 102 exists in both listings; the PJSIP entry wins.
	for _, e := range exts {
		if e.Extension == "102" && e.Tech != "PJSIP" {
			t.Fatalf("duplicate peer not deduplicated: %+v", e)
		}
	}
	if exts[2].Extension != "201" || exts[2].Tech != "SIP" {
		t.Fatalf("legacy peer mismatch: %+v", exts[2])
	}
}

func TestExtensionsLegacyCapabilityAbsent(t *testing.T) {
	testlog.Start(t)
	c := &Client{conn: &fakeManager{outputs: map[string]string{
		"pjsip show endpoints": " 101/101    Not in use    0 of inf\n",
		"sip show peers":       "No such command 'sip show peers'\n",
	}}}

	exts, err := c.Extensions()
	if err != nil {
		t.Fatalf("capability absence must not fail the listing: %v", err)
	}
	if len(exts) != 1 {
		t.Fatalf("expected 1 extension, got %d", len(exts))
	}
}

func TestExtensionsTransportErrorPropagates(t *testing.T) {
	testlog.Start(t)
	boom := errors.New("broken pipe")
	c := &Client{conn: &fakeManager{
		outputs: map[string]string{"pjsip show endpoints": " 101/101 Not in use 0 of inf\n"},
		errs:    map[string]error{"sip show peers": boom},
	}}

	if _, err := c.Extensions(); !errors.Is(err, boom) {
		t.Fatalf("transport error must propagate, got %v", err)
	}
}

func TestTrunks(t *testing.T) {
	testlog.Start(t)
	c := &Client{conn: &fakeManager{outputs: map[string]string{
		"pjsip show registrations": "" +
			" <Registration/ServerURI..............................>  <Auth..........>  <Status.......>\n" +
			"==========================================================\n" +
			" sip-provider/sip:sip.example.net  sip-provider-auth  Registered\n" +
			"Objects found: 1\n",
		"sip show registry": "No such command 'sip show registry'\n",
	}}}

	trunks, err := c.Trunks()
	if err != nil {
		t.Fatalf("trunks: %v", err)
	}
	if len(trunks) != 1 {
		t.Fatalf("expected 1 trunk, got %d: %+v", len(trunks), trunks)
	}
	if trunks[0].Name != "sip-provider/sip:sip.example.net" || trunks[0].State != "sip-provider-auth" {
		t.Fatalf("trunk mismatch: %+v", trunks[0])
	}
}

func TestQueues(t *testing.T) {
	testlog.Start(t)
	out := "support has 2 calls (max unlimited) in 'ringall' strategy\n" +
		"   Members:\n" +
		"      Agent/1001 (ringinuse disabled)\n" +
		"   Longest Hold Time: 34\n" +
		"\n" +
		"sales has 0 calls (max unlimited) in 'ringall' strategy\n" +
		"\n"
	c := &Client{conn: &fakeManager{outputs: map[string]string{"queue show": out}}}

	queues, err := c.Queues()
	if err != nil {
		t.Fatalf("queues: %v", err)
	}
	if len(queues) != 2 {
		t.Fatalf("expected 2 queues, got %d: %+v", len(queues), queues)
	}
	if queues[0].Name != "support" || queues[0].Calls != "2" {
		t.Fatalf("queue mismatch: %+v", queues[0])
	}
	if queues[0].HoldTime != "34" {
		t.Fatalf("hold time mismatch: %+v", queues[0])
	}
	if queues[1].Name != "sales" || queues[1].Calls != "0" {
		t.Fatalf("queue mismatch: %+v", queues[1])
	}
}

func TestActiveCalls(t *testing.T) {
	testlog.Start(t)
	out := "Channel: PJSIP/101-00000001\n" +
		"CallerIDNum: 101\n" +
		"CallerIDName: Front Desk\n" +
		"State: Up\n" +
		"Duration: 00:02:17\n" +
		"ConnectedLineNum: 15551234567\n" +
		"Channel: PJSIP/102-00000002\n" +
		"State: Ringing\n"
	c := &Client{conn: &fakeManager{outputs: map[string]string{"core show channels verbose": out}}}

	calls, err := c.ActiveCalls()
	if err != nil {
		t.Fatalf("active calls: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Channel != "PJSIP/101-00000001" || calls[0].ConnectedNum != "15551234567" {
		t.Fatalf("call mismatch: %+v", calls[0])
	}
	if calls[1].State != "Ringing" {
		t.Fatalf("call mismatch: %+v", calls[1])
	}
}

func TestCloseReleasesConnection(t *testing.T) {
	testlog.Start(t)
	fake := &fakeManager{pingOK: true}
	c := &Client{conn: fake}

	ok, err := c.TestConnection()
	if err != nil || !ok {
		t.Fatalf("test connection: ok=%v err=%v", ok, err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !fake.closed {
		t.Fatalf("underlying connection not released")
	}
}
