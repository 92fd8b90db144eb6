package freepbx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/shtops/internal/ami"
	"github.com/danmuck/shtops/internal/observability"
)

// ErrUnsupported means the manager does not know the probed command. Legacy
// SIP listings are optional on modern installs; callers distinguish an
// absent capability from a genuine transport failure.
var ErrUnsupported = errors.New("freepbx: command not supported")

// Config locates the manager interface.
type Config struct {
	Host     string
	Port     int
	Username string
	Secret   string
	AMI      ami.Config
}

// manager is the slice of the AMI facade this client consumes.
type manager interface {
	Command(text string) (string, error)
	Ping() (bool, error)
	Close() error
}

// Client is a high-level PBX view over one manager connection.
type Client struct {
	conn manager
}

// New connects and authenticates against the manager interface.
func New(cfg Config) (*Client, error) {
	conn, err := ami.Connect(cfg.Host, cfg.Port, cfg.Username, cfg.Secret, cfg.AMI)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn}, nil
}

// TestConnection reports manager liveness.
func (c *Client) TestConnection() (bool, error) {
	return c.conn.Ping()
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) run(cmd string) (string, error) {
	start := time.Now()
	out, err := c.conn.Command(cmd)
	observability.RecordManagerCommand(cmd, err == nil, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("freepbx: %s: %w", cmd, err)
	}
	if strings.Contains(out, "No such command") {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, cmd)
	}
	return out, nil
}

// AsteriskInfo returns version and uptime from the console.
func (c *Client) AsteriskInfo() (SystemInfo, error) {
	versionOut, err := c.run("core show version")
	if err != nil {
		return SystemInfo{}, err
	}
	info := SystemInfo{RawVersion: versionOut}
	for _, line := range strings.Split(versionOut, "\n") {
		if strings.Contains(line, "Asterisk") && strings.Contains(line, "built") {
			info.Version = strings.TrimSpace(line)
			break
		}
	}

	uptimeOut, err := c.run("core show uptime")
	if err != nil {
		return SystemInfo{}, err
	}
	info.Uptime = strings.TrimSpace(uptimeOut)
	return info, nil
}

// Extensions lists PJSIP endpoints plus legacy SIP peers when the legacy
// channel driver is loaded.
func (c *Client) Extensions() ([]Extension, error) {
	pjsipOut, err := c.run("pjsip show endpoints")
	if err != nil {
		return nil, err
	}
	extensions := parsePJSIPEndpoints(pjsipOut)

	sipOut, err := c.run("sip show peers")
	switch {
	case errors.Is(err, ErrUnsupported):
		log.Debug().Msg("freepbx_legacy_sip_absent")
	case err != nil:
		return nil, err
	default:
		seen := make(map[string]bool, len(extensions))
		for _, e := range extensions {
			seen[e.Extension] = true
		}
		for _, e := range parseSIPPeers(sipOut) {
			if !seen[e.Extension] {
				extensions = append(extensions, e)
			}
		}
	}
	return extensions, nil
}

// Trunks lists PJSIP outbound registrations plus the legacy SIP registry.
func (c *Client) Trunks() ([]Trunk, error) {
	pjsipOut, err := c.run("pjsip show registrations")
	if err != nil {
		return nil, err
	}
	trunks := parseRegistrations(pjsipOut)

	sipOut, err := c.run("sip show registry")
	switch {
	case errors.Is(err, ErrUnsupported):
		log.Debug().Msg("freepbx_legacy_sip_registry_absent")
	case err != nil:
		return nil, err
	default:
		trunks = append(trunks, parseSIPRegistry(sipOut)...)
	}
	return trunks, nil
}

// Queues lists call queues with waiting-call and member counts.
func (c *Client) Queues() ([]Queue, error) {
	out, err := c.run("queue show")
	if err != nil {
		return nil, err
	}
	return parseQueues(out), nil
}

// ActiveCalls lists channels currently up.
func (c *Client) ActiveCalls() ([]Call, error) {
	out, err := c.run("core show channels verbose")
	if err != nil {
		return nil, err
	}
	return parseActiveCalls(out), nil
}
