package collectors

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/shtops/internal/freepbx"
)

// pbxClient is the slice of freepbx.Client the collector needs.
type pbxClient interface {
	AsteriskInfo() (freepbx.SystemInfo, error)
	Extensions() ([]freepbx.Extension, error)
	Trunks() ([]freepbx.Trunk, error)
	Queues() ([]freepbx.Queue, error)
	ActiveCalls() ([]freepbx.Call, error)
	Close() error
}

// FreePBX collects the PBX snapshot over the Asterisk manager port.
// A fresh connection is dialed per run; the manager session is cheap
// and holding one open across runs just rots.
type FreePBX struct {
	cfg     freepbx.Config
	connect func(freepbx.Config) (pbxClient, error)
}

// NewFreePBX builds the collector from manager connection settings.
func NewFreePBX(cfg freepbx.Config) *FreePBX {
	return &FreePBX{
		cfg: cfg,
		connect: func(cfg freepbx.Config) (pbxClient, error) {
			return freepbx.New(cfg)
		},
	}
}

func (f *FreePBX) System() string { return "freepbx" }

// Collect gathers every section. One failing section degrades to an
// entry under "errors" rather than failing the whole snapshot, so a
// PBX with, say, no queues configured still produces useful data.
func (f *FreePBX) Collect() (map[string]any, error) {
	client, err := f.connect(f.cfg)
	if err != nil {
		return nil, fmt.Errorf("freepbx connect: %w", err)
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("freepbx_close")
		}
	}()

	payload := map[string]any{}
	sectionErrs := map[string]any{}
	section := func(name string, value any, err error) {
		if err != nil {
			log.Warn().Err(err).Str("section", name).Msg("freepbx_section_failed")
			sectionErrs[name] = err.Error()
			return
		}
		payload[name] = value
	}

	info, err := client.AsteriskInfo()
	section("system_info", info, err)
	extensions, err := client.Extensions()
	section("extensions", emptyNotNil(extensions), err)
	trunks, err := client.Trunks()
	section("trunks", emptyNotNil(trunks), err)
	queues, err := client.Queues()
	section("queues", emptyNotNil(queues), err)
	calls, err := client.ActiveCalls()
	section("active_calls", emptyNotNil(calls), err)

	if len(sectionErrs) == len(Sections) {
		return nil, fmt.Errorf("freepbx: every section failed: %v", sectionErrs)
	}
	if len(sectionErrs) > 0 {
		payload["errors"] = sectionErrs
	}
	return payload, nil
}

// Sections are the snapshot keys Collect produces on a healthy PBX.
var Sections = []string{"system_info", "extensions", "trunks", "queues", "active_calls"}

// emptyNotNil keeps absent lists as [] in the JSON instead of null.
func emptyNotNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
