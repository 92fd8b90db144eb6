package ami

import "time"

// Config defines connection and dispatch timing.
type Config struct {
	// ConnectTimeout bounds the TCP dial.
	ConnectTimeout time.Duration
	// CallTimeout bounds every banner read, dispatch, and command call.
	CallTimeout time.Duration
	// DrainBudget bounds the pre-send drain window.
	DrainBudget time.Duration
	// PostLoginDrain bounds the flush of boot-time event noise after a
	// successful login.
	PostLoginDrain time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
		CallTimeout:    10 * time.Second,
		DrainBudget:    100 * time.Millisecond,
		PostLoginDrain: 250 * time.Millisecond,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = def.CallTimeout
	}
	if c.DrainBudget <= 0 {
		c.DrainBudget = def.DrainBudget
	}
	if c.PostLoginDrain <= 0 {
		c.PostLoginDrain = def.PostLoginDrain
	}
	return c
}
