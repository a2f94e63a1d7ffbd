// Package hooks fires a socket.Dispatcher's lifecycle events (packet
// reassembled, chunk rejected, reassembly timeout, signal received, peer
// acknowledged) out to shell scripts, webhooks and/or stdio, each tagged
// with the peer address and hex-encoded snowflake the event concerns.
package hooks

import (
	"context"
	"time"
)

// Hook represents a handler that can be executed when a SLIM lifecycle
// event occurs
type Hook interface {
	// Execute runs the hook with the given event
	Execute(ctx context.Context, event Event) error

	// Type returns the hook type identifier
	Type() string

	// ID returns a unique identifier for this hook instance
	ID() string
}

// HookConfig represents the configuration for hooks
type HookConfig struct {
	// Timeout for hook execution (default: 30s)
	Timeout string `json:"timeout"`

	// Maximum number of concurrent hook executions (default: 10)
	Concurrency int `json:"concurrency"`

	// Whether to enable structured stdio output
	StdioFormat string `json:"stdio_format"` // "json", "env", or ""
}

// DefaultHookConfig returns a configuration with sensible defaults
func DefaultHookConfig() HookConfig {
	return HookConfig{
		Timeout:     "30s",
		Concurrency: 10,
		StdioFormat: "",
	}
}

// WithDefaults fills in c's zero-valued Timeout/Concurrency from
// DefaultHookConfig, so a socket.Dispatcher assembling a HookConfig from its
// own -hook-timeout/-hook-concurrency flags doesn't need to duplicate the
// fallback values itself.
func (c HookConfig) WithDefaults() HookConfig {
	defaults := DefaultHookConfig()
	if c.Timeout == "" {
		c.Timeout = defaults.Timeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaults.Concurrency
	}
	return c
}

// TimeoutDuration parses Timeout, falling back to DefaultHookConfig's
// timeout if it is empty or malformed. Shell and webhook hooks each need a
// time.Duration for their own execution deadline, not just the manager's
// string config field.
func (c HookConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultHookConfig().Timeout)
	}
	return d
}
