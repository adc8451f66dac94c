package webclient

import "time"

// Config selects and tunes the fetch backend.
type Config struct {
	// Backend names the registered backend to use; empty means "nethttp".
	Backend string `yaml:"backend" json:"backend"`
	// Timeout bounds one fetch, including rendering for browser backends.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// UserAgent overrides the default request User-Agent when non-empty.
	UserAgent string `yaml:"user_agent" json:"user_agent"`
}

// DefaultTimeout is used when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

func (c *Config) timeout() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
