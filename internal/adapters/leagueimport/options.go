package leagueimport

import (
	"time"

	"github.com/okian/leaguelearn/pkg/logger"
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each outbound call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outbound calls at rps with the given burst.
// rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.rps = rps
		if burst > 0 {
			c.burst = burst
		}
	}
}

// WithBreakerName names the circuit breaker in logs.
func WithBreakerName(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.breakerName = name
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}
