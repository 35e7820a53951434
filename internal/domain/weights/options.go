package weights

import "github.com/okian/leaguelearn/pkg/logger"

// Option configures a Resolver.
type Option func(*Resolver)

// WithWindow sets the number of seasons blended. Values below 1 are ignored.
func WithWindow(window int) Option {
	return func(r *Resolver) {
		if window > 0 {
			r.window = window
		}
	}
}

// WithMode sets the recency bias.
func WithMode(mode Mode) Option {
	return func(r *Resolver) {
		if mode == ModeLinear || mode == ModeExponential {
			r.mode = mode
		}
	}
}

// WithLogger sets the logger used to report degraded resolutions.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}
