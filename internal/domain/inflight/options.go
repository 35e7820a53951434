package inflight

// Option applies a configuration option to the in-memory guard.
type Option func(*inMemoryGuard)

// WithMaxSize caps how many units may be held at once. When the cap is
// reached TryAcquire refuses new units. maxSize <= 0 means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(g *inMemoryGuard) {
		g.maxSize = maxSize
	}
}
