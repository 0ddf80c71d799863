package cache

// Option applies a configuration option to the artifact cache.
type Option func(*artifactCache)

// WithMaxEntries bounds the number of cached artifacts. Zero or less disables the cache.
func WithMaxEntries(n int) Option {
	return func(c *artifactCache) {
		c.maxEntries = n
	}
}
