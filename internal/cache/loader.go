package cache

import "time"

// Loader produces a value for a cache miss.
type Loader func() (any, error)

// GetOrLoad is the cache-aside path used at read call sites: return the
// cached value if fresh, otherwise compute, cache and return. When the
// loader fails and a placeholder was configured, the placeholder is returned
// instead of the error.
func (c *Cache) GetOrLoad(key string, ttl time.Duration, load Loader, placeholder any) (any, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := load()
	if err != nil {
		if placeholder != nil {
			return placeholder, nil
		}
		return nil, err
	}
	c.Set(key, v, ttl)
	return v, nil
}
