package reader

import (
	"fmt"
	"time"

	"tracker-etl/internal/cache"
	"tracker-etl/internal/frame"
	"tracker-etl/internal/store"
)

// Reader is the downstream read path over the store: whole tables are
// materialized on demand and cached with a TTL, so repeated reads of the same
// table between pipeline runs do not hit the database. It never takes part in
// pipeline execution.
type Reader struct {
	store *store.Store
	cache *cache.Cache
	ttl   time.Duration
}

func New(st *store.Store, ttl time.Duration) *Reader {
	return &Reader{store: st, cache: cache.New(ttl), ttl: ttl}
}

// Table returns the named table, from cache when fresh.
func (r *Reader) Table(name string) (*frame.Frame, error) {
	v, err := r.cache.GetOrLoad("table:"+name, r.ttl, func() (any, error) {
		return r.store.Query("SELECT * FROM " + quote(name))
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %q: %w", name, err)
	}
	return v.(*frame.Frame), nil
}

// TableOr returns the named table, or the placeholder when the read fails.
// Used by display surfaces that prefer an empty view over an error page.
func (r *Reader) TableOr(name string, placeholder *frame.Frame) *frame.Frame {
	v, _ := r.cache.GetOrLoad("table:"+name, r.ttl, func() (any, error) {
		return r.store.Query("SELECT * FROM " + quote(name))
	}, placeholder)
	if v == nil {
		return placeholder
	}
	return v.(*frame.Frame)
}

// Refresh drops the cached copy of one table.
func (r *Reader) Refresh(name string) {
	r.cache.Invalidate("table:" + name)
}

// Clear drops every cached table.
func (r *Reader) Clear() {
	r.cache.Clear()
}

// CacheStats reports the underlying cache state.
func (r *Reader) CacheStats() cache.Stats {
	return r.cache.GetStats()
}

func quote(name string) string {
	return `"` + name + `"`
}
