package session

import (
	"time"

	"github.com/patrickmn/go-cache"

	vmetrics "talentmatch/internal/verification/metrics"
	"talentmatch/pkg/domain"
	psync "talentmatch/pkg/platform/sync"
)

const DefaultTTL = 30 * time.Minute

// Registry holds one Session per slot. Sessions untouched for the TTL are
// evicted and closed, which cancels their poll loop.
type Registry struct {
	locks   *psync.KeyedMutex
	cache   *cache.Cache
	factory func(slot domain.SlotID) *Session
	metrics *vmetrics.Metrics
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

func WithRegistryMetrics(m *vmetrics.Metrics) RegistryOption {
	return func(r *Registry) {
		r.metrics = m
	}
}

// NewRegistry creates sessions on demand with the given collaborators and
// session options.
func NewRegistry(initiator Initiator, poller Poller, ttl time.Duration, sessionOpts []Option, opts ...RegistryOption) *Registry {
	return NewRegistryWithFactory(func(slot domain.SlotID) *Session {
		return New(slot, initiator, poller, sessionOpts...)
	}, ttl, opts...)
}

// NewRegistryWithFactory creates a registry using factory to build sessions.
func NewRegistryWithFactory(factory func(slot domain.SlotID) *Session, ttl time.Duration, opts ...RegistryOption) *Registry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	r := &Registry{
		locks:   psync.NewKeyedMutex(0),
		cache:   cache.New(ttl, ttl/2),
		factory: factory,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.cache.OnEvicted(func(_ string, v any) {
		if s, ok := v.(*Session); ok {
			s.Close()
		}
		r.metrics.SetActiveSessions(r.cache.ItemCount())
	})
	return r
}

// Get returns the session of slot, creating it when absent or when the
// cached one was already closed by eviction. Every call extends the
// session's lifetime.
func (r *Registry) Get(slot domain.SlotID) *Session {
	key := slot.String()
	var s *Session
	r.locks.WithLock(key, func() {
		if cached, ok := r.live(key); ok {
			s = cached
			r.cache.SetDefault(key, s)
			return
		}
		s = r.factory(slot)
		r.cache.SetDefault(key, s)
		r.metrics.SetActiveSessions(r.cache.ItemCount())
	})
	return s
}

// Lookup returns the session of slot without creating one, and extends its
// lifetime so a slot that is still being read does not expire.
func (r *Registry) Lookup(slot domain.SlotID) (*Session, bool) {
	key := slot.String()
	var (
		s  *Session
		ok bool
	)
	r.locks.WithLock(key, func() {
		if s, ok = r.live(key); ok {
			r.cache.SetDefault(key, s)
		}
	})
	return s, ok
}

// live returns the cached session of key unless it is missing or closed.
func (r *Registry) live(key string) (*Session, bool) {
	v, ok := r.cache.Get(key)
	if !ok {
		return nil, false
	}
	s := v.(*Session)
	select {
	case <-s.Done():
		return nil, false
	default:
		return s, true
	}
}

// Remove closes and forgets the session of slot.
func (r *Registry) Remove(slot domain.SlotID) {
	r.cache.Delete(slot.String())
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	return r.cache.ItemCount()
}

// Close closes every session.
func (r *Registry) Close() {
	for key := range r.cache.Items() {
		r.cache.Delete(key)
	}
}
