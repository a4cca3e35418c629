package token

import (
	"sync"
	"time"
)

// Registry tracks revoked token ids. Revoking is idempotent; entries only
// need to survive until the token they belong to would expire anyway.
type Registry interface {
	Revoke(jti string, expiresAt time.Time)
	IsRevoked(jti string) bool
	Close()
}

type memoryRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time
	stopCh  chan struct{}
	once    sync.Once
}

// NewMemoryRegistry returns a process-local registry. Entries whose token
// expiry has passed are pruned by a background sweep.
func NewMemoryRegistry(sweepEvery time.Duration) Registry {
	if sweepEvery <= 0 {
		sweepEvery = 5 * time.Minute
	}
	r := &memoryRegistry{
		entries: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}
	go r.sweepLoop(sweepEvery)
	return r
}

func (r *memoryRegistry) Revoke(jti string, expiresAt time.Time) {
	if jti == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[jti]; ok {
		return
	}
	r.entries[jti] = expiresAt
}

func (r *memoryRegistry) IsRevoked(jti string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[jti]
	return ok
}

func (r *memoryRegistry) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.cleanup(time.Now())
		case <-r.stopCh:
			return
		}
	}
}

func (r *memoryRegistry) cleanup(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for jti, expiresAt := range r.entries {
		if !expiresAt.IsZero() && now.After(expiresAt) {
			delete(r.entries, jti)
		}
	}
}

func (r *memoryRegistry) Close() {
	r.once.Do(func() {
		close(r.stopCh)
	})
}
