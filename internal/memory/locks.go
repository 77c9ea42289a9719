package memory

import (
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// lockTable holds named locks with a time to live. There is no owner
// token: whoever knows the name can release the lock.
type lockTable struct {
	mu      sync.Mutex
	entries *gocache.Cache
}

func newLockTable(cleanup time.Duration) *lockTable {
	return &lockTable{entries: gocache.New(gocache.NoExpiration, cleanup)}
}

func (l *lockTable) acquire(name string, ttl time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	// Add fails while an unexpired entry exists.
	return l.entries.Add(name, struct{}{}, ttl) == nil
}

func (l *lockTable) release(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, found := l.entries.Get(name); !found {
		return false
	}
	l.entries.Delete(name)
	return true
}

func (l *lockTable) flush() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries.Flush()
}
