package engine

import (
	"sync"

	"repkit/core"
)

// userLocks serializes recomputations per user identifier so the
// load-compute-store sequence cannot interleave for the same user.
// Different users proceed in parallel.
type userLocks struct {
	mu sync.Map // map[core.UserID]*sync.Mutex
}

func (l *userLocks) lock(user core.UserID) (unlock func()) {
	v, _ := l.mu.LoadOrStore(user, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
