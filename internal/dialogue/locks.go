package dialogue

import (
	"sync"

	"github.com/google/uuid"
)

// sessionLocks serializes turns per session id. TryLock fails instead
// of blocking so a second turn arriving while one is in flight gets an
// immediate, retryable conflict.
type sessionLocks struct {
	held sync.Map // map[uuid.UUID]struct{}
}

func (l *sessionLocks) TryLock(id uuid.UUID) bool {
	_, loaded := l.held.LoadOrStore(id, struct{}{})
	return !loaded
}

func (l *sessionLocks) Unlock(id uuid.UUID) {
	l.held.Delete(id)
}
