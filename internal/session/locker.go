package session

import "sync"

// Locker admits one in-flight request per user. A second request from the
// same user is rejected rather than queued.
type Locker struct {
	mu   sync.Mutex
	busy map[int64]struct{}
}

func NewLocker() *Locker {
	return &Locker{busy: make(map[int64]struct{})}
}

// TryAcquire returns a release func and true, or nil and false when the
// user already holds the lock. release is safe to call more than once.
func (l *Locker) TryAcquire(userID int64) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.busy[userID]; ok {
		return nil, false
	}
	l.busy[userID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.busy, userID)
			l.mu.Unlock()
		})
	}, true
}
