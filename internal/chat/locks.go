package chat

import "sync"

// chatLocks serializes all mutating operations per chat id. The pending
// message quota is a check-then-insert, so two concurrent sends on the same
// chat must not interleave between the count and the write.
type chatLocks struct {
	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func newChatLocks() *chatLocks {
	return &chatLocks{locks: make(map[int]*sync.Mutex)}
}

// Lock acquires the chat's mutex and returns the unlock func.
func (l *chatLocks) Lock(chatID int) func() {
	l.mu.Lock()
	m, ok := l.locks[chatID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[chatID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
