package botkit

import "sync"

// CommandLock provides mutual exclusion for locked commands per user.
// Locked commands block other locked commands for the same user.
// Non-locked commands always run without blocking.
type CommandLock struct {
	mu    sync.Mutex
	users map[int64]struct{}
}

// NewCommandLock creates a new CommandLock.
func NewCommandLock() *CommandLock {
	return &CommandLock{
		users: make(map[int64]struct{}),
	}
}

// TryLock acquires the lock for userID. It returns false if a locked
// command of that user is already running.
func (l *CommandLock) TryLock(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.users[userID]; held {
		return false
	}
	l.users[userID] = struct{}{}
	return true
}

// Unlock releases the lock for user.
func (l *CommandLock) Unlock(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.users, userID)
}

// Held reports whether userID currently holds the lock.
func (l *CommandLock) Held(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, held := l.users[userID]
	return held
}
