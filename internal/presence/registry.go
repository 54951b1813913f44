package presence

import (
	"sort"
	"sync"
)

// Registry tracks which users currently hold at least one live connection.
// Connections are reference counted per user, so a user with two tabs stays
// online until the last one closes. State is in-memory only and rebuilt from
// scratch as clients reconnect after a restart.
type Registry struct {
	mu   sync.Mutex
	refs map[int]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{refs: make(map[int]int)}
}

// Connect registers one connection for the user. Returns true when this is
// the user's first active connection, i.e. the user just came online.
func (r *Registry) Connect(userID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[userID]++
	return r.refs[userID] == 1
}

// Disconnect releases one connection for the user. Returns true when it was
// the last one, i.e. the user just went offline.
func (r *Registry) Disconnect(userID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	count, ok := r.refs[userID]
	if !ok {
		return false
	}
	if count <= 1 {
		delete(r.refs, userID)
		return true
	}
	r.refs[userID] = count - 1
	return false
}

// IsOnline reports whether the user has any active connection.
func (r *Registry) IsOnline(userID int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs[userID] > 0
}

// Online returns a sorted snapshot of all online user ids. The full list is
// rebroadcast on every presence change so clients never drift.
func (r *Registry) Online() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]int, 0, len(r.refs))
	for userID := range r.refs {
		users = append(users, userID)
	}
	sort.Ints(users)
	return users
}
