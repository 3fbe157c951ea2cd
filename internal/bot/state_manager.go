package bot

import (
	"sync"
	"time"
)

// stateTTL bounds how long a prompted admin input stays valid.
const stateTTL = 5 * time.Minute

// UserState saves a context for next message from user.
type UserState struct {
	WaitingFor string
	ExpiresAt  time.Time
}

// StateManager manages the states of all users.
type StateManager struct {
	mu     sync.Mutex
	states map[int64]UserState
}

func NewStateManager() *StateManager {
	return &StateManager{states: make(map[int64]UserState)}
}

// Set sets the state for the user, stamped with the expiry deadline.
func (sm *StateManager) Set(userID int64, state UserState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if state.ExpiresAt.IsZero() {
		state.ExpiresAt = time.Now().Add(stateTTL)
	}
	sm.states[userID] = state
}

// Get gets and immediately delete user state. Callers check ExpiresAt to
// tell a timed-out prompt from a valid one.
func (sm *StateManager) Get(userID int64) (UserState, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	state, ok := sm.states[userID]
	if ok {
		delete(sm.states, userID)
	}
	return state, ok
}
