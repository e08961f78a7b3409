package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// HomeModule is the module every session starts in after login.
const HomeModule = "home"

// Session is the in-memory record of one authenticated user. It lives for the
// process lifetime: there is no expiry, only explicit logout.
type Session struct {
	ID            uuid.UUID `json:"id"`
	UserID        uint      `json:"user_id"`
	Username      string    `json:"username"`
	RoleID        *uint     `json:"role_id"`
	RoleName      string    `json:"role_name"`
	CurrentModule string    `json:"current_module"`
	CreatedAt     time.Time `json:"created_at"`
}

// Manager is the process-wide session registry. A missing entry is the
// logged-out state; Delete invalidates any token still carrying the id.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Create registers a new session positioned at the home module.
func (m *Manager) Create(userID uint, username string, roleID *uint, roleName string) *Session {
	s := &Session{
		ID:            uuid.New(),
		UserID:        userID,
		Username:      username,
		RoleID:        roleID,
		RoleName:      roleName,
		CurrentModule: HomeModule,
		CreatedAt:     time.Now(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	snap := *s
	return &snap
}

// Get returns a snapshot of the session for id, or nil when logged out.
// The stored record is never handed out, so callers can read the snapshot
// without holding the manager's lock while SetModule mutates the original.
func (m *Manager) Get(id uuid.UUID) *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil
	}
	snap := *s
	return &snap
}

// Delete logs the session out. Deleting an unknown id is a no-op.
func (m *Manager) Delete(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// SetModule records the module the session is currently viewing. The caller
// is responsible for having authorized the change.
func (m *Manager) SetModule(id uuid.UUID, module string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return false
	}
	s.CurrentModule = module
	return true
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
