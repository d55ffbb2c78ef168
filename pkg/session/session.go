// Package session holds per-client conversation state for the kiosk. Sessions
// are created on connect (or lazily for unknown ids) and purged on disconnect.
package session

import (
	"sync"
	"time"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry in the conversation transcript.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is the typed per-client conversation record.
type Session struct {
	ID string

	// History is the conversation transcript, capped to the newest
	// maxHistory turns so long-lived kiosks don't grow without bound.
	History []Turn

	// Slots holds attributes collected by the clarification flow.
	Slots map[string]string

	// PendingQuestion marks that a clarifying question was asked and the
	// next utterance answers it. Empty when no question is pending.
	PendingQuestion string

	// Dedupe state for duplicate recognizer output.
	LastUserText string
	LastUserAt   time.Time

	// Greeting state for the current presence episode.
	Greeted        bool
	LastGreetAt    time.Time
	LastFarewellAt time.Time

	maxHistory int
}

// Append adds a turn to the transcript, evicting the oldest turns beyond the
// history cap.
func (s *Session) Append(role Role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content})
	if s.maxHistory > 0 && len(s.History) > s.maxHistory {
		s.History = s.History[len(s.History)-s.maxHistory:]
	}
}

// RecentUserTexts returns up to n of the most recent user turns, oldest
// first, excluding the very last user turn (the one being handled now).
func (s *Session) RecentUserTexts(n int) []string {
	var users []string
	for _, t := range s.History {
		if t.Role == RoleUser {
			users = append(users, t.Content)
		}
	}
	if len(users) > 0 {
		users = users[:len(users)-1]
	}
	if len(users) > n {
		users = users[len(users)-n:]
	}
	return users
}

// Store owns all client sessions, keyed by client id.
type Store struct {
	mu         sync.Mutex
	sessions   map[string]*Session
	maxHistory int
}

// NewStore creates a session store. maxHistory caps each session's
// transcript; zero means unbounded.
func NewStore(maxHistory int) *Store {
	return &Store{
		sessions:   make(map[string]*Session),
		maxHistory: maxHistory,
	}
}

// With runs fn with the client's session held under the store lock. Unknown
// client ids get a fresh session rather than an error. fn must not block on
// network calls; do those outside and come back.
func (st *Store) With(clientID string, fn func(s *Session)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[clientID]
	if !ok {
		s = &Session{
			ID:         clientID,
			Slots:      make(map[string]string),
			maxHistory: st.maxHistory,
		}
		st.sessions[clientID] = s
	}
	fn(s)
}

// Remove purges a client's session on disconnect.
func (st *Store) Remove(clientID string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, clientID)
}

// Count returns the number of live sessions.
func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}
