package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"tailorkit/internal/app"
	"tailorkit/internal/errors"
	"tailorkit/internal/observability"
	"tailorkit/internal/presentation"
)

// Session is one user's controller and result workspace
type Session struct {
	ID        string
	CreatedAt time.Time

	Controller *app.Controller
	Workspace  *presentation.Workspace

	mu       sync.Mutex
	lastSeen time.Time
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// SessionFactory builds the controller and workspace of a new session
type SessionFactory func() (*app.Controller, *presentation.Workspace)

// SessionStore keeps sessions in memory. Sessions idle for longer than the
// TTL are evicted by a background sweep and on access.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session

	ttl         time.Duration
	maxSessions int
	factory     SessionFactory
	now         func() time.Time

	om     *observability.ObservabilityManager
	logger *errors.Logger

	done      chan struct{}
	closeOnce sync.Once
}

// NewSessionStore creates a store and starts its eviction sweep. A
// non-positive ttl disables expiry; a non-positive maxSessions disables the
// cap. om may be nil.
func NewSessionStore(ttl time.Duration, maxSessions int, factory SessionFactory, om *observability.ObservabilityManager, logger *errors.Logger) *SessionStore {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	st := &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		maxSessions: maxSessions,
		factory:     factory,
		now:         time.Now,
		om:          om,
		logger:      logger,
		done:        make(chan struct{}),
	}
	if ttl > 0 {
		go st.sweepRoutine(sweepInterval(ttl))
	}
	return st
}

func sweepInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	if interval > 10*time.Minute {
		interval = 10 * time.Minute
	}
	return interval
}

// Create starts a new session
func (st *SessionStore) Create(ctx context.Context) (*Session, error) {
	now := st.now()

	st.mu.Lock()
	evicted := st.evictExpiredLocked(now)
	if st.maxSessions > 0 && len(st.sessions) >= st.maxSessions {
		st.mu.Unlock()
		st.recordDelta(ctx, -int64(evicted))
		return nil, errors.NewInternalError(errors.ErrCodeSessionLimit,
			"Too many active sessions. Please try again later.", nil).
			WithContext("max_sessions", st.maxSessions)
	}

	controller, workspace := st.factory()
	session := &Session{
		ID:         uuid.NewString(),
		CreatedAt:  now,
		Controller: controller,
		Workspace:  workspace,
		lastSeen:   now,
	}
	st.sessions[session.ID] = session
	st.mu.Unlock()

	st.recordDelta(ctx, 1-int64(evicted))
	st.logger.Debug("Session created", "session_id", session.ID)
	return session, nil
}

// Get returns the session with id and refreshes its idle timer
func (st *SessionStore) Get(id string) (*Session, error) {
	now := st.now()

	st.mu.Lock()
	session, ok := st.sessions[id]
	if ok && st.expired(session, now) {
		delete(st.sessions, id)
		ok = false
		st.mu.Unlock()
		st.recordDelta(context.Background(), -1)
	} else {
		st.mu.Unlock()
	}

	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeSessionNotFound,
			"Session not found or expired.", nil).WithContext("session_id", id)
	}

	session.touch(now)
	return session, nil
}

// Delete removes the session with id and reports whether it existed
func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	_, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if ok {
		st.recordDelta(context.Background(), -1)
		st.logger.Debug("Session deleted", "session_id", id)
	}
	return ok
}

// Len returns the number of live sessions
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// GetStats returns store statistics
func (st *SessionStore) GetStats() map[string]any {
	st.mu.Lock()
	defer st.mu.Unlock()
	return map[string]any{
		"active_sessions": len(st.sessions),
		"max_sessions":    st.maxSessions,
		"ttl":             st.ttl.String(),
	}
}

// Close stops the eviction sweep
func (st *SessionStore) Close() {
	st.closeOnce.Do(func() { close(st.done) })
}

func (st *SessionStore) sweepRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			st.sweep()
		case <-st.done:
			return
		}
	}
}

func (st *SessionStore) sweep() {
	st.mu.Lock()
	evicted := st.evictExpiredLocked(st.now())
	remaining := len(st.sessions)
	st.mu.Unlock()

	if evicted > 0 {
		st.recordDelta(context.Background(), -int64(evicted))
		st.logger.Debug("Expired sessions evicted", "evicted", evicted, "remaining", remaining)
	}
}

func (st *SessionStore) evictExpiredLocked(now time.Time) int {
	evicted := 0
	for id, session := range st.sessions {
		if st.expired(session, now) {
			delete(st.sessions, id)
			evicted++
		}
	}
	return evicted
}

func (st *SessionStore) expired(session *Session, now time.Time) bool {
	return st.ttl > 0 && session.idleSince(now) > st.ttl
}

func (st *SessionStore) recordDelta(ctx context.Context, delta int64) {
	if st.om == nil || delta == 0 {
		return
	}
	st.om.GetMetrics().RecordSessionDelta(ctx, delta, st.om)
}
