package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/guiyumin/vclip/internal/core/clipper"
	"github.com/guiyumin/vclip/internal/core/media"
)

// Session is one browser session. Handlers hold mu for the whole call, so
// requests for the same session run one at a time.
type Session struct {
	ID string

	mu        sync.Mutex
	MediaPath string
	Video     *clipper.State
	Audio     *clipper.State
	LLMResult string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State returns the video state, else the audio state, else nil.
func (s *Session) State() *clipper.State {
	if s.Video != nil {
		return s.Video
	}
	return s.Audio
}

// SetState stores st in the slot matching its kind and clears the other.
func (s *Session) SetState(st *clipper.State) {
	if st.Kind == media.KindAudio {
		s.Video, s.Audio = nil, st
	} else {
		s.Video, s.Audio = st, nil
	}
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// SessionStore keeps sessions in memory and drops idle ones after ttl.
type SessionStore struct {
	sessions      map[string]*Session
	mu            sync.RWMutex
	ttl           time.Duration
	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once

	// OnEvict runs for every session the sweep drops, outside all locks.
	OnEvict func(*Session)
}

// NewSessionStore creates a store. ttl <= 0 means one hour.
func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionStore{
		sessions:    make(map[string]*Session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}
}

// Start runs the expiry sweep.
func (ss *SessionStore) Start() {
	interval := min(ss.ttl/4, 10*time.Minute)
	ss.cleanupTicker = time.NewTicker(max(interval, time.Second))
	go ss.cleanupLoop()
}

// Stop ends the expiry sweep.
func (ss *SessionStore) Stop() {
	ss.stopOnce.Do(func() {
		close(ss.stopCleanup)
		if ss.cleanupTicker != nil {
			ss.cleanupTicker.Stop()
		}
	})
}

func (ss *SessionStore) cleanupLoop() {
	for {
		select {
		case <-ss.cleanupTicker.C:
			ss.cleanup(time.Now())
		case <-ss.stopCleanup:
			return
		}
	}
}

// cleanup removes sessions idle since before now-ttl. A session busy in a
// handler is skipped.
func (ss *SessionStore) cleanup(now time.Time) int {
	cutoff := now.Add(-ss.ttl)
	var evicted []*Session

	ss.mu.Lock()
	for id, s := range ss.sessions {
		if !s.mu.TryLock() {
			continue
		}
		if s.UpdatedAt.Before(cutoff) {
			delete(ss.sessions, id)
			evicted = append(evicted, s)
		}
		s.mu.Unlock()
	}
	ss.mu.Unlock()

	if ss.OnEvict != nil {
		for _, s := range evicted {
			ss.OnEvict(s)
		}
	}
	return len(evicted)
}

// Create adds a new empty session.
func (ss *SessionStore) Create() *Session {
	now := time.Now()
	s := &Session{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}

	ss.mu.Lock()
	ss.sessions[s.ID] = s
	ss.mu.Unlock()
	return s
}

// Get returns the session or nil.
func (ss *SessionStore) Get(id string) *Session {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.sessions[id]
}

// Acquire returns the session for id locked and touched, or nil when it
// does not exist. A session evicted while Acquire waited for its lock
// counts as missing.
func (ss *SessionStore) Acquire(id string) *Session {
	s := ss.Get(id)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	if ss.Get(id) != s {
		s.mu.Unlock()
		return nil
	}
	s.touch()
	return s
}

// AcquireOrCreate is Acquire, falling back to a new locked session.
func (ss *SessionStore) AcquireOrCreate(id string) *Session {
	if id != "" {
		if s := ss.Acquire(id); s != nil {
			return s
		}
	}
	s := ss.Create()
	s.mu.Lock()
	return s
}

// Delete removes a session and returns it, or nil when it did not exist.
func (ss *SessionStore) Delete(id string) *Session {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	s, ok := ss.sessions[id]
	if !ok {
		return nil
	}
	delete(ss.sessions, id)
	return s
}

// Len returns the number of live sessions.
func (ss *SessionStore) Len() int {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return len(ss.sessions)
}
