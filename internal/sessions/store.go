package sessions

import (
	"errors"
	"sync"
	"time"

	"github.com/career-mentor/backend/internal/ai"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("sessions: not found")

// Answer is one recorded answer with its evaluation.
type Answer struct {
	Question   string         `json:"question"`
	Text       string         `json:"answer"`
	Kind       string         `json:"kind"` // "text" or "code"
	Evaluation *ai.Evaluation `json:"evaluation,omitempty"`
	AnsweredAt time.Time      `json:"answered_at"`
}

// Session is the live state of one interview.
type Session struct {
	ID         string    `json:"id"`
	ResumeText string    `json:"-"`
	ResumePath string    `json:"-"`
	Questions  []string  `json:"questions"`
	Answers    []Answer  `json:"answers"`
	ReportPath string    `json:"report_path,omitempty"`
	ReportURL  string    `json:"report_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	lastTouched time.Time
}

// Store keeps live sessions in memory with idle expiry. Durable history
// lives in the repository; the store is the hot working set.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

// NewStore returns a store evicting sessions idle longer than ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

// Put inserts or replaces a session and marks it touched.
func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.lastTouched = time.Now()
	s.sessions[sess.ID] = sess
}

// Get returns a copy of the session and refreshes its idle timer. Expired
// sessions are evicted on access. Callers read the copy freely; writes go
// through Update, which mutates the stored session under the lock.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.expired(sess) {
		delete(s.sessions, id)
		return nil, ErrSessionNotFound
	}
	sess.lastTouched = time.Now()
	return sess.clone(), nil
}

// Update applies fn to the session under the store lock.
func (s *Store) Update(id string, fn func(*Session)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		delete(s.sessions, id)
		return ErrSessionNotFound
	}
	fn(sess)
	sess.lastTouched = time.Now()
	return nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Sweep evicts every expired session and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// StartSweeper evicts expired sessions every interval until stop is closed.
func (s *Store) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && time.Since(sess.lastTouched) > s.ttl
}

// clone copies the session with its own slice backing so readers never share
// memory with concurrent Update calls. Evaluations are immutable once stored
// and stay shared.
func (sess *Session) clone() *Session {
	cp := *sess
	cp.Questions = append([]string(nil), sess.Questions...)
	cp.Answers = append([]Answer(nil), sess.Answers...)
	return &cp
}
