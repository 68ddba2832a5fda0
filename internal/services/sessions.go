package services

import (
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-widget/internal/widget"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WidgetFactory builds the widget backing a new session.
type WidgetFactory func() *widget.Widget

type sessionItem struct {
	widget    *widget.Widget
	expiresAt time.Time
}

// SessionStore keeps one widget per browser session. Sessions expire after
// idleTTL without access; the oldest session is evicted when the store is full.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionItem
	factory  WidgetFactory
	logger   *zap.Logger
	idleTTL  time.Duration
	maxSize  int
	now      func() time.Time

	created int
	expired int
	evicted int
}

func NewSessionStore(factory WidgetFactory, idleTTL time.Duration, maxSize int, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*sessionItem),
		factory:  factory,
		logger:   logger,
		idleTTL:  idleTTL,
		maxSize:  maxSize,
		now:      time.Now,
	}
}

func (s *SessionStore) Create() (string, *widget.Widget) {
	w := s.factory()
	id := uuid.NewString()
	now := s.now()

	s.mu.Lock()
	if s.maxSize > 0 && len(s.sessions) >= s.maxSize {
		s.evictOldest()
	}
	s.sessions[id] = &sessionItem{
		widget:    w,
		expiresAt: now.Add(s.idleTTL),
	}
	s.created++
	s.mu.Unlock()

	s.logger.Debug("Session created",
		zap.String("session", id),
		zap.Time("expires_at", now.Add(s.idleTTL)))

	return id, w
}

// Get returns the session's widget and extends its lifetime.
func (s *SessionStore) Get(id string) (*widget.Widget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.sessions[id]
	if !exists {
		return nil, false
	}

	now := s.now()
	if now.After(item.expiresAt) {
		delete(s.sessions, id)
		s.expired++
		item.widget.Close()
		return nil, false
	}

	item.expiresAt = now.Add(s.idleTTL)
	return item.widget, true
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	item, exists := s.sessions[id]
	if exists {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !exists {
		return false
	}
	item.widget.Close()
	s.logger.Debug("Session closed", zap.String("session", id))
	return true
}

// Sweep removes expired sessions and returns how many were removed.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	now := s.now()
	var closed []*widget.Widget
	for id, item := range s.sessions {
		if now.After(item.expiresAt) {
			delete(s.sessions, id)
			closed = append(closed, item.widget)
		}
	}
	s.expired += len(closed)
	s.mu.Unlock()

	for _, w := range closed {
		w.Close()
	}

	if len(closed) > 0 {
		s.logger.Debug("Swept expired sessions", zap.Int("count", len(closed)))
	}
	return len(closed)
}

func (s *SessionStore) evictOldest() {
	var oldestID string
	var oldestTime time.Time

	for id, item := range s.sessions {
		if oldestID == "" || item.expiresAt.Before(oldestTime) {
			oldestID = id
			oldestTime = item.expiresAt
		}
	}

	if oldestID != "" {
		s.sessions[oldestID].widget.Close()
		delete(s.sessions, oldestID)
		s.evicted++
		s.logger.Debug("Evicted oldest session", zap.String("session", oldestID))
	}
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close ends every session.
func (s *SessionStore) Close() {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*sessionItem)
	s.mu.Unlock()

	for _, item := range sessions {
		item.widget.Close()
	}
}

func (s *SessionStore) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]interface{}{
		"active_sessions":  len(s.sessions),
		"created_sessions": s.created,
		"expired_sessions": s.expired,
		"evicted_sessions": s.evicted,
		"max_size":         s.maxSize,
		"idle_ttl":         s.idleTTL.String(),
	}
}
