package store

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/infrastructure/session"
)

// NotificationStore keeps the local-only notification feed, newest
// first. Every mutation is persisted; construction restores the
// persisted list.
type NotificationStore struct {
	mu      sync.Mutex
	session *session.Store
	log     zerolog.Logger

	list []domain.Notification
}

// NewNotificationStore restores persisted notifications when a session
// store is given; sess may be nil.
func NewNotificationStore(sess *session.Store, log zerolog.Logger) *NotificationStore {
	s := &NotificationStore{session: sess, log: log}
	if sess != nil {
		list, err := sess.LoadNotifications()
		if err != nil {
			log.Warn().Err(err).Msg("could not restore notifications")
		} else {
			s.list = list
		}
	}
	return s
}

// Add prepends a new unread notification.
func (s *NotificationStore) Add(kind, content string) domain.Notification {
	n := domain.Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = append([]domain.Notification{n}, s.list...)
	s.persistLocked()
	return n
}

// MarkRead flags one notification as read.
func (s *NotificationStore) MarkRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		if s.list[i].ID == id {
			s.list[i].Read = true
			break
		}
	}
	s.persistLocked()
}

// MarkAllRead flags every notification as read.
func (s *NotificationStore) MarkAllRead() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		s.list[i].Read = true
	}
	s.persistLocked()
}

// Remove deletes one notification.
func (s *NotificationStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.list {
		if s.list[i].ID == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			break
		}
	}
	s.persistLocked()
}

// Clear empties the feed.
func (s *NotificationStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list = nil
	s.persistLocked()
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationStore) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.list {
		if !s.list[i].Read {
			n++
		}
	}
	return n
}

// Notifications returns a snapshot, newest first.
func (s *NotificationStore) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Notification, len(s.list))
	copy(out, s.list)
	return out
}

// persistLocked writes the feed while still inside the mutation's
// critical section, so concurrent mutations cannot persist out of
// order. Callers hold s.mu.
func (s *NotificationStore) persistLocked() {
	if s.session == nil {
		return
	}
	list := make([]domain.Notification, len(s.list))
	copy(list, s.list)
	if err := s.session.SaveNotifications(list); err != nil {
		s.log.Warn().Err(err).Msg("could not persist notifications")
	}
}
