// Package session persists the pieces of client state that survive a
// restart: the current user with their bearer credential, and the
// local notification list. Each lives in its own JSON file under a
// fixed storage key, read at startup and rewritten on every mutation.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/peertask/horizon/internal/core/domain"
)

// Storage keys, kept stable so sessions survive upgrades.
const (
	userKey          = "docu_task_user"
	notificationsKey = "docu_notifications"
)

// Store reads and writes session files under a directory.
type Store struct {
	dir string
}

// NewStore creates the directory when missing and returns a Store.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

type persistedUser struct {
	User  *domain.User `json:"user"`
	Token string       `json:"accessToken"`
}

// SaveUser writes the current user and credential.
func (s *Store) SaveUser(user *domain.User, token string) error {
	return s.write(userKey, persistedUser{User: user, Token: token})
}

// LoadUser returns the persisted user and credential, or (nil, "") when
// no session exists.
func (s *Store) LoadUser() (*domain.User, string, error) {
	var p persistedUser
	ok, err := s.read(userKey, &p)
	if err != nil || !ok {
		return nil, "", err
	}
	return p.User, p.Token, nil
}

// ClearUser removes the persisted session. Missing files are fine.
func (s *Store) ClearUser() error {
	err := os.Remove(s.path(userKey))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: clear user: %w", err)
	}
	return nil
}

// SaveNotifications writes the notification list.
func (s *Store) SaveNotifications(list []domain.Notification) error {
	return s.write(notificationsKey, list)
}

// LoadNotifications returns the persisted notification list, empty when
// none has been written yet.
func (s *Store) LoadNotifications() ([]domain.Notification, error) {
	var list []domain.Notification
	if _, err := s.read(notificationsKey, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *Store) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("session: encode %s: %w", key, err)
	}
	if err := os.WriteFile(s.path(key), data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", key, err)
	}
	return nil
}

// read decodes the file for key into v, reporting whether it existed.
func (s *Store) read(key string, v any) (bool, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return true, nil
}
