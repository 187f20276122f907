package domain

import "time"

// Notification is a purely local record of something the user did in
// this session (task created, message sent). It is never server-sourced.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"type"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"timestamp"`
}
