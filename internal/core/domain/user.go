package domain

import "time"

// Role distinguishes the two kinds of marketplace accounts.
type Role string

const (
	RoleClient Role = "client"
	RoleWorker Role = "worker"
)

// User models a marketplace account as the API returns it. Password
// material never appears here: the backend only ever sends the profile.
type User struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	PhotoURL       string    `json:"photoUrl,omitempty"`
	Role           Role      `json:"role"`
	Bio            string    `json:"bio,omitempty"`
	Skills         []string  `json:"skills,omitempty"`
	Rating         float64   `json:"rating"`
	CompletedTasks int       `json:"completedTasks"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserSummary is the lightweight participant view used to render
// conversation lists: display metadata only, resolved in bulk.
type UserSummary struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
	LastActiveAt time.Time `json:"lastActiveAt"`
}
