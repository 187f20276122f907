// Package ports defines the backend contracts the stores depend on.
// The live implementation is the REST gateway in
// internal/infrastructure/rest; the demo/offline implementation is the
// in-memory backend in internal/infrastructure/memory.
package ports

import (
	"context"
	"time"

	"github.com/peertask/horizon/internal/core/domain"
)

// Upload carries one file riding on a multipart request.
type Upload struct {
	Name    string
	Content []byte
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	FullName string
	Email    string
	Password string
	Role     domain.Role
}

// ProfileUpdate carries the fields of a profile edit. Zero values mean
// "leave unchanged"; Photo, when set, replaces the avatar.
type ProfileUpdate struct {
	FullName string
	Bio      string
	Skills   []string
	Photo    *Upload
}

// AuthResult is what the backend returns on register and login: the
// profile plus the bearer credential for subsequent calls.
type AuthResult struct {
	User  *domain.User
	Token string
}

// IdentityGateway exposes the account operations of the backend.
type IdentityGateway interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	UpdateProfile(ctx context.Context, token string, update ProfileUpdate) (*domain.User, error)
}

// SendMessageInput carries one outgoing message.
type SendMessageInput struct {
	Content        string
	ConversationID string
	SenderID       string
	ReceiverID     string
}

// MessagingGateway exposes the conversation and message operations.
type MessagingGateway interface {
	Conversations(ctx context.Context, token, userID string) ([]domain.Conversation, error)
	ParticipantDetails(ctx context.Context, token string, userIDs []string) ([]domain.UserSummary, error)
	// Messages returns one page for the conversation, ascending by
	// creation time. A non-zero before bounds the page to messages
	// created strictly earlier (backfill cursor).
	Messages(ctx context.Context, conversationID string, before time.Time, limit int) ([]domain.Message, error)
	SendMessage(ctx context.Context, token string, input SendMessageInput) (*domain.Message, error)
	CreateConversation(ctx context.Context, token, senderID, receiverID string) (*domain.Conversation, error)
}

// SubmitTaskInput carries the create-task form and its attachments.
type SubmitTaskInput struct {
	Title        string
	Description  string
	Requirements string
	Category     string
	Budget       float64
	Deadline     time.Time
	Tags         []string
	Attachments  []Upload
	CreatedBy    string
}

// TaskGateway exposes the task operations of the backend.
type TaskGateway interface {
	CreateTask(ctx context.Context, token string, input SubmitTaskInput) (*domain.Task, error)
	BrowseTasks(ctx context.Context, userID string) ([]domain.Task, error)
	ApplyToTask(ctx context.Context, token, taskID, userID, coverLetter string) (*domain.Task, error)
	AssignTask(ctx context.Context, token, taskID, workerID string) (*domain.Task, error)
	CompleteTask(ctx context.Context, token, taskID string) (*domain.Task, error)
}

// CredentialSource supplies the current bearer credential and user
// identity to stores that issue authenticated calls. The identity
// store implements it; both values are empty when logged out.
type CredentialSource interface {
	Token() string
	UserID() string
}
