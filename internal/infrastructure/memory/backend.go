// Package memory implements every gateway port fully in process. It is
// the demo/offline variant of the backend: the stores run against it
// without a server, and the stub API server exposes it over the REST
// contract for local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

type account struct {
	user         domain.User
	passwordHash string
}

// Backend holds all state behind a single mutex. Credentials are
// bcrypt-hashed; bearer tokens are HS256 JWTs carrying the user id.
type Backend struct {
	mu        sync.Mutex
	jwtSecret string
	tokenTTL  time.Duration

	accounts      map[string]*account // keyed by email
	tasks         []domain.Task
	conversations []domain.Conversation
	messages      []domain.Message
}

// NewBackend creates an empty backend. tokenTTL <= 0 defaults to 24h.
func NewBackend(jwtSecret string, tokenTTL time.Duration) *Backend {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Backend{
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		accounts:  make(map[string]*account),
	}
}

// ---------------------------------------------------------------------------
// IdentityGateway
// ---------------------------------------------------------------------------

func (b *Backend) Register(_ context.Context, input ports.RegisterInput) (*ports.AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if input.FullName == "" || email == "" || input.Password == "" {
		return nil, domain.NewValidationError("email", "name, email and password are required")
	}
	role := input.Role
	if role == "" {
		role = domain.RoleClient
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[email]; exists {
		return nil, domain.ErrEmailTaken
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:        uuid.NewString(),
		FullName:  input.FullName,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.accounts[email] = &account{user: user, passwordHash: string(hash)}

	token, err := b.issueToken(&user)
	if err != nil {
		return nil, err
	}
	u := user
	return &ports.AuthResult{User: &u, Token: token}, nil
}

func (b *Backend) Login(_ context.Context, email, password string) (*ports.AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	// Snapshot the record under the lock: UpdateProfile mutates the
	// shared account, and the bcrypt compare must not hold b.mu.
	b.mu.Lock()
	acc, ok := b.accounts[email]
	var (
		hash string
		user domain.User
	)
	if ok {
		hash = acc.passwordHash
		user = acc.user
	}
	b.mu.Unlock()
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := b.issueToken(&user)
	if err != nil {
		return nil, err
	}
	return &ports.AuthResult{User: &user, Token: token}, nil
}

func (b *Backend) UpdateProfile(_ context.Context, token string, update ports.ProfileUpdate) (*domain.User, error) {
	userID, err := b.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	acc := b.accountByID(userID)
	if acc == nil {
		return nil, domain.ErrUserNotFound
	}

	if update.FullName != "" {
		acc.user.FullName = update.FullName
	}
	if update.Bio != "" {
		acc.user.Bio = update.Bio
	}
	if update.Skills != nil {
		acc.user.Skills = update.Skills
	}
	if update.Photo != nil {
		acc.user.PhotoURL = "/uploads/" + acc.user.ID + "/" + update.Photo.Name
	}
	acc.user.UpdatedAt = time.Now().UTC()

	u := acc.user
	return &u, nil
}

// ---------------------------------------------------------------------------
// TaskGateway
// ---------------------------------------------------------------------------

func (b *Backend) CreateTask(_ context.Context, token string, input ports.SubmitTaskInput) (*domain.Task, error) {
	userID, err := b.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	attachments := make([]domain.Attachment, 0, len(input.Attachments))
	for _, up := range input.Attachments {
		attachments = append(attachments, domain.Attachment{
			Name:       up.Name,
			Size:       int64(len(up.Content)),
			UploadedAt: now,
		})
	}

	task := domain.Task{
		ID:           uuid.NewString(),
		Title:        input.Title,
		Description:  input.Description,
		Requirements: input.Requirements,
		Category:     input.Category,
		Budget:       input.Budget,
		Deadline:     input.Deadline,
		CreatedAt:    now,
		Status:       domain.TaskOpen,
		CreatedBy:    userID,
		Tags:         input.Tags,
		Attachments:  attachments,
	}

	b.mu.Lock()
	b.tasks = append(b.tasks, task)
	b.mu.Unlock()

	t := task
	return &t, nil
}

func (b *Backend) BrowseTasks(_ context.Context, _ string) ([]domain.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Task, len(b.tasks))
	copy(out, b.tasks)
	return out, nil
}

func (b *Backend) ApplyToTask(_ context.Context, token, taskID, userID, coverLetter string) (*domain.Task, error) {
	if _, err := b.VerifyToken(token); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	task := b.taskByID(taskID)
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	if task.HasApplicant(userID) {
		return nil, domain.ErrDuplicateApplication
	}
	task.Applicants = append(task.Applicants, domain.Application{
		UserID:      userID,
		CoverLetter: coverLetter,
		AppliedAt:   time.Now().UTC(),
	})
	t := *task
	return &t, nil
}

func (b *Backend) AssignTask(_ context.Context, token, taskID, workerID string) (*domain.Task, error) {
	if _, err := b.VerifyToken(token); err != nil {
		return nil, err
	}
	if workerID == "" {
		return nil, domain.ErrAssigneeRequired
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	task := b.taskByID(taskID)
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	if !task.Status.CanTransitionTo(domain.TaskAssigned) {
		return nil, domain.ErrInvalidTransition
	}
	task.AssignedTo = workerID
	task.Status = domain.TaskAssigned
	t := *task
	return &t, nil
}

func (b *Backend) CompleteTask(_ context.Context, token, taskID string) (*domain.Task, error) {
	if _, err := b.VerifyToken(token); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	task := b.taskByID(taskID)
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	if !task.Status.CanTransitionTo(domain.TaskCompleted) {
		return nil, domain.ErrInvalidTransition
	}
	task.Status = domain.TaskCompleted
	task.CompletedAt = time.Now().UTC()
	t := *task
	return &t, nil
}

// ---------------------------------------------------------------------------
// MessagingGateway
// ---------------------------------------------------------------------------

func (b *Backend) Conversations(_ context.Context, token, userID string) ([]domain.Conversation, error) {
	if _, err := b.VerifyToken(token); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Conversation
	for _, c := range b.conversations {
		if c.Has(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (b *Backend) ParticipantDetails(_ context.Context, token string, userIDs []string) ([]domain.UserSummary, error) {
	if _, err := b.VerifyToken(token); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.UserSummary, 0, len(userIDs))
	for _, id := range userIDs {
		if acc := b.accountByID(id); acc != nil {
			out = append(out, domain.UserSummary{
				ID:           acc.user.ID,
				FullName:     acc.user.FullName,
				PhotoURL:     acc.user.PhotoURL,
				LastActiveAt: acc.user.UpdatedAt,
			})
		}
	}
	return out, nil
}

func (b *Backend) Messages(_ context.Context, conversationID string, before time.Time, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 20
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	var page []domain.Message
	for _, m := range b.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if !before.IsZero() && !m.CreatedAt.Before(before) {
			continue
		}
		page = append(page, m)
	}
	sort.SliceStable(page, func(i, j int) bool {
		return page[i].CreatedAt.Before(page[j].CreatedAt)
	})
	if len(page) > limit {
		page = page[len(page)-limit:]
	}
	return page, nil
}

func (b *Backend) SendMessage(_ context.Context, token string, input ports.SendMessageInput) (*domain.Message, error) {
	if _, err := b.VerifyToken(token); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, domain.NewValidationError("content", "content is required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	conv := b.conversationByID(input.ConversationID)
	if conv == nil {
		return nil, domain.ErrConversationNotFound
	}
	if !conv.Has(input.SenderID) || !conv.Has(input.ReceiverID) {
		return nil, domain.ErrNotParticipant
	}

	now := time.Now().UTC()
	// Creation times double as pagination cursors, so they must be
	// strictly increasing within the store.
	if n := len(b.messages); n > 0 && !b.messages[n-1].CreatedAt.Before(now) {
		now = b.messages[n-1].CreatedAt.Add(time.Microsecond)
	}
	msg := domain.Message{
		ID:             uuid.NewString(),
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		ReceiverID:     input.ReceiverID,
		Content:        input.Content,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.messages = append(b.messages, msg)
	conv.UpdatedAt = now

	m := msg
	return &m, nil
}

func (b *Backend) CreateConversation(_ context.Context, token, senderID, receiverID string) (*domain.Conversation, error) {
	if _, err := b.VerifyToken(token); err != nil {
		return nil, err
	}
	if senderID == "" || receiverID == "" || senderID == receiverID {
		return nil, domain.NewValidationError("receiverId", "two distinct participants are required")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	// One thread per pair: an existing conversation is returned as-is.
	for i := range b.conversations {
		c := &b.conversations[i]
		if c.Has(senderID) && c.Has(receiverID) {
			out := *c
			return &out, nil
		}
	}

	now := time.Now().UTC()
	conv := domain.Conversation{
		ID:        uuid.NewString(),
		Members:   []string{senderID, receiverID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.conversations = append(b.conversations, conv)

	c := conv
	return &c, nil
}

// ---------------------------------------------------------------------------
// Tokens
// ---------------------------------------------------------------------------

// VerifyToken validates a bearer token and returns the user id it
// carries. The stub server's auth middleware uses it too.
func (b *Backend) VerifyToken(token string) (string, error) {
	if token == "" {
		return "", domain.ErrUnauthorized
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(b.jwtSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrUnauthorized
	}

	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}

func (b *Backend) issueToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
		"exp":     time.Now().Add(b.tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(b.jwtSecret))
}

// Callers hold b.mu for the three lookups below.

func (b *Backend) accountByID(userID string) *account {
	for _, acc := range b.accounts {
		if acc.user.ID == userID {
			return acc
		}
	}
	return nil
}

func (b *Backend) taskByID(taskID string) *domain.Task {
	for i := range b.tasks {
		if b.tasks[i].ID == taskID {
			return &b.tasks[i]
		}
	}
	return nil
}

func (b *Backend) conversationByID(id string) *domain.Conversation {
	for i := range b.conversations {
		if b.conversations[i].ID == id {
			return &b.conversations[i]
		}
	}
	return nil
}
