package store

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

// TaskStore caches the browsable task list and forwards mutations to
// the backend. The cache is keyed by explicit invalidation: creating a
// task marks it stale so the next browse refetches, rather than
// suppressing fetches behind a one-shot flag.
type TaskStore struct {
	mu      sync.Mutex
	gateway ports.TaskGateway
	creds   ports.CredentialSource
	log     zerolog.Logger

	tasks  []domain.Task
	loaded bool
	stale  bool
}

func NewTaskStore(gateway ports.TaskGateway, creds ports.CredentialSource, log zerolog.Logger) *TaskStore {
	return &TaskStore{gateway: gateway, creds: creds, log: log}
}

type taskForm struct {
	Title       string  `validate:"required"`
	Description string  `validate:"required"`
	Category    string  `validate:"required"`
	Budget      float64 `validate:"required,gt=0"`
}

// Submit validates the task form locally, creates the task, appends it
// to the cache, and invalidates the browse cache. Invalid input never
// reaches the network.
func (s *TaskStore) Submit(ctx context.Context, input ports.SubmitTaskInput) (*domain.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)

	form := taskForm{
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Budget:      input.Budget,
	}
	fields := make(map[string]string)
	if err := fieldErrors(validate.Struct(form)); err != nil {
		var ve *domain.ValidationError
		if !errors.As(err, &ve) {
			return nil, err
		}
		for k, v := range ve.Fields {
			fields[k] = v
		}
	}
	if input.Deadline.IsZero() || !input.Deadline.After(time.Now()) {
		fields["deadline"] = "deadline must be in the future"
	}
	if len(fields) > 0 {
		return nil, &domain.ValidationError{Fields: fields}
	}

	token := s.creds.Token()
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	if input.CreatedBy == "" {
		input.CreatedBy = s.creds.UserID()
	}

	created, err := s.gateway.CreateTask(ctx, token, input)
	if err != nil {
		s.log.Error().Err(err).Str("title", input.Title).Msg("task creation failed")
		return nil, err
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, *created)
	s.stale = true
	s.mu.Unlock()

	s.log.Info().Str("task_id", created.ID).Str("category", created.Category).Msg("task created")
	out := *created
	return &out, nil
}

// BrowseTasks serves the cache when fresh; otherwise it refetches and
// replaces the cache wholesale. An empty result is a valid cache state,
// not a reason to stop fetching.
func (s *TaskStore) BrowseTasks(ctx context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	fresh := s.loaded && !s.stale
	s.mu.Unlock()
	if fresh {
		return s.snapshot(), nil
	}

	list, err := s.gateway.BrowseTasks(ctx, s.creds.UserID())
	if err != nil {
		s.log.Error().Err(err).Msg("browsing tasks failed")
		return nil, err
	}

	s.mu.Lock()
	s.tasks = list
	s.loaded = true
	s.stale = false
	s.mu.Unlock()
	return s.snapshot(), nil
}

// Invalidate marks the cache stale so the next browse refetches.
func (s *TaskStore) Invalidate() {
	s.mu.Lock()
	s.stale = true
	s.mu.Unlock()
}

// Apply records the current user's application to a task. Duplicate
// applications are rejected from the cache before calling out.
func (s *TaskStore) Apply(ctx context.Context, taskID, coverLetter string) (*domain.Task, error) {
	token, userID := s.creds.Token(), s.creds.UserID()
	if token == "" || userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if cached := s.byID(taskID); cached != nil && cached.HasApplicant(userID) {
		return nil, domain.ErrDuplicateApplication
	}

	updated, err := s.gateway.ApplyToTask(ctx, token, taskID, userID, coverLetter)
	if err != nil {
		return nil, err
	}
	s.replaceCached(updated)
	out := *updated
	return &out, nil
}

// Assign hands an open task to a worker. The forward-only status
// machine is checked against the cache before the call goes out.
func (s *TaskStore) Assign(ctx context.Context, taskID, workerID string) (*domain.Task, error) {
	token := s.creds.Token()
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	if workerID == "" {
		return nil, domain.ErrAssigneeRequired
	}
	if cached := s.byID(taskID); cached != nil && !cached.Status.CanTransitionTo(domain.TaskAssigned) {
		return nil, domain.ErrInvalidTransition
	}

	updated, err := s.gateway.AssignTask(ctx, token, taskID, workerID)
	if err != nil {
		return nil, err
	}
	s.replaceCached(updated)
	out := *updated
	return &out, nil
}

// Complete marks an assigned task completed.
func (s *TaskStore) Complete(ctx context.Context, taskID string) (*domain.Task, error) {
	token := s.creds.Token()
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	if cached := s.byID(taskID); cached != nil && !cached.Status.CanTransitionTo(domain.TaskCompleted) {
		return nil, domain.ErrInvalidTransition
	}

	updated, err := s.gateway.CompleteTask(ctx, token, taskID)
	if err != nil {
		return nil, err
	}
	s.replaceCached(updated)
	out := *updated
	return &out, nil
}

// TasksByCreator filters the cache for tasks posted by userID.
func (s *TaskStore) TasksByCreator(userID string) []domain.Task {
	return s.filter(func(t *domain.Task) bool { return t.CreatedBy == userID })
}

// TasksByAssignee filters the cache for tasks assigned to userID.
func (s *TaskStore) TasksByAssignee(userID string) []domain.Task {
	return s.filter(func(t *domain.Task) bool { return t.AssignedTo == userID })
}

// TasksAppliedTo filters the cache for tasks userID has applied to.
func (s *TaskStore) TasksAppliedTo(userID string) []domain.Task {
	return s.filter(func(t *domain.Task) bool { return t.HasApplicant(userID) })
}

func (s *TaskStore) filter(keep func(*domain.Task) bool) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Task
	for i := range s.tasks {
		if keep(&s.tasks[i]) {
			out = append(out, s.tasks[i])
		}
	}
	return out
}

func (s *TaskStore) byID(taskID string) *domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == taskID {
			t := s.tasks[i]
			return &t
		}
	}
	return nil
}

func (s *TaskStore) replaceCached(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = *t
			return
		}
	}
	s.tasks = append(s.tasks, *t)
}

func (s *TaskStore) snapshot() []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}
