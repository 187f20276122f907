package rest

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

// TaskGateway implements ports.TaskGateway over the /users task
// endpoints.
type TaskGateway struct {
	client *Client
}

func NewTaskGateway(client *Client) *TaskGateway {
	return &TaskGateway{client: client}
}

func (g *TaskGateway) CreateTask(ctx context.Context, token string, input ports.SubmitTaskInput) (*domain.Task, error) {
	form := new(Form).
		Set("title", input.Title).
		Set("description", input.Description).
		Set("requirements", input.Requirements).
		Set("category", input.Category).
		Set("budget", strconv.FormatFloat(input.Budget, 'f', -1, 64)).
		Set("deadline", input.Deadline.Format(time.RFC3339)).
		Set("createdBy", input.CreatedBy).
		Set("status", string(domain.TaskOpen)).
		SetAll("tags", input.Tags)
	for _, up := range input.Attachments {
		form.AddFile("attachments", up.Name, up.Content)
	}

	var task domain.Task
	if err := g.client.postMultipart(ctx, "/users/create-task", token, form, &task); err != nil {
		return nil, mapError(err)
	}
	return &task, nil
}

func (g *TaskGateway) BrowseTasks(ctx context.Context, userID string) ([]domain.Task, error) {
	query := url.Values{"userId": {userID}}
	var tasks []domain.Task
	if err := g.client.get(ctx, "/users/browse-task", query, "", &tasks); err != nil {
		return nil, mapError(err)
	}
	return tasks, nil
}

type applyTaskRequest struct {
	TaskID      string `json:"taskId"`
	UserID      string `json:"userId"`
	CoverLetter string `json:"coverLetter,omitempty"`
}

func (g *TaskGateway) ApplyToTask(ctx context.Context, token, taskID, userID, coverLetter string) (*domain.Task, error) {
	var task domain.Task
	err := g.client.postJSON(ctx, "/users/apply-task", token, applyTaskRequest{
		TaskID: taskID, UserID: userID, CoverLetter: coverLetter,
	}, &task)
	if err != nil {
		return nil, mapTaskError(err)
	}
	return &task, nil
}

type assignTaskRequest struct {
	TaskID   string `json:"taskId"`
	WorkerID string `json:"workerId"`
}

func (g *TaskGateway) AssignTask(ctx context.Context, token, taskID, workerID string) (*domain.Task, error) {
	var task domain.Task
	err := g.client.postJSON(ctx, "/users/assign-task", token, assignTaskRequest{TaskID: taskID, WorkerID: workerID}, &task)
	if err != nil {
		return nil, mapTaskError(err)
	}
	return &task, nil
}

type completeTaskRequest struct {
	TaskID string `json:"taskId"`
}

func (g *TaskGateway) CompleteTask(ctx context.Context, token, taskID string) (*domain.Task, error) {
	var task domain.Task
	err := g.client.postJSON(ctx, "/users/complete-task", token, completeTaskRequest{TaskID: taskID}, &task)
	if err != nil {
		return nil, mapTaskError(err)
	}
	return &task, nil
}

// mapTaskError refines the default mapping with the task-specific
// statuses: 404 is a missing task, 422 a rejected status transition.
func mapTaskError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Status {
		case http.StatusNotFound:
			return domain.ErrTaskNotFound
		case http.StatusUnprocessableEntity:
			return domain.ErrInvalidTransition
		case http.StatusConflict:
			return domain.ErrDuplicateApplication
		}
	}
	return mapError(err)
}
