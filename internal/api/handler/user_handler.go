package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/peertask/horizon/internal/api/metrics"
	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

// UserHandler serves the /users routes: accounts, profiles, and tasks.
type UserHandler struct {
	identity ports.IdentityGateway
	tasks    ports.TaskGateway
}

func NewUserHandler(identity ports.IdentityGateway, tasks ports.TaskGateway) *UserHandler {
	return &UserHandler{identity: identity, tasks: tasks}
}

// Register creates a new account and returns the profile with a fresh token.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	role := domain.Role(req.Role)
	if role == "" {
		role = domain.RoleClient
	}

	result, err := h.identity.Register(c.Request().Context(), ports.RegisterInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
		Role:     role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			metrics.SignupsTotal.WithLabelValues("conflict").Inc()
		}
		return err
	}
	metrics.SignupsTotal.WithLabelValues("ok").Inc()

	return respond(c, http.StatusCreated, authResponse{User: result.User, AccessToken: result.Token})
}

// Login authenticates an account and returns the profile with a fresh token.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.identity.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()

	return respond(c, http.StatusOK, authResponse{User: result.User, AccessToken: result.Token})
}

// UpdateDetails applies a multipart profile edit to the caller's account.
func (h *UserHandler) UpdateDetails(c echo.Context) error {
	update := ports.ProfileUpdate{
		FullName: c.FormValue("fullName"),
		Bio:      c.FormValue("bio"),
	}
	if form, err := c.MultipartForm(); err == nil {
		update.Skills = form.Value["skills"]
	}

	if fh, err := c.FormFile("photo"); err == nil {
		upload, err := readUpload(fh)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable photo upload")
		}
		update.Photo = upload
	}

	user, err := h.identity.UpdateProfile(c.Request().Context(), bearerToken(c), update)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}

// CreateTask posts a new task from a multipart form with optional
// attachment files.
func (h *UserHandler) CreateTask(c echo.Context) error {
	budget, err := strconv.ParseFloat(c.FormValue("budget"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "budget must be a number")
	}
	deadline, err := time.Parse(time.RFC3339, c.FormValue("deadline"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "deadline must be an RFC3339 timestamp")
	}

	input := ports.SubmitTaskInput{
		Title:        c.FormValue("title"),
		Description:  c.FormValue("description"),
		Requirements: c.FormValue("requirements"),
		Category:     c.FormValue("category"),
		Budget:       budget,
		Deadline:     deadline,
		CreatedBy:    c.FormValue("createdBy"),
	}
	if input.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	if form, err := c.MultipartForm(); err == nil {
		input.Tags = form.Value["tags"]
		for _, fh := range form.File["attachments"] {
			upload, err := readUpload(fh)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "unreadable attachment upload")
			}
			input.Attachments = append(input.Attachments, *upload)
		}
	}

	task, err := h.tasks.CreateTask(c.Request().Context(), bearerToken(c), input)
	if err != nil {
		return err
	}
	metrics.TasksCreatedTotal.WithLabelValues(task.Category).Inc()

	return respond(c, http.StatusCreated, task)
}

// BrowseTasks lists every task on the board.
func (h *UserHandler) BrowseTasks(c echo.Context) error {
	tasks, err := h.tasks.BrowseTasks(c.Request().Context(), c.QueryParam("userId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, tasks)
}

// ApplyTask records an application against an open task.
func (h *UserHandler) ApplyTask(c echo.Context) error {
	var req applyTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.tasks.ApplyToTask(c.Request().Context(), bearerToken(c), req.TaskID, req.UserID, req.CoverLetter)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, task)
}

// AssignTask moves an open task to assigned with the chosen worker.
func (h *UserHandler) AssignTask(c echo.Context) error {
	var req assignTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.tasks.AssignTask(c.Request().Context(), bearerToken(c), req.TaskID, req.WorkerID)
	if err != nil {
		return err
	}
	metrics.TaskTransitionsTotal.WithLabelValues(string(domain.TaskAssigned)).Inc()

	return respond(c, http.StatusOK, task)
}

// CompleteTask moves an assigned task to completed.
func (h *UserHandler) CompleteTask(c echo.Context) error {
	var req completeTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.tasks.CompleteTask(c.Request().Context(), bearerToken(c), req.TaskID)
	if err != nil {
		return err
	}
	metrics.TaskTransitionsTotal.WithLabelValues(string(domain.TaskCompleted)).Inc()

	return respond(c, http.StatusOK, task)
}

// bearerToken returns the raw credential from the Authorization header;
// the Auth middleware has already verified it.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[1]
}

func readUpload(fh *multipart.FileHeader) (*ports.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &ports.Upload{Name: fh.Filename, Content: content}, nil
}
