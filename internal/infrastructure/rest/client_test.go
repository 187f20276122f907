package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/core/domain"
	"github.com/peertask/horizon/internal/core/ports"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.Client(), 5*time.Second, zerolog.Nop()), srv
}

func TestClient_UnwrapsDataEnvelope(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/browse-task" {
			t.Errorf("path = %q, want /users/browse-task", r.URL.Path)
		}
		if got := r.URL.Query().Get("userId"); got != "u1" {
			t.Errorf("userId = %q, want u1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"t1","title":"fix roof","status":"open"}]}`))
	}))

	gateway := NewTaskGateway(client)
	tasks, err := gateway.BrowseTasks(context.Background(), "u1")
	if err != nil {
		t.Fatalf("BrowseTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" || tasks[0].Status != domain.TaskOpen {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
}

func TestClient_SendsBearerToken(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"data":{"id":"t1","status":"assigned"}}`))
	}))

	gateway := NewTaskGateway(client)
	if _, err := gateway.AssignTask(context.Background(), "tok-123", "t1", "w1"); err != nil {
		t.Fatalf("AssignTask: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want Bearer tok-123", gotAuth)
	}
}

func TestClient_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		call   func(g *TaskGateway) error
		want   error
	}{
		{
			name:   "missing task",
			status: http.StatusNotFound,
			call: func(g *TaskGateway) error {
				_, err := g.CompleteTask(context.Background(), "tok", "nope")
				return err
			},
			want: domain.ErrTaskNotFound,
		},
		{
			name:   "rejected transition",
			status: http.StatusUnprocessableEntity,
			call: func(g *TaskGateway) error {
				_, err := g.CompleteTask(context.Background(), "tok", "t1")
				return err
			},
			want: domain.ErrInvalidTransition,
		},
		{
			name:   "duplicate application",
			status: http.StatusConflict,
			call: func(g *TaskGateway) error {
				_, err := g.ApplyToTask(context.Background(), "tok", "t1", "u1", "")
				return err
			},
			want: domain.ErrDuplicateApplication,
		},
		{
			name:   "server failure",
			status: http.StatusInternalServerError,
			call: func(g *TaskGateway) error {
				_, err := g.BrowseTasks(context.Background(), "u1")
				return err
			},
			want: domain.ErrNetwork,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))

			err := tc.call(NewTaskGateway(client))
			if !errors.Is(err, tc.want) {
				t.Fatalf("error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestClient_RegisterConflictMeansEmailTaken(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"email already registered"}`))
	}))

	gateway := NewIdentityGateway(client)
	_, err := gateway.Register(context.Background(), ports.RegisterInput{
		FullName: "Ada", Email: "ada@example.com", Password: "longenough",
	})
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("error = %v, want ErrEmailTaken", err)
	}
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(srv.URL, srv.Client(), 5*time.Second, zerolog.Nop())
	srv.Close()

	gateway := NewTaskGateway(client)
	_, err := gateway.BrowseTasks(context.Background(), "u1")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("error = %v, want ErrNetwork", err)
	}
}

func TestClient_MultipartCreateTaskFields(t *testing.T) {
	deadline := time.Date(2026, 9, 15, 12, 0, 0, 0, time.UTC)

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			t.Errorf("ParseMultipartForm: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if got := r.FormValue("title"); got != "paint fence" {
			t.Errorf("title = %q", got)
		}
		if got := r.FormValue("budget"); got != "120.5" {
			t.Errorf("budget = %q", got)
		}
		if got := r.FormValue("deadline"); got != deadline.Format(time.RFC3339) {
			t.Errorf("deadline = %q", got)
		}
		if got := r.MultipartForm.Value["tags"]; len(got) != 2 {
			t.Errorf("tags = %v, want 2 entries", got)
		}
		files := r.MultipartForm.File["attachments"]
		if len(files) != 1 || files[0].Filename != "sketch.png" {
			t.Errorf("attachments = %v", files)
		}
		_, _ = w.Write([]byte(`{"data":{"id":"t9","title":"paint fence","status":"open"}}`))
	}))

	gateway := NewTaskGateway(client)
	task, err := gateway.CreateTask(context.Background(), "tok", ports.SubmitTaskInput{
		Title:       "paint fence",
		Description: "two coats, weatherproof",
		Category:    "home",
		Budget:      120.5,
		Deadline:    deadline,
		Tags:        []string{"outdoor", "paint"},
		Attachments: []ports.Upload{{Name: "sketch.png", Content: []byte{0x89, 0x50}}},
		CreatedBy:   "u1",
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ID != "t9" {
		t.Fatalf("task.ID = %q, want t9", task.ID)
	}
}

func TestClient_MessagesCursorQuery(t *testing.T) {
	before := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	var gotTimeStamp, gotLimit string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTimeStamp = r.URL.Query().Get("timeStamp")
		gotLimit = r.URL.Query().Get("limit")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))

	gateway := NewMessagingGateway(client)
	if _, err := gateway.Messages(context.Background(), "c1", before, 20); err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if gotTimeStamp != before.Format(time.RFC3339Nano) {
		t.Fatalf("timeStamp = %q", gotTimeStamp)
	}
	if gotLimit != "20" {
		t.Fatalf("limit = %q, want 20", gotLimit)
	}

	// Zero cursor means the newest page: no timeStamp parameter at all.
	if _, err := gateway.Messages(context.Background(), "c1", time.Time{}, 20); err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if gotTimeStamp != "" {
		t.Fatalf("timeStamp = %q, want empty for newest page", gotTimeStamp)
	}
}
