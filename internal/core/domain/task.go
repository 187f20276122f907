package domain

import "time"

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskOpen      TaskStatus = "open"
	TaskAssigned  TaskStatus = "assigned"
	TaskCompleted TaskStatus = "completed"
)

// validTransitions defines the forward-only task state machine.
var validTransitions = map[TaskStatus][]TaskStatus{
	TaskOpen:     {TaskAssigned},
	TaskAssigned: {TaskCompleted},
}

// CanTransitionTo reports whether a transition from the current status
// to next is allowed.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Attachment records a file uploaded with a task or a profile.
type Attachment struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Application records one worker's application to an open task.
type Application struct {
	UserID      string    `json:"userId"`
	CoverLetter string    `json:"coverLetter,omitempty"`
	AppliedAt   time.Time `json:"appliedAt"`
}

// Task is a unit of work posted by a client for a worker to fulfil.
// AssignedTo must be set before Status becomes TaskAssigned.
type Task struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Requirements string       `json:"requirements,omitempty"`
	Category     string       `json:"category"`
	Budget       float64      `json:"budget"`
	Deadline     time.Time    `json:"deadline"`
	CreatedAt    time.Time    `json:"createdAt"`
	CompletedAt  time.Time    `json:"completedAt,omitzero"`
	Status       TaskStatus   `json:"status"`
	CreatedBy    string       `json:"createdBy"`
	AssignedTo   string       `json:"assignedTo,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	Applicants   []Application `json:"applicants,omitempty"`
}

// HasApplicant reports whether userID already applied to the task.
func (t *Task) HasApplicant(userID string) bool {
	for _, a := range t.Applicants {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
