package task

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
)

// Task statuses.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusReview     = "review"
	StatusSubmitted  = "submitted"
	StatusDone       = "done"
)

// Submission file constraints, checked before any upload attempt.
const MaxFileSize = 50 << 20 // 50 MiB

var allowedExtensions = []string{".pdf", ".docx", ".pptx"}

type (
	// Task is a unit of work assigned by a mentor to group members.
	Task struct {
		ID          string      `json:"id"`
		Title       string      `json:"title"`
		Description string      `json:"description"`
		DueDate     time.Time   `json:"due_date"` // UTC
		Status      string      `json:"status"`
		GroupID     string      `json:"group_id"`
		Semester    null.Int    `json:"semester"`
		CreatedBy   string      `json:"created_by"`
		FileURL     null.String `json:"file_url"`
		AssigneeIDs []string    `json:"assignee_ids,omitempty"`
		CreatedAt   time.Time   `json:"created_at"` // UTC
		UpdatedAt   time.Time   `json:"updated_at"` // UTC
	}

	// Submission is a student's uploaded answer to a Task.
	Submission struct {
		ID          string      `json:"id"`
		TaskID      string      `json:"task_id"`
		StudentID   string      `json:"student_id"`
		StudentName string      `json:"student_name,omitempty"`
		GroupID     string      `json:"group_id"`
		FileURL     string      `json:"file_url"`
		Comment     null.String `json:"comment"`
		Grade       null.Int    `json:"grade"`    // 0-100 when set
		Feedback    null.String `json:"feedback"`
		SubmittedAt time.Time   `json:"submitted_at"` // UTC
	}
)

// NewTask contains information needed to assign a new Task.
type NewTask struct {
	Title       string      `json:"title" validate:"required"`
	Description string      `json:"description" validate:"required"`
	DueDate     time.Time   `json:"due_date" validate:"required"`
	GroupID     string      `json:"group_id" validate:"required"`
	Semester    null.Int    `json:"semester" validate:"omitempty"`
	FileURL     null.String `json:"file_url"`
	AssigneeIDs []string    `json:"assignee_ids"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	return validate.Struct(nt)
}

// NewSubmission contains the non-file part of a submission.
type NewSubmission struct {
	TaskID  string      `json:"task_id" validate:"required"`
	Comment null.String `json:"comment"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	return validate.Struct(ns)
}

// SubmissionFile is the uploaded file as received from the transport layer.
type SubmissionFile struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Ext returns the lower-cased file extension, dot included.
func (f SubmissionFile) Ext() string {
	return strings.ToLower(filepath.Ext(f.Name))
}

// GradeSubmission contains a mentor's grading of a Submission.
type GradeSubmission struct {
	Grade    int         `json:"grade" validate:"min=0,max=100"`
	Feedback null.String `json:"feedback"`
}

func (gs *GradeSubmission) Validate(validate *validator.Validate) error {
	return validate.Struct(gs)
}
