package task

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
)

var (
	// errors
	ErrNotFound           = errors.New("task not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidFileType    = errors.New("only PDF, DOCX and PPTX files are allowed")
	ErrFileTooLarge       = errors.New("maximum file size is 50MB")
	ErrNotAssignee        = errors.New("task is not assigned to this student")
)

type (
	Repository interface {
		// CreateTask inserts the task and its assignee links atomically.
		CreateTask(ctx context.Context, t Task) (Task, error)
		GetTaskByID(ctx context.Context, id string) (Task, error)
		QueryTasksByGroup(ctx context.Context, groupID string, ordering []core.DBOrdering) ([]Task, error)
		QueryTasksByAssignee(ctx context.Context, studentID string) ([]Task, error)
		// CreateSubmission inserts the submission and updates the parent
		// task's status atomically.
		CreateSubmission(ctx context.Context, sub Submission, taskStatus string) (Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		QuerySubmissionsByStudent(ctx context.Context, studentID string) ([]Submission, error)
		QuerySubmissionsByTask(ctx context.Context, taskID string) ([]Submission, error)
		// UpdateSubmissionGrade persists grade+feedback and the parent
		// task's status atomically.
		UpdateSubmissionGrade(ctx context.Context, sub Submission, taskStatus string) (Submission, error)
	}

	// GroupChecker reports group membership; satisfied by group.Service.
	GroupChecker interface {
		Belongs(ctx context.Context, groupID, userID string) (bool, error)
	}

	Service struct {
		repo     Repository
		groups   GroupChecker
		files    core.FileStorage
		validate *validator.Validate
	}
)

func NewService(repo Repository, groups GroupChecker, files core.FileStorage, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		groups:   groups,
		files:    files,
		validate: validate,
	}
}

// Assign creates a Task in status "todo" and links its assignees.
func (svc *Service) Assign(ctx context.Context, nt NewTask, mentorID string) (Task, error) {
	if err := nt.Validate(svc.validate); err != nil {
		return Task{}, err
	}

	// assignees must belong to the target group
	for _, id := range nt.AssigneeIDs {
		ok, err := svc.groups.Belongs(ctx, nt.GroupID, id)
		if err != nil {
			return Task{}, errors.Wrap(err, "checking assignee membership")
		}
		if !ok {
			return Task{}, core.NewValidationError(nil, core.FieldError{
				Field: "assignee_ids",
				Error: fmt.Sprintf("%s is not a member of this group", id),
			})
		}
	}

	now := time.Now().UTC()
	t := Task{
		Title:       nt.Title,
		Description: nt.Description,
		DueDate:     nt.DueDate.UTC(),
		Status:      StatusTodo,
		GroupID:     nt.GroupID,
		Semester:    nt.Semester,
		CreatedBy:   mentorID,
		FileURL:     nt.FileURL,
		AssigneeIDs: nt.AssigneeIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateTask(ctx, t)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTaskByID(ctx, id)
}

func (svc *Service) QueryByGroup(ctx context.Context, groupID string, ordering []core.DBOrdering) ([]Task, error) {
	return svc.repo.QueryTasksByGroup(ctx, groupID, ordering)
}

func (svc *Service) QueryByAssignee(ctx context.Context, studentID string) ([]Task, error) {
	return svc.repo.QueryTasksByAssignee(ctx, studentID)
}

// ValidateFile applies the submission file constraints. It performs no I/O:
// rejected files never reach storage.
func ValidateFile(f SubmissionFile) error {
	var allowed bool
	ext := f.Ext()
	for _, e := range allowedExtensions {
		if ext == e {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrInvalidFileType
	}
	if f.Size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// Submit validates and uploads the file, records the Submission and flips
// the Task to "submitted".
func (svc *Service) Submit(ctx context.Context, ns NewSubmission, studentID string, f SubmissionFile) (Submission, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return Submission{}, err
	}
	if err := ValidateFile(f); err != nil {
		return Submission{}, err
	}

	t, err := svc.repo.GetTaskByID(ctx, ns.TaskID)
	if err != nil {
		return Submission{}, err
	}
	ok, err := svc.groups.Belongs(ctx, t.GroupID, studentID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "checking group membership")
	}
	if !ok {
		return Submission{}, ErrNotAssignee
	}

	key := fmt.Sprintf("submissions/%s/%s/%s%s", t.ID, studentID, uuid.New().String(), f.Ext())
	fileURL, err := svc.files.Upload(ctx, key, f.Content)
	if err != nil {
		return Submission{}, errors.Wrap(err, "uploading submission file")
	}

	sub := Submission{
		TaskID:      t.ID,
		StudentID:   studentID,
		GroupID:     t.GroupID,
		FileURL:     fileURL,
		Comment:     ns.Comment,
		SubmittedAt: time.Now().UTC(),
	}
	return svc.repo.CreateSubmission(ctx, sub, StatusSubmitted)
}

// Grade records a mentor's grade and feedback; the graded task is done.
func (svc *Service) Grade(ctx context.Context, submissionID string, gs GradeSubmission) (Submission, error) {
	if err := gs.Validate(svc.validate); err != nil {
		return Submission{}, err
	}
	sub, err := svc.repo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return Submission{}, err
	}
	sub.Grade = null.IntFrom(gs.Grade)
	sub.Feedback = gs.Feedback
	return svc.repo.UpdateSubmissionGrade(ctx, sub, StatusDone)
}

func (svc *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

func (svc *Service) SubmissionsByStudent(ctx context.Context, studentID string) ([]Submission, error) {
	return svc.repo.QuerySubmissionsByStudent(ctx, studentID)
}

func (svc *Service) SubmissionsByTask(ctx context.Context, taskID string) ([]Submission, error) {
	return svc.repo.QuerySubmissionsByTask(ctx, taskID)
}
