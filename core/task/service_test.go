package task

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
	"github.com/ipdpulse/backend/storage/files"
)

// fakeRepo is a minimal in-package Repository for service tests.
type fakeRepo struct {
	tasks       map[string]Task
	submissions map[string]Submission
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		tasks:       make(map[string]Task),
		submissions: make(map[string]Submission),
	}
}

func (r *fakeRepo) CreateTask(ctx context.Context, t Task) (Task, error) {
	t.ID = "task-" + t.Title
	r.tasks[t.ID] = t
	return t, nil
}

func (r *fakeRepo) GetTaskByID(ctx context.Context, id string) (Task, error) {
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *fakeRepo) QueryTasksByGroup(ctx context.Context, groupID string, ordering []core.DBOrdering) ([]Task, error) {
	var tasks []Task
	for _, t := range r.tasks {
		if t.GroupID == groupID {
			tasks = append(tasks, t)
		}
	}
	return tasks, nil
}

func (r *fakeRepo) QueryTasksByAssignee(ctx context.Context, studentID string) ([]Task, error) {
	var tasks []Task
	for _, t := range r.tasks {
		for _, id := range t.AssigneeIDs {
			if id == studentID {
				tasks = append(tasks, t)
				break
			}
		}
	}
	return tasks, nil
}

func (r *fakeRepo) CreateSubmission(ctx context.Context, sub Submission, taskStatus string) (Submission, error) {
	t, ok := r.tasks[sub.TaskID]
	if !ok {
		return Submission{}, ErrNotFound
	}
	t.Status = taskStatus
	r.tasks[t.ID] = t

	sub.ID = "sub-" + sub.TaskID + "-" + sub.StudentID
	r.submissions[sub.ID] = sub
	return sub, nil
}

func (r *fakeRepo) GetSubmissionByID(ctx context.Context, id string) (Submission, error) {
	sub, ok := r.submissions[id]
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}
	return sub, nil
}

func (r *fakeRepo) QuerySubmissionsByStudent(ctx context.Context, studentID string) ([]Submission, error) {
	var subs []Submission
	for _, sub := range r.submissions {
		if sub.StudentID == studentID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (r *fakeRepo) QuerySubmissionsByTask(ctx context.Context, taskID string) ([]Submission, error) {
	var subs []Submission
	for _, sub := range r.submissions {
		if sub.TaskID == taskID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (r *fakeRepo) UpdateSubmissionGrade(ctx context.Context, sub Submission, taskStatus string) (Submission, error) {
	orig, ok := r.submissions[sub.ID]
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}
	orig.Grade = sub.Grade
	orig.Feedback = sub.Feedback
	r.submissions[sub.ID] = orig

	t := r.tasks[sub.TaskID]
	t.Status = taskStatus
	r.tasks[t.ID] = t
	return orig, nil
}

// fakeGroups treats "member-" prefixed user IDs as members of any group.
type fakeGroups struct{}

func (fakeGroups) Belongs(ctx context.Context, groupID, userID string) (bool, error) {
	return strings.HasPrefix(userID, "member-"), nil
}

func setupSvc(t *testing.T) (*Service, *fakeRepo, *files.MemoryStorage) {
	t.Helper()

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	repo := newFakeRepo()
	storage := files.NewMemoryStorage()
	return NewService(repo, fakeGroups{}, storage, validate), repo, storage
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name    string
		file    SubmissionFile
		wantErr error
	}{
		{name: "pdf", file: SubmissionFile{Name: "report.pdf", Size: 1024}},
		{name: "docx", file: SubmissionFile{Name: "report.docx", Size: 1024}},
		{name: "pptx", file: SubmissionFile{Name: "slides.pptx", Size: 1024}},
		{name: "upper-cased extension", file: SubmissionFile{Name: "REPORT.PDF", Size: 1024}},
		{name: "executable", file: SubmissionFile{Name: "report.exe", Size: 1024}, wantErr: ErrInvalidFileType},
		{name: "no extension", file: SubmissionFile{Name: "report", Size: 1024}, wantErr: ErrInvalidFileType},
		{name: "double extension", file: SubmissionFile{Name: "report.pdf.exe", Size: 1024}, wantErr: ErrInvalidFileType},
		{name: "at the size limit", file: SubmissionFile{Name: "report.pdf", Size: MaxFileSize}},
		{name: "over the size limit", file: SubmissionFile{Name: "report.pdf", Size: MaxFileSize + 1}, wantErr: ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateFile(tt.file); err != tt.wantErr {
				t.Errorf("ValidateFile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAssign(t *testing.T) {
	svc, _, _ := setupSvc(t)
	ctx := context.Background()

	nt := NewTask{
		Title:       "Literature review",
		Description: "Survey prior art",
		DueDate:     time.Now().Add(7 * 24 * time.Hour),
		GroupID:     "grp-1",
		AssigneeIDs: []string{"member-1", "member-2"},
	}
	created, err := svc.Assign(ctx, nt, "member-mentor")
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	if created.Status != StatusTodo {
		t.Errorf("status = %s, want %s", created.Status, StatusTodo)
	}
	if created.CreatedBy != "member-mentor" {
		t.Errorf("created_by = %s, want member-mentor", created.CreatedBy)
	}

	// an assignee outside the group is rejected
	nt.AssigneeIDs = []string{"member-1", "outsider-1"}
	_, err = svc.Assign(ctx, nt, "member-mentor")
	if _, ok := errors.Cause(err).(*core.ValidationError); !ok {
		t.Errorf("Assign() error = %v, want a validation error", err)
	}

	// missing required fields
	if _, err = svc.Assign(ctx, NewTask{Title: "No description"}, "member-mentor"); err == nil {
		t.Error("Assign() expected a validation error on missing fields")
	}
}

func TestSubmit(t *testing.T) {
	svc, repo, storage := setupSvc(t)
	ctx := context.Background()

	created, err := svc.Assign(ctx, NewTask{
		Title:       "Prototype demo",
		Description: "Record a demo",
		DueDate:     time.Now().Add(7 * 24 * time.Hour),
		GroupID:     "grp-1",
	}, "member-mentor")
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}

	file := func(name string, size int64) SubmissionFile {
		return SubmissionFile{Name: name, Size: size, Content: strings.NewReader("content")}
	}
	ns := NewSubmission{TaskID: created.ID, Comment: null.StringFrom("first attempt")}

	tests := []struct {
		name      string
		ns        NewSubmission
		studentID string
		file      SubmissionFile
		wantErr   error
	}{
		{name: "invalid file type", ns: ns, studentID: "member-1", file: file("demo.exe", 1024), wantErr: ErrInvalidFileType},
		{name: "file too large", ns: ns, studentID: "member-1", file: file("demo.pdf", MaxFileSize+1), wantErr: ErrFileTooLarge},
		{name: "unknown task", ns: NewSubmission{TaskID: "nope"}, studentID: "member-1", file: file("demo.pdf", 1024), wantErr: ErrNotFound},
		{name: "not a group member", ns: ns, studentID: "outsider-1", file: file("demo.pdf", 1024), wantErr: ErrNotAssignee},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, tt.ns, tt.studentID, tt.file); errors.Cause(err) != tt.wantErr {
				t.Errorf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	// none of the rejected submissions may have touched storage
	if n := storage.UploadCount(); n != 0 {
		t.Fatalf("storage holds %d uploads after rejected submissions, want 0", n)
	}
	if len(repo.submissions) != 0 {
		t.Fatalf("repo holds %d submissions after rejected submissions, want 0", len(repo.submissions))
	}

	sub, err := svc.Submit(ctx, ns, "member-1", file("demo.pdf", 1024))
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	if sub.FileURL == "" {
		t.Error("Submit() did not record a file URL")
	}
	if sub.Comment.String != "first attempt" {
		t.Errorf("comment = %q, want %q", sub.Comment.String, "first attempt")
	}
	if n := storage.UploadCount(); n != 1 {
		t.Errorf("storage holds %d uploads, want 1", n)
	}
	if got, _ := repo.GetTaskByID(ctx, created.ID); got.Status != StatusSubmitted {
		t.Errorf("task status = %s, want %s", got.Status, StatusSubmitted)
	}
}

func TestGrade(t *testing.T) {
	svc, repo, _ := setupSvc(t)
	ctx := context.Background()

	created, err := svc.Assign(ctx, NewTask{
		Title:       "Prototype demo",
		Description: "Record a demo",
		DueDate:     time.Now().Add(7 * 24 * time.Hour),
		GroupID:     "grp-1",
	}, "member-mentor")
	if err != nil {
		t.Fatalf("Assign() failed: %v", err)
	}
	sub, err := svc.Submit(ctx, NewSubmission{TaskID: created.ID}, "member-1",
		SubmissionFile{Name: "demo.pdf", Size: 1024, Content: strings.NewReader("content")})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}

	// out-of-range grades leave the submission untouched
	for _, grade := range []int{-1, 101} {
		if _, err = svc.Grade(ctx, sub.ID, GradeSubmission{Grade: grade}); err == nil {
			t.Errorf("Grade(%d) expected a validation error", grade)
		}
	}
	if got, _ := repo.GetSubmissionByID(ctx, sub.ID); got.Grade.Valid {
		t.Fatal("rejected grade was persisted")
	}

	graded, err := svc.Grade(ctx, sub.ID, GradeSubmission{Grade: 85, Feedback: null.StringFrom("solid work")})
	if err != nil {
		t.Fatalf("Grade() failed: %v", err)
	}
	if graded.Grade.Int != 85 {
		t.Errorf("grade = %d, want 85", graded.Grade.Int)
	}
	if graded.Feedback.String != "solid work" {
		t.Errorf("feedback = %q, want %q", graded.Feedback.String, "solid work")
	}
	if got, _ := repo.GetTaskByID(ctx, created.ID); got.Status != StatusDone {
		t.Errorf("task status = %s, want %s", got.Status, StatusDone)
	}

	// grade 0 is a legal mark, not an absent one
	sub2, err := svc.Submit(ctx, NewSubmission{TaskID: created.ID}, "member-2",
		SubmissionFile{Name: "demo.pdf", Size: 1024, Content: strings.NewReader("content")})
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	graded, err = svc.Grade(ctx, sub2.ID, GradeSubmission{Grade: 0})
	if err != nil {
		t.Fatalf("Grade(0) failed: %v", err)
	}
	if !graded.Grade.Valid || graded.Grade.Int != 0 {
		t.Errorf("grade = %+v, want a valid 0", graded.Grade)
	}

	if _, err = svc.Grade(ctx, "nope", GradeSubmission{Grade: 50}); errors.Cause(err) != ErrSubmissionNotFound {
		t.Errorf("Grade() error = %v, want %v", err, ErrSubmissionNotFound)
	}
}
