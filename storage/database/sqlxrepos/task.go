package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
	"github.com/ipdpulse/backend/core/task"
)

const selectTask = `
SELECT id, title, description, due_date, status, group_id, semester, created_by, file_url, created_at, updated_at
FROM tasks`

const selectSubmission = `
SELECT s.id, s.task_id, s.student_id, p.name AS student_name, s.group_id,
       s.file_url, s.comment, s.grade, s.feedback, s.submitted_at
FROM submissions s
JOIN profiles p ON p.id = s.student_id`

// taskOrderings whitelists the fields API callers may order tasks by.
var taskOrderings = map[string]string{
	"due_date":   "due_date",
	"created_at": "created_at",
	"status":     "status",
	"title":      "title",
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *sqlx.DB) *taskRepository {
	return &taskRepository{db: db}
}

type taskRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	DueDate     time.Time   `db:"due_date"`
	Status      string      `db:"status"`
	GroupID     string      `db:"group_id"`
	Semester    null.Int    `db:"semester"`
	CreatedBy   null.String `db:"created_by"`
	FileURL     null.String `db:"file_url"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r taskRow) unrow() task.Task {
	return task.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		DueDate:     r.DueDate,
		Status:      r.Status,
		GroupID:     r.GroupID,
		Semester:    r.Semester,
		CreatedBy:   r.CreatedBy.String,
		FileURL:     r.FileURL,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type submissionRow struct {
	ID          string      `db:"id"`
	TaskID      string      `db:"task_id"`
	StudentID   string      `db:"student_id"`
	StudentName string      `db:"student_name"`
	GroupID     string      `db:"group_id"`
	FileURL     string      `db:"file_url"`
	Comment     null.String `db:"comment"`
	Grade       null.Int    `db:"grade"`
	Feedback    null.String `db:"feedback"`
	SubmittedAt time.Time   `db:"submitted_at"`
}

func (r submissionRow) unrow() task.Submission {
	return task.Submission{
		ID:          r.ID,
		TaskID:      r.TaskID,
		StudentID:   r.StudentID,
		StudentName: r.StudentName,
		GroupID:     r.GroupID,
		FileURL:     r.FileURL,
		Comment:     r.Comment,
		Grade:       r.Grade,
		Feedback:    r.Feedback,
		SubmittedAt: r.SubmittedAt,
	}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = uuid.New().String()

	// task + assignee links in one transaction
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, due_date, status, group_id, semester, created_by, file_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, t.Title, t.Description, t.DueDate, t.Status, t.GroupID, t.Semester,
		null.NewString(t.CreatedBy, t.CreatedBy != ""), t.FileURL, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}

	for _, studentID := range t.AssigneeIDs {
		_, err = tx.ExecContext(ctx, `INSERT INTO task_assignees (task_id, student_id) VALUES ($1, $2)`, t.ID, studentID)
		if err != nil {
			return task.Task{}, errors.Wrap(err, "inserting task assignee")
		}
	}

	if err = tx.Commit(); err != nil {
		return task.Task{}, errors.Wrap(err, "committing transaction")
	}
	return t, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, selectTask+` WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, errors.Wrap(err, "finding task by ID")
	}
	t := row.unrow()

	if err := repo.db.SelectContext(ctx, &t.AssigneeIDs,
		`SELECT student_id FROM task_assignees WHERE task_id = $1`, id); err != nil {
		return task.Task{}, errors.Wrap(err, "querying task assignees")
	}
	return t, nil
}

func (repo *taskRepository) QueryTasksByGroup(ctx context.Context, groupID string, ordering []core.DBOrdering) ([]task.Task, error) {
	orderBy := "due_date ASC"
	if len(ordering) > 0 {
		terms := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			if col, ok := taskOrderings[ord.Field]; ok {
				terms = append(terms, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
			}
		}
		if len(terms) > 0 {
			orderBy = terms[0]
			for _, t := range terms[1:] {
				orderBy += ", " + t
			}
		}
	}

	var rows []taskRow
	query := fmt.Sprintf("%s WHERE group_id = $1 ORDER BY %s", selectTask, orderBy)
	if err := repo.db.SelectContext(ctx, &rows, query, groupID); err != nil {
		return nil, errors.Wrap(err, "querying tasks by group")
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.unrow())
	}
	return tasks, nil
}

func (repo *taskRepository) QueryTasksByAssignee(ctx context.Context, studentID string) ([]task.Task, error) {
	var rows []taskRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT t.id, t.title, t.description, t.due_date, t.status, t.group_id, t.semester, t.created_by, t.file_url, t.created_at, t.updated_at
		FROM tasks t
		JOIN task_assignees ta ON ta.task_id = t.id
		WHERE ta.student_id = $1
		ORDER BY t.due_date`,
		studentID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks by assignee")
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.unrow())
	}
	return tasks, nil
}

func (repo *taskRepository) CreateSubmission(ctx context.Context, sub task.Submission, taskStatus string) (task.Submission, error) {
	sub.ID = uuid.New().String()

	// submission + task status flip in one transaction
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return task.Submission{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submissions (id, task_id, student_id, group_id, file_url, comment, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		sub.ID, sub.TaskID, sub.StudentID, sub.GroupID, sub.FileURL, sub.Comment, sub.SubmittedAt,
	)
	if err != nil {
		return task.Submission{}, errors.Wrap(err, "inserting submission")
	}

	_, err = tx.ExecContext(ctx, `UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1`,
		sub.TaskID, taskStatus, time.Now().UTC())
	if err != nil {
		return task.Submission{}, errors.Wrap(err, "updating task status")
	}

	if err = tx.Commit(); err != nil {
		return task.Submission{}, errors.Wrap(err, "committing transaction")
	}
	return sub, nil
}

func (repo *taskRepository) GetSubmissionByID(ctx context.Context, id string) (task.Submission, error) {
	var row submissionRow
	if err := repo.db.GetContext(ctx, &row, selectSubmission+` WHERE s.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return task.Submission{}, task.ErrSubmissionNotFound
		}
		return task.Submission{}, errors.Wrap(err, "finding submission by ID")
	}
	return row.unrow(), nil
}

func (repo *taskRepository) QuerySubmissionsByStudent(ctx context.Context, studentID string) ([]task.Submission, error) {
	var rows []submissionRow
	err := repo.db.SelectContext(ctx, &rows, selectSubmission+` WHERE s.student_id = $1 ORDER BY s.submitted_at DESC`, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions by student")
	}

	subs := make([]task.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.unrow())
	}
	return subs, nil
}

func (repo *taskRepository) QuerySubmissionsByTask(ctx context.Context, taskID string) ([]task.Submission, error) {
	var rows []submissionRow
	err := repo.db.SelectContext(ctx, &rows, selectSubmission+` WHERE s.task_id = $1 ORDER BY s.submitted_at DESC`, taskID)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions by task")
	}

	subs := make([]task.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.unrow())
	}
	return subs, nil
}

func (repo *taskRepository) UpdateSubmissionGrade(ctx context.Context, sub task.Submission, taskStatus string) (task.Submission, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return task.Submission{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `UPDATE submissions SET grade = $2, feedback = $3 WHERE id = $1`,
		sub.ID, sub.Grade, sub.Feedback)
	if err != nil {
		return task.Submission{}, errors.Wrap(err, "updating submission grade")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return task.Submission{}, task.ErrSubmissionNotFound
	}

	_, err = tx.ExecContext(ctx, `UPDATE tasks SET status = $2, updated_at = $3 WHERE id = $1`,
		sub.TaskID, taskStatus, time.Now().UTC())
	if err != nil {
		return task.Submission{}, errors.Wrap(err, "updating task status")
	}

	if err = tx.Commit(); err != nil {
		return task.Submission{}, errors.Wrap(err, "committing transaction")
	}
	return sub, nil
}
