package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ipdpulse/backend/core"
	"github.com/ipdpulse/backend/core/task"
)

type taskRepository struct {
	db *taskTable
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db.task}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	t.ID = uuid.New().String()
	repo.db.table[t.ID] = &t
	return t, nil
}

func (repo *taskRepository) GetTaskByID(ctx context.Context, id string) (task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) QueryTasksByGroup(ctx context.Context, groupID string, ordering []core.DBOrdering) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var tasks []task.Task
	for _, t := range repo.db.table {
		if t.GroupID == groupID {
			tasks = append(tasks, *t)
		}
	}

	// default ordering only; tests exercise custom orderings against SQL
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	return tasks, nil
}

func (repo *taskRepository) QueryTasksByAssignee(ctx context.Context, studentID string) ([]task.Task, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var tasks []task.Task
	for _, t := range repo.db.table {
		for _, id := range t.AssigneeIDs {
			if id == studentID {
				tasks = append(tasks, *t)
				break
			}
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].DueDate.Before(tasks[j].DueDate) })
	return tasks, nil
}

func (repo *taskRepository) CreateSubmission(ctx context.Context, sub task.Submission, taskStatus string) (task.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub.ID = uuid.New().String()
	repo.db.submissions[sub.ID] = &sub
	if t, ok := repo.db.table[sub.TaskID]; ok {
		t.Status = taskStatus
		t.UpdatedAt = time.Now().UTC()
	}
	return sub, nil
}

func (repo *taskRepository) GetSubmissionByID(ctx context.Context, id string) (task.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.submissions[id]; ok {
		return *sub, nil
	}
	return task.Submission{}, task.ErrSubmissionNotFound
}

func (repo *taskRepository) QuerySubmissionsByStudent(ctx context.Context, studentID string) ([]task.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subs []task.Submission
	for _, s := range repo.db.submissions {
		if s.StudentID == studentID {
			subs = append(subs, *s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *taskRepository) QuerySubmissionsByTask(ctx context.Context, taskID string) ([]task.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var subs []task.Submission
	for _, s := range repo.db.submissions {
		if s.TaskID == taskID {
			subs = append(subs, *s)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *taskRepository) UpdateSubmissionGrade(ctx context.Context, sub task.Submission, taskStatus string) (task.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.submissions[sub.ID]
	if !ok {
		return task.Submission{}, task.ErrSubmissionNotFound
	}
	orig.Grade = sub.Grade
	orig.Feedback = sub.Feedback
	if t, ok := repo.db.table[orig.TaskID]; ok {
		t.Status = taskStatus
		t.UpdatedAt = time.Now().UTC()
	}
	return *orig, nil
}
