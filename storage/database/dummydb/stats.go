package dummydb

import (
	"context"

	"github.com/ipdpulse/backend/core/stats"
	"github.com/ipdpulse/backend/core/user"
)

type statsRepository struct {
	db *DB
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *DB) stats.Repository {
	return &statsRepository{db: db}
}

func (repo *statsRepository) GetStats(ctx context.Context) (stats.Stats, error) {
	s := stats.Stats{TasksByStatus: make(map[string]int)}

	repo.db.user.RLock()
	for _, u := range repo.db.user.table {
		switch u.Role {
		case user.RoleStudent:
			s.Students++
		case user.RoleMentor:
			s.Mentors++
		}
	}
	repo.db.user.RUnlock()

	repo.db.group.RLock()
	s.Groups = len(repo.db.group.table)
	repo.db.group.RUnlock()

	repo.db.task.RLock()
	s.Tasks = len(repo.db.task.table)
	s.Submissions = len(repo.db.task.submissions)
	for _, t := range repo.db.task.table {
		s.TasksByStatus[t.Status]++
	}
	var gradeSum int
	for _, sub := range repo.db.task.submissions {
		if sub.Grade.Valid {
			s.GradedSubmissions++
			gradeSum += sub.Grade.Int
		}
	}
	repo.db.task.RUnlock()

	if s.GradedSubmissions > 0 {
		s.AverageGrade = float64(gradeSum) / float64(s.GradedSubmissions)
	}
	return s, nil
}
