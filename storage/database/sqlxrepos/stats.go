package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/ipdpulse/backend/core/stats"
	"github.com/ipdpulse/backend/core/user"
)

type statsRepository struct {
	db *sqlx.DB
}

var _ stats.Repository = (*statsRepository)(nil) // interface compliance check

func NewStatsRepository(db *sqlx.DB) *statsRepository {
	return &statsRepository{db: db}
}

func (repo *statsRepository) GetStats(ctx context.Context) (stats.Stats, error) {
	s := stats.Stats{TasksByStatus: make(map[string]int)}

	var roleCounts []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}
	err := repo.db.SelectContext(ctx, &roleCounts, `SELECT role, COUNT(*) AS count FROM user_roles GROUP BY role`)
	if err != nil {
		return stats.Stats{}, errors.Wrap(err, "counting users by role")
	}
	for _, rc := range roleCounts {
		switch rc.Role {
		case user.RoleStudent:
			s.Students = rc.Count
		case user.RoleMentor:
			s.Mentors = rc.Count
		}
	}

	if err = repo.db.GetContext(ctx, &s.Groups, `SELECT COUNT(*) FROM groups`); err != nil {
		return stats.Stats{}, errors.Wrap(err, "counting groups")
	}
	if err = repo.db.GetContext(ctx, &s.Tasks, `SELECT COUNT(*) FROM tasks`); err != nil {
		return stats.Stats{}, errors.Wrap(err, "counting tasks")
	}
	if err = repo.db.GetContext(ctx, &s.Submissions, `SELECT COUNT(*) FROM submissions`); err != nil {
		return stats.Stats{}, errors.Wrap(err, "counting submissions")
	}

	var statusCounts []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	err = repo.db.SelectContext(ctx, &statusCounts, `SELECT status, COUNT(*) AS count FROM tasks GROUP BY status`)
	if err != nil {
		return stats.Stats{}, errors.Wrap(err, "counting tasks by status")
	}
	for _, sc := range statusCounts {
		s.TasksByStatus[sc.Status] = sc.Count
	}

	var graded struct {
		Count   int     `db:"count"`
		Average float64 `db:"average"`
	}
	err = repo.db.GetContext(ctx, &graded,
		`SELECT COUNT(*) AS count, COALESCE(AVG(grade), 0) AS average FROM submissions WHERE grade IS NOT NULL`)
	if err != nil {
		return stats.Stats{}, errors.Wrap(err, "averaging grades")
	}
	s.GradedSubmissions = graded.Count
	s.AverageGrade = graded.Average

	return s, nil
}
