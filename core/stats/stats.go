package stats

import "context"

// Stats aggregates system-wide counters for the admin dashboard.
type Stats struct {
	Students          int            `json:"students"`
	Mentors           int            `json:"mentors"`
	Groups            int            `json:"groups"`
	Tasks             int            `json:"tasks"`
	Submissions       int            `json:"submissions"`
	TasksByStatus     map[string]int `json:"tasks_by_status"`
	AverageGrade      float64        `json:"average_grade"`
	GradedSubmissions int            `json:"graded_submissions"`
}

type (
	Repository interface {
		GetStats(ctx context.Context) (Stats, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Get(ctx context.Context) (Stats, error) {
	return svc.repo.GetStats(ctx)
}
