package notice

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ipdpulse/backend/core/group"
)

var ErrNotFound = errors.New("notice not found")

type (
	Repository interface {
		CreateNotice(ctx context.Context, n Notice) (Notice, error)
		GetNoticeByID(ctx context.Context, id string) (Notice, error)
		// QueryNoticesByGroup returns the group's notices plus broadcasts,
		// pinned first, then newest first.
		QueryNoticesByGroup(ctx context.Context, groupID string) ([]Notice, error)
		SetNoticePinned(ctx context.Context, id string, pinned bool) (Notice, error)
	}

	// GroupChecker reports group membership; satisfied by group.Service.
	GroupChecker interface {
		Belongs(ctx context.Context, groupID, userID string) (bool, error)
	}

	Service struct {
		repo     Repository
		groups   GroupChecker
		validate *validator.Validate
	}
)

func NewService(repo Repository, groups GroupChecker, validate *validator.Validate) *Service {
	return &Service{repo: repo, groups: groups, validate: validate}
}

// Post publishes a notice. Group-scoped notices require the author to
// mentor that group; broadcasts have no group.
func (svc *Service) Post(ctx context.Context, nn NewNotice, mentorID string) (Notice, error) {
	if err := nn.Validate(svc.validate); err != nil {
		return Notice{}, err
	}
	if nn.GroupID.Valid {
		ok, err := svc.groups.Belongs(ctx, nn.GroupID.String, mentorID)
		if err != nil {
			return Notice{}, errors.Wrap(err, "checking group mentorship")
		}
		if !ok {
			return Notice{}, group.ErrNotMember
		}
	}

	n := Notice{
		Title:     nn.Title,
		Content:   nn.Content,
		GroupID:   nn.GroupID,
		FileURL:   nn.FileURL,
		CreatedBy: mentorID,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateNotice(ctx, n)
}

// Pin toggles the pinned flag. Group-scoped notices may only be pinned by
// that group's mentors.
func (svc *Service) Pin(ctx context.Context, id string, pinned bool, mentorID string) (Notice, error) {
	n, err := svc.repo.GetNoticeByID(ctx, id)
	if err != nil {
		return Notice{}, err
	}
	if n.GroupID.Valid {
		ok, err := svc.groups.Belongs(ctx, n.GroupID.String, mentorID)
		if err != nil {
			return Notice{}, errors.Wrap(err, "checking group mentorship")
		}
		if !ok {
			return Notice{}, group.ErrNotMember
		}
	}
	return svc.repo.SetNoticePinned(ctx, id, pinned)
}

// ListForGroup returns the group's notices plus broadcasts. Membership
// gating is the caller's concern; admins may read any group's notices.
func (svc *Service) ListForGroup(ctx context.Context, groupID string) ([]Notice, error) {
	return svc.repo.QueryNoticesByGroup(ctx, groupID)
}
