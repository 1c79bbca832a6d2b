package chat

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ipdpulse/backend/core/group"
)

type (
	Repository interface {
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// QueryMessagesByGroup returns messages ordered by creation time ascending.
		QueryMessagesByGroup(ctx context.Context, groupID string) ([]Message, error)
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

// Post records a message in the group's chat. Only members and mentors of
// the group may post.
func (svc *Service) Post(ctx context.Context, groupID, senderID string, nm NewMessage) (Message, error) {
	if err := nm.Validate(svc.validate); err != nil {
		return Message{}, err
	}
	ok, err := svc.groups.Belongs(ctx, groupID, senderID)
	if err != nil {
		return Message{}, errors.Wrap(err, "checking group membership")
	}
	if !ok {
		return Message{}, group.ErrNotMember
	}

	msg := Message{
		GroupID:   groupID,
		SenderID:  senderID,
		Content:   nm.Content,
		FileURL:   nm.FileURL,
		CreatedAt: time.Now().UTC(),
	}
	return svc.repo.CreateMessage(ctx, msg)
}

// List returns the group's messages, oldest first. Only members and mentors
// of the group may read them.
func (svc *Service) List(ctx context.Context, groupID, requesterID string) ([]Message, error) {
	ok, err := svc.groups.Belongs(ctx, groupID, requesterID)
	if err != nil {
		return nil, errors.Wrap(err, "checking group membership")
	}
	if !ok {
		return nil, group.ErrNotMember
	}
	return svc.repo.QueryMessagesByGroup(ctx, groupID)
}
