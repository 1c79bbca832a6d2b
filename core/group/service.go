package group

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ipdpulse/backend/core"
)

var (
	// errors
	ErrNotFound      = errors.New("group not found")
	ErrNoMembership  = errors.New("student has no group membership")
	ErrAlreadyMember = errors.New("student already belongs to a group")
	ErrCodeExists    = errors.New("a group with this code already exists")
	ErrNotMember     = errors.New("not a member of this group")

	errBadCode = errors.New("join code must be 6 characters")
)

// codeGenAttempts bounds retries on join-code collisions.
const codeGenAttempts = 5

type (
	Repository interface {
		// CreateGroup inserts the group and the creator's mentorship atomically.
		CreateGroup(ctx context.Context, grp Group, mentorID string) (Group, error)
		GetGroupByID(ctx context.Context, id string) (Group, error)
		GetGroupByCode(ctx context.Context, code string) (Group, error)
		QueryGroupMembers(ctx context.Context, groupID string) ([]Member, error)
		QueryGroupMentors(ctx context.Context, groupID string) ([]Mentor, error)
		QueryGroupsByMentor(ctx context.Context, mentorID string) ([]Group, error)
		// GetMembership returns the student's membership, or ErrNoMembership.
		GetMembership(ctx context.Context, studentID string) (Member, error)
		CreateMembership(ctx context.Context, groupID, studentID string) (Member, error)
		// DeleteMembership is a no-op if no membership exists.
		DeleteMembership(ctx context.Context, studentID string) error
		// Belongs reports whether userID is a member or a mentor of the group.
		Belongs(ctx context.Context, groupID, userID string) (bool, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Create inserts a new Group and links the creating mentor.
// Join-code generation retries on the (unlikely) unique-constraint collision.
func (svc *Service) Create(ctx context.Context, ng NewGroup, mentorID string) (Group, error) {
	if err := ng.Validate(svc.validate); err != nil {
		return Group{}, err
	}

	grp := Group{
		Name:      ng.Name,
		Semester:  ng.Semester,
		CreatedAt: time.Now().UTC(),
	}
	if ng.Code != "" {
		grp.Code = ng.Code
		created, err := svc.repo.CreateGroup(ctx, grp, mentorID)
		if err == ErrCodeExists {
			return Group{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return created, err
	}

	for attempt := 0; attempt < codeGenAttempts; attempt++ {
		grp.Code = GenerateCode()
		created, err := svc.repo.CreateGroup(ctx, grp, mentorID)
		if err == ErrCodeExists {
			continue
		}
		return created, err
	}
	return Group{}, errors.Wrap(ErrCodeExists, "generating join code")
}

// Join adds the student to the group matching code. An existing membership
// wins over any problem with the code, so members always get
// ErrAlreadyMember. The pre-check is a UX fast-path; the student_id unique
// constraint in storage is what actually enforces one-group-per-student.
func (svc *Service) Join(ctx context.Context, code, studentID string) (Group, error) {
	if _, err := svc.repo.GetMembership(ctx, studentID); err == nil {
		return Group{}, ErrAlreadyMember
	} else if errors.Cause(err) != ErrNoMembership {
		return Group{}, errors.Wrap(err, "checking existing membership")
	}

	code = NormalizeCode(code)
	if len(code) != CodeLen {
		return Group{}, core.NewValidationError(errBadCode, core.FieldError{Field: "code", Error: errBadCode.Error()})
	}

	grp, err := svc.repo.GetGroupByCode(ctx, code)
	if err != nil {
		return Group{}, err
	}

	if _, err = svc.repo.CreateMembership(ctx, grp.ID, studentID); err != nil {
		return Group{}, err
	}
	return grp, nil
}

// Leave removes the student's membership; leaving twice is a no-op.
func (svc *Service) Leave(ctx context.Context, studentID string) error {
	return svc.repo.DeleteMembership(ctx, studentID)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroupByID(ctx, id)
}

// Detail returns the group with its members and mentors populated.
func (svc *Service) Detail(ctx context.Context, id string) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	if err != nil {
		return Group{}, err
	}
	if grp.Members, err = svc.repo.QueryGroupMembers(ctx, id); err != nil {
		return Group{}, errors.Wrap(err, "querying members")
	}
	if grp.Mentors, err = svc.repo.QueryGroupMentors(ctx, id); err != nil {
		return Group{}, errors.Wrap(err, "querying mentors")
	}
	return grp, nil
}

// MineStudent returns the group the student currently belongs to.
func (svc *Service) MineStudent(ctx context.Context, studentID string) (Group, error) {
	m, err := svc.repo.GetMembership(ctx, studentID)
	if err != nil {
		return Group{}, err
	}
	return svc.repo.GetGroupByID(ctx, m.GroupID)
}

// MineMentor returns all groups the mentor supervises.
func (svc *Service) MineMentor(ctx context.Context, mentorID string) ([]Group, error) {
	return svc.repo.QueryGroupsByMentor(ctx, mentorID)
}

// Belongs reports whether userID is a member or a mentor of the group.
func (svc *Service) Belongs(ctx context.Context, groupID, userID string) (bool, error) {
	return svc.repo.Belongs(ctx, groupID, userID)
}
