package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core/group"
)

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

type groupRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	Semester  null.Int  `db:"semester"`
	CreatedAt time.Time `db:"created_at"`
}

func (r groupRow) unrow() group.Group {
	return group.Group{
		ID:        r.ID,
		Name:      r.Name,
		Code:      r.Code,
		Semester:  r.Semester,
		CreatedAt: r.CreatedAt,
	}
}

func trapGroupNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return group.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo *groupRepository) CreateGroup(ctx context.Context, grp group.Group, mentorID string) (group.Group, error) {
	grp.ID = uuid.New().String()

	// group + creator mentorship in one transaction
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO groups (id, name, code, semester, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		grp.ID, grp.Name, grp.Code, grp.Semester, grp.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return group.Group{}, group.ErrCodeExists
		}
		return group.Group{}, errors.Wrap(err, "inserting group")
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO group_mentors (group_id, mentor_id) VALUES ($1, $2)`, grp.ID, mentorID)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "inserting mentorship")
	}

	if err = tx.Commit(); err != nil {
		return group.Group{}, errors.Wrap(err, "committing transaction")
	}
	return grp, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row, `SELECT id, name, code, semester, created_at FROM groups WHERE id = $1`, id)
	if err != nil {
		return group.Group{}, trapGroupNoRowsErr(err, "finding group by ID")
	}
	return row.unrow(), nil
}

func (repo *groupRepository) GetGroupByCode(ctx context.Context, code string) (group.Group, error) {
	var row groupRow
	err := repo.db.GetContext(ctx, &row, `SELECT id, name, code, semester, created_at FROM groups WHERE code = $1`, code)
	if err != nil {
		return group.Group{}, trapGroupNoRowsErr(err, "finding group by code")
	}
	return row.unrow(), nil
}

func (repo *groupRepository) QueryGroupMembers(ctx context.Context, groupID string) ([]group.Member, error) {
	var rows []struct {
		GroupID   string    `db:"group_id"`
		StudentID string    `db:"student_id"`
		Name      string    `db:"name"`
		Email     string    `db:"email"`
		JoinedAt  time.Time `db:"joined_at"`
	}
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT m.group_id, m.student_id, p.name, p.email, m.joined_at
		FROM group_members m
		JOIN profiles p ON p.id = m.student_id
		WHERE m.group_id = $1
		ORDER BY m.joined_at`,
		groupID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying group members")
	}

	members := make([]group.Member, 0, len(rows))
	for _, r := range rows {
		members = append(members, group.Member{
			GroupID:   r.GroupID,
			StudentID: r.StudentID,
			Name:      r.Name,
			Email:     r.Email,
			JoinedAt:  r.JoinedAt,
		})
	}
	return members, nil
}

func (repo *groupRepository) QueryGroupMentors(ctx context.Context, groupID string) ([]group.Mentor, error) {
	var rows []struct {
		GroupID  string `db:"group_id"`
		MentorID string `db:"mentor_id"`
		Name     string `db:"name"`
	}
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT gm.group_id, gm.mentor_id, p.name
		FROM group_mentors gm
		JOIN profiles p ON p.id = gm.mentor_id
		WHERE gm.group_id = $1
		ORDER BY p.name`,
		groupID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying group mentors")
	}

	mentors := make([]group.Mentor, 0, len(rows))
	for _, r := range rows {
		mentors = append(mentors, group.Mentor{GroupID: r.GroupID, MentorID: r.MentorID, Name: r.Name})
	}
	return mentors, nil
}

func (repo *groupRepository) QueryGroupsByMentor(ctx context.Context, mentorID string) ([]group.Group, error) {
	var rows []groupRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT g.id, g.name, g.code, g.semester, g.created_at
		FROM groups g
		JOIN group_mentors gm ON gm.group_id = g.id
		WHERE gm.mentor_id = $1
		ORDER BY g.created_at DESC`,
		mentorID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups by mentor")
	}

	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.unrow())
	}
	return groups, nil
}

func (repo *groupRepository) GetMembership(ctx context.Context, studentID string) (group.Member, error) {
	var row struct {
		GroupID   string    `db:"group_id"`
		StudentID string    `db:"student_id"`
		JoinedAt  time.Time `db:"joined_at"`
	}
	err := repo.db.GetContext(ctx, &row, `
		SELECT group_id, student_id, joined_at FROM group_members WHERE student_id = $1`,
		studentID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return group.Member{}, group.ErrNoMembership
		}
		return group.Member{}, errors.Wrap(err, "finding membership")
	}
	return group.Member{GroupID: row.GroupID, StudentID: row.StudentID, JoinedAt: row.JoinedAt}, nil
}

func (repo *groupRepository) CreateMembership(ctx context.Context, groupID, studentID string) (group.Member, error) {
	m := group.Member{GroupID: groupID, StudentID: studentID, JoinedAt: time.Now().UTC()}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO group_members (group_id, student_id, joined_at) VALUES ($1, $2, $3)`,
		m.GroupID, m.StudentID, m.JoinedAt,
	)
	if err != nil {
		// the student_id unique constraint closes the concurrent-join race
		if isUniqueViolation(err) {
			return group.Member{}, group.ErrAlreadyMember
		}
		return group.Member{}, errors.Wrap(err, "inserting membership")
	}
	return m, nil
}

func (repo *groupRepository) DeleteMembership(ctx context.Context, studentID string) error {
	// 0 rows affected is fine: leaving twice is a no-op
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM group_members WHERE student_id = $1`, studentID); err != nil {
		return errors.Wrap(err, "deleting membership")
	}
	return nil
}

func (repo *groupRepository) Belongs(ctx context.Context, groupID, userID string) (bool, error) {
	var exists bool
	err := repo.db.GetContext(ctx, &exists, `
		SELECT EXISTS (
			SELECT 1 FROM group_members WHERE group_id = $1 AND student_id = $2
			UNION
			SELECT 1 FROM group_mentors WHERE group_id = $1 AND mentor_id = $2
		)`,
		groupID, userID,
	)
	if err != nil {
		return false, errors.Wrap(err, "checking group membership")
	}
	return exists, nil
}
