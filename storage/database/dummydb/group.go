package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ipdpulse/backend/core/group"
)

type groupRepository struct {
	db *groupTable
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) group.Repository {
	return &groupRepository{db: db.group}
}

func (repo *groupRepository) CreateGroup(ctx context.Context, grp group.Group, mentorID string) (group.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, g := range repo.db.table {
		if g.Code == grp.Code {
			return group.Group{}, group.ErrCodeExists
		}
	}

	grp.ID = uuid.New().String()
	repo.db.table[grp.ID] = &grp
	repo.db.mentors = append(repo.db.mentors, group.Mentor{GroupID: grp.ID, MentorID: mentorID})
	return grp, nil
}

func (repo *groupRepository) GetGroupByID(ctx context.Context, id string) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if grp, ok := repo.db.table[id]; ok {
		return *grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) GetGroupByCode(ctx context.Context, code string) (group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, grp := range repo.db.table {
		if grp.Code == code {
			return *grp, nil
		}
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) QueryGroupMembers(ctx context.Context, groupID string) ([]group.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var members []group.Member
	for _, m := range repo.db.members {
		if m.GroupID == groupID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].JoinedAt.Before(members[j].JoinedAt) })
	return members, nil
}

func (repo *groupRepository) QueryGroupMentors(ctx context.Context, groupID string) ([]group.Mentor, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var mentors []group.Mentor
	for _, m := range repo.db.mentors {
		if m.GroupID == groupID {
			mentors = append(mentors, m)
		}
	}
	return mentors, nil
}

func (repo *groupRepository) QueryGroupsByMentor(ctx context.Context, mentorID string) ([]group.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var groups []group.Group
	for _, m := range repo.db.mentors {
		if m.MentorID == mentorID {
			if grp, ok := repo.db.table[m.GroupID]; ok {
				groups = append(groups, *grp)
			}
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CreatedAt.After(groups[j].CreatedAt) })
	return groups, nil
}

func (repo *groupRepository) GetMembership(ctx context.Context, studentID string) (group.Member, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.members[studentID]; ok {
		return m, nil
	}
	return group.Member{}, group.ErrNoMembership
}

func (repo *groupRepository) CreateMembership(ctx context.Context, groupID, studentID string) (group.Member, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.members[studentID]; ok {
		return group.Member{}, group.ErrAlreadyMember
	}
	m := group.Member{GroupID: groupID, StudentID: studentID, JoinedAt: time.Now().UTC()}
	repo.db.members[studentID] = m
	return m, nil
}

func (repo *groupRepository) DeleteMembership(ctx context.Context, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	delete(repo.db.members, studentID)
	return nil
}

func (repo *groupRepository) Belongs(ctx context.Context, groupID, userID string) (bool, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.members[userID]; ok && m.GroupID == groupID {
		return true, nil
	}
	for _, m := range repo.db.mentors {
		if m.GroupID == groupID && m.MentorID == userID {
			return true, nil
		}
	}
	return false, nil
}
