// Package dummydb provides in-memory repositories for tests.
package dummydb

import (
	"sync"

	"github.com/ipdpulse/backend/core/chat"
	"github.com/ipdpulse/backend/core/group"
	"github.com/ipdpulse/backend/core/notice"
	"github.com/ipdpulse/backend/core/task"
	"github.com/ipdpulse/backend/core/user"
)

type (
	DB struct {
		user   *userTable
		group  *groupTable
		task   *taskTable
		notice *noticeTable
		chat   *chatTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	groupTable struct {
		sync.RWMutex
		table map[string]*group.Group
		// one membership per student, keyed by student ID
		members map[string]group.Member
		mentors []group.Mentor
	}

	taskTable struct {
		sync.RWMutex
		table       map[string]*task.Task
		submissions map[string]*task.Submission
	}

	noticeTable struct {
		sync.RWMutex
		table map[string]*notice.Notice
	}

	chatTable struct {
		sync.RWMutex
		messages []chat.Message
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:   &userTable{table: make(map[string]*user.User)},
		group:  &groupTable{table: make(map[string]*group.Group), members: make(map[string]group.Member)},
		task:   &taskTable{table: make(map[string]*task.Task), submissions: make(map[string]*task.Submission)},
		notice: &noticeTable{table: make(map[string]*notice.Notice)},
		chat:   &chatTable{},
	}
	return db, nil
}
