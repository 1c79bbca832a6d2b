package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ipdpulse/backend/core/notice"
)

type noticeRepository struct {
	db *noticeTable
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *DB) notice.Repository {
	return &noticeRepository{db: db.notice}
}

func (repo *noticeRepository) CreateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *noticeRepository) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return notice.Notice{}, notice.ErrNotFound
}

func (repo *noticeRepository) QueryNoticesByGroup(ctx context.Context, groupID string) ([]notice.Notice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var notices []notice.Notice
	for _, n := range repo.db.table {
		if !n.GroupID.Valid || n.GroupID.String == groupID {
			notices = append(notices, *n)
		}
	}
	// pinned first, then newest first
	sort.Slice(notices, func(i, j int) bool {
		if notices[i].IsPinned != notices[j].IsPinned {
			return notices[i].IsPinned
		}
		return notices[i].CreatedAt.After(notices[j].CreatedAt)
	})
	return notices, nil
}

func (repo *noticeRepository) SetNoticePinned(ctx context.Context, id string, pinned bool) (notice.Notice, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n, ok := repo.db.table[id]
	if !ok {
		return notice.Notice{}, notice.ErrNotFound
	}
	n.IsPinned = pinned
	return *n, nil
}
