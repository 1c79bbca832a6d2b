package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core/notice"
)

const selectNotice = `
SELECT id, title, content, is_pinned, group_id, file_url, created_by, created_at
FROM notices`

type noticeRepository struct {
	db *sqlx.DB
}

var _ notice.Repository = (*noticeRepository)(nil) // interface compliance check

func NewNoticeRepository(db *sqlx.DB) *noticeRepository {
	return &noticeRepository{db: db}
}

type noticeRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Content   string      `db:"content"`
	IsPinned  bool        `db:"is_pinned"`
	GroupID   null.String `db:"group_id"`
	FileURL   null.String `db:"file_url"`
	CreatedBy null.String `db:"created_by"`
	CreatedAt time.Time   `db:"created_at"`
}

func (r noticeRow) unrow() notice.Notice {
	return notice.Notice{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		IsPinned:  r.IsPinned,
		GroupID:   r.GroupID,
		FileURL:   r.FileURL,
		CreatedBy: r.CreatedBy.String,
		CreatedAt: r.CreatedAt,
	}
}

func (repo *noticeRepository) CreateNotice(ctx context.Context, n notice.Notice) (notice.Notice, error) {
	n.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO notices (id, title, content, is_pinned, group_id, file_url, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		n.ID, n.Title, n.Content, n.IsPinned, n.GroupID, n.FileURL,
		null.NewString(n.CreatedBy, n.CreatedBy != ""), n.CreatedAt,
	)
	if err != nil {
		return notice.Notice{}, errors.Wrap(err, "inserting notice")
	}
	return n, nil
}

func (repo *noticeRepository) GetNoticeByID(ctx context.Context, id string) (notice.Notice, error) {
	var row noticeRow
	if err := repo.db.GetContext(ctx, &row, selectNotice+` WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return notice.Notice{}, notice.ErrNotFound
		}
		return notice.Notice{}, errors.Wrap(err, "finding notice by ID")
	}
	return row.unrow(), nil
}

func (repo *noticeRepository) QueryNoticesByGroup(ctx context.Context, groupID string) ([]notice.Notice, error) {
	var rows []noticeRow
	err := repo.db.SelectContext(ctx, &rows,
		selectNotice+` WHERE group_id = $1 OR group_id IS NULL ORDER BY is_pinned DESC, created_at DESC`,
		groupID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying notices by group")
	}

	notices := make([]notice.Notice, 0, len(rows))
	for _, r := range rows {
		notices = append(notices, r.unrow())
	}
	return notices, nil
}

func (repo *noticeRepository) SetNoticePinned(ctx context.Context, id string, pinned bool) (notice.Notice, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE notices SET is_pinned = $2 WHERE id = $1`, id, pinned)
	if err != nil {
		return notice.Notice{}, errors.Wrap(err, "pinning notice")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notice.Notice{}, notice.ErrNotFound
	}
	return repo.GetNoticeByID(ctx, id)
}
