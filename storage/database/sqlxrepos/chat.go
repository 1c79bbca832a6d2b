package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core/chat"
)

type chatRepository struct {
	db *sqlx.DB
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *sqlx.DB) *chatRepository {
	return &chatRepository{db: db}
}

type messageRow struct {
	ID         string      `db:"id"`
	GroupID    string      `db:"group_id"`
	SenderID   string      `db:"sender_id"`
	SenderName string      `db:"sender_name"`
	Content    string      `db:"content"`
	FileURL    null.String `db:"file_url"`
	CreatedAt  time.Time   `db:"created_at"`
}

func (r messageRow) unrow() chat.Message {
	return chat.Message{
		ID:         r.ID,
		GroupID:    r.GroupID,
		SenderID:   r.SenderID,
		SenderName: r.SenderName,
		Content:    r.Content,
		FileURL:    r.FileURL,
		CreatedAt:  r.CreatedAt,
	}
}

func (repo *chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	msg.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO messages (id, group_id, sender_id, content, file_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.GroupID, msg.SenderID, msg.Content, msg.FileURL, msg.CreatedAt,
	)
	if err != nil {
		return chat.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *chatRepository) QueryMessagesByGroup(ctx context.Context, groupID string) ([]chat.Message, error) {
	var rows []messageRow
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT m.id, m.group_id, m.sender_id, p.name AS sender_name, m.content, m.file_url, m.created_at
		FROM messages m
		JOIN profiles p ON p.id = m.sender_id
		WHERE m.group_id = $1
		ORDER BY m.created_at`,
		groupID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying messages by group")
	}

	msgs := make([]chat.Message, 0, len(rows))
	for _, r := range rows {
		msgs = append(msgs, r.unrow())
	}
	return msgs, nil
}
