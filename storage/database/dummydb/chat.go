package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/ipdpulse/backend/core/chat"
)

type chatRepository struct {
	db *chatTable
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{db: db.chat}
}

func (repo *chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	msg.ID = uuid.New().String()
	repo.db.messages = append(repo.db.messages, msg)
	return msg, nil
}

func (repo *chatRepository) QueryMessagesByGroup(ctx context.Context, groupID string) ([]chat.Message, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	// insertion order is creation order
	var msgs []chat.Message
	for _, m := range repo.db.messages {
		if m.GroupID == groupID {
			msgs = append(msgs, m)
		}
	}
	return msgs, nil
}
