package chat

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
)

// Message is a single group-chat entry. Display order is creation time
// ascending; creation timestamps are assigned server-side.
type Message struct {
	ID         string      `json:"id"`
	GroupID    string      `json:"group_id"`
	SenderID   string      `json:"sender_id"`
	SenderName string      `json:"sender_name,omitempty"`
	Content    string      `json:"content"`
	FileURL    null.String `json:"file_url"`
	CreatedAt  time.Time   `json:"created_at"` // UTC
}

// NewMessage contains information needed to post a Message.
type NewMessage struct {
	Content string      `json:"content" validate:"required"`
	FileURL null.String `json:"file_url"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Content = core.CleanString(nm.Content)
	return validate.Struct(nm)
}
