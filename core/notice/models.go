package notice

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
)

// Notice is a mentor announcement, scoped to a group or broadcast to all
// (GroupID unset). Pinned notices sort before the rest.
type Notice struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	IsPinned  bool        `json:"is_pinned"`
	GroupID   null.String `json:"group_id"`
	FileURL   null.String `json:"file_url"`
	CreatedBy string      `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"` // UTC
}

// NewNotice contains information needed to post a Notice.
type NewNotice struct {
	Title   string      `json:"title" validate:"required"`
	Content string      `json:"content" validate:"required"`
	GroupID null.String `json:"group_id"`
	FileURL null.String `json:"file_url"`
}

func (nn *NewNotice) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Content = core.CleanString(nn.Content)
	return validate.Struct(nn)
}
