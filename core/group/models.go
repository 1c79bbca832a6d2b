package group

import (
	"crypto/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/ipdpulse/backend/core"
)

// CodeLen is the length of a group join-code.
const CodeLen = 6

// codeAlphabet avoids ambiguous characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

type (
	// Group is a project group joined by students via its join-code
	// and supervised by one or more mentors.
	Group struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Code      string    `json:"code"`
		Semester  null.Int  `json:"semester"`
		CreatedAt time.Time `json:"created_at"` // UTC

		// populated on detail queries only
		Members []Member `json:"members,omitempty"`
		Mentors []Mentor `json:"mentors,omitempty"`
	}

	// Member links a student to their group. A student belongs to at most
	// one group at a time.
	Member struct {
		GroupID   string    `json:"group_id"`
		StudentID string    `json:"student_id"`
		Name      string    `json:"name,omitempty"`
		Email     string    `json:"email,omitempty"`
		JoinedAt  time.Time `json:"joined_at"` // UTC
	}

	// Mentor links a mentor to a group they supervise.
	Mentor struct {
		GroupID  string `json:"group_id"`
		MentorID string `json:"mentor_id"`
		Name     string `json:"name,omitempty"`
	}
)

// NewGroup contains information needed to create a new Group.
// Code is optional; a fresh one is generated when omitted.
type NewGroup struct {
	Name     string   `json:"name" validate:"required"`
	Semester null.Int `json:"semester" validate:"omitempty"`
	Code     string   `json:"code" validate:"omitempty,joincode"`
}

func (ng *NewGroup) Validate(validate *validator.Validate) error {
	ng.Name = core.CleanString(ng.Name)
	ng.Code = NormalizeCode(ng.Code)
	return validate.Struct(ng)
}

// NormalizeCode upper-cases and trims a join-code as typed by a student.
func NormalizeCode(code string) string {
	return strings.ToUpper(core.CleanString(code))
}

// GenerateCode returns a random join-code over the unambiguous alphabet.
func GenerateCode() string {
	buf := make([]byte, CodeLen)
	if _, err := rand.Read(buf); err != nil {
		panic(err) // crypto/rand failure is unrecoverable
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf)
}
