// Package content holds the informational articles shown next to the
// birth plan. Members-only contents are visible to signed-in users only.
package content

import (
	"time"

	"github.com/humanizapp/humanizapp/backend/go-services/pkg/validator"
)

const (
	RolePublic  = "public"
	RoleMembers = "members"
)

// Content is an informational article. Text is HTML authored by admins.
type Content struct {
	ID             string    `json:"id" bson:"_id"`
	Title          string    `json:"title" bson:"title"`
	Text           string    `json:"text" bson:"text"`
	Category       string    `json:"category" bson:"category"`
	Role           string    `json:"role" bson:"role"`
	Trimester      int       `json:"trimester" bson:"trimester"`
	WeekRangeStart int       `json:"weekRangeStart" bson:"weekRangeStart"`
	WeekRangeEnd   int       `json:"weekRangeEnd" bson:"weekRangeEnd"`
	Type           string    `json:"type" bson:"type"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Input is the writable part of a Content, used for create and full update.
type Input struct {
	Title          string `json:"title" validate:"required,max=200"`
	Text           string `json:"text" validate:"required"`
	Category       string `json:"category" validate:"required,oneof=gestacao parto pos-parto"`
	Role           string `json:"role" validate:"required,oneof=public members"`
	Trimester      int    `json:"trimester" validate:"min=1,max=3"`
	WeekRangeStart int    `json:"weekRangeStart" validate:"min=1,max=42"`
	WeekRangeEnd   int    `json:"weekRangeEnd" validate:"min=1,max=42,gtefield=WeekRangeStart"`
	Type           string `json:"type" validate:"required,oneof=article guide tip"`
}

// InvalidError carries per-field validation messages.
type InvalidError struct {
	Fields map[string]string
}

func (e *InvalidError) Error() string { return "invalid content" }

var inputValidator = validator.NewValidator()

func (in Input) Validate() error {
	if err := inputValidator.Validate(in); err != nil {
		return &InvalidError{Fields: inputValidator.FormatValidationErrors(err)}
	}
	return nil
}

func (in Input) apply(c *Content) {
	c.Title = in.Title
	c.Text = in.Text
	c.Category = in.Category
	c.Role = in.Role
	c.Trimester = in.Trimester
	c.WeekRangeStart = in.WeekRangeStart
	c.WeekRangeEnd = in.WeekRangeEnd
	c.Type = in.Type
}

// Filter narrows a listing. Zero values do not filter.
type Filter struct {
	Role      string
	Category  string
	Trimester int
	Week      int
	// MembersVisible is false for anonymous callers; members-only contents
	// are then dropped regardless of Role.
	MembersVisible bool
}

// Match reports whether c passes the filter.
func (f Filter) Match(c *Content) bool {
	if !f.MembersVisible && c.Role == RoleMembers {
		return false
	}
	if f.Role != "" && c.Role != f.Role {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Trimester != 0 && c.Trimester != f.Trimester {
		return false
	}
	if f.Week != 0 && (f.Week < c.WeekRangeStart || f.Week > c.WeekRangeEnd) {
		return false
	}
	return true
}
