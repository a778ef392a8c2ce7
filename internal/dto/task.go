package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskapp/internal/controller"
)

const dateOnly = "2006-01-02"

// ParseDueAt accepts a date ("2006-01-02"), "2006-01-02 15:04", or RFC3339.
// A date without a time means the end of that day in loc. Blank input yields nil.
func ParseDueAt(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if d, err := time.ParseInLocation(dateOnly, s, loc); err == nil {
		end := time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
		return &end, nil
	}
	layouts := []string{
		time.RFC3339,     // 2006-01-02T15:04:05Z07:00
		time.RFC3339Nano, // with nanoseconds
		"2006-01-02T15:04:05",
		"2006-01-02 15:04",
	}
	for _, layout := range layouts {
		if parsed, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("dueAt: use date (YYYY-MM-DD), \"YYYY-MM-DD HH:MM\" or RFC3339 datetime")
}

// DueAt parses dueAt from JSON with ParseDueAt in UTC.
// It remembers whether the field was present so null can mean "clear".
type DueAt struct {
	t   *time.Time
	set bool
}

func (d *DueAt) UnmarshalJSON(data []byte) error {
	d.set = true
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		d.t = nil
		return nil
	}
	t, err := ParseDueAt(*raw, time.UTC)
	if err != nil {
		return err
	}
	d.t = t
	return nil
}

// Ptr returns *time.Time for use in controllers.
func (d DueAt) Ptr() *time.Time { return d.t }

// Present reports whether the field appeared in the JSON body.
func (d DueAt) Present() bool { return d.set }

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=120"`
	Description string `json:"description" binding:"max=1000"`
	Priority    string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueAt       DueAt  `json:"dueAt"` // optional: "2026-02-19" or RFC3339
}

func (r CreateTaskRequest) Input() controller.CreateTaskInput {
	return controller.CreateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		DueAt:       r.DueAt.Ptr(),
	}
}

type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=120"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Priority    *string `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueAt       DueAt   `json:"dueAt"` // нет поля = не менять, null = убрать срок
	Completed   *bool   `json:"completed"`
}

func (r UpdateTaskRequest) Input() controller.UpdateTaskInput {
	in := controller.UpdateTaskInput{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Completed:   r.Completed,
	}
	if r.DueAt.Present() {
		if p := r.DueAt.Ptr(); p != nil {
			in.DueAt = p
		} else {
			in.ClearDueAt = true
		}
	}
	return in
}
