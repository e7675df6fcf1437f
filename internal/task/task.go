// Package task defines a single tracked task and its JSON form.
package task

import (
	"errors"
	"fmt"
	"time"
)

// Priority range accepted at construction.
const (
	MinPriority = 1
	MaxPriority = 5
)

// TimestampLayout is the text form of CreatedAt: local time, microsecond
// precision, no zone. Values in this layout sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// parseLayout accepts any fractional precision, including none.
const parseLayout = "2006-01-02T15:04:05.999999999"

// ErrInvalidPriority is returned when a priority falls outside
// [MinPriority, MaxPriority].
var ErrInvalidPriority = errors.New("invalid priority")

// Timestamp is a creation time kept in its persisted text form so that a
// loaded value is written back byte-for-byte.
type Timestamp string

// NewTimestamp formats t with TimestampLayout.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.Format(TimestampLayout))
}

// Time parses the timestamp in the local zone.
func (ts Timestamp) Time() (time.Time, error) {
	return time.ParseInLocation(parseLayout, string(ts), time.Local)
}

// String returns the raw text.
func (ts Timestamp) String() string {
	return string(ts)
}

// Task is a single tracked task.
type Task struct {
	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Priority    int       `json:"priority" yaml:"priority"`
	Completed   bool      `json:"completed" yaml:"completed"`
	CreatedAt   Timestamp `json:"created_at" yaml:"created_at"`
}

// New creates a pending task stamped with the current local time.
func New(title, description string, priority int) (Task, error) {
	return NewAt(title, description, priority, time.Now())
}

// NewAt is like New but uses the given creation time.
func NewAt(title, description string, priority int, createdAt time.Time) (Task, error) {
	if err := CheckPriority(priority); err != nil {
		return Task{}, err
	}
	return Task{
		Title:       title,
		Description: description,
		Priority:    priority,
		CreatedAt:   NewTimestamp(createdAt),
	}, nil
}

// CheckPriority reports whether p is an accepted priority.
func CheckPriority(p int) error {
	if p < MinPriority || p > MaxPriority {
		return fmt.Errorf("%w: must be between %d and %d, got %d", ErrInvalidPriority, MinPriority, MaxPriority, p)
	}
	return nil
}

// MarkCompleted marks the task done. Calling it again has no effect.
func (t *Task) MarkCompleted() {
	t.Completed = true
}

// StatusIcon returns the glyph shown next to the task in listings.
func (t Task) StatusIcon() string {
	if t.Completed {
		return "✔"
	}
	return "✘"
}
