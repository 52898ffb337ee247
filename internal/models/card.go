package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Card is a single task owned by exactly one list at any instant.
type Card struct {
	ID          int64      `json:"id"`
	ListID      int64      `json:"listId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Labels      []string   `json:"labels"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Validate checks that the card has valid field values.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.New("title is required")
	}

	if c.ListID == 0 {
		return errors.New("listId is required")
	}

	if c.Position < 0 {
		return errors.New("position must not be negative")
	}

	return ValidateLabels(c.Labels)
}

// IsOverdue returns true if the card has a due date that has passed.
func (c *Card) IsOverdue() bool {
	if c.DueDate == nil {
		return false
	}
	return c.DueDate.Before(time.Now())
}

// ItemID returns the card's identity.
func (c Card) ItemID() int64 { return c.ID }

// Rank returns the card's position within its list.
func (c Card) Rank() int { return c.Position }

// WithRank returns a copy of the card at the given position.
func (c Card) WithRank(position int) Card {
	c.Position = position
	return c
}

// ValidateLabels rejects blank and duplicate labels. Labels are a set
// compared after trimming surrounding whitespace, so "urgent" and "urgent "
// are duplicates.
func ValidateLabels(labels []string) error {
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		if l == "" {
			return errors.New("labels must not be blank")
		}
		if _, dup := seen[l]; dup {
			return fmt.Errorf("duplicate label %q", l)
		}
		seen[l] = struct{}{}
	}
	return nil
}

// NormalizeLabels returns a trimmed, sorted copy of labels so that two equal
// sets compare equal. A nil input yields an empty, non-nil slice.
func NormalizeLabels(labels []string) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = strings.TrimSpace(l)
	}
	sort.Strings(out)
	return out
}
