package models

import (
	"errors"
	"strings"
	"time"
)

// BoardInput is the request body for POST /boards.
type BoardInput struct {
	Name string `json:"name"`
}

// Validate checks the board input.
func (in BoardInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// ListInput is the request body for POST /boards/{id}/lists.
type ListInput struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Validate checks the list input.
func (in ListInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	if in.Position < 0 {
		return errors.New("position must not be negative")
	}
	return nil
}

// ListUpdate is the request body for PUT /lists/{id}. Nil fields are left
// unchanged.
type ListUpdate struct {
	Title    *string `json:"title,omitempty"`
	Position *int    `json:"position,omitempty"`
}

// Validate checks the list update.
func (in ListUpdate) Validate() error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return errors.New("title must not be blank")
	}
	if in.Position != nil && *in.Position < 0 {
		return errors.New("position must not be negative")
	}
	return nil
}

// Apply copies the set fields onto l.
func (in ListUpdate) Apply(l *List) {
	if in.Title != nil {
		l.Title = *in.Title
	}
	if in.Position != nil {
		l.Position = *in.Position
	}
}

// CardInput is the request body for POST /lists/{id}/cards.
type CardInput struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// Validate checks the card input.
func (in CardInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return errors.New("title is required")
	}
	if in.Position < 0 {
		return errors.New("position must not be negative")
	}
	return nil
}

// CardUpdate is the request body for PUT /cards/{id}. Nil fields are left
// unchanged; a non-nil empty Labels clears the label set.
type CardUpdate struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Labels      []string   `json:"labels"`
}

// Validate checks the card update.
func (in CardUpdate) Validate() error {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return errors.New("title must not be blank")
	}
	return ValidateLabels(in.Labels)
}

// Apply copies the set fields onto c.
func (in CardUpdate) Apply(c *Card) {
	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.DueDate != nil {
		d := *in.DueDate
		c.DueDate = &d
	}
	if in.Labels != nil {
		c.Labels = NormalizeLabels(in.Labels)
	}
}

// CardMove is the request body for PUT /cards/{id}/move. A nil Position
// appends the card to the end of the destination list.
type CardMove struct {
	NewListID int64 `json:"newListId"`
	Position  *int  `json:"position,omitempty"`
}

// Validate checks the move request.
func (in CardMove) Validate() error {
	if in.NewListID == 0 {
		return errors.New("newListId is required")
	}
	if in.Position != nil && *in.Position < 0 {
		return errors.New("position must not be negative")
	}
	return nil
}
