package models

import (
	"errors"
	"strings"
	"time"
)

// List is an ordered column of cards owned by exactly one board.
type List struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"boardId"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Cards holds the list's cards in position order (populated by the board cache)
	Cards []Card `json:"cards,omitempty"`
}

// Validate checks that the list has valid field values.
func (l *List) Validate() error {
	if strings.TrimSpace(l.Title) == "" {
		return errors.New("title is required")
	}

	if l.BoardID == 0 {
		return errors.New("boardId is required")
	}

	if l.Position < 0 {
		return errors.New("position must not be negative")
	}

	return nil
}

// ItemID returns the list's identity.
func (l List) ItemID() int64 { return l.ID }

// Rank returns the list's position among its siblings.
func (l List) Rank() int { return l.Position }

// WithRank returns a copy of the list at the given position.
func (l List) WithRank(position int) List {
	l.Position = position
	return l
}
