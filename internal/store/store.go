package store

import (
	"context"
	"errors"

	"kanboard/internal/models"
)

var (
	// ErrNotFound is returned when a board, list or card does not exist.
	ErrNotFound = errors.New("not found")
	// ErrCrossBoardMove is returned when a card is moved to a list on another board.
	ErrCrossBoardMove = errors.New("cannot move a card to a list on another board")
)

// BoardStore defines board persistence.
type BoardStore interface {
	CreateBoard(ctx context.Context, board *models.Board) error
	GetBoard(ctx context.Context, id int64) (*models.Board, error)
	ListBoards(ctx context.Context) ([]models.Board, error)
	DeleteBoard(ctx context.Context, id int64) error
}

// ListStore defines list persistence. Positions within a board are kept
// dense (0..n-1) by create and delete; UpdateList writes what it is given.
type ListStore interface {
	CreateList(ctx context.Context, list *models.List) error
	GetList(ctx context.Context, id int64) (*models.List, error)
	ListListsByBoard(ctx context.Context, boardID int64) ([]models.List, error)
	UpdateList(ctx context.Context, list *models.List) error
	DeleteList(ctx context.Context, id int64) error
}

// CardStore defines card persistence. Create, delete and move keep the
// positions of every affected list dense.
type CardStore interface {
	CreateCard(ctx context.Context, card *models.Card) error
	GetCard(ctx context.Context, id int64) (*models.Card, error)
	ListCardsByList(ctx context.Context, listID int64) ([]models.Card, error)
	UpdateCard(ctx context.Context, card *models.Card) error
	DeleteCard(ctx context.Context, id int64) error
	MoveCard(ctx context.Context, id, listID int64, position *int) (*models.Card, error)
}

// Store defines the interface for data persistence operations.
type Store interface {
	BoardStore
	ListStore
	CardStore

	// Lifecycle
	Close() error
}
