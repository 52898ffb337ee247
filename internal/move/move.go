// Package move turns one drag-and-drop event into a new board snapshot and
// the list of backend calls that persist it. It never touches the cache.
package move

import (
	"errors"
	"fmt"
	"strings"

	"kanboard/internal/boardcache"
	"kanboard/internal/models"
	"kanboard/internal/ordered"
)

var (
	// ErrStaleIndex means the event no longer matches the cached board, for
	// example because a card was deleted while it was being dragged.
	ErrStaleIndex = errors.New("move no longer matches the board")
	// ErrMalformedEvent means the event could never have been valid.
	ErrMalformedEvent = errors.New("malformed move event")
)

// Kind says what is being dragged.
type Kind int

const (
	KindList Kind = iota + 1
	KindCard
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindCard:
		return "card"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses "list" or "card".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "list":
		return KindList, nil
	case "card":
		return KindCard, nil
	default:
		return 0, fmt.Errorf("unknown item kind %q", s)
	}
}

// Event is what the drag source emits when an item is dropped. For lists
// both parent ids are the board id; for cards they are list ids.
type Event struct {
	Kind           Kind
	MovedID        int64
	SourceParentID int64
	DestParentID   int64
	SourceIndex    int
	DestIndex      int
}

func (e Event) String() string {
	return fmt.Sprintf("%s %d: %d[%d] -> %d[%d]", e.Kind, e.MovedID, e.SourceParentID, e.SourceIndex, e.DestParentID, e.DestIndex)
}

// ListPosition is one positional update of a list (PUT /lists/{id}).
type ListPosition struct {
	ListID   int64
	Title    string
	Position int
}

// CardMove is the move call for a card (PUT /cards/{id}/move).
type CardMove struct {
	CardID   int64
	ListID   int64
	Position int
}

// Result is the outcome of planning an event.
type Result struct {
	// Noop is set when the item was dropped where it started.
	Noop bool
	// Board is the board after the move. Equal to the input when Noop.
	Board boardcache.Snapshot
	// Lists holds one update per list whose position changed.
	Lists []ListPosition
	// Card is set for card moves.
	Card *CardMove
}

// Plan computes the board after ev and the calls that persist it. The input
// snapshot is never modified. Stale events return ErrStaleIndex and are
// never clamped into range.
func Plan(board boardcache.Snapshot, ev Event) (Result, error) {
	if err := validate(board, ev); err != nil {
		return Result{}, err
	}
	if ev.SourceParentID == ev.DestParentID && ev.SourceIndex == ev.DestIndex {
		return Result{Noop: true, Board: board}, nil
	}

	switch ev.Kind {
	case KindList:
		return planList(board, ev)
	default:
		return planCard(board, ev)
	}
}

func validate(board boardcache.Snapshot, ev Event) error {
	if ev.SourceIndex < 0 || ev.DestIndex < 0 {
		return fmt.Errorf("%w: negative index in %s", ErrMalformedEvent, ev)
	}
	switch ev.Kind {
	case KindList:
		if ev.SourceParentID != ev.DestParentID {
			return fmt.Errorf("%w: lists cannot change board", ErrMalformedEvent)
		}
		if ev.SourceParentID != board.BoardID() {
			return fmt.Errorf("%w: board %d is not open", ErrStaleIndex, ev.SourceParentID)
		}
	case KindCard:
	default:
		return fmt.Errorf("%w: unknown kind %s", ErrMalformedEvent, ev.Kind)
	}
	return nil
}

func planList(board boardcache.Snapshot, ev Event) (Result, error) {
	lists := board.Lists()
	if ev.SourceIndex >= len(lists) || ev.DestIndex >= len(lists) {
		return Result{}, fmt.Errorf("%w: board has %d lists, event %s", ErrStaleIndex, len(lists), ev)
	}
	if lists[ev.SourceIndex].ID != ev.MovedID {
		return Result{}, fmt.Errorf("%w: list %d is not at index %d", ErrStaleIndex, ev.MovedID, ev.SourceIndex)
	}

	next := ordered.Renumber(ordered.Reorder(lists, ev.SourceIndex, ev.DestIndex))

	var updates []ListPosition
	for i, l := range next {
		if prev := lists[ordered.IndexOf(lists, l.ID)]; prev.Position != i {
			updates = append(updates, ListPosition{ListID: l.ID, Title: l.Title, Position: i})
		}
	}

	return Result{Board: board.WithLists(next), Lists: updates}, nil
}

func planCard(board boardcache.Snapshot, ev Event) (Result, error) {
	src, _, ok := board.List(ev.SourceParentID)
	if !ok {
		return Result{}, fmt.Errorf("%w: source list %d not on board", ErrStaleIndex, ev.SourceParentID)
	}
	if ev.SourceIndex >= len(src.Cards) {
		return Result{}, fmt.Errorf("%w: list %d has %d cards, event %s", ErrStaleIndex, src.ID, len(src.Cards), ev)
	}
	if src.Cards[ev.SourceIndex].ID != ev.MovedID {
		return Result{}, fmt.Errorf("%w: card %d is not at index %d", ErrStaleIndex, ev.MovedID, ev.SourceIndex)
	}

	call := &CardMove{CardID: ev.MovedID, ListID: ev.DestParentID, Position: ev.DestIndex}

	if ev.SourceParentID == ev.DestParentID {
		if ev.DestIndex >= len(src.Cards) {
			return Result{}, fmt.Errorf("%w: list %d has %d cards, event %s", ErrStaleIndex, src.ID, len(src.Cards), ev)
		}
		cards := ordered.Renumber(ordered.Reorder(src.Cards, ev.SourceIndex, ev.DestIndex))
		next, err := board.WithCards(src.ID, cards)
		if err != nil {
			return Result{}, err
		}
		return Result{Board: next, Card: call}, nil
	}

	dst, _, ok := board.List(ev.DestParentID)
	if !ok {
		return Result{}, fmt.Errorf("%w: destination list %d not on board", ErrStaleIndex, ev.DestParentID)
	}
	if ev.DestIndex > len(dst.Cards) {
		return Result{}, fmt.Errorf("%w: list %d has %d cards, event %s", ErrStaleIndex, dst.ID, len(dst.Cards), ev)
	}

	srcCards, dstCards := ordered.Relocate(src.Cards, dst.Cards, ev.SourceIndex, ev.DestIndex)
	dstCards[ev.DestIndex] = withList(dstCards[ev.DestIndex], dst.ID)

	next, err := board.WithCards(src.ID, ordered.Renumber(srcCards))
	if err != nil {
		return Result{}, err
	}
	next, err = next.WithCards(dst.ID, ordered.Renumber(dstCards))
	if err != nil {
		return Result{}, err
	}
	return Result{Board: next, Card: call}, nil
}

func withList(c models.Card, listID int64) models.Card {
	c.ListID = listID
	return c
}
