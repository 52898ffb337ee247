package boardcache

import (
	"errors"
	"fmt"
	"reflect"

	"kanboard/internal/models"
	"kanboard/internal/ordered"
)

var (
	// ErrListNotFound is returned when a mutation names a list the snapshot does not hold.
	ErrListNotFound = errors.New("list not found in board")
	// ErrCardNotFound is returned when a mutation names a card the snapshot does not hold.
	ErrCardNotFound = errors.New("card not found in board")
)

// Snapshot is an immutable view of one open board: its lists in position
// order, each carrying its cards in position order.
//
// Mutators return a new Snapshot and never write to backing arrays that an
// earlier Snapshot can observe, so any value doubles as a checkpoint.
type Snapshot struct {
	boardID int64
	lists   []models.List
}

// NewSnapshot builds a snapshot for boardID, sorting lists and cards by
// position. Ties keep the order in which they were given.
func NewSnapshot(boardID int64, lists []models.List) Snapshot {
	sorted := ordered.SortByPosition(lists)
	for i := range sorted {
		sorted[i].Cards = ordered.SortByPosition(sorted[i].Cards)
	}
	return Snapshot{boardID: boardID, lists: sorted}
}

// BoardID returns the id of the board the snapshot describes.
func (s Snapshot) BoardID() int64 { return s.boardID }

// Len returns the number of lists.
func (s Snapshot) Len() int { return len(s.lists) }

// Lists returns a deep copy of the lists, safe for the caller to modify.
func (s Snapshot) Lists() []models.List {
	out := make([]models.List, len(s.lists))
	for i, l := range s.lists {
		out[i] = cloneList(l)
	}
	return out
}

// ListAt returns a copy of the list at index i.
func (s Snapshot) ListAt(i int) models.List {
	return cloneList(s.lists[i])
}

// List returns a copy of the list with the given id and its index.
func (s Snapshot) List(id int64) (models.List, int, bool) {
	i := ordered.IndexOf(s.lists, id)
	if i < 0 {
		return models.List{}, -1, false
	}
	return cloneList(s.lists[i]), i, true
}

// Card returns the card with the given id along with the index of its list
// and its index within that list.
func (s Snapshot) Card(id int64) (card models.Card, listIdx, cardIdx int, ok bool) {
	for li, l := range s.lists {
		if ci := ordered.IndexOf(l.Cards, id); ci >= 0 {
			return l.Cards[ci], li, ci, true
		}
	}
	return models.Card{}, -1, -1, false
}

// Equal reports whether both snapshots hold the same board, lists, cards,
// order and positions.
func (s Snapshot) Equal(o Snapshot) bool {
	if s.boardID != o.boardID || len(s.lists) != len(o.lists) {
		return false
	}
	for i := range s.lists {
		a, b := s.lists[i], o.lists[i]
		if len(a.Cards) != len(b.Cards) {
			return false
		}
		a.Cards, b.Cards = nil, nil
		if !reflect.DeepEqual(a, b) {
			return false
		}
		for j := range s.lists[i].Cards {
			if !reflect.DeepEqual(s.lists[i].Cards[j], o.lists[i].Cards[j]) {
				return false
			}
		}
	}
	return true
}

// WithLists returns a snapshot whose lists are replaced by lists, taken in
// the given order.
func (s Snapshot) WithLists(lists []models.List) Snapshot {
	out := make([]models.List, len(lists))
	copy(out, lists)
	return Snapshot{boardID: s.boardID, lists: out}
}

// WithCards returns a snapshot where the cards of listID are replaced by
// cards, taken in the given order.
func (s Snapshot) WithCards(listID int64, cards []models.Card) (Snapshot, error) {
	i := ordered.IndexOf(s.lists, listID)
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrListNotFound, listID)
	}
	lists := s.copyLists()
	lists[i].Cards = append([]models.Card(nil), cards...)
	return Snapshot{boardID: s.boardID, lists: lists}, nil
}

// AddList inserts l at its position (clamped to the end) and renumbers the
// board's lists.
func (s Snapshot) AddList(l models.List) Snapshot {
	at := clamp(l.Position, len(s.lists))
	return s.WithLists(ordered.Renumber(ordered.Insert(s.lists, at, l)))
}

// RemoveList drops the list and its cards and renumbers the remaining lists.
func (s Snapshot) RemoveList(id int64) (Snapshot, error) {
	i := ordered.IndexOf(s.lists, id)
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrListNotFound, id)
	}
	return s.WithLists(ordered.Renumber(ordered.Remove(s.lists, i))), nil
}

// RenameList changes the title of a list.
func (s Snapshot) RenameList(id int64, title string) (Snapshot, error) {
	i := ordered.IndexOf(s.lists, id)
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrListNotFound, id)
	}
	lists := s.copyLists()
	lists[i].Title = title
	return Snapshot{boardID: s.boardID, lists: lists}, nil
}

// ReplaceList swaps the list identified by oldID for l, keeping the cached
// position and cards. Used to patch a provisional list with the entity the
// backend returned.
func (s Snapshot) ReplaceList(oldID int64, l models.List) (Snapshot, error) {
	i := ordered.IndexOf(s.lists, oldID)
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrListNotFound, oldID)
	}
	lists := s.copyLists()
	l.Position = lists[i].Position
	l.Cards = lists[i].Cards
	lists[i] = l
	return Snapshot{boardID: s.boardID, lists: lists}, nil
}

// AddCard inserts c into its list at its position (clamped to the end) and
// renumbers that list.
func (s Snapshot) AddCard(c models.Card) (Snapshot, error) {
	i := ordered.IndexOf(s.lists, c.ListID)
	if i < 0 {
		return s, fmt.Errorf("%w: %d", ErrListNotFound, c.ListID)
	}
	cards := s.lists[i].Cards
	at := clamp(c.Position, len(cards))
	return s.WithCards(c.ListID, ordered.Renumber(ordered.Insert(cards, at, c)))
}

// RemoveCard drops a card and renumbers its former siblings.
func (s Snapshot) RemoveCard(id int64) (Snapshot, error) {
	_, li, ci, ok := s.Card(id)
	if !ok {
		return s, fmt.Errorf("%w: %d", ErrCardNotFound, id)
	}
	l := s.lists[li]
	return s.WithCards(l.ID, ordered.Renumber(ordered.Remove(l.Cards, ci)))
}

// EditCard applies update to a card in place, leaving its position alone.
func (s Snapshot) EditCard(id int64, update models.CardUpdate) (Snapshot, error) {
	card, li, ci, ok := s.Card(id)
	if !ok {
		return s, fmt.Errorf("%w: %d", ErrCardNotFound, id)
	}
	update.Apply(&card)
	return s.setCard(li, ci, card)
}

// ReplaceCard swaps the card identified by oldID for c, keeping the cached
// list and position.
func (s Snapshot) ReplaceCard(oldID int64, c models.Card) (Snapshot, error) {
	cur, li, ci, ok := s.Card(oldID)
	if !ok {
		return s, fmt.Errorf("%w: %d", ErrCardNotFound, oldID)
	}
	c.ListID = cur.ListID
	c.Position = cur.Position
	return s.setCard(li, ci, c)
}

func (s Snapshot) setCard(li, ci int, c models.Card) (Snapshot, error) {
	cards := append([]models.Card(nil), s.lists[li].Cards...)
	cards[ci] = c
	return s.WithCards(s.lists[li].ID, cards)
}

func (s Snapshot) copyLists() []models.List {
	out := make([]models.List, len(s.lists))
	copy(out, s.lists)
	return out
}

func cloneList(l models.List) models.List {
	if l.Cards != nil {
		cards := make([]models.Card, len(l.Cards))
		for i, c := range l.Cards {
			c.Labels = append([]string(nil), c.Labels...)
			cards[i] = c
		}
		l.Cards = cards
	}
	return l
}

func clamp(pos, n int) int {
	if pos < 0 {
		return 0
	}
	if pos > n {
		return n
	}
	return pos
}
