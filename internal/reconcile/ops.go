package reconcile

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"kanboard/internal/boardcache"
	"kanboard/internal/models"
	"kanboard/internal/move"
)

// Move applies a drag event. Stale events are rejected with a warning and
// leave the cache untouched; dropping an item where it started issues no
// backend call. A failed save restores the board as it was before the drag.
func (c *Controller) Move(ctx context.Context, ev move.Event) error {
	var plan move.Result

	err := c.run(ctx, change{
		op: "move " + ev.Kind.String(),
		apply: func(board boardcache.Snapshot) (boardcache.Snapshot, error) {
			res, err := move.Plan(board, ev)
			if err != nil {
				return board, err
			}
			if res.Noop {
				return board, errNoChange
			}
			plan = res
			return res.Board, nil
		},
		persist: func(ctx context.Context) (patch, error) {
			if plan.Card != nil {
				_, err := c.backend.MoveCard(ctx, plan.Card.CardID, plan.Card.ListID, plan.Card.Position)
				return nil, err
			}
			return nil, c.saveListPositions(ctx, plan.Lists)
		},
	})

	switch {
	case errors.Is(err, move.ErrStaleIndex):
		c.log.WithField("event", ev.String()).Warn("stale move rejected")
		c.notify.Warn("move", "the board changed during the drag, nothing was moved")
	case errors.Is(err, move.ErrMalformedEvent):
		c.log.WithError(err).WithField("event", ev.String()).Error("malformed move event")
	}
	return err
}

// saveListPositions issues one update per list concurrently and waits for
// all of them to settle.
func (c *Controller) saveListPositions(ctx context.Context, lists []move.ListPosition) error {
	var g errgroup.Group
	for _, lp := range lists {
		title, position := lp.Title, lp.Position
		id := lp.ListID
		g.Go(func() error {
			_, err := c.backend.UpdateList(ctx, id, models.ListUpdate{Title: &title, Position: &position})
			return err
		})
	}
	return g.Wait()
}

// CreateList appends a list to the open board. The list is shown at once
// under a provisional id that is replaced by the backend's on success.
func (c *Controller) CreateList(ctx context.Context, title string) (models.List, error) {
	title = strings.TrimSpace(title)
	if err := (models.ListInput{Title: title}).Validate(); err != nil {
		return models.List{}, err
	}

	var created models.List
	provisional := models.List{ID: c.tempID(), Title: title, Cards: []models.Card{}}

	err := c.run(ctx, change{
		op:     "create list",
		reload: true,
		apply: func(board boardcache.Snapshot) (boardcache.Snapshot, error) {
			provisional.BoardID = board.BoardID()
			provisional.Position = board.Len()
			return board.AddList(provisional), nil
		},
		persist: func(ctx context.Context) (patch, error) {
			l, err := c.backend.CreateList(ctx, provisional.BoardID, title, provisional.Position)
			if err != nil {
				return nil, err
			}
			created = *l
			return func(s boardcache.Snapshot) (boardcache.Snapshot, error) {
				return s.ReplaceList(provisional.ID, created)
			}, nil
		},
	})
	if err != nil {
		return models.List{}, err
	}
	return created, nil
}

// RenameList changes the title of a list.
func (c *Controller) RenameList(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	update := models.ListUpdate{Title: &title}
	if err := update.Validate(); err != nil {
		return err
	}

	return c.run(ctx, change{
		op: "rename list",
		apply: func(board boardcache.Snapshot) (boardcache.Snapshot, error) {
			return board.RenameList(id, title)
		},
		persist: func(ctx context.Context) (patch, error) {
			_, err := c.backend.UpdateList(ctx, id, update)
			return nil, err
		},
	})
}

// DeleteList removes a list and its cards.
func (c *Controller) DeleteList(ctx context.Context, id int64) error {
	return c.run(ctx, change{
		op:     "delete list",
		reload: true,
		apply: func(board boardcache.Snapshot) (boardcache.Snapshot, error) {
			return board.RemoveList(id)
		},
		persist: func(ctx context.Context) (patch, error) {
			return nil, c.backend.DeleteList(ctx, id)
		},
	})
}

// CreateCard appends a card to a list of the open board.
func (c *Controller) CreateCard(ctx context.Context, listID int64, title string) (models.Card, error) {
	title = strings.TrimSpace(title)
	if err := (models.CardInput{Title: title}).Validate(); err != nil {
		return models.Card{}, err
	}

	var created models.Card
	provisional := models.Card{ID: c.tempID(), ListID: listID, Title: title, Labels: []string{}}

	err := c.run(ctx, change{
		op:     "create card",
		reload: true,
		apply: func(board boardcache.Snapshot) (boardcache.Snapshot, error) {
			list, _, ok := board.List(listID)
			if !ok {
				return board, boardcache.ErrListNotFound
			}
			provisional.Position = len(list.Cards)
			return board.AddCard(provisional)
		},
		persist: func(ctx context.Context) (patch, error) {
			card, err := c.backend.CreateCard(ctx, listID, title, provisional.Position)
			if err != nil {
				return nil, err
			}
			created = *card
			return func(s boardcache.Snapshot) (boardcache.Snapshot, error) {
				return s.ReplaceCard(provisional.ID, created)
			}, nil
		},
	})
	if err != nil {
		return models.Card{}, err
	}
	return created, nil
}

// EditCard updates the editable fields of a card.
func (c *Controller) EditCard(ctx context.Context, id int64, update models.CardUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}

	return c.run(ctx, change{
		op: "edit card",
		apply: func(board boardcache.Snapshot) (boardcache.Snapshot, error) {
			return board.EditCard(id, update)
		},
		persist: func(ctx context.Context) (patch, error) {
			card, err := c.backend.UpdateCard(ctx, id, update)
			if err != nil {
				return nil, err
			}
			return func(s boardcache.Snapshot) (boardcache.Snapshot, error) {
				return s.ReplaceCard(id, *card)
			}, nil
		},
	})
}

// DeleteCard removes a card.
func (c *Controller) DeleteCard(ctx context.Context, id int64) error {
	return c.run(ctx, change{
		op:     "delete card",
		reload: true,
		apply: func(board boardcache.Snapshot) (boardcache.Snapshot, error) {
			return board.RemoveCard(id)
		},
		persist: func(ctx context.Context) (patch, error) {
			return nil, c.backend.DeleteCard(ctx, id)
		},
	})
}
