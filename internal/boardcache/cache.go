// Package boardcache holds the in-memory tree of the one open board.
//
// Snapshot values are immutable; Cache is the single mutable holder and is
// written only by its owner (the reconcile controller). Load is the sole
// path that establishes ground truth from the backend.
package boardcache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"kanboard/internal/models"
)

var (
	// ErrMalformedResponse marks backend data that fails schema validation.
	ErrMalformedResponse = errors.New("malformed backend response")
	// ErrSupersededLoad is returned by a load that finished after a newer one.
	ErrSupersededLoad = errors.New("load superseded by a newer load")
)

// maxConcurrentFetches bounds the per-list card requests issued by Load.
const maxConcurrentFetches = 8

// Fetcher reads board contents from the backend.
type Fetcher interface {
	ListLists(ctx context.Context, boardID int64) ([]models.List, error)
	ListCards(ctx context.Context, listID int64) ([]models.Card, error)
}

// Checkpoint is a snapshot captured before an optimistic mutation together
// with the load epoch it was taken in.
type Checkpoint struct {
	snap  Snapshot
	epoch uint64
}

// Snapshot returns the captured board state.
func (cp Checkpoint) Snapshot() Snapshot { return cp.snap }

// Cache holds the current snapshot of the open board.
type Cache struct {
	fetcher Fetcher

	mu        sync.RWMutex
	current   Snapshot
	epoch     uint64 // bumped whenever a load installs or clears state
	issued    uint64 // load tickets handed out
	installed uint64 // ticket of the newest load that completed
}

// New creates an empty cache reading from f.
func New(f Fetcher) *Cache {
	return &Cache{fetcher: f}
}

// Current returns the snapshot the UI should render.
func (c *Cache) Current() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Epoch returns the load epoch of the current state.
func (c *Cache) Epoch() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.epoch
}

// Replace installs s as the current state.
func (c *Cache) Replace(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = s
}

// Checkpoint captures the current state.
func (c *Cache) Checkpoint() Checkpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Checkpoint{snap: c.current, epoch: c.epoch}
}

// Restore reinstates cp. If a load has installed since cp was taken the
// loaded state wins, nothing changes and Restore returns false.
func (c *Cache) Restore(cp Checkpoint) bool {
	return c.Swap(cp, cp.snap)
}

// Swap installs s unless a load has installed since cp was taken.
func (c *Cache) Swap(cp Checkpoint, s Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != cp.epoch {
		return false
	}
	c.current = s
	return true
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = Snapshot{}
	c.epoch++
}

// Load fetches the lists of boardID and the cards of every list, validates
// them, and replaces the cache wholesale. The newest load wins: a load that
// completes after a later-started load has installed returns
// ErrSupersededLoad and leaves the cache alone. A failed load that is still
// the newest leaves the cache empty.
func (c *Cache) Load(ctx context.Context, boardID int64) (Snapshot, error) {
	c.mu.Lock()
	c.issued++
	ticket := c.issued
	c.mu.Unlock()

	snap, err := fetch(ctx, c.fetcher, boardID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if ticket < c.installed {
		return c.current, ErrSupersededLoad
	}
	c.installed = ticket
	c.epoch++
	if err != nil {
		c.current = Snapshot{}
		return Snapshot{}, err
	}
	c.current = snap
	return snap, nil
}

func fetch(ctx context.Context, f Fetcher, boardID int64) (Snapshot, error) {
	lists, err := f.ListLists(ctx, boardID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch lists: %w", err)
	}

	listIDs := make(map[int64]struct{}, len(lists))
	for i := range lists {
		l := &lists[i]
		if err := l.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("%w: list %d: %v", ErrMalformedResponse, l.ID, err)
		}
		if l.ID <= 0 {
			return Snapshot{}, fmt.Errorf("%w: list without id", ErrMalformedResponse)
		}
		if l.BoardID != boardID {
			return Snapshot{}, fmt.Errorf("%w: list %d belongs to board %d", ErrMalformedResponse, l.ID, l.BoardID)
		}
		if _, dup := listIDs[l.ID]; dup {
			return Snapshot{}, fmt.Errorf("%w: duplicate list %d", ErrMalformedResponse, l.ID)
		}
		listIDs[l.ID] = struct{}{}
	}

	cards := make([][]models.Card, len(lists))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for i := range lists {
		g.Go(func() error {
			cs, err := f.ListCards(gctx, lists[i].ID)
			if err != nil {
				return fmt.Errorf("failed to fetch cards of list %d: %w", lists[i].ID, err)
			}
			cards[i] = cs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	cardIDs := make(map[int64]struct{})
	for i := range lists {
		for j := range cards[i] {
			card := &cards[i][j]
			if err := card.Validate(); err != nil {
				return Snapshot{}, fmt.Errorf("%w: card %d: %v", ErrMalformedResponse, card.ID, err)
			}
			if card.ID <= 0 {
				return Snapshot{}, fmt.Errorf("%w: card without id", ErrMalformedResponse)
			}
			if card.ListID != lists[i].ID {
				return Snapshot{}, fmt.Errorf("%w: card %d listed under list %d but owned by %d", ErrMalformedResponse, card.ID, lists[i].ID, card.ListID)
			}
			if _, dup := cardIDs[card.ID]; dup {
				return Snapshot{}, fmt.Errorf("%w: duplicate card %d", ErrMalformedResponse, card.ID)
			}
			cardIDs[card.ID] = struct{}{}
			card.Labels = models.NormalizeLabels(card.Labels)
		}
		lists[i].Cards = cards[i]
		if lists[i].Cards == nil {
			lists[i].Cards = []models.Card{}
		}
	}

	return NewSnapshot(boardID, lists), nil
}
