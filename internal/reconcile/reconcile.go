// Package reconcile applies board mutations optimistically and reconciles
// them with the backend.
//
// Every mutation runs the same transaction: checkpoint the cache, install
// the new state, persist, then commit or recover. Moves, renames and edits
// recover by restoring the checkpoint. Creates and deletes recover with a
// full reload because the identity of the affected entity is not known
// locally. Only one mutation may be in flight at a time.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"kanboard/internal/boardcache"
	"kanboard/internal/models"
)

var (
	// ErrBusy is returned when a mutation starts while another is in flight.
	ErrBusy = errors.New("another change is still being saved")
	// ErrLoadFailed wraps errors from opening or reloading a board.
	ErrLoadFailed = errors.New("failed to load board")
	// ErrBoardChanged is returned when the board was reloaded between the
	// checkpoint and the optimistic apply. Nothing was applied.
	ErrBoardChanged = errors.New("board changed before the change was applied")
	// ErrNoBoard is returned by mutations when no board is open.
	ErrNoBoard = errors.New("no board is open")
)

// State is a step of the per-mutation state machine.
type State int

const (
	Idle State = iota
	Applying
	Persisting
	Committed
	RolledBack
	Reloaded
	// Aborted marks a mutation rejected before anything was installed.
	Aborted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Applying:
		return "applying"
	case Persisting:
		return "persisting"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	case Reloaded:
		return "reloaded"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Backend is the board API the controller persists to.
type Backend interface {
	boardcache.Fetcher
	CreateList(ctx context.Context, boardID int64, title string, position int) (*models.List, error)
	UpdateList(ctx context.Context, id int64, update models.ListUpdate) (*models.List, error)
	DeleteList(ctx context.Context, id int64) error
	CreateCard(ctx context.Context, listID int64, title string, position int) (*models.Card, error)
	UpdateCard(ctx context.Context, id int64, update models.CardUpdate) (*models.Card, error)
	DeleteCard(ctx context.Context, id int64) error
	MoveCard(ctx context.Context, id, newListID int64, position int) (*models.Card, error)
}

// Notifier surfaces recoverable failures to the user.
type Notifier interface {
	Error(op string, err error)
	Warn(op, msg string)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Error(string, error) {}
func (NopNotifier) Warn(string, string) {}

// MutationError reports a mutation whose persistence failed and how the
// cache was recovered.
type MutationError struct {
	ID       string
	Op       string
	Recovery State
	Err      error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s failed (%s): %v", e.Op, e.Recovery, e.Err)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Mutation records the states one mutation passed through.
type Mutation struct {
	ID     string
	Op     string
	States []State
}

// State returns the last state reached.
func (m Mutation) State() State {
	if len(m.States) == 0 {
		return Idle
	}
	return m.States[len(m.States)-1]
}

// Controller is the sole writer of the board cache.
type Controller struct {
	backend Backend
	cache   *boardcache.Cache
	notify  Notifier
	log     *logrus.Entry

	mu       sync.Mutex
	inflight *Mutation
	last     Mutation
	nextTemp int64
}

// New creates a controller persisting to backend. A nil notifier discards
// notifications and a nil logger uses the logrus standard logger.
func New(backend Backend, notify Notifier, logger *logrus.Logger) *Controller {
	if notify == nil {
		notify = NopNotifier{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Controller{
		backend: backend,
		cache:   boardcache.New(backend),
		notify:  notify,
		log:     logger.WithField("component", "reconcile"),
	}
}

// Board returns the current state of the open board.
func (c *Controller) Board() boardcache.Snapshot {
	return c.cache.Current()
}

// LastMutation returns the most recently finished mutation.
func (c *Controller) LastMutation() Mutation {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.last
	m.States = append([]State(nil), m.States...)
	return m
}

// Open loads boardID into the cache, replacing whatever was open. Open is
// never blocked by an in-flight mutation; the newest load wins.
func (c *Controller) Open(ctx context.Context, boardID int64) (boardcache.Snapshot, error) {
	log := c.log.WithField("board", boardID)

	snap, err := c.cache.Load(ctx, boardID)
	if errors.Is(err, boardcache.ErrSupersededLoad) {
		log.Debug("load superseded by a newer load")
		return snap, nil
	}
	if err != nil {
		err = fmt.Errorf("%w %d: %w", ErrLoadFailed, boardID, err)
		log.WithError(err).Error("board load failed")
		c.notify.Error("open", err)
		return boardcache.Snapshot{}, err
	}

	log.WithField("lists", snap.Len()).Debug("board loaded")
	return snap, nil
}

// begin claims the single mutation slot.
func (c *Controller) begin(op string) (*Mutation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight != nil {
		c.log.WithFields(logrus.Fields{
			"op":      op,
			"pending": c.inflight.Op,
		}).Warn("mutation rejected while another is in flight")
		c.notify.Warn(op, ErrBusy.Error())
		return nil, ErrBusy
	}
	m := &Mutation{ID: uuid.NewString(), Op: op, States: []State{Idle}}
	c.inflight = m
	return m, nil
}

func (c *Controller) transition(m *Mutation, s State) {
	c.mu.Lock()
	m.States = append(m.States, s)
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{
		"mutation": m.ID,
		"op":       m.Op,
		"board":    c.cache.Current().BoardID(),
		"state":    s.String(),
	}).Debug("mutation state")
}

// end releases the slot.
func (c *Controller) end(m *Mutation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = *m
	c.inflight = nil
}

// tempID returns a provisional id for an entity the backend has not
// created yet. Provisional ids are negative and never reused.
func (c *Controller) tempID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextTemp--
	return c.nextTemp
}

// errNoChange is returned by apply when there is nothing to persist.
var errNoChange = errors.New("no change")

// patch rewrites the committed state, e.g. to swap provisional entities for
// the ones the backend returned.
type patch func(boardcache.Snapshot) (boardcache.Snapshot, error)

// change is one optimistic mutation.
type change struct {
	op string
	// apply computes the optimistic state from the checkpoint.
	apply func(boardcache.Snapshot) (boardcache.Snapshot, error)
	// persist issues the backend calls. The returned patch, if any, is
	// applied to the cache on success.
	persist func(ctx context.Context) (patch, error)
	// reload selects recovery by full reload instead of checkpoint restore.
	reload bool
}

// run executes ch through the state machine. apply errors abort before
// anything is installed and are returned as is; errNoChange commits
// without persisting.
func (c *Controller) run(ctx context.Context, ch change) error {
	m, err := c.begin(ch.op)
	if err != nil {
		return err
	}
	defer c.end(m)

	log := c.log.WithFields(logrus.Fields{"mutation": m.ID, "op": m.Op})

	cp := c.cache.Checkpoint()
	board := cp.Snapshot()
	if board.BoardID() == 0 {
		return ErrNoBoard
	}

	c.transition(m, Applying)
	next, err := ch.apply(board)
	if errors.Is(err, errNoChange) {
		c.transition(m, Committed)
		return nil
	}
	if err != nil {
		c.transition(m, Aborted)
		return err
	}
	if !c.cache.Swap(cp, next) {
		// A load landed between the checkpoint and the apply.
		c.transition(m, Aborted)
		log.Warn("board reloaded before the change was applied")
		c.notify.Warn(ch.op, "board changed, try again")
		return ErrBoardChanged
	}

	c.transition(m, Persisting)
	fix, err := ch.persist(ctx)
	if err != nil {
		return c.fail(ctx, m, cp, board.BoardID(), ch.reload, err)
	}

	if fix != nil {
		cur := c.cache.Checkpoint()
		patched, perr := fix(cur.Snapshot())
		switch {
		case perr != nil:
			log.WithError(perr).Warn("committed change no longer in cache")
		case !c.cache.Swap(cur, patched):
			log.Debug("board reloaded before the change was patched")
		}
	}

	c.transition(m, Committed)
	log.Info("mutation committed")
	return nil
}

func (c *Controller) fail(ctx context.Context, m *Mutation, cp boardcache.Checkpoint, boardID int64, reload bool, cause error) error {
	log := c.log.WithFields(logrus.Fields{"mutation": m.ID, "op": m.Op}).WithError(cause)

	recovery := RolledBack
	if reload {
		recovery = Reloaded
		if _, err := c.Open(ctx, boardID); err != nil {
			log.WithField("reload_error", err).Error("reload after failed mutation failed")
		}
	} else if !c.cache.Restore(cp) {
		log.Info("board reloaded while persisting, keeping loaded state")
	}

	c.transition(m, recovery)
	log.WithField("recovery", recovery.String()).Error("mutation failed")

	merr := &MutationError{ID: m.ID, Op: m.Op, Recovery: recovery, Err: cause}
	c.notify.Error(m.Op, merr)
	return merr
}
