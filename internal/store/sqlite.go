package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"kanboard/internal/models"
	"kanboard/internal/ordered"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewSQLiteStore creates a new SQLite store with the given database path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateBoard creates a new board in the database.
func (s *SQLiteStore) CreateBoard(ctx context.Context, board *models.Board) error {
	now := time.Now()
	board.CreatedAt = now
	board.UpdatedAt = now

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO boards (name, created_at, updated_at) VALUES (?, ?, ?)
	`, board.Name, now, now)
	if err != nil {
		return fmt.Errorf("failed to create board: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	board.ID = id

	return nil
}

// GetBoard retrieves a board by ID.
func (s *SQLiteStore) GetBoard(ctx context.Context, id int64) (*models.Board, error) {
	board := &models.Board{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM boards WHERE id = ?
	`, id).Scan(&board.ID, &board.Name, &board.CreatedAt, &board.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("board %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return board, nil
}

// ListBoards retrieves all boards in creation order.
func (s *SQLiteStore) ListBoards(ctx context.Context) ([]models.Board, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at FROM boards ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	boards := []models.Board{}
	for rows.Next() {
		var board models.Board
		if err := rows.Scan(&board.ID, &board.Name, &board.CreatedAt, &board.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, board)
	}

	return boards, rows.Err()
}

// DeleteBoard deletes a board; its lists, cards and labels cascade.
func (s *SQLiteStore) DeleteBoard(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return expectAffected(result, "board", id)
}

// CreateList inserts a list at list.Position (clamped to the end of the
// board) and renumbers its siblings.
func (s *SQLiteStore) CreateList(ctx context.Context, list *models.List) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := requireBoard(ctx, tx, list.BoardID); err != nil {
			return err
		}

		ids, err := listOrder(ctx, tx, list.BoardID)
		if err != nil {
			return err
		}

		now := time.Now()
		result, err := tx.ExecContext(ctx, `
			INSERT INTO lists (board_id, title, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, list.BoardID, list.Title, len(ids), now, now)
		if err != nil {
			return fmt.Errorf("failed to create list: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		at := clamp(list.Position, len(ids))
		if err := writeListOrder(ctx, tx, ordered.Insert(ids, at, id)); err != nil {
			return err
		}

		list.ID = id
		list.Position = at
		list.CreatedAt = now
		list.UpdatedAt = now
		return nil
	})
}

// GetList retrieves a list by ID without its cards.
func (s *SQLiteStore) GetList(ctx context.Context, id int64) (*models.List, error) {
	return getList(ctx, s.db, id)
}

// ListListsByBoard retrieves the lists of a board ordered by position.
func (s *SQLiteStore) ListListsByBoard(ctx context.Context, boardID int64) ([]models.List, error) {
	if err := requireBoard(ctx, s.db, boardID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, board_id, title, position, created_at, updated_at
		FROM lists WHERE board_id = ? ORDER BY position ASC, id ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	lists := []models.List{}
	for rows.Next() {
		var list models.List
		if err := rows.Scan(&list.ID, &list.BoardID, &list.Title, &list.Position, &list.CreatedAt, &list.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, list)
	}

	return lists, rows.Err()
}

// UpdateList writes the title and position of a list as given.
func (s *SQLiteStore) UpdateList(ctx context.Context, list *models.List) error {
	list.UpdatedAt = time.Now()

	result, err := s.db.ExecContext(ctx, `
		UPDATE lists SET title = ?, position = ?, updated_at = ? WHERE id = ?
	`, list.Title, list.Position, list.UpdatedAt, list.ID)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	return expectAffected(result, "list", list.ID)
}

// DeleteList deletes a list with its cards and renumbers the remaining lists.
func (s *SQLiteStore) DeleteList(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		list, err := getList(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete list: %w", err)
		}

		ids, err := listOrder(ctx, tx, list.BoardID)
		if err != nil {
			return err
		}
		return writeListOrder(ctx, tx, ids)
	})
}

// CreateCard inserts a card at card.Position (clamped to the end of the list)
// and renumbers its siblings.
func (s *SQLiteStore) CreateCard(ctx context.Context, card *models.Card) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getList(ctx, tx, card.ListID); err != nil {
			return err
		}

		ids, err := cardOrder(ctx, tx, card.ListID)
		if err != nil {
			return err
		}

		now := time.Now()
		result, err := tx.ExecContext(ctx, `
			INSERT INTO cards (list_id, title, description, due_at, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, card.ListID, card.Title, card.Description, formatDue(card.DueDate), len(ids), now, now)
		if err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}

		card.Labels = models.NormalizeLabels(card.Labels)
		if err := setLabels(ctx, tx, id, card.Labels); err != nil {
			return err
		}

		at := clamp(card.Position, len(ids))
		if err := writeCardOrder(ctx, tx, card.ListID, ordered.Insert(ids, at, id)); err != nil {
			return err
		}

		card.ID = id
		card.Position = at
		card.CreatedAt = now
		card.UpdatedAt = now
		return nil
	})
}

// GetCard retrieves a card by ID.
func (s *SQLiteStore) GetCard(ctx context.Context, id int64) (*models.Card, error) {
	return getCard(ctx, s.db, id)
}

// ListCardsByList retrieves the cards of a list ordered by position.
func (s *SQLiteStore) ListCardsByList(ctx context.Context, listID int64) ([]models.Card, error) {
	if _, err := getList(ctx, s.db, listID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, list_id, title, description, due_at, position, created_at, updated_at
		FROM cards WHERE list_id = ? ORDER BY position ASC, id ASC
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	cards := []models.Card{}
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	labels, err := labelsByList(ctx, s.db, listID)
	if err != nil {
		return nil, err
	}
	for i := range cards {
		cards[i].Labels = append([]string{}, labels[cards[i].ID]...)
	}

	return cards, nil
}

// UpdateCard updates the editable fields of a card. Its list and position
// only change through MoveCard.
func (s *SQLiteStore) UpdateCard(ctx context.Context, card *models.Card) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		card.UpdatedAt = time.Now()

		result, err := tx.ExecContext(ctx, `
			UPDATE cards SET title = ?, description = ?, due_at = ?, updated_at = ? WHERE id = ?
		`, card.Title, card.Description, formatDue(card.DueDate), card.UpdatedAt, card.ID)
		if err != nil {
			return fmt.Errorf("failed to update card: %w", err)
		}
		if err := expectAffected(result, "card", card.ID); err != nil {
			return err
		}

		card.Labels = models.NormalizeLabels(card.Labels)
		return setLabels(ctx, tx, card.ID, card.Labels)
	})
}

// DeleteCard deletes a card and renumbers its former siblings.
func (s *SQLiteStore) DeleteCard(ctx context.Context, id int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		card, err := getCard(ctx, tx, id)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}

		ids, err := cardOrder(ctx, tx, card.ListID)
		if err != nil {
			return err
		}
		return writeCardOrder(ctx, tx, card.ListID, ids)
	})
}

// MoveCard moves a card to position in listID and renumbers the source and
// destination lists. A nil position appends; out-of-range positions are
// clamped.
func (s *SQLiteStore) MoveCard(ctx context.Context, id, listID int64, position *int) (*models.Card, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		card, err := getCard(ctx, tx, id)
		if err != nil {
			return err
		}
		src, err := getList(ctx, tx, card.ListID)
		if err != nil {
			return err
		}
		dst, err := getList(ctx, tx, listID)
		if err != nil {
			return err
		}
		if src.BoardID != dst.BoardID {
			return ErrCrossBoardMove
		}

		srcIDs, err := cardOrder(ctx, tx, src.ID)
		if err != nil {
			return err
		}
		from := indexOf(srcIDs, id)

		if src.ID == dst.ID {
			to := len(srcIDs) - 1
			if position != nil {
				to = clamp(*position, len(srcIDs)-1)
			}
			return writeCardOrder(ctx, tx, src.ID, ordered.Reorder(srcIDs, from, to))
		}

		dstIDs, err := cardOrder(ctx, tx, dst.ID)
		if err != nil {
			return err
		}
		to := len(dstIDs)
		if position != nil {
			to = clamp(*position, len(dstIDs))
		}
		newSrc, newDst := ordered.Relocate(srcIDs, dstIDs, from, to)
		if err := writeCardOrder(ctx, tx, src.ID, newSrc); err != nil {
			return err
		}
		return writeCardOrder(ctx, tx, dst.ID, newDst)
	})
	if err != nil {
		return nil, err
	}
	return s.GetCard(ctx, id)
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func requireBoard(ctx context.Context, q querier, id int64) error {
	var found int64
	err := q.QueryRowContext(ctx, `SELECT id FROM boards WHERE id = ?`, id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("board %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to get board: %w", err)
	}
	return nil
}

func getList(ctx context.Context, q querier, id int64) (*models.List, error) {
	list := &models.List{}
	err := q.QueryRowContext(ctx, `
		SELECT id, board_id, title, position, created_at, updated_at FROM lists WHERE id = ?
	`, id).Scan(&list.ID, &list.BoardID, &list.Title, &list.Position, &list.CreatedAt, &list.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("list %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return list, nil
}

func getCard(ctx context.Context, q querier, id int64) (*models.Card, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, list_id, title, description, due_at, position, created_at, updated_at
		FROM cards WHERE id = ?
	`, id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %d: %w", id, ErrNotFound)
		}
		return nil, err
	}

	rows, err := q.QueryContext(ctx, `SELECT label FROM card_labels WHERE card_id = ? ORDER BY label`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get labels: %w", err)
	}
	defer rows.Close()

	card.Labels = []string{}
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		card.Labels = append(card.Labels, label)
	}
	return card, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (*models.Card, error) {
	card := &models.Card{}
	var dueAt sql.NullString

	err := row.Scan(
		&card.ID,
		&card.ListID,
		&card.Title,
		&card.Description,
		&dueAt,
		&card.Position,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan card: %w", err)
	}

	if dueAt.Valid && dueAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, dueAt.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse due date of card %d: %w", card.ID, err)
		}
		card.DueDate = &t
	}

	return card, nil
}

func labelsByList(ctx context.Context, q querier, listID int64) (map[int64][]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.card_id, l.label FROM card_labels l
		JOIN cards c ON c.id = l.card_id
		WHERE c.list_id = ? ORDER BY l.card_id, l.label
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	labels := make(map[int64][]string)
	for rows.Next() {
		var cardID int64
		var label string
		if err := rows.Scan(&cardID, &label); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels[cardID] = append(labels[cardID], label)
	}
	return labels, rows.Err()
}

func setLabels(ctx context.Context, tx *sql.Tx, cardID int64, labels []string) error {
	if err := models.ValidateLabels(labels); err != nil {
		return fmt.Errorf("invalid labels: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM card_labels WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("failed to clear labels: %w", err)
	}
	for _, label := range labels {
		if _, err := tx.ExecContext(ctx, `INSERT INTO card_labels (card_id, label) VALUES (?, ?)`, cardID, label); err != nil {
			return fmt.Errorf("failed to insert label: %w", err)
		}
	}
	return nil
}

func listOrder(ctx context.Context, q querier, boardID int64) ([]int64, error) {
	return idOrder(ctx, q, `SELECT id FROM lists WHERE board_id = ? ORDER BY position ASC, id ASC`, boardID)
}

func cardOrder(ctx context.Context, q querier, listID int64) ([]int64, error) {
	return idOrder(ctx, q, `SELECT id FROM cards WHERE list_id = ? ORDER BY position ASC, id ASC`, listID)
}

func idOrder(ctx context.Context, q querier, query string, parentID int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read sibling order: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan sibling id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// writeListOrder assigns dense positions to lists in the order of ids.
func writeListOrder(ctx context.Context, tx *sql.Tx, ids []int64) error {
	stmt, err := tx.PrepareContext(ctx, `UPDATE lists SET position = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, i, id); err != nil {
			return fmt.Errorf("failed to update list position: %w", err)
		}
	}
	return nil
}

// writeCardOrder assigns listID and dense positions to cards in the order
// of ids.
func writeCardOrder(ctx context.Context, tx *sql.Tx, listID int64, ids []int64) error {
	stmt, err := tx.PrepareContext(ctx, `UPDATE cards SET list_id = ?, position = ?, updated_at = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, id := range ids {
		if _, err := stmt.ExecContext(ctx, listID, i, now, id); err != nil {
			return fmt.Errorf("failed to update card position: %w", err)
		}
	}
	return nil
}

func expectAffected(result sql.Result, kind string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}

func formatDue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func indexOf(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func clamp(pos, hi int) int {
	if pos < 0 {
		return 0
	}
	if pos > hi {
		return hi
	}
	return pos
}
