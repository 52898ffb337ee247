package commands

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanboard/internal/api"
	"kanboard/internal/models"
)

func id(v int64) string { return strconv.FormatInt(v, 10) }

func cardTitlesOf(t *testing.T, client *api.Client, listID int64) []string {
	t.Helper()
	cards, err := client.ListCards(context.Background(), listID)
	require.NoError(t, err)
	titles := make([]string, len(cards))
	for i, c := range cards {
		titles[i] = c.Title
	}
	return titles
}

// seedBoard creates a board with lists Todo and Done and cards A, B, C in Todo.
func seedBoard(t *testing.T, client *api.Client) (models.Board, models.List, models.List, []models.Card) {
	t.Helper()
	ctx := context.Background()

	board, err := client.CreateBoard(ctx, "Sprint")
	require.NoError(t, err)
	todo, err := client.CreateList(ctx, board.ID, "Todo", 0)
	require.NoError(t, err)
	done, err := client.CreateList(ctx, board.ID, "Done", 1)
	require.NoError(t, err)

	var cards []models.Card
	for i, title := range []string{"A", "B", "C"} {
		c, err := client.CreateCard(ctx, todo.ID, title, i)
		require.NoError(t, err)
		cards = append(cards, *c)
	}
	return *board, *todo, *done, cards
}

func TestBoardCommands(t *testing.T) {
	srv, client := startServer(t)

	out, _, err := execute(t, "--server", srv.URL, "boards")
	require.NoError(t, err)
	assert.Contains(t, out, "No boards yet.")

	out, _, err = execute(t, "--server", srv.URL, "board", "create", "Q4", "Roadmap")
	require.NoError(t, err)
	assert.Contains(t, out, `Created board "Q4 Roadmap"`)

	boards, err := client.ListBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)

	out, _, err = execute(t, "--server", srv.URL, "boards")
	require.NoError(t, err)
	assert.Contains(t, out, "Q4 Roadmap")

	out, _, err = execute(t, "--server", srv.URL, "board", "delete", id(boards[0].ID))
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted board")

	_, errOut, err := execute(t, "--server", srv.URL, "board", "delete", id(boards[0].ID))
	require.Error(t, err)
	assert.Contains(t, errOut, "404")
}

func TestShowCommand(t *testing.T) {
	srv, client := startServer(t)
	board, todo, done, cards := seedBoard(t, client)

	out, _, err := execute(t, "--server", srv.URL, "show", id(board.ID))
	require.NoError(t, err)
	assert.Contains(t, out, fmt.Sprintf("Sprint (board %d)", board.ID))
	assert.Contains(t, out, fmt.Sprintf("[0] Todo #%d", todo.ID))
	assert.Contains(t, out, fmt.Sprintf("[1] Done #%d", done.ID))
	assert.Contains(t, out, fmt.Sprintf("   2. C #%d", cards[2].ID))

	_, errOut, err := execute(t, "--server", srv.URL, "show", "999")
	require.Error(t, err)
	assert.Contains(t, errOut, "Board 999 not found")
}

func TestMoveCardCommand(t *testing.T) {
	srv, client := startServer(t)
	board, todo, done, cards := seedBoard(t, client)

	// Within the list.
	_, _, err := execute(t, "--server", srv.URL, "move", "card", id(board.ID), id(cards[0].ID), id(todo.ID), "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "C", "A"}, cardTitlesOf(t, client, todo.ID))

	// Across lists, appended after the last card.
	out, _, err := execute(t, "--server", srv.URL, "move", "card", id(board.ID), id(cards[1].ID), id(done.ID), "0")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved card")
	assert.Equal(t, []string{"C", "A"}, cardTitlesOf(t, client, todo.ID))
	assert.Equal(t, []string{"B"}, cardTitlesOf(t, client, done.ID))

	_, errOut, err := execute(t, "--server", srv.URL, "move", "card", id(board.ID), id(cards[2].ID), id(todo.ID), "2")
	require.Error(t, err)
	assert.Contains(t, errOut, "Index out of range")
	assert.Equal(t, []string{"C", "A"}, cardTitlesOf(t, client, todo.ID))

	_, errOut, err = execute(t, "--server", srv.URL, "move", "card", id(board.ID), "999", id(todo.ID), "0")
	require.Error(t, err)
	assert.Contains(t, errOut, "Card 999 is not on board")
}

func TestMoveListCommand(t *testing.T) {
	srv, client := startServer(t)
	board, todo, done, _ := seedBoard(t, client)

	_, _, err := execute(t, "--server", srv.URL, "move", "list", id(board.ID), id(done.ID), "0")
	require.NoError(t, err)

	lists, err := client.ListLists(context.Background(), board.ID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, done.ID, lists[0].ID)
	assert.Equal(t, todo.ID, lists[1].ID)
	assert.Equal(t, 1, lists[1].Position)

	_, errOut, err := execute(t, "--server", srv.URL, "move", "list", id(board.ID), id(done.ID), "5")
	require.Error(t, err)
	assert.Contains(t, errOut, "Index out of range")
}

func TestListCommands(t *testing.T) {
	srv, client := startServer(t)
	board, todo, _, _ := seedBoard(t, client)
	ctx := context.Background()

	out, _, err := execute(t, "--server", srv.URL, "list", "add", id(board.ID), "In", "review")
	require.NoError(t, err)
	assert.Contains(t, out, `Added list "In review"`)
	assert.Contains(t, out, "at index 2")

	_, _, err = execute(t, "--server", srv.URL, "list", "rename", id(board.ID), id(todo.ID), "Backlog")
	require.NoError(t, err)

	_, errOut, err := execute(t, "--server", srv.URL, "list", "rename", id(board.ID), id(todo.ID), " ")
	require.Error(t, err)
	assert.Contains(t, errOut, "title")

	_, _, err = execute(t, "--server", srv.URL, "list", "delete", id(board.ID), id(todo.ID))
	require.NoError(t, err)

	lists, err := client.ListLists(ctx, board.ID)
	require.NoError(t, err)
	require.Len(t, lists, 2)
	assert.Equal(t, "Done", lists[0].Title)
	assert.Equal(t, 0, lists[0].Position)
	assert.Equal(t, "In review", lists[1].Title)
	assert.Equal(t, 1, lists[1].Position)
}

func TestCardCommands(t *testing.T) {
	srv, client := startServer(t)
	board, todo, _, cards := seedBoard(t, client)
	ctx := context.Background()

	out, _, err := execute(t, "--server", srv.URL, "card", "add", id(board.ID), id(todo.ID), "Write docs",
		"--description", "user guide", "--due", "2026-11-02", "--labels", "docs, release")
	require.NoError(t, err)
	assert.Contains(t, out, `Added card "Write docs"`)

	got, err := client.ListCards(ctx, todo.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)
	added := got[3]
	assert.Equal(t, "Write docs", added.Title)
	assert.Equal(t, "user guide", added.Description)
	assert.Equal(t, []string{"docs", "release"}, added.Labels)
	require.NotNil(t, added.DueDate)
	assert.Equal(t, "2026-11-02", added.DueDate.Format("2006-01-02"))

	// Flags from the previous run must not carry over.
	_, _, err = execute(t, "--server", srv.URL, "card", "add", id(board.ID), id(todo.ID), "Plain")
	require.NoError(t, err)
	got, err = client.ListCards(ctx, todo.ID)
	require.NoError(t, err)
	assert.Empty(t, got[4].Labels)
	assert.Empty(t, got[4].Description)

	_, _, err = execute(t, "--server", srv.URL, "card", "edit", id(board.ID), id(cards[0].ID), "--title", "A2", "--labels", "bug")
	require.NoError(t, err)
	_, _, err = execute(t, "--server", srv.URL, "card", "edit", id(board.ID), id(added.ID), "--clear-labels")
	require.NoError(t, err)

	_, errOut, err := execute(t, "--server", srv.URL, "card", "edit", id(board.ID), id(cards[0].ID))
	require.Error(t, err)
	assert.Contains(t, errOut, "Nothing to change")

	_, errOut, err = execute(t, "--server", srv.URL, "card", "edit", id(board.ID), id(cards[0].ID), "--due", "next week")
	require.Error(t, err)
	assert.Contains(t, errOut, "invalid due date")

	_, _, err = execute(t, "--server", srv.URL, "card", "delete", id(board.ID), id(cards[1].ID))
	require.NoError(t, err)

	got, err = client.ListCards(ctx, todo.ID)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "A2", got[0].Title)
	assert.Equal(t, []string{"bug"}, got[0].Labels)
	assert.Equal(t, "C", got[1].Title)
	assert.Equal(t, 1, got[1].Position)
	assert.Empty(t, got[2].Labels)
}

func TestCommands_ServerUnavailable(t *testing.T) {
	srv, client := startServer(t)
	board, _, _, _ := seedBoard(t, client)
	srv.Close()

	_, errOut, err := execute(t, "--server", srv.URL, "show", id(board.ID))
	require.Error(t, err)
	assert.Contains(t, errOut, "Failed to list boards")
}

func TestParseDueAndLabels(t *testing.T) {
	d, err := parseDue("2026-11-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-11-02T00:00:00Z", d.Format("2006-01-02T15:04:05Z07:00"))

	d, err = parseDue("2026-11-02T15:04:05+02:00")
	require.NoError(t, err)
	assert.Equal(t, 13, d.Hour())

	_, err = parseDue("tomorrow")
	assert.Error(t, err)

	assert.Equal(t, []string{"a", "b"}, splitLabels(" a, ,b "))
	assert.Equal(t, []string{}, splitLabels(""))
}
