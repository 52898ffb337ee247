package printer

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kanboard/internal/boardcache"
	"kanboard/internal/models"
)

func newTestPrinter() (*Printer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	return New(out, errOut, true), out, errOut
}

func TestFail(t *testing.T) {
	t.Run("returns error with title", func(t *testing.T) {
		p, _, errOut := newTestPrinter()
		err := p.Fail("Test Error", "This is a test error", nil)
		require.Error(t, err)
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "This is a test error")
	})

	t.Run("numbers multiple suggestions", func(t *testing.T) {
		p, _, errOut := newTestPrinter()
		err := p.Fail("Test Error", "Explanation", []string{"First option", "Second option"})
		require.Equal(t, "Test Error", err.Error())
		assert.Contains(t, errOut.String(), "Either:\n  1. First option\n  2. Second option\n")
	})
}

func TestNotifier(t *testing.T) {
	p, out, errOut := newTestPrinter()

	p.Error("move card", errors.New("PUT /cards/1/move: 500 boom"))
	p.Warn("rename list", "another change is still being saved")

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "✗ move card: PUT /cards/1/move: 500 boom\n")
	assert.Contains(t, errOut.String(), "rename list: another change is still being saved")
}

func TestSuccessPrefix(t *testing.T) {
	p, out, _ := newTestPrinter()

	p.Success("created %s", "board")
	p.Success("✓ already prefixed")

	assert.Equal(t, "✓ created board\n✓ already prefixed\n", out.String())
}

func TestBoards(t *testing.T) {
	p, out, _ := newTestPrinter()

	p.Boards(nil)
	assert.Contains(t, out.String(), "No boards yet.")

	out.Reset()
	p.Boards([]models.Board{{ID: 3, Name: "Roadmap"}})
	assert.Equal(t, "   3  Roadmap\n", out.String())
}

func TestBoard(t *testing.T) {
	p, out, _ := newTestPrinter()

	past := time.Now().Add(-48 * time.Hour)
	snap := boardcache.NewSnapshot(7, []models.List{
		{ID: 2, BoardID: 7, Title: "Done", Position: 1, Cards: []models.Card{}},
		{ID: 1, BoardID: 7, Title: "Todo", Position: 0, Cards: []models.Card{
			{ID: 11, ListID: 1, Title: "Write docs", Position: 0, Labels: []string{"docs"}, DueDate: &past},
		}},
	})

	p.Board("Roadmap", snap)

	got := out.String()
	assert.Contains(t, got, "Roadmap (board 7)")
	assert.Contains(t, got, "[0] Todo #1")
	assert.Contains(t, got, "   0. Write docs #11 [docs] due "+past.Format("2006-01-02"))
	assert.Contains(t, got, "[1] Done #2\n    (empty)")
	assert.Less(t, bytes.Index(out.Bytes(), []byte("Todo")), bytes.Index(out.Bytes(), []byte("Done")))
}
