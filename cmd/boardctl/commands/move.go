package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"kanboard/internal/move"
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move a list or a card",
	Long: `Move a list within its board or a card within or across lists.

Indices are 0-based and match the ones printed by 'boardctl show'. The item is
dropped so that it ends up at the given index.`,
}

var moveListCmd = &cobra.Command{
	Use:   "list BOARD_ID LIST_ID TO_INDEX",
	Short: "Move a list to a new index on its board",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		boardID, err := parseID(args[0], "board")
		if err != nil {
			return s.report("Invalid arguments", err)
		}
		listID, err := parseID(args[1], "list")
		if err != nil {
			return s.report("Invalid arguments", err)
		}
		to, err := parseIndex(args[2])
		if err != nil {
			return s.report("Invalid arguments", err)
		}

		c, err := s.open(cmd.Context(), boardID)
		if err != nil {
			return s.report("Failed to load board", err)
		}

		board := c.Board()
		_, from, ok := board.List(listID)
		if !ok {
			return s.printer.Fail(fmt.Sprintf("List %d is not on board %d", listID, boardID), "", nil)
		}
		if to >= board.Len() {
			return s.printer.Fail("Index out of range", fmt.Sprintf("Board %d has %d lists.", boardID, board.Len()), nil)
		}

		err = c.Move(cmd.Context(), move.Event{
			Kind:           move.KindList,
			MovedID:        listID,
			SourceParentID: boardID,
			DestParentID:   boardID,
			SourceIndex:    from,
			DestIndex:      to,
		})
		if err != nil {
			return s.report("Failed to move list", err)
		}
		s.printer.Success("Moved list %d to index %d", listID, to)
		return nil
	},
}

var moveCardCmd = &cobra.Command{
	Use:   "card BOARD_ID CARD_ID DEST_LIST_ID TO_INDEX",
	Short: "Move a card within its list or into another list",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		boardID, err := parseID(args[0], "board")
		if err != nil {
			return s.report("Invalid arguments", err)
		}
		cardID, err := parseID(args[1], "card")
		if err != nil {
			return s.report("Invalid arguments", err)
		}
		destID, err := parseID(args[2], "list")
		if err != nil {
			return s.report("Invalid arguments", err)
		}
		to, err := parseIndex(args[3])
		if err != nil {
			return s.report("Invalid arguments", err)
		}

		c, err := s.open(cmd.Context(), boardID)
		if err != nil {
			return s.report("Failed to load board", err)
		}

		board := c.Board()
		card, listIdx, cardIdx, ok := board.Card(cardID)
		if !ok {
			return s.printer.Fail(fmt.Sprintf("Card %d is not on board %d", cardID, boardID), "", nil)
		}
		dst, _, ok := board.List(destID)
		if !ok {
			return s.printer.Fail(fmt.Sprintf("List %d is not on board %d", destID, boardID), "", nil)
		}
		src := board.ListAt(listIdx)

		// A card dropped into another list may also land after its last card.
		limit := len(dst.Cards)
		if src.ID == dst.ID {
			limit--
		}
		if to > limit {
			return s.printer.Fail("Index out of range", fmt.Sprintf("List %d accepts indices 0 to %d.", destID, limit), nil)
		}

		err = c.Move(cmd.Context(), move.Event{
			Kind:           move.KindCard,
			MovedID:        card.ID,
			SourceParentID: src.ID,
			DestParentID:   destID,
			SourceIndex:    cardIdx,
			DestIndex:      to,
		})
		if err != nil {
			return s.report("Failed to move card", err)
		}
		s.printer.Success("Moved card %d to list %d at index %d", cardID, destID, to)
		return nil
	},
}

func init() {
	moveCmd.AddCommand(moveListCmd, moveCardCmd)
	rootCmd.AddCommand(moveCmd)
}
