package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List all boards",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		boards, err := s.client.ListBoards(cmd.Context())
		if err != nil {
			return s.report("Failed to list boards", err)
		}
		s.printer.Boards(boards)
		return nil
	},
}

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Create or delete boards",
}

var boardCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a board",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		b, err := s.client.CreateBoard(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return s.report("Failed to create board", err)
		}
		s.printer.Success("Created board %q (id %d)", b.Name, b.ID)
		return nil
	},
}

var boardDeleteCmd = &cobra.Command{
	Use:   "delete BOARD_ID",
	Short: "Delete a board with all its lists and cards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		id, err := parseID(args[0], "board")
		if err != nil {
			return s.report("Invalid arguments", err)
		}
		if err := s.client.DeleteBoard(cmd.Context(), id); err != nil {
			return s.report(fmt.Sprintf("Failed to delete board %d", id), err)
		}
		s.printer.Success("Deleted board %d", id)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show BOARD_ID",
	Short: "Show a board's lists and cards",
	Long: `Show a board's lists and cards.

Lists are prefixed with their index and cards with their index inside the
list. These are the indices the move commands take.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		id, err := parseID(args[0], "board")
		if err != nil {
			return s.report("Invalid arguments", err)
		}

		boards, err := s.client.ListBoards(cmd.Context())
		if err != nil {
			return s.report("Failed to list boards", err)
		}
		name := ""
		for _, b := range boards {
			if b.ID == id {
				name = b.Name
			}
		}
		if name == "" {
			return s.printer.Fail(fmt.Sprintf("Board %d not found", id), "", []string{"Run 'boardctl boards' to see existing boards"})
		}

		c, err := s.open(cmd.Context(), id)
		if err != nil {
			return s.report("Failed to load board", err)
		}
		s.printer.Board(name, c.Board())
		return nil
	},
}

func init() {
	boardCmd.AddCommand(boardCreateCmd, boardDeleteCmd)
	rootCmd.AddCommand(boardsCmd, boardCmd, showCmd)
}
