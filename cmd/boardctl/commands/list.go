package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Add, rename or delete lists",
}

var listAddCmd = &cobra.Command{
	Use:   "add BOARD_ID TITLE",
	Short: "Append a list to a board",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}

		boardID, err := parseID(args[0], "board")
		if err != nil {
			return s.report("Invalid arguments", err)
		}

		c, err := s.open(cmd.Context(), boardID)
		if err != nil {
			return s.report("Failed to load board", err)
		}

		l, err := c.CreateList(cmd.Context(), strings.Join(args[1:], " "))
		if err != nil {
			return s.report("Failed to add list", err)
		}
		s.printer.Success("Added list %q (id %d) at index %d", l.Title, l.ID, l.Position)
		return nil
	},
}

var listRenameCmd = &cobra.Command{
	Use:   "rename BOARD_ID LIST_ID TITLE",
	Short: "Rename a list",
	Args:  cobra.MinimumNArgs(3),
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

		c, err := s.open(cmd.Context(), boardID)
		if err != nil {
			return s.report("Failed to load board", err)
		}

		if err := c.RenameList(cmd.Context(), listID, strings.Join(args[2:], " ")); err != nil {
			return s.report(fmt.Sprintf("Failed to rename list %d", listID), err)
		}
		s.printer.Success("Renamed list %d", listID)
		return nil
	},
}

var listDeleteCmd = &cobra.Command{
	Use:   "delete BOARD_ID LIST_ID",
	Short: "Delete a list and its cards",
	Args:  cobra.ExactArgs(2),
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

		c, err := s.open(cmd.Context(), boardID)
		if err != nil {
			return s.report("Failed to load board", err)
		}

		if err := c.DeleteList(cmd.Context(), listID); err != nil {
			return s.report(fmt.Sprintf("Failed to delete list %d", listID), err)
		}
		s.printer.Success("Deleted list %d", listID)
		return nil
	},
}

func init() {
	listCmd.AddCommand(listAddCmd, listRenameCmd, listDeleteCmd)
	rootCmd.AddCommand(listCmd)
}
