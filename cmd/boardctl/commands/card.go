package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"kanboard/internal/models"
)

var (
	cardTitle       string
	cardDescription string
	cardDue         string
	cardLabels      string
	cardClearLabels bool
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Add, edit or delete cards",
}

var cardAddCmd = &cobra.Command{
	Use:   "add BOARD_ID LIST_ID TITLE",
	Short: "Append a card to a list",
	Long: `Append a card to a list.

Description, due date and labels are saved right after the card is created.

Examples:
  boardctl card add 1 4 "Write release notes" --due 2026-11-02 --labels docs,release`,
	Args: cobra.MinimumNArgs(3),
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
		update, err := cardUpdateFromFlags(cmd)
		if err != nil {
			return s.report("Invalid arguments", err)
		}

		c, err := s.open(cmd.Context(), boardID)
		if err != nil {
			return s.report("Failed to load board", err)
		}

		card, err := c.CreateCard(cmd.Context(), listID, strings.Join(args[2:], " "))
		if err != nil {
			return s.report("Failed to add card", err)
		}
		if update != nil {
			if err := c.EditCard(cmd.Context(), card.ID, *update); err != nil {
				return s.report(fmt.Sprintf("Card %d was added but its details were not saved", card.ID), err)
			}
		}
		s.printer.Success("Added card %q (id %d) at index %d", card.Title, card.ID, card.Position)
		return nil
	},
}

var cardEditCmd = &cobra.Command{
	Use:   "edit BOARD_ID CARD_ID",
	Short: "Edit a card's title, description, due date or labels",
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
		cardID, err := parseID(args[1], "card")
		if err != nil {
			return s.report("Invalid arguments", err)
		}
		update, err := cardUpdateFromFlags(cmd)
		if err != nil {
			return s.report("Invalid arguments", err)
		}
		if update == nil {
			return s.printer.Fail("Nothing to change", "", []string{"Pass at least one of --title, --description, --due, --labels or --clear-labels"})
		}

		c, err := s.open(cmd.Context(), boardID)
		if err != nil {
			return s.report("Failed to load board", err)
		}

		if err := c.EditCard(cmd.Context(), cardID, *update); err != nil {
			return s.report(fmt.Sprintf("Failed to edit card %d", cardID), err)
		}
		s.printer.Success("Updated card %d", cardID)
		return nil
	},
}

var cardDeleteCmd = &cobra.Command{
	Use:   "delete BOARD_ID CARD_ID",
	Short: "Delete a card",
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
		cardID, err := parseID(args[1], "card")
		if err != nil {
			return s.report("Invalid arguments", err)
		}

		c, err := s.open(cmd.Context(), boardID)
		if err != nil {
			return s.report("Failed to load board", err)
		}

		if err := c.DeleteCard(cmd.Context(), cardID); err != nil {
			return s.report(fmt.Sprintf("Failed to delete card %d", cardID), err)
		}
		s.printer.Success("Deleted card %d", cardID)
		return nil
	},
}

// cardUpdateFromFlags builds an update from the flags that were set. It
// returns nil when none were.
func cardUpdateFromFlags(cmd *cobra.Command) (*models.CardUpdate, error) {
	flags := cmd.Flags()
	var update models.CardUpdate
	changed := false

	if flags.Changed("title") {
		update.Title = &cardTitle
		changed = true
	}
	if flags.Changed("description") {
		update.Description = &cardDescription
		changed = true
	}
	if flags.Changed("due") {
		due, err := parseDue(cardDue)
		if err != nil {
			return nil, err
		}
		update.DueDate = &due
		changed = true
	}
	if flags.Changed("labels") {
		update.Labels = splitLabels(cardLabels)
		changed = true
	}
	if flags.Changed("clear-labels") && cardClearLabels {
		update.Labels = []string{}
		changed = true
	}

	if !changed {
		return nil, nil
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return &update, nil
}

// parseDue accepts a calendar date or an RFC3339 timestamp.
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t.UTC(), nil
}

func splitLabels(s string) []string {
	labels := []string{}
	for _, l := range strings.Split(s, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func init() {
	for _, c := range []*cobra.Command{cardAddCmd, cardEditCmd} {
		c.Flags().StringVarP(&cardDescription, "description", "d", "", "Card description")
		c.Flags().StringVar(&cardDue, "due", "", "Due date (YYYY-MM-DD or RFC3339)")
		c.Flags().StringVarP(&cardLabels, "labels", "l", "", "Comma-separated labels, replacing the current ones")
	}
	cardEditCmd.Flags().StringVarP(&cardTitle, "title", "t", "", "New title")
	cardEditCmd.Flags().BoolVar(&cardClearLabels, "clear-labels", false, "Remove all labels")

	cardCmd.AddCommand(cardAddCmd, cardEditCmd, cardDeleteCmd)
	rootCmd.AddCommand(cardCmd)
}
