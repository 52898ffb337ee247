package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"kanboard/internal/boardcache"
	"kanboard/internal/models"
)

// Printer writes CLI output. It also serves as the notifier for board
// mutations, so failures surface the same way everywhere.
type Printer struct {
	out io.Writer
	err io.Writer

	green  *color.Color
	yellow *color.Color
	red    *color.Color
	cyan   *color.Color
	faint  *color.Color
}

// New creates a printer writing to out and errOut. Color is forced on unless
// noColor is set or NO_COLOR is present in the environment.
func New(out, errOut io.Writer, noColor bool) *Printer {
	p := &Printer{
		out:    out,
		err:    errOut,
		green:  color.New(color.FgGreen),
		yellow: color.New(color.FgYellow),
		red:    color.New(color.FgRed, color.Bold),
		cyan:   color.New(color.FgCyan),
		faint:  color.New(color.Faint),
	}

	disable := noColor || os.Getenv("NO_COLOR") != ""
	for _, c := range []*color.Color{p.green, p.yellow, p.red, p.cyan, p.faint} {
		if disable {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return p
}

// Stdout returns a printer on the process streams.
func Stdout(noColor bool) *Printer {
	return New(os.Stdout, os.Stderr, noColor)
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	p.green.Fprintln(p.out, msg)
}

// Info prints an informational message in the default color
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format+"\n", a...)
}

// Step prints a step message with emphasis
func (p *Printer) Step(format string, a ...any) {
	p.cyan.Fprintf(p.out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Warning prints a warning in yellow to the error stream.
func (p *Printer) Warning(format string, a ...any) {
	p.yellow.Fprintf(p.err, "⚠️  %s\n", fmt.Sprintf(format, a...))
}

// Fail prints a formatted error with title, explanation, and suggestions to
// the error stream and returns a simple error for Cobra.
func (p *Printer) Fail(title, explanation string, suggestions []string) error {
	p.red.Fprintf(p.err, "%s\n", title)

	if explanation != "" {
		fmt.Fprintf(p.err, "\n%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(p.err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(p.err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.err, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(p.err, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}

// Error reports a failed board operation.
func (p *Printer) Error(op string, err error) {
	p.red.Fprintf(p.err, "✗ %s: ", op)
	fmt.Fprintln(p.err, err)
}

// Warn reports a rejected board operation.
func (p *Printer) Warn(op, msg string) {
	p.Warning("%s: %s", op, msg)
}

// Boards prints one line per board.
func (p *Printer) Boards(boards []models.Board) {
	if len(boards) == 0 {
		p.Info("No boards yet.")
		return
	}
	for _, b := range boards {
		p.faint.Fprintf(p.out, "%4d  ", b.ID)
		fmt.Fprintln(p.out, b.Name)
	}
}

// Board renders the lists and cards of a snapshot with their indices, the
// coordinates move commands take.
func (p *Printer) Board(name string, s boardcache.Snapshot) {
	p.cyan.Fprintf(p.out, "%s", name)
	p.faint.Fprintf(p.out, " (board %d)\n", s.BoardID())

	if s.Len() == 0 {
		p.faint.Fprintln(p.out, "  no lists")
		return
	}

	for _, l := range s.Lists() {
		fmt.Fprintln(p.out)
		p.faint.Fprintf(p.out, "[%d] ", l.Position)
		p.green.Fprintf(p.out, "%s", l.Title)
		p.faint.Fprintf(p.out, " #%d\n", l.ID)

		if len(l.Cards) == 0 {
			p.faint.Fprintln(p.out, "    (empty)")
			continue
		}
		for _, c := range l.Cards {
			p.card(c)
		}
	}
}

func (p *Printer) card(c models.Card) {
	p.faint.Fprintf(p.out, "  %2d. ", c.Position)
	fmt.Fprintf(p.out, "%s", c.Title)
	p.faint.Fprintf(p.out, " #%d", c.ID)

	if len(c.Labels) > 0 {
		p.yellow.Fprintf(p.out, " [%s]", strings.Join(c.Labels, ", "))
	}
	if c.DueDate != nil {
		due := c.DueDate.Format("2006-01-02")
		if c.IsOverdue() {
			p.red.Fprintf(p.out, " due %s", due)
		} else {
			p.faint.Fprintf(p.out, " due %s", due)
		}
	}
	fmt.Fprintln(p.out)
}
