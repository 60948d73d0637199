package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/desertthunder/sortify/internal/models"
	"github.com/desertthunder/sortify/internal/tasks"
	"github.com/mattn/go-isatty"
)

// Console reports progress as styled lines and asks the continue question on the terminal.
type Console struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
}

// NewConsole writes to out and reads answers from in. A huh form is used when both are terminals.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: IsTerminal(in) && IsTerminal(out),
	}
}

// IsTerminal reports whether v is a file descriptor attached to a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report implements [tasks.Reporter].
func (c *Console) Report(u tasks.ProgressUpdate) {
	if u.Message == "" {
		return
	}

	var line string
	switch u.Phase {
	case tasks.Fetching:
		line = "→ " + u.Message
	case tasks.Classifying:
		line = "  " + u.Message
	case tasks.Filing:
		line = c.filingLine(u)
	case tasks.Done:
		line = "\n" + styles.OK("✓ "+u.Message)
	default:
		line = u.Message
	}
	fmt.Fprintln(c.out, line)
}

func (c *Console) filingLine(u tasks.ProgressUpdate) string {
	switch data := u.Data.(type) {
	case *models.Playlist:
		return styles.OK("+ " + u.Message)
	case models.Filing:
		switch data.Outcome {
		case models.OutcomeAdded:
			return styles.OK("✓ ") + u.Message
		case models.OutcomeAlreadyPresent:
			return styles.Help("• " + u.Message)
		default:
			return styles.Warn("⚠ " + u.Message)
		}
	}
	return u.Message
}

// Confirm implements [tasks.Prompter]. Only "yes" or "y" (any case) counts as consent; end of input declines.
func (c *Console) Confirm(ctx context.Context, question string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if c.interactive {
		var yes bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title(question).Affirmative("Yes").Negative("No").Value(&yes),
		))
		if err := form.RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return false, nil
			}
			return false, fmt.Errorf("prompt failed: %w", err)
		}
		return yes, nil
	}

	fmt.Fprintf(c.out, "%s (yes/no): ", question)
	line, err := c.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read answer: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(c.out)
	}
	return IsYes(line), nil
}

// IsYes reports whether answer is "yes", ignoring case and surrounding space.
// Anything else, including "y", declines.
func IsYes(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), "yes")
}
