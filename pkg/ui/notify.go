package ui

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"
)

// dismissAction is appended to action lists shown by Info.
const dismissAction = "Dismiss"

var (
	infoStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// Notifier shows messages to the user.
type Notifier interface {
	// Info shows msg and, when actions are given, lets the user pick one.
	// It returns the chosen action or "" when none was picked.
	Info(ctx context.Context, msg string, actions ...string) (string, error)
	Warn(msg string)
	Error(msg string)
}

var _ Notifier = (*TermNotifier)(nil)

// TermNotifier writes styled messages to a terminal stream.
type TermNotifier struct {
	out         io.Writer
	prompter    Prompter
	coord       *Coordinator
	interactive bool
}

// NewNotifier writes to out and asks for actions through prompter. Actions
// are only offered when interactive is true. coord may be nil.
func NewNotifier(out io.Writer, prompter Prompter, coord *Coordinator, interactive bool) *TermNotifier {
	if out == nil {
		out = os.Stderr
	}
	return &TermNotifier{out: out, prompter: prompter, coord: coord, interactive: interactive}
}

func (n *TermNotifier) println(line string) {
	unlock := n.coord.Lock()
	defer unlock()
	fmt.Fprintln(n.out, line)
}

// Info prints msg and offers actions.
func (n *TermNotifier) Info(ctx context.Context, msg string, actions ...string) (string, error) {
	n.println(infoStyle.Render("✓") + " " + msg)

	if len(actions) == 0 || !n.interactive || n.prompter == nil {
		return "", nil
	}

	options := append(append([]string(nil), actions...), dismissAction)
	choice, err := n.prompter.Select(ctx, "What next?", options)
	switch {
	case errors.Is(err, ErrCancelled):
		return "", nil
	case err != nil:
		return "", err
	case choice == dismissAction:
		return "", nil
	}
	return choice, nil
}

// Warn prints a warning.
func (n *TermNotifier) Warn(msg string) {
	n.println(warnStyle.Render("!") + " " + msg)
}

// Error prints an error.
func (n *TermNotifier) Error(msg string) {
	n.println(errorStyle.Render("✗") + " " + msg)
}
