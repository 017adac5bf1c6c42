// Package ui implements the terminal side of adopr: prompts, notifications,
// browser handoff and rendering of pull request views.
package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/cockroachdb/errors"
	"golang.org/x/term"
)

// ErrCancelled is returned when the user dismisses a prompt.
var ErrCancelled = errors.New("prompt cancelled")

// InputOptions describes a single-line text prompt.
type InputOptions struct {
	Title       string
	Placeholder string
	Value       string // Pre-filled value, returned when the user just presses enter
	Secret      bool
}

// Prompter asks the user for input.
type Prompter interface {
	Input(ctx context.Context, opts InputOptions) (string, error)
	Confirm(ctx context.Context, title string, def bool) (bool, error)
	Select(ctx context.Context, title string, options []string) (string, error)
}

// Compile-time checks that implementations satisfy Prompter.
var (
	_ Prompter = (*HuhPrompter)(nil)
	_ Prompter = (*LinePrompter)(nil)
)

// NewPrompter returns a huh-based prompter when in is a terminal and a
// line-based one otherwise. Both take the terminal from coord while asking.
func NewPrompter(in *os.File, out io.Writer, coord *Coordinator) Prompter {
	if IsInteractive(in) {
		return &HuhPrompter{coord: coord}
	}
	return NewLinePrompter(in, out, coord)
}

// IsInteractive reports whether f is a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// HuhPrompter renders prompts with charmbracelet/huh.
type HuhPrompter struct {
	coord *Coordinator
}

// Input shows a text input.
func (p *HuhPrompter) Input(ctx context.Context, opts InputOptions) (string, error) {
	value := opts.Value
	input := huh.NewInput().
		Title(opts.Title).
		Placeholder(opts.Placeholder).
		Value(&value)
	if opts.Secret {
		input = input.EchoMode(huh.EchoModePassword)
	}

	if err := p.run(ctx, huh.NewForm(huh.NewGroup(input))); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Confirm shows a yes/no question.
func (p *HuhPrompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	confirmed := def
	confirm := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&confirmed)

	if err := p.run(ctx, huh.NewForm(huh.NewGroup(confirm))); err != nil {
		return false, err
	}
	return confirmed, nil
}

// Select shows a single-choice list.
func (p *HuhPrompter) Select(ctx context.Context, title string, options []string) (string, error) {
	if len(options) == 0 {
		return "", ErrCancelled
	}

	choice := options[0]
	sel := huh.NewSelect[string]().
		Title(title).
		Options(huh.NewOptions(options...)...).
		Value(&choice)

	if err := p.run(ctx, huh.NewForm(huh.NewGroup(sel))); err != nil {
		return "", err
	}
	return choice, nil
}

func (p *HuhPrompter) run(ctx context.Context, form *huh.Form) error {
	unlock := p.coord.Lock()
	defer unlock()

	err := form.RunWithContext(ctx)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, huh.ErrUserAborted):
		return ErrCancelled
	default:
		return errors.Wrap(err, "prompt failed")
	}
}

// LinePrompter reads answers line by line. It is used when stdin is not a
// terminal, for example in scripts. End of input cancels the prompt.
type LinePrompter struct {
	in     io.Reader
	out    io.Writer
	coord  *Coordinator
	reader *bufio.Reader
}

// NewLinePrompter creates a prompter reading from in and writing to out.
// coord may be nil.
func NewLinePrompter(in io.Reader, out io.Writer, coord *Coordinator) *LinePrompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stderr
	}
	return &LinePrompter{in: in, out: out, coord: coord, reader: bufio.NewReader(in)}
}

// Input prints the title and reads one line. An empty line yields opts.Value.
func (p *LinePrompter) Input(ctx context.Context, opts InputOptions) (string, error) {
	unlock := p.coord.Lock()
	defer unlock()

	label := opts.Title
	switch {
	case opts.Value != "" && !opts.Secret:
		label += fmt.Sprintf(" [%s]", opts.Value)
	case opts.Placeholder != "":
		label += fmt.Sprintf(" (%s)", opts.Placeholder)
	}
	fmt.Fprintf(p.out, "%s: ", label)

	var line string
	var err error
	if f, ok := p.in.(*os.File); ok && opts.Secret && term.IsTerminal(int(f.Fd())) {
		var b []byte
		b, err = term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		line = string(b)
	} else {
		line, err = p.readLine(ctx)
	}
	if err != nil {
		return "", err
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return opts.Value, nil
	}
	return line, nil
}

// Confirm reads y/yes or n/no. An empty line yields def.
func (p *LinePrompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	unlock := p.coord.Lock()
	defer unlock()

	suffix := "[y/N]"
	if def {
		suffix = "[Y/n]"
	}
	fmt.Fprintf(p.out, "%s %s ", title, suffix)

	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Select prints numbered options and reads a number or an option text.
// An empty line cancels.
func (p *LinePrompter) Select(ctx context.Context, title string, options []string) (string, error) {
	unlock := p.coord.Lock()
	defer unlock()

	fmt.Fprintln(p.out, title)
	for i, opt := range options {
		fmt.Fprintf(p.out, "  %d) %s\n", i+1, opt)
	}
	fmt.Fprint(p.out, "> ")

	line, err := p.readLine(ctx)
	if err != nil {
		return "", err
	}

	answer := strings.TrimSpace(line)
	if answer == "" {
		return "", ErrCancelled
	}
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1], nil
	}
	for _, opt := range options {
		if strings.EqualFold(opt, answer) {
			return opt, nil
		}
	}
	return "", ErrCancelled
}

func (p *LinePrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	line, err := p.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return line, nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrCancelled
		}
		return "", errors.Wrap(err, "failed to read input")
	}
	return line, nil
}
