package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrompter(input string) (*LinePrompter, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return NewLinePrompter(strings.NewReader(input), out, NewCoordinator()), out
}

func TestLinePrompter_Input(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		opts    InputOptions
		want    string
		wantErr error
		prompt  string
	}{
		{
			name:   "typed value",
			input:  "my-input\n",
			opts:   InputOptions{Title: "Organization URL"},
			want:   "my-input",
			prompt: "Organization URL: ",
		},
		{
			name:   "surrounding whitespace trimmed",
			input:  "  svc \n",
			opts:   InputOptions{Title: "Repository"},
			want:   "svc",
			prompt: "Repository: ",
		},
		{
			name:   "empty line keeps pre-filled value",
			input:  "\n",
			opts:   InputOptions{Title: "Target branch", Value: "stage"},
			want:   "stage",
			prompt: "Target branch [stage]: ",
		},
		{
			name:   "empty line without value",
			input:  "\n",
			opts:   InputOptions{Title: "Project", Placeholder: "current: Core"},
			want:   "",
			prompt: "Project (current: Core): ",
		},
		{
			name:   "secret value is not echoed as default",
			input:  "token\n",
			opts:   InputOptions{Title: "Token", Value: "old", Secret: true},
			want:   "token",
			prompt: "Token: ",
		},
		{
			name:   "last line without newline",
			input:  "feature/x",
			opts:   InputOptions{Title: "Source branch"},
			want:   "feature/x",
			prompt: "Source branch: ",
		},
		{
			name:    "end of input cancels",
			input:   "",
			opts:    InputOptions{Title: "Repository"},
			wantErr: ErrCancelled,
			prompt:  "Repository: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newTestPrompter(tt.input)

			got, err := p.Input(context.Background(), tt.opts)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assert.Equal(t, tt.prompt, out.String())
		})
	}
}

func TestLinePrompter_InputSequence(t *testing.T) {
	p, _ := newTestPrompter("https://dev.azure.com/acme\nCore\n")
	ctx := context.Background()

	org, err := p.Input(ctx, InputOptions{Title: "Organization URL"})
	require.NoError(t, err)
	project, err := p.Input(ctx, InputOptions{Title: "Project"})
	require.NoError(t, err)
	_, err = p.Input(ctx, InputOptions{Title: "Token", Secret: true})

	assert.Equal(t, "https://dev.azure.com/acme", org)
	assert.Equal(t, "Core", project)
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestLinePrompter_CancelledContext(t *testing.T) {
	p, _ := newTestPrompter("value\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Input(ctx, InputOptions{Title: "Repository"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinePrompter_Confirm(t *testing.T) {
	tests := []struct {
		input string
		def   bool
		want  bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", true, false},
		{"whatever\n", true, false},
		{"\n", true, true},
		{"\n", false, false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			p, _ := newTestPrompter(tt.input)
			got, err := p.Confirm(context.Background(), "Continue?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLinePrompter_Select(t *testing.T) {
	options := []string{"Open on Browser", "Dismiss"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "by number", input: "1\n", want: "Open on Browser"},
		{name: "by text", input: "dismiss\n", want: "Dismiss"},
		{name: "out of range", input: "3\n", wantErr: ErrCancelled},
		{name: "empty", input: "\n", wantErr: ErrCancelled},
		{name: "eof", input: "", wantErr: ErrCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, out := newTestPrompter(tt.input)
			got, err := p.Select(context.Background(), "What next?", options)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "1) Open on Browser")
			assert.Contains(t, out.String(), "2) Dismiss")
		})
	}
}
