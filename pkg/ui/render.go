package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	lgtree "github.com/charmbracelet/lipgloss/tree"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"go.yaml.in/yaml/v3"

	"thoreinstein.com/adopr/pkg/pullrequest"
	"thoreinstein.com/adopr/pkg/tree"
)

// Output formats accepted by Render.
const (
	FormatTree  = "tree"
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

const (
	purple    = lipgloss.Color("99")
	gray      = lipgloss.Color("245")
	lightGray = lipgloss.Color("241")
)

var (
	viewTitleStyle  = lipgloss.NewStyle().Foreground(purple).Bold(true)
	labelStyle      = lipgloss.NewStyle().Bold(true)
	descStyle       = lipgloss.NewStyle().Foreground(gray)
	mutedStyle      = lipgloss.NewStyle().Foreground(lightGray)
	enumeratorStyle = lipgloss.NewStyle().Foreground(purple).MarginRight(1)
	linkStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
)

// Render writes the given views of model to w in format.
func Render(w io.Writer, format string, model *tree.Model, views []pullrequest.View) error {
	switch format {
	case FormatTree, "":
		for i, v := range views {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, RenderTree(model.Provider(v)))
		}
		return nil
	case FormatTable:
		for i, v := range views {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintln(w, viewTitleStyle.Render(v.Title()))
			fmt.Fprintln(w, RenderTable(model.Provider(v).Records()))
		}
		return nil
	case FormatJSON, FormatYAML:
		return WriteRecords(w, format, model, views)
	default:
		return errors.Newf("unsupported output format %q", format)
	}
}

// RenderTree draws one view as a tree. Summary nodes show their detail
// leaves only when the provider reports them as expanded.
func RenderTree(p *tree.Provider) string {
	records := p.Records()
	root := lgtree.Root(viewTitleStyle.Render(p.View().Title()) + " " + mutedStyle.Render("("+strconv.Itoa(len(records))+")")).
		Enumerator(lgtree.RoundedEnumerator).
		EnumeratorStyle(enumeratorStyle)

	if len(records) == 0 {
		return root.Child(mutedStyle.Render("No pull requests")).String()
	}

	for _, node := range p.Children(nil) {
		item := p.Item(node)
		label := summaryLine(node, item)
		if item.State != tree.Expanded {
			root.Child(label)
			continue
		}

		branch := lgtree.Root(label).
			Enumerator(lgtree.RoundedEnumerator).
			EnumeratorStyle(enumeratorStyle)
		for _, child := range p.Children(node) {
			branch.Child(detailLine(p.Item(child)))
		}
		root.Child(branch)
	}

	return root.String()
}

func summaryLine(node tree.Node, item tree.Item) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(item.Label))
	b.WriteString(" ")
	b.WriteString(descStyle.Render("→ " + item.Description))

	if s, ok := node.(tree.SummaryNode); ok {
		b.WriteString(" ")
		b.WriteString(mutedStyle.Render("#" + strconv.Itoa(s.Record.ID)))
		if s.Record.IsDraft {
			b.WriteString(mutedStyle.Render(" draft"))
		}
		if !s.Record.CreatedAt.IsZero() {
			b.WriteString(mutedStyle.Render(" " + humanize.Time(s.Record.CreatedAt)))
		}
	}
	return b.String()
}

func detailLine(item tree.Item) string {
	if item.Command != nil && len(item.Command.Args) > 0 {
		return labelStyle.Render(item.Label) + " " + linkStyle.Render(item.Command.Args[0])
	}
	return labelStyle.Render(item.Label+":") + " " + item.Description
}

// RenderTable draws records as a table.
func RenderTable(records []pullrequest.Record) string {
	headerStyle := lipgloss.NewStyle().Foreground(purple).Bold(true).Align(lipgloss.Center)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	oddRowStyle := cellStyle.Foreground(gray)
	evenRowStyle := cellStyle.Foreground(lightGray)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		created := ""
		if !r.CreatedAt.IsZero() {
			created = humanize.Time(r.CreatedAt)
		}
		title := r.Title
		if r.IsDraft {
			title = "[draft] " + title
		}
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			r.Repository,
			r.SourceBranch + " → " + r.TargetBranch,
			title,
			r.Creator,
			created,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(purple)).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row%2 == 0:
				return evenRowStyle
			default:
				return oddRowStyle
			}
		}).
		Headers("ID", "REPOSITORY", "BRANCHES", "TITLE", "AUTHOR", "CREATED").
		Rows(rows...)

	return t.String()
}

// viewOutput is the serialized form of one view.
type viewOutput struct {
	View         pullrequest.View     `json:"view" yaml:"view"`
	Title        string               `json:"title" yaml:"title"`
	PullRequests []pullrequest.Record `json:"pullRequests" yaml:"pullRequests"`
}

// WriteRecords serializes the given views as JSON or YAML, in view order.
func WriteRecords(w io.Writer, format string, model *tree.Model, views []pullrequest.View) error {
	out := make([]viewOutput, 0, len(views))
	for _, v := range views {
		records := model.Provider(v).Records()
		if records == nil {
			records = []pullrequest.Record{}
		}
		out = append(out, viewOutput{View: v, Title: v.Title(), PullRequests: records})
	}

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return errors.Wrap(err, "failed to encode JSON")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return errors.Wrap(err, "failed to encode YAML")
		}
		return errors.Wrap(enc.Close(), "failed to encode YAML")
	default:
		return errors.Newf("unsupported output format %q", format)
	}
}
