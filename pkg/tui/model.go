// Package tui is the interactive pull request browser behind "adopr browse".
package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"

	adoerrors "thoreinstein.com/adopr/pkg/errors"
	"thoreinstein.com/adopr/pkg/pullrequest"
	"thoreinstein.com/adopr/pkg/tree"
	"thoreinstein.com/adopr/pkg/ui"
)

// RefreshFunc reloads the views held by the tree model.
type RefreshFunc func(ctx context.Context) error

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Underline(true).
			Padding(0, 1)
	tabStyle    = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	repoStyle   = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	linkStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Underline(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().PaddingLeft(2)
)

// Messages

type refreshDoneMsg struct {
	err error
}

type openedMsg struct {
	url string
	err error
}

// row is one visible line of the active view.
type row struct {
	node  tree.Node
	item  tree.Item
	depth int
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx      context.Context
	views    *tree.Model
	refresh  RefreshFunc
	opener   ui.Opener
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
	tab      int
	cursors  []int
	toggled  map[string]bool
	loading  bool
	status   string
	err      error
	width    int
	quitting bool
}

// New creates a browser over views. refresh is run on start and on "r", so
// the model starts out loading.
func New(views *tree.Model, refresh RefreshFunc, opener ui.Opener) Model {
	return Model{
		ctx:     context.Background(),
		views:   views,
		refresh: refresh,
		opener:  opener,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(cursorStyle)),
		cursors: make([]int, len(pullrequest.AllViews)),
		toggled: make(map[string]bool),
		loading: true,
	}
}

// WithContext returns a copy of m whose refreshes run under ctx.
func (m Model) WithContext(ctx context.Context) Model {
	m.ctx = ctx
	return m
}

// Run starts the browser in the alternate screen and blocks until it exits.
// Refreshes started by the browser are cancelled with ctx.
func Run(ctx context.Context, m Model) error {
	m = m.WithContext(ctx)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "browser failed")
	}
	return nil
}

// Commands

func (m Model) startRefresh() (Model, tea.Cmd) {
	m.loading = true
	m.err = nil
	m.status = ""

	refresh, ctx := m.refresh, m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		if refresh == nil {
			return refreshDoneMsg{}
		}
		return refreshDoneMsg{err: refresh(ctx)}
	})
}

func (m Model) openCmd(url string) tea.Cmd {
	opener := m.opener
	return func() tea.Msg {
		if opener == nil {
			return openedMsg{url: url, err: errors.New("no browser available")}
		}
		return openedMsg{url: url, err: opener.Open(url)}
	}
}

// tea.Model

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	_, cmd := m.startRefresh()
	return cmd
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case refreshDoneMsg:
		m.loading = false
		m.err = msg.err
		if errors.Is(msg.err, adoerrors.ErrSuperseded) {
			m.err = nil
		}
		m.clampCursors()
		return m, nil

	case openedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = "Opened " + msg.url
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursors[m.tab] > 0 {
			m.cursors[m.tab]--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursors[m.tab] < len(m.rows())-1 {
			m.cursors[m.tab]++
		}

	case key.Matches(msg, m.keys.PrevTab):
		m.tab = (m.tab + len(pullrequest.AllViews) - 1) % len(pullrequest.AllViews)

	case key.Matches(msg, m.keys.NextTab):
		m.tab = (m.tab + 1) % len(pullrequest.AllViews)

	case key.Matches(msg, m.keys.Refresh):
		if m.loading {
			return m, nil
		}
		return m.startRefresh()

	case key.Matches(msg, m.keys.Toggle):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if r.item.Command != nil && r.item.Command.ID == tree.OpenInBrowserCommand && len(r.item.Command.Args) > 0 {
			return m, m.openCmd(r.item.Command.Args[0])
		}
		if s, ok := r.node.(tree.SummaryNode); ok {
			m.toggled[m.toggleKey(s.Record)] = !m.isExpanded(r)
			m.clampCursors()
		}

	case key.Matches(msg, m.keys.Open):
		r, ok := m.selected()
		if !ok {
			return m, nil
		}
		if link := recordOf(r.node).Link; link != "" {
			return m, m.openCmd(link)
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.tabsView())
	b.WriteString("\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		if m.loading {
			b.WriteString("  " + m.spinner.View() + " Loading pull requests...")
		} else {
			b.WriteString(dimStyle.Render("  No pull requests"))
		}
		b.WriteString("\n")
	}
	for i, r := range rows {
		b.WriteString(m.rowView(r, i == m.cursors[m.tab]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errStyle.Render("  " + firstLine(adoerrors.FormatUserError(m.err))))
		b.WriteString("\n")
	case m.loading && len(rows) > 0:
		b.WriteString("  " + m.spinner.View() + " Refreshing...\n")
	case m.status != "":
		b.WriteString(okStyle.Render("  "+m.status) + "\n")
	}

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func (m Model) tabsView() string {
	tabs := make([]string, 0, len(pullrequest.AllViews))
	for i, v := range pullrequest.AllViews {
		label := v.Title() + " (" + strconv.Itoa(len(m.views.Provider(v).Records())) + ")"
		if i == m.tab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) rowView(r row, selected bool) string {
	prefix := "  "
	if selected {
		prefix = cursorStyle.Render("> ")
	}
	indent := strings.Repeat("    ", r.depth)

	if r.depth == 0 {
		marker := "▸ "
		if m.isExpanded(r) {
			marker = "▾ "
		}
		line := marker + repoStyle.Render(r.item.Label) + " " + dimStyle.Render("→ "+r.item.Description)
		if s, ok := r.node.(tree.SummaryNode); ok {
			line += dimStyle.Render("  #" + strconv.Itoa(s.Record.ID) + " " + s.Record.Title)
		}
		return prefix + indent + line
	}

	if r.item.Command != nil && len(r.item.Command.Args) > 0 {
		return prefix + indent + r.item.Label + " " + linkStyle.Render(r.item.Command.Args[0])
	}
	return prefix + indent + dimStyle.Render(r.item.Label+":") + " " + r.item.Description
}

// Helpers

func (m Model) provider() *tree.Provider {
	return m.views.Provider(pullrequest.AllViews[m.tab])
}

// rows flattens the active view into visible lines.
func (m Model) rows() []row {
	p := m.provider()
	var rows []row
	for _, node := range p.Children(nil) {
		r := row{node: node, item: p.Item(node)}
		rows = append(rows, r)
		if !m.isExpanded(r) {
			continue
		}
		for _, child := range p.Children(node) {
			rows = append(rows, row{node: child, item: p.Item(child), depth: 1})
		}
	}
	return rows
}

func (m Model) selected() (row, bool) {
	rows := m.rows()
	c := m.cursors[m.tab]
	if c < 0 || c >= len(rows) {
		return row{}, false
	}
	return rows[c], true
}

func (m Model) toggleKey(r pullrequest.Record) string {
	return string(pullrequest.AllViews[m.tab]) + "/" + r.Key()
}

func (m Model) isExpanded(r row) bool {
	s, ok := r.node.(tree.SummaryNode)
	if !ok {
		return false
	}
	if v, ok := m.toggled[m.toggleKey(s.Record)]; ok {
		return v
	}
	return r.item.State == tree.Expanded
}

func (m *Model) clampCursors() {
	current := m.tab
	for i := range pullrequest.AllViews {
		m.tab = i
		n := len(m.rows())
		switch {
		case n == 0:
			m.cursors[i] = 0
		case m.cursors[i] >= n:
			m.cursors[i] = n - 1
		}
	}
	m.tab = current
}

func recordOf(n tree.Node) pullrequest.Record {
	switch v := n.(type) {
	case tree.SummaryNode:
		return v.Record
	case tree.DetailNode:
		return v.Parent
	default:
		return pullrequest.Record{}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
