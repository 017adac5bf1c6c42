// Package tree presents pull request views as trees: one summary node per
// pull request, each expanding to three detail leaves.
package tree

import (
	"thoreinstein.com/adopr/pkg/pullrequest"
)

// CollapsibleState says whether a node has children and whether they show.
type CollapsibleState int

const (
	None CollapsibleState = iota
	Collapsed
	Expanded
)

// OpenInBrowserCommand is the command bound to the open-link detail leaf.
const OpenInBrowserCommand = "openInBrowser"

// Command is an action attached to a node. Args are passed to the handler.
type Command struct {
	ID    string
	Title string
	Args  []string
}

// Item is the display form of a node.
type Item struct {
	Label       string
	Description string
	Tooltip     string
	State       CollapsibleState
	Command     *Command
}

// Node is a SummaryNode or a DetailNode.
type Node interface {
	node()
}

// SummaryNode stands for one pull request.
type SummaryNode struct {
	Record pullrequest.Record
}

func (SummaryNode) node() {}

// DetailKind selects which detail leaf a DetailNode shows.
type DetailKind int

const (
	DetailTitle DetailKind = iota
	DetailAuthor
	DetailOpenLink
)

// DetailKinds lists the leaves of an expanded summary node, in order.
var DetailKinds = []DetailKind{DetailTitle, DetailAuthor, DetailOpenLink}

// DetailNode is a leaf derived from its parent record. It is never stored.
type DetailNode struct {
	Kind   DetailKind
	Parent pullrequest.Record
}

func (DetailNode) node() {}

// Details returns the three leaves under r.
func Details(r pullrequest.Record) []Node {
	nodes := make([]Node, 0, len(DetailKinds))
	for _, k := range DetailKinds {
		nodes = append(nodes, DetailNode{Kind: k, Parent: r})
	}
	return nodes
}

func newItem(label, description string, state CollapsibleState, cmd *Command) Item {
	return Item{
		Label:       label,
		Description: description,
		Tooltip:     label + "-" + description,
		State:       state,
		Command:     cmd,
	}
}

func summaryItem(r pullrequest.Record, state CollapsibleState) Item {
	return newItem(r.Repository, r.TargetBranch, state, nil)
}

func detailItem(d DetailNode) Item {
	switch d.Kind {
	case DetailTitle:
		return newItem("Title", d.Parent.Title, None, nil)
	case DetailAuthor:
		return newItem("Author", d.Parent.Creator, None, nil)
	default:
		return newItem("Click here to open", "", None, &Command{
			ID:    OpenInBrowserCommand,
			Title: "Open pull request in browser",
			Args:  []string{d.Parent.Link},
		})
	}
}
