package tree

import (
	"sync"

	"thoreinstein.com/adopr/pkg/pullrequest"
)

// Provider holds the records of one view and answers tree queries over them.
type Provider struct {
	view     pullrequest.View
	expanded bool

	mu        sync.RWMutex
	records   []pullrequest.Record
	listeners []func()
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithExpanded shows summary nodes expanded instead of collapsed.
func WithExpanded(expanded bool) ProviderOption {
	return func(p *Provider) {
		p.expanded = expanded
	}
}

// NewProvider creates an empty provider for view.
func NewProvider(view pullrequest.View, opts ...ProviderOption) *Provider {
	p := &Provider{view: view}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// View returns the view this provider shows.
func (p *Provider) View() pullrequest.View {
	return p.view
}

// Replace swaps in records and notifies listeners.
func (p *Provider) Replace(records []pullrequest.Record) {
	p.set(records)
	p.Refresh()
}

func (p *Provider) set(records []pullrequest.Record) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.records = append([]pullrequest.Record(nil), records...)
}

// Records returns a copy of the current records.
func (p *Provider) Records() []pullrequest.Record {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]pullrequest.Record(nil), p.records...)
}

// OnDidChange registers fn to run after every change.
func (p *Provider) OnDidChange(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Refresh notifies listeners that the tree should be queried again.
func (p *Provider) Refresh() {
	p.mu.RLock()
	listeners := append([]func(){}, p.listeners...)
	p.mu.RUnlock()

	for _, fn := range listeners {
		fn()
	}
}

// Children returns the root nodes when parent is nil, and the detail leaves
// of a summary node otherwise. Detail nodes have no children.
func (p *Provider) Children(parent Node) []Node {
	switch n := parent.(type) {
	case nil:
		records := p.Records()
		nodes := make([]Node, 0, len(records))
		for _, r := range records {
			nodes = append(nodes, SummaryNode{Record: r})
		}
		return nodes
	case SummaryNode:
		return Details(n.Record)
	default:
		return nil
	}
}

// Item returns the display form of node.
func (p *Provider) Item(node Node) Item {
	switch n := node.(type) {
	case SummaryNode:
		state := Collapsed
		if p.expanded {
			state = Expanded
		}
		return summaryItem(n.Record, state)
	case DetailNode:
		return detailItem(n)
	default:
		return Item{}
	}
}
