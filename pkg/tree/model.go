package tree

import (
	"sync"

	"thoreinstein.com/adopr/pkg/pullrequest"
)

// Compile-time check that Model can receive refresh results.
var _ pullrequest.ViewSink = (*Model)(nil)

// Model owns one provider per view.
type Model struct {
	mu        sync.RWMutex
	providers map[pullrequest.View]*Provider
}

// NewModel creates providers for every view with the same options.
func NewModel(opts ...ProviderOption) *Model {
	m := &Model{providers: make(map[pullrequest.View]*Provider, len(pullrequest.AllViews))}
	for _, v := range pullrequest.AllViews {
		m.providers[v] = NewProvider(v, opts...)
	}
	return m
}

// Provider returns the provider for view, or nil for an unknown view.
func (m *Model) Provider(view pullrequest.View) *Provider {
	return m.providers[view]
}

// ReplaceAll replaces every view, then lets each provider notify its own
// listeners. Listeners run after all views hold the new records.
func (m *Model) ReplaceAll(views pullrequest.Views) {
	m.mu.Lock()
	for _, v := range pullrequest.AllViews {
		m.providers[v].set(views.Get(v))
	}
	m.mu.Unlock()

	for _, v := range pullrequest.AllViews {
		m.providers[v].Refresh()
	}
}

// Snapshot returns the records of all views as of one refresh.
func (m *Model) Snapshot() pullrequest.Views {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return pullrequest.Views{
		Mine:      m.providers[pullrequest.ViewMine].Records(),
		Reviewing: m.providers[pullrequest.ViewReviewing].Records(),
		All:       m.providers[pullrequest.ViewAll].Records(),
	}
}
