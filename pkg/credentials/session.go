package credentials

import (
	"log/slog"
	"os"
	"strings"

	"thoreinstein.com/adopr/pkg/config"
	"thoreinstein.com/adopr/pkg/logging"
)

// Overrides take precedence over stored values. Empty fields do not override.
type Overrides struct {
	OrganizationURL string
	ProjectName     string
	AccessToken     string
}

// OverridesFromConfig collects overrides from the devops config section and
// the token environment variables. ADOPR_DEVOPS_TOKEN beats
// AZURE_DEVOPS_EXT_PAT, which beats devops.token.
func OverridesFromConfig(cfg config.DevOpsConfig) Overrides {
	return Overrides{
		OrganizationURL: cfg.Organization,
		ProjectName:     cfg.Project,
		AccessToken:     firstNonEmpty(os.Getenv("ADOPR_DEVOPS_TOKEN"), os.Getenv("AZURE_DEVOPS_EXT_PAT"), cfg.Token),
	}
}

func (o Overrides) get(f Field) string {
	switch f {
	case FieldOrganization:
		return o.OrganizationURL
	case FieldProject:
		return o.ProjectName
	default:
		return o.AccessToken
	}
}

// Session is the single owner of credential state for a run.
type Session struct {
	store     Store
	keys      Keys
	overrides Overrides
	logger    *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithOverrides sets values that win over the store.
func WithOverrides(o Overrides) SessionOption {
	return func(s *Session) {
		s.overrides = o
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logging.Component(logger, "credentials")
	}
}

// NewSession creates a session over store using keys scoped to appID.
func NewSession(store Store, appID string, opts ...SessionOption) *Session {
	s := &Session{
		store:  store,
		keys:   KeysFor(appID),
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keys returns the storage keys in use.
func (s *Session) Keys() Keys {
	return s.keys
}

// Load returns the effective credentials. A field that is overridden is not
// read from the store.
func (s *Session) Load() (Credentials, error) {
	var values [3]string
	for _, f := range Fields {
		v, err := s.Get(f)
		if err != nil {
			return Credentials{}, err
		}
		values[f] = v
	}

	return Credentials{
		OrganizationURL: values[FieldOrganization],
		ProjectName:     values[FieldProject],
		AccessToken:     values[FieldToken],
	}, nil
}

// Get returns the effective value of one field.
func (s *Session) Get(f Field) (string, error) {
	if v := s.overrides.get(f); v != "" {
		return v, nil
	}

	v, _, err := s.store.Get(s.keys.For(f))
	if err != nil {
		return "", err
	}
	return v, nil
}

// Stored returns the persisted value of one field, ignoring overrides.
func (s *Session) Stored(f Field) (string, error) {
	v, _, err := s.store.Get(s.keys.For(f))
	return v, err
}

// Overridden reports whether f currently comes from config or environment.
func (s *Session) Overridden(f Field) bool {
	return s.overrides.get(f) != ""
}

// Set persists one field.
func (s *Session) Set(f Field, value string) error {
	if err := s.store.Set(s.keys.For(f), value); err != nil {
		return err
	}
	s.logger.Debug("stored credential", "field", f.Label(), "key", s.keys.For(f))
	return nil
}

// Clear removes all three stored fields.
func (s *Session) Clear() error {
	for _, f := range Fields {
		if err := s.store.Delete(s.keys.For(f)); err != nil {
			return err
		}
	}
	s.logger.Debug("cleared stored credentials")
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
