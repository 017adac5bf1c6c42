package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/spf13/viper"

	adoerrors "thoreinstein.com/adopr/pkg/errors"
)

// Config represents the application configuration
type Config struct {
	DevOps      DevOpsConfig      `mapstructure:"devops"`
	Credentials CredentialsConfig `mapstructure:"credentials"`
	Log         LogConfig         `mapstructure:"log"`
	Output      OutputConfig      `mapstructure:"output"`
	Update      UpdateConfig      `mapstructure:"update"`
}

// DevOpsConfig holds Azure DevOps connection settings.
// Organization, Project and Token override values kept in the credential store.
type DevOpsConfig struct {
	AppID               string        `mapstructure:"app_id"`                // Namespace for credential keys
	Organization        string        `mapstructure:"organization"`          // e.g., "https://dev.azure.com/acme"
	Project             string        `mapstructure:"project"`               // Project name
	Token               string        `mapstructure:"token"`                 // PAT (ADOPR_DEVOPS_TOKEN or AZURE_DEVOPS_EXT_PAT take precedence)
	DefaultTargetBranch string        `mapstructure:"default_target_branch"` // Pre-filled target branch for pr create
	Timeout             time.Duration `mapstructure:"timeout"`               // Per-command deadline, 0 disables
}

// CredentialsConfig holds credential store configuration
type CredentialsConfig struct {
	Store string `mapstructure:"store"` // "auto", "keyring", "file", "memory"
	Path  string `mapstructure:"path"`  // File store location
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // "text", "json", "logfmt"
}

// OutputConfig holds pull request listing defaults
type OutputConfig struct {
	Format string `mapstructure:"format"` // "tree", "table", "json", "yaml"
	Expand bool   `mapstructure:"expand"` // Show detail rows under each pull request
}

// UpdateConfig holds self-update configuration
type UpdateConfig struct {
	Repository string `mapstructure:"repository"` // owner/name of the release repository
	Prerelease bool   `mapstructure:"prerelease"`
}

// SecurityWarning represents a configuration security issue
type SecurityWarning struct {
	Field   string
	Message string
}

// Valid enumerations for string settings.
var (
	ValidStores        = []string{"auto", "keyring", "file", "memory"}
	ValidLogLevels     = []string{"debug", "info", "warn", "error"}
	ValidLogFormats    = []string{"text", "json", "logfmt"}
	ValidOutputFormats = []string{"tree", "table", "json", "yaml"}
)

// Load loads the configuration from file and environment variables
func Load() (*Config, error) {
	config := &Config{}

	setDefaults()

	if err := viper.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	var err error
	config.Credentials.Path, err = expandPath(config.Credentials.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to expand paths")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return config, nil
}

// CheckSecurityWarnings returns warnings for insecure configuration practices.
// Call this when loading config to warn users about tokens stored in config files.
func CheckSecurityWarnings(config *Config) []SecurityWarning {
	var warnings []SecurityWarning

	if config.DevOps.Token != "" && os.Getenv("ADOPR_DEVOPS_TOKEN") == "" && os.Getenv("AZURE_DEVOPS_EXT_PAT") == "" {
		warnings = append(warnings, SecurityWarning{
			Field:   "devops.token",
			Message: "Azure DevOps token is set in config file. For security, use 'adopr login' or the AZURE_DEVOPS_EXT_PAT environment variable instead.",
		})
	}

	return warnings
}

// Validate validates the configuration and returns any validation errors.
func (c *Config) Validate() error {
	checks := []struct {
		field string
		err   error
	}{
		{"credentials", validation.ValidateStruct(&c.Credentials,
			validation.Field(&c.Credentials.Store, validation.In(toAny(ValidStores)...)),
		)},
		{"log", validation.ValidateStruct(&c.Log,
			validation.Field(&c.Log.Level, validation.In(toAny(ValidLogLevels)...)),
			validation.Field(&c.Log.Format, validation.In(toAny(ValidLogFormats)...)),
		)},
		{"output", validation.ValidateStruct(&c.Output,
			validation.Field(&c.Output.Format, validation.In(toAny(ValidOutputFormats)...)),
		)},
		{"devops", validation.ValidateStruct(&c.DevOps,
			validation.Field(&c.DevOps.AppID, validation.Required),
			validation.Field(&c.DevOps.Timeout, validation.Min(time.Duration(0))),
		)},
	}

	for _, check := range checks {
		if check.err != nil {
			return adoerrors.NewConfigErrorWithCause(check.field, check.err.Error(), check.err)
		}
	}
	return nil
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// setDefaults sets default configuration values
func setDefaults() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Fall back to current directory if home dir can't be determined
		homeDir = "."
	}

	// DevOps defaults (connection values come from 'adopr login' unless overridden)
	viper.SetDefault("devops.app_id", "adopr")
	viper.SetDefault("devops.organization", "")
	viper.SetDefault("devops.project", "")
	viper.SetDefault("devops.token", "")
	viper.SetDefault("devops.default_target_branch", "stage")
	viper.SetDefault("devops.timeout", time.Duration(0))

	// Credential store defaults
	viper.SetDefault("credentials.store", "auto")
	viper.SetDefault("credentials.path", filepath.Join(homeDir, ".config", "adopr", "credentials.toml"))

	// Log defaults
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "text")

	// Output defaults
	viper.SetDefault("output.format", "tree")
	viper.SetDefault("output.expand", false)

	// Update defaults
	viper.SetDefault("update.repository", "thoreinstein/adopr")
	viper.SetDefault("update.prerelease", false)
}

// expandPath expands ~ to home directory
func expandPath(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, path[1:]), nil
}
