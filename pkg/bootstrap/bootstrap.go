package bootstrap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	"thoreinstein.com/adopr/pkg/config"
	"thoreinstein.com/adopr/pkg/git"
)

// LocalConfigName is the repository-local config file merged over the user config.
const LocalConfigName = ".adopr.toml"

// Stderr receives bootstrap diagnostics. Logging is not configured yet when
// these are written, so they go straight to the terminal.
var Stderr io.Writer = os.Stderr

var (
	lastLoadedConfig  string
	lastLoadedVerbose bool
	loadedConfig      *config.Config
)

// PreParseGlobalFlags scans args for --config and --verbose before cobra runs.
// Scanning stops at the first non-flag argument or at "--".
func PreParseGlobalFlags(args []string) (string, bool) {
	var cfgFile string
	var verbose bool

	for i := 1; i < len(args); i++ {
		arg := args[i]
		if arg == "--" || !strings.HasPrefix(arg, "-") {
			break
		}

		switch {
		case arg == "--config" || arg == "-C":
			if i+1 < len(args) {
				cfgFile = args[i+1]
				i++
			}
		case strings.HasPrefix(arg, "--config="):
			cfgFile = strings.TrimPrefix(arg, "--config=")
		case strings.HasPrefix(arg, "-C="):
			cfgFile = strings.TrimPrefix(arg, "-C=")
		case strings.HasPrefix(arg, "-C") && len(arg) > 2:
			cfgFile = arg[2:]
		case arg == "--verbose" || arg == "-v":
			verbose = true
		}
	}

	return cfgFile, verbose
}

// InitConfig reads the user config file, the repository-local config and
// ADOPR_* environment variables, then loads and validates the result.
func InitConfig(cfgFile string, verbose bool) (*config.Config, error) {
	if os.Getenv("GO_TEST") != "true" && loadedConfig != nil && cfgFile == lastLoadedConfig && verbose == lastLoadedVerbose {
		return loadedConfig, nil
	}

	viper.Reset()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := ConfigDir()
		if err != nil {
			return nil, err
		}
		viper.AddConfigPath(dir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("ADOPR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrapf(err, "failed to read config %s", cfgFile)
		}
	} else if verbose {
		fmt.Fprintln(Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	LoadRepoLocalConfig(verbose)

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	for _, w := range config.CheckSecurityWarnings(cfg) {
		fmt.Fprintf(Stderr, "Warning: %s\n", w.Message)
	}

	lastLoadedConfig = cfgFile
	lastLoadedVerbose = verbose
	loadedConfig = cfg

	return cfg, nil
}

// ConfigDir returns ~/.config/adopr.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get home directory")
	}
	return filepath.Join(home, ".config", "adopr"), nil
}

// LoadRepoLocalConfig merges .adopr.toml from the repository root and, when
// different, the current directory. Later files win.
func LoadRepoLocalConfig(verbose bool) {
	for _, configPath := range localConfigPaths() {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		local := viper.New()
		local.SetConfigFile(configPath)
		if err := local.ReadInConfig(); err != nil {
			if verbose {
				fmt.Fprintf(Stderr, "Warning: could not read local config %s: %v\n", configPath, err)
			}
			continue
		}

		if verbose {
			fmt.Fprintf(Stderr, "Using repository config: %s\n", configPath)
		}

		if err := viper.MergeConfigMap(local.AllSettings()); err != nil && verbose {
			fmt.Fprintf(Stderr, "Warning: could not merge local config: %v\n", err)
		}
	}
}

func localConfigPaths() []string {
	cwd, err := os.Getwd()
	if err != nil {
		return []string{LocalConfigName}
	}

	root := git.FindRoot(cwd)
	if root == "" || root == cwd {
		return []string{filepath.Join(cwd, LocalConfigName)}
	}
	return []string{filepath.Join(root, LocalConfigName), filepath.Join(cwd, LocalConfigName)}
}

// Reset clears the cached configuration state.
func Reset() {
	lastLoadedConfig = ""
	lastLoadedVerbose = false
	loadedConfig = nil
}
