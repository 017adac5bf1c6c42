package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"

	"thoreinstein.com/adopr/pkg/ui"
)

const (
	repoOwner = "thoreinstein"
	repoName  = "adopr"
)

var (
	updateCheck bool
	updateForce bool
	updatePre   bool
	updateYes   bool
)

// updateCmd replaces the running binary with the latest release.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update adopr to the latest release",
	Long: `Check GitHub releases for a newer adopr and install it.

The release archive for your platform is downloaded, verified against the
published checksums, and the running binary is replaced in place. The
repository can be changed with update.repository in the config file.

Examples:
  adopr update           # Update after confirmation
  adopr update --check   # Only report whether an update exists
  adopr update --yes     # Update without asking
  adopr update --force   # Reinstall even when up to date
  adopr update --pre     # Consider pre-release versions`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUpdateCommand(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)

	updateCmd.Flags().BoolVarP(&updateCheck, "check", "c", false, "Check for updates without installing")
	updateCmd.Flags().BoolVarP(&updateForce, "force", "f", false, "Force update even when already on the latest version")
	updateCmd.Flags().BoolVarP(&updatePre, "pre", "p", false, "Include pre-release versions")
	updateCmd.Flags().BoolVarP(&updateYes, "yes", "y", false, "Skip the confirmation prompt")
}

// GetVersion returns the version of the running binary.
func GetVersion() string {
	return Version
}

// updateSlug returns the owner/name repository releases are fetched from.
func updateSlug() string {
	if cfg, err := loadConfig(); err == nil && cfg.Update.Repository != "" {
		return cfg.Update.Repository
	}
	return repoOwner + "/" + repoName
}

func includePrereleases() bool {
	if updatePre {
		return true
	}
	cfg, err := loadConfig()
	return err == nil && cfg.Update.Prerelease
}

func runUpdateCommand(ctx context.Context, w io.Writer) error {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return errors.Wrap(err, "failed to create release source")
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Validator:  &selfupdate.ChecksumValidator{UniqueFilename: "checksums.txt"},
		Prerelease: includePrereleases(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create updater")
	}

	slug := updateSlug()
	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(slug))
	if err != nil {
		return errors.Wrapf(err, "failed to check releases of %s", slug)
	}
	if !found {
		fmt.Fprintf(w, "No release found for %s.\n", slug)
		return nil
	}

	current := GetVersion()
	if !needsUpdate(current, latest.Version(), updateForce) {
		fmt.Fprintf(w, "adopr %s is up to date.\n", current)
		return nil
	}

	if updateCheck {
		fmt.Fprintf(w, "adopr %s is available (current: %s).\n", latest.Version(), current)
		if latest.URL != "" {
			fmt.Fprintf(w, "Release notes: %s\n", latest.URL)
		}
		return nil
	}

	if !updateYes && !confirmUpdate(current, latest.Version()) {
		fmt.Fprintln(w, "Update cancelled.")
		return nil
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return errors.Wrap(err, "could not locate the running binary")
	}

	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return errors.Wrapf(err, "failed to update to %s", latest.Version())
	}

	fmt.Fprintf(w, "Updated adopr to %s.\n", latest.Version())
	return nil
}

// needsUpdate reports whether latest should replace current. A current
// version that is not semver (such as "dev") is always replaced.
func needsUpdate(current, latest string, force bool) bool {
	if force {
		return true
	}

	cur, err := semver.NewVersion(current)
	if err != nil {
		return true
	}
	next, err := semver.NewVersion(latest)
	if err != nil {
		return false
	}
	return next.GreaterThan(cur)
}

// confirmUpdate asks on stdin whether to install newVersion.
func confirmUpdate(currentVersion, newVersion string) bool {
	question := fmt.Sprintf("Update adopr from %s to %s?", strings.TrimPrefix(currentVersion, "v"), strings.TrimPrefix(newVersion, "v"))

	prompter := ui.NewPrompter(os.Stdin, os.Stdout, nil)
	ok, err := prompter.Confirm(context.Background(), question, false)
	return err == nil && ok
}
