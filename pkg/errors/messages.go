package errors

import (
	"fmt"
	"strings"
)

// FormatUserError returns a user-friendly error message with actionable guidance.
// It examines the error chain and provides context-appropriate help text.
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}

	var preErr *PreconditionError
	if As(err, &preErr) {
		return formatPreconditionError(preErr)
	}

	var authErr *AuthError
	if As(err, &authErr) {
		return formatAuthError(authErr)
	}

	var configErr *ConfigError
	if As(err, &configErr) {
		return formatConfigError(configErr)
	}

	var lookupErr *LookupError
	if As(err, &lookupErr) {
		return formatLookupError(lookupErr)
	}

	var devopsErr *DevOpsError
	if As(err, &devopsErr) {
		return formatDevOpsError(devopsErr)
	}

	var storeErr *StoreError
	if As(err, &storeErr) {
		return formatStoreError(storeErr)
	}

	// Default: return the error message as-is
	return err.Error()
}

func formatPreconditionError(err *PreconditionError) string {
	var b strings.Builder

	b.WriteString(err.Error())
	b.WriteString("\n\nTo fix this:\n")
	b.WriteString("  • Run 'adopr login' to store your organization, project and token\n")
	b.WriteString("  • Or set ADOPR_DEVOPS_ORGANIZATION, ADOPR_DEVOPS_PROJECT and AZURE_DEVOPS_EXT_PAT\n")

	return b.String()
}

func formatAuthError(err *AuthError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Could not sign in to Azure DevOps: %s\n", err.Message)
	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Check that the organization URL is reachable (https://dev.azure.com/<org>)\n")
	b.WriteString("  • Create a new personal access token with Code (Read & Write) scope\n")
	b.WriteString("  • Run 'adopr login' again\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

// formatConfigError formats a ConfigError with actionable guidance.
func formatConfigError(err *ConfigError) string {
	var b strings.Builder

	if err.Field != "" {
		fmt.Fprintf(&b, "Configuration error in '%s': %s\n", err.Field, err.Message)
	} else {
		fmt.Fprintf(&b, "Configuration error: %s\n", err.Message)
	}

	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Check your config file: ~/.config/adopr/config.toml\n")
	b.WriteString("  • Check any repository config: .adopr.toml\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}

func formatLookupError(err *LookupError) string {
	var b strings.Builder

	b.WriteString(err.Error())
	b.WriteString("\n")

	if err.Kind == "repository" {
		b.WriteString("\nTo fix this:\n")
		b.WriteString("  • Repository names must match exactly, including case\n")
		b.WriteString("  • Check that the repository belongs to the configured project\n")
	}

	return b.String()
}

// formatDevOpsError formats a DevOpsError with actionable guidance based on status code.
// The API message comes first and unchanged.
func formatDevOpsError(err *DevOpsError) string {
	var b strings.Builder

	b.WriteString(err.Message)
	b.WriteString("\n")

	switch err.StatusCode {
	case 401:
		b.WriteString("\nAuthentication failed. To fix this:\n")
		b.WriteString("  • Run 'adopr login' to store a fresh personal access token\n")
		b.WriteString("  • Or set the AZURE_DEVOPS_EXT_PAT environment variable\n")

	case 403:
		b.WriteString("\nPermission denied. To fix this:\n")
		b.WriteString("  • Ensure your token has the Code (Read & Write) scope\n")
		b.WriteString("  • Ensure you can contribute to pull requests in this project\n")

	case 404:
		b.WriteString("\nResource not found. To fix this:\n")
		b.WriteString("  • Verify the organization URL and project name\n")
		b.WriteString("  • Ensure both branches exist in the repository\n")

	case 409:
		b.WriteString("\nConflict. An active pull request may already exist for these branches.\n")
	}

	if err.Transient() {
		b.WriteString("\nThis error may be temporary. You can try running the command again.\n")
	}

	return b.String()
}

func formatStoreError(err *StoreError) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Credential store error: %s\n", err.Message)
	b.WriteString("\nTo fix this:\n")
	b.WriteString("  • Set credentials.store = \"file\" in ~/.config/adopr/config.toml\n")
	b.WriteString("  • Or unlock your system keychain and try again\n")

	if err.Cause != nil {
		fmt.Fprintf(&b, "\nUnderlying error: %v", err.Cause)
	}

	return b.String()
}
