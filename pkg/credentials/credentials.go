// Package credentials keeps the Azure DevOps organization URL, project name
// and personal access token between runs.
package credentials

import (
	validation "github.com/go-ozzo/ozzo-validation"

	adoerrors "thoreinstein.com/adopr/pkg/errors"
)

// Field identifies one of the three stored credential values.
type Field int

const (
	FieldOrganization Field = iota
	FieldProject
	FieldToken
)

// Fields lists every credential field in prompt order.
var Fields = []Field{FieldOrganization, FieldProject, FieldToken}

// Label is the human name used in prompts and messages.
func (f Field) Label() string {
	switch f {
	case FieldOrganization:
		return "organization URL"
	case FieldProject:
		return "project name"
	case FieldToken:
		return "access token"
	default:
		return "unknown"
	}
}

// Keys are the storage keys for each field, namespaced by application id.
type Keys struct {
	Organization string
	Project      string
	Token        string
}

// KeysFor returns the storage keys for appID.
func KeysFor(appID string) Keys {
	return Keys{
		Organization: appID + ".azure_org_key",
		Project:      appID + ".azure_project_key",
		Token:        appID + ".azure_pat",
	}
}

// For returns the storage key of f.
func (k Keys) For(f Field) string {
	switch f {
	case FieldOrganization:
		return k.Organization
	case FieldProject:
		return k.Project
	default:
		return k.Token
	}
}

// Credentials is a snapshot of the values needed to reach Azure DevOps.
type Credentials struct {
	OrganizationURL string `json:"organization_url"`
	ProjectName     string `json:"project_name"`
	AccessToken     string `json:"access_token"`
}

// Get returns the value of f.
func (c Credentials) Get(f Field) string {
	switch f {
	case FieldOrganization:
		return c.OrganizationURL
	case FieldProject:
		return c.ProjectName
	default:
		return c.AccessToken
	}
}

// Validate reports a PreconditionError naming every empty field.
// Only presence is checked.
func (c Credentials) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.OrganizationURL, validation.Required),
		validation.Field(&c.ProjectName, validation.Required),
		validation.Field(&c.AccessToken, validation.Required),
	)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validation.Errors)
	if !ok {
		return err
	}

	tags := [...]string{
		FieldOrganization: "organization_url",
		FieldProject:      "project_name",
		FieldToken:        "access_token",
	}

	missing := make([]string, 0, len(fieldErrs))
	for _, f := range Fields {
		if fieldErrs[tags[f]] != nil {
			missing = append(missing, f.Label())
		}
	}

	return adoerrors.NewPreconditionError(missing...)
}

// Complete reports whether every field is set.
func (c Credentials) Complete() bool {
	return c.Validate() == nil
}
