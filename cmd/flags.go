package cmd

import (
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"

	"thoreinstein.com/adopr/pkg/config"
	"thoreinstein.com/adopr/pkg/pullrequest"
)

// viewsValue is a repeatable, comma-separated --view flag.
type viewsValue struct {
	views []pullrequest.View
}

var _ pflag.Value = (*viewsValue)(nil)

func (v *viewsValue) String() string {
	names := make([]string, 0, len(v.views))
	for _, view := range v.views {
		names = append(names, string(view))
	}
	return strings.Join(names, ",")
}

func (v *viewsValue) Set(s string) error {
	for _, name := range strings.Split(s, ",") {
		view := pullrequest.View(strings.ToLower(strings.TrimSpace(name)))
		if !slices.Contains(pullrequest.AllViews, view) {
			return errors.Newf("unknown view %q (want mine, reviewing or all)", name)
		}
		if !slices.Contains(v.views, view) {
			v.views = append(v.views, view)
		}
	}
	return nil
}

func (v *viewsValue) Type() string {
	return "view"
}

// Selected returns the chosen views in display order, or every view when
// none was given.
func (v *viewsValue) Selected() []pullrequest.View {
	if len(v.views) == 0 {
		return pullrequest.AllViews
	}
	out := make([]pullrequest.View, 0, len(v.views))
	for _, view := range pullrequest.AllViews {
		if slices.Contains(v.views, view) {
			out = append(out, view)
		}
	}
	return out
}

// outputValue is the --output flag.
type outputValue struct {
	format string
}

var _ pflag.Value = (*outputValue)(nil)

func (o *outputValue) String() string {
	return o.format
}

func (o *outputValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	if !slices.Contains(config.ValidOutputFormats, s) {
		return errors.Newf("unknown output format %q (want %s)", s, strings.Join(config.ValidOutputFormats, ", "))
	}
	o.format = s
	return nil
}

func (o *outputValue) Type() string {
	return "format"
}

// Or returns the chosen format, or fallback when none was given.
func (o *outputValue) Or(fallback string) string {
	if o.format == "" {
		return fallback
	}
	return o.format
}
