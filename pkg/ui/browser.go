package ui

import (
	"io"

	"github.com/cli/browser"
	"github.com/cockroachdb/errors"
)

// Opener hands a URL to the system.
type Opener interface {
	Open(url string) error
}

// BrowserOpener opens URLs in the default browser.
type BrowserOpener struct{}

// NewBrowserOpener creates an opener that discards the launcher's output.
func NewBrowserOpener() *BrowserOpener {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return &BrowserOpener{}
}

// Open launches url.
func (BrowserOpener) Open(url string) error {
	if url == "" {
		return errors.New("no URL to open")
	}
	if err := browser.OpenURL(url); err != nil {
		return errors.Wrapf(err, "failed to open %s", url)
	}
	return nil
}
