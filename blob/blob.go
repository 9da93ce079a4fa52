// Package blob fetches raw documents by locator: a local path, an http(s)
// URL or an s3://bucket/key URI.
package blob

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
)

var (
	// ErrUnsupportedLocator is returned when no fetcher handles a locator's scheme.
	ErrUnsupportedLocator = errors.New("unsupported locator")

	// ErrFetchFailed wraps failures while retrieving a document.
	ErrFetchFailed = errors.New("fetch failed")
)

// Object is a fetched document.
type Object struct {
	Data        []byte
	ContentType string
}

// Fetcher retrieves the document behind a locator.
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (*Object, error)
}

// Router dispatches locators to fetchers by scheme.
type Router struct {
	fetchers map[string]Fetcher
}

// NewRouter creates a router. A nil fetcher leaves its schemes unsupported.
func NewRouter(file, web, s3 Fetcher) *Router {
	r := &Router{fetchers: map[string]Fetcher{}}
	if file != nil {
		r.fetchers["file"] = file
	}
	if web != nil {
		r.fetchers["http"] = web
		r.fetchers["https"] = web
	}
	if s3 != nil {
		r.fetchers["s3"] = s3
	}
	return r
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, locator string) (*Object, error) {
	scheme := Scheme(locator)
	f, ok := r.fetchers[scheme]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLocator, locator)
	}
	return f.Fetch(ctx, locator)
}

// Scheme returns the lowercased scheme of locator, or "file" when it has none.
func Scheme(locator string) string {
	scheme, _, found := strings.Cut(locator, "://")
	if !found || strings.ContainsAny(scheme, `/\`) {
		return "file"
	}
	return strings.ToLower(scheme)
}

// typeByName guesses a content type from a file name.
func typeByName(name string) string {
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case ".md", ".markdown":
		return "text/markdown"
	case "":
		return ""
	}
	return mime.TypeByExtension(ext)
}
