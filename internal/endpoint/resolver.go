// Package endpoint derives the stable retrieval URL advertised for each
// project. The URL is a pure function of the configured base URL and the
// project slug, so it survives re-uploads and restarts.
package endpoint

import (
	"net/url"
	"strings"
)

// Resolver builds retrieval URLs under a fixed base.
type Resolver struct {
	base string
}

// NewResolver creates a resolver for the given base URL, e.g.
// "http://localhost:5000".
func NewResolver(baseURL string) *Resolver {
	return &Resolver{base: strings.TrimRight(baseURL, "/")}
}

// For returns the retrieval URL for a project slug.
func (r *Resolver) For(slug string) string {
	u, err := url.Parse(r.base)
	if err != nil {
		return r.base + "/mcp/" + slug
	}
	return u.JoinPath("mcp", slug).String()
}
