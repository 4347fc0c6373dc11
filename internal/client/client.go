// Package client is the Go SDK for a running doc2mcp server, used by the
// CLI commands and usable by other tooling in this module.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/doc2mcp/doc2mcp/internal/errs"
	"github.com/doc2mcp/doc2mcp/internal/index"
	"github.com/doc2mcp/doc2mcp/internal/project"
)

// Client talks to a doc2mcp server over its JSON API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 60 * time.Second},
	}
}

// CreateProject uploads a new project. The response carries the plaintext
// API token; it is shown once and cannot be recovered later.
func (c *Client) CreateProject(ctx context.Context, name, description string, files []project.FileUpload) (*project.Project, error) {
	body := map[string]any{"name": name, "description": description, "files": files}
	var p project.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProject fetches a project by slug or ID.
func (c *Client) GetProject(ctx context.Context, slugOrID string) (*project.Project, error) {
	var p project.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects/"+url.PathEscape(slugOrID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects fetches all projects.
func (c *Client) ListProjects(ctx context.Context) ([]project.Project, error) {
	var projects []project.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// Reupload replaces a project's documents and restarts ingestion.
func (c *Client) Reupload(ctx context.Context, slugOrID string, files []project.FileUpload) (*project.Project, error) {
	body := map[string]any{"files": files}
	var p project.Project
	if err := c.do(ctx, http.MethodPost, "/api/projects/"+url.PathEscape(slugOrID)+"/upload", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// MCPEndpoint returns the stable retrieval URL for a project.
func (c *Client) MCPEndpoint(ctx context.Context, slugOrID string) (string, error) {
	p, err := c.GetProject(ctx, slugOrID)
	if err != nil {
		return "", err
	}
	return p.MCPEndpoint, nil
}

// SearchResponse is the server's answer to a search request.
type SearchResponse struct {
	Project string         `json:"project"`
	Query   string         `json:"query"`
	Results []index.Result `json:"results"`
}

// Search queries a project's index with its API token.
func (c *Client) Search(ctx context.Context, slug, token, query string, limit int) (*SearchResponse, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/search/"+url.PathEscape(slug)+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var resp SearchResponse
	if err := c.send(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WaitReady polls until the project reaches a terminal status or the context
// expires. A failed ingestion is returned as an ingestion_failed error.
func (c *Client) WaitReady(ctx context.Context, slugOrID string, interval time.Duration) (*project.Project, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p, err := c.GetProject(ctx, slugOrID)
		if err != nil {
			return nil, err
		}
		switch p.Status {
		case project.StatusReady:
			return p, nil
		case project.StatusFailed:
			return p, errs.Newf(errs.KindIngestionFailed, "ingestion failed: %s", p.Error)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// send executes the request and decodes either the payload or the server's
// structured error.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return errs.FromJSON(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
