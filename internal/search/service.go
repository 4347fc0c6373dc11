// Package search answers ranked queries against a project's published index,
// gated by the project's API credential.
package search

import (
	"context"
	"strings"

	"github.com/doc2mcp/doc2mcp/internal/errs"
	"github.com/doc2mcp/doc2mcp/internal/index"
	"github.com/doc2mcp/doc2mcp/internal/project"
)

// Service authenticates and executes searches.
type Service struct {
	store *project.Store
	index *index.Index
}

// NewService creates a search service over the given store and index.
func NewService(store *project.Store, idx *index.Index) *Service {
	return &Service{store: store, index: idx}
}

// Search resolves the project, verifies the token, and returns ranked
// results. Checks run in a fixed order so a caller holding no valid token
// learns nothing beyond the project's existence: not found, then
// unauthorized, then readiness.
func (s *Service) Search(ctx context.Context, slugOrID, token, query string, limit int) ([]index.Result, error) {
	p, err := s.resolve(ctx, slugOrID)
	if err != nil {
		return nil, err
	}
	if !p.VerifyToken(token) {
		return nil, errs.New(errs.KindUnauthorized, "invalid or missing api token")
	}
	return s.query(ctx, p, query, limit)
}

// SearchLocal skips token verification. It backs the MCP stdio server, which
// runs on the operator's own machine against their own database.
func (s *Service) SearchLocal(ctx context.Context, slugOrID, query string, limit int) ([]index.Result, error) {
	p, err := s.resolve(ctx, slugOrID)
	if err != nil {
		return nil, err
	}
	return s.query(ctx, p, query, limit)
}

func (s *Service) resolve(ctx context.Context, slugOrID string) (*project.Project, error) {
	p, err := s.store.GetBySlug(ctx, slugOrID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p, err = s.store.GetByID(ctx, slugOrID)
		if err != nil {
			return nil, err
		}
	}
	if p == nil {
		return nil, errs.Newf(errs.KindNotFound, "project %s not found", slugOrID)
	}
	return p, nil
}

func (s *Service) query(ctx context.Context, p *project.Project, query string, limit int) ([]index.Result, error) {
	switch p.Status {
	case project.StatusReady:
	case project.StatusFailed:
		return nil, errs.Newf(errs.KindNotReady, "project %s failed ingestion: %s", p.Slug, p.Error)
	default:
		return nil, errs.Newf(errs.KindNotReady, "project %s is still %s", p.Slug, p.Status)
	}

	if strings.TrimSpace(query) == "" {
		return []index.Result{}, nil
	}
	return s.index.Search(ctx, p.ID, query, limit)
}
