// Package ingest turns a project's uploaded manifest into a published chunk
// index. Runs are asynchronous, single-flight per project, and drive the
// project status machine from processing to a terminal ready or failed.
package ingest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/doc2mcp/doc2mcp/internal/chunker"
	"github.com/doc2mcp/doc2mcp/internal/index"
	"github.com/doc2mcp/doc2mcp/internal/project"
)

const (
	swapAttempts    = 3
	swapBackoffBase = 500 * time.Millisecond
)

// Pipeline coordinates background ingestion runs.
type Pipeline struct {
	store *project.Store
	index *index.Index
	cfg   chunker.Config
	hub   *project.Hub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running map[string]bool
	rerun   map[string]bool
}

// New creates an ingestion pipeline over the given store and index.
func New(store *project.Store, idx *index.Index, cfg chunker.Config, hub *project.Hub) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		store:   store,
		index:   idx,
		cfg:     cfg,
		hub:     hub,
		ctx:     ctx,
		cancel:  cancel,
		running: make(map[string]bool),
		rerun:   make(map[string]bool),
	}
}

// Enqueue schedules an ingestion run for the project. At most one run per
// project is in flight; enqueueing during a run marks it for one rerun, so a
// re-upload that races an active run still gets processed afterwards.
func (pl *Pipeline) Enqueue(projectID string) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if pl.running[projectID] {
		pl.rerun[projectID] = true
		return
	}
	pl.running[projectID] = true
	pl.wg.Add(1)
	go pl.run(projectID)
}

func (pl *Pipeline) run(projectID string) {
	defer pl.wg.Done()
	for {
		pl.ingest(projectID)

		pl.mu.Lock()
		if pl.rerun[projectID] {
			pl.rerun[projectID] = false
			pl.mu.Unlock()
			continue
		}
		delete(pl.running, projectID)
		pl.mu.Unlock()
		return
	}
}

// Wait blocks until all in-flight runs complete. Intended for tests and
// graceful shutdown.
func (pl *Pipeline) Wait() {
	pl.wg.Wait()
}

// Close cancels in-flight runs and waits for them to exit.
func (pl *Pipeline) Close() {
	pl.cancel()
	pl.wg.Wait()
}

func (pl *Pipeline) ingest(projectID string) {
	ctx := pl.ctx

	p, err := pl.store.GetByID(ctx, projectID)
	if err != nil {
		log.Printf("ingest: loading project %s: %v", projectID, err)
		return
	}
	if p == nil {
		log.Printf("ingest: project %s no longer exists", projectID)
		return
	}

	switch p.Status {
	case project.StatusUploading:
		if err := pl.setStatus(ctx, p, project.StatusProcessing, ""); err != nil {
			log.Printf("ingest: project %s: %v", projectID, err)
			return
		}
	case project.StatusReady:
		// Restart recovery: the status is already terminal but the
		// in-memory index is gone. Rebuild it without touching status.
		if err := pl.rebuild(ctx, p); err != nil {
			log.Printf("ingest: rebuilding index for project %s: %v", projectID, err)
		}
		return
	case project.StatusFailed:
		return
	}

	chunks, failed, total, err := pl.chunkManifest(ctx, p)
	if err != nil {
		log.Printf("ingest: project %s: %v", projectID, err)
		return
	}

	// A project must never become ready with nothing to search.
	if len(chunks) == 0 {
		msg := fmt.Sprintf("no indexable content: %d of %d files failed, the rest were empty", failed, total)
		if failed == total {
			msg = fmt.Sprintf("all %d files failed to process", total)
		}
		if err := pl.setStatus(ctx, p, project.StatusFailed, msg); err != nil {
			log.Printf("ingest: project %s: %v", projectID, err)
		}
		return
	}

	if err := pl.swapWithRetry(ctx, p, chunks); err != nil {
		if err := pl.setStatus(ctx, p, project.StatusFailed, err.Error()); err != nil {
			log.Printf("ingest: project %s: %v", projectID, err)
		}
		return
	}

	if err := pl.setStatus(ctx, p, project.StatusReady, ""); err != nil {
		log.Printf("ingest: project %s: %v", projectID, err)
	}
}

// chunkManifest splits every file of the project's manifest. Per-file
// failures are recorded and skipped; only the failure of every file is fatal
// to the run.
func (pl *Pipeline) chunkManifest(ctx context.Context, p *project.Project) (chunks []index.Chunk, failed, total int, err error) {
	files, err := pl.store.SourceFiles(ctx, p.ID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("loading manifest: %w", err)
	}

	for _, f := range files {
		split, err := chunker.Split(f.Name, string(f.Content), pl.cfg)
		if err != nil {
			failed++
			reason := err.Error()
			if recErr := pl.store.RecordIngestionError(ctx, p.ID, p.Generation, f.Name, reason); recErr != nil {
				log.Printf("ingest: recording error for %s/%s: %v", p.ID, f.Name, recErr)
			}
			continue
		}
		for _, c := range split {
			chunks = append(chunks, index.Chunk{
				Source:    f.Name,
				Ordinal:   f.Ordinal,
				Offset:    c.Offset,
				Content:   c.Content,
				EmbedText: c.EmbedText,
			})
		}
	}
	return chunks, failed, len(files), nil
}

// swapWithRetry publishes the new index, retrying transient failures with
// exponential backoff before giving up.
func (pl *Pipeline) swapWithRetry(ctx context.Context, p *project.Project, chunks []index.Chunk) error {
	var lastErr error
	for attempt := 0; attempt < swapAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(swapBackoffBase << (attempt - 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if lastErr = pl.index.Swap(ctx, p.ID, p.Generation, chunks); lastErr == nil {
			return nil
		}
		log.Printf("ingest: indexing attempt %d for project %s: %v", attempt+1, p.ID, lastErr)
	}
	return fmt.Errorf("indexing failed after %d attempts: %w", swapAttempts, lastErr)
}

// rebuild re-publishes the index for an already-ready project without
// status changes.
func (pl *Pipeline) rebuild(ctx context.Context, p *project.Project) error {
	chunks, _, _, err := pl.chunkManifest(ctx, p)
	if err != nil {
		return err
	}
	return pl.index.Swap(ctx, p.ID, p.Generation, chunks)
}

func (pl *Pipeline) setStatus(ctx context.Context, p *project.Project, to project.Status, errMsg string) error {
	if err := pl.store.UpdateStatus(ctx, p.ID, to, errMsg); err != nil {
		return err
	}
	pl.hub.Publish(project.Event{
		ProjectID:  p.ID,
		Status:     to,
		Generation: p.Generation,
		Error:      errMsg,
	})
	return nil
}
