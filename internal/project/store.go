package project

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/doc2mcp/doc2mcp/internal/db"
	"github.com/doc2mcp/doc2mcp/internal/errs"
)

// Store is the single authoritative repository for projects, their file
// manifests, and lifecycle status.
type Store struct {
	db *db.DB
}

// NewStore creates a new project store.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// allowedTransitions is the monotonic status state machine. Re-uploads do not
// pass through here; they reset the cycle atomically in Reupload.
var allowedTransitions = map[Status][]Status{
	StatusUploading:  {StatusProcessing},
	StatusProcessing: {StatusReady, StatusFailed},
}

// Create validates the manifest, derives a unique slug, mints the project's
// API token, and persists the project with its source files in one
// transaction. The returned Project carries the plaintext token; only its
// hash is stored.
func (s *Store) Create(ctx context.Context, name, description string, files []FileUpload) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errs.New(errs.KindValidation, "project name is required")
	}
	if len(files) == 0 {
		return nil, errs.New(errs.KindValidation, "at least one file is required")
	}
	for _, f := range files {
		if strings.TrimSpace(f.Name) == "" {
			return nil, errs.New(errs.KindValidation, "every file needs a name")
		}
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("generating api token: %w", err)
	}

	now := time.Now().UTC()
	p := &Project{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Status:      StatusUploading,
		FileCount:   len(files),
		Generation:  1,
		CreatedAt:   now,
		UpdatedAt:   now,
		APIToken:    token,
		tokenHash:   tokenHash,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	slug, err := s.uniqueSlug(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	p.Slug = slug

	_, err = tx.ExecContext(ctx,
		`INSERT INTO projects (id, name, slug, description, status, token_hash, file_count, generation, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Slug, p.Description, p.Status, p.tokenHash, p.FileCount, p.Generation, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}

	if err := insertFiles(ctx, tx, p.ID, files); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing project: %w", err)
	}
	return p, nil
}

// uniqueSlug resolves slug collisions deterministically with a counter
// suffix: docs, docs-2, docs-3, ...
func (s *Store) uniqueSlug(ctx context.Context, tx *sql.Tx, name string) (string, error) {
	base := Slugify(name)
	slug := base
	for i := 2; ; i++ {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects WHERE slug = ?`, slug).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("checking slug %q: %w", slug, err)
		}
		if exists == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func insertFiles(ctx context.Context, tx *sql.Tx, projectID string, files []FileUpload) error {
	for i, f := range files {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO source_files (id, project_id, ordinal, name, content) VALUES (?, ?, ?, ?, ?)`,
			uuid.New().String(), projectID, i, f.Name, []byte(f.Content),
		)
		if err != nil {
			return fmt.Errorf("inserting file %q: %w", f.Name, err)
		}
	}
	return nil
}

const projectColumns = `id, name, slug, description, status, token_hash, file_count, generation, error, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &p.Status, &p.tokenHash,
		&p.FileCount, &p.Generation, &p.Error, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	return &p, nil
}

// GetByID retrieves a project by its ID. Returns nil when not found.
func (s *Store) GetByID(ctx context.Context, id string) (*Project, error) {
	return scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
}

// GetBySlug retrieves a project by its slug. Returns nil when not found.
func (s *Store) GetBySlug(ctx context.Context, slug string) (*Project, error) {
	return scanProject(s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE slug = ?`, slug))
}

// List returns all projects, newest first.
func (s *Store) List(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateStatus advances a project's status. Only forward transitions of the
// state machine are accepted; anything else is an error so callers can never
// move a project backward.
func (s *Store) UpdateStatus(ctx context.Context, id string, to Status, errMsg string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var from Status
	err = tx.QueryRowContext(ctx, `SELECT status FROM projects WHERE id = ?`, id).Scan(&from)
	if err == sql.ErrNoRows {
		return errs.Newf(errs.KindNotFound, "project %s not found", id)
	}
	if err != nil {
		return fmt.Errorf("reading status: %w", err)
	}

	if !transitionAllowed(from, to) {
		return fmt.Errorf("illegal status transition %s -> %s for project %s", from, to, id)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE projects SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		to, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return tx.Commit()
}

func transitionAllowed(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reupload replaces the project's manifest wholesale and starts a fresh
// ingestion cycle: status back to uploading, generation bumped, error
// cleared. The slug and token never change.
func (s *Store) Reupload(ctx context.Context, id string, files []FileUpload) (*Project, error) {
	if len(files) == 0 {
		return nil, errs.New(errs.KindValidation, "at least one file is required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := scanProject(tx.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errs.Newf(errs.KindNotFound, "project %s not found", id)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM source_files WHERE project_id = ?`, id); err != nil {
		return nil, fmt.Errorf("clearing manifest: %w", err)
	}
	if err := insertFiles(ctx, tx, id, files); err != nil {
		return nil, err
	}

	p.Status = StatusUploading
	p.FileCount = len(files)
	p.Generation++
	p.Error = ""
	p.UpdatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx,
		`UPDATE projects SET status = ?, file_count = ?, generation = ?, error = '', updated_at = ? WHERE id = ?`,
		p.Status, p.FileCount, p.Generation, p.UpdatedAt, id,
	)
	if err != nil {
		return nil, fmt.Errorf("resetting project: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing reupload: %w", err)
	}
	return p, nil
}

// SourceFiles returns the project's manifest in upload order.
func (s *Store) SourceFiles(ctx context.Context, projectID string) ([]SourceFile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, ordinal, name, content FROM source_files WHERE project_id = ? ORDER BY ordinal`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing source files: %w", err)
	}
	defer rows.Close()

	var files []SourceFile
	for rows.Next() {
		var f SourceFile
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Ordinal, &f.Name, &f.Content); err != nil {
			return nil, fmt.Errorf("scanning source file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// RecordIngestionError stores a per-file failure for later inspection.
func (s *Store) RecordIngestionError(ctx context.Context, projectID string, generation int, fileName, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_errors (id, project_id, generation, file_name, reason) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), projectID, generation, fileName, reason,
	)
	if err != nil {
		return fmt.Errorf("recording ingestion error: %w", err)
	}
	return nil
}

// IngestionErrors returns the recorded failures for a project's generation.
func (s *Store) IngestionErrors(ctx context.Context, projectID string, generation int) ([]IngestionError, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, generation, file_name, reason, created_at
		 FROM ingestion_errors WHERE project_id = ? AND generation = ? ORDER BY created_at, id`,
		projectID, generation,
	)
	if err != nil {
		return nil, fmt.Errorf("listing ingestion errors: %w", err)
	}
	defer rows.Close()

	var errors []IngestionError
	for rows.Next() {
		var e IngestionError
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.Generation, &e.FileName, &e.Reason, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning ingestion error: %w", err)
		}
		errors = append(errors, e)
	}
	return errors, rows.Err()
}

// VerifyToken reports whether the presented token matches the project's
// credential. Comparison is constant-time over the stored hash.
func (p *Project) VerifyToken(token string) bool {
	if token == "" || p.tokenHash == "" {
		return false
	}
	presented := hashToken(token)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(p.tokenHash)) == 1
}

// newToken mints a project API token and its storage hash.
func newToken() (token, hash string, err error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", "", err
	}
	token = "d2m_" + hex.EncodeToString(raw)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
