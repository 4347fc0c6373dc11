package project

import (
	"context"
	"strings"
	"testing"

	"github.com/doc2mcp/doc2mcp/internal/db"
	"github.com/doc2mcp/doc2mcp/internal/errs"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

var testFiles = []FileUpload{
	{Name: "readme.md", Content: "# Docs\n\nHello."},
	{Name: "api.md", Content: "API reference."},
}

func TestCreateProject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, "My API Docs", "reference docs", testFiles)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if p.ID == "" {
		t.Error("expected an ID")
	}
	if p.Slug != "my-api-docs" {
		t.Errorf("slug = %q, want my-api-docs", p.Slug)
	}
	if p.Status != StatusUploading {
		t.Errorf("status = %s, want uploading", p.Status)
	}
	if p.Generation != 1 {
		t.Errorf("generation = %d, want 1", p.Generation)
	}
	if !strings.HasPrefix(p.APIToken, "d2m_") {
		t.Errorf("token %q missing d2m_ prefix", p.APIToken)
	}
	if p.FileCount != 2 {
		t.Errorf("file_count = %d, want 2", p.FileCount)
	}

	files, err := store.SourceFiles(ctx, p.ID)
	if err != nil {
		t.Fatalf("SourceFiles: %v", err)
	}
	if len(files) != 2 || files[0].Name != "readme.md" || files[1].Name != "api.md" {
		t.Errorf("manifest order not preserved: %+v", files)
	}
}

func TestCreateValidation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		pname string
		files []FileUpload
	}{
		{"empty name", "", testFiles},
		{"blank name", "   ", testFiles},
		{"no files", "Docs", nil},
		{"unnamed file", "Docs", []FileUpload{{Name: "", Content: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.pname, "", tt.files)
			if errs.KindOf(err) != errs.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSlugCollisions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	slugs := make([]string, 3)
	for i := range slugs {
		p, err := store.Create(ctx, "API Docs", "", testFiles)
		if err != nil {
			t.Fatalf("Create %d: %v", i, err)
		}
		slugs[i] = p.Slug
	}

	if slugs[0] != "api-docs" || slugs[1] != "api-docs-2" || slugs[2] != "api-docs-3" {
		t.Errorf("unexpected slug sequence: %v", slugs)
	}
}

func TestStatusTransitionsForwardOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, "Docs", "", testFiles)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Skipping processing is illegal.
	if err := store.UpdateStatus(ctx, p.ID, StatusReady, ""); err == nil {
		t.Error("uploading -> ready must be rejected")
	}

	if err := store.UpdateStatus(ctx, p.ID, StatusProcessing, ""); err != nil {
		t.Fatalf("uploading -> processing: %v", err)
	}
	if err := store.UpdateStatus(ctx, p.ID, StatusReady, ""); err != nil {
		t.Fatalf("processing -> ready: %v", err)
	}

	// Terminal states accept nothing.
	if err := store.UpdateStatus(ctx, p.ID, StatusProcessing, ""); err == nil {
		t.Error("ready -> processing must be rejected")
	}
	if err := store.UpdateStatus(ctx, p.ID, StatusFailed, "late failure"); err == nil {
		t.Error("ready -> failed must be rejected")
	}
}

func TestUpdateStatusUnknownProject(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateStatus(context.Background(), "nope", StatusProcessing, "")
	if errs.KindOf(err) != errs.KindNotFound {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestReupload(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, "Docs", "", testFiles)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.UpdateStatus(ctx, p.ID, StatusProcessing, ""); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateStatus(ctx, p.ID, StatusFailed, "embedder unavailable"); err != nil {
		t.Fatal(err)
	}

	updated, err := store.Reupload(ctx, p.ID, []FileUpload{
		{Name: "new.md", Content: "Replacement content."},
	})
	if err != nil {
		t.Fatalf("Reupload: %v", err)
	}

	if updated.Status != StatusUploading {
		t.Errorf("status = %s, want uploading", updated.Status)
	}
	if updated.Generation != 2 {
		t.Errorf("generation = %d, want 2", updated.Generation)
	}
	if updated.Error != "" {
		t.Errorf("error should be cleared, got %q", updated.Error)
	}
	if updated.Slug != p.Slug {
		t.Error("slug must survive re-upload")
	}

	files, err := store.SourceFiles(ctx, p.ID)
	if err != nil {
		t.Fatalf("SourceFiles: %v", err)
	}
	if len(files) != 1 || files[0].Name != "new.md" {
		t.Errorf("manifest not replaced wholesale: %+v", files)
	}

	// The original token still authenticates.
	got, err := store.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.VerifyToken(p.APIToken) {
		t.Error("token must survive re-upload")
	}
}

func TestVerifyToken(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, "Docs", "", testFiles)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	loaded, err := store.GetBySlug(ctx, p.Slug)
	if err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if !loaded.VerifyToken(p.APIToken) {
		t.Error("correct token rejected")
	}
	if loaded.VerifyToken("d2m_wrong") {
		t.Error("wrong token accepted")
	}
	if loaded.VerifyToken("") {
		t.Error("empty token accepted")
	}
	if loaded.APIToken != "" {
		t.Error("plaintext token must not be stored")
	}
}

func TestIngestionErrorsScopedToGeneration(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.Create(ctx, "Docs", "", testFiles)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.RecordIngestionError(ctx, p.ID, 1, "bad.pdf", "unsupported format"); err != nil {
		t.Fatalf("RecordIngestionError: %v", err)
	}

	gen1, err := store.IngestionErrors(ctx, p.ID, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(gen1) != 1 || gen1[0].FileName != "bad.pdf" {
		t.Errorf("unexpected gen 1 errors: %+v", gen1)
	}

	gen2, err := store.IngestionErrors(ctx, p.ID, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(gen2) != 0 {
		t.Errorf("expected no gen 2 errors, got %+v", gen2)
	}
}
