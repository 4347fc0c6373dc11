package project

import "time"

// Status is the lifecycle state of a project's current ingestion attempt.
// Transitions are monotonic: uploading -> processing -> ready | failed.
// A re-upload starts a fresh cycle at uploading with a bumped generation.
type Status string

const (
	StatusUploading  Status = "uploading"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status ends an ingestion attempt.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

// Project is a named, credentialed collection of ingested documents with one
// current chunk index and lifecycle status.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	FileCount   int       `json:"file_count"`
	Generation  int       `json:"generation"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// APIToken is populated only when the project is created; at rest only
	// its SHA-256 hash is stored.
	APIToken string `json:"api_token,omitempty"`

	// MCPEndpoint is the stable retrieval URL, filled in by the API layer.
	MCPEndpoint string `json:"mcp_endpoint,omitempty"`

	tokenHash string
}

// SourceFile is one uploaded document in a project's manifest.
type SourceFile struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Ordinal   int    `json:"ordinal"`
	Name      string `json:"name"`
	Content   []byte `json:"-"`
}

// FileUpload is the (name, content) pair accepted by project creation.
type FileUpload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// IngestionError records a per-file failure absorbed during ingestion.
type IngestionError struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Generation int       `json:"generation"`
	FileName   string    `json:"file_name"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
