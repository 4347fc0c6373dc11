package project

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/doc2mcp/doc2mcp/internal/errs"
)

// Ingestor starts asynchronous ingestion for a project. Implemented by the
// ingestion pipeline; creation handlers return before processing finishes.
type Ingestor interface {
	Enqueue(projectID string)
}

// EndpointResolver derives the stable retrieval URL for a project slug.
type EndpointResolver interface {
	For(slug string) string
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RegisterRoutes mounts the project lifecycle API.
func RegisterRoutes(r chi.Router, store *Store, ingestor Ingestor, hub *Hub, resolver EndpointResolver) {
	r.Route("/api/projects", func(r chi.Router) {
		r.Post("/", handleCreate(store, ingestor, resolver))
		r.Get("/", handleList(store, resolver))
		r.Get("/{id}", handleGet(store, resolver))
		r.Post("/{id}/upload", handleReupload(store, ingestor, resolver))
		r.Get("/{id}/errors", handleIngestionErrors(store))
		r.Get("/{id}/events", handleEvents(store, hub))
	})
}

type createRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Files       []FileUpload `json:"files"`
}

func handleCreate(store *Store, ingestor Ingestor, resolver EndpointResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errs.WriteJSON(w, errs.New(errs.KindValidation, "invalid request body"))
			return
		}

		p, err := store.Create(r.Context(), req.Name, req.Description, req.Files)
		if err != nil {
			errs.WriteJSON(w, err)
			return
		}

		// Processing happens off the request path; the client polls status.
		ingestor.Enqueue(p.ID)

		p.MCPEndpoint = resolver.For(p.Slug)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(p)
	}
}

func handleList(store *Store, resolver EndpointResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects, err := store.List(r.Context())
		if err != nil {
			errs.WriteJSON(w, err)
			return
		}
		if projects == nil {
			projects = []Project{}
		}
		for i := range projects {
			projects[i].MCPEndpoint = resolver.For(projects[i].Slug)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(projects)
	}
}

func handleGet(store *Store, resolver EndpointResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := store.GetByID(r.Context(), id)
		if err != nil {
			errs.WriteJSON(w, err)
			return
		}
		if p == nil {
			// Lookups by slug are accepted too, matching the search API.
			p, err = store.GetBySlug(r.Context(), id)
			if err != nil {
				errs.WriteJSON(w, err)
				return
			}
		}
		if p == nil {
			errs.WriteJSON(w, errs.Newf(errs.KindNotFound, "project %s not found", id))
			return
		}

		p.MCPEndpoint = resolver.For(p.Slug)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(p)
	}
}

type reuploadRequest struct {
	Files []FileUpload `json:"files"`
}

func handleReupload(store *Store, ingestor Ingestor, resolver EndpointResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		var req reuploadRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			errs.WriteJSON(w, errs.New(errs.KindValidation, "invalid request body"))
			return
		}

		p, err := store.Reupload(r.Context(), id, req.Files)
		if err != nil {
			errs.WriteJSON(w, err)
			return
		}

		ingestor.Enqueue(p.ID)

		p.MCPEndpoint = resolver.For(p.Slug)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(p)
	}
}

func handleIngestionErrors(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := store.GetByID(r.Context(), id)
		if err != nil {
			errs.WriteJSON(w, err)
			return
		}
		if p == nil {
			errs.WriteJSON(w, errs.Newf(errs.KindNotFound, "project %s not found", id))
			return
		}

		ingErrs, err := store.IngestionErrors(r.Context(), p.ID, p.Generation)
		if err != nil {
			errs.WriteJSON(w, err)
			return
		}
		if ingErrs == nil {
			ingErrs = []IngestionError{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ingErrs)
	}
}

// handleEvents streams status change events over a websocket until the
// client disconnects or the project reaches a terminal status.
func handleEvents(store *Store, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		p, err := store.GetByID(r.Context(), id)
		if err != nil {
			errs.WriteJSON(w, err)
			return
		}
		if p == nil {
			errs.WriteJSON(w, errs.Newf(errs.KindNotFound, "project %s not found", id))
			return
		}

		events, cancel := hub.Subscribe(p.ID)
		defer cancel()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Send the current state first so the client never misses a
		// transition that happened before the upgrade.
		first := Event{ProjectID: p.ID, Status: p.Status, Generation: p.Generation, Error: p.Error, Time: p.UpdatedAt}
		if err := conn.WriteJSON(first); err != nil {
			return
		}

		for ev := range events {
			if err := conn.WriteJSON(ev); err != nil {
				log.Printf("events: write to subscriber for %s failed: %v", p.ID, err)
				return
			}
			if ev.Status.Terminal() {
				return
			}
		}
	}
}
