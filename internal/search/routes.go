package search

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/doc2mcp/doc2mcp/internal/errs"
	"github.com/doc2mcp/doc2mcp/internal/index"
)

// RegisterRoutes mounts the search API and the stable retrieval endpoint.
// Both paths serve the same handler; /mcp/{slug} is the URL handed to agent
// tooling and never changes across re-uploads.
func RegisterRoutes(r chi.Router, svc *Service) {
	h := handleSearch(svc)
	r.Get("/api/search/{slug}", h)
	r.Get("/mcp/{slug}", h)
}

type searchResponse struct {
	Project string         `json:"project"`
	Query   string         `json:"query"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	index.Result
	HTML string `json:"html,omitempty"`
}

func handleSearch(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		query := r.URL.Query().Get("q")

		// Non-positive limits fall back to the default; only a value that
		// isn't a number at all is a client error.
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				errs.WriteJSON(w, errs.New(errs.KindValidation, "limit must be an integer"))
				return
			}
			limit = n
		}

		results, err := svc.Search(r.Context(), slug, bearerToken(r), query, limit)
		if err != nil {
			errs.WriteJSON(w, err)
			return
		}

		resp := searchResponse{Project: slug, Query: query, Results: make([]searchResult, len(results))}
		wantHTML := r.URL.Query().Get("format") == "html"
		for i, res := range results {
			resp.Results[i] = searchResult{Result: res}
			if wantHTML {
				html, err := renderHTML(res.Content)
				if err != nil {
					log.Printf("search: rendering result html: %v", err)
					continue
				}
				resp.Results[i].HTML = html
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

// bearerToken extracts the project credential from the Authorization header,
// falling back to a token query parameter for clients that cannot set
// headers. The fallback puts the credential into the request URL, which is
// visible to request logs and proxies; header auth is preferred whenever the
// caller controls headers.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}
