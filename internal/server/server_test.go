package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/doc2mcp/doc2mcp/internal/config"
	"github.com/doc2mcp/doc2mcp/internal/errs"
)

func TestHealthz(t *testing.T) {
	s := New(config.ServerConfig{Port: 0})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected ok status, got %q", body["status"])
	}
}

func TestRateLimitRejectsBursts(t *testing.T) {
	s := New(config.ServerConfig{Port: 0, RateLimitRPS: 1, RateLimitBurst: 2})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	var limited bool
	for i := 0; i < 10; i++ {
		resp, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			var body struct {
				Error struct {
					Kind errs.Kind `json:"kind"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decoding error body: %v", err)
			}
			if body.Error.Kind != errs.KindRateLimited {
				t.Errorf("expected rate_limited kind, got %s", body.Error.Kind)
			}
			resp.Body.Close()
			break
		}
		resp.Body.Close()
	}
	if !limited {
		t.Error("expected the burst to be rate limited")
	}
}

func TestRateLimitDisabledWhenZero(t *testing.T) {
	s := New(config.ServerConfig{Port: 0})
	srv := httptest.NewServer(s.Router())
	defer srv.Close()

	for i := 0; i < 20; i++ {
		resp, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200 with limiting disabled, got %d", resp.StatusCode)
		}
	}
}
