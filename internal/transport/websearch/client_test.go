package websearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/podscout/podscout/internal/domain"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "startup funding" {
			t.Errorf("q = %q", got)
		}
		if got := r.URL.Query().Get("category"); got != "business" {
			t.Errorf("category = %q, want business", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"First","snippet":"one","url":"https://a"},
			{"title":"","snippet":"","url":"https://empty"},
			{"title":"Second","url":"https://b"}
		]}`))
	}))
	defer server.Close()

	c := New(&Config{Endpoint: server.URL, APIKey: "test-key", Timeout: time.Second})

	got, err := c.Search(context.Background(), "startup funding", "business")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2 (empty one skipped)", len(got))
	}
	if got[0].Title != "First" || got[0].Snippet != "one" {
		t.Errorf("results[0] = %+v", got[0])
	}
}

func TestSearchProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := New(&Config{Endpoint: server.URL, Timeout: time.Second})

	_, err := c.Search(context.Background(), "query", domain.CategoryOther)
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Errorf("error = %v, want ErrSearchUnavailable", err)
	}
}

func TestSearchBadJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	c := New(&Config{Endpoint: server.URL, Timeout: time.Second})

	_, err := c.Search(context.Background(), "query", domain.CategoryOther)
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Errorf("error = %v, want ErrSearchUnavailable", err)
	}
}

func TestSearchRespectsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(&Config{Endpoint: server.URL, Timeout: 5 * time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Search(ctx, "query", domain.CategoryNone)
	if err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(&Config{Endpoint: server.URL, Timeout: time.Second})

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestHealthCheckServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(&Config{Endpoint: server.URL, Timeout: time.Second})

	if err := c.HealthCheck(context.Background()); err == nil {
		t.Error("expected error on 500")
	}
}
