package chi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/podscout/podscout/internal/domain"
	"github.com/podscout/podscout/internal/repository/passage"
	healthuc "github.com/podscout/podscout/internal/usecase/health"
	"github.com/podscout/podscout/internal/usecase/ingest"
)

type mockAnswerer struct {
	resp domain.FinalResponse
	err  error
	last domain.Query
}

func (m *mockAnswerer) Answer(_ context.Context, q domain.Query) (domain.FinalResponse, error) {
	m.last = q
	return m.resp, m.err
}

type mockIngestRepo struct {
	last    passage.Passage
	upErr   error
	getResp passage.Passage
	getErr  error
}

func (m *mockIngestRepo) Upsert(_ context.Context, p passage.Passage) error {
	m.last = p
	return m.upErr
}

func (m *mockIngestRepo) Get(_ context.Context, _ string) (passage.Passage, error) {
	return m.getResp, m.getErr
}

type mockEmbedder struct{ err error }

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1}}, nil
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestServer(answers *mockAnswerer, repo *mockIngestRepo, pingErr error) http.Handler {
	srv := NewServer(
		answers,
		ingest.New(repo, &mockEmbedder{}, nil),
		healthuc.New(&mockPinger{err: pingErr}, nil, nil),
		zap.NewNop(),
	)
	r := chirouter.NewRouter()
	srv.Register(r)
	return r
}

func TestAsk(t *testing.T) {
	answers := &mockAnswerer{resp: domain.FinalResponse{
		Answer:     "the answer",
		Confidence: 0.82,
		TraceID:    "trace-1",
		Trace: []domain.StageTrace{
			{Stage: "classify", Status: "SUCCESS", Confidence: 0.5, Latency: 1},
		},
	}}
	h := newTestServer(answers, &mockIngestRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask",
		strings.NewReader(`{"query":"how do startups raise money","requester_id":"u1","context":"previous talk"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Trace-ID"); got != "trace-1" {
		t.Errorf("X-Trace-ID = %q", got)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"answer":"the answer"`) {
		t.Errorf("body = %s", body)
	}
	if !strings.Contains(body, `"stage":"classify"`) {
		t.Errorf("trace missing from body: %s", body)
	}
	if answers.last.Context() != "previous talk" {
		t.Errorf("query context = %q", answers.last.Context())
	}
}

func TestAskValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty query", `{"query":"  ","requester_id":"u1"}`, http.StatusBadRequest},
		{"missing requester", `{"query":"hello"}`, http.StatusBadRequest},
		{"malformed json", `{"query":`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(&mockAnswerer{}, &mockIngestRepo{}, nil)

			req := httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestAskPipelineTimeout(t *testing.T) {
	answers := &mockAnswerer{err: domain.ErrDeadlineExhausted}
	h := newTestServer(answers, &mockIngestRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask",
		strings.NewReader(`{"query":"q","requester_id":"u1"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("status = %d, want 504", rec.Code)
	}
}

func TestUpsertPassage(t *testing.T) {
	repo := &mockIngestRepo{}
	h := newTestServer(&mockAnswerer{}, repo, nil)

	req := httptest.NewRequest(http.MethodPut, "/v1/passages/ep1-seg2",
		strings.NewReader(`{"content":"text","tags":["startups"],"category":"business","title":"Ep 1"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if repo.last.ID != "ep1-seg2" {
		t.Errorf("id = %q", repo.last.ID)
	}
	if repo.last.Provenance.Title != "Ep 1" {
		t.Errorf("title = %q", repo.last.Provenance.Title)
	}
}

func TestUpsertPassageMissingContent(t *testing.T) {
	h := newTestServer(&mockAnswerer{}, &mockIngestRepo{}, nil)

	req := httptest.NewRequest(http.MethodPut, "/v1/passages/x", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestGetPassageNotFound(t *testing.T) {
	repo := &mockIngestRepo{getErr: domain.ErrPassageNotFound}
	h := newTestServer(&mockAnswerer{}, repo, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/passages/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(&mockAnswerer{}, &mockIngestRepo{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHealthDegraded(t *testing.T) {
	h := newTestServer(&mockAnswerer{}, &mockIngestRepo{}, errors.New("conn refused"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestInternalErrorNotLeaked(t *testing.T) {
	answers := &mockAnswerer{err: errors.New("secret database dsn")}
	h := newTestServer(answers, &mockIngestRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/ask",
		strings.NewReader(`{"query":"q","requester_id":"u1"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("internal detail leaked: %s", rec.Body.String())
	}
}
