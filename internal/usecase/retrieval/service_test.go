package retrieval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/podscout/podscout/internal/domain"
)

type mockRepo struct {
	mu         sync.Mutex
	candidates []domain.Candidate
	err        error
	lastTopK   int
	lastCat    domain.Category
	inflight   int64
	maxSeen    int64
	delay      time.Duration
}

func (m *mockRepo) SearchKNN(
	_ context.Context, _ []float32, topK int, category domain.Category,
) ([]domain.Candidate, error) {
	cur := atomic.AddInt64(&m.inflight, 1)
	defer atomic.AddInt64(&m.inflight, -1)

	m.mu.Lock()
	if cur > m.maxSeen {
		m.maxSeen = cur
	}
	m.lastTopK = topK
	m.lastCat = category
	m.mu.Unlock()

	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	return m.candidates, m.err
}

type mockEmbedder struct {
	err error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}}, nil
}

func mustQuery(t *testing.T, text string) domain.Query {
	t.Helper()
	q, err := domain.NewQuery(text, "tester", domain.CategoryNone, "", "")
	if err != nil {
		t.Fatalf("NewQuery() error = %v", err)
	}
	return q
}

func TestRetrieve(t *testing.T) {
	repo := &mockRepo{candidates: []domain.Candidate{
		domain.NewCandidate("a", 0.9, "content", nil, "business", domain.Provenance{}),
	}}
	svc := New(repo, &mockEmbedder{}, 8, 4)

	got, err := svc.Retrieve(context.Background(), mustQuery(t, "question"), "business")
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	if repo.lastTopK != 8 {
		t.Errorf("topK = %d, want 8", repo.lastTopK)
	}
	if repo.lastCat != "business" {
		t.Errorf("category = %q, want business", repo.lastCat)
	}
}

func TestRetrieveOtherSearchesWholeCorpus(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &mockEmbedder{}, 8, 4)

	_, err := svc.Retrieve(context.Background(), mustQuery(t, "question"), domain.CategoryOther)
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if repo.lastCat != domain.CategoryNone {
		t.Errorf("category filter = %q, want none for other", repo.lastCat)
	}
}

func TestRetrieveEmbedderFailure(t *testing.T) {
	svc := New(&mockRepo{}, &mockEmbedder{err: errors.New("provider down")}, 8, 4)

	_, err := svc.Retrieve(context.Background(), mustQuery(t, "question"), "")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Errorf("error = %v, want ErrEmbeddingProviderError", err)
	}
}

func TestRetrieveStoreFailure(t *testing.T) {
	repo := &mockRepo{err: errors.New("store down")}
	svc := New(repo, &mockEmbedder{}, 8, 4)

	got, err := svc.Retrieve(context.Background(), mustQuery(t, "question"), "")
	if err == nil {
		t.Fatal("expected error")
	}
	if got != nil {
		t.Errorf("candidates = %v, want nil on failure", got)
	}
}

func TestRetrieveBoundsInflightSearches(t *testing.T) {
	repo := &mockRepo{delay: 20 * time.Millisecond}
	svc := New(repo, &mockEmbedder{}, 8, 2)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Retrieve(context.Background(), mustQuery(t, "question"), "")
		}()
	}
	wg.Wait()

	if repo.maxSeen > 2 {
		t.Errorf("max concurrent searches = %d, want <= 2", repo.maxSeen)
	}
}

func TestRetrieveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := New(&mockRepo{}, &mockEmbedder{}, 8, 1)
	// Exhaust the only slot so Acquire must block on the cancelled context.
	_ = svc.inflight.Acquire(context.Background(), 1)

	_, err := svc.Retrieve(ctx, mustQuery(t, "question"), "")
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
