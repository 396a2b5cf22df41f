// Package passage stores and retrieves podcast passages in the vector store.
package passage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/podscout/podscout/internal/db"
	"github.com/podscout/podscout/internal/domain"
)

// store is the consumer interface for passage operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig carries index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements passage storage and KNN retrieval over the db facade.
type Repo struct {
	store     store
	keyPrefix string
	vectorDim int
	hnsw      HNSWConfig
}

// New creates a passage repository.
func New(s store, keyPrefix string, vectorDim int) *Repo {
	return &Repo{store: s, keyPrefix: keyPrefix, vectorDim: vectorDim}
}

// WithHNSW overrides HNSW index build parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

func (r *Repo) indexName() string { return r.keyPrefix + "passages:idx" }
func (r *Repo) passagePrefix() string {
	return r.keyPrefix + "passage:"
}
func (r *Repo) key(id string) string { return r.passagePrefix() + id }

// EnsureIndex creates the passages FT index when absent.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, r.indexName())
	if err != nil {
		return fmt.Errorf("probe index: %w", err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     r.indexName(),
		Prefixes: []string{r.passagePrefix()},
		Fields: []db.IndexField{
			{Name: "content", Type: db.IndexFieldText},
			{Name: "category", Type: db.IndexFieldTag},
			{Name: "tags", Type: db.IndexFieldTag, TagSeparator: ","},
			{Name: "ts", Type: db.IndexFieldNumeric},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         r.vectorDim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           r.hnsw.M,
				VectorEFConstruct: r.hnsw.EFConstruct,
			},
		},
	}

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Passage is the write-side record for one podcast passage.
type Passage struct {
	ID         string
	Content    string
	Tags       []string
	Category   domain.Category
	Provenance domain.Provenance
	Vector     []float32
}

// Upsert writes a passage hash keyed by id.
func (r *Repo) Upsert(ctx context.Context, p Passage) error {
	if p.ID == "" {
		return fmt.Errorf("passage id is required")
	}
	if len(p.Vector) != r.vectorDim {
		return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(p.Vector), r.vectorDim)
	}

	fields := map[string]string{
		"content":    p.Content,
		"category":   string(p.Category),
		"tags":       strings.Join(p.Tags, ","),
		"podcast_id": p.Provenance.PodcastID,
		"episode_id": p.Provenance.EpisodeID,
		"title":      p.Provenance.Title,
		"link":       p.Provenance.Link,
		"ts":         strconv.FormatInt(p.Provenance.Timestamp, 10),
		"vector":     vectorToBytes(p.Vector),
	}

	if err := r.store.HSet(ctx, r.key(p.ID), fields); err != nil {
		return fmt.Errorf("upsert passage %s: %w", p.ID, err)
	}
	return nil
}

// Get loads a single passage by id.
func (r *Repo) Get(ctx context.Context, id string) (Passage, error) {
	fields, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		return Passage{}, fmt.Errorf("get passage %s: %w", id, err)
	}
	if len(fields) == 0 {
		return Passage{}, domain.ErrPassageNotFound
	}
	p := Passage{ID: id}
	fillPassage(&p, fields)
	return p, nil
}

// SearchKNN runs a vector similarity search and converts hits into candidates.
// An empty result is a valid outcome, not an error.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, topK int, category domain.Category,
) ([]domain.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:   r.indexName(),
		Vector:      vector,
		K:           topK,
		CategoryTag: string(category),
		ReturnFields: []string{
			"content", "category", "tags",
			"podcast_id", "episode_id", "title", "link", "ts",
			"__vector_score",
		},
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}

	return r.parseCandidates(sr), nil
}

func (r *Repo) parseCandidates(sr *db.SearchResult) []domain.Candidate {
	if sr == nil || sr.Total == 0 {
		return nil
	}

	prefix := r.passagePrefix()
	out := make([]domain.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, prefix)

		var p Passage
		fillPassage(&p, entry.Fields)

		out = append(out, domain.NewCandidate(
			id, entry.Score, p.Content, p.Tags, p.Category, p.Provenance,
		))
	}
	return out
}

func fillPassage(p *Passage, fields map[string]string) {
	p.Content = fields["content"]
	p.Category = domain.Category(fields["category"])
	if raw := fields["tags"]; raw != "" {
		p.Tags = strings.Split(raw, ",")
	}
	p.Provenance = domain.Provenance{
		PodcastID: fields["podcast_id"],
		EpisodeID: fields["episode_id"],
		Title:     fields["title"],
		Link:      fields["link"],
	}
	if ts, err := strconv.ParseInt(fields["ts"], 10, 64); err == nil {
		p.Provenance.Timestamp = ts
	}
}

// vectorToBytes encodes a float32 slice as a little-endian byte blob.
func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
