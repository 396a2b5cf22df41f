// Package tagindex holds the static keyword→tag table used for query
// classification and re-ranking. The table is loaded once at startup and is
// read-only afterwards, so lookups need no locking.
package tagindex

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"gopkg.in/yaml.v3"

	"github.com/podscout/podscout/internal/domain"
)

// Entry binds one tag to its trigger keywords and content category.
type Entry struct {
	Tag      string   `yaml:"tag"`
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// Match is one keyword hit against the table.
type Match struct {
	Keyword  string
	Tag      string
	Category domain.Category
	Exact    bool
}

// Extractor produces candidate tags from free text when the static table has
// no hits. This is the seam for the learned extraction model.
type Extractor interface {
	Extract(ctx context.Context, text string) ([]string, error)
}

const extractCacheSize = 512

// Index is the immutable keyword→tag table plus the extraction fallback.
type Index struct {
	entries   []Entry
	fallback  Extractor
	cache     *lru.Cache[string, []string]
	catsOrder []domain.Category
}

type tagsFile struct {
	Tags []Entry `yaml:"tags"`
}

// Load reads the tag table from a YAML file. A load failure is fatal at
// startup: the service must not serve traffic without its tag table.
func Load(path string, fallback Extractor) (*Index, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read tag table %s: %w", path, err)
	}

	var f tagsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tag table: %w", err)
	}

	return New(f.Tags, fallback)
}

// New builds an Index from entries. Entry order is preserved so lookups are
// deterministic across processes.
func New(entries []Entry, fallback Extractor) (*Index, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("tag table is empty")
	}

	seen := make(map[string]struct{})
	var cats []domain.Category
	for i, e := range entries {
		if e.Tag == "" {
			return nil, fmt.Errorf("entry %d: tag is required", i)
		}
		if e.Category == "" {
			return nil, fmt.Errorf("entry %d (%s): category is required", i, e.Tag)
		}
		if len(e.Keywords) == 0 {
			return nil, fmt.Errorf("entry %d (%s): at least one keyword is required", i, e.Tag)
		}
		if _, ok := seen[e.Category]; !ok {
			seen[e.Category] = struct{}{}
			cats = append(cats, domain.Category(e.Category))
		}
	}

	cache, err := lru.New[string, []string](extractCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create extraction cache: %w", err)
	}

	return &Index{entries: entries, fallback: fallback, cache: cache, catsOrder: cats}, nil
}

// Categories returns the configured content categories in table order,
// excluding the "other" bucket.
func (ix *Index) Categories() []domain.Category {
	out := make([]domain.Category, 0, len(ix.catsOrder))
	for _, c := range ix.catsOrder {
		if c != domain.CategoryOther {
			out = append(out, c)
		}
	}
	return out
}

// Lookup scans the text for configured keywords. An exact match is a
// whole-token hit; a fuzzy match is a token that starts with the keyword (so
// "invest" catches "investing"). Matches come back in table order.
func (ix *Index) Lookup(text string) []Match {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		tokenSet[t] = struct{}{}
	}
	joined := " " + strings.Join(tokens, " ") + " "

	var matches []Match
	for _, e := range ix.entries {
		for _, kw := range e.Keywords {
			kw = strings.ToLower(kw)
			switch {
			case strings.Contains(joined, " "+kw+" "):
				matches = append(matches, Match{Keyword: kw, Tag: e.Tag, Category: domain.Category(e.Category), Exact: true})
			case fuzzyHit(tokenSet, kw):
				matches = append(matches, Match{Keyword: kw, Tag: e.Tag, Category: domain.Category(e.Category), Exact: false})
			}
		}
	}
	return matches
}

// ExtractTags returns tags for the text: table hits when any exist, otherwise
// the learned-extraction fallback. The second return reports whether the
// fallback produced the tags.
func (ix *Index) ExtractTags(ctx context.Context, text string) ([]string, bool) {
	if matches := ix.Lookup(text); len(matches) > 0 {
		return dedupTags(matches), false
	}

	if ix.fallback == nil {
		return nil, false
	}

	key := strings.ToLower(strings.TrimSpace(text))
	if cached, ok := ix.cache.Get(key); ok {
		return cached, true
	}

	tags, err := ix.fallback.Extract(ctx, text)
	if err != nil || len(tags) == 0 {
		return nil, false
	}
	sort.Strings(tags)
	ix.cache.Add(key, tags)
	return tags, true
}

func fuzzyHit(tokens map[string]struct{}, kw string) bool {
	if len(kw) < 4 {
		return false // short keywords only match exactly
	}
	for t := range tokens {
		if strings.HasPrefix(t, kw) && t != kw {
			return true
		}
	}
	return false
}

func dedupTags(matches []Match) []string {
	seen := make(map[string]struct{}, len(matches))
	var tags []string
	for _, m := range matches {
		if _, ok := seen[m.Tag]; ok {
			continue
		}
		seen[m.Tag] = struct{}{}
		tags = append(tags, m.Tag)
	}
	return tags
}

// Tokenize lowercases text and splits it into alphanumeric tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		isAlpha := r >= 'a' && r <= 'z'
		isDigit := r >= '0' && r <= '9'
		return !isAlpha && !isDigit
	})
}
