package domain

// Provenance identifies where a passage came from.
type Provenance struct {
	PodcastID string
	EpisodeID string
	Title     string
	Link      string
	Timestamp int64
}

// Candidate is one retrieved passage with its score and provenance.
// Immutable once scored: re-ranking derives a new Candidate via
// WithConfidence rather than mutating in place.
type Candidate struct {
	content    string
	sourceID   string
	rawScore   float64
	confidence float64
	tags       []string
	category   Category
	provenance Provenance
}

// NewCandidate creates a retrieved candidate. The adjusted confidence starts
// equal to the raw similarity until re-ranking derives a new value.
func NewCandidate(
	sourceID string, rawScore float64, content string,
	tags []string, category Category, prov Provenance,
) Candidate {
	return Candidate{
		content:    content,
		sourceID:   sourceID,
		rawScore:   rawScore,
		confidence: rawScore,
		tags:       tags,
		category:   category,
		provenance: prov,
	}
}

// WithConfidence returns a copy carrying the adjusted confidence.
func (c Candidate) WithConfidence(confidence float64) Candidate {
	c.confidence = confidence
	return c
}

// Content returns the passage text.
func (c *Candidate) Content() string { return c.content }

// SourceID returns the passage identifier.
func (c *Candidate) SourceID() string { return c.sourceID }

// RawScore returns the vector similarity as reported by the store.
func (c *Candidate) RawScore() float64 { return c.rawScore }

// Confidence returns the adjusted confidence.
func (c *Candidate) Confidence() float64 { return c.confidence }

// Tags returns the passage tags.
func (c *Candidate) Tags() []string { return c.tags }

// Category returns the passage content domain.
func (c *Candidate) Category() Category { return c.category }

// Provenance returns episode/podcast provenance metadata.
func (c *Candidate) Provenance() Provenance { return c.provenance }
