package domain

// Recommendation is one formatted candidate with provenance annotations.
type Recommendation struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Link        string   `json:"link,omitempty"`
	Confidence  float64  `json:"confidence"`
	MatchedTags []string `json:"matched_tags,omitempty"`
}

// StageTrace records one pipeline stage for observability. Latency is in
// milliseconds.
type StageTrace struct {
	Stage      string  `json:"stage"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence,omitempty"`
	Latency    int64   `json:"latency_ms"`
	Detail     string  `json:"detail,omitempty"`
}

// FinalResponse is the terminal artifact of one request. One-shot; never
// mutated after construction. Latency is in milliseconds.
type FinalResponse struct {
	Answer          string           `json:"answer"`
	Confidence      float64          `json:"confidence"`
	Recommendations []Recommendation `json:"recommendations"`
	Trace           []StageTrace     `json:"trace"`
	Latency         int64            `json:"latency_ms"`
	TraceID         string           `json:"trace_id"`
}
