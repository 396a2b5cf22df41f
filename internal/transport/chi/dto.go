package chi

import "github.com/podscout/podscout/internal/domain"

// Error codes returned in the "code" field of error responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeValidationFailed  errorCode = "validation_failed"
	codeUnauthorized      errorCode = "unauthorized"
	codeNotFound          errorCode = "passage_not_found"
	codeEmbeddingProvider errorCode = "embedding_provider_error"
	codeRetrieval         errorCode = "retrieval_unavailable"
	codeTimeout           errorCode = "deadline_exhausted"
	codeInternal          errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// askRequest is the body of POST /v1/ask.
type askRequest struct {
	Query       string `json:"query"`
	RequesterID string `json:"requester_id"`
	Category    string `json:"category,omitempty"`
	Context     string `json:"context,omitempty"`
	TraceID     string `json:"trace_id,omitempty"`
}

// askResponse is the body of a successful POST /v1/ask.
type askResponse struct {
	Answer          string                  `json:"answer"`
	Confidence      float64                 `json:"confidence"`
	Recommendations []domain.Recommendation `json:"recommendations,omitempty"`
	Trace           []stageTrace            `json:"trace"`
	LatencyMs       int64                   `json:"latency_ms"`
	TraceID         string                  `json:"trace_id"`
}

type stageTrace struct {
	Stage      string  `json:"stage"`
	Status     string  `json:"status"`
	Confidence float64 `json:"confidence,omitempty"`
	LatencyMs  int64   `json:"latency_ms"`
	Detail     string  `json:"detail,omitempty"`
}

// upsertPassageRequest is the body of PUT /v1/passages/{id}.
type upsertPassageRequest struct {
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
	Category  string   `json:"category,omitempty"`
	PodcastID string   `json:"podcast_id,omitempty"`
	EpisodeID string   `json:"episode_id,omitempty"`
	Title     string   `json:"title,omitempty"`
	Link      string   `json:"link,omitempty"`
	Timestamp int64    `json:"ts,omitempty"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func askResponseFrom(r domain.FinalResponse) askResponse {
	trace := make([]stageTrace, 0, len(r.Trace))
	for _, t := range r.Trace {
		trace = append(trace, stageTrace{
			Stage:      t.Stage,
			Status:     t.Status,
			Confidence: t.Confidence,
			LatencyMs:  t.Latency,
			Detail:     t.Detail,
		})
	}
	return askResponse{
		Answer:          r.Answer,
		Confidence:      r.Confidence,
		Recommendations: r.Recommendations,
		Trace:           trace,
		LatencyMs:       r.Latency,
		TraceID:         r.TraceID,
	}
}
