package domain

import "time"

// StageStatus is the outcome of one expert stage.
type StageStatus string

const (
	// StageSuccess indicates the stage produced a usable answer.
	StageSuccess StageStatus = "SUCCESS"
	// StageNoMatch indicates the stage ran but found nothing relevant.
	StageNoMatch StageStatus = "NO_MATCH"
	// StageError indicates the stage failed and was degraded in place.
	StageError StageStatus = "ERROR"
)

// ExpertResponse is the output of one expert stage. Responses are aggregated
// side by side in the final trace, never merged destructively.
type ExpertResponse struct {
	Content    string
	Confidence float64
	Reasoning  string
	Latency    time.Duration
	Metadata   map[string]string
	Status     StageStatus
}

// DegradedResponse builds the low-confidence placeholder an independently
// fallible stage reports instead of aborting the dispatch.
func DegradedResponse(reason string, err error) ExpertResponse {
	md := map[string]string{}
	if err != nil {
		md["error"] = err.Error()
	}
	return ExpertResponse{
		Confidence: 0.1,
		Reasoning:  reason,
		Metadata:   md,
		Status:     StageError,
	}
}
