package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks. The vector store check is mandatory;
// embedding and web search are optional components (nil skips the check) and
// their failure only degrades: the pipeline answers without them.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	webSearch WebSearchChecker
}

// New creates a Service. embedding and webSearch can be nil.
func New(db DBPinger, embedding EmbeddingChecker, webSearch WebSearchChecker) *Service {
	return &Service{db: db, embedding: embedding, webSearch: webSearch}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.webSearch != nil {
		if err := s.webSearch.HealthCheck(ctx); err != nil {
			checks["web_search"] = CheckError
		} else {
			checks["web_search"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
