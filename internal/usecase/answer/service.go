// Package answer orchestrates the question-answering pipeline: classify,
// retrieve, re-rank, gate, dispatch or fall back, synthesize. Every stage
// past input validation degrades instead of failing: a request that enters
// the pipeline always leaves it with a response.
package answer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/podscout/podscout/internal/domain"
	"github.com/podscout/podscout/internal/logger"
	"github.com/podscout/podscout/internal/metrics"
	"github.com/podscout/podscout/internal/usecase/expert"
	"github.com/podscout/podscout/internal/usecase/gate"
)

// Pipeline states, recorded in logs as the request advances.
const (
	stateReceived   = "RECEIVED"
	stateClassified = "CLASSIFIED"
	stateRetrieved  = "RETRIEVED"
	stateReranked   = "RERANKED"
	stateFallback   = "FALLBACK"
	stateDispatched = "DISPATCHED"
	stateSummarized = "SUMMARIZED"
	stateDone       = "DONE"
)

// Per-stage ceilings. Each stage gets the smaller of its ceiling and what is
// left of the request budget, so a slow early stage shrinks the later ones
// instead of blowing the deadline.
const (
	retrieveCap  = 5 * time.Second
	dispatchCap  = 10 * time.Second
	webSearchCap = 8 * time.Second
	synthCap     = 8 * time.Second
)

// Options tune the pipeline.
type Options struct {
	MaxExecution    time.Duration
	EnableTagRerank bool
	EnableFallback  bool
}

// Service is the pipeline orchestrator.
type Service struct {
	classifier Classifier
	tagger     Tagger
	retriever  Retriever
	reranker   Reranker
	gater      Gater
	fallback   FallbackStage
	dispatcher Dispatcher
	formatter  Formatter
	synth      Synthesizer
	opts       Options
}

// New creates the orchestrator. tagger may be nil; re-ranking then runs on
// keyword evidence alone.
func New(
	classifier Classifier,
	tagger Tagger,
	retriever Retriever,
	reranker Reranker,
	gater Gater,
	fallback FallbackStage,
	dispatcher Dispatcher,
	formatter Formatter,
	synth Synthesizer,
	opts Options,
) *Service {
	if opts.MaxExecution <= 0 {
		opts.MaxExecution = 25 * time.Second
	}
	return &Service{
		classifier: classifier,
		tagger:     tagger,
		retriever:  retriever,
		reranker:   reranker,
		gater:      gater,
		fallback:   fallback,
		dispatcher: dispatcher,
		formatter:  formatter,
		synth:      synth,
		opts:       opts,
	}
}

// Answer runs the full pipeline for one query. It returns an error only when
// the request is dead on arrival (context already cancelled); everything past
// that point degrades into the response itself.
func (s *Service) Answer(ctx context.Context, q domain.Query) (domain.FinalResponse, error) {
	if err := ctx.Err(); err != nil {
		return domain.FinalResponse{}, fmt.Errorf("%w: %w", domain.ErrDeadlineExhausted, err)
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, s.opts.MaxExecution)
	defer cancel()

	log := logger.FromContext(ctx).With(zap.String("trace_id", q.TraceID()))
	state := stateReceived

	var trace []domain.StageTrace

	// CLASSIFIED
	cls := s.classifier.Classify(q)
	state = stateClassified
	trace = append(trace, domain.StageTrace{
		Stage:      "classify",
		Status:     string(domain.StageSuccess),
		Confidence: cls.PrimaryConfidence,
		Latency:    time.Since(start).Milliseconds(),
		Detail:     string(cls.Primary),
	})
	log.Debug("Query classified",
		zap.String("state", state),
		zap.String("primary", string(cls.Primary)),
		zap.Float64("confidence", cls.PrimaryConfidence),
		zap.Bool("cross_category", cls.CrossCategory),
	)

	// Keyword evidence is the preferred tag source; the learned extraction
	// fallback covers queries the table has never seen.
	queryTags := cls.Tags()
	if s.opts.EnableTagRerank && len(queryTags) == 0 && s.tagger != nil {
		if tags, learned := s.tagger.ExtractTags(ctx, q.Text()); len(tags) > 0 {
			queryTags = tags
			log.Debug("Query tags from extraction fallback",
				zap.Bool("learned", learned),
				zap.Strings("tags", tags),
			)
		}
	}

	// RETRIEVED
	ranked, retrieveTrace := s.retrieveAndRank(ctx, q, cls, queryTags)
	state = stateReranked
	trace = append(trace, retrieveTrace...)

	// Gate
	reason := s.gater.Decide(ranked)
	if !s.opts.EnableFallback && reason != gate.ReasonNone {
		// With fallback off, weak local results are still the best we have.
		reason = gate.ReasonNone
	}
	observeFallback(reason)

	// FALLBACK or DISPATCHED
	var responses map[string]domain.ExpertResponse
	if reason != gate.ReasonNone {
		state = stateFallback
		responses = s.runFallback(ctx, q, cls.Primary, reason, &trace)
	} else {
		state = stateDispatched
		responses = s.runDispatch(ctx, q, cls, ranked, &trace)
	}
	log.Debug("Stages complete",
		zap.String("state", state),
		zap.Int("stages", len(responses)),
	)

	// SUMMARIZED
	answerText := s.summarize(ctx, q, responses, &trace)
	state = stateSummarized

	confidence := minConfidence(responses)
	metrics.RequestConfidence.Observe(confidence)

	var recs []domain.Recommendation
	if ranked.Len() > 0 {
		recs = s.formatter.Recommendations(ranked.Candidates(), queryTags)
	}

	state = stateDone
	resp := domain.FinalResponse{
		Answer:          answerText,
		Confidence:      confidence,
		Recommendations: recs,
		Trace:           trace,
		Latency:         time.Since(start).Milliseconds(),
		TraceID:         q.TraceID(),
	}
	log.Info("Pipeline complete",
		zap.String("state", state),
		zap.Float64("confidence", confidence),
		zap.Int64("latency_ms", resp.Latency),
		zap.String("fallback_reason", string(reason)),
	)
	return resp, nil
}

// retrieveAndRank runs retrieval and re-ranking for the primary category.
// Retrieval failure yields an empty ranked result, which the gate then routes
// to fallback.
func (s *Service) retrieveAndRank(
	ctx context.Context, q domain.Query, cls domain.Classification, queryTags []string,
) (domain.RankedResult, []domain.StageTrace) {
	stageCtx, cancel := stageContext(ctx, retrieveCap)
	defer cancel()

	start := time.Now()
	candidates, err := s.retriever.Retrieve(stageCtx, q, cls.Primary)
	retrieveLatency := time.Since(start)

	var trace []domain.StageTrace
	if err != nil {
		logger.FromContext(ctx).Warn("Retrieval failed, continuing degraded",
			zap.String("trace_id", q.TraceID()),
			zap.Error(err),
		)
		observeStage("retrieve", "error", retrieveLatency)
		metrics.RetrievalCandidates.WithLabelValues("error").Observe(0)
		trace = append(trace, domain.StageTrace{
			Stage:   "retrieve",
			Status:  string(domain.StageError),
			Latency: retrieveLatency.Milliseconds(),
			Detail:  err.Error(),
		})
		return domain.RankedResult{}, trace
	}

	observeStage("retrieve", "ok", retrieveLatency)
	metrics.RetrievalCandidates.WithLabelValues("ok").Observe(float64(len(candidates)))
	trace = append(trace, domain.StageTrace{
		Stage:   "retrieve",
		Status:  string(domain.StageSuccess),
		Latency: retrieveLatency.Milliseconds(),
		Detail:  fmt.Sprintf("%d candidates", len(candidates)),
	})

	rerankStart := time.Now()
	var ranked domain.RankedResult
	if s.opts.EnableTagRerank {
		ranked = s.reranker.Rerank(candidates, queryTags)
	} else {
		ranked = s.reranker.Passthrough(candidates)
	}
	observeStage("rerank", "ok", time.Since(rerankStart))
	trace = append(trace, domain.StageTrace{
		Stage:      "rerank",
		Status:     string(domain.StageSuccess),
		Confidence: ranked.Aggregate(),
		Latency:    time.Since(rerankStart).Milliseconds(),
	})
	return ranked, trace
}

func (s *Service) runFallback(
	ctx context.Context,
	q domain.Query,
	hint domain.Category,
	reason gate.Reason,
	trace *[]domain.StageTrace,
) map[string]domain.ExpertResponse {
	stageCtx, cancel := stageContext(ctx, webSearchCap)
	defer cancel()

	resp := s.fallback.Process(stageCtx, q, hint)
	observeStage("web_search", strings.ToLower(string(resp.Status)), resp.Latency)
	*trace = append(*trace, domain.StageTrace{
		Stage:      "web_search",
		Status:     string(resp.Status),
		Confidence: resp.Confidence,
		Latency:    resp.Latency.Milliseconds(),
		Detail:     string(reason),
	})
	return map[string]domain.ExpertResponse{"web_search": resp}
}

func (s *Service) runDispatch(
	ctx context.Context,
	q domain.Query,
	cls domain.Classification,
	ranked domain.RankedResult,
	trace *[]domain.StageTrace,
) map[string]domain.ExpertResponse {
	stageCtx, cancel := stageContext(ctx, dispatchCap)
	defer cancel()

	responses := s.dispatcher.Dispatch(stageCtx, expert.Request{
		Query:          q,
		Classification: cls,
		Ranked:         ranked,
	})
	for name, resp := range responses {
		observeStage(name, strings.ToLower(string(resp.Status)), resp.Latency)
	}
	for _, name := range sortedKeys(responses) {
		resp := responses[name]
		*trace = append(*trace, domain.StageTrace{
			Stage:      name,
			Status:     string(resp.Status),
			Confidence: resp.Confidence,
			Latency:    resp.Latency.Milliseconds(),
			Detail:     resp.Reasoning,
		})
	}
	return responses
}

// summarize composes the final answer text. A synthesizer failure falls back
// to the best stage content verbatim.
func (s *Service) summarize(
	ctx context.Context,
	q domain.Query,
	responses map[string]domain.ExpertResponse,
	trace *[]domain.StageTrace,
) string {
	stageCtx, cancel := stageContext(ctx, synthCap)
	defer cancel()

	start := time.Now()
	text, err := s.synth.Synthesize(stageCtx, q, responses)
	latency := time.Since(start)

	if err != nil {
		logger.FromContext(ctx).Warn("Synthesis failed, using best stage content",
			zap.String("trace_id", q.TraceID()),
			zap.Error(err),
		)
		observeStage("synthesize", "error", latency)
		*trace = append(*trace, domain.StageTrace{
			Stage:   "synthesize",
			Status:  string(domain.StageError),
			Latency: latency.Milliseconds(),
			Detail:  err.Error(),
		})
		return bestContent(responses)
	}

	observeStage("synthesize", "ok", latency)
	*trace = append(*trace, domain.StageTrace{
		Stage:   "synthesize",
		Status:  string(domain.StageSuccess),
		Latency: latency.Milliseconds(),
	})
	return text
}

// minConfidence is the weakest-link rule: the answer is only as trustworthy
// as its least confident contributing stage.
func minConfidence(responses map[string]domain.ExpertResponse) float64 {
	if len(responses) == 0 {
		return 0
	}
	minC := 1.0
	for _, r := range responses {
		if r.Confidence < minC {
			minC = r.Confidence
		}
	}
	return minC
}

func bestContent(responses map[string]domain.ExpertResponse) string {
	best := ""
	bestConf := -1.0
	for _, name := range sortedKeys(responses) {
		r := responses[name]
		if r.Content != "" && r.Confidence > bestConf {
			best = r.Content
			bestConf = r.Confidence
		}
	}
	return best
}

func sortedKeys(m map[string]domain.ExpertResponse) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stageContext bounds a stage by the smaller of its ceiling and the remaining
// request budget.
func stageContext(ctx context.Context, ceiling time.Duration) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < ceiling {
			ceiling = remaining
		}
	}
	return context.WithTimeout(ctx, ceiling)
}

func observeStage(stage, status string, d time.Duration) {
	metrics.StageDuration.WithLabelValues(stage, status).Observe(d.Seconds())
}

func observeFallback(reason gate.Reason) {
	label := string(reason)
	if reason == gate.ReasonNone {
		label = "not_triggered"
	}
	metrics.FallbackTotal.WithLabelValues(label).Inc()
}
