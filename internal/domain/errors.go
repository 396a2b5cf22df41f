package domain

import "errors"

var (
	// ErrEmptyQuery signals a blank question text.
	ErrEmptyQuery = errors.New("query text is empty")
	// ErrMissingRequester signals a blank requester id.
	ErrMissingRequester = errors.New("requester id is empty")
	// ErrRetrievalUnavailable signals that the vector store could not be reached.
	ErrRetrievalUnavailable = errors.New("vector store unavailable")
	// ErrSearchUnavailable signals that the external web search could not be reached.
	ErrSearchUnavailable = errors.New("web search unavailable")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrSynthesisUnavailable signals that answer synthesis could not run.
	ErrSynthesisUnavailable = errors.New("answer synthesis unavailable")
	// ErrPassageNotFound signals a missing passage.
	ErrPassageNotFound = errors.New("passage not found")
	// ErrDeadlineExhausted signals that the request budget ran out before a stage started.
	ErrDeadlineExhausted = errors.New("request budget exhausted")
)
