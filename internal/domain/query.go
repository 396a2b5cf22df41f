package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Query is a single natural-language question about podcast content.
// Immutable after construction; one instance per incoming request.
type Query struct {
	text        string
	requesterID string
	category    Category
	context     string
	traceID     string
}

// NewQuery validates and creates a Query. The text and requester id must be
// non-empty after trimming. A trace id is generated when the caller supplies none.
func NewQuery(text, requesterID string, category Category, context, traceID string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, ErrEmptyQuery
	}
	if strings.TrimSpace(requesterID) == "" {
		return Query{}, ErrMissingRequester
	}
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return Query{
		text:        text,
		requesterID: requesterID,
		category:    category,
		context:     context,
		traceID:     traceID,
	}, nil
}

// Text returns the trimmed question text.
func (q *Query) Text() string { return q.text }

// RequesterID returns the caller identity.
func (q *Query) RequesterID() string { return q.requesterID }

// Category returns the pre-assigned category, or CategoryNone.
func (q *Query) Category() Category { return q.category }

// Context returns free-form caller context.
func (q *Query) Context() string { return q.context }

// TraceID returns the correlation id.
func (q *Query) TraceID() string { return q.traceID }
