package result

import domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"

// Result is a single retrieval hit.
type Result struct {
	document domdoc.Document
	score    float64
}

// New creates a search result.
func New(doc domdoc.Document, score float64) Result {
	return Result{document: doc, score: score}
}

// Document returns the matched document.
func (r *Result) Document() domdoc.Document { return r.document }

// ID returns the matched document identifier.
func (r *Result) ID() string { return r.document.ID() }

// Text returns the matched document text.
func (r *Result) Text() string { return r.document.Text() }

// Score returns the backend relevance score (higher is more relevant).
func (r *Result) Score() float64 { return r.score }
