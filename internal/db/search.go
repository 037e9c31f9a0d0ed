package db

// Scorer names accepted by FT.SEARCH SCORER.
const (
	ScorerTFIDF        = "TFIDF"
	ScorerTFIDFDocNorm = "TFIDF.DOCNORM"
	ScorerBM25         = "BM25"
	ScorerBM25STD      = "BM25STD"
	ScorerDisMax       = "DISMAX"
	ScorerDocScore     = "DOCSCORE"
)

// IsValidScorer reports whether s is a known text scorer.
func IsValidScorer(s string) bool {
	switch s {
	case ScorerTFIDF, ScorerTFIDFDocNorm, ScorerBM25, ScorerBM25STD, ScorerDisMax, ScorerDocScore:
		return true
	}
	return false
}

// TextQuery is the input for full-text search.
// Query is raw user text; the driver tokenizes and escapes it.
type TextQuery struct {
	IndexName    string
	Field        string
	Query        string
	Scorer       string // empty = backend default
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
