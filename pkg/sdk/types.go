package ragdex

// Document is a stored text with its content-hash id.
type Document struct {
	ID   string
	Text string
}

// SearchResult is a single ranked hit.
type SearchResult struct {
	ID    string
	Text  string
	Score float64
}

// Answer is a generated answer plus the ids of the documents it was grounded on.
type Answer struct {
	Text         string
	RetrievedIDs []string
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded"
	Checks map[string]string // component → "ok"/"error"/"disabled"
}
