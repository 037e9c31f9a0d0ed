package chi

import (
	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IndexDocumentRequest is the body of POST /documents/.
// Text is a pointer so a missing field can be told apart from an empty one.
type IndexDocumentRequest struct {
	Text *string `json:"text"`
}

// IndexDocumentResponse is the reply of POST /documents/.
type IndexDocumentResponse struct {
	DocumentID string `json:"document_id"`
}

// DocumentResponse is the reply of GET /documents/{id}.
type DocumentResponse struct {
	Text string `json:"text"`
}

// SearchDocument is a document inside a search hit.
type SearchDocument struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SearchHit is a single ranked result.
type SearchHit struct {
	Document SearchDocument `json:"document"`
	Score    float64        `json:"score"`
}

// SearchResponse is the reply of GET /search/.
type SearchResponse struct {
	Results []SearchHit `json:"results"`
}

// AnswerResponse is the reply of GET /generate_answer/.
type AnswerResponse struct {
	Answer          string   `json:"answer"`
	RetrievedDocIDs []string `json:"retrieved_doc_ids"`
}

// HealthResponse is the reply of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func searchResponseFromResults(results []result.Result) SearchResponse {
	hits := make([]SearchHit, len(results))
	for i := range results {
		hits[i] = SearchHit{
			Document: SearchDocument{ID: results[i].ID(), Text: results[i].Text()},
			Score:    results[i].Score(),
		}
	}
	return SearchResponse{Results: hits}
}

func answerResponseFromAnswer(a answeruc.Answer) AnswerResponse {
	ids := a.RetrievedIDs
	if ids == nil {
		ids = []string{}
	}
	return AnswerResponse{Answer: a.Text, RetrievedDocIDs: ids}
}
