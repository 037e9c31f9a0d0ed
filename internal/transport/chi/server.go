package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/ragdex/internal/domain"
	domdoc "github.com/kailas-cloud/ragdex/internal/domain/document"
	"github.com/kailas-cloud/ragdex/internal/domain/search/request"
	"github.com/kailas-cloud/ragdex/internal/domain/search/result"
	logpkg "github.com/kailas-cloud/ragdex/internal/logger"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
)

// Client-facing messages. Internal error text never reaches the response.
const (
	msgBadRequest            = "Bad request"
	msgDocumentNotFound      = "Document not found"
	msgTooManyRequests       = "Too many requests"
	msgGenerationUnavailable = "Generation unavailable"
	msgStoreUnavailable      = "Store unavailable"
	msgStoreWriteFailed      = "Store write failed"
	msgInternalError         = "Internal error"
)

const defaultMaxBodyBytes int64 = 1 << 20

// DocumentService indexes and fetches documents.
type DocumentService interface {
	Index(ctx context.Context, text string) (string, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
}

// Retriever returns ranked documents for a query.
type Retriever interface {
	RetrieveTopK(ctx context.Context, req request.Request) ([]result.Result, error)
}

// Answerer produces grounded answers.
type Answerer interface {
	Answer(ctx context.Context, query string) (answeruc.Answer, error)
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Options tunes request handling.
type Options struct {
	DefaultTopK  int
	MaxTopK      int
	MaxBodyBytes int64
	// AnswerLimiter throttles /generate_answer/. nil disables throttling.
	AnswerLimiter *rate.Limiter
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the ragdex HTTP API.
type Server struct {
	documents     DocumentService
	retrieval     Retriever
	answers       Answerer
	health        HealthChecker
	opts          Options
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents DocumentService,
	retrieval Retriever,
	answers Answerer,
	health HealthChecker,
	opts Options,
	logger *zap.Logger,
) *Server {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = request.DefaultTopK
	}
	if opts.MaxTopK <= 0 || opts.MaxTopK > request.MaxTopK {
		opts.MaxTopK = request.MaxTopK
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		documents: documents,
		retrieval: retrieval,
		answers:   answers,
		health:    health,
		opts:      opts,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrBadInput, http.StatusBadRequest, msgBadRequest),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, msgDocumentNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, msgTooManyRequests),
		sentinelHandler(domain.ErrGenerationUnavailable, http.StatusBadGateway, msgGenerationUnavailable),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, msgStoreUnavailable),
		sentinelHandler(domain.ErrStoreWrite, http.StatusInternalServerError, msgStoreWriteFailed),
	}
	return s
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Post("/documents/", s.IndexDocument)
	r.Get("/documents/{id}", s.GetDocument)
	r.Get("/search/", s.SearchDocuments)
	if s.opts.AnswerLimiter != nil {
		r.With(RateLimitMiddleware(s.opts.AnswerLimiter, s.handleDomainError)).Get("/generate_answer/", s.GenerateAnswer)
	} else {
		r.Get("/generate_answer/", s.GenerateAnswer)
	}
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// IndexDocument handles POST /documents/.
func (s *Server) IndexDocument(w http.ResponseWriter, r *http.Request) {
	var req IndexDocumentRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.handleDomainError(w, r, fmt.Errorf("decode body: %w: %w", domain.ErrBadInput, err))
		return
	}
	if req.Text == nil {
		s.handleDomainError(w, r, fmt.Errorf("text is required: %w", domain.ErrBadInput))
		return
	}

	id, err := s.documents.Index(r.Context(), *req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, IndexDocumentResponse{DocumentID: id})
}

// GetDocument handles GET /documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("bind id: %w: %w", domain.ErrBadInput, err))
		return
	}

	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, DocumentResponse{Text: doc.Text()})
}

// SearchDocuments handles GET /search/.
func (s *Server) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	query, err := bindQuery(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var topK *int
	if err := runtime.BindQueryParameter("form", true, false, "top_k", r.URL.Query(), &topK); err != nil {
		s.handleDomainError(w, r, fmt.Errorf("bind top_k: %w: %w", domain.ErrBadInput, err))
		return
	}
	k := s.opts.DefaultTopK
	if topK != nil {
		k = *topK
	}
	// Values above the configured ceiling are served at the ceiling.
	req, err := request.New(query, request.ClampTopK(k, s.opts.MaxTopK))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results, err := s.retrieval.RetrieveTopK(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFromResults(results))
}

// GenerateAnswer handles GET /generate_answer/.
func (s *Server) GenerateAnswer(w http.ResponseWriter, r *http.Request) {
	query, err := bindQuery(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	a, err := s.answers.Answer(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponseFromAnswer(a))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindQuery reads the optional "query" parameter; absent means "".
func bindQuery(r *http.Request) (string, error) {
	var query *string
	if err := runtime.BindQueryParameter("form", true, false, "query", r.URL.Query(), &query); err != nil {
		return "", fmt.Errorf("bind query: %w: %w", domain.ErrBadInput, err)
	}
	if query == nil {
		return "", nil
	}
	return *query, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, message string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, message)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContextOr(r.Context(), s.logger)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		log.Debug("document not found", zap.Error(err))
	case errors.Is(err, domain.ErrBadInput), errors.Is(err, domain.ErrRateLimited):
		log.Warn("request rejected", zap.Error(err))
	default:
		log.Error("request failed", zap.Error(err))
	}

	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	writeError(w, http.StatusInternalServerError, msgInternalError)
}
