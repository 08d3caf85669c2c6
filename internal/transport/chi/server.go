// Package chi exposes the pipeline over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/linkrank/internal/domain"
	"github.com/kailas-cloud/linkrank/internal/domain/linkfilter"
	dompage "github.com/kailas-cloud/linkrank/internal/domain/page"
	crawluc "github.com/kailas-cloud/linkrank/internal/usecase/crawl"
	healthuc "github.com/kailas-cloud/linkrank/internal/usecase/health"
	suggestuc "github.com/kailas-cloud/linkrank/internal/usecase/suggest"
)

const (
	maxSitemaps     = 100
	maxClassifyURLs = 50000
	maxBodyBytes    = 8 << 20
)

// ErrorCode is the machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodePageNotFound     ErrorCode = "page_not_found"
	CodeNotFound         ErrorCode = "not_found"
	CodeListNotFound     ErrorCode = "list_not_found"
	CodeEmbeddingError   ErrorCode = "embedding_provider_error"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the linkrank HTTP API.
type Server struct {
	crawler       Crawler
	suggester     Suggester
	pages         PageCache
	keywords      KeywordExtractor
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	crawler Crawler,
	suggester Suggester,
	pages PageCache,
	keywords KeywordExtractor,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		crawler:   crawler,
		suggester: suggester,
		pages:     pages,
		keywords:  keywords,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrPageNotFound, http.StatusNotFound, CodePageNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		listNotFoundHandler,
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingError),
	}
	return s
}

// Register mounts the API routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/crawl", s.Crawl)
		r.Post("/suggestions", s.Suggest)
		r.Post("/links/classify", s.Classify)
		r.Post("/keywords", s.Keywords)
		r.Get("/pages", s.ListPages)
		r.Get("/pages/lookup", s.GetPage)
		r.Delete("/pages", s.DeletePage)
		r.Delete("/pages/all", s.PurgePages)
	})
}

// CrawlRequest is the body of POST /v1/crawl.
type CrawlRequest struct {
	Sitemaps  []string `json:"sitemaps"`
	WordLimit int      `json:"word_limit,omitempty"`
	Refresh   bool     `json:"refresh,omitempty"`
}

// Crawl handles POST /v1/crawl.
func (s *Server) Crawl(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Sitemaps) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "sitemaps is required")
		return
	}
	if len(req.Sitemaps) > maxSitemaps {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("at most %d sitemaps per request", maxSitemaps))
		return
	}
	if req.WordLimit < 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "word_limit must not be negative")
		return
	}

	rep, err := s.crawler.Run(r.Context(), crawluc.Request{
		Sitemaps:  req.Sitemaps,
		WordLimit: req.WordLimit,
		Refresh:   req.Refresh,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// SuggestRequest is the body of POST /v1/suggestions.
type SuggestRequest struct {
	Content     string   `json:"content"`
	TitleWeight *int     `json:"title_weight,omitempty"`
	Threshold   *float64 `json:"threshold,omitempty"`
	Limit       *int     `json:"limit,omitempty"`
	URLs        []string `json:"urls,omitempty"`
}

// Suggest handles POST /v1/suggestions.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.TitleWeight != nil && *req.TitleWeight < 1 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "title_weight must be at least 1")
		return
	}
	if req.Limit != nil && *req.Limit < 1 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be at least 1")
		return
	}

	resp, err := s.suggester.Suggest(r.Context(), suggestuc.Request{
		Content:     req.Content,
		TitleWeight: derefInt(req.TitleWeight),
		Threshold:   req.Threshold,
		Limit:       derefInt(req.Limit),
		URLs:        req.URLs,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ClassifyRequest is the body of POST /v1/links/classify.
type ClassifyRequest struct {
	URLs   []string `json:"urls"`
	Dedupe bool     `json:"dedupe,omitempty"`
}

// ClassifyResponse is the link partition.
type ClassifyResponse struct {
	linkfilter.Classification
	Duplicates int `json:"duplicates"`
}

// Classify handles POST /v1/links/classify.
func (s *Server) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.URLs) > maxClassifyURLs {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("at most %d urls per request", maxClassifyURLs))
		return
	}

	cls, dropped, err := s.crawler.Classify(req.URLs, req.Dedupe)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ClassifyResponse{Classification: cls, Duplicates: dropped})
}

// KeywordsRequest is the body of POST /v1/keywords.
type KeywordsRequest struct {
	Text  string `json:"text"`
	Count *int   `json:"count,omitempty"`
}

// KeywordsResponse carries ranked phrases and their display string.
type KeywordsResponse struct {
	Keywords string   `json:"keywords"`
	Phrases  []string `json:"phrases"`
}

// Keywords handles POST /v1/keywords.
func (s *Server) Keywords(w http.ResponseWriter, r *http.Request) {
	var req KeywordsRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := s.keywords.Count()
	if req.Count != nil {
		if *req.Count < 1 {
			writeError(w, http.StatusBadRequest, CodeValidationFailed, "count must be at least 1")
			return
		}
		n = *req.Count
	}

	res := s.keywords.ExtractN(req.Text, n)
	if res.Err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, res.Err.Error())
		return
	}
	phrases := res.Phrases
	if phrases == nil {
		phrases = []string{}
	}
	writeJSON(w, http.StatusOK, KeywordsResponse{Keywords: res.String(), Phrases: phrases})
}

// PageResponse is a cached page.
type PageResponse struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	Keywords  []string  `json:"keywords"`
	FetchedAt time.Time `json:"fetched_at"`
}

// PageListResponse lists cached pages.
type PageListResponse struct {
	Items []PageResponse `json:"items"`
	Total int            `json:"total"`
}

// ListPages handles GET /v1/pages.
func (s *Server) ListPages(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid limit: "+err.Error())
		return
	}
	if limit < 1 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "limit must be at least 1")
		return
	}

	pages, err := s.pages.List(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	total, err := s.pages.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]PageResponse, len(pages))
	for i := range pages {
		items[i] = PageToResponse(&pages[i], false)
	}
	writeJSON(w, http.StatusOK, PageListResponse{Items: items, Total: total})
}

// GetPage handles GET /v1/pages/lookup?url=.
func (s *Server) GetPage(w http.ResponseWriter, r *http.Request) {
	url, ok := requiredURL(w, r)
	if !ok {
		return
	}
	p, err := s.pages.Lookup(r.Context(), url)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PageToResponse(&p, true))
}

// DeletePage handles DELETE /v1/pages?url=.
func (s *Server) DeletePage(w http.ResponseWriter, r *http.Request) {
	url, ok := requiredURL(w, r)
	if !ok {
		return
	}
	if err := s.pages.Forget(r.Context(), url); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurgePages handles DELETE /v1/pages/all.
func (s *Server) PurgePages(w http.ResponseWriter, r *http.Request) {
	n, err := s.pages.Purge(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func requiredURL(w http.ResponseWriter, r *http.Request) (string, bool) {
	var url string
	if err := runtime.BindQueryParameter("form", true, true, "url", r.URL.Query(), &url); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return "", false
	}
	return url, true
}

// PageToResponse renders a cached page; content is included on request.
func PageToResponse(p *dompage.Page, withContent bool) PageResponse {
	resp := PageResponse{
		URL:       p.URL(),
		Title:     p.Title(),
		Keywords:  p.Keywords(),
		FetchedAt: p.FetchedAt().UTC(),
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if withContent {
		resp.Content = p.Content()
	}
	return resp
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) || errors.Is(err, domain.ErrListNotFound) {
		// validation and list errors name the offending field or file
		return err.Error()
	}
	sentinels := []error{
		domain.ErrPageNotFound,
		domain.ErrNotFound,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// listNotFoundHandler reports the missing list path.
func listNotFoundHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrListNotFound) {
		return false
	}
	var lnf *domain.ListNotFoundError
	if errors.As(err, &lnf) {
		writeJSON(w, http.StatusFailedDependency, map[string]any{
			"code":    CodeListNotFound,
			"message": msg,
			"path":    lnf.Path,
		})
		return true
	}
	writeError(w, http.StatusFailedDependency, CodeListNotFound, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
