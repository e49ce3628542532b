// internal/httpapi/server.go
package httpapi

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"homebuyer-workers/internal/common/logger"
	"homebuyer-workers/internal/common/metrics"
	"homebuyer-workers/internal/eligibility"
)

const (
	entryPoint      = "http"
	maxBodyBytes    = 1 << 20
	readinessBudget = 2 * time.Second
)

// Evaluator is the part of eligibility.Engine the API needs.
type Evaluator interface {
	Evaluate(profile eligibility.UserProfile) (eligibility.MatchResult, error)
}

// Check is a named readiness probe.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

type Server struct {
	evaluator Evaluator
	checks    []Check
	logger    logger.Logger
}

func NewServer(evaluator Evaluator, log logger.Logger, checks ...Check) *Server {
	return &Server{
		evaluator: evaluator,
		checks:    checks,
		logger:    log.WithFields(map[string]interface{}{"component": "httpapi"}),
	}
}

// Handler routes the API, probe and metrics endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/match", instrument("/api/match", http.HandlerFunc(s.handleMatch)))
	mux.Handle("/health", instrument("/health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("/ready", instrument("/ready", http.HandlerFunc(s.handleReady)))
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

type matchResponse struct {
	eligibility.MatchResult
	EvaluationID   string `json:"evaluationId"`
	ReadinessLevel string `json:"readinessLevel"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var profile eligibility.UserProfile
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&profile); err != nil {
		metrics.EligibilityEvaluations.WithLabelValues(entryPoint, metrics.OutcomeInvalid).Inc()
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if profile.AnnualIncome == 0 || profile.CreditScore == 0 {
		metrics.EligibilityEvaluations.WithLabelValues(entryPoint, metrics.OutcomeInvalid).Inc()
		s.writeError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	result, err := s.evaluator.Evaluate(profile)
	if err != nil {
		if stderrors.Is(err, eligibility.ErrInvalidProfile) {
			metrics.EligibilityEvaluations.WithLabelValues(entryPoint, metrics.OutcomeInvalid).Inc()
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		metrics.EligibilityEvaluations.WithLabelValues(entryPoint, metrics.OutcomeError).Inc()
		s.logger.Error("match evaluation failed", map[string]interface{}{
			"error": err.Error(),
		})
		s.writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}

	resp := matchResponse{
		MatchResult:    result,
		EvaluationID:   uuid.New().String(),
		ReadinessLevel: eligibility.ReadinessLevel(result.ReadinessScore),
	}
	metrics.ObserveEvaluation(entryPoint, result.ReadinessScore, len(result.Matches))

	s.logger.Info("eligibility evaluated", map[string]interface{}{
		"evaluationId":   resp.EvaluationID,
		"readinessScore": result.ReadinessScore,
		"matchCount":     len(result.Matches),
		"dtiRatio":       result.DTIRatio,
	})

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessBudget)
	defer cancel()

	failed := make(map[string]string)
	for _, c := range s.checks {
		if err := c.Probe(ctx); err != nil {
			failed[c.Name] = err.Error()
		}
	}

	if len(failed) > 0 {
		s.logger.Warn("readiness check failed", map[string]interface{}{"checks": failed})
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not_ready",
			"checks": failed,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeJSON encodes body before writing the header, so an unencodable body
// becomes a 500 instead of an empty success.
func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	payload, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{
			"status": status,
			"error":  err.Error(),
		})
		status = http.StatusInternalServerError
		payload = []byte(`{"error":"Failed to process request"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		s.logger.Warn("failed to write response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument counts requests per route and status code.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}
