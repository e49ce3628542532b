// internal/httpapi/server_test.go
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homebuyer-workers/internal/common/logger"
	"homebuyer-workers/internal/common/metrics"
	"homebuyer-workers/internal/eligibility"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestEngine(t *testing.T) *eligibility.Engine {
	catalog, err := eligibility.NewCatalog([]eligibility.LoanProgram{
		{ID: "fha", Name: "FHA Loan", Type: eligibility.ProgramTypeFHA, MinCreditScore: 580, MinDownPaymentPercent: 3.5, MaxDTIPercent: 43},
		{ID: "va", Name: "VA Loan", Type: eligibility.ProgramTypeVA, MinCreditScore: 580, MaxDTIPercent: 41, RequiresMilitaryService: true},
		{ID: "usda", Name: "USDA Loan", Type: eligibility.ProgramTypeUSDA, MinCreditScore: 640, MaxDTIPercent: 41},
		{ID: "homeready", Name: "HomeReady", Type: eligibility.ProgramTypeConventional, MinCreditScore: 620, MinDownPaymentPercent: 3, MaxDTIPercent: 50, RequiresFirstTime: true},
	})
	require.NoError(t, err)
	engine, err := eligibility.NewEngine(catalog)
	require.NoError(t, err)
	return engine
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(eligibility.UserProfile) (eligibility.MatchResult, error) {
	return eligibility.MatchResult{}, stderrors.New("boom")
}

func newTestServer(t *testing.T, evaluator Evaluator, checks ...Check) http.Handler {
	return NewServer(evaluator, logger.NewTestLogger(t), checks...).Handler()
}

func postMatch(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/match", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

// ==========================
// Match Endpoint Tests
// ==========================

func TestMatch_Success(t *testing.T) {
	h := newTestServer(t, createTestEngine(t))

	w := postMatch(t, h, `{
		"annualIncome": 55000,
		"creditScore": 680,
		"monthlyDebt": 800,
		"downPaymentSaved": 8000,
		"location": "Austin, TX",
		"isFirstTime": true
	}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp matchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 17.5, resp.DTIRatio)
	assert.Equal(t, 95, resp.ReadinessScore)
	assert.Equal(t, "ready", resp.ReadinessLevel)
	assert.NotEmpty(t, resp.EvaluationID)
	assert.Equal(t, eligibility.DefaultRates, resp.CurrentRates)
	require.Len(t, resp.Matches, 3)
	for _, m := range resp.Matches {
		assert.NotEqual(t, "va", m.Program.ID)
	}
}

func TestMatch_BadRequests(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		expectedError string
	}{
		{
			name:          "malformed json",
			body:          `{invalid-json}`,
			expectedError: "invalid request body",
		},
		{
			name:          "missing income",
			body:          `{"creditScore": 700}`,
			expectedError: "Missing required fields",
		},
		{
			name:          "missing credit score",
			body:          `{"annualIncome": 60000}`,
			expectedError: "Missing required fields",
		},
		{
			name:          "credit score out of range",
			body:          `{"annualIncome": 60000, "creditScore": 900}`,
			expectedError: "invalid profile",
		},
		{
			name:          "negative income",
			body:          `{"annualIncome": -5, "creditScore": 700}`,
			expectedError: "invalid profile",
		},
		{
			name:          "income above maximum amount",
			body:          `{"annualIncome": 1e308, "creditScore": 700, "monthlyDebt": 800, "downPaymentSaved": 8000}`,
			expectedError: "invalid profile: annualIncome must be at most",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postMatch(t, newTestServer(t, createTestEngine(t)), tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.True(t, strings.HasPrefix(decodeError(t, w), tt.expectedError), decodeError(t, w))
		})
	}
}

func TestMatch_EvaluatorFailure(t *testing.T) {
	w := postMatch(t, newTestServer(t, failingEvaluator{}), `{"annualIncome": 60000, "creditScore": 700}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to process request", decodeError(t, w))
}

type nonFiniteEvaluator struct{}

func (nonFiniteEvaluator) Evaluate(eligibility.UserProfile) (eligibility.MatchResult, error) {
	return eligibility.MatchResult{DTIRatio: math.NaN()}, nil
}

func TestMatch_UnencodableResult(t *testing.T) {
	w := postMatch(t, newTestServer(t, nonFiniteEvaluator{}), `{"annualIncome": 60000, "creditScore": 700}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "Failed to process request", decodeError(t, w))
}

func TestMatch_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, createTestEngine(t))

	req := httptest.NewRequest(http.MethodGet, "/api/match", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, http.MethodPost, w.Header().Get("Allow"))
}

// ==========================
// Health and Readiness Tests
// ==========================

func TestHealth(t *testing.T) {
	h := newTestServer(t, createTestEngine(t))
	before := testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/health", "200"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"healthy"`)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues("/health", "200")))
}

func TestReady(t *testing.T) {
	tests := []struct {
		name           string
		checks         []Check
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "no checks",
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ready"`,
		},
		{
			name: "all checks pass",
			checks: []Check{
				{Name: "catalog", Probe: func(context.Context) error { return nil }},
				{Name: "zeebe", Probe: func(context.Context) error { return nil }},
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"ready"`,
		},
		{
			name: "one check fails",
			checks: []Check{
				{Name: "catalog", Probe: func(context.Context) error { return nil }},
				{Name: "zeebe", Probe: func(context.Context) error { return stderrors.New("gateway unavailable") }},
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `"zeebe":"gateway unavailable"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestServer(t, createTestEngine(t), tt.checks...)

			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, createTestEngine(t))
	postMatch(t, h, `{"annualIncome": 60000, "creditScore": 700}`)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "eligibility_evaluations_total")
	assert.Contains(t, w.Body.String(), `http_requests_total{route="/api/match",status="200"}`)
}
