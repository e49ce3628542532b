// internal/workers/eligibility/evaluate-loan-eligibility/handler.go
package evaluateloaneligibility

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"homebuyer-workers/internal/common/errors"
	"homebuyer-workers/internal/common/logger"
	"homebuyer-workers/internal/common/metrics"
	"homebuyer-workers/internal/common/observability"
	"homebuyer-workers/internal/eligibility"
)

const (
	TaskType   = "evaluate-loan-eligibility"
	entryPoint = "worker"
)

type Handler struct {
	config       *Config
	engine       *eligibility.Engine
	cache        *resultCache
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the worker. redis and obs may be nil.
func NewHandler(config *Config, engine *eligibility.Engine, redis *redis.Client, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       engine,
		cache:        newResultCache(redis, config.CacheTTL, log),
		obs:          obs,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInvalidInputError(fmt.Errorf("parse variables: %w", err)), startTime)
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		h.failJob(ctx, client, job, err, startTime)
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJob(ctx, TaskType, "completed", time.Since(startTime))
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.UserProfile == nil {
		metrics.EligibilityEvaluations.WithLabelValues(entryPoint, metrics.OutcomeInvalid).Inc()
		return nil, errors.NewInvalidProfileError(fmt.Errorf("%w: userProfile is required", eligibility.ErrInvalidProfile))
	}
	profile := *input.UserProfile

	if err := eligibility.ValidateProfile(profile); err != nil {
		metrics.EligibilityEvaluations.WithLabelValues(entryPoint, metrics.OutcomeInvalid).Inc()
		return nil, errors.NewInvalidProfileError(err)
	}

	entry, cacheHit, err := h.evaluate(ctx, profile)
	if err != nil {
		return nil, err
	}

	result := entry.Result
	output := &Output{
		EvaluationID:       uuid.New().String(),
		DTIRatio:           result.DTIRatio,
		ReadinessScore:     result.ReadinessScore,
		ReadinessLevel:     eligibility.ReadinessLevel(result.ReadinessScore),
		ReadinessBreakdown: entry.Breakdown,
		Matches:            result.Matches,
		CurrentRates:       result.CurrentRates,
		Eligible:           len(result.Matches) > 0,
		CacheHit:           cacheHit,
	}
	if output.Matches == nil {
		output.Matches = []eligibility.LoanMatch{}
	}
	if output.Eligible {
		output.TopProgramID = output.Matches[0].Program.ID
	}

	metrics.ObserveEvaluation(entryPoint, output.ReadinessScore, len(output.Matches))

	h.logger.Info("eligibility evaluated", map[string]interface{}{
		"evaluationId":   output.EvaluationID,
		"applicantId":    input.ApplicantID,
		"readinessScore": output.ReadinessScore,
		"matchCount":     len(output.Matches),
		"dtiRatio":       output.DTIRatio,
		"cacheHit":       cacheHit,
	})

	return output, nil
}

// evaluate serves from the result cache when possible and fills it on a miss.
func (h *Handler) evaluate(ctx context.Context, profile eligibility.UserProfile) (*cachedEvaluation, bool, error) {
	var key string
	lookup := metrics.CacheError
	if h.cache.enabled() {
		var err error
		if key, err = CacheKey(profile); err != nil {
			h.cache.unavailable("key", "", err)
		} else {
			var entry *cachedEvaluation
			if entry, lookup = h.cache.get(ctx, key); entry != nil {
				return entry, true, nil
			}
		}
	}

	result, breakdown, err := h.engine.EvaluateWithBreakdown(profile)
	if err != nil {
		if stderrors.Is(err, eligibility.ErrInvalidProfile) {
			metrics.EligibilityEvaluations.WithLabelValues(entryPoint, metrics.OutcomeInvalid).Inc()
			return nil, false, errors.NewInvalidProfileError(err)
		}
		metrics.EligibilityEvaluations.WithLabelValues(entryPoint, metrics.OutcomeError).Inc()
		return nil, false, errors.NewEvaluationFailedError(err)
	}

	entry := &cachedEvaluation{Result: result, Breakdown: breakdown}
	if lookup == metrics.CacheMiss {
		h.cache.set(ctx, key, entry)
	}
	return entry, false, nil
}

// completeJob reports an output that cannot be encoded as an internal error
// so the caller can fail the job instead.
func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return errors.NewInternalError(fmt.Errorf("encode job variables: %w", err))
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
	return nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
	h.obs.RecordJob(ctx, TaskType, "failed", time.Since(startTime))
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func errorCode(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return string(errors.ErrCodeInternal)
}
