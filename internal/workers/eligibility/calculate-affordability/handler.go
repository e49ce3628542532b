// internal/workers/eligibility/calculate-affordability/handler.go
package calculateaffordability

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"homebuyer-workers/internal/common/errors"
	"homebuyer-workers/internal/common/logger"
	"homebuyer-workers/internal/common/metrics"
	"homebuyer-workers/internal/common/observability"
	"homebuyer-workers/internal/eligibility"
)

const TaskType = "calculate-affordability"

type Handler struct {
	config       *Config
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
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

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, errors.NewInvalidProfileError(err)
	}

	rate := h.config.RatePercent
	if input.RatePercent != nil {
		rate = *input.RatePercent
	}

	dti, err := eligibility.ComputeDTI(input.AnnualIncome, input.MonthlyDebt)
	if err != nil {
		return nil, errors.NewInvalidProfileError(err)
	}

	output := &Output{
		DTIRatio:        math.Round(dti*10) / 10,
		AffordableRange: eligibility.ComputeAffordableRange(input.AnnualIncome, input.MonthlyDebt, input.DownPaymentSaved, rate),
		RatePercent:     rate,
	}

	h.logger.Info("affordability calculated", map[string]interface{}{
		"dtiRatio":    output.DTIRatio,
		"rangeMin":    output.AffordableRange.Min,
		"rangeMax":    output.AffordableRange.Max,
		"ratePercent": rate,
	})
	return output, nil
}

func validateInput(input *Input) error {
	return eligibility.ValidateStruct(input,
		eligibility.Amount{Name: "annualIncome", Value: input.AnnualIncome},
		eligibility.Amount{Name: "monthlyDebt", Value: input.MonthlyDebt},
		eligibility.Amount{Name: "downPaymentSaved", Value: input.DownPaymentSaved},
	)
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
	code := string(errors.ErrCodeInternal)
	if stdErr, ok := errors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.obs.RecordJob(ctx, TaskType, "failed", time.Since(startTime))
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
