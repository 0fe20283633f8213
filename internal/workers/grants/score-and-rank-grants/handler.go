// internal/workers/grants/score-and-rank-grants/handler.go
package scoreandrankgrants

import (
	"context"
	"encoding/json"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"grant-engine/internal/common/errors"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/common/validation"
	"grant-engine/internal/engine"
)

const (
	TaskType = "score-and-rank-grants"
)

type Handler struct {
	config       *Config
	engine       *engine.Engine
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, eng *engine.Engine, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       eng,
		validator:    validator,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job.Variables)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

// parseInput checks the variables against the registered schema before decoding them.
func (h *Handler) parseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, errors.NewParseError(err)
	}
	if err := h.validator.ValidateJobInput(TaskType, raw); err != nil {
		return nil, errors.NewInvalidInputError(err.Error(), err)
	}

	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewParseError(err)
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	profile, err := validation.ParseProfile(input.Profile)
	if err != nil {
		return nil, errors.NewProfileValidationFailedError(err.Error())
	}

	filter, err := input.Filter.Resolve()
	if err != nil {
		return nil, errors.NewInvalidInputError(err.Error(), err)
	}

	start := time.Now()
	run, err := h.engine.ScoreAndRank(ctx, profile, filter, input.TopN)
	if err != nil {
		return nil, errors.FromCatalogError(err)
	}

	h.logger.Info("grants ranked", map[string]interface{}{
		"runId":      run.RunID,
		"candidates": run.CandidateCount,
		"returned":   len(run.Results),
		"fallback":   run.Fallback,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return &Output{
		RunID:          run.RunID,
		Results:        run.Results,
		CandidateCount: run.CandidateCount,
		Fallback:       run.Fallback,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
