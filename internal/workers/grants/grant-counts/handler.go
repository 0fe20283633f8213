// internal/workers/grants/grant-counts/handler.go
package grantcounts

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"

	"grant-engine/internal/catalog"
	"grant-engine/internal/common/errors"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/common/validation"
)

const (
	TaskType = "grant-counts"
)

type Handler struct {
	config       *Config
	aggregates   *catalog.Aggregates
	validator    *validation.Validator
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, aggregates *catalog.Aggregates, validator *validation.Validator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		aggregates:   aggregates,
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

// execute looks every requested count up through the aggregate cache, in
// parallel. The first catalog failure cancels the rest.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	output := &Output{
		CategoryCounts:   make(map[string]int, len(input.CategorySlugs)),
		PrefectureCounts: make(map[string]int, len(input.PrefectureSlugs)),
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	if h.config.MaxParallel > 0 {
		g.SetLimit(h.config.MaxParallel)
	}

	for _, slug := range input.CategorySlugs {
		g.Go(func() error {
			n, err := h.aggregates.CategoryCount(gCtx, slug)
			if err != nil {
				return err
			}
			mu.Lock()
			output.CategoryCounts[slug] = n
			mu.Unlock()
			return nil
		})
	}

	for _, slug := range input.PrefectureSlugs {
		g.Go(func() error {
			n, err := h.aggregates.PrefectureCount(gCtx, slug)
			if err != nil {
				return err
			}
			mu.Lock()
			output.PrefectureCounts[slug] = n
			mu.Unlock()
			return nil
		})
	}

	if input.IncludeTotal {
		g.Go(func() error {
			n, err := h.aggregates.TotalCount(gCtx)
			if err != nil {
				return err
			}
			mu.Lock()
			output.Total = &n
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.FromCatalogError(err)
	}

	h.logger.Debug("grant counts served", map[string]interface{}{
		"categories":  len(output.CategoryCounts),
		"prefectures": len(output.PrefectureCounts),
		"total":       input.IncludeTotal,
	})

	return output, nil
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
