package camunda

import (
	stderrors "errors"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/sdk/metric"

	"grant-engine/internal/common/errors"
	"grant-engine/internal/common/logger"
	"grant-engine/internal/common/metrics"
	"grant-engine/internal/common/observability"
)

type stubHandler struct {
	err   error
	calls int
}

func (s *stubHandler) Handle(_ worker.JobClient, _ entities.Job) error {
	s.calls++
	return s.err
}

func testJob() entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: "test-task"}}
}

func TestInstrument(t *testing.T) {
	tests := []struct {
		name          string
		taskType      string
		err           error
		wantCompleted float64
		wantFailed    float64
		failedCode    string
	}{
		{
			name:          "completed job",
			taskType:      "instrument-ok",
			wantCompleted: 1,
		},
		{
			name:       "catalog failure",
			taskType:   "instrument-catalog",
			err:        errors.NewCatalogUnavailableError(stderrors.New("connection refused")),
			wantFailed: 1,
			failedCode: string(errors.ErrCodeCatalogUnavailable),
		},
		{
			name:       "plain error counts as internal",
			taskType:   "instrument-internal",
			err:        stderrors.New("boom"),
			wantFailed: 1,
			failedCode: string(errors.ErrCodeInternal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &stubHandler{err: tt.err}
			obs := observability.NewWithReader("camunda-test", metric.NewManualReader())

			handle := Instrument(tt.taskType, h, obs, logger.NewTestLogger(t))
			handle(nil, testJob())

			assert.Equal(t, 1, h.calls)
			assert.Equal(t, tt.wantCompleted, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(tt.taskType)))
			if tt.failedCode != "" {
				assert.Equal(t, tt.wantFailed, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(tt.taskType, tt.failedCode)))
			}
		})
	}
}

func TestInstrument_NilObservability(t *testing.T) {
	h := &stubHandler{}
	handle := Instrument("instrument-nil-obs", h, nil, logger.NewNoOpLogger())

	assert.NotPanics(t, func() { handle(nil, testJob()) })
	assert.Equal(t, 1, h.calls)
}
