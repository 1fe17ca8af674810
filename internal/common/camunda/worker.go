// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// JobHandler handles one activated job. ctx carries the job span.
type JobHandler func(ctx context.Context, client worker.JobClient, job entities.Job)

// WorkerSpec describes one job worker subscription.
type WorkerSpec struct {
	TaskType      string
	MaxJobsActive int
	Timeout       time.Duration
	Concurrency   int
	Handler       JobHandler
}

// Registry opens job workers against one broker connection and closes them together.
type Registry struct {
	client zbc.Client
	obs    *observability.Observability
	logger *zap.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewRegistry(client zbc.Client, obs *observability.Observability, logger *zap.Logger) *Registry {
	return &Registry{
		client:  client,
		obs:     obs,
		logger:  logger,
		workers: make(map[string]worker.JobWorker),
	}
}

// Open starts polling for spec.TaskType. Opening the same task type twice is a no-op.
func (r *Registry) Open(spec WorkerSpec) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workers[spec.TaskType]; exists {
		r.logger.Warn("worker already open", zap.String("taskType", spec.TaskType))
		return
	}

	cmd := r.client.NewJobWorker().
		JobType(spec.TaskType).
		Handler(r.instrument(spec.TaskType, spec.Handler)).
		Name(spec.TaskType)
	if spec.MaxJobsActive > 0 {
		cmd = cmd.MaxJobsActive(spec.MaxJobsActive)
	}
	if spec.Timeout > 0 {
		cmd = cmd.Timeout(spec.Timeout)
	}
	if spec.Concurrency > 0 {
		cmd = cmd.Concurrency(spec.Concurrency)
	}

	r.workers[spec.TaskType] = cmd.Open()
	r.logger.Info("worker started",
		zap.String("taskType", spec.TaskType),
		zap.Int("maxJobsActive", spec.MaxJobsActive),
		zap.Duration("timeout", spec.Timeout),
	)
}

// TaskTypes lists the open task types in sorted order.
func (r *Registry) TaskTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	types := make([]string, 0, len(r.workers))
	for t := range r.workers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Close stops every worker and waits for in-flight jobs to finish.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for taskType, w := range r.workers {
		r.logger.Info("stopping worker", zap.String("taskType", taskType))
		w.Close()
		w.AwaitClose()
		delete(r.workers, taskType)
	}
}

// instrument wraps a handler with a job span and job duration metrics.
func (r *Registry) instrument(taskType string, next JobHandler) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		ctx, span := observability.StartSpan(context.Background(), taskType,
			attribute.String("jobKey", strconv.FormatInt(job.Key, 10)),
			attribute.Int64("processInstanceKey", job.ProcessInstanceKey),
		)
		defer span.End()

		next(ctx, client, job)

		r.obs.RecordJobDuration(ctx, taskType, time.Since(start))
		r.obs.RecordJobProcessed(ctx, taskType, "handled")
	}
}
