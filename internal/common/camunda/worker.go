// internal/common/camunda/worker.go
package camunda

import (
	"sync"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"homebuyer-workers/internal/common/config"
	"homebuyer-workers/internal/common/logger"
)

// WorkerGroup opens job workers on one client and closes them together.
type WorkerGroup struct {
	client zbc.Client
	logger logger.Logger

	mu      sync.Mutex
	workers map[string]worker.JobWorker
}

func NewWorkerGroup(client zbc.Client, log logger.Logger) *WorkerGroup {
	return &WorkerGroup{
		client:  client,
		logger:  log,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a worker for taskType unless it is disabled in wcfg.
func (g *WorkerGroup) Start(taskType string, wcfg config.WorkerConfig, handler func(worker.JobClient, entities.Job)) {
	if !wcfg.Enabled {
		g.logger.Info("worker disabled", map[string]interface{}{"taskType": taskType})
		return
	}

	jobWorker := g.client.NewJobWorker().
		JobType(taskType).
		Handler(handler).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(config.GetDuration(wcfg.Timeout)).
		Open()

	g.mu.Lock()
	g.workers[taskType] = jobWorker
	g.mu.Unlock()

	g.logger.Info("worker started", map[string]interface{}{
		"taskType":      taskType,
		"maxJobsActive": wcfg.MaxJobsActive,
		"timeout_ms":    wcfg.Timeout,
	})
}

// Running lists the task types with an open worker.
func (g *WorkerGroup) Running() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.workers))
	for taskType := range g.workers {
		out = append(out, taskType)
	}
	return out
}

// Close stops polling and waits up to timeout for in-flight jobs.
func (g *WorkerGroup) Close(timeout time.Duration) {
	g.mu.Lock()
	workers := g.workers
	g.workers = make(map[string]worker.JobWorker)
	g.mu.Unlock()

	var wg sync.WaitGroup
	for taskType, w := range workers {
		wg.Add(1)
		go func(taskType string, w worker.JobWorker) {
			defer wg.Done()
			w.Close()
			w.AwaitClose()
			g.logger.Info("worker stopped", map[string]interface{}{"taskType": taskType})
		}(taskType, w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		g.logger.Warn("timed out waiting for workers to stop", map[string]interface{}{
			"timeout": timeout.String(),
		})
	}
}
