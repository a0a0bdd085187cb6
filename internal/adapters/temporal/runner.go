// Package temporal runs NDVI analyses as Temporal workflows.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	enums "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/agrosight/internal/core/domain"
	"github.com/samirrijal/agrosight/internal/workflows"
)

// JobIDPrefix prefixes every analysis workflow id.
const JobIDPrefix = "ndvi-"

// Runner implements ports.JobRunner on a Temporal client.
type Runner struct {
	client    client.Client
	taskQueue string
}

// NewRunner creates a Runner that starts workflows on taskQueue.
func NewRunner(c client.Client, taskQueue string) *Runner {
	return &Runner{client: c, taskQueue: taskQueue}
}

// Dial connects to the Temporal frontend.
func Dial(hostPort, namespace string) (client.Client, error) {
	c, err := client.Dial(client.Options{
		HostPort:  hostPort,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("temporal client: %w", err)
	}
	return c, nil
}

// Start launches NDVIAnalysisWorkflow and returns its workflow id.
func (r *Runner) Start(ctx context.Context, req domain.AnalysisRequest) (string, error) {
	id := JobIDPrefix + uuid.NewString()
	run, err := r.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                       id,
		TaskQueue:                r.taskQueue,
		WorkflowExecutionTimeout: 15 * time.Minute,
	}, workflows.NDVIAnalysisWorkflow, req)
	if err != nil {
		return "", err
	}
	return run.GetID(), nil
}

// Describe maps the workflow execution state to an AnalysisJob.
func (r *Runner) Describe(ctx context.Context, id string) (*domain.AnalysisJob, error) {
	resp, err := r.client.DescribeWorkflowExecution(ctx, id, "")
	if err != nil {
		var nf *serviceerror.NotFound
		if errors.As(err, &nf) {
			return nil, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}

	job := &domain.AnalysisJob{ID: id}
	switch status := resp.GetWorkflowExecutionInfo().GetStatus(); status {
	case enums.WORKFLOW_EXECUTION_STATUS_RUNNING, enums.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		job.Status = domain.JobStatusRunning
	case enums.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var data domain.AnalysisData
		if err := r.client.GetWorkflow(ctx, id, "").Get(ctx, &data); err != nil {
			return nil, fmt.Errorf("job %s result: %w", id, err)
		}
		job.Status = domain.JobStatusCompleted
		job.Result = &data
	default:
		job.Status = domain.JobStatusFailed
		if err := r.client.GetWorkflow(ctx, id, "").Get(ctx, nil); err != nil {
			job.Error = rootCause(err).Error()
		} else {
			job.Error = status.String()
		}
	}
	return job, nil
}

// Ping checks the frontend for readiness probes.
func (r *Runner) Ping(ctx context.Context) error {
	_, err := r.client.CheckHealth(ctx, &client.CheckHealthRequest{})
	return err
}

func rootCause(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
