package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"backoffice/internal/scanner"
)

const (
	JobRunning   = "RUNNING"
	JobCompleted = "COMPLETED"
	JobFailed    = "FAILED"
)

var ErrJobNotFound = errors.New("scan job not found")

// JobStatus is what the API reports for a scan job.
type JobStatus struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Result *scanner.Result `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Jobs starts and inspects scan workflows.
type Jobs struct {
	c client.Client
}

func NewJobs(c client.Client) *Jobs {
	return &Jobs{c: c}
}

func (j *Jobs) StartScan(ctx context.Context, in ScanInput) (string, error) {
	opts := client.StartWorkflowOptions{
		ID:        "allocation-scan-" + strings.ToLower(in.Type) + "-" + uuid.NewString(),
		TaskQueue: TaskQueue,
	}
	run, err := j.c.ExecuteWorkflow(ctx, opts, ScanAllocationRequests, in)
	if err != nil {
		return "", fmt.Errorf("start scan workflow: %w", err)
	}
	return run.GetID(), nil
}

func (j *Jobs) ScanStatus(ctx context.Context, id string) (JobStatus, error) {
	desc, err := j.c.DescribeWorkflowExecution(ctx, id, "")
	if err != nil {
		var nf *serviceerror.NotFound
		if errors.As(err, &nf) {
			return JobStatus{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
		}
		return JobStatus{}, fmt.Errorf("describe scan workflow: %w", err)
	}

	switch desc.GetWorkflowExecutionInfo().GetStatus() {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		return JobStatus{ID: id, Status: JobRunning}, nil
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var res scanner.Result
		if err := j.c.GetWorkflow(ctx, id, "").Get(ctx, &res); err != nil {
			return JobStatus{}, fmt.Errorf("read scan result: %w", err)
		}
		return JobStatus{ID: id, Status: JobCompleted, Result: &res}, nil
	default:
		status := JobStatus{ID: id, Status: JobFailed}
		if err := j.c.GetWorkflow(ctx, id, "").Get(ctx, nil); err != nil {
			status.Error = err.Error()
		}
		return status, nil
	}
}
