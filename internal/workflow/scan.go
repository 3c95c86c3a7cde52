// Package workflow runs duplicate scans as Temporal background jobs.
package workflow

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"backoffice/internal/scanner"
)

const (
	TaskQueue     = "ALLOCATION_SCAN_TASK_QUEUE"
	ProgressQuery = "progress"
)

// ScanInput is everything a scan job needs; receipts travel with the job.
type ScanInput struct {
	ActorID  string            `json:"actor_id"`
	Type     string            `json:"type"`
	Statuses []string          `json:"statuses"`
	Receipts []scanner.Receipt `json:"receipts"`
}

// ScanAllocationRequests loads candidates, classifies them and records the outcome.
func ScanAllocationRequests(ctx workflow.Context, in ScanInput) (scanner.Result, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("scan started", "type", in.Type, "receipts", len(in.Receipts))

	stage := "loading"
	_ = workflow.SetQueryHandler(ctx, ProgressQuery, func() (string, error) {
		return stage, nil
	})

	ao := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var a *Activities
	var candidates []scanner.Candidate
	if err := workflow.ExecuteActivity(ctx, a.LoadCandidates, LoadCandidatesInput{
		Type:     in.Type,
		Statuses: in.Statuses,
	}).Get(ctx, &candidates); err != nil {
		logger.Error("failed to load candidates", "error", err)
		return scanner.Result{}, err
	}

	// Scan is deterministic and runs inline.
	stage = "classifying"
	result := scanner.Scan(candidates, in.Receipts)

	stage = "recording"
	if err := workflow.ExecuteActivity(ctx, a.RecordScan, RecordScanInput{
		ActorID: in.ActorID,
		Type:    in.Type,
		Stats:   result.Stats,
	}).Get(ctx, nil); err != nil {
		logger.Warn("failed to record scan", "error", err)
	}

	stage = "done"
	logger.Info("scan finished", "failed", result.Stats.Failed, "duplicates", result.Stats.Duplicates, "importable", result.Stats.Importable)
	return result, nil
}
