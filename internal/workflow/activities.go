package workflow

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"

	"backoffice/internal/model"
	"backoffice/internal/scanner"
)

// ScanStore is the part of the allocation service the activities need.
type ScanStore interface {
	LoadScanCandidates(ctx context.Context, family model.Family, statuses []string) ([]scanner.Candidate, error)
	RecordScan(ctx context.Context, actorID string, family model.Family, stats scanner.Stats) error
}

type Activities struct {
	Store ScanStore
}

type LoadCandidatesInput struct {
	Type     string   `json:"type"`
	Statuses []string `json:"statuses"`
}

type RecordScanInput struct {
	ActorID string        `json:"actor_id"`
	Type    string        `json:"type"`
	Stats   scanner.Stats `json:"stats"`
}

func parseFamily(s string) (model.Family, error) {
	family, ok := model.ParseFamily(s)
	if !ok {
		return "", temporal.NewNonRetryableApplicationError(fmt.Sprintf("unknown transaction type %q", s), "InvalidType", nil)
	}
	return family, nil
}

func (a *Activities) LoadCandidates(ctx context.Context, in LoadCandidatesInput) ([]scanner.Candidate, error) {
	family, err := parseFamily(in.Type)
	if err != nil {
		return nil, err
	}
	return a.Store.LoadScanCandidates(ctx, family, in.Statuses)
}

func (a *Activities) RecordScan(ctx context.Context, in RecordScanInput) error {
	family, err := parseFamily(in.Type)
	if err != nil {
		return err
	}
	return a.Store.RecordScan(ctx, in.ActorID, family, in.Stats)
}
