package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"backoffice/internal/model"
	"backoffice/internal/scanner"
)

type fakeStore struct {
	candidates []scanner.Candidate
	loadErr    error
	recordErr  error

	gotFamily   model.Family
	gotStatuses []string
	recorded    *scanner.Stats
	recordedBy  string
}

func (f *fakeStore) LoadScanCandidates(_ context.Context, family model.Family, statuses []string) ([]scanner.Candidate, error) {
	f.gotFamily, f.gotStatuses = family, statuses
	return f.candidates, f.loadErr
}

func (f *fakeStore) RecordScan(_ context.Context, actorID string, _ model.Family, stats scanner.Stats) error {
	f.recordedBy = actorID
	f.recorded = &stats
	return f.recordErr
}

func txDate(s string) *time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return &t
}

func TestScanWorkflow(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()

	store := &fakeStore{candidates: []scanner.Candidate{
		{RequestID: "dup", PolicyNumber: "P1", TransactionDate: txDate("2024-03-10T08:00:00Z")},
		{RequestID: "new", PolicyNumber: "P2", TransactionDate: txDate("2024-03-10T08:00:00Z")},
		{RequestID: "lost", PolicyNumber: "P3"},
	}}
	env.RegisterActivity(&Activities{Store: store})

	env.ExecuteWorkflow(ScanAllocationRequests, ScanInput{
		ActorID:  "alloc-1",
		Type:     "EFT",
		Statuses: []string{model.AllocationSubmitted},
		Receipts: []scanner.Receipt{{PolicyID: "P1", EffectiveDate: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Row: 1}},
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var res scanner.Result
	require.NoError(t, env.GetWorkflowResult(&res))
	assert.Equal(t, scanner.Stats{TotalRequests: 3, TotalReceipts: 1, Failed: 1, Duplicates: 1, Importable: 1}, res.Stats)
	assert.Equal(t, "dup", res.DuplicateRequests[0].RequestID)

	assert.Equal(t, model.FamilyEFT, store.gotFamily)
	assert.Equal(t, []string{model.AllocationSubmitted}, store.gotStatuses)
	require.NotNil(t, store.recorded)
	assert.Equal(t, res.Stats, *store.recorded)
	assert.Equal(t, "alloc-1", store.recordedBy)
}

func TestScanWorkflowRecordFailureIsNotFatal(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&Activities{Store: &fakeStore{recordErr: errors.New("audit table locked")}})

	env.ExecuteWorkflow(ScanAllocationRequests, ScanInput{Type: "Easypay"})

	require.True(t, env.IsWorkflowCompleted())
	assert.NoError(t, env.GetWorkflowError())
}

func TestScanWorkflowFailsWhenLoadFails(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterActivity(&Activities{Store: &fakeStore{loadErr: errors.New("postgres down")}})

	env.ExecuteWorkflow(ScanAllocationRequests, ScanInput{Type: "EFT"})

	require.True(t, env.IsWorkflowCompleted())
	assert.ErrorContains(t, env.GetWorkflowError(), "postgres down")
}

func TestScanWorkflowRejectsUnknownType(t *testing.T) {
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	store := &fakeStore{}
	env.RegisterActivity(&Activities{Store: store})

	env.ExecuteWorkflow(ScanAllocationRequests, ScanInput{Type: "Cash"})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	assert.Empty(t, store.gotFamily)
}
