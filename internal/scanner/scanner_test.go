package scanner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestScan(t *testing.T) {
	candidates := []Candidate{
		{RequestID: "r1", PolicyNumber: "P1", TransactionDate: at("2024-03-10T08:00:00Z")},
		{RequestID: "r2", PolicyNumber: "P2", TransactionDate: at("2024-03-10T08:00:00Z")},
		{RequestID: "r3", PolicyNumber: "P3", TransactionDate: nil},
		{RequestID: "r4", PolicyNumber: " p1 ", TransactionDate: at("2024-03-11T08:00:00Z")},
	}
	receipts := []Receipt{
		{PolicyID: "P1", EffectiveDate: day("2024-03-10"), Row: 1},
		{PolicyID: "P9", EffectiveDate: day("2024-03-10"), Row: 2},
	}

	res := Scan(candidates, receipts)

	require.Len(t, res.DuplicateRequests, 1)
	assert.Equal(t, "r1", res.DuplicateRequests[0].RequestID)
	assert.Equal(t, []int{1}, res.DuplicateRequests[0].MatchedReceipts)

	require.Len(t, res.ImportRequests, 2)
	assert.Equal(t, "r2", res.ImportRequests[0].RequestID)
	assert.Equal(t, "r4", res.ImportRequests[1].RequestID)

	require.Len(t, res.FailedRequests, 1)
	assert.Equal(t, "r3", res.FailedRequests[0].RequestID)
	assert.Equal(t, errNoTransaction.Error(), res.FailedRequests[0].Reason)

	assert.Equal(t, Stats{TotalRequests: 4, TotalReceipts: 2, Failed: 1, Duplicates: 1, Importable: 2}, res.Stats)
}

func TestScanPartitionsEveryCandidate(t *testing.T) {
	var candidates []Candidate
	for i := 0; i < 50; i++ {
		c := Candidate{RequestID: string(rune('a' + i%26)), PolicyNumber: []string{"A", "B", "C"}[i%3]}
		if i%7 != 0 {
			c.TransactionDate = at("2024-01-0" + string(rune('1'+i%5)) + "T10:00:00Z")
		}
		candidates = append(candidates, c)
	}
	receipts := []Receipt{
		{PolicyID: "A", EffectiveDate: day("2024-01-01")},
		{PolicyID: "B", EffectiveDate: day("2024-01-03")},
	}

	res := Scan(candidates, receipts)

	total := len(res.FailedRequests) + len(res.DuplicateRequests) + len(res.ImportRequests)
	assert.Equal(t, len(candidates), total)
	assert.Equal(t, res.Stats.TotalRequests, total)
}

func TestScanSameDayBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		txDate  *time.Time
		receipt time.Time
		dup     bool
	}{
		{name: "start of day", txDate: at("2024-03-10T00:00:00Z"), receipt: day("2024-03-10"), dup: true},
		{name: "end of day", txDate: at("2024-03-10T23:59:59Z"), receipt: day("2024-03-10"), dup: true},
		{name: "next day", txDate: at("2024-03-11T00:00:00Z"), receipt: day("2024-03-10"), dup: false},
		{name: "day before", txDate: at("2024-03-09T23:59:59Z"), receipt: day("2024-03-10"), dup: false},
		{name: "undated receipt", txDate: at("2024-03-10T12:00:00Z"), receipt: time.Time{}, dup: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Scan(
				[]Candidate{{RequestID: "r", PolicyNumber: "P", TransactionDate: tt.txDate}},
				[]Receipt{{PolicyID: "P", EffectiveDate: tt.receipt}},
			)
			if tt.dup {
				assert.Len(t, res.DuplicateRequests, 1)
				return
			}
			assert.Len(t, res.ImportRequests, 1)
		})
	}
}

func TestScanInLocation(t *testing.T) {
	joburg := time.FixedZone("SAST", 2*60*60)
	// 23:30 UTC on the 9th is already the 10th in SAST.
	c := []Candidate{{RequestID: "r", PolicyNumber: "P", TransactionDate: at("2024-03-09T23:30:00Z")}}
	r := []Receipt{{PolicyID: "P", EffectiveDate: time.Date(2024, 3, 10, 0, 0, 0, 0, joburg)}}

	assert.Len(t, Scan(c, r).ImportRequests, 1)
	assert.Len(t, ScanIn(joburg, c, r).DuplicateRequests, 1)
}

func TestScanZeroTransactionDateFailsOnlyThatCandidate(t *testing.T) {
	zero := time.Time{}
	res := Scan([]Candidate{
		{RequestID: "bad", PolicyNumber: "P", TransactionDate: &zero},
		{RequestID: "good", PolicyNumber: "P", TransactionDate: at("2024-03-10T10:00:00Z")},
	}, nil)

	require.Len(t, res.FailedRequests, 1)
	assert.Equal(t, "bad", res.FailedRequests[0].RequestID)
	require.Len(t, res.ImportRequests, 1)
	assert.Equal(t, "good", res.ImportRequests[0].RequestID)
}

func TestScanEmptyInputs(t *testing.T) {
	res := Scan(nil, nil)
	assert.NotNil(t, res.FailedRequests)
	assert.NotNil(t, res.DuplicateRequests)
	assert.NotNil(t, res.ImportRequests)
	assert.Equal(t, Stats{}, res.Stats)
}
