// Package scanner classifies allocation requests against an ASSIT receipt export.
package scanner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/model"
)

// Candidate is an allocation request joined with its upstream transaction.
// TransactionDate is nil when the transaction could not be resolved.
type Candidate struct {
	RequestID       string     `json:"request_id"`
	TransactionID   string     `json:"transaction_id"`
	Type            string     `json:"type"`
	PolicyNumber    string     `json:"policy_number"`
	Status          string     `json:"status"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
	Amount          string     `json:"amount,omitempty"`
}

// NewCandidate builds a Candidate; tx may be nil when the join failed.
func NewCandidate(req *model.AllocationRequest, tx model.Transaction) Candidate {
	c := Candidate{
		RequestID:     req.ID.String(),
		TransactionID: req.TransactionID,
		Type:          req.Type,
		PolicyNumber:  req.PolicyNumber,
		Status:        req.Status,
	}
	if tx != nil {
		d := tx.PostedAt()
		c.TransactionDate = &d
		c.Amount = tx.AmountValue().StringFixed(2)
	}
	return c
}

// Classified is a candidate with the outcome of the scan.
type Classified struct {
	Candidate
	Reason          string `json:"reason,omitempty"`
	MatchedReceipts []int  `json:"matched_receipts,omitempty"` // receipt rows on the same day
}

type Stats struct {
	TotalRequests int `json:"total_requests"`
	TotalReceipts int `json:"total_receipts"`
	Failed        int `json:"failed"`
	Duplicates    int `json:"duplicates"`
	Importable    int `json:"importable"`
}

type Result struct {
	FailedRequests    []Classified `json:"failed_requests"`
	DuplicateRequests []Classified `json:"duplicate_requests"`
	ImportRequests    []Classified `json:"import_requests"`
	Stats             Stats        `json:"stats"`
}

var errNoTransaction = errors.New("transaction not found")

type outcome int

const (
	outcomeImport outcome = iota
	outcomeDuplicate
)

// Scan classifies every candidate in UTC calendar days.
func Scan(candidates []Candidate, receipts []Receipt) Result {
	return ScanIn(time.UTC, candidates, receipts)
}

// ScanIn classifies every candidate, comparing calendar days in loc.
// Each candidate lands in exactly one of the three result lists.
func ScanIn(loc *time.Location, candidates []Candidate, receipts []Receipt) Result {
	if loc == nil {
		loc = time.UTC
	}
	byPolicy := indexReceipts(receipts)

	res := Result{
		FailedRequests:    []Classified{},
		DuplicateRequests: []Classified{},
		ImportRequests:    []Classified{},
	}
	for _, c := range candidates {
		out, matched, err := evaluate(loc, c, byPolicy)
		switch {
		case err != nil:
			res.FailedRequests = append(res.FailedRequests, Classified{Candidate: c, Reason: err.Error()})
		case out == outcomeDuplicate:
			res.DuplicateRequests = append(res.DuplicateRequests, Classified{Candidate: c, MatchedReceipts: matched})
		default:
			res.ImportRequests = append(res.ImportRequests, Classified{Candidate: c})
		}
	}

	res.Stats = Stats{
		TotalRequests: len(candidates),
		TotalReceipts: len(receipts),
		Failed:        len(res.FailedRequests),
		Duplicates:    len(res.DuplicateRequests),
		Importable:    len(res.ImportRequests),
	}
	return res
}

func policyKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func indexReceipts(receipts []Receipt) map[string][]Receipt {
	idx := make(map[string][]Receipt, len(receipts))
	for _, r := range receipts {
		k := policyKey(r.PolicyID)
		if k == "" {
			continue
		}
		idx[k] = append(idx[k], r)
	}
	return idx
}

// evaluate never lets one bad candidate abort the batch.
func evaluate(loc *time.Location, c Candidate, byPolicy map[string][]Receipt) (out outcome, matched []int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluate request %s: %v", c.RequestID, r)
		}
	}()

	if c.TransactionDate == nil {
		return 0, nil, errNoTransaction
	}
	if c.TransactionDate.IsZero() {
		return 0, nil, errors.New("transaction has no date")
	}

	policyReceipts := byPolicy[policyKey(c.PolicyNumber)]
	if len(policyReceipts) == 0 {
		return outcomeImport, nil, nil
	}

	for _, r := range policyReceipts {
		if r.EffectiveDate.IsZero() {
			continue
		}
		if sameDay(loc, *c.TransactionDate, r.EffectiveDate) {
			matched = append(matched, r.Row)
		}
	}
	if len(matched) > 0 {
		return outcomeDuplicate, matched, nil
	}
	return outcomeImport, nil, nil
}

func sameDay(loc *time.Location, a, b time.Time) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
