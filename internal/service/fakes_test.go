package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"gorm.io/gorm"

	"backoffice/internal/model"
	"backoffice/internal/notify"
	"backoffice/internal/repository"
	"backoffice/internal/storage"
)

// inmemAllocations emulates the postgres table including the partial unique index.
type inmemAllocations struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]model.AllocationRequest
	seq  int
	fail error
}

func newInmemAllocations() *inmemAllocations {
	return &inmemAllocations{rows: map[uuid.UUID]model.AllocationRequest{}}
}

func (r *inmemAllocations) violatesActiveIndex(a *model.AllocationRequest) bool {
	if !model.IsActiveStatus(a.Status) {
		return false
	}
	for id, row := range r.rows {
		if id != a.ID && row.TransactionID == a.TransactionID && model.IsActiveStatus(row.Status) {
			return true
		}
	}
	return false
}

func (r *inmemAllocations) Create(_ context.Context, a *model.AllocationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if err := a.Validate(); err != nil {
		return err
	}
	if r.violatesActiveIndex(a) {
		return gorm.ErrDuplicatedKey
	}
	r.seq++
	a.CreatedAt = a.RequestedAt.Add(time.Duration(r.seq))
	a.UpdatedAt = a.CreatedAt
	r.rows[a.ID] = clone(*a)
	return nil
}

func (r *inmemAllocations) FindByID(_ context.Context, id uuid.UUID) (*model.AllocationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := clone(row)
	return &out, nil
}

func (r *inmemAllocations) FindActiveByTransactionID(_ context.Context, txID string) (*model.AllocationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, row := range r.rows {
		if row.TransactionID == txID && model.IsActiveStatus(row.Status) {
			out := clone(row)
			return &out, nil
		}
	}
	return nil, nil
}

func (r *inmemAllocations) matching(f repository.AllocationFilter) []model.AllocationRequest {
	var out []model.AllocationRequest
	for _, row := range r.rows {
		if len(f.Statuses) > 0 && !contains(f.Statuses, row.Status) {
			continue
		}
		if f.Type != "" && row.Type != f.Type {
			continue
		}
		if f.TransactionID != "" && row.TransactionID != f.TransactionID {
			continue
		}
		if f.PolicyNumber != "" && row.PolicyNumber != f.PolicyNumber {
			continue
		}
		out = append(out, clone(row))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *inmemAllocations) List(_ context.Context, f repository.AllocationFilter, page, limit int) ([]model.AllocationRequest, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.matching(f)
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *inmemAllocations) FindAll(_ context.Context, f repository.AllocationFilter) ([]model.AllocationRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matching(f), nil
}

func (r *inmemAllocations) Update(_ context.Context, a *model.AllocationRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := a.Validate(); err != nil {
		return err
	}
	if r.violatesActiveIndex(a) {
		return gorm.ErrDuplicatedKey
	}
	r.rows[a.ID] = clone(*a)
	return nil
}

func (r *inmemAllocations) BulkTransition(_ context.Context, t repository.Transition) (int64, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched, modified int64
	for _, id := range t.IDs {
		row, ok := r.rows[id]
		if !ok || row.Type != string(t.Family) {
			continue
		}
		matched++
		if row.Status != t.From {
			continue
		}
		row.Status = t.To
		actor, at := t.Actor, t.At
		switch t.ByColumn {
		case "submitted_by":
			row.SubmittedBy, row.SubmittedAt = &actor, &at
		case "allocated_by":
			row.AllocatedBy, row.AllocatedAt = &actor, &at
		case "marked_as_duplicate_by":
			row.MarkedAsDuplicateBy, row.MarkedAsDuplicateAt = &actor, &at
		default:
			return 0, 0, fmt.Errorf("unexpected column %s", t.ByColumn)
		}
		r.rows[id] = row
		modified++
	}
	return matched, modified, nil
}

func clone(a model.AllocationRequest) model.AllocationRequest {
	a.Notes = append([]string(nil), a.Notes...)
	a.Evidence = append([]string(nil), a.Evidence...)
	return a
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type inmemAudit struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func (a *inmemAudit) Log(_ context.Context, e *model.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *e)
	return nil
}

func (a *inmemAudit) List(_ context.Context, page, limit int) ([]model.AuditLog, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	start := (page - 1) * limit
	if start > len(a.entries) {
		start = len(a.entries)
	}
	end := start + limit
	if end > len(a.entries) {
		end = len(a.entries)
	}
	return append([]model.AuditLog(nil), a.entries[start:end]...), int64(len(a.entries)), nil
}

func (a *inmemAudit) ListByEntity(_ context.Context, id string) ([]model.AuditLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []model.AuditLog
	for _, e := range a.entries {
		if e.EntityID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *inmemAudit) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type inmemTransactions map[string]model.Transaction

func (m inmemTransactions) add(family model.Family, date time.Time) string {
	id := primitive.NewObjectID()
	if family == model.FamilyEasypay {
		m[id.Hex()] = &model.EasypayTransaction{ID: id, Date: date, Amount: 250}
	} else {
		m[id.Hex()] = &model.EftTransaction{ID: id, Date: date, Amount: 1200.5}
	}
	return id.Hex()
}

func (m inmemTransactions) Resolve(_ context.Context, transactionModel, id string) (model.Transaction, error) {
	tx, ok := m[id]
	if !ok || tx.Family().Model() != transactionModel {
		return nil, repository.ErrTransactionNotFound
	}
	return tx, nil
}

func (m inmemTransactions) ResolveMany(_ context.Context, refs []repository.TransactionRef) (map[string]model.Transaction, error) {
	out := map[string]model.Transaction{}
	for _, r := range refs {
		if tx, ok := m[r.ID]; ok {
			out[r.ID] = tx
		}
	}
	return out, nil
}

type inmemPolicies map[string]bool

func (p inmemPolicies) Exists(_ context.Context, n string) (bool, error) { return p[n], nil }

type inmemEvidence struct {
	mu        sync.Mutex
	stored    map[string]string
	deleted   []string
	failOnPut int // 1-based Put call that fails; 0 never
	puts      int
}

func newInmemEvidence() *inmemEvidence {
	return &inmemEvidence{stored: map[string]string{}}
}

func (e *inmemEvidence) Put(_ context.Context, folder, filename string, r io.Reader) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.puts++
	if e.failOnPut == e.puts {
		return "", errors.New("storage unavailable")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	url := fmt.Sprintf("http://test%s%s/%s", storage.DownloadPrefix, folder, filename)
	e.stored[url] = string(body)
	return url, nil
}

func (e *inmemEvidence) Delete(_ context.Context, url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.stored, url)
	e.deleted = append(e.deleted, url)
	return nil
}

func (e *inmemEvidence) Open(context.Context, string) (*storage.Object, error) {
	return nil, storage.ErrNotFound
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (d *recordingDispatcher) Dispatch(n notify.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, n)
}
