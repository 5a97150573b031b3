package payroll

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

// memStore is an in-memory backing store shared by the fake repositories.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	cycles  map[string]payroll.PayrollCycle
	details map[string]payroll.PayrollDetail
	audits  map[string]payroll.FinalizationAudit
	entries []payroll.TimeEntry
	rates   []payroll.EmployeeRates

	writes int

	// beforeAdjust runs ahead of the version check in UpdateAdjustments.
	beforeAdjust func(s *memStore, detailID string)
}

func newMemStore() *memStore {
	return &memStore{
		cycles:  make(map[string]payroll.PayrollCycle),
		details: make(map[string]payroll.PayrollDetail),
		audits:  make(map[string]payroll.FinalizationAudit),
	}
}

func (s *memStore) service() payroll.PayrollService {
	return NewPayrollService(
		memTransactor{s},
		memCycleRepo{s},
		memDetailRepo{s},
		memAttendanceRepo{s},
		memEmployeeRepo{s},
		memAuditRepo{s},
		Options{
			Workers: 2,
			Now:     func() time.Time { return time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC) },
		},
	)
}

func (s *memStore) writeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *memStore) detailFor(cycleID, employeeID string) (payroll.PayrollDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.details {
		if d.CycleID == cycleID && d.EmployeeID == employeeID {
			return d, true
		}
	}
	return payroll.PayrollDetail{}, false
}

type memTransactor struct{ s *memStore }

func (t memTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.s.txMu.Lock()
	defer t.s.txMu.Unlock()
	return fn(ctx)
}

type memCycleRepo struct{ s *memStore }

func (r memCycleRepo) Create(ctx context.Context, cycle payroll.PayrollCycle) (payroll.PayrollCycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := time.Now()
	cycle.CreatedAt = now
	cycle.UpdatedAt = now
	r.s.cycles[cycle.ID] = cycle
	r.s.writes++
	return cycle, nil
}

func (r memCycleRepo) GetByID(ctx context.Context, id string) (payroll.PayrollCycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cycles[id]
	if !ok {
		return payroll.PayrollCycle{}, payroll.ErrCycleNotFound
	}
	return c, nil
}

func (r memCycleRepo) List(ctx context.Context, filter payroll.CycleFilter) ([]payroll.PayrollCycle, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []payroll.PayrollCycle
	for _, c := range r.s.cycles {
		if filter.Status != nil && string(c.Status) != *filter.Status {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartDate.After(all[j].StartDate) })

	total := int64(len(all))
	offset := (filter.Page - 1) * filter.Limit
	if offset >= len(all) {
		return []payroll.PayrollCycle{}, total, nil
	}
	end := offset + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r memCycleRepo) GetByIDForUpdate(ctx context.Context, id string) (payroll.PayrollCycle, error) {
	return r.GetByID(ctx, id)
}

func (r memCycleRepo) GetByIDForShare(ctx context.Context, id string) (payroll.PayrollCycle, error) {
	return r.GetByID(ctx, id)
}

func (r memCycleRepo) MarkCompleted(ctx context.Context, id string, finalizedAt time.Time, finalizedBy string) (payroll.PayrollCycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cycles[id]
	if !ok {
		return payroll.PayrollCycle{}, payroll.ErrCycleNotFound
	}
	if c.Status != payroll.CycleStatusActive {
		return payroll.PayrollCycle{}, payroll.ErrAlreadyFinalized
	}
	c.Status = payroll.CycleStatusCompleted
	c.FinalizedAt = &finalizedAt
	c.FinalizedBy = &finalizedBy
	c.Version++
	r.s.cycles[id] = c
	r.s.writes++
	return c, nil
}

type memDetailRepo struct{ s *memStore }

func (r memDetailRepo) GetByID(ctx context.Context, id string) (payroll.PayrollDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.details[id]
	if !ok {
		return payroll.PayrollDetail{}, payroll.ErrDetailNotFound
	}
	return d, nil
}

func (r memDetailRepo) ListByCycle(ctx context.Context, cycleID string) ([]payroll.PayrollDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]payroll.PayrollDetail, 0)
	for _, d := range r.s.details {
		if d.CycleID == cycleID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EmployeeID < result[j].EmployeeID })
	return result, nil
}

func (r memDetailRepo) UpsertCalculation(ctx context.Context, detail payroll.PayrollDetail) (payroll.PayrollDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.writes++
	for id, existing := range r.s.details {
		if existing.CycleID != detail.CycleID || existing.EmployeeID != detail.EmployeeID {
			continue
		}
		existing.BranchID = detail.BranchID
		existing.BasePay = detail.BasePay
		existing.TotalHours = detail.TotalHours
		existing.TotalDaysWorked = detail.TotalDaysWorked
		existing.CalculationMethod = detail.CalculationMethod
		existing.Version++
		r.s.details[id] = existing
		return existing, nil
	}
	detail.Version = 1
	r.s.details[detail.ID] = detail
	return detail, nil
}

func (r memDetailRepo) UpdateAdjustments(ctx context.Context, detail payroll.PayrollDetail) (payroll.PayrollDetail, error) {
	if r.s.beforeAdjust != nil {
		r.s.beforeAdjust(r.s, detail.ID)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.details[detail.ID]
	if !ok {
		return payroll.PayrollDetail{}, payroll.ErrDetailNotFound
	}
	if stored.Version != detail.Version {
		return payroll.PayrollDetail{}, payroll.ErrConcurrentModification
	}
	stored.Bonus = detail.Bonus
	stored.BonusReason = detail.BonusReason
	stored.Deduction = detail.Deduction
	stored.DeductionReason = detail.DeductionReason
	stored.Version++
	r.s.details[detail.ID] = stored
	r.s.writes++
	return stored, nil
}

type memAttendanceRepo struct{ s *memStore }

func (r memAttendanceRepo) ListTimeEntries(ctx context.Context, from, to time.Time) ([]payroll.TimeEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]payroll.TimeEntry, 0, len(r.s.entries))
	for _, e := range r.s.entries {
		if e.CheckIn.Before(from) || !e.CheckIn.Before(to) {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

type memEmployeeRepo struct{ s *memStore }

func (r memEmployeeRepo) ListActiveRates(ctx context.Context) ([]payroll.EmployeeRates, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make([]payroll.EmployeeRates, len(r.s.rates))
	copy(result, r.s.rates)
	return result, nil
}

type memAuditRepo struct{ s *memStore }

func (r memAuditRepo) Create(ctx context.Context, audit payroll.FinalizationAudit) (payroll.FinalizationAudit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	audit.CreatedAt = audit.FinalizedAt
	r.s.audits[audit.CycleID] = audit
	r.s.writes++
	return audit, nil
}

func (r memAuditRepo) GetByCycleID(ctx context.Context, cycleID string) (payroll.FinalizationAudit, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.audits[cycleID]
	if !ok {
		return payroll.FinalizationAudit{}, payroll.ErrAuditNotFound
	}
	return a, nil
}
