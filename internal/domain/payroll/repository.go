package payroll

import (
	"context"
	"time"
)

// Transactor runs fn inside a single all-or-nothing unit of work.
// Repositories called with the ctx passed to fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// CycleRepository defines data access methods for payroll cycles.
type CycleRepository interface {
	Create(ctx context.Context, cycle PayrollCycle) (PayrollCycle, error)
	GetByID(ctx context.Context, id string) (PayrollCycle, error)
	List(ctx context.Context, filter CycleFilter) ([]PayrollCycle, int64, error)

	// Row locks, only meaningful inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (PayrollCycle, error)
	GetByIDForShare(ctx context.Context, id string) (PayrollCycle, error)

	// MarkCompleted flips an active cycle to completed. It returns ErrAlreadyFinalized
	// when the cycle is no longer active at write time.
	MarkCompleted(ctx context.Context, id string, finalizedAt time.Time, finalizedBy string) (PayrollCycle, error)
}

// DetailRepository defines data access methods for per-employee payroll details.
type DetailRepository interface {
	GetByID(ctx context.Context, id string) (PayrollDetail, error)
	ListByCycle(ctx context.Context, cycleID string) ([]PayrollDetail, error)

	// UpsertCalculation writes base pay, hours, days worked and method keyed by
	// (cycle, employee). Bonus, deduction and their reasons are left untouched.
	UpsertCalculation(ctx context.Context, detail PayrollDetail) (PayrollDetail, error)

	// UpdateAdjustments writes bonus/deduction fields only if detail.Version still
	// matches the stored row, otherwise ErrConcurrentModification.
	UpdateAdjustments(ctx context.Context, detail PayrollDetail) (PayrollDetail, error)
}

// AttendanceRepository reads time entries owned by the attendance subsystem.
type AttendanceRepository interface {
	ListTimeEntries(ctx context.Context, from, to time.Time) ([]TimeEntry, error)
}

// EmployeeRepository reads employee rates and branch assignment.
type EmployeeRepository interface {
	ListActiveRates(ctx context.Context) ([]EmployeeRates, error)
}

// AuditRepository stores immutable finalization records.
type AuditRepository interface {
	Create(ctx context.Context, audit FinalizationAudit) (FinalizationAudit, error)
	GetByCycleID(ctx context.Context, cycleID string) (FinalizationAudit, error)
}
