package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

type attendanceRepository struct {
	db  *database.DB
	loc *time.Location
}

// NewAttendanceRepository reads closed attendance sessions. Timestamps are
// converted to loc so that grouping by calendar day uses the business time zone.
func NewAttendanceRepository(db *database.DB, loc *time.Location) payroll.AttendanceRepository {
	if loc == nil {
		loc = time.UTC
	}
	return &attendanceRepository{db: db, loc: loc}
}

// ListTimeEntries returns every closed entry with clock_in in [from, to).
func (a *attendanceRepository) ListTimeEntries(ctx context.Context, from, to time.Time) ([]payroll.TimeEntry, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, employee_id, branch_id, clock_in, clock_out
		FROM attendances
		WHERE clock_in >= $1 AND clock_in < $2
		  AND clock_out IS NOT NULL
		ORDER BY employee_id, clock_in
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	entries := make([]payroll.TimeEntry, 0)
	for rows.Next() {
		var e payroll.TimeEntry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.BranchID, &e.CheckIn, &e.CheckOut); err != nil {
			return nil, fmt.Errorf("failed to scan time entry: %w", err)
		}
		e.CheckIn = e.CheckIn.In(a.loc)
		if e.CheckOut != nil {
			out := e.CheckOut.In(a.loc)
			e.CheckOut = &out
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate time entries: %w", err)
	}

	return entries, nil
}
