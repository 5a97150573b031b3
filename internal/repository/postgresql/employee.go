package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) payroll.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// ListActiveRates implements payroll.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveRates(ctx context.Context) ([]payroll.EmployeeRates, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, full_name, branch_id, hourly_rate, daily_rate
		FROM employees
		WHERE employment_status = 'active' AND deleted_at IS NULL
		ORDER BY id
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee rates: %w", err)
	}
	defer rows.Close()

	rates := make([]payroll.EmployeeRates, 0)
	for rows.Next() {
		var r payroll.EmployeeRates
		if err := rows.Scan(&r.EmployeeID, &r.EmployeeName, &r.BranchID, &r.HourlyRate, &r.DailyRate); err != nil {
			return nil, fmt.Errorf("failed to scan employee rates: %w", err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate employee rates: %w", err)
	}

	return rates, nil
}
