package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type detailRepository struct {
	db *database.DB
}

func NewDetailRepository(db *database.DB) payroll.DetailRepository {
	return &detailRepository{db: db}
}

// net_pay is generated by the database and never read back into the entity.
const detailColumns = `
	d.id, d.cycle_id, d.employee_id, d.branch_id,
	d.base_pay, d.overtime_pay, d.bonus, d.bonus_reason, d.deduction, d.deduction_reason,
	d.total_hours, d.total_days_worked, d.calculation_method, d.version,
	d.created_at, d.updated_at`

func scanDetail(row pgx.Row, withName bool) (payroll.PayrollDetail, error) {
	var d payroll.PayrollDetail
	dest := []interface{}{
		&d.ID, &d.CycleID, &d.EmployeeID, &d.BranchID,
		&d.BasePay, &d.OvertimePay, &d.Bonus, &d.BonusReason, &d.Deduction, &d.DeductionReason,
		&d.TotalHours, &d.TotalDaysWorked, &d.CalculationMethod, &d.Version,
		&d.CreatedAt, &d.UpdatedAt,
	}
	if withName {
		dest = append(dest, &d.EmployeeName)
	}
	err := row.Scan(dest...)
	return d, err
}

func (r *detailRepository) GetByID(ctx context.Context, id string) (payroll.PayrollDetail, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + detailColumns + `, e.full_name
		FROM payroll_details d
		LEFT JOIN employees e ON e.id = d.employee_id
		WHERE d.id = $1
	`

	d, err := scanDetail(q.QueryRow(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollDetail{}, payroll.ErrDetailNotFound
		}
		return payroll.PayrollDetail{}, fmt.Errorf("failed to get payroll detail: %w", err)
	}
	return d, nil
}

func (r *detailRepository) ListByCycle(ctx context.Context, cycleID string) ([]payroll.PayrollDetail, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + detailColumns + `, e.full_name
		FROM payroll_details d
		LEFT JOIN employees e ON e.id = d.employee_id
		WHERE d.cycle_id = $1
		ORDER BY d.employee_id
	`

	rows, err := q.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll details: %w", err)
	}
	defer rows.Close()

	details := make([]payroll.PayrollDetail, 0)
	for rows.Next() {
		d, err := scanDetail(rows, true)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll detail: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll details: %w", err)
	}

	return details, nil
}

// UpsertCalculation bumps version on every write so an adjustment computed
// against the previous base pay is rejected.
func (r *detailRepository) UpsertCalculation(ctx context.Context, detail payroll.PayrollDetail) (payroll.PayrollDetail, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_details AS d (
			id, cycle_id, employee_id, branch_id, base_pay,
			total_hours, total_days_worked, calculation_method
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT ON CONSTRAINT uk_payroll_detail_cycle_employee DO UPDATE SET
			branch_id = EXCLUDED.branch_id,
			base_pay = EXCLUDED.base_pay,
			total_hours = EXCLUDED.total_hours,
			total_days_worked = EXCLUDED.total_days_worked,
			calculation_method = EXCLUDED.calculation_method,
			version = d.version + 1,
			updated_at = NOW()
		RETURNING ` + detailColumns

	d, err := scanDetail(q.QueryRow(ctx, query,
		detail.ID, detail.CycleID, detail.EmployeeID, detail.BranchID, detail.BasePay,
		detail.TotalHours, detail.TotalDaysWorked, detail.CalculationMethod,
	), false)
	if err != nil {
		return payroll.PayrollDetail{}, fmt.Errorf("failed to upsert payroll detail: %w", err)
	}
	return d, nil
}

func (r *detailRepository) UpdateAdjustments(ctx context.Context, detail payroll.PayrollDetail) (payroll.PayrollDetail, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_details d
		SET bonus = $3, bonus_reason = $4, deduction = $5, deduction_reason = $6,
			version = d.version + 1, updated_at = NOW()
		WHERE d.id = $1 AND d.version = $2
		RETURNING ` + detailColumns

	d, err := scanDetail(q.QueryRow(ctx, query,
		detail.ID, detail.Version,
		detail.Bonus, detail.BonusReason, detail.Deduction, detail.DeductionReason,
	), false)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, detail.ID); getErr != nil {
				return payroll.PayrollDetail{}, getErr
			}
			return payroll.PayrollDetail{}, payroll.ErrConcurrentModification
		}
		return payroll.PayrollDetail{}, fmt.Errorf("failed to update payroll adjustments: %w", err)
	}
	d.EmployeeName = detail.EmployeeName
	return d, nil
}
