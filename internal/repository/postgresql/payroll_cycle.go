package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type cycleRepository struct {
	db *database.DB
}

func NewCycleRepository(db *database.DB) payroll.CycleRepository {
	return &cycleRepository{db: db}
}

const cycleColumns = `id, name, start_date, end_date, status, finalized_at, finalized_by, version, created_at, updated_at`

func scanCycle(row pgx.Row) (payroll.PayrollCycle, error) {
	var c payroll.PayrollCycle
	err := row.Scan(
		&c.ID, &c.Name, &c.StartDate, &c.EndDate, &c.Status,
		&c.FinalizedAt, &c.FinalizedBy, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func (r *cycleRepository) Create(ctx context.Context, cycle payroll.PayrollCycle) (payroll.PayrollCycle, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_cycles (id, name, start_date, end_date, status, version)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + cycleColumns

	created, err := scanCycle(q.QueryRow(ctx, query,
		cycle.ID, cycle.Name, cycle.StartDate, cycle.EndDate, cycle.Status, cycle.Version,
	))
	if err != nil {
		return payroll.PayrollCycle{}, fmt.Errorf("failed to create payroll cycle: %w", err)
	}
	return created, nil
}

func (r *cycleRepository) getByID(ctx context.Context, id string, lock string) (payroll.PayrollCycle, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + cycleColumns + ` FROM payroll_cycles WHERE id = $1` + lock

	c, err := scanCycle(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.PayrollCycle{}, payroll.ErrCycleNotFound
		}
		return payroll.PayrollCycle{}, fmt.Errorf("failed to get payroll cycle: %w", err)
	}
	return c, nil
}

func (r *cycleRepository) GetByID(ctx context.Context, id string) (payroll.PayrollCycle, error) {
	return r.getByID(ctx, id, "")
}

func (r *cycleRepository) GetByIDForUpdate(ctx context.Context, id string) (payroll.PayrollCycle, error) {
	return r.getByID(ctx, id, " FOR UPDATE")
}

func (r *cycleRepository) GetByIDForShare(ctx context.Context, id string) (payroll.PayrollCycle, error) {
	return r.getByID(ctx, id, " FOR SHARE")
}

func (r *cycleRepository) List(ctx context.Context, filter payroll.CycleFilter) ([]payroll.PayrollCycle, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := ""
	args := []interface{}{}
	if filter.Status != nil {
		where = " WHERE status = $1"
		args = append(args, *filter.Status)
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM payroll_cycles`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count payroll cycles: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	query := fmt.Sprintf(`SELECT %s FROM payroll_cycles%s ORDER BY start_date DESC, id LIMIT $%d OFFSET $%d`,
		cycleColumns, where, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, offset)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payroll cycles: %w", err)
	}
	defer rows.Close()

	cycles := make([]payroll.PayrollCycle, 0)
	for rows.Next() {
		c, err := scanCycle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan payroll cycle: %w", err)
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate payroll cycles: %w", err)
	}

	return cycles, total, nil
}

func (r *cycleRepository) MarkCompleted(ctx context.Context, id string, finalizedAt time.Time, finalizedBy string) (payroll.PayrollCycle, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_cycles
		SET status = 'completed', finalized_at = $2, finalized_by = $3,
			version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + cycleColumns

	c, err := scanCycle(q.QueryRow(ctx, query, id, finalizedAt, finalizedBy))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the cycle is gone or another finalize won.
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return payroll.PayrollCycle{}, getErr
			}
			return payroll.PayrollCycle{}, payroll.ErrAlreadyFinalized
		}
		return payroll.PayrollCycle{}, fmt.Errorf("failed to finalize payroll cycle: %w", err)
	}
	return c, nil
}
