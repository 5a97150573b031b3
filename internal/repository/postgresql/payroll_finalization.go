package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type auditRepository struct {
	db *database.DB
}

func NewAuditRepository(db *database.DB) payroll.AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, audit payroll.FinalizationAudit) (payroll.FinalizationAudit, error) {
	q := GetQuerier(ctx, r.db)

	totals, err := json.Marshal(audit.Totals)
	if err != nil {
		return payroll.FinalizationAudit{}, fmt.Errorf("failed to encode totals snapshot: %w", err)
	}
	breakdown := audit.BranchBreakdown
	if breakdown == nil {
		breakdown = []payroll.BranchSubtotal{}
	}
	branches, err := json.Marshal(breakdown)
	if err != nil {
		return payroll.FinalizationAudit{}, fmt.Errorf("failed to encode branch snapshot: %w", err)
	}

	query := `
		INSERT INTO payroll_finalizations (id, cycle_id, finalized_by, finalized_at, totals, branch_breakdown)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err = q.QueryRow(ctx, query,
		audit.ID, audit.CycleID, audit.FinalizedBy, audit.FinalizedAt, totals, branches,
	).Scan(&audit.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == "uk_payroll_finalization_cycle" {
			return payroll.FinalizationAudit{}, payroll.ErrAlreadyFinalized
		}
		return payroll.FinalizationAudit{}, fmt.Errorf("failed to create finalization record: %w", err)
	}

	audit.BranchBreakdown = breakdown
	return audit, nil
}

func (r *auditRepository) GetByCycleID(ctx context.Context, cycleID string) (payroll.FinalizationAudit, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, cycle_id, finalized_by, finalized_at, totals, branch_breakdown, created_at
		FROM payroll_finalizations
		WHERE cycle_id = $1
	`

	var a payroll.FinalizationAudit
	var totals, branches []byte
	err := q.QueryRow(ctx, query, cycleID).Scan(
		&a.ID, &a.CycleID, &a.FinalizedBy, &a.FinalizedAt, &totals, &branches, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.FinalizationAudit{}, payroll.ErrAuditNotFound
		}
		return payroll.FinalizationAudit{}, fmt.Errorf("failed to get finalization record: %w", err)
	}

	if err := json.Unmarshal(totals, &a.Totals); err != nil {
		return payroll.FinalizationAudit{}, fmt.Errorf("failed to decode totals snapshot: %w", err)
	}
	if err := json.Unmarshal(branches, &a.BranchBreakdown); err != nil {
		return payroll.FinalizationAudit{}, fmt.Errorf("failed to decode branch snapshot: %w", err)
	}

	return a, nil
}
