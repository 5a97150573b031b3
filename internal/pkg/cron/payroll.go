package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

// CycleCalculator is the part of the payroll service the recalculation job needs.
type CycleCalculator interface {
	ListCycles(ctx context.Context, filter payroll.CycleFilter) (payroll.ListCycleResponse, error)
	Calculate(ctx context.Context, cycleID string) (payroll.CalculationResponse, error)
}

const recalculatePageSize = 50

type PayrollJobs struct {
	calculator CycleCalculator
	interval   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

func NewPayrollJobs(calculator CycleCalculator, interval time.Duration, logger *slog.Logger) *PayrollJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &PayrollJobs{
		calculator: calculator,
		interval:   interval,
		logger:     logger,
		now:        time.Now,
	}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("recalculate_active_cycles", j.interval, j.RecalculateActiveCycles)
}

// RecalculateActiveCycles reruns Calculate for every active cycle that has
// already started. A cycle finalized between listing and calculating is skipped.
func (j *PayrollJobs) RecalculateActiveCycles(ctx context.Context) error {
	today := j.now().UTC().Format("2006-01-02")
	status := string(payroll.CycleStatusActive)

	var (
		errs       []error
		calculated int
	)
	for page := 1; ; page++ {
		list, err := j.calculator.ListCycles(ctx, payroll.CycleFilter{
			Status: &status,
			Page:   page,
			Limit:  recalculatePageSize,
		})
		if err != nil {
			return fmt.Errorf("failed to list active cycles: %w", err)
		}

		for _, cycle := range list.Data {
			if cycle.StartDate > today {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			_, err := j.calculator.Calculate(ctx, cycle.ID)
			switch {
			case err == nil:
				calculated++
			case errors.Is(err, payroll.ErrFinalizedCycle):
				j.logger.DebugContext(ctx, "cycle finalized before recalculation", slog.String("cycle_id", cycle.ID))
			default:
				errs = append(errs, fmt.Errorf("cycle %s: %w", cycle.ID, err))
			}
		}

		if len(list.Data) < recalculatePageSize || int64(page*recalculatePageSize) >= list.TotalCount {
			break
		}
	}

	j.logger.InfoContext(ctx, "active cycles recalculated", slog.Int("cycles", calculated), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}
