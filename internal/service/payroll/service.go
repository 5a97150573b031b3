package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	Policy  RatePolicy
	Workers int
	Logger  *slog.Logger
	Now     func() time.Time
}

type PayrollServiceImpl struct {
	tx             payroll.Transactor
	cycleRepo      payroll.CycleRepository
	detailRepo     payroll.DetailRepository
	attendanceRepo payroll.AttendanceRepository
	employeeRepo   payroll.EmployeeRepository
	auditRepo      payroll.AuditRepository
	policy         RatePolicy
	workers        int
	logger         *slog.Logger
	now            func() time.Time
}

func NewPayrollService(
	tx payroll.Transactor,
	cycleRepo payroll.CycleRepository,
	detailRepo payroll.DetailRepository,
	attendanceRepo payroll.AttendanceRepository,
	employeeRepo payroll.EmployeeRepository,
	auditRepo payroll.AuditRepository,
	opts Options,
) payroll.PayrollService {
	if opts.Policy == nil {
		opts.Policy = DefaultRatePolicy()
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &PayrollServiceImpl{
		tx:             tx,
		cycleRepo:      cycleRepo,
		detailRepo:     detailRepo,
		attendanceRepo: attendanceRepo,
		employeeRepo:   employeeRepo,
		auditRepo:      auditRepo,
		policy:         opts.Policy,
		workers:        opts.Workers,
		logger:         opts.Logger.With(slog.String("component", "payroll")),
		now:            opts.Now,
	}
}

// ========== CYCLES ==========

func (s *PayrollServiceImpl) CreateCycle(ctx context.Context, req payroll.CreateCycleRequest) (payroll.CycleResponse, error) {
	start, end, err := req.Validate()
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return payroll.CycleResponse{}, fmt.Errorf("failed to generate cycle id: %w", err)
	}

	created, err := s.cycleRepo.Create(ctx, payroll.PayrollCycle{
		ID:        id.String(),
		Name:      req.Name,
		StartDate: start,
		EndDate:   end,
		Status:    payroll.CycleStatusActive,
		Version:   1,
	})
	if err != nil {
		return payroll.CycleResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll cycle created", slog.String("cycle_id", created.ID), slog.String("name", created.Name))
	return mapToCycleResponse(created), nil
}

func (s *PayrollServiceImpl) GetCycle(ctx context.Context, id string) (payroll.CycleResponse, error) {
	cycle, err := s.cycleRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.CycleResponse{}, err
	}
	return mapToCycleResponse(cycle), nil
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *PayrollServiceImpl) ListCycles(ctx context.Context, filter payroll.CycleFilter) (payroll.ListCycleResponse, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	cycles, total, err := s.cycleRepo.List(ctx, filter)
	if err != nil {
		return payroll.ListCycleResponse{}, err
	}

	data := make([]payroll.CycleResponse, 0, len(cycles))
	for _, c := range cycles {
		data = append(data, mapToCycleResponse(c))
	}
	return payroll.ListCycleResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

// ========== CALCULATION ==========

// calculateCycle loads attendance and rates and aggregates every employee.
func (s *PayrollServiceImpl) calculateCycle(ctx context.Context, cycle payroll.PayrollCycle) (CycleCalculation, []payroll.EmployeeRates, error) {
	if err := payroll.ValidateDateRange(cycle.StartDate, cycle.EndDate); err != nil {
		return CycleCalculation{}, nil, err
	}

	// Entries are grouped by their local date, so fetch a day either side and
	// let the aggregator apply the exact boundary.
	from := cycle.StartDate.AddDate(0, 0, -1)
	to := cycle.EndDate.AddDate(0, 0, 2)
	entries, err := s.attendanceRepo.ListTimeEntries(ctx, from, to)
	if err != nil {
		return CycleCalculation{}, nil, fmt.Errorf("failed to load time entries: %w", err)
	}

	rates, err := s.employeeRepo.ListActiveRates(ctx)
	if err != nil {
		return CycleCalculation{}, nil, fmt.Errorf("failed to load employee rates: %w", err)
	}

	calc, err := AggregateCycle(ctx, entries, rates, cycle.StartDate, cycle.EndDate, s.policy, s.workers)
	if err != nil {
		return CycleCalculation{}, nil, err
	}
	if len(calc.Unknown) > 0 {
		s.logger.WarnContext(ctx, "time entries reference unknown employees",
			slog.String("cycle_id", cycle.ID),
			slog.Any("employee_ids", calc.Unknown),
		)
	}
	return calc, rates, nil
}

func (s *PayrollServiceImpl) Calculate(ctx context.Context, cycleID string) (payroll.CalculationResponse, error) {
	cycle, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}
	if !cycle.IsEditable() {
		return payroll.CalculationResponse{}, payroll.ErrFinalizedCycle
	}

	calc, _, err := s.calculateCycle(ctx, cycle)
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	var written []payroll.PayrollDetail
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		locked, err := s.cycleRepo.GetByIDForShare(txCtx, cycleID)
		if err != nil {
			return err
		}
		if !locked.IsEditable() {
			return payroll.ErrFinalizedCycle
		}

		existing, err := s.detailRepo.ListByCycle(txCtx, cycleID)
		if err != nil {
			return err
		}
		byEmployee := make(map[string]payroll.PayrollDetail, len(existing))
		for _, d := range existing {
			byEmployee[d.EmployeeID] = d
		}

		written = make([]payroll.PayrollDetail, 0, len(calc.Employees))
		for _, ec := range calc.Employees {
			detail, err := s.upsertCalculation(txCtx, cycleID, ec, byEmployee)
			if err != nil {
				return err
			}
			delete(byEmployee, ec.EmployeeID)
			written = append(written, detail)
		}

		// Details left over lost all their qualifying entries since the last run.
		// Zero them so the summary reports them instead of paying stale figures.
		for _, stale := range byEmployee {
			zero := payroll.EmployeeCalculation{
				EmployeeID: stale.EmployeeID,
				BranchID:   stale.BranchID,
				TotalHours: decimal.Zero,
				BasePay:    decimal.Zero,
				Method:     payroll.MethodHourly,
			}
			if _, err := s.upsertCalculation(txCtx, cycleID, zero, map[string]payroll.PayrollDetail{stale.EmployeeID: stale}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return payroll.CalculationResponse{}, err
	}

	summary := BuildSummary(cycle, written, SummaryContext{})
	s.logger.InfoContext(ctx, "payroll cycle calculated",
		slog.String("cycle_id", cycleID),
		slog.Int("employees", len(written)),
		slog.String("total_base_pay", summary.Totals.TotalBasePay.StringFixed(2)),
	)

	detailIDs := make(map[string]string, len(written))
	for _, d := range written {
		detailIDs[d.EmployeeID] = d.ID
	}
	return mapToCalculationResponse(cycleID, calc.Employees, detailIDs, summary.Totals), nil
}

func (s *PayrollServiceImpl) upsertCalculation(ctx context.Context, cycleID string, ec payroll.EmployeeCalculation, existing map[string]payroll.PayrollDetail) (payroll.PayrollDetail, error) {
	detail, ok := existing[ec.EmployeeID]
	if !ok {
		id, err := uuid.NewV7()
		if err != nil {
			return payroll.PayrollDetail{}, fmt.Errorf("failed to generate detail id: %w", err)
		}
		detail = payroll.PayrollDetail{
			ID:          id.String(),
			CycleID:     cycleID,
			EmployeeID:  ec.EmployeeID,
			OvertimePay: decimal.Zero,
			Bonus:       decimal.Zero,
			Deduction:   decimal.Zero,
		}
	}
	detail.BranchID = ec.BranchID
	detail.BasePay = ec.BasePay
	detail.TotalHours = ec.TotalHours
	detail.TotalDaysWorked = ec.TotalDaysWorked
	detail.CalculationMethod = ec.Method

	return s.detailRepo.UpsertCalculation(ctx, detail)
}

func (s *PayrollServiceImpl) ListDetails(ctx context.Context, cycleID string) ([]payroll.DetailResponse, error) {
	if _, err := s.cycleRepo.GetByID(ctx, cycleID); err != nil {
		return nil, err
	}
	details, err := s.detailRepo.ListByCycle(ctx, cycleID)
	if err != nil {
		return nil, err
	}
	result := make([]payroll.DetailResponse, 0, len(details))
	for _, d := range details {
		result = append(result, mapToDetailResponse(d))
	}
	return result, nil
}

func (s *PayrollServiceImpl) GetDetail(ctx context.Context, detailID string) (payroll.DetailResponse, error) {
	detail, err := s.detailRepo.GetByID(ctx, detailID)
	if err != nil {
		return payroll.DetailResponse{}, err
	}
	return mapToDetailResponse(detail), nil
}

// ========== ADJUSTMENTS ==========

// adjust applies mutate to a detail inside one transaction. The cycle row is
// share-locked so a concurrent finalize waits for this write, and the detail
// write is version-checked so a concurrent adjustment loses cleanly.
func (s *PayrollServiceImpl) adjust(ctx context.Context, detailID string, action string, mutate func(payroll.PayrollDetail) (payroll.PayrollDetail, error)) (payroll.DetailResponse, error) {
	var updated payroll.PayrollDetail
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		detail, err := s.detailRepo.GetByID(txCtx, detailID)
		if err != nil {
			return err
		}
		cycle, err := s.cycleRepo.GetByIDForShare(txCtx, detail.CycleID)
		if err != nil {
			return err
		}
		if !cycle.IsEditable() {
			return payroll.ErrFinalizedCycle
		}

		next, err := mutate(detail)
		if err != nil {
			return err
		}
		updated, err = s.detailRepo.UpdateAdjustments(txCtx, next)
		return err
	})
	if err != nil {
		var vErr *payroll.ValidationError
		if !errors.As(err, &vErr) {
			s.logger.WarnContext(ctx, "payroll adjustment rejected",
				slog.String("detail_id", detailID),
				slog.String("action", action),
				slog.String("error", err.Error()),
			)
		}
		return payroll.DetailResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll adjustment applied",
		slog.String("detail_id", detailID),
		slog.String("cycle_id", updated.CycleID),
		slog.String("action", action),
		slog.String("net_pay", updated.NetPay().StringFixed(2)),
	)
	return mapToDetailResponse(updated), nil
}

func (s *PayrollServiceImpl) SetBonus(ctx context.Context, req payroll.AdjustmentRequest) (payroll.DetailResponse, error) {
	return s.adjust(ctx, req.DetailID, "set_bonus", func(d payroll.PayrollDetail) (payroll.PayrollDetail, error) {
		return SetBonus(d, req.Amount, req.Reason)
	})
}

func (s *PayrollServiceImpl) SetDeduction(ctx context.Context, req payroll.AdjustmentRequest) (payroll.DetailResponse, error) {
	return s.adjust(ctx, req.DetailID, "set_deduction", func(d payroll.PayrollDetail) (payroll.PayrollDetail, error) {
		return SetDeduction(d, req.Amount, req.Reason)
	})
}

func (s *PayrollServiceImpl) ClearBonus(ctx context.Context, detailID string) (payroll.DetailResponse, error) {
	return s.adjust(ctx, detailID, "clear_bonus", func(d payroll.PayrollDetail) (payroll.PayrollDetail, error) {
		return ClearBonus(d), nil
	})
}

func (s *PayrollServiceImpl) ClearDeduction(ctx context.Context, detailID string) (payroll.DetailResponse, error) {
	return s.adjust(ctx, detailID, "clear_deduction", func(d payroll.PayrollDetail) (payroll.PayrollDetail, error) {
		return ClearDeduction(d), nil
	})
}

func (s *PayrollServiceImpl) PreviewAdjustment(ctx context.Context, req payroll.PreviewRequest) (payroll.PreviewResponse, error) {
	detail, err := s.detailRepo.GetByID(ctx, req.DetailID)
	if err != nil {
		return payroll.PreviewResponse{}, err
	}
	cycle, err := s.cycleRepo.GetByID(ctx, detail.CycleID)
	if err != nil {
		return payroll.PreviewResponse{}, err
	}
	if !cycle.IsEditable() {
		return payroll.PreviewResponse{}, payroll.ErrFinalizedCycle
	}
	proposed, err := PreviewNetPay(detail, req.Kind, req.Amount, req.Reason)
	if err != nil {
		return payroll.PreviewResponse{}, err
	}
	return payroll.PreviewResponse{
		DetailID:       detail.ID,
		Kind:           string(req.Kind),
		CurrentNetPay:  detail.NetPay(),
		ProposedNetPay: proposed,
	}, nil
}

// ========== SUMMARY & FINALIZATION ==========

// summarize builds a fresh summary. It reads through ctx so that inside a
// transaction it observes the same snapshot as the caller.
func (s *PayrollServiceImpl) summarize(ctx context.Context, cycle payroll.PayrollCycle) (payroll.CycleSummary, error) {
	details, err := s.detailRepo.ListByCycle(ctx, cycle.ID)
	if err != nil {
		return payroll.CycleSummary{}, err
	}

	calc, rates, err := s.calculateCycle(ctx, cycle)
	if err != nil {
		return payroll.CycleSummary{}, err
	}

	known := make(map[string]bool, len(rates))
	for _, r := range rates {
		known[r.EmployeeID] = true
	}
	expected := make([]string, 0, len(calc.Employees))
	for _, ec := range calc.Employees {
		expected = append(expected, ec.EmployeeID)
	}

	return BuildSummary(cycle, details, SummaryContext{
		ExpectedEmployees: expected,
		UnratedEmployees:  calc.Unknown,
		KnownEmployees:    known,
	}), nil
}

func (s *PayrollServiceImpl) GetSummary(ctx context.Context, cycleID string) (payroll.CycleSummary, error) {
	cycle, err := s.cycleRepo.GetByID(ctx, cycleID)
	if err != nil {
		return payroll.CycleSummary{}, err
	}

	if cycle.Status == payroll.CycleStatusCompleted {
		audit, err := s.auditRepo.GetByCycleID(ctx, cycleID)
		if err != nil {
			return payroll.CycleSummary{}, err
		}
		return FrozenSummary(cycle, audit), nil
	}

	return s.summarize(ctx, cycle)
}

func (s *PayrollServiceImpl) Finalize(ctx context.Context, cycleID string, actorID string) (payroll.FinalizationResponse, error) {
	if actorID == "" {
		return payroll.FinalizationResponse{}, payroll.ErrActorRequired
	}

	var audit payroll.FinalizationAudit
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		cycle, err := s.cycleRepo.GetByIDForUpdate(txCtx, cycleID)
		if err != nil {
			return err
		}
		if cycle.Status == payroll.CycleStatusCompleted {
			return payroll.ErrAlreadyFinalized
		}

		summary, err := s.summarize(txCtx, cycle)
		if err != nil {
			return err
		}
		if err := CheckFinalizable(cycle, summary); err != nil {
			return err
		}

		auditID, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate audit id: %w", err)
		}
		finalizedAt := s.now().UTC()

		if _, err := s.cycleRepo.MarkCompleted(txCtx, cycleID, finalizedAt, actorID); err != nil {
			return err
		}

		audit, err = s.auditRepo.Create(txCtx, payroll.FinalizationAudit{
			ID:              auditID.String(),
			CycleID:         cycleID,
			FinalizedBy:     actorID,
			FinalizedAt:     finalizedAt,
			Totals:          summary.Totals,
			BranchBreakdown: summary.BranchBreakdown,
		})
		return err
	})
	if err != nil {
		var failed *payroll.ValidationFailedError
		switch {
		case errors.As(err, &failed):
			s.logger.WarnContext(ctx, "payroll finalize blocked by validation issues",
				slog.String("cycle_id", cycleID),
				slog.Int("issues", len(failed.Issues)),
			)
		case errors.Is(err, payroll.ErrAlreadyFinalized):
			s.logger.InfoContext(ctx, "payroll cycle already finalized", slog.String("cycle_id", cycleID))
		}
		return payroll.FinalizationResponse{}, err
	}

	s.logger.InfoContext(ctx, "payroll cycle finalized",
		slog.String("cycle_id", cycleID),
		slog.String("finalized_by", actorID),
		slog.String("total_net_pay", audit.Totals.TotalNetPay.StringFixed(2)),
	)
	return mapToFinalizationResponse(audit), nil
}

func (s *PayrollServiceImpl) GetFinalization(ctx context.Context, cycleID string) (payroll.FinalizationResponse, error) {
	if _, err := s.cycleRepo.GetByID(ctx, cycleID); err != nil {
		return payroll.FinalizationResponse{}, err
	}
	audit, err := s.auditRepo.GetByCycleID(ctx, cycleID)
	if err != nil {
		return payroll.FinalizationResponse{}, err
	}
	return mapToFinalizationResponse(audit), nil
}

// ========== HELPERS ==========

func mapToCycleResponse(c payroll.PayrollCycle) payroll.CycleResponse {
	var finalizedAt *string
	if c.FinalizedAt != nil {
		str := c.FinalizedAt.Format(time.RFC3339)
		finalizedAt = &str
	}
	return payroll.CycleResponse{
		ID:          c.ID,
		Name:        c.Name,
		StartDate:   c.StartDate.Format(dateLayout),
		EndDate:     c.EndDate.Format(dateLayout),
		Status:      string(c.Status),
		FinalizedAt: finalizedAt,
		FinalizedBy: c.FinalizedBy,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
	}
}

func mapToDetailResponse(d payroll.PayrollDetail) payroll.DetailResponse {
	return payroll.DetailResponse{
		ID:                d.ID,
		CycleID:           d.CycleID,
		EmployeeID:        d.EmployeeID,
		EmployeeName:      d.EmployeeName,
		BranchID:          d.BranchID,
		BasePay:           d.BasePay,
		OvertimePay:       d.OvertimePay,
		Bonus:             d.Bonus,
		BonusReason:       d.BonusReason,
		Deduction:         d.Deduction,
		DeductionReason:   d.DeductionReason,
		NetPay:            d.NetPay(),
		TotalHours:        d.TotalHours,
		TotalDaysWorked:   d.TotalDaysWorked,
		CalculationMethod: string(d.CalculationMethod),
		Version:           d.Version,
	}
}

func mapToCalculationResponse(cycleID string, employees []payroll.EmployeeCalculation, detailIDs map[string]string, totals payroll.CycleTotals) payroll.CalculationResponse {
	result := payroll.CalculationResponse{
		CycleID:   cycleID,
		Employees: make([]payroll.EmployeeCalculationResponse, 0, len(employees)),
		Totals:    totals,
	}
	for _, ec := range employees {
		days := make([]payroll.DayCalculationResponse, 0, len(ec.Days))
		for _, d := range ec.Days {
			days = append(days, payroll.DayCalculationResponse{
				Date:   d.Date,
				Hours:  d.Hours,
				Method: string(d.Method),
				Pay:    d.Pay,
			})
		}
		result.Employees = append(result.Employees, payroll.EmployeeCalculationResponse{
			DetailID:          detailIDs[ec.EmployeeID],
			EmployeeID:        ec.EmployeeID,
			BranchID:          ec.BranchID,
			TotalHours:        ec.TotalHours,
			TotalDaysWorked:   ec.TotalDaysWorked,
			BasePay:           ec.BasePay,
			CalculationMethod: string(ec.Method),
			Days:              days,
		})
	}
	return result
}

func mapToFinalizationResponse(a payroll.FinalizationAudit) payroll.FinalizationResponse {
	breakdown := a.BranchBreakdown
	if breakdown == nil {
		breakdown = []payroll.BranchSubtotal{}
	}
	return payroll.FinalizationResponse{
		ID:              a.ID,
		CycleID:         a.CycleID,
		FinalizedBy:     a.FinalizedBy,
		FinalizedAt:     a.FinalizedAt.Format(time.RFC3339),
		Totals:          a.Totals,
		BranchBreakdown: breakdown,
	}
}
