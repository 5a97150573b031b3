package payroll

import "context"

type PayrollService interface {
	// Cycles
	CreateCycle(ctx context.Context, req CreateCycleRequest) (CycleResponse, error)
	GetCycle(ctx context.Context, id string) (CycleResponse, error)
	ListCycles(ctx context.Context, filter CycleFilter) (ListCycleResponse, error)

	// Calculation
	Calculate(ctx context.Context, cycleID string) (CalculationResponse, error)
	ListDetails(ctx context.Context, cycleID string) ([]DetailResponse, error)
	GetDetail(ctx context.Context, detailID string) (DetailResponse, error)

	// Adjustments
	SetBonus(ctx context.Context, req AdjustmentRequest) (DetailResponse, error)
	SetDeduction(ctx context.Context, req AdjustmentRequest) (DetailResponse, error)
	ClearBonus(ctx context.Context, detailID string) (DetailResponse, error)
	ClearDeduction(ctx context.Context, detailID string) (DetailResponse, error)
	PreviewAdjustment(ctx context.Context, req PreviewRequest) (PreviewResponse, error)

	// Summary & finalization
	GetSummary(ctx context.Context, cycleID string) (CycleSummary, error)
	Finalize(ctx context.Context, cycleID string, actorID string) (FinalizationResponse, error)
	GetFinalization(ctx context.Context, cycleID string) (FinalizationResponse, error)
}
