package cron

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCalculator struct {
	mu         sync.Mutex
	cycles     []payroll.CycleResponse
	failures   map[string]error
	calculated []string
	listErr    error
}

func (f *fakeCalculator) ListCycles(ctx context.Context, filter payroll.CycleFilter) (payroll.ListCycleResponse, error) {
	if f.listErr != nil {
		return payroll.ListCycleResponse{}, f.listErr
	}
	var matching []payroll.CycleResponse
	for _, c := range f.cycles {
		if filter.Status == nil || c.Status == *filter.Status {
			matching = append(matching, c)
		}
	}
	start := (filter.Page - 1) * filter.Limit
	end := start + filter.Limit
	if start > len(matching) {
		start = len(matching)
	}
	if end > len(matching) {
		end = len(matching)
	}
	return payroll.ListCycleResponse{
		Data:       matching[start:end],
		TotalCount: int64(len(matching)),
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (f *fakeCalculator) Calculate(ctx context.Context, cycleID string) (payroll.CalculationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures[cycleID]; err != nil {
		return payroll.CalculationResponse{}, err
	}
	f.calculated = append(f.calculated, cycleID)
	return payroll.CalculationResponse{CycleID: cycleID}, nil
}

func newJobs(calc CycleCalculator) *PayrollJobs {
	jobs := NewPayrollJobs(calc, time.Hour, nil)
	jobs.now = func() time.Time { return time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC) }
	return jobs
}

func TestRecalculateActiveCycles_SkipsFutureAndCompleted(t *testing.T) {
	calc := &fakeCalculator{cycles: []payroll.CycleResponse{
		{ID: "jan", StartDate: "2025-01-01", Status: "active"},
		{ID: "today", StartDate: "2025-01-15", Status: "active"},
		{ID: "feb", StartDate: "2025-02-01", Status: "active"},
		{ID: "dec", StartDate: "2024-12-01", Status: "completed"},
	}}

	err := newJobs(calc).RecalculateActiveCycles(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"jan", "today"}, calc.calculated)
}

func TestRecalculateActiveCycles_PagesThroughAllCycles(t *testing.T) {
	calc := &fakeCalculator{}
	for i := 0; i < recalculatePageSize+7; i++ {
		calc.cycles = append(calc.cycles, payroll.CycleResponse{
			ID: fmt.Sprintf("cycle-%03d", i), StartDate: "2025-01-01", Status: "active",
		})
	}

	err := newJobs(calc).RecalculateActiveCycles(context.Background())

	require.NoError(t, err)
	assert.Len(t, calc.calculated, recalculatePageSize+7)
}

func TestRecalculateActiveCycles_FinalizedRaceIsNotAnError(t *testing.T) {
	boom := errors.New("boom")
	calc := &fakeCalculator{
		cycles: []payroll.CycleResponse{
			{ID: "raced", StartDate: "2025-01-01", Status: "active"},
			{ID: "broken", StartDate: "2025-01-01", Status: "active"},
			{ID: "ok", StartDate: "2025-01-01", Status: "active"},
		},
		failures: map[string]error{
			"raced":  payroll.ErrFinalizedCycle,
			"broken": boom,
		},
	}

	err := newJobs(calc).RecalculateActiveCycles(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, payroll.ErrFinalizedCycle)
	assert.Equal(t, []string{"ok"}, calc.calculated)
}

func TestRecalculateActiveCycles_ListFailure(t *testing.T) {
	calc := &fakeCalculator{listErr: errors.New("db down")}

	err := newJobs(calc).RecalculateActiveCycles(context.Background())

	assert.ErrorContains(t, err, "failed to list active cycles")
}

type traceKey struct{}

// traceHandler records the trace value carried by the context of each record.
type traceHandler struct {
	mu     sync.Mutex
	traces map[string]any
}

func (h *traceHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.traces[r.Message] = ctx.Value(traceKey{})
	return nil
}

func (h *traceHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *traceHandler) WithGroup(string) slog.Handler      { return h }

func TestRecalculateActiveCycles_LogsWithCallerContext(t *testing.T) {
	calc := &fakeCalculator{
		cycles: []payroll.CycleResponse{
			{ID: "raced", StartDate: "2025-01-01", Status: "active"},
			{ID: "ok", StartDate: "2025-01-01", Status: "active"},
		},
		failures: map[string]error{"raced": payroll.ErrFinalizedCycle},
	}
	handler := &traceHandler{traces: map[string]any{}}
	jobs := NewPayrollJobs(calc, time.Hour, slog.New(handler))
	jobs.now = func() time.Time { return time.Date(2025, 1, 15, 3, 0, 0, 0, time.UTC) }
	ctx := context.WithValue(context.Background(), traceKey{}, "run-1")

	require.NoError(t, jobs.RecalculateActiveCycles(ctx))

	assert.Equal(t, "run-1", handler.traces["cycle finalized before recalculation"])
	assert.Equal(t, "run-1", handler.traces["active cycles recalculated"])
}

func TestScheduler_DisabledIntervalIsIgnored(t *testing.T) {
	scheduler := NewScheduler(nil)

	NewPayrollJobs(&fakeCalculator{}, 0, nil).RegisterJobs(scheduler)

	assert.Empty(t, scheduler.Jobs())
}

func TestScheduler_RunOnce(t *testing.T) {
	scheduler := NewScheduler(nil)
	calc := &fakeCalculator{cycles: []payroll.CycleResponse{
		{ID: "jan", StartDate: "2000-01-01", Status: "active"},
	}}
	NewPayrollJobs(calc, time.Minute, nil).RegisterJobs(scheduler)

	scheduler.RunOnce(context.Background())

	assert.Equal(t, []string{"jan"}, calc.calculated)
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler := NewScheduler(nil)
	ran := make(chan struct{}, 1)
	scheduler.AddJob("tick", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})

	scheduler.Start()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}
	scheduler.Stop()
}
