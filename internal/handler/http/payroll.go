package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Cycles
	CreateCycle(w http.ResponseWriter, r *http.Request)
	GetCycle(w http.ResponseWriter, r *http.Request)
	ListCycles(w http.ResponseWriter, r *http.Request)

	// Calculation
	Calculate(w http.ResponseWriter, r *http.Request)
	ListDetails(w http.ResponseWriter, r *http.Request)
	GetDetail(w http.ResponseWriter, r *http.Request)

	// Adjustments
	SetBonus(w http.ResponseWriter, r *http.Request)
	ClearBonus(w http.ResponseWriter, r *http.Request)
	SetDeduction(w http.ResponseWriter, r *http.Request)
	ClearDeduction(w http.ResponseWriter, r *http.Request)
	PreviewAdjustment(w http.ResponseWriter, r *http.Request)

	// Summary & finalization
	GetSummary(w http.ResponseWriter, r *http.Request)
	Finalize(w http.ResponseWriter, r *http.Request)
	GetFinalization(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
}

func NewPayrollHandler(payrollService payroll.PayrollService) PayrollHandler {
	return &payrollHandlerImpl{payrollService: payrollService}
}

// adjustmentBody keeps amount raw so that strings, numbers and garbage all
// reach the same validation path.
type adjustmentBody struct {
	Kind   string          `json:"kind,omitempty"`
	Amount json.RawMessage `json:"amount"`
	Reason string          `json:"reason"`
}

func decodeAdjustment(r *http.Request) (adjustmentBody, bool) {
	var body adjustmentBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, false
	}
	return body, true
}

// ========== CYCLES ==========

func (h *payrollHandlerImpl) CreateCycle(w http.ResponseWriter, r *http.Request) {
	var req payroll.CreateCycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateCycle(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll cycle created", result)
}

func (h *payrollHandlerImpl) GetCycle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.payrollService.GetCycle(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListCycles(w http.ResponseWriter, r *http.Request) {
	var filter payroll.CycleFilter

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = &status
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		filter.Limit = limit
	}

	result, err := h.payrollService.ListCycles(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	totalPages := 0
	if result.Limit > 0 {
		totalPages = int((result.TotalCount + int64(result.Limit) - 1) / int64(result.Limit))
	}
	response.SuccessWithMeta(w, result.Data, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: totalPages,
	})
}

// ========== CALCULATION ==========

func (h *payrollHandlerImpl) Calculate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.payrollService.Calculate(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll calculated", result)
}

func (h *payrollHandlerImpl) ListDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.payrollService.ListDetails(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) GetDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Detail ID is required", nil)
		return
	}

	result, err := h.payrollService.GetDetail(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== ADJUSTMENTS ==========

func (h *payrollHandlerImpl) parseAdjustment(w http.ResponseWriter, r *http.Request) (payroll.AdjustmentRequest, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Detail ID is required", nil)
		return payroll.AdjustmentRequest{}, false
	}

	body, ok := decodeAdjustment(r)
	if !ok {
		response.BadRequest(w, "Invalid request body", nil)
		return payroll.AdjustmentRequest{}, false
	}

	amount, err := payroll.ParseAmount(string(body.Amount))
	if err != nil {
		response.HandleError(w, err)
		return payroll.AdjustmentRequest{}, false
	}

	return payroll.AdjustmentRequest{DetailID: id, Amount: amount, Reason: body.Reason}, true
}

func (h *payrollHandlerImpl) SetBonus(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseAdjustment(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.SetBonus(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bonus updated", result)
}

func (h *payrollHandlerImpl) ClearBonus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Detail ID is required", nil)
		return
	}

	result, err := h.payrollService.ClearBonus(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Bonus cleared", result)
}

func (h *payrollHandlerImpl) SetDeduction(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseAdjustment(w, r)
	if !ok {
		return
	}

	result, err := h.payrollService.SetDeduction(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Deduction updated", result)
}

func (h *payrollHandlerImpl) ClearDeduction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Detail ID is required", nil)
		return
	}

	result, err := h.payrollService.ClearDeduction(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Deduction cleared", result)
}

func (h *payrollHandlerImpl) PreviewAdjustment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Detail ID is required", nil)
		return
	}

	body, ok := decodeAdjustment(r)
	if !ok {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	amount, err := payroll.ParseAmount(string(body.Amount))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.payrollService.PreviewAdjustment(r.Context(), payroll.PreviewRequest{
		DetailID: id,
		Kind:     payroll.AdjustmentKind(body.Kind),
		Amount:   amount,
		Reason:   body.Reason,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== SUMMARY & FINALIZATION ==========

func (h *payrollHandlerImpl) GetSummary(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.payrollService.GetSummary(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) Finalize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.payrollService.Finalize(r.Context(), id, middleware.ActorFromContext(r.Context()))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll cycle finalized", result)
}

func (h *payrollHandlerImpl) GetFinalization(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Cycle ID is required", nil)
		return
	}

	result, err := h.payrollService.GetFinalization(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
