package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/tastas/marketplace-core/internal/core/job"
)

// AvailabilityChecker は応募可否判定サービスのインターフェースです。
type AvailabilityChecker interface {
	CanApplyToWorkDate(ctx context.Context, jobID, workDateID, workerID int64) (job.Availability, error)
}

// AvailabilityHandler は応募可否判定の HTTP ハンドラーです。
type AvailabilityHandler struct {
	service AvailabilityChecker
}

// NewAvailabilityHandler は AvailabilityHandler を生成します。
func NewAvailabilityHandler(service AvailabilityChecker) *AvailabilityHandler {
	return &AvailabilityHandler{service: service}
}

type availabilityResponse struct {
	CanApply        bool   `json:"can_apply"`
	IsApplied       bool   `json:"is_applied"`
	HasTimeConflict bool   `json:"has_time_conflict"`
	IsFull          bool   `json:"is_full"`
	DeadlinePassed  bool   `json:"deadline_passed"`
	Reason          string `json:"reason,omitempty"`
}

// Get は GET /jobs/{jobID}/work-dates/{workDateID}/availability を処理します。
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request, jobID, workDateID int64) {
	workerID, err := strconv.ParseInt(r.URL.Query().Get("worker_id"), 10, 64)
	if err != nil || workerID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "worker_id query parameter is required"})
		return
	}

	availability, err := h.service.CanApplyToWorkDate(r.Context(), jobID, workDateID, workerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, availabilityResponse{
		CanApply:        availability.CanApply,
		IsApplied:       availability.IsApplied,
		HasTimeConflict: availability.HasTimeConflict,
		IsFull:          availability.IsFull,
		DeadlinePassed:  availability.DeadlinePassed,
		Reason:          availability.Reason(),
	})
}
