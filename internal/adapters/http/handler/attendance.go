package handler

import (
	"net/http"
	"time"

	"github.com/tastas/marketplace-core/internal/core/attendance"
)

// AttendanceHandler は勤怠関連の HTTP ハンドラーです。
type AttendanceHandler struct {
	service attendance.UseCase
}

// NewAttendanceHandler は AttendanceHandler を生成します。
func NewAttendanceHandler(service attendance.UseCase) *AttendanceHandler {
	return &AttendanceHandler{service: service}
}

type punchRequest struct {
	ApplicationID int64 `json:"application_id"`
	WorkerID      int64 `json:"worker_id"`
}

type recordResponse struct {
	ID             int64      `json:"id"`
	ApplicationID  int64      `json:"application_id"`
	WorkerID       int64      `json:"worker_id"`
	FacilityID     int64      `json:"facility_id"`
	CheckInAt      time.Time  `json:"check_in_at"`
	CheckOutAt     *time.Time `json:"check_out_at,omitempty"`
	BreakMinutes   int        `json:"break_minutes"`
	CalculatedWage *int       `json:"calculated_wage,omitempty"`
	QRToken        string     `json:"qr_token"`
}

func toRecordResponse(rec *attendance.Record) recordResponse {
	return recordResponse{
		ID:             rec.ID,
		ApplicationID:  rec.ApplicationID,
		WorkerID:       rec.WorkerID,
		FacilityID:     rec.FacilityID,
		CheckInAt:      rec.CheckInAt,
		CheckOutAt:     rec.CheckOutAt,
		BreakMinutes:   rec.BreakMinutes,
		CalculatedWage: rec.CalculatedWage,
		QRToken:        rec.QRToken.String(),
	}
}

type submitModificationRequest struct {
	AttendanceID          int64  `json:"attendance_id"`
	WorkerID              int64  `json:"worker_id"`
	RequestedStartTime    string `json:"requested_start_time"`
	RequestedEndTime      string `json:"requested_end_time"`
	RequestedBreakMinutes int    `json:"requested_break_minutes"`
	WorkerComment         string `json:"worker_comment"`
}

type decideModificationRequest struct {
	Decision     string `json:"decision"`
	AdminComment string `json:"admin_comment"`
	ReviewerID   int64  `json:"reviewer_id"`
}

type modificationResponse struct {
	ID                    int64      `json:"id"`
	AttendanceID          int64      `json:"attendance_id"`
	RequestedStartTime    time.Time  `json:"requested_start_time"`
	RequestedEndTime      time.Time  `json:"requested_end_time"`
	RequestedBreakMinutes int        `json:"requested_break_minutes"`
	WorkerComment         string     `json:"worker_comment"`
	Status                string     `json:"status"`
	AdminComment          *string    `json:"admin_comment,omitempty"`
	ReviewedBy            *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt            *time.Time `json:"reviewed_at,omitempty"`
	OriginalAmount        int        `json:"original_amount"`
	RequestedAmount       int        `json:"requested_amount"`
}

func toModificationResponse(mod *attendance.ModificationRequest) modificationResponse {
	return modificationResponse{
		ID:                    mod.ID,
		AttendanceID:          mod.AttendanceID,
		RequestedStartTime:    mod.RequestedStartTime,
		RequestedEndTime:      mod.RequestedEndTime,
		RequestedBreakMinutes: mod.RequestedBreakMinutes,
		WorkerComment:         mod.WorkerComment,
		Status:                string(mod.Status),
		AdminComment:          mod.AdminComment,
		ReviewedBy:            mod.ReviewedBy,
		ReviewedAt:            mod.ReviewedAt,
		OriginalAmount:        mod.OriginalAmount,
		RequestedAmount:       mod.RequestedAmount,
	}
}

// CheckIn は POST /attendance/check-in を処理します。
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := h.service.CheckIn(r.Context(), attendance.CheckInInput{
		ApplicationID: req.ApplicationID,
		WorkerID:      req.WorkerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toRecordResponse(rec))
}

// CheckOut は POST /attendance/check-out を処理します。
func (h *AttendanceHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	var req punchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	rec, err := h.service.CheckOut(r.Context(), attendance.CheckOutInput{
		ApplicationID: req.ApplicationID,
		WorkerID:      req.WorkerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

// SubmitModification は POST /attendance/modifications を処理します。
func (h *AttendanceHandler) SubmitModification(w http.ResponseWriter, r *http.Request) {
	var req submitModificationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mod, err := h.service.SubmitModification(r.Context(), attendance.SubmitModificationInput{
		AttendanceID:          req.AttendanceID,
		WorkerID:              req.WorkerID,
		RequestedStartTime:    req.RequestedStartTime,
		RequestedEndTime:      req.RequestedEndTime,
		RequestedBreakMinutes: req.RequestedBreakMinutes,
		WorkerComment:         req.WorkerComment,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toModificationResponse(mod))
}

// DecideModification は POST /attendance/modifications/{id}/decision を処理します。
func (h *AttendanceHandler) DecideModification(w http.ResponseWriter, r *http.Request, modificationID int64) {
	var req decideModificationRequest
	if !decodeBody(w, r, &req) {
		return
	}

	mod, err := h.service.DecideModification(r.Context(), attendance.DecideModificationInput{
		ModificationID: modificationID,
		Decision:       attendance.Decision(req.Decision),
		AdminComment:   req.AdminComment,
		ReviewerID:     req.ReviewerID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toModificationResponse(mod))
}
