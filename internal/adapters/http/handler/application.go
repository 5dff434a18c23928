package handler

import (
	"net/http"
	"time"

	"github.com/tastas/marketplace-core/internal/core/application"
)

// ApplicationHandler は応募関連の HTTP ハンドラーです。
type ApplicationHandler struct {
	service application.UseCase
}

// NewApplicationHandler は ApplicationHandler を生成します。
func NewApplicationHandler(service application.UseCase) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

type applyRequest struct {
	JobID      int64 `json:"job_id"`
	WorkDateID int64 `json:"work_date_id"`
	WorkerID   int64 `json:"worker_id"`
}

type transitionRequest struct {
	Event     string `json:"event"`
	ActorType string `json:"actor_type"`
	ActorID   int64  `json:"actor_id"`
}

type applicationResponse struct {
	ID          int64     `json:"id"`
	WorkDateID  int64     `json:"work_date_id"`
	WorkerID    int64     `json:"worker_id"`
	Status      string    `json:"status"`
	CancelledBy *string   `json:"cancelled_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toApplicationResponse(app *application.Application) applicationResponse {
	resp := applicationResponse{
		ID:         app.ID,
		WorkDateID: app.WorkDateID,
		WorkerID:   app.WorkerID,
		Status:     string(app.Status),
		CreatedAt:  app.CreatedAt,
		UpdatedAt:  app.UpdatedAt,
	}
	if app.CancelledBy != nil {
		cancelledBy := string(*app.CancelledBy)
		resp.CancelledBy = &cancelledBy
	}
	return resp
}

// Apply は POST /applications を処理します。応募はワーカー本人の操作です。
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	app, err := h.service.Apply(r.Context(), application.ApplyInput{
		JobID:      req.JobID,
		WorkDateID: req.WorkDateID,
		WorkerID:   req.WorkerID,
		Actor:      application.Actor{Type: application.ActorWorker, ID: req.WorkerID},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// Transition は POST /applications/{id}/events を処理します。
func (h *ApplicationHandler) Transition(w http.ResponseWriter, r *http.Request, applicationID int64) {
	var req transitionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	app, err := h.service.Transition(r.Context(), application.TransitionInput{
		ApplicationID: applicationID,
		Event:         application.Event(req.Event),
		Actor: application.Actor{
			Type: application.ActorType(req.ActorType),
			ID:   req.ActorID,
		},
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}
