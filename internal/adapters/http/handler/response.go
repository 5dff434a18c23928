package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/tastas/marketplace-core/internal/core/application"
	"github.com/tastas/marketplace-core/internal/core/attendance"
	"github.com/tastas/marketplace-core/internal/core/job"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[HTTP] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] internal error: %v", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// httpStatus はドメインエラーを HTTP ステータスコードに対応付けます。
func httpStatus(err error) int {
	switch {
	case errors.Is(err, job.ErrInvalidID),
		errors.Is(err, job.ErrInvalidTimeRange),
		errors.Is(err, job.ErrWorkDateMismatch),
		errors.Is(err, application.ErrInvalidID),
		errors.Is(err, attendance.ErrInvalidID),
		errors.Is(err, attendance.ErrCommentRequired),
		errors.Is(err, attendance.ErrInvalidWorkDuration),
		errors.Is(err, attendance.ErrInvalidRequestedTime):
		return http.StatusBadRequest
	case errors.Is(err, application.ErrInvalidActor),
		errors.Is(err, attendance.ErrNotRecordOwner):
		return http.StatusForbidden
	case errors.Is(err, job.ErrJobNotFound),
		errors.Is(err, job.ErrWorkDateNotFound),
		errors.Is(err, application.ErrApplicationNotFound),
		errors.Is(err, attendance.ErrRecordNotFound),
		errors.Is(err, attendance.ErrModificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrAlreadyApplied),
		errors.Is(err, application.ErrTimeConflict),
		errors.Is(err, application.ErrCapacityExceeded),
		errors.Is(err, application.ErrDeadlinePassed),
		errors.Is(err, application.ErrInvalidTransition),
		errors.Is(err, application.ErrTerminalState),
		errors.Is(err, application.ErrCancelAfterShiftStart),
		errors.Is(err, attendance.ErrModificationPending),
		errors.Is(err, attendance.ErrAlreadyDecided),
		errors.Is(err, attendance.ErrAlreadyCheckedOut):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}
