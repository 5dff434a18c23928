package handler

import (
	"net/http"
	"strconv"
	"strings"
)

// RouterDependencies はルーティングに必要なハンドラー群です。
type RouterDependencies struct {
	Availability *AvailabilityHandler
	Application  *ApplicationHandler
	Attendance   *AttendanceHandler
	Batch        *BatchHandler
}

// NewRouter は全ルートを束ねた http.Handler を生成します。
func NewRouter(deps RouterDependencies) http.Handler {
	return &router{deps: deps}
}

type router struct {
	deps RouterDependencies
}

func (rt *router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case r.Method == http.MethodGet && path == "/health":
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
		return
	case r.Method == http.MethodGet && path == "/cron/job-batch":
		rt.deps.Batch.Run(w, r)
		return
	case r.Method == http.MethodPost && path == "/applications":
		rt.deps.Application.Apply(w, r)
		return
	case r.Method == http.MethodPost && path == "/attendance/check-in":
		rt.deps.Attendance.CheckIn(w, r)
		return
	case r.Method == http.MethodPost && path == "/attendance/check-out":
		rt.deps.Attendance.CheckOut(w, r)
		return
	case r.Method == http.MethodPost && path == "/attendance/modifications":
		rt.deps.Attendance.SubmitModification(w, r)
		return
	}

	// /applications/{id}/events
	if r.Method == http.MethodPost && strings.HasPrefix(path, "/applications/") && strings.HasSuffix(path, "/events") {
		if id, ok := pathID(path, "/applications/", "/events"); ok {
			rt.deps.Application.Transition(w, r, id)
			return
		}
	}

	// /attendance/modifications/{id}/decision
	if r.Method == http.MethodPost && strings.HasPrefix(path, "/attendance/modifications/") && strings.HasSuffix(path, "/decision") {
		if id, ok := pathID(path, "/attendance/modifications/", "/decision"); ok {
			rt.deps.Attendance.DecideModification(w, r, id)
			return
		}
	}

	// /jobs/{jobID}/work-dates/{workDateID}/availability
	if r.Method == http.MethodGet && strings.HasPrefix(path, "/jobs/") && strings.HasSuffix(path, "/availability") {
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) == 5 && parts[2] == "work-dates" {
			jobID, err1 := strconv.ParseInt(parts[1], 10, 64)
			workDateID, err2 := strconv.ParseInt(parts[3], 10, 64)
			if err1 == nil && err2 == nil {
				rt.deps.Availability.Get(w, r, jobID, workDateID)
				return
			}
		}
	}

	http.NotFound(w, r)
}

func pathID(path, prefix, suffix string) (int64, bool) {
	raw := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if raw == "" || strings.Contains(raw, "/") {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
