package handler

import (
	"log"
	"net/http"
	"strings"

	"github.com/tastas/marketplace-core/internal/core/lifecycle"
)

// BatchHandler は日次バッチの HTTP トリガーです。外部のスケジューラーが
// 共有シークレット付きで GET /cron/job-batch を呼び出します。
type BatchHandler struct {
	batch  lifecycle.UseCase
	secret string
}

// NewBatchHandler は BatchHandler を生成します。
func NewBatchHandler(batch lifecycle.UseCase, secret string) *BatchHandler {
	return &BatchHandler{batch: batch, secret: secret}
}

type batchResponse struct {
	Success             bool     `json:"success"`
	RunID               string   `json:"run_id"`
	LimitedJobsSwitched int      `json:"limitedJobsSwitched"`
	ChildJobsCreated    int      `json:"childJobsCreated"`
	OffersExpired       int      `json:"offersExpired"`
	Errors              []string `json:"errors"`
}

// Run は GET /cron/job-batch を処理します。
func (h *BatchHandler) Run(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		log.Printf("[CRON JOB-BATCH] unauthorized cron request from %s", r.RemoteAddr)
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
		return
	}

	result, err := h.batch.Run(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	log.Printf("[CRON JOB-BATCH] run %s: switched=%d children=%d expired=%d errors=%d",
		result.RunID, result.LimitedJobsSwitched, result.ChildJobsCreated, result.OffersExpired, len(result.Errors))

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Success:             result.Success(),
		RunID:               result.RunID.String(),
		LimitedJobsSwitched: result.LimitedJobsSwitched,
		ChildJobsCreated:    result.ChildJobsCreated,
		OffersExpired:       result.OffersExpired,
		Errors:              errs,
	})
}

// authorized は Authorization ヘッダーまたは secret クエリパラメータで
// 共有シークレットを検証します。シークレット未設定時は常に拒否します。
func (h *BatchHandler) authorized(r *http.Request) bool {
	secret := strings.TrimSpace(h.secret)
	if secret == "" {
		return false
	}

	if r.Header.Get("Authorization") == "Bearer "+secret {
		return true
	}
	return r.URL.Query().Get("secret") == secret
}
