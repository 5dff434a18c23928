package lifecycle

import (
	"context"
	"time"

	"github.com/tastas/marketplace-core/internal/core/job"
)

// Repository はバッチ処理が必要とする求人・勤務日の操作をまとめます。
type Repository interface {
	// AcquireRunLock はバッチ実行を直列化するためのトランザクション
	// スコープのロックを取得します。
	AcquireRunLock(ctx context.Context) error

	// ListSwitchableLimitedJobs は切り替え日数が設定された PUBLISHED の
	// 限定求人を返します。
	ListSwitchableLimitedJobs(ctx context.Context) ([]*job.Job, error)
	// ListWorkDatesForUpdate は求人の勤務日を勤務日昇順で取得し、
	// トランザクション中の更新に備えてロックします。
	ListWorkDatesForUpdate(ctx context.Context, jobID int64) ([]*job.JobWorkDate, error)
	UpdateJobType(ctx context.Context, jobID int64, jobType job.Type) error
	// CreateChildJob は子求人とその勤務日を作成し、採番済みの子求人を返します。
	CreateChildJob(ctx context.Context, child *job.Job, workDate *job.JobWorkDate) (*job.Job, error)
	DeleteWorkDate(ctx context.Context, workDateID int64) error

	// ListExpiredOffers は全勤務日の締切が now を過ぎた PUBLISHED の
	// オファー求人を返します。
	ListExpiredOffers(ctx context.Context, now time.Time) ([]*job.Job, error)
	// CountApplications は求人の全勤務日に紐づく応募数を返します。
	CountApplications(ctx context.Context, jobID int64) (int, error)
	// StopPublishedJob は PUBLISHED の求人を STOPPED にします。
	// 既に PUBLISHED でない場合は何もせず false を返します。
	StopPublishedJob(ctx context.Context, jobID int64) (bool, error)
}

// TxManager はトランザクション境界を提供します。
type TxManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
	WithinRetryable(ctx context.Context, fn func(context.Context) error) error
}
