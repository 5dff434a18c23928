package application

import (
	"context"

	"github.com/tastas/marketplace-core/internal/core/job"
)

// Repository は応募の永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, app *Application) (*Application, error)
	Update(ctx context.Context, app *Application) (*Application, error)
	FindByID(ctx context.Context, id int64) (*Application, error)
	FindByWorkDateAndWorker(ctx context.Context, workDateID, workerID int64) (*Application, error)
	// WorkerContext は応募可否判定に使うワーカーの応募状況
	// （CANCELLED を除く応募済み勤務日と SCHEDULED/WORKING の勤務枠）を返します。
	WorkerContext(ctx context.Context, workerID int64) (job.WorkerContext, error)
}

// CounterRepository は JobWorkDate の応募・マッチング数カウンタを
// ステータス更新と同一トランザクションで原子的に増減します。
// 増加系は募集人数を超える場合に ErrCapacityExceeded を返します。
type CounterRepository interface {
	IncrementOnApply(ctx context.Context, workDateID int64, immediateMatch bool) error
	IncrementMatched(ctx context.Context, workDateID int64) error
	DecrementMatched(ctx context.Context, workDateID int64) error
	DecrementApplied(ctx context.Context, workDateID int64) error
}

// TxManager はトランザクション境界を提供します。
type TxManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
	WithinRetryable(ctx context.Context, fn func(context.Context) error) error
}
