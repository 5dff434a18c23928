package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tastas/marketplace-core/internal/core/job"
)

// Result は 1 回のバッチ実行の集計です。項目単位の失敗は Errors に
// 蓄積し、残りの処理は継続します。
type Result struct {
	RunID               uuid.UUID
	StartedAt           time.Time
	LimitedJobsSwitched int
	ChildJobsCreated    int
	OffersExpired       int
	Errors              []string
}

// Success は全項目がエラーなく処理されたかどうかを返します。
func (r *Result) Success() bool {
	return len(r.Errors) == 0
}

// Batch は日次の求人ライフサイクル処理です。
//  1. 限定求人の通常求人への自動切り替え（複数日程は子求人へ分割）
//  2. 全締切を過ぎた未受諾オファーの停止
//
// 同じ日に複数回実行しても 2 回目以降は対象が見つからず no-op になります。
type Batch struct {
	repo  Repository
	tx    TxManager
	clock job.Clock
}

// UseCase はバッチの公開インターフェースです。
type UseCase interface {
	Run(ctx context.Context) (*Result, error)
}

// NewBatch は Batch を生成します。
func NewBatch(repo Repository, tx TxManager, clock job.Clock) *Batch {
	if clock == nil {
		clock = job.RealClock{}
	}
	return &Batch{repo: repo, tx: tx, clock: clock}
}

// Run はバッチを 1 回実行します。各段の失敗は Result.Errors に集計され、
// 戻り値の error は実行基盤そのものの失敗にのみ使用します。
func (b *Batch) Run(ctx context.Context) (*Result, error) {
	now := b.clock.Now()
	result := &Result{RunID: uuid.New(), StartedAt: now}

	b.switchLimitedJobs(ctx, now, result)
	b.expireOffers(ctx, now, result)

	return result, nil
}

func (b *Batch) switchLimitedJobs(ctx context.Context, now time.Time, result *Result) {
	jobs, err := b.repo.ListSwitchableLimitedJobs(ctx)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("limited job switch: list jobs: %v", err))
		return
	}

	for _, j := range jobs {
		switched, children, err := b.switchJob(ctx, j, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("limited job %d: %v", j.ID, err))
			continue
		}
		if switched {
			result.LimitedJobsSwitched++
		}
		result.ChildJobsCreated += children
	}
}

// switchJob は 1 求人分の切り替えを 1 トランザクションで行います。
// 全日程が期日到来なら求人種別をそのまま NORMAL に変更し、一部のみなら
// 該当日程を子求人として切り出して親から削除します。
func (b *Batch) switchJob(ctx context.Context, j *job.Job, now time.Time) (switched bool, children int, err error) {
	if j.SwitchToNormalDaysBefore == nil {
		return false, 0, nil
	}
	daysBefore := *j.SwitchToNormalDaysBefore

	err = b.tx.WithinRetryable(ctx, func(txCtx context.Context) error {
		switched, children = false, 0

		if err := b.repo.AcquireRunLock(txCtx); err != nil {
			return err
		}

		dates, err := b.repo.ListWorkDatesForUpdate(txCtx, j.ID)
		if err != nil {
			return err
		}

		var due, keep []*job.JobWorkDate
		for _, w := range dates {
			if w.DueForSwitch(daysBefore, now) {
				due = append(due, w)
			} else {
				keep = append(keep, w)
			}
		}
		if len(due) == 0 {
			return nil
		}

		if len(keep) == 0 {
			// requires_interview は変更せず即マッチングを維持する
			if err := b.repo.UpdateJobType(txCtx, j.ID, job.TypeNormal); err != nil {
				return err
			}
			switched = true
			return nil
		}

		for _, w := range due {
			child := j.SpawnChild(now)
			childDate := &job.JobWorkDate{
				WorkDate:         w.WorkDate,
				Deadline:         w.Deadline,
				RecruitmentCount: w.RecruitmentCount,
				VisibleUntil:     w.VisibleUntil,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if _, err := b.repo.CreateChildJob(txCtx, child, childDate); err != nil {
				return err
			}
			if err := b.repo.DeleteWorkDate(txCtx, w.ID); err != nil {
				return err
			}
			children++
		}
		switched = true
		return nil
	})
	if err != nil {
		return false, 0, err
	}
	return switched, children, nil
}

func (b *Batch) expireOffers(ctx context.Context, now time.Time, result *Result) {
	offers, err := b.repo.ListExpiredOffers(ctx, now)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("offer expiration: list offers: %v", err))
		return
	}

	for _, offer := range offers {
		expired, err := b.expireOffer(ctx, offer)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("offer %d: %v", offer.ID, err))
			continue
		}
		if expired {
			result.OffersExpired++
		}
	}
}

// expireOffer は未受諾のオファー求人を停止します。応募が 1 件でもあれば
// 通常の勤務フローに委ねるため対象外です。
func (b *Batch) expireOffer(ctx context.Context, offer *job.Job) (expired bool, err error) {
	err = b.tx.WithinRetryable(ctx, func(txCtx context.Context) error {
		expired = false

		count, err := b.repo.CountApplications(txCtx, offer.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		expired, err = b.repo.StopPublishedJob(txCtx, offer.ID)
		return err
	})
	if err != nil {
		return false, err
	}
	return expired, nil
}
