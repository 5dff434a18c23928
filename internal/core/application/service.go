package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/tastas/marketplace-core/internal/core/job"
)

// Service は応募のライフサイクルに関するユースケースをまとめます。
type Service struct {
	repo     Repository
	counters CounterRepository
	jobs     job.Repository
	tx       TxManager
	clock    job.Clock
}

// UseCase は応募ユースケースの公開インターフェースです。
type UseCase interface {
	Apply(ctx context.Context, in ApplyInput) (*Application, error)
	Transition(ctx context.Context, in TransitionInput) (*Application, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, counters CounterRepository, jobs job.Repository, tx TxManager, clock job.Clock) *Service {
	if clock == nil {
		clock = job.RealClock{}
	}
	return &Service{repo: repo, counters: counters, jobs: jobs, tx: tx, clock: clock}
}

// ApplyInput は応募時の入力です。
type ApplyInput struct {
	JobID      int64
	WorkDateID int64
	WorkerID   int64
	Actor      Actor
}

// TransitionInput は状態遷移時の入力です。
type TransitionInput struct {
	ApplicationID int64
	Event         Event
	Actor         Actor
}

// Apply は勤務日への応募を作成します。面接なし求人は即マッチング
// （SCHEDULED で作成し matched_count も加算）、キャンセル済み応募が
// 残っている場合は新規作成ではなく再有効化します。
func (s *Service) Apply(ctx context.Context, in ApplyInput) (*Application, error) {
	if in.JobID <= 0 || in.WorkDateID <= 0 || in.WorkerID <= 0 {
		return nil, ErrInvalidID
	}
	if in.Actor.Type != ActorWorker || in.Actor.ID != in.WorkerID {
		return nil, fmt.Errorf("apply requires the worker as actor: %w", ErrInvalidActor)
	}

	j, err := s.jobs.FindByID(ctx, in.JobID)
	if err != nil {
		return nil, err
	}

	workDate, err := s.jobs.FindWorkDateByID(ctx, in.WorkDateID)
	if err != nil {
		return nil, err
	}

	worker, err := s.repo.WorkerContext(ctx, in.WorkerID)
	if err != nil {
		return nil, err
	}

	availability, err := job.Decide(j, workDate, worker, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !availability.CanApply {
		return nil, availabilityError(availability)
	}

	initialStatus := StatusScheduled
	immediateMatch := true
	if j.RequiresInterview {
		initialStatus = StatusApplied
		immediateMatch = false
	}

	now := s.clock.Now()

	var result *Application
	err = s.tx.WithinRetryable(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByWorkDateAndWorker(txCtx, in.WorkDateID, in.WorkerID)
		switch {
		case err == nil && existing.Status != StatusCancelled:
			return ErrAlreadyApplied
		case err == nil:
			// キャンセル済みの応募を再有効化する
			existing.Status = initialStatus
			existing.CancelledBy = nil
			existing.UpdatedByType = in.Actor.Type
			existing.UpdatedByID = in.Actor.ID
			existing.UpdatedAt = now
			result, err = s.repo.Update(txCtx, existing)
			if err != nil {
				return err
			}
		case isNotFound(err):
			app := &Application{
				WorkDateID:    in.WorkDateID,
				WorkerID:      in.WorkerID,
				Status:        initialStatus,
				UpdatedByType: in.Actor.Type,
				UpdatedByID:   in.Actor.ID,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			result, err = s.repo.Create(txCtx, app)
			if err != nil {
				return err
			}
		default:
			return err
		}

		return s.counters.IncrementOnApply(txCtx, in.WorkDateID, immediateMatch)
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Transition は応募にイベントを適用します。ステータス更新と
// カウンタ増減は単一トランザクションで適用されます。
func (s *Service) Transition(ctx context.Context, in TransitionInput) (*Application, error) {
	if in.ApplicationID <= 0 {
		return nil, ErrInvalidID
	}
	if err := validateActor(in.Event, in.Actor); err != nil {
		return nil, err
	}

	var result *Application
	err := s.tx.WithinRetryable(ctx, func(txCtx context.Context) error {
		app, err := s.repo.FindByID(txCtx, in.ApplicationID)
		if err != nil {
			return err
		}

		next, err := Next(app.Status, in.Event)
		if err != nil {
			return fmt.Errorf("application %d: %s on %s: %w", app.ID, in.Event, app.Status, err)
		}

		if isCancelEvent(in.Event) && app.Status == StatusScheduled {
			if err := s.ensureBeforeShiftStart(txCtx, app.WorkDateID); err != nil {
				return err
			}
		}

		if err := s.applyCounterEffects(txCtx, app, in.Event); err != nil {
			return err
		}

		app.Status = next
		app.UpdatedByType = in.Actor.Type
		app.UpdatedByID = in.Actor.ID
		app.UpdatedAt = s.clock.Now()
		if next == StatusCancelled {
			cancelledBy := in.Actor.Type
			app.CancelledBy = &cancelledBy
		}

		result, err = s.repo.Update(txCtx, app)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// applyCounterEffects はイベントに応じたカウンタ増減を適用します。
// 受諾は募集人数を上限として matched_count を加算し、
// SCHEDULED からのキャンセル・差し戻しは減算します。
func (s *Service) applyCounterEffects(ctx context.Context, app *Application, event Event) error {
	switch event {
	case EventFacilityAccept:
		return s.counters.IncrementMatched(ctx, app.WorkDateID)
	case EventFacilityReject, EventWorkerCancel:
		if app.Status == StatusScheduled {
			if err := s.counters.DecrementMatched(ctx, app.WorkDateID); err != nil {
				return err
			}
		}
		return s.counters.DecrementApplied(ctx, app.WorkDateID)
	default:
		return nil
	}
}

func (s *Service) ensureBeforeShiftStart(ctx context.Context, workDateID int64) error {
	j, workDate, err := s.jobAndWorkDate(ctx, workDateID)
	if err != nil {
		return err
	}

	start, err := job.ShiftStart(j, workDate)
	if err != nil {
		return err
	}

	if !s.clock.Now().Before(start) {
		return ErrCancelAfterShiftStart
	}
	return nil
}

func (s *Service) jobAndWorkDate(ctx context.Context, workDateID int64) (*job.Job, *job.JobWorkDate, error) {
	workDate, err := s.jobs.FindWorkDateByID(ctx, workDateID)
	if err != nil {
		return nil, nil, err
	}
	j, err := s.jobs.FindByID(ctx, workDate.JobID)
	if err != nil {
		return nil, nil, err
	}
	return j, workDate, nil
}

func validateActor(event Event, actor Actor) error {
	if actor.Type == ActorSystem {
		return nil
	}

	switch event {
	case EventFacilityAccept, EventFacilityReject:
		if actor.Type != ActorFacilityAdmin {
			return fmt.Errorf("%s requires facility admin: %w", event, ErrInvalidActor)
		}
	case EventWorkerCancel, EventCheckIn, EventCheckOut:
		if actor.Type != ActorWorker {
			return fmt.Errorf("%s requires worker: %w", event, ErrInvalidActor)
		}
	case EventSubmitReview:
		if actor.Type != ActorWorker && actor.Type != ActorFacilityAdmin {
			return fmt.Errorf("%s requires worker or facility admin: %w", event, ErrInvalidActor)
		}
	default:
		return ErrInvalidTransition
	}

	if actor.ID <= 0 {
		return ErrInvalidActor
	}
	return nil
}

func isCancelEvent(event Event) bool {
	return event == EventWorkerCancel || event == EventFacilityReject
}

func availabilityError(a job.Availability) error {
	switch {
	case a.IsApplied:
		return ErrAlreadyApplied
	case a.HasTimeConflict:
		return ErrTimeConflict
	case a.IsFull:
		return ErrCapacityExceeded
	case a.DeadlinePassed:
		return ErrDeadlinePassed
	default:
		return ErrInvalidTransition
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrApplicationNotFound)
}
