package attendance

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tastas/marketplace-core/internal/core/application"
	"github.com/tastas/marketplace-core/internal/core/job"
)

// ApplicationTransitioner は応募の状態遷移を適用します。
// 出勤・退勤の打刻は応募の WORKING / COMPLETED_PENDING への遷移と
// 勤怠記録の更新を同一トランザクションで行います。
type ApplicationTransitioner interface {
	Transition(ctx context.Context, in application.TransitionInput) (*application.Application, error)
}

// Service は勤怠記録と勤怠変更申請に関するユースケースをまとめます。
type Service struct {
	repo        Repository
	apps        application.Repository
	jobs        job.Repository
	transitions ApplicationTransitioner
	tx          TxManager
	clock       job.Clock
}

// UseCase は勤怠ユースケースの公開インターフェースです。
type UseCase interface {
	CheckIn(ctx context.Context, in CheckInInput) (*Record, error)
	CheckOut(ctx context.Context, in CheckOutInput) (*Record, error)
	SubmitModification(ctx context.Context, in SubmitModificationInput) (*ModificationRequest, error)
	DecideModification(ctx context.Context, in DecideModificationInput) (*ModificationRequest, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, apps application.Repository, jobs job.Repository, transitions ApplicationTransitioner, tx TxManager, clock job.Clock) *Service {
	if clock == nil {
		clock = job.RealClock{}
	}
	return &Service{repo: repo, apps: apps, jobs: jobs, transitions: transitions, tx: tx, clock: clock}
}

// CheckInInput は出勤打刻の入力です。
type CheckInInput struct {
	ApplicationID int64
	WorkerID      int64
}

// CheckOutInput は退勤打刻の入力です。
type CheckOutInput struct {
	ApplicationID int64
	WorkerID      int64
}

// SubmitModificationInput は勤怠変更申請の入力です。
type SubmitModificationInput struct {
	AttendanceID          int64
	WorkerID              int64
	RequestedStartTime    string // RFC 3339
	RequestedEndTime      string
	RequestedBreakMinutes int
	WorkerComment         string
}

// Decision は勤怠変更申請への管理者の判断です。
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// DecideModificationInput は申請の承認・却下の入力です。
type DecideModificationInput struct {
	ModificationID int64
	Decision       Decision
	AdminComment   string
	ReviewerID     int64
}

// CheckIn は QR スキャンによる出勤打刻です。応募を WORKING へ遷移し、
// 勤怠記録を作成します。
func (s *Service) CheckIn(ctx context.Context, in CheckInInput) (*Record, error) {
	if in.ApplicationID <= 0 || in.WorkerID <= 0 {
		return nil, ErrInvalidID
	}

	var result *Record
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		app, err := s.apps.FindByID(txCtx, in.ApplicationID)
		if err != nil {
			return err
		}
		if app.WorkerID != in.WorkerID {
			return ErrNotRecordOwner
		}

		j, err := s.jobForApplication(txCtx, app)
		if err != nil {
			return err
		}

		if _, err := s.transitions.Transition(txCtx, application.TransitionInput{
			ApplicationID: in.ApplicationID,
			Event:         application.EventCheckIn,
			Actor:         application.Actor{Type: application.ActorWorker, ID: in.WorkerID},
		}); err != nil {
			return err
		}

		result, err = s.repo.CreateRecord(txCtx, &Record{
			ApplicationID: in.ApplicationID,
			WorkerID:      in.WorkerID,
			FacilityID:    j.FacilityID,
			CheckInAt:     s.clock.Now(),
			BreakMinutes:  j.BreakMinutes,
			QRToken:       uuid.New(),
			CreatedAt:     s.clock.Now(),
			UpdatedAt:     s.clock.Now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CheckOut は退勤打刻です。応募を COMPLETED_PENDING へ遷移し、
// 実績時間から給与を確定します。
func (s *Service) CheckOut(ctx context.Context, in CheckOutInput) (*Record, error) {
	if in.ApplicationID <= 0 || in.WorkerID <= 0 {
		return nil, ErrInvalidID
	}

	var result *Record
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		rec, err := s.repo.FindRecordByApplicationID(txCtx, in.ApplicationID)
		if err != nil {
			return err
		}
		if rec.WorkerID != in.WorkerID {
			return ErrNotRecordOwner
		}
		if rec.CheckOutAt != nil {
			return ErrAlreadyCheckedOut
		}

		app, err := s.apps.FindByID(txCtx, in.ApplicationID)
		if err != nil {
			return err
		}
		j, err := s.jobForApplication(txCtx, app)
		if err != nil {
			return err
		}

		if _, err := s.transitions.Transition(txCtx, application.TransitionInput{
			ApplicationID: in.ApplicationID,
			Event:         application.EventCheckOut,
			Actor:         application.Actor{Type: application.ActorWorker, ID: in.WorkerID},
		}); err != nil {
			return err
		}

		now := s.clock.Now()
		rec.CheckOutAt = &now

		wage := CalculateSalary(SalaryInput{
			StartTime:    rec.CheckInAt,
			EndTime:      now,
			BreakMinutes: rec.BreakMinutes,
			HourlyRate:   j.HourlyWage,
		}).TotalPay + j.TransportationFee
		rec.CalculatedWage = &wage
		rec.UpdatedAt = now

		result, err = s.repo.UpdateRecord(txCtx, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SubmitModification は勤怠変更申請を作成します。申請金額と定刻金額を
// このとき計算し、差分表示のため両方を保存します。
func (s *Service) SubmitModification(ctx context.Context, in SubmitModificationInput) (*ModificationRequest, error) {
	if in.AttendanceID <= 0 || in.WorkerID <= 0 {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(in.WorkerComment) == "" {
		return nil, fmt.Errorf("worker comment: %w", ErrCommentRequired)
	}

	requestedStart, requestedEnd, err := parseRequestedTimes(in.RequestedStartTime, in.RequestedEndTime)
	if err != nil {
		return nil, err
	}

	workedMinutes := requestedEnd.Sub(requestedStart).Minutes() - float64(in.RequestedBreakMinutes)
	if workedMinutes <= 0 {
		return nil, ErrInvalidWorkDuration
	}

	rec, err := s.repo.FindRecordByID(ctx, in.AttendanceID)
	if err != nil {
		return nil, err
	}
	if rec.WorkerID != in.WorkerID {
		return nil, ErrNotRecordOwner
	}

	if pending, err := s.repo.FindPendingModification(ctx, in.AttendanceID); err != nil && !errors.Is(err, ErrModificationNotFound) {
		return nil, err
	} else if pending != nil {
		return nil, ErrModificationPending
	}

	app, err := s.apps.FindByID(ctx, rec.ApplicationID)
	if err != nil {
		return nil, err
	}
	j, workDate, err := s.jobAndWorkDate(ctx, app)
	if err != nil {
		return nil, err
	}

	originalAmount, err := s.scheduledAmount(j, workDate)
	if err != nil {
		return nil, err
	}

	requestedAmount := CalculateSalary(SalaryInput{
		StartTime:    requestedStart,
		EndTime:      requestedEnd,
		BreakMinutes: in.RequestedBreakMinutes,
		HourlyRate:   j.HourlyWage,
	}).TotalPay + j.TransportationFee

	now := s.clock.Now()
	return s.repo.CreateModification(ctx, &ModificationRequest{
		AttendanceID:          in.AttendanceID,
		RequestedStartTime:    requestedStart,
		RequestedEndTime:      requestedEnd,
		RequestedBreakMinutes: in.RequestedBreakMinutes,
		WorkerComment:         strings.TrimSpace(in.WorkerComment),
		Status:                ModificationPending,
		OriginalAmount:        originalAmount,
		RequestedAmount:       requestedAmount,
		CreatedAt:             now,
		UpdatedAt:             now,
	})
}

// DecideModification は申請を承認または却下します。承認は申請内容を
// 勤怠記録へ反映し給与を確定します。どちらも終端であり、処理済みの
// 申請への再実行は ErrAlreadyDecided になります。
func (s *Service) DecideModification(ctx context.Context, in DecideModificationInput) (*ModificationRequest, error) {
	if in.ModificationID <= 0 || in.ReviewerID <= 0 {
		return nil, ErrInvalidID
	}
	if strings.TrimSpace(in.AdminComment) == "" {
		return nil, fmt.Errorf("admin comment: %w", ErrCommentRequired)
	}
	if in.Decision != DecisionApprove && in.Decision != DecisionReject {
		return nil, fmt.Errorf("decision %q: %w", in.Decision, ErrInvalidID)
	}

	var result *ModificationRequest
	err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		mod, err := s.repo.FindModificationByID(txCtx, in.ModificationID)
		if err != nil {
			return err
		}
		if mod.Status.IsTerminal() {
			return fmt.Errorf("modification %d is %s: %w", mod.ID, mod.Status, ErrAlreadyDecided)
		}

		now := s.clock.Now()
		comment := strings.TrimSpace(in.AdminComment)
		mod.AdminComment = &comment
		mod.ReviewedBy = &in.ReviewerID
		mod.ReviewedAt = &now
		mod.UpdatedAt = now

		if in.Decision == DecisionReject {
			mod.Status = ModificationRejected
			result, err = s.repo.UpdateModification(txCtx, mod)
			return err
		}

		mod.Status = ModificationApproved

		rec, err := s.repo.FindRecordByID(txCtx, mod.AttendanceID)
		if err != nil {
			return err
		}
		rec.CheckInAt = mod.RequestedStartTime
		checkOut := mod.RequestedEndTime
		rec.CheckOutAt = &checkOut
		rec.BreakMinutes = mod.RequestedBreakMinutes
		wage := mod.RequestedAmount
		rec.CalculatedWage = &wage
		rec.UpdatedAt = now

		if _, err := s.repo.UpdateRecord(txCtx, rec); err != nil {
			return err
		}

		result, err = s.repo.UpdateModification(txCtx, mod)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) jobForApplication(ctx context.Context, app *application.Application) (*job.Job, error) {
	j, _, err := s.jobAndWorkDate(ctx, app)
	return j, err
}

func (s *Service) jobAndWorkDate(ctx context.Context, app *application.Application) (*job.Job, *job.JobWorkDate, error) {
	workDate, err := s.jobs.FindWorkDateByID(ctx, app.WorkDateID)
	if err != nil {
		return nil, nil, err
	}
	j, err := s.jobs.FindByID(ctx, workDate.JobID)
	if err != nil {
		return nil, nil, err
	}
	return j, workDate, nil
}

// scheduledAmount は定刻どおり勤務した場合の金額を返します。
func (s *Service) scheduledAmount(j *job.Job, workDate *job.JobWorkDate) (int, error) {
	start, end, err := job.ShiftRange(j, workDate)
	if err != nil {
		return 0, err
	}
	result := CalculateSalary(SalaryInput{
		StartTime:    start,
		EndTime:      end,
		BreakMinutes: j.BreakMinutes,
		HourlyRate:   j.HourlyWage,
	})
	return result.TotalPay + j.TransportationFee, nil
}

func parseRequestedTimes(startRaw, endRaw string) (start, end time.Time, err error) {
	start, err = time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("requested start time %q: %w", startRaw, ErrInvalidRequestedTime)
	}
	end, err = time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("requested end time %q: %w", endRaw, ErrInvalidRequestedTime)
	}
	return start, end, nil
}
