package job

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Availability は勤務日単位の応募可否判定の結果です。
// 各フラグは独立に判定され、CanApply はその論理積です。
type Availability struct {
	CanApply        bool
	IsApplied       bool
	HasTimeConflict bool
	IsFull          bool
	DeadlinePassed  bool
}

// Reason は応募不可の理由を優先順位順（応募済み → 時間重複 → 満枠 →
// 締切超過）に 1 つ返します。応募可能な場合は空文字列です。
func (a Availability) Reason() string {
	switch {
	case a.IsApplied:
		return "already applied"
	case a.HasTimeConflict:
		return "time conflict with scheduled shift"
	case a.IsFull:
		return "recruitment capacity reached"
	case a.DeadlinePassed:
		return "deadline passed"
	default:
		return ""
	}
}

// ScheduledSlot はワーカーが確定済み（SCHEDULED / WORKING）の勤務枠です。
// 時間重複判定に使用します。
type ScheduledSlot struct {
	WorkDateID int64
	WorkDate   time.Time
	StartTime  string
	EndTime    string
}

// WorkerContext は判定対象ワーカーの応募・勤務状況です。
type WorkerContext struct {
	AppliedWorkDateIDs []int64
	ScheduledSlots     []ScheduledSlot
}

// Decide は求人・勤務日・ワーカーの状況から応募可否を判定します。
// 副作用はありません。workDate が job に属していない場合は
// ErrWorkDateMismatch を返します。
func Decide(j *Job, workDate *JobWorkDate, worker WorkerContext, now time.Time) (Availability, error) {
	if j == nil || workDate == nil {
		return Availability{}, ErrInvalidID
	}
	if workDate.JobID != j.ID {
		return Availability{}, fmt.Errorf("job %d, work date %d: %w", j.ID, workDate.ID, ErrWorkDateMismatch)
	}

	var result Availability

	for _, id := range worker.AppliedWorkDateIDs {
		if id == workDate.ID {
			result.IsApplied = true
			break
		}
	}

	result.HasTimeConflict = hasTimeConflict(j, workDate, worker.ScheduledSlots)

	if j.RequiresInterview {
		result.IsFull = workDate.MatchedCount >= workDate.RecruitmentCount
	} else {
		result.IsFull = workDate.AppliedCount >= workDate.RecruitmentCount
	}

	result.DeadlinePassed = now.After(workDate.Deadline)

	result.CanApply = !result.IsApplied && !result.HasTimeConflict && !result.IsFull && !result.DeadlinePassed

	return result, nil
}

func hasTimeConflict(j *Job, workDate *JobWorkDate, scheduled []ScheduledSlot) bool {
	date := workDate.WorkDate.Format("2006-01-02")
	for _, slot := range scheduled {
		if slot.WorkDateID == workDate.ID {
			continue // 同じ勤務日は重複扱いしない
		}
		if slot.WorkDate.Format("2006-01-02") != date {
			continue
		}
		if IsTimeOverlapping(j.StartTime, j.EndTime, slot.StartTime, slot.EndTime) {
			return true
		}
	}
	return false
}

// IsTimeOverlapping は 2 つの勤務時間帯が重なるかを判定します。
// 終了時刻が開始時刻以前の場合は翌日跨ぎとして扱います。
func IsTimeOverlapping(start1, end1, start2, end2 string) bool {
	s1, e1, err1 := clockRangeMinutes(start1, end1)
	s2, e2, err2 := clockRangeMinutes(start2, end2)
	if err1 != nil || err2 != nil {
		return false
	}
	return s1 < e2 && s2 < e1
}

func clockRangeMinutes(start, end string) (int, int, error) {
	s, err := parseClockMinutes(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := parseClockMinutes(end)
	if err != nil {
		return 0, 0, err
	}
	if e <= s {
		e += 24 * 60
	}
	return s, e, nil
}

func parseClockMinutes(value string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(value), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("clock %q: %w", value, ErrInvalidTimeRange)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 47 {
		return 0, fmt.Errorf("clock %q: %w", value, ErrInvalidTimeRange)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock %q: %w", value, ErrInvalidTimeRange)
	}
	return hour*60 + minute, nil
}

// WorkerScheduleSource は応募可否判定に必要なワーカーの状況を取得します。
type WorkerScheduleSource interface {
	WorkerContext(ctx context.Context, workerID int64) (WorkerContext, error)
}

// AvailabilityService は応募可否判定のユースケースです。
type AvailabilityService struct {
	repo     Repository
	schedule WorkerScheduleSource
	clock    Clock
}

// NewAvailabilityService は AvailabilityService を生成します。
func NewAvailabilityService(repo Repository, schedule WorkerScheduleSource, clock Clock) *AvailabilityService {
	if clock == nil {
		clock = RealClock{}
	}
	return &AvailabilityService{repo: repo, schedule: schedule, clock: clock}
}

// CanApplyToWorkDate は指定ワーカーが勤務日に応募できるかを判定します。
func (s *AvailabilityService) CanApplyToWorkDate(ctx context.Context, jobID, workDateID, workerID int64) (Availability, error) {
	if jobID <= 0 || workDateID <= 0 || workerID <= 0 {
		return Availability{}, ErrInvalidID
	}

	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return Availability{}, err
	}

	workDate, err := s.repo.FindWorkDateByID(ctx, workDateID)
	if err != nil {
		return Availability{}, err
	}

	worker, err := s.schedule.WorkerContext(ctx, workerID)
	if err != nil {
		return Availability{}, err
	}

	return Decide(j, workDate, worker, s.clock.Now())
}
