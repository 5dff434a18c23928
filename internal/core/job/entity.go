package job

import "time"

// Type は求人の種別を表します。
type Type string

const (
	TypeNormal          Type = "NORMAL"
	TypeLimitedWorked   Type = "LIMITED_WORKED"
	TypeLimitedFavorite Type = "LIMITED_FAVORITE"
	TypeOrientation     Type = "ORIENTATION"
	TypeOffer           Type = "OFFER"
)

// IsLimited は勤務経験者・お気に入り限定の求人かどうかを返します。
func (t Type) IsLimited() bool {
	return t == TypeLimitedWorked || t == TypeLimitedFavorite
}

// Status は求人の状態を表します。
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPublished Status = "PUBLISHED"
	StatusStopped   Status = "STOPPED"
	StatusWorking   Status = "WORKING"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// Job は施設による求人掲載です。勤務日単位の募集枠は JobWorkDate が持ちます。
type Job struct {
	ID                       int64
	FacilityID               int64
	ParentJobID              *int64
	Type                     Type
	Status                   Status
	Title                    string
	StartTime                string // "HH:MM"。終了が開始以前の場合は翌日跨ぎとみなす
	EndTime                  string
	BreakMinutes             int
	HourlyWage               int
	TransportationFee        int
	Prefecture               string
	City                     string
	Address                  string
	RequiresInterview        bool
	SwitchToNormalDaysBefore *int
	RecruitmentStartDay      int
	TargetWorkerID           *int64
	OfferMessage             *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// SpawnChild は親求人から切り出した通常求人を生成します。
// 限定→通常バッチの分割処理で、切り替え期日を迎えた勤務日のみを
// 新しい求人として独立させるために使用します。
func (j *Job) SpawnChild(now time.Time) *Job {
	child := *j
	child.ID = 0
	child.ParentJobID = &j.ID
	child.Type = TypeNormal
	child.Status = StatusPublished
	child.RequiresInterview = false // 即マッチング維持
	child.SwitchToNormalDaysBefore = nil
	child.RecruitmentStartDay = 0 // 即公開
	child.TargetWorkerID = nil
	child.OfferMessage = nil
	child.CreatedAt = now
	child.UpdatedAt = now
	return &child
}

// ShiftStart は勤務日の実際の開始日時を返します。
func ShiftStart(j *Job, w *JobWorkDate) (time.Time, error) {
	start, _, err := ShiftRange(j, w)
	return start, err
}

// ShiftRange は勤務日の開始・終了日時を返します。
// 終了時刻が開始時刻以前の場合は翌日跨ぎとして扱います。
func ShiftRange(j *Job, w *JobWorkDate) (time.Time, time.Time, error) {
	startMin, endMin, err := clockRangeMinutes(j.StartTime, j.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	day := w.WorkDate
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	start := midnight.Add(time.Duration(startMin) * time.Minute)
	end := midnight.Add(time.Duration(endMin) * time.Minute)
	return start, end, nil
}

// JobWorkDate は求人の 1 勤務日分の募集枠です。
type JobWorkDate struct {
	ID               int64
	JobID            int64
	WorkDate         time.Time
	Deadline         time.Time
	RecruitmentCount int
	AppliedCount     int
	MatchedCount     int
	VisibleFrom      *time.Time
	VisibleUntil     *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SwitchDate は限定求人が通常求人へ切り替わる日時を返します。
func (w *JobWorkDate) SwitchDate(daysBefore int) time.Time {
	return w.WorkDate.AddDate(0, 0, -daysBefore)
}

// DueForSwitch は現在時刻が切り替え日時に達しているかを返します。
func (w *JobWorkDate) DueForSwitch(daysBefore int, now time.Time) bool {
	return !now.Before(w.SwitchDate(daysBefore))
}
