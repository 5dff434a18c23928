package job

import (
	"errors"
	"testing"
	"time"
)

func testJob(id int64) *Job {
	return &Job{
		ID:         id,
		FacilityID: 1,
		Type:       TypeNormal,
		Status:     StatusPublished,
		Title:      "デイサービス 介護スタッフ",
		StartTime:  "09:00",
		EndTime:    "17:00",
	}
}

func testWorkDate(id, jobID int64, workDate time.Time) *JobWorkDate {
	return &JobWorkDate{
		ID:               id,
		JobID:            jobID,
		WorkDate:         workDate,
		Deadline:         workDate.Add(-24 * time.Hour),
		RecruitmentCount: 2,
	}
}

func TestDecide_Available(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	wd := testWorkDate(10, 1, workDay)
	now := workDay.Add(-72 * time.Hour)

	got, err := Decide(j, wd, WorkerContext{}, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if !got.CanApply {
		t.Fatalf("expected CanApply, got %+v", got)
	}

	if got.Reason() != "" {
		t.Errorf("expected empty reason, got %q", got.Reason())
	}
}

func TestDecide_AppliedTakesPrecedence(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	wd := testWorkDate(10, 1, workDay)
	wd.AppliedCount = 5 // 満枠かつ締切超過でも応募済みが先に報告される
	now := workDay.Add(24 * time.Hour)

	got, err := Decide(j, wd, WorkerContext{AppliedWorkDateIDs: []int64{10}}, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if !got.IsApplied {
		t.Fatal("expected IsApplied")
	}

	if got.CanApply {
		t.Fatal("expected CanApply=false")
	}

	if got.Reason() != "already applied" {
		t.Errorf("unexpected reason: %q", got.Reason())
	}
}

func TestDecide_TimeConflictSameDate(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	wd := testWorkDate(10, 1, workDay)
	now := workDay.Add(-72 * time.Hour)

	worker := WorkerContext{
		ScheduledSlots: []ScheduledSlot{
			{WorkDateID: 99, WorkDate: workDay, StartTime: "13:00", EndTime: "21:00"},
		},
	}

	got, err := Decide(j, wd, worker, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if !got.HasTimeConflict || got.CanApply {
		t.Fatalf("expected time conflict, got %+v", got)
	}
}

func TestDecide_NoConflictOnDifferentDate(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	wd := testWorkDate(10, 1, workDay)
	now := workDay.Add(-72 * time.Hour)

	worker := WorkerContext{
		ScheduledSlots: []ScheduledSlot{
			{WorkDateID: 99, WorkDate: workDay.AddDate(0, 0, 1), StartTime: "09:00", EndTime: "17:00"},
		},
	}

	got, err := Decide(j, wd, worker, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if got.HasTimeConflict {
		t.Fatalf("did not expect conflict across dates, got %+v", got)
	}
}

func TestDecide_SameWorkDateSlotIgnored(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	wd := testWorkDate(10, 1, workDay)
	now := workDay.Add(-72 * time.Hour)

	worker := WorkerContext{
		ScheduledSlots: []ScheduledSlot{
			{WorkDateID: 10, WorkDate: workDay, StartTime: "09:00", EndTime: "17:00"},
		},
	}

	got, err := Decide(j, wd, worker, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if got.HasTimeConflict {
		t.Fatalf("slot on the same work date must be skipped, got %+v", got)
	}
}

func TestDecide_FullNoInterviewUsesAppliedCount(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	wd := testWorkDate(10, 1, workDay)
	wd.AppliedCount = 2
	wd.MatchedCount = 0
	now := workDay.Add(-72 * time.Hour)

	got, err := Decide(j, wd, WorkerContext{}, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if !got.IsFull || got.CanApply {
		t.Fatalf("expected full on no-interview fast path, got %+v", got)
	}
}

func TestDecide_FullWithInterviewUsesMatchedCount(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	j.RequiresInterview = true
	wd := testWorkDate(10, 1, workDay)
	wd.AppliedCount = 10 // 面接ありでは応募数では満枠にならない
	wd.MatchedCount = 1
	now := workDay.Add(-72 * time.Hour)

	got, err := Decide(j, wd, WorkerContext{}, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if got.IsFull {
		t.Fatalf("expected not full while matched below capacity, got %+v", got)
	}

	wd.MatchedCount = 2
	got, err = Decide(j, wd, WorkerContext{}, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if !got.IsFull {
		t.Fatalf("expected full once matched reaches capacity, got %+v", got)
	}
}

func TestDecide_DeadlinePassed(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	wd := testWorkDate(10, 1, workDay)
	now := wd.Deadline.Add(time.Minute)

	got, err := Decide(j, wd, WorkerContext{}, now)
	if err != nil {
		t.Fatalf("Decide returned error: %v", err)
	}

	if !got.DeadlinePassed || got.CanApply {
		t.Fatalf("expected deadline passed, got %+v", got)
	}

	if got.Reason() != "deadline passed" {
		t.Errorf("unexpected reason: %q", got.Reason())
	}
}

func TestDecide_WorkDateMismatch(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	j := testJob(1)
	wd := testWorkDate(10, 2, workDay)

	_, err := Decide(j, wd, WorkerContext{}, workDay)
	if !errors.Is(err, ErrWorkDateMismatch) {
		t.Fatalf("expected ErrWorkDateMismatch, got %v", err)
	}
}

func TestIsTimeOverlapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name                       string
		start1, end1, start2, end2 string
		want                       bool
	}{
		{"disjoint", "09:00", "12:00", "13:00", "17:00", false},
		{"overlap", "09:00", "14:00", "13:00", "17:00", true},
		{"touching edges", "09:00", "13:00", "13:00", "17:00", false},
		{"contained", "10:00", "11:00", "09:00", "17:00", true},
		{"overnight shift overlaps morning of next interval", "22:00", "06:00", "23:00", "02:00", true},
		{"overnight vs day shift", "22:00", "06:00", "09:00", "17:00", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := IsTimeOverlapping(tc.start1, tc.end1, tc.start2, tc.end2); got != tc.want {
				t.Errorf("IsTimeOverlapping(%s-%s, %s-%s) = %v, want %v", tc.start1, tc.end1, tc.start2, tc.end2, got, tc.want)
			}
		})
	}
}

func TestWorkDate_DueForSwitch(t *testing.T) {
	t.Parallel()

	workDay := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	wd := testWorkDate(10, 1, workDay)

	if wd.DueForSwitch(5, workDay.AddDate(0, 0, -6)) {
		t.Error("expected not due 6 days before")
	}

	if !wd.DueForSwitch(5, workDay.AddDate(0, 0, -5)) {
		t.Error("expected due exactly 5 days before")
	}

	if !wd.DueForSwitch(5, workDay.AddDate(0, 0, -1)) {
		t.Error("expected due 1 day before")
	}
}
