package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tastas/marketplace-core/internal/core/job"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

func testDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestScanJob_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanJob(row)
	if !errors.Is(err, job.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
}

func TestScanWorkDate_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	_, err := scanWorkDate(row)
	if !errors.Is(err, job.ErrWorkDateNotFound) {
		t.Fatalf("expected ErrWorkDateNotFound, got %v", err)
	}
}

func TestJobRepository_UpdateStatus_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewJobRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`
        UPDATE jobs
           SET status = $1,
               updated_at = now()
         WHERE id = $2
    `)).
		WithArgs(string(job.StatusStopped), int64(99)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.UpdateStatus(context.Background(), 99, job.StatusStopped)
	if !errors.Is(err, job.ErrJobNotFound) {
		t.Fatalf("expected ErrJobNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJobRepository_StopPublishedJob(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewJobRepository(mock)

	query := regexp.QuoteMeta(`
        UPDATE jobs
           SET status = $1,
               updated_at = now()
         WHERE id = $2
           AND status = $3
    `)

	mock.ExpectExec(query).
		WithArgs(string(job.StatusStopped), int64(5), string(job.StatusPublished)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	stopped, err := repo.StopPublishedJob(context.Background(), 5)
	if err != nil {
		t.Fatalf("StopPublishedJob returned error: %v", err)
	}
	if !stopped {
		t.Fatal("expected job to be stopped")
	}

	// 既に PUBLISHED でない場合は no-op
	mock.ExpectExec(query).
		WithArgs(string(job.StatusStopped), int64(5), string(job.StatusPublished)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	stopped, err = repo.StopPublishedJob(context.Background(), 5)
	if err != nil {
		t.Fatalf("StopPublishedJob returned error: %v", err)
	}
	if stopped {
		t.Fatal("expected no-op for already stopped job")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJobRepository_ListSwitchableLimitedJobs(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewJobRepository(mock)

	now := time.Now().UTC()
	days := 3
	rows := pgxmock.NewRows([]string{
		"id", "facility_id", "parent_job_id", "job_type", "status", "title",
		"start_time", "end_time", "break_minutes", "hourly_wage", "transportation_fee",
		"prefecture", "city", "address", "requires_interview",
		"switch_to_normal_days_before", "recruitment_start_day",
		"target_worker_id", "offer_message", "created_at", "updated_at",
	}).AddRow(
		int64(1), int64(100), (*int64)(nil), string(job.TypeLimitedWorked), string(job.StatusPublished), "介護スタッフ",
		"09:00", "18:00", 60, 1200, 500,
		"東京都", "新宿区", "西新宿1-1-1", false,
		&days, 0,
		(*int64)(nil), (*string)(nil), now, now,
	)

	mock.ExpectQuery(regexp.QuoteMeta(`
        SELECT`+jobColumns+`
          FROM jobs
         WHERE job_type IN ($1, $2)
           AND status = $3
           AND switch_to_normal_days_before IS NOT NULL
         ORDER BY id ASC
    `)).
		WithArgs(string(job.TypeLimitedWorked), string(job.TypeLimitedFavorite), string(job.StatusPublished)).
		WillReturnRows(rows)

	jobs, err := repo.ListSwitchableLimitedJobs(context.Background())
	if err != nil {
		t.Fatalf("ListSwitchableLimitedJobs returned error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].SwitchToNormalDaysBefore == nil || *jobs[0].SwitchToNormalDaysBefore != 3 {
		t.Fatalf("unexpected switch days %+v", jobs[0].SwitchToNormalDaysBefore)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestJobRepository_AcquireRunLock(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewJobRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_xact_lock($1)`)).
		WithArgs(jobBatchLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	if err := repo.AcquireRunLock(context.Background()); err != nil {
		t.Fatalf("AcquireRunLock returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
