package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tastas/marketplace-core/internal/core/job"
	pgdb "github.com/tastas/marketplace-core/internal/platform/db/postgres"
)

// jobBatchLockKey は日次バッチの実行を直列化するアドバイザリロックのキーです。
const jobBatchLockKey = 874201

const jobColumns = `
        id, facility_id, parent_job_id, job_type, status, title,
        start_time, end_time, break_minutes, hourly_wage, transportation_fee,
        prefecture, city, address, requires_interview,
        switch_to_normal_days_before, recruitment_start_day,
        target_worker_id, offer_message, created_at, updated_at`

const workDateColumns = `
        id, job_id, work_date, deadline, recruitment_count,
        applied_count, matched_count, visible_from, visible_until,
        created_at, updated_at`

// JobRepository は PostgreSQL を利用した求人・勤務日永続化の実装です。
// 日次バッチが必要とする切り替え・分割・停止の操作もここに実装します。
type JobRepository struct {
	pool pgdb.Queryer
}

// NewJobRepository は JobRepository を生成します。
func NewJobRepository(pool pgdb.Queryer) *JobRepository {
	return &JobRepository{pool: pool}
}

// FindByID はIDで求人を取得します。
func (r *JobRepository) FindByID(ctx context.Context, id int64) (*job.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+jobColumns+`
          FROM jobs
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanJob(row)
}

// FindWorkDateByID はIDで勤務日を取得します。
func (r *JobRepository) FindWorkDateByID(ctx context.Context, id int64) (*job.JobWorkDate, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+workDateColumns+`
          FROM job_work_dates
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanWorkDate(row)
}

// ListWorkDates は求人の勤務日を勤務日昇順で取得します。
func (r *JobRepository) ListWorkDates(ctx context.Context, jobID int64) ([]*job.JobWorkDate, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT`+workDateColumns+`
          FROM job_work_dates
         WHERE job_id = $1
         ORDER BY work_date ASC
    `, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWorkDates(rows)
}

// UpdateStatus は求人のステータスを更新します。
func (r *JobRepository) UpdateStatus(ctx context.Context, id int64, status job.Status) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE jobs
           SET status = $1,
               updated_at = now()
         WHERE id = $2
    `, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// AcquireRunLock はバッチ用のトランザクションスコープロックを取得します。
func (r *JobRepository) AcquireRunLock(ctx context.Context) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, jobBatchLockKey)
	return err
}

// ListSwitchableLimitedJobs は切り替え日数が設定された PUBLISHED の限定求人を取得します。
func (r *JobRepository) ListSwitchableLimitedJobs(ctx context.Context) ([]*job.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT`+jobColumns+`
          FROM jobs
         WHERE job_type IN ($1, $2)
           AND status = $3
           AND switch_to_normal_days_before IS NOT NULL
         ORDER BY id ASC
    `, string(job.TypeLimitedWorked), string(job.TypeLimitedFavorite), string(job.StatusPublished))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

// ListWorkDatesForUpdate は求人の勤務日を行ロック付きで取得します。
func (r *JobRepository) ListWorkDatesForUpdate(ctx context.Context, jobID int64) ([]*job.JobWorkDate, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT`+workDateColumns+`
          FROM job_work_dates
         WHERE job_id = $1
         ORDER BY work_date ASC
           FOR UPDATE
    `, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanWorkDates(rows)
}

// UpdateJobType は求人種別を更新します。
func (r *JobRepository) UpdateJobType(ctx context.Context, jobID int64, jobType job.Type) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE jobs
           SET job_type = $1,
               updated_at = now()
         WHERE id = $2
    `, string(jobType), jobID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrJobNotFound
	}
	return nil
}

// CreateChildJob は子求人とその勤務日を作成します。
func (r *JobRepository) CreateChildJob(ctx context.Context, child *job.Job, workDate *job.JobWorkDate) (*job.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO jobs (
            facility_id, parent_job_id, job_type, status, title,
            start_time, end_time, break_minutes, hourly_wage, transportation_fee,
            prefecture, city, address, requires_interview,
            switch_to_normal_days_before, recruitment_start_day,
            target_worker_id, offer_message, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
                $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
        RETURNING`+jobColumns+`
    `,
		child.FacilityID,
		child.ParentJobID,
		string(child.Type),
		string(child.Status),
		child.Title,
		child.StartTime,
		child.EndTime,
		child.BreakMinutes,
		child.HourlyWage,
		child.TransportationFee,
		child.Prefecture,
		child.City,
		child.Address,
		child.RequiresInterview,
		child.SwitchToNormalDaysBefore,
		child.RecruitmentStartDay,
		child.TargetWorkerID,
		child.OfferMessage,
		child.CreatedAt,
		child.UpdatedAt,
	)

	created, err := scanJob(row)
	if err != nil {
		return nil, err
	}

	_, err = exec.Exec(ctx, `
        INSERT INTO job_work_dates (
            job_id, work_date, deadline, recruitment_count,
            applied_count, matched_count, visible_from, visible_until,
            created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, 0, 0, $5, $6, $7, $8)
    `,
		created.ID,
		workDate.WorkDate,
		workDate.Deadline,
		workDate.RecruitmentCount,
		workDate.VisibleFrom,
		workDate.VisibleUntil,
		workDate.CreatedAt,
		workDate.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return created, nil
}

// DeleteWorkDate は勤務日を削除します。
func (r *JobRepository) DeleteWorkDate(ctx context.Context, workDateID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM job_work_dates WHERE id = $1`, workDateID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrWorkDateNotFound
	}
	return nil
}

// ListExpiredOffers は全勤務日の締切を過ぎた PUBLISHED のオファー求人を取得します。
func (r *JobRepository) ListExpiredOffers(ctx context.Context, now time.Time) ([]*job.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT`+jobColumns+`
          FROM jobs j
         WHERE j.job_type = $1
           AND j.status = $2
           AND EXISTS (
               SELECT 1 FROM job_work_dates w WHERE w.job_id = j.id
           )
           AND NOT EXISTS (
               SELECT 1 FROM job_work_dates w
                WHERE w.job_id = j.id AND w.deadline >= $3
           )
         ORDER BY j.id ASC
    `, string(job.TypeOffer), string(job.StatusPublished), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanJobs(rows)
}

// CountApplications は求人の全勤務日に紐づく応募数を返します。
func (r *JobRepository) CountApplications(ctx context.Context, jobID int64) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT count(*)
          FROM applications a
          JOIN job_work_dates w ON w.id = a.work_date_id
         WHERE w.job_id = $1
    `, jobID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// StopPublishedJob は PUBLISHED の求人を STOPPED にします。
func (r *JobRepository) StopPublishedJob(ctx context.Context, jobID int64) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE jobs
           SET status = $1,
               updated_at = now()
         WHERE id = $2
           AND status = $3
    `, string(job.StatusStopped), jobID, string(job.StatusPublished))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j                        job.Job
		jobType, status          string
		parentJobID              *int64
		switchDaysBefore         *int
		targetWorkerID           *int64
		offerMessage             *string
		createdAt, updatedAt     time.Time
	)

	if err := row.Scan(
		&j.ID,
		&j.FacilityID,
		&parentJobID,
		&jobType,
		&status,
		&j.Title,
		&j.StartTime,
		&j.EndTime,
		&j.BreakMinutes,
		&j.HourlyWage,
		&j.TransportationFee,
		&j.Prefecture,
		&j.City,
		&j.Address,
		&j.RequiresInterview,
		&switchDaysBefore,
		&j.RecruitmentStartDay,
		&targetWorkerID,
		&offerMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, job.ErrJobNotFound
		}
		return nil, err
	}

	j.ParentJobID = parentJobID
	j.Type = job.Type(jobType)
	j.Status = job.Status(status)
	j.SwitchToNormalDaysBefore = switchDaysBefore
	j.TargetWorkerID = targetWorkerID
	j.OfferMessage = offerMessage
	j.CreatedAt = createdAt
	j.UpdatedAt = updatedAt
	return &j, nil
}

func scanJobs(rows pgx.Rows) ([]*job.Job, error) {
	var result []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanWorkDate(row pgx.Row) (*job.JobWorkDate, error) {
	var w job.JobWorkDate

	if err := row.Scan(
		&w.ID,
		&w.JobID,
		&w.WorkDate,
		&w.Deadline,
		&w.RecruitmentCount,
		&w.AppliedCount,
		&w.MatchedCount,
		&w.VisibleFrom,
		&w.VisibleUntil,
		&w.CreatedAt,
		&w.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, job.ErrWorkDateNotFound
		}
		return nil, err
	}

	return &w, nil
}

func scanWorkDates(rows pgx.Rows) ([]*job.JobWorkDate, error) {
	var result []*job.JobWorkDate
	for rows.Next() {
		w, err := scanWorkDate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
