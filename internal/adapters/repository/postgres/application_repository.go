package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tastas/marketplace-core/internal/core/application"
	"github.com/tastas/marketplace-core/internal/core/job"
	pgdb "github.com/tastas/marketplace-core/internal/platform/db/postgres"
)

const uniqueViolationCode = "23505"

const applicationColumns = `
        id, work_date_id, worker_id, status, cancelled_by,
        updated_by_type, updated_by_id, created_at, updated_at`

// ApplicationRepository は PostgreSQL を利用した応募永続化の実装です。
// 勤務日カウンタの原子的な増減もここに実装します。
type ApplicationRepository struct {
	pool pgdb.Queryer
}

// NewApplicationRepository は ApplicationRepository を生成します。
func NewApplicationRepository(pool pgdb.Queryer) *ApplicationRepository {
	return &ApplicationRepository{pool: pool}
}

// Create は応募を新規作成します。同一勤務日への二重応募は
// 一意制約により ErrAlreadyApplied になります。
func (r *ApplicationRepository) Create(ctx context.Context, app *application.Application) (*application.Application, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO applications (
            work_date_id, worker_id, status, cancelled_by,
            updated_by_type, updated_by_id, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING`+applicationColumns+`
    `,
		app.WorkDateID,
		app.WorkerID,
		string(app.Status),
		nullableActorType(app.CancelledBy),
		string(app.UpdatedByType),
		app.UpdatedByID,
		app.CreatedAt,
		app.UpdatedAt,
	)

	created, err := scanApplication(row)
	if err != nil {
		return nil, translateApplicationPgError(err)
	}
	return created, nil
}

// Update は応募を更新します。
func (r *ApplicationRepository) Update(ctx context.Context, app *application.Application) (*application.Application, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE applications
           SET status = $1,
               cancelled_by = $2,
               updated_by_type = $3,
               updated_by_id = $4,
               updated_at = $5
         WHERE id = $6
        RETURNING`+applicationColumns+`
    `,
		string(app.Status),
		nullableActorType(app.CancelledBy),
		string(app.UpdatedByType),
		app.UpdatedByID,
		app.UpdatedAt,
		app.ID,
	)

	updated, err := scanApplication(row)
	if err != nil {
		return nil, translateApplicationPgError(err)
	}
	return updated, nil
}

// FindByID はIDで応募を取得します。
func (r *ApplicationRepository) FindByID(ctx context.Context, id int64) (*application.Application, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+applicationColumns+`
          FROM applications
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanApplication(row)
}

// FindByWorkDateAndWorker は勤務日とワーカーの組で応募を取得します。
func (r *ApplicationRepository) FindByWorkDateAndWorker(ctx context.Context, workDateID, workerID int64) (*application.Application, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+applicationColumns+`
          FROM applications
         WHERE work_date_id = $1
           AND worker_id = $2
         LIMIT 1
    `, workDateID, workerID)

	return scanApplication(row)
}

// WorkerContext は応募可否判定に使うワーカーの応募状況を取得します。
func (r *ApplicationRepository) WorkerContext(ctx context.Context, workerID int64) (job.WorkerContext, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var result job.WorkerContext

	rows, err := exec.Query(ctx, `
        SELECT work_date_id
          FROM applications
         WHERE worker_id = $1
           AND status <> $2
    `, workerID, string(application.StatusCancelled))
	if err != nil {
		return job.WorkerContext{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return job.WorkerContext{}, err
		}
		result.AppliedWorkDateIDs = append(result.AppliedWorkDateIDs, id)
	}
	if err := rows.Err(); err != nil {
		return job.WorkerContext{}, err
	}

	slotRows, err := exec.Query(ctx, `
        SELECT w.id, w.work_date, j.start_time, j.end_time
          FROM applications a
          JOIN job_work_dates w ON w.id = a.work_date_id
          JOIN jobs j ON j.id = w.job_id
         WHERE a.worker_id = $1
           AND a.status IN ($2, $3)
    `, workerID, string(application.StatusScheduled), string(application.StatusWorking))
	if err != nil {
		return job.WorkerContext{}, err
	}
	defer slotRows.Close()

	for slotRows.Next() {
		var slot job.ScheduledSlot
		if err := slotRows.Scan(&slot.WorkDateID, &slot.WorkDate, &slot.StartTime, &slot.EndTime); err != nil {
			return job.WorkerContext{}, err
		}
		result.ScheduledSlots = append(result.ScheduledSlots, slot)
	}
	if err := slotRows.Err(); err != nil {
		return job.WorkerContext{}, err
	}

	return result, nil
}

// IncrementOnApply は応募時のカウンタ加算です。即マッチングの場合は
// matched_count も加算し、募集人数を上限として強制します。
func (r *ApplicationRepository) IncrementOnApply(ctx context.Context, workDateID int64, immediateMatch bool) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE job_work_dates
           SET applied_count = applied_count + 1,
               matched_count = matched_count + CASE WHEN $2 THEN 1 ELSE 0 END,
               updated_at = now()
         WHERE id = $1
           AND (NOT $2 OR matched_count < recruitment_count)
    `, workDateID, immediateMatch)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if immediateMatch {
			return application.ErrCapacityExceeded
		}
		return job.ErrWorkDateNotFound
	}
	return nil
}

// IncrementMatched は受諾時の matched_count 加算です。
// 募集人数を上限とし、条件付き UPDATE で超過を防ぎます。
func (r *ApplicationRepository) IncrementMatched(ctx context.Context, workDateID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE job_work_dates
           SET matched_count = matched_count + 1,
               updated_at = now()
         WHERE id = $1
           AND matched_count < recruitment_count
    `, workDateID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return application.ErrCapacityExceeded
	}
	return nil
}

// DecrementMatched は matched_count を 0 を下限として減算します。
func (r *ApplicationRepository) DecrementMatched(ctx context.Context, workDateID int64) error {
	return r.decrementCounter(ctx, workDateID, "matched_count")
}

// DecrementApplied は applied_count を 0 を下限として減算します。
func (r *ApplicationRepository) DecrementApplied(ctx context.Context, workDateID int64) error {
	return r.decrementCounter(ctx, workDateID, "applied_count")
}

func (r *ApplicationRepository) decrementCounter(ctx context.Context, workDateID int64, column string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE job_work_dates
           SET `+column+` = greatest(`+column+` - 1, 0),
               updated_at = now()
         WHERE id = $1
    `, workDateID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return job.ErrWorkDateNotFound
	}
	return nil
}

func scanApplication(row pgx.Row) (*application.Application, error) {
	var (
		app                  application.Application
		status               string
		cancelledBy          *string
		updatedByType        string
		createdAt, updatedAt time.Time
	)

	if err := row.Scan(
		&app.ID,
		&app.WorkDateID,
		&app.WorkerID,
		&status,
		&cancelledBy,
		&updatedByType,
		&app.UpdatedByID,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, application.ErrApplicationNotFound
		}
		return nil, err
	}

	app.Status = application.Status(status)
	if cancelledBy != nil {
		actorType := application.ActorType(*cancelledBy)
		app.CancelledBy = &actorType
	}
	app.UpdatedByType = application.ActorType(updatedByType)
	app.CreatedAt = createdAt
	app.UpdatedAt = updatedAt
	return &app, nil
}

func nullableActorType(t *application.ActorType) *string {
	if t == nil {
		return nil
	}
	s := string(*t)
	return &s
}

func translateApplicationPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return application.ErrAlreadyApplied
		}
	}
	return err
}
