package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tastas/marketplace-core/internal/core/attendance"
	pgdb "github.com/tastas/marketplace-core/internal/platform/db/postgres"
)

const attendanceColumns = `
        id, application_id, worker_id, facility_id, check_in_at, check_out_at,
        break_minutes, calculated_wage, qr_token, created_at, updated_at`

const modificationColumns = `
        id, attendance_id, requested_start_time, requested_end_time,
        requested_break_minutes, worker_comment, status, admin_comment,
        reviewed_by, reviewed_at, original_amount, requested_amount,
        created_at, updated_at`

// AttendanceRepository は PostgreSQL を利用した勤怠記録・勤怠変更申請
// 永続化の実装です。
type AttendanceRepository struct {
	pool pgdb.Queryer
}

// NewAttendanceRepository は AttendanceRepository を生成します。
func NewAttendanceRepository(pool pgdb.Queryer) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// CreateRecord は勤怠記録を新規作成します。
func (r *AttendanceRepository) CreateRecord(ctx context.Context, rec *attendance.Record) (*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO attendance_records (
            application_id, worker_id, facility_id, check_in_at, check_out_at,
            break_minutes, calculated_wage, qr_token, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING`+attendanceColumns+`
    `,
		rec.ApplicationID,
		rec.WorkerID,
		rec.FacilityID,
		rec.CheckInAt,
		rec.CheckOutAt,
		rec.BreakMinutes,
		rec.CalculatedWage,
		rec.QRToken,
		rec.CreatedAt,
		rec.UpdatedAt,
	)

	return scanAttendanceRecord(row)
}

// UpdateRecord は勤怠記録を更新します。
func (r *AttendanceRepository) UpdateRecord(ctx context.Context, rec *attendance.Record) (*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE attendance_records
           SET check_in_at = $1,
               check_out_at = $2,
               break_minutes = $3,
               calculated_wage = $4,
               updated_at = $5
         WHERE id = $6
        RETURNING`+attendanceColumns+`
    `,
		rec.CheckInAt,
		rec.CheckOutAt,
		rec.BreakMinutes,
		rec.CalculatedWage,
		rec.UpdatedAt,
		rec.ID,
	)

	return scanAttendanceRecord(row)
}

// FindRecordByID はIDで勤怠記録を取得します。
func (r *AttendanceRepository) FindRecordByID(ctx context.Context, id int64) (*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+attendanceColumns+`
          FROM attendance_records
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanAttendanceRecord(row)
}

// FindRecordByApplicationID は応募IDで勤怠記録を取得します。
func (r *AttendanceRepository) FindRecordByApplicationID(ctx context.Context, applicationID int64) (*attendance.Record, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+attendanceColumns+`
          FROM attendance_records
         WHERE application_id = $1
         LIMIT 1
    `, applicationID)

	return scanAttendanceRecord(row)
}

// CreateModification は勤怠変更申請を新規作成します。
func (r *AttendanceRepository) CreateModification(ctx context.Context, req *attendance.ModificationRequest) (*attendance.ModificationRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO attendance_modification_requests (
            attendance_id, requested_start_time, requested_end_time,
            requested_break_minutes, worker_comment, status, admin_comment,
            reviewed_by, reviewed_at, original_amount, requested_amount,
            created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING`+modificationColumns+`
    `,
		req.AttendanceID,
		req.RequestedStartTime,
		req.RequestedEndTime,
		req.RequestedBreakMinutes,
		req.WorkerComment,
		string(req.Status),
		req.AdminComment,
		req.ReviewedBy,
		req.ReviewedAt,
		req.OriginalAmount,
		req.RequestedAmount,
		req.CreatedAt,
		req.UpdatedAt,
	)

	created, err := scanModification(row)
	if err != nil {
		return nil, translateAttendancePgError(err)
	}
	return created, nil
}

// UpdateModification は勤怠変更申請を更新します。
func (r *AttendanceRepository) UpdateModification(ctx context.Context, req *attendance.ModificationRequest) (*attendance.ModificationRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE attendance_modification_requests
           SET status = $1,
               admin_comment = $2,
               reviewed_by = $3,
               reviewed_at = $4,
               updated_at = $5
         WHERE id = $6
        RETURNING`+modificationColumns+`
    `,
		string(req.Status),
		req.AdminComment,
		req.ReviewedBy,
		req.ReviewedAt,
		req.UpdatedAt,
		req.ID,
	)

	return scanModification(row)
}

// FindModificationByID はIDで勤怠変更申請を取得します。
func (r *AttendanceRepository) FindModificationByID(ctx context.Context, id int64) (*attendance.ModificationRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+modificationColumns+`
          FROM attendance_modification_requests
         WHERE id = $1
         LIMIT 1
    `, id)

	return scanModification(row)
}

// FindPendingModification は勤怠記録に紐づく未処理の申請を取得します。
func (r *AttendanceRepository) FindPendingModification(ctx context.Context, attendanceID int64) (*attendance.ModificationRequest, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT`+modificationColumns+`
          FROM attendance_modification_requests
         WHERE attendance_id = $1
           AND status = $2
         LIMIT 1
    `, attendanceID, string(attendance.ModificationPending))

	return scanModification(row)
}

func scanAttendanceRecord(row pgx.Row) (*attendance.Record, error) {
	var rec attendance.Record

	if err := row.Scan(
		&rec.ID,
		&rec.ApplicationID,
		&rec.WorkerID,
		&rec.FacilityID,
		&rec.CheckInAt,
		&rec.CheckOutAt,
		&rec.BreakMinutes,
		&rec.CalculatedWage,
		&rec.QRToken,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, attendance.ErrRecordNotFound
		}
		return nil, err
	}

	return &rec, nil
}

func scanModification(row pgx.Row) (*attendance.ModificationRequest, error) {
	var (
		req        attendance.ModificationRequest
		status     string
		reviewedAt *time.Time
	)

	if err := row.Scan(
		&req.ID,
		&req.AttendanceID,
		&req.RequestedStartTime,
		&req.RequestedEndTime,
		&req.RequestedBreakMinutes,
		&req.WorkerComment,
		&status,
		&req.AdminComment,
		&req.ReviewedBy,
		&reviewedAt,
		&req.OriginalAmount,
		&req.RequestedAmount,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, attendance.ErrModificationNotFound
		}
		return nil, err
	}

	req.Status = attendance.ModificationStatus(status)
	req.ReviewedAt = reviewedAt
	return &req, nil
}

// 同一勤怠への PENDING 申請は部分一意インデックスで二重登録を防いでおり、
// 一意制約違反は審査待ちの申請が既に存在することを意味します。
func translateAttendancePgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == uniqueViolationCode {
			return attendance.ErrModificationPending
		}
	}
	return err
}
