package attendance

import "context"

// Repository は勤怠記録と勤怠変更申請の永続化を行うインターフェースです。
type Repository interface {
	CreateRecord(ctx context.Context, rec *Record) (*Record, error)
	UpdateRecord(ctx context.Context, rec *Record) (*Record, error)
	FindRecordByID(ctx context.Context, id int64) (*Record, error)
	FindRecordByApplicationID(ctx context.Context, applicationID int64) (*Record, error)

	CreateModification(ctx context.Context, req *ModificationRequest) (*ModificationRequest, error)
	UpdateModification(ctx context.Context, req *ModificationRequest) (*ModificationRequest, error)
	FindModificationByID(ctx context.Context, id int64) (*ModificationRequest, error)
	// FindPendingModification は勤怠記録に紐づく未処理の申請を返します。
	FindPendingModification(ctx context.Context, attendanceID int64) (*ModificationRequest, error)
}

// TxManager はトランザクション境界を提供します。
type TxManager interface {
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}
