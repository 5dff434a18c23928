package attendance

import (
	"time"

	"github.com/google/uuid"
)

// Record は応募 1 件に対する出退勤の実績です。QR スキャンで作成・更新され、
// 承認済みの勤怠変更申請によっても書き換えられます。
type Record struct {
	ID             int64
	ApplicationID  int64
	WorkerID       int64
	FacilityID     int64
	CheckInAt      time.Time
	CheckOutAt     *time.Time
	BreakMinutes   int
	CalculatedWage *int
	QRToken        uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ModificationStatus は勤怠変更申請の状態を表します。
type ModificationStatus string

const (
	ModificationPending  ModificationStatus = "PENDING"
	ModificationApproved ModificationStatus = "APPROVED"
	ModificationRejected ModificationStatus = "REJECTED"
)

// IsTerminal は申請が処理済み（承認または却下）かどうかを返します。
// 却下後の再申請は既存申請の再利用ではなく新しい PENDING 申請として作成されます。
func (s ModificationStatus) IsTerminal() bool {
	return s == ModificationApproved || s == ModificationRejected
}

// ModificationRequest はワーカーによる勤怠時刻の訂正申請です。
type ModificationRequest struct {
	ID                    int64
	AttendanceID          int64
	RequestedStartTime    time.Time
	RequestedEndTime      time.Time
	RequestedBreakMinutes int
	WorkerComment         string
	Status                ModificationStatus
	AdminComment          *string
	ReviewedBy            *int64
	ReviewedAt            *time.Time
	OriginalAmount        int
	RequestedAmount       int
	CreatedAt             time.Time
	UpdatedAt             time.Time
}
