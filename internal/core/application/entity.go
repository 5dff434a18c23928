package application

import "time"

// Status は応募の状態を表します。
type Status string

const (
	StatusApplied          Status = "APPLIED"
	StatusScheduled        Status = "SCHEDULED"
	StatusWorking          Status = "WORKING"
	StatusCompletedPending Status = "COMPLETED_PENDING"
	StatusCompletedRated   Status = "COMPLETED_RATED"
	StatusCancelled        Status = "CANCELLED"
)

// IsTerminal は終端状態（以降の遷移を受け付けない状態）かどうかを返します。
func (s Status) IsTerminal() bool {
	return s == StatusCompletedRated || s == StatusCancelled
}

// Event は応募に対する状態遷移イベントです。
type Event string

const (
	EventFacilityAccept Event = "FACILITY_ACCEPT"
	EventFacilityReject Event = "FACILITY_REJECT"
	EventWorkerCancel   Event = "WORKER_CANCEL"
	EventCheckIn        Event = "CHECK_IN"
	EventCheckOut       Event = "CHECK_OUT"
	EventSubmitReview   Event = "SUBMIT_REVIEW"
)

// ActorType は応募を更新した主体の種別です。
type ActorType string

const (
	ActorWorker        ActorType = "WORKER"
	ActorFacilityAdmin ActorType = "FACILITY_ADMIN"
	ActorSystem        ActorType = "SYSTEM"
)

// Actor は更新主体です。セッション等の暗黙状態からは推定せず、
// すべての更新系呼び出しに明示的に引き渡します。
type Actor struct {
	Type ActorType
	ID   int64
}

// Application はワーカーの勤務日単位の応募です。
type Application struct {
	ID            int64
	WorkDateID    int64
	WorkerID      int64
	Status        Status
	CancelledBy   *ActorType
	UpdatedByType ActorType
	UpdatedByID   int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Next は現在の状態にイベントを適用した遷移先を返します。
// 終端状態への適用は ErrTerminalState、定義外の組は ErrInvalidTransition です。
func Next(current Status, event Event) (Status, error) {
	if current.IsTerminal() {
		return "", ErrTerminalState
	}

	switch event {
	case EventFacilityAccept:
		if current == StatusApplied {
			return StatusScheduled, nil
		}
	case EventFacilityReject, EventWorkerCancel:
		if current == StatusApplied || current == StatusScheduled {
			return StatusCancelled, nil
		}
	case EventCheckIn:
		if current == StatusScheduled {
			return StatusWorking, nil
		}
	case EventCheckOut:
		if current == StatusWorking {
			return StatusCompletedPending, nil
		}
	case EventSubmitReview:
		if current == StatusCompletedPending {
			return StatusCompletedRated, nil
		}
	default:
		return "", ErrInvalidTransition
	}

	return "", ErrInvalidTransition
}
