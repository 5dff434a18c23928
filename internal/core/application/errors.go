package application

import "errors"

var (
	// ErrApplicationNotFound は応募が存在しない場合に返却されます。
	ErrApplicationNotFound = errors.New("application not found")
	// ErrAlreadyApplied は同じ勤務日に応募済みの場合に返却されます。
	ErrAlreadyApplied = errors.New("already applied to work date")
	// ErrTimeConflict は確定済みシフトと時間が重複する場合に返却されます。
	ErrTimeConflict = errors.New("time conflict with scheduled shift")
	// ErrCapacityExceeded は募集人数に達している場合に返却されます。
	ErrCapacityExceeded = errors.New("recruitment capacity exceeded")
	// ErrDeadlinePassed は応募締切を過ぎている場合に返却されます。
	ErrDeadlinePassed = errors.New("application deadline passed")
	// ErrInvalidTransition は定義されていない状態遷移が要求された場合に返却されます。
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrTerminalState は終端状態の応募への遷移要求に対して返却されます。
	ErrTerminalState = errors.New("application is in terminal state")
	// ErrCancelAfterShiftStart は勤務開始時刻を過ぎたキャンセル要求に対して返却されます。
	ErrCancelAfterShiftStart = errors.New("cannot cancel after shift start")
	// ErrInvalidActor は更新主体の指定が不正な場合に返却されます。
	ErrInvalidActor = errors.New("invalid actor")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
)
