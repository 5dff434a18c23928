package attendance

import "errors"

var (
	// ErrRecordNotFound は勤怠記録が存在しない場合に返却されます。
	ErrRecordNotFound = errors.New("attendance record not found")
	// ErrModificationNotFound は勤怠変更申請が存在しない場合に返却されます。
	ErrModificationNotFound = errors.New("modification request not found")
	// ErrModificationPending は未処理の申請が既に存在する場合に返却されます。
	ErrModificationPending = errors.New("modification request already pending")
	// ErrAlreadyDecided は処理済みの申請への承認・却下要求に対して返却されます。
	ErrAlreadyDecided = errors.New("modification request already decided")
	// ErrCommentRequired はコメントが空の場合に返却されます。
	ErrCommentRequired = errors.New("comment is required")
	// ErrInvalidWorkDuration は申請時刻の実働が正にならない場合に返却されます。
	ErrInvalidWorkDuration = errors.New("requested times produce non-positive work duration")
	// ErrInvalidRequestedTime は申請時刻が RFC 3339 として解釈できない場合に返却されます。
	ErrInvalidRequestedTime = errors.New("requested time is not a valid timestamp")
	// ErrNotRecordOwner は勤怠記録の所有者以外からの申請に対して返却されます。
	ErrNotRecordOwner = errors.New("actor does not own attendance record")
	// ErrAlreadyCheckedOut は退勤済みの記録への退勤要求に対して返却されます。
	ErrAlreadyCheckedOut = errors.New("already checked out")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
)
