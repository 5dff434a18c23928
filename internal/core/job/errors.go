package job

import "errors"

var (
	// ErrJobNotFound は求人が存在しない場合に返却されます。
	ErrJobNotFound = errors.New("job not found")
	// ErrWorkDateNotFound は勤務日が存在しない場合に返却されます。
	ErrWorkDateNotFound = errors.New("job work date not found")
	// ErrWorkDateMismatch は勤務日が対象求人に属していない場合に返却されます。
	// 呼び出し側の契約違反でありリトライ対象ではありません。
	ErrWorkDateMismatch = errors.New("work date does not belong to job")
	// ErrInvalidID は ID が不正な場合に返却されます。
	ErrInvalidID = errors.New("invalid id")
	// ErrInvalidTimeRange は勤務時間の指定が不正な場合に返却されます。
	ErrInvalidTimeRange = errors.New("invalid time range")
)
