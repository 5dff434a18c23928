package job

import "time"

// Clock は現在時刻を提供します。デバッグ時刻対応のため各サービスに注入されます。
type Clock interface {
	Now() time.Time
}

// RealClock は実時刻を UTC で返す Clock 実装です。
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now().UTC()
}
