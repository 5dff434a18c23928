package attendance

import (
	"math"
	"time"
)

// 深夜時間帯（22:00〜05:00）と残業閾値（8 時間）の定義。
const (
	nightStartHour           = 22
	nightEndHour             = 5
	overtimeThresholdMinutes = 8 * 60
)

// SalaryInput は日給計算の入力です。
type SalaryInput struct {
	StartTime    time.Time
	EndTime      time.Time
	BreakMinutes int
	HourlyRate   int
}

// SalaryResult は日給計算の結果です。
//
// 計算ルール:
//   - ベース給与: 実働時間 × 時給
//   - 残業手当: 8 時間超過分 × 時給 × 0.25
//   - 深夜手当: 22:00〜05:00 の勤務時間 × 時給 × 0.25
//   - 深夜残業は両方が加算され実質 1.5 倍
//   - 休憩時間は単価の高い時間帯から優先的に控除
type SalaryResult struct {
	BasePay         int
	OvertimePay     int
	NightPay        int
	TotalPay        int
	WorkedMinutes   int
	OvertimeMinutes int
	NightMinutes    int
}

type workSegment struct {
	start   time.Time
	end     time.Time
	isNight bool
}

// CalculateSalary は勤務時間帯を通常・深夜・残業・深夜残業に分割して日給を計算します。
func CalculateSalary(in SalaryInput) SalaryResult {
	totalMinutes := minutesBetween(in.StartTime, in.EndTime)
	workedMinutes := math.Max(0, totalMinutes-float64(in.BreakMinutes))

	segments := splitByNightBoundary(in.StartTime, in.EndTime)

	// 残業閾値をまたぐセグメントを分割しつつ 4 区分に集計する
	var nightOvertime, overtime, night, normal float64
	accumulated := 0.0

	for _, seg := range segments {
		segMinutes := minutesBetween(seg.start, seg.end)
		segStartAcc := accumulated
		segEndAcc := accumulated + segMinutes
		accumulated = segEndAcc

		if segStartAcc < overtimeThresholdMinutes && segEndAcc > overtimeThresholdMinutes {
			before := overtimeThresholdMinutes - segStartAcc
			after := segEndAcc - overtimeThresholdMinutes
			if seg.isNight {
				night += before
				nightOvertime += after
			} else {
				normal += before
				overtime += after
			}
			continue
		}

		isOvertime := segStartAcc >= overtimeThresholdMinutes
		switch {
		case seg.isNight && isOvertime:
			nightOvertime += segMinutes
		case seg.isNight:
			night += segMinutes
		case isOvertime:
			overtime += segMinutes
		default:
			normal += segMinutes
		}
	}

	// 休憩を単価の高い区分から控除: 深夜残業 → 残業 → 深夜 → 通常
	remaining := float64(in.BreakMinutes)
	remaining = deduct(&nightOvertime, remaining)
	remaining = deduct(&overtime, remaining)
	remaining = deduct(&night, remaining)
	_ = deduct(&normal, remaining)

	totalOvertime := nightOvertime + overtime
	totalNight := nightOvertime + night

	ratePerMinute := float64(in.HourlyRate) / 60

	basePay := int(math.Round(workedMinutes * ratePerMinute))
	overtimePay := int(math.Round(totalOvertime * ratePerMinute * 0.25))
	nightPay := int(math.Round(totalNight * ratePerMinute * 0.25))

	return SalaryResult{
		BasePay:         basePay,
		OvertimePay:     overtimePay,
		NightPay:        nightPay,
		TotalPay:        basePay + overtimePay + nightPay,
		WorkedMinutes:   int(workedMinutes),
		OvertimeMinutes: int(totalOvertime),
		NightMinutes:    int(totalNight),
	}
}

func deduct(bucket *float64, remaining float64) float64 {
	if remaining <= 0 || *bucket <= 0 {
		return remaining
	}
	d := math.Min(remaining, *bucket)
	*bucket -= d
	return remaining - d
}

func minutesBetween(start, end time.Time) float64 {
	return math.Max(0, end.Sub(start).Minutes())
}

func isNightHour(t time.Time) bool {
	h := t.Hour()
	return h >= nightStartHour || h < nightEndHour
}

func hourOn(base time.Time, hour int, nextDay bool) time.Time {
	d := base
	if nextDay {
		d = d.AddDate(0, 0, 1)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hour, 0, 0, 0, d.Location())
}

// splitByNightBoundary は勤務時間を 22:00 / 05:00 の境界で分割します。
func splitByNightBoundary(start, end time.Time) []workSegment {
	var segments []workSegment
	cur := start

	for cur.Before(end) {
		night := isNightHour(cur)

		var boundary time.Time
		if night {
			if cur.Hour() >= nightStartHour {
				boundary = hourOn(cur, nightEndHour, true)
			} else {
				boundary = hourOn(cur, nightEndHour, false)
			}
		} else {
			if cur.Hour() < nightStartHour {
				boundary = hourOn(cur, nightStartHour, false)
			} else {
				boundary = hourOn(cur, nightStartHour, true)
			}
		}

		segEnd := boundary
		if end.Before(boundary) {
			segEnd = end
		}

		if segEnd.After(cur) {
			segments = append(segments, workSegment{start: cur, end: segEnd, isNight: night})
		}

		cur = segEnd
	}

	return segments
}
