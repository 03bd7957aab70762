// Package schedule turns a trip's raw schedule fields into the arrival shown
// on the board: a "minutes from now" label and a projected clock time.
package schedule

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"busboard/internal/clock"
	"busboard/internal/models"
)

const (
	// LiveMarker is appended to the minutes label of GPS-confirmed estimates.
	LiveMarker = "*"

	// MaxMinutes bounds the magnitude of a parsed minutes field.
	MaxMinutes = math.MaxInt32

	UnknownMinutesLabel = "unknown"
	UnknownClockTime    = "--:--"
)

// ParseMinutes parses an upstream minutes field such as "19", " 7 " or " - 1".
// Whitespace anywhere is ignored. An optional sign and a decimal fraction are
// accepted and the fraction is truncated toward zero. Exponents, hex and
// values beyond ±MaxMinutes are rejected.
func ParseMinutes(raw string) (int, bool) {
	s := stripSpace(raw)

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, false
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, false
	}
	if whole == "" {
		return 0, true
	}

	n, err := strconv.Atoi(whole)
	if err != nil || n > MaxMinutes {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}

// Project computes the arrival of trip as seen at now.
func Project(trip models.Trip, now clock.WallTime) models.ProjectedArrival {
	live := trip.HasLiveGPSFix()
	marker := ""
	if live {
		marker = LiveMarker
	}

	minutes, ok := ParseMinutes(trip.AdjustedScheduleTime)
	if !ok {
		return models.ProjectedArrival{
			MinutesLabel: UnknownMinutesLabel + marker,
			ClockTime:    UnknownClockTime,
			Live:         live,
			Unknown:      true,
		}
	}

	return models.ProjectedArrival{
		MinutesLabel: fmt.Sprintf("%d min%s", minutes, marker),
		ClockTime:    ArrivalClock(now, minutes).String(),
		Minutes:      minutes,
		Live:         live,
	}
}

// ArrivalClock returns the wall-clock time offset minutes from now. Both the
// minute and the hour wrap with a true modulo, so negative offsets land on
// the previous hour or day instead of producing negative fields.
func ArrivalClock(now clock.WallTime, offset int) clock.WallTime {
	total := now.Minute + offset
	return clock.WallTime{
		Hour:   mod(now.Hour+floorDiv(total, 60), 24),
		Minute: mod(total, 60),
	}
}

// NormalizeStartTime cleans a scheduled start time like "17: 36" into
// "17:36". It reports false when the text is not a valid 24-hour time.
func NormalizeStartTime(raw string) (string, bool) {
	s := stripSpace(raw)
	hh, mm, found := strings.Cut(s, ":")
	if !found {
		return "", false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return "", false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || len(mm) != 2 || minute < 0 || minute > 59 {
		return "", false
	}
	return clock.WallTime{Hour: hour, Minute: minute}.String(), true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}

func floorDiv(a, n int) int {
	q := a / n
	if a%n != 0 && (a < 0) != (n < 0) {
		q--
	}
	return q
}
