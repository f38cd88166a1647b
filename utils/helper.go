package utils

import (
	"fmt"
	"time"

	"github.com/ttacon/libphonenumber"
)

var CountryCode = "KR"

// Site clocks and the FAS source both run on Korea time; attendance-day
// bucketing must agree with them regardless of the server's TZ.
var seoul = mustLoadSeoul()

func mustLoadSeoul() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// DayRange returns the half-open [start, end) window of the "attendance day"
// containing now. The day rolls over at cutoffHour local time (default site
// policy: 05:00), not midnight; night-shift check-ins before dawn belong to
// the previous working day.
func DayRange(now time.Time, cutoffHour int) (time.Time, time.Time) {
	if cutoffHour < 0 || cutoffHour > 23 {
		cutoffHour = 5
	}
	local := now.In(seoul)
	start := time.Date(local.Year(), local.Month(), local.Day(), cutoffHour, 0, 0, 0, seoul)
	if local.Before(start) {
		start = start.AddDate(0, 0, -1)
	}
	return start, start.AddDate(0, 0, 1)
}

// AccsDay formats a time as the FAS "YYYYMMDD" access-day key, honoring the
// same cutoff used by DayRange.
func AccsDay(now time.Time, cutoffHour int) string {
	start, _ := DayRange(now, cutoffHour)
	return start.Format("20060102")
}

// Seoul is the location all attendance-day math runs in.
func Seoul() *time.Location {
	return seoul
}

// SettleMonth returns the "YYYY-MM" payroll bucket for a ledger entry.
func SettleMonth(occurredAt time.Time) string {
	return occurredAt.In(seoul).Format("2006-01")
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}
	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}
	return nil
}

// NormalizePhoneNumber renders a phone number in E.164 so local check-in
// rows and FAS worker records compare equal ("010-1234-5678" vs "01012345678").
func NormalizePhoneNumber(phoneNumber string) (string, error) {
	p, err := libphonenumber.Parse(phoneNumber, CountryCode)
	if err != nil {
		return "", err
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", fmt.Errorf("phone number is not valid")
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}
