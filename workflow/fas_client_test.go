package workflow

import (
	"testing"
	"time"

	"github.com/qws941/safetywallet-sub003/utils"
)

func TestCheckinTime(t *testing.T) {
	loc := utils.Seoul()

	t.Run("HHMM", func(t *testing.T) {
		r := &FasAccessRecord{WorkerId: "W001", AccessDay: "20260302", InTime: "0642"}
		got, err := r.CheckinTime(loc)
		if err != nil {
			t.Fatalf("CheckinTime: %v", err)
		}
		want := time.Date(2026, 3, 2, 6, 42, 0, 0, loc)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("HHMMSS", func(t *testing.T) {
		r := &FasAccessRecord{WorkerId: "W001", AccessDay: "20260302", InTime: "064217"}
		got, err := r.CheckinTime(loc)
		if err != nil {
			t.Fatalf("CheckinTime: %v", err)
		}
		want := time.Date(2026, 3, 2, 6, 42, 17, 0, loc)
		if !got.Equal(want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("malformed in_time", func(t *testing.T) {
		r := &FasAccessRecord{WorkerId: "W001", AccessDay: "20260302", InTime: "6:42"}
		if _, err := r.CheckinTime(loc); err == nil {
			t.Error("expected error for malformed in_time")
		}
	})
}

func TestSettleMonthPattern(t *testing.T) {
	valid := []string{"2026-01", "1999-12"}
	invalid := []string{"2026-1", "202601", "2026-001", "2026-01-01", ""}
	for _, m := range valid {
		if !settleMonthPattern.MatchString(m) {
			t.Errorf("%q should be a valid settle month", m)
		}
	}
	for _, m := range invalid {
		if settleMonthPattern.MatchString(m) {
			t.Errorf("%q should not be a valid settle month", m)
		}
	}
}
