package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qws941/safetywallet-sub003/models"
	"github.com/qws941/safetywallet-sub003/utils"
)

func newTestGate(store *fakeStore, attendance AttendanceSource, flags FlagSource, requireFlag bool) *AttendanceGate {
	g := NewAttendanceGate(store, attendance, flags)
	g.requireAttendance = func() bool { return requireFlag }
	g.now = func() time.Time { return time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC) }
	return g
}

func gateFixture() *fakeStore {
	store := newFakeStore()
	store.members[[2]int{100, 10}] = true
	store.membersAny[100] = true
	return store
}

func TestAttendanceGate(t *testing.T) {
	ctx := context.Background()

	t.Run("no site context with the flag off allows without auth", func(t *testing.T) {
		g := newTestGate(gateFixture(), fakeAttendance{}, fakeFlags{}, false)
		if err := g.Check(ctx, 0, 0); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("unauthenticated caller gets 401", func(t *testing.T) {
		g := newTestGate(gateFixture(), fakeAttendance{}, fakeFlags{}, true)
		err := g.Check(ctx, 0, 10)
		appErr, ok := utils.AsAppError(err)
		if !ok || appErr.Status != 401 {
			t.Fatalf("expected 401, got %v", err)
		}
	})

	t.Run("non-member gets 403", func(t *testing.T) {
		g := newTestGate(gateFixture(), fakeAttendance{present: true}, fakeFlags{}, true)
		err := g.Check(ctx, 200, 10)
		appErr, ok := utils.AsAppError(err)
		if !ok || appErr.Status != 403 {
			t.Fatalf("expected 403, got %v", err)
		}
	})

	t.Run("policy without check-in and flag off allows a member", func(t *testing.T) {
		store := gateFixture()
		store.policies[10] = &models.AccessPolicy{
			SiteId: 10, RequireCheckin: utils.NewFalse(), DayCutoffHour: 5,
		}
		g := newTestGate(store, fakeAttendance{}, fakeFlags{}, false)
		if err := g.Check(ctx, 100, 10); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("member with neither record nor approval is denied", func(t *testing.T) {
		g := newTestGate(gateFixture(), fakeAttendance{}, fakeFlags{}, true)
		err := g.Check(ctx, 100, 10)
		appErr, ok := utils.AsAppError(err)
		if !ok || appErr.Status != 403 {
			t.Fatalf("expected 403, got %v", err)
		}
	})

	t.Run("same-day attendance record allows", func(t *testing.T) {
		g := newTestGate(gateFixture(), fakeAttendance{present: true}, fakeFlags{}, true)
		if err := g.Check(ctx, 100, 10); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("manual approval allows as the fallback", func(t *testing.T) {
		g := newTestGate(gateFixture(), fakeAttendance{approved: true}, fakeFlags{}, true)
		if err := g.Check(ctx, 100, 10); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("breaker flag down bypasses the check entirely", func(t *testing.T) {
		g := newTestGate(gateFixture(), fakeAttendance{}, fakeFlags{value: FasStatusDown, found: true}, true)
		if err := g.Check(ctx, 100, 10); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("flag read error keeps the gate running", func(t *testing.T) {
		flags := fakeFlags{err: errors.New("redis timeout")}
		g := newTestGate(gateFixture(), fakeAttendance{present: true}, flags, true)
		if err := g.Check(ctx, 100, 10); err != nil {
			t.Fatal(err)
		}
		g = newTestGate(gateFixture(), fakeAttendance{}, flags, true)
		if err := g.Check(ctx, 100, 10); err == nil {
			t.Fatal("expected denial when the only signal is a failed flag read")
		}
	})

	t.Run("other flag values do not bypass", func(t *testing.T) {
		g := newTestGate(gateFixture(), fakeAttendance{}, fakeFlags{value: "healthy", found: true}, true)
		if err := g.Check(ctx, 100, 10); err == nil {
			t.Fatal("expected denial")
		}
	})
}
