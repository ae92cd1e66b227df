package schedule

import (
	"testing"
	"time"
)

func mustLoadLoc(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Africa/Kinshasa")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func at(loc *time.Location, hour, minute int) time.Time {
	return time.Date(2026, 2, 4, hour, minute, 0, 0, loc)
}

func TestOverlapsHalfOpen(t *testing.T) {
	loc := mustLoadLoc(t)
	booked := NewInterval(at(loc, 10, 0), 60)

	if !Overlaps(booked, NewInterval(at(loc, 10, 30), 60)) {
		t.Fatalf("expected [10:30,11:30) to overlap [10:00,11:00)")
	}
	if Overlaps(booked, NewInterval(at(loc, 11, 0), 60)) {
		t.Fatalf("touching intervals must not overlap")
	}
	if Overlaps(booked, NewInterval(at(loc, 9, 0), 60)) {
		t.Fatalf("touching intervals must not overlap")
	}
	if !Overlaps(booked, NewInterval(at(loc, 10, 15), 15)) {
		t.Fatalf("expected contained interval to overlap")
	}
	if !Overlaps(NewInterval(at(loc, 9, 0), 180), booked) {
		t.Fatalf("expected containing interval to overlap")
	}
}

func TestValidDuration(t *testing.T) {
	if ValidDuration(14) {
		t.Fatalf("14 minutes must be rejected")
	}
	if !ValidDuration(15) {
		t.Fatalf("15 minutes must be accepted")
	}
	if ValidDuration(MaxDurationMinutes + 1) {
		t.Fatalf("over max must be rejected")
	}
}

func TestGenerateSlotsWeekday(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlots("2026-02-02", SlotMinutes, loc)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("expected 8 slots, got %d", len(slots))
	}
	clocks := Clocks(slots, loc)
	if clocks[0] != "09:00" || clocks[len(clocks)-1] != "16:15" {
		t.Fatalf("unexpected boundary slots: %v", clocks)
	}
	if !slots[0].End.Equal(slots[1].Start) {
		t.Fatalf("expected back-to-back slots: %v", clocks)
	}
}

func TestGenerateSlotsSaturday(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlots("2026-02-07", SlotMinutes, loc)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(slots) != 5 {
		t.Fatalf("expected 5 slots, got %d", len(slots))
	}
}

func TestGenerateSlotsSundayClosed(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlots("2026-02-01", SlotMinutes, loc)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected 0 slots, got %d", len(slots))
	}
}

func TestGenerateSlotsRejectsBadInput(t *testing.T) {
	loc := mustLoadLoc(t)
	if _, err := GenerateSlots("02/02/2026", 30, loc); err != ErrInvalidDate {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
	if _, err := GenerateSlots("2026-02-02", 0, loc); err != ErrInvalidDuration {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestIsDatePast(t *testing.T) {
	loc := mustLoadLoc(t)
	now := time.Date(2026, 2, 4, 10, 0, 0, 0, loc)
	past, err := IsDatePast("2026-02-03", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if !past {
		t.Fatalf("expected date to be past")
	}

	past, err = IsDatePast("2026-02-04", loc, now)
	if err != nil {
		t.Fatalf("IsDatePast error: %v", err)
	}
	if past {
		t.Fatalf("expected date to be not past")
	}
}

func TestFilterOverlapping(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlots("2026-02-04", 60, loc)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	reserved := []Interval{NewInterval(at(loc, 10, 30), 30)}
	filtered := FilterOverlapping(slots, reserved)
	if len(filtered) != len(slots)-1 {
		t.Fatalf("expected one slot removed, got %v", Clocks(filtered, loc))
	}
	for _, c := range Clocks(filtered, loc) {
		if c == "10:00" {
			t.Fatalf("10:00 slot should be reserved: %v", Clocks(filtered, loc))
		}
	}
}

func TestFilterPast(t *testing.T) {
	loc := mustLoadLoc(t)
	slots, err := GenerateSlots("2026-02-04", 60, loc)
	if err != nil {
		t.Fatalf("GenerateSlots error: %v", err)
	}
	filtered := FilterPast(slots, at(loc, 10, 0))
	clocks := Clocks(filtered, loc)
	if len(clocks) == 0 || clocks[0] != "11:00" {
		t.Fatalf("expected first future slot 11:00, got %v", clocks)
	}
}

func TestDayBounds(t *testing.T) {
	loc := mustLoadLoc(t)
	b := DayBounds(at(loc, 15, 30), loc)
	if b.Start.Hour() != 0 || b.End.Sub(b.Start) != 24*time.Hour {
		t.Fatalf("unexpected bounds: %v", b)
	}
}
