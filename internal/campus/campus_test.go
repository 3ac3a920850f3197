package campus

import (
	"testing"
	"time"
)

func clock(hour, minute int) time.Time {
	// The date is deliberately arbitrary; only the clock time participates
	// in window matching.
	return time.Date(2003, time.July, 9, hour, minute, 0, 0, time.UTC)
}

func TestDayName(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "sunday", at: time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC), want: "Sunday"},
		{name: "monday", at: time.Date(2025, 9, 8, 10, 0, 0, 0, time.UTC), want: "Monday"},
		{name: "saturday", at: time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC), want: "Saturday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayName(tt.at); got != tt.want {
				t.Errorf("DayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidDay(t *testing.T) {
	for _, d := range WeekDays {
		if !ValidDay(d) {
			t.Errorf("ValidDay(%q) = false, want true", d)
		}
	}
	for _, d := range []string{"", "monday", "Funday", "Mon"} {
		if ValidDay(d) {
			t.Errorf("ValidDay(%q) = true, want false", d)
		}
	}
}

func TestWindowContains(t *testing.T) {
	start, end := clock(9, 0), clock(10, 30)
	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "middle of class", at: clock(9, 45), want: true},
		{name: "exactly at start", at: clock(9, 0), want: true},
		{name: "exactly at end", at: clock(10, 30), want: true},
		{name: "one minute early", at: clock(8, 59), want: false},
		{name: "one minute late", at: clock(10, 31), want: false},
		{name: "different stored date still matches", at: time.Date(2031, 1, 1, 9, 45, 0, 0, time.UTC), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowContains(start, end, tt.at); got != tt.want {
				t.Errorf("windowContains(09:00, 10:30, %s) = %v, want %v", tt.at.Format("15:04"), got, tt.want)
			}
		})
	}
}

func TestWindowsOverlap(t *testing.T) {
	tests := []struct {
		name             string
		newStart, newEnd time.Time
		oldStart, oldEnd time.Time
		want             bool
	}{
		{name: "new starts during existing", newStart: clock(9, 30), newEnd: clock(11, 0), oldStart: clock(9, 0), oldEnd: clock(10, 0), want: true},
		{name: "new ends during existing", newStart: clock(8, 0), newEnd: clock(9, 30), oldStart: clock(9, 0), oldEnd: clock(10, 0), want: true},
		{name: "new contains existing", newStart: clock(8, 0), newEnd: clock(11, 0), oldStart: clock(9, 0), oldEnd: clock(10, 0), want: true},
		{name: "identical slots", newStart: clock(9, 0), newEnd: clock(10, 0), oldStart: clock(9, 0), oldEnd: clock(10, 0), want: true},
		{name: "back to back after", newStart: clock(10, 0), newEnd: clock(11, 0), oldStart: clock(9, 0), oldEnd: clock(10, 0), want: false},
		{name: "back to back before", newStart: clock(8, 0), newEnd: clock(9, 0), oldStart: clock(9, 0), oldEnd: clock(10, 0), want: false},
		{name: "fully disjoint", newStart: clock(14, 0), newEnd: clock(15, 0), oldStart: clock(9, 0), oldEnd: clock(10, 0), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := windowsOverlap(tt.newStart, tt.newEnd, tt.oldStart, tt.oldEnd); got != tt.want {
				t.Errorf("windowsOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFindClash(t *testing.T) {
	existing := []TimetableEntry{
		{ID: "a", StartTime: clock(9, 0), EndTime: clock(10, 0), CourseCode: "CS101"},
		{ID: "b", StartTime: clock(11, 0), EndTime: clock(12, 0), CourseCode: "CS102"},
	}
	if clash := findClash(TimetableEntry{StartTime: clock(10, 0), EndTime: clock(11, 0)}, existing); clash != nil {
		t.Errorf("back-to-back slot reported clash with %s", clash.ID)
	}
	clash := findClash(TimetableEntry{StartTime: clock(11, 30), EndTime: clock(12, 30)}, existing)
	if clash == nil || clash.ID != "b" {
		t.Errorf("expected clash with entry b, got %+v", clash)
	}
}

func TestValidateRoom(t *testing.T) {
	base := Room{RoomNumber: "A-101", Building: "Main", Floor: "1", ScannerID: "SCN-1", Latitude: 28.6139, Longitude: 77.2090}

	t.Run("radius defaults to 50", func(t *testing.T) {
		room := base
		if err := validateRoom(&room); err != nil {
			t.Fatalf("validateRoom() error = %v", err)
		}
		if room.GeofenceRadiusM != DefaultGeofenceRadiusM {
			t.Errorf("radius = %v, want %v", room.GeofenceRadiusM, DefaultGeofenceRadiusM)
		}
	})

	t.Run("negative radius rejected", func(t *testing.T) {
		room := base
		room.GeofenceRadiusM = -5
		if err := validateRoom(&room); err == nil {
			t.Error("expected error for negative radius")
		}
	})

	t.Run("out of range latitude rejected", func(t *testing.T) {
		room := base
		room.Latitude = 95
		if err := validateRoom(&room); err == nil {
			t.Error("expected error for latitude 95")
		}
	})

	t.Run("missing scanner rejected", func(t *testing.T) {
		room := base
		room.ScannerID = ""
		if err := validateRoom(&room); err == nil {
			t.Error("expected error for missing scanner_id")
		}
	})
}
