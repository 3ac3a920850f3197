package attendance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"campusattend/internal/campus"
)

type fakeRooms struct {
	byID      map[string]campus.Room
	byScanner map[string]campus.Room
}

func (f *fakeRooms) GetRoom(_ context.Context, id string) (campus.Room, error) {
	room, ok := f.byID[id]
	if !ok {
		return campus.Room{}, campus.ErrNotFound
	}
	return room, nil
}

func (f *fakeRooms) GetRoomByScanner(_ context.Context, scannerID string) (campus.Room, error) {
	room, ok := f.byScanner[scannerID]
	if !ok {
		return campus.Room{}, campus.ErrNotFound
	}
	return room, nil
}

type fakeScheduler struct {
	entries map[string]*campus.TimetableEntry // room id -> active class, nil means none
}

func (f *fakeScheduler) FindActiveClass(_ context.Context, roomID string, _ time.Time) (*campus.TimetableEntry, error) {
	return f.entries[roomID], nil
}

// Room at Connaught Place with the default 50m fence; a second set of
// coordinates roughly 200m north of it.
const (
	roomLat = 28.6139
	roomLon = 77.2090

	farLat = 28.6157
	farLon = 77.2090
)

func testEvaluator(activeClass *campus.TimetableEntry) *Evaluator {
	rooms := &fakeRooms{byID: map[string]campus.Room{
		"room-1": {ID: "room-1", RoomNumber: "A-101", Latitude: roomLat, Longitude: roomLon, GeofenceRadiusM: 50},
	}}
	sched := &fakeScheduler{entries: map[string]*campus.TimetableEntry{"room-1": activeClass}}
	return NewEvaluator(rooms, sched)
}

func TestEvaluateEligible(t *testing.T) {
	class := &campus.TimetableEntry{ID: "tt-1", CourseCode: "CS101"}
	result, err := testEvaluator(class).Evaluate(context.Background(), "room-1", roomLat, roomLon, time.Now())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !result.Eligible || !result.LocationVerified || !result.WithinClassTime {
		t.Errorf("Evaluate() = %+v, want fully eligible", result)
	}
	if result.DistanceMeters != 0 {
		t.Errorf("distance = %d, want 0", result.DistanceMeters)
	}
	if result.Reason != "" {
		t.Errorf("reason = %q, want empty on eligible result", result.Reason)
	}
	if result.ScheduledClass == nil || result.ScheduledClass.ID != "tt-1" {
		t.Errorf("scheduled class = %+v, want tt-1", result.ScheduledClass)
	}
}

func TestEvaluateOutOfRange(t *testing.T) {
	class := &campus.TimetableEntry{ID: "tt-1"}
	result, err := testEvaluator(class).Evaluate(context.Background(), "room-1", farLat, farLon, time.Now())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Eligible || result.LocationVerified {
		t.Errorf("Evaluate() 200m out = %+v, want location rejection", result)
	}
	if !result.WithinClassTime {
		t.Error("within_class_time = false, want true (class is scheduled)")
	}
	if result.DistanceMeters <= 50 {
		t.Errorf("distance = %dm, expected well past the 50m fence", result.DistanceMeters)
	}
	if !strings.Contains(result.Reason, "geofence: 50m") {
		t.Errorf("reason = %q, want mention of the 50m geofence", result.Reason)
	}
}

func TestEvaluateNoClassScheduled(t *testing.T) {
	result, err := testEvaluator(nil).Evaluate(context.Background(), "room-1", roomLat, roomLon, time.Now())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if result.Eligible || result.WithinClassTime {
		t.Errorf("Evaluate() with empty schedule = %+v, want schedule rejection", result)
	}
	if !result.LocationVerified {
		t.Error("location_verified = false, want true")
	}
	if result.Reason != "no scheduled class at this time" {
		t.Errorf("reason = %q", result.Reason)
	}
}

func TestEvaluateLocationReasonWinsWhenBothFail(t *testing.T) {
	result, err := testEvaluator(nil).Evaluate(context.Background(), "room-1", farLat, farLon, time.Now())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if !strings.Contains(result.Reason, "away from room") {
		t.Errorf("reason = %q, want the location reason to take precedence", result.Reason)
	}
}

func TestEvaluateRoomNotFound(t *testing.T) {
	_, err := testEvaluator(nil).Evaluate(context.Background(), "room-missing", roomLat, roomLon, time.Now())
	if !errors.Is(err, campus.ErrNotFound) {
		t.Errorf("Evaluate() error = %v, want campus.ErrNotFound", err)
	}
}
