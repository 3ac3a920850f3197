// Package attendance implements the verification core: deciding whether a
// pending punch plus a submitted location becomes a confirmed attendance
// mark, and keeping the per-student ledger of present dates.
package attendance

import (
	"context"
	"fmt"
	"math"
	"time"

	"campusattend/internal/campus"
	"campusattend/internal/geo"
)

// RoomDirectory is the read side of room storage the evaluator depends on.
type RoomDirectory interface {
	GetRoom(ctx context.Context, id string) (campus.Room, error)
	GetRoomByScanner(ctx context.Context, scannerID string) (campus.Room, error)
}

// Scheduler answers "which class is in this room right now".
type Scheduler interface {
	FindActiveClass(ctx context.Context, roomID string, at time.Time) (*campus.TimetableEntry, error)
}

// Eligibility is the structured outcome of one verification check. Reason is
// populated only when ineligible; a failed location check takes precedence
// over a failed schedule check.
type Eligibility struct {
	Eligible         bool                   `json:"eligible"`
	LocationVerified bool                   `json:"location_verified"`
	WithinClassTime  bool                   `json:"within_class_time"`
	DistanceMeters   int                    `json:"distance"`
	ScheduledClass   *campus.TimetableEntry `json:"scheduled_class"`
	Reason           string                 `json:"reason,omitempty"`
}

// Evaluator composes the geofence check and the schedule lookup into one
// eligibility decision. It reads and never writes; calling it twice with the
// same inputs is harmless.
type Evaluator struct {
	rooms     RoomDirectory
	scheduler Scheduler
}

// NewEvaluator creates an evaluator.
func NewEvaluator(rooms RoomDirectory, scheduler Scheduler) *Evaluator {
	return &Evaluator{rooms: rooms, scheduler: scheduler}
}

// Evaluate checks whether a student standing at (lat, lon) at instant now is
// eligible to be marked present in the given room. A missing room is fatal
// to the call and surfaces as campus.ErrNotFound.
func (e *Evaluator) Evaluate(ctx context.Context, roomID string, lat, lon float64, now time.Time) (Eligibility, error) {
	room, err := e.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("room lookup: %w", err)
	}

	distance := geo.DistanceMeters(room.Latitude, room.Longitude, lat, lon)
	locationOK := geo.WithinGeofence(distance, room.GeofenceRadiusM)

	scheduled, err := e.scheduler.FindActiveClass(ctx, roomID, now)
	if err != nil {
		return Eligibility{}, fmt.Errorf("schedule lookup: %w", err)
	}
	timeOK := scheduled != nil

	result := Eligibility{
		Eligible:         locationOK && timeOK,
		LocationVerified: locationOK,
		WithinClassTime:  timeOK,
		DistanceMeters:   int(math.Round(distance)),
		ScheduledClass:   scheduled,
	}
	switch {
	case !locationOK:
		result.Reason = fmt.Sprintf("student is %dm away from room (geofence: %.0fm)", result.DistanceMeters, room.GeofenceRadiusM)
	case !timeOK:
		result.Reason = "no scheduled class at this time"
	}
	return result, nil
}
