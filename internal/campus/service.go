package campus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusattend/internal/geo"
)

// Service validates campus writes and answers schedule lookups.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// CreateRoom validates coordinates and radius, then persists the room.
func (s *Service) CreateRoom(ctx context.Context, room Room) (Room, error) {
	if err := validateRoom(&room); err != nil {
		return Room{}, err
	}
	return s.repo.InsertRoom(ctx, room)
}

// UpdateRoom validates and overwrites an existing room.
func (s *Service) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	if room.ID == "" {
		return Room{}, errors.New("room id required")
	}
	if err := validateRoom(&room); err != nil {
		return Room{}, err
	}
	return s.repo.UpdateRoom(ctx, room)
}

func validateRoom(room *Room) error {
	if room.RoomNumber == "" || room.Building == "" || room.ScannerID == "" {
		return errors.New("room_number, building and scanner_id are required")
	}
	if !geo.ValidCoordinates(room.Latitude, room.Longitude) {
		return errors.New("latitude must be in [-90,90] and longitude in [-180,180]")
	}
	if room.GeofenceRadiusM == 0 {
		room.GeofenceRadiusM = DefaultGeofenceRadiusM
	}
	if room.GeofenceRadiusM <= 0 {
		return errors.New("geofence radius must be positive")
	}
	return nil
}

// CreateTimetable persists a new weekly slot after checking the room and
// course exist and the slot does not clash with an existing one in the same
// room on the same day.
//
// The read-then-insert here is not transactional; two concurrent creates can
// in principle both pass the check. Admin timetable edits are rare and
// human-paced, so this matches the tolerance of the rest of the system.
func (s *Service) CreateTimetable(ctx context.Context, e TimetableEntry) (TimetableEntry, error) {
	if e.RoomID == "" || e.CourseID == "" {
		return TimetableEntry{}, errors.New("room_id and course_id are required")
	}
	if !ValidDay(e.Day) {
		return TimetableEntry{}, errors.New("day must be one of Sunday..Saturday")
	}
	if !e.StartTime.Before(e.EndTime) {
		return TimetableEntry{}, errors.New("start time must be before end time")
	}
	if _, err := s.repo.GetRoom(ctx, e.RoomID); err != nil {
		return TimetableEntry{}, fmt.Errorf("room lookup: %w", err)
	}
	if _, err := s.repo.GetCourse(ctx, e.CourseID); err != nil {
		return TimetableEntry{}, fmt.Errorf("course lookup: %w", err)
	}

	existing, err := s.repo.ListEntriesForRoomDay(ctx, e.RoomID, e.Day)
	if err != nil {
		return TimetableEntry{}, err
	}
	if clash := findClash(e, existing); clash != nil {
		return TimetableEntry{}, fmt.Errorf("slot clashes with %s %s: %w", clash.CourseCode, clash.Day, ErrConflict)
	}
	return s.repo.InsertEntry(ctx, e)
}

// findClash returns the first existing entry whose clock-time window
// overlaps the candidate's, or nil.
func findClash(candidate TimetableEntry, existing []TimetableEntry) *TimetableEntry {
	for i := range existing {
		if windowsOverlap(candidate.StartTime, candidate.EndTime, existing[i].StartTime, existing[i].EndTime) {
			return &existing[i]
		}
	}
	return nil
}

// FindActiveClass returns the timetable entry covering the given instant in
// the given room, or nil when no class is scheduled then. A nil result is a
// valid negative, not an error: the eligibility evaluator consumes it as
// "outside class time".
func (s *Service) FindActiveClass(ctx context.Context, roomID string, at time.Time) (*TimetableEntry, error) {
	entries, err := s.repo.ListEntriesForRoomDay(ctx, roomID, DayName(at))
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if windowContains(entries[i].StartTime, entries[i].EndTime, at) {
			return &entries[i], nil
		}
	}
	return nil, nil
}
