// Package campus manages rooms, courses and the weekly timetable, and
// answers the one question the attendance flow asks of it: which class, if
// any, is scheduled in a room at a given instant.
package campus

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a room, course or timetable entry does
	// not exist.
	ErrNotFound = errors.New("campus: not found")
	// ErrConflict is returned when a uniqueness or overlap constraint is
	// violated.
	ErrConflict = errors.New("campus: conflict")
)

// DefaultGeofenceRadiusM is applied when a room is created without an
// explicit radius.
const DefaultGeofenceRadiusM = 50.0

// Room is a physical classroom with a fixed RFID scanner and a geofence.
type Room struct {
	ID              string    `json:"id"`
	RoomNumber      string    `json:"room_number"`
	Building        string    `json:"building"`
	Floor           string    `json:"floor"`
	ScannerID       string    `json:"scanner_id"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	GeofenceRadiusM float64   `json:"geofence_radius"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Course is the subject taught in a timetable slot.
type Course struct {
	ID             string    `json:"id"`
	CourseCode     string    `json:"course_code"`
	CourseName     string    `json:"course_name"`
	InstructorName string    `json:"instructor_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// TimetableEntry is a recurring weekly slot: a course occupies a room on one
// weekday between two times of day. StartTime and EndTime carry a literal
// date that is ignored at match time; only the clock time is meaningful.
type TimetableEntry struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	CourseID  string    `json:"course_id"`
	Day       string    `json:"day"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	// Joined for display; empty on bare reads.
	CourseCode     string `json:"course_code,omitempty"`
	CourseName     string `json:"course_name,omitempty"`
	InstructorName string `json:"instructor_name,omitempty"`
	RoomNumber     string `json:"room_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// WeekDays lists the seven valid day values, indexed Sunday=0 through
// Saturday=6 to line up with time.Weekday.
var WeekDays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ValidDay reports whether day is one of the seven literal day names.
func ValidDay(day string) bool {
	for _, d := range WeekDays {
		if d == day {
			return true
		}
	}
	return false
}

// DayName maps an instant to its literal weekday name.
func DayName(at time.Time) string {
	return WeekDays[int(at.Weekday())]
}

// minuteOfDay flattens an instant to minutes since midnight, discarding the
// date component entirely.
func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// windowContains reports whether at's time of day falls inside [start, end],
// inclusive on both ends.
func windowContains(start, end, at time.Time) bool {
	m := minuteOfDay(at)
	return minuteOfDay(start) <= m && m <= minuteOfDay(end)
}

// windowsOverlap applies the three-way overlap test on clock times: a new
// slot conflicts with an existing one if it starts during it, ends during
// it, or fully contains it.
func windowsOverlap(newStart, newEnd, oldStart, oldEnd time.Time) bool {
	ns, ne := minuteOfDay(newStart), minuteOfDay(newEnd)
	es, ee := minuteOfDay(oldStart), minuteOfDay(oldEnd)
	switch {
	case es <= ns && ns < ee: // new starts during existing
		return true
	case es < ne && ne <= ee: // new ends during existing
		return true
	case ns <= es && ee <= ne: // new contains existing
		return true
	}
	return false
}
