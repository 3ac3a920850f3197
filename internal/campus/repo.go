package campus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"campusattend/internal/store"
)

// Repository persists rooms, courses and timetable entries in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ---------- Rooms ----------

// InsertRoom writes a new room. Uniqueness of room_number and scanner_id is
// carried by indexes; violations surface as ErrConflict.
func (r *Repository) InsertRoom(ctx context.Context, room Room) (Room, error) {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO rooms (id, room_number, building, floor, scanner_id, latitude, longitude, geofence_radius_m)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, room.ID, room.RoomNumber, room.Building, room.Floor, room.ScannerID, room.Latitude, room.Longitude, room.GeofenceRadiusM)
	if err := row.Scan(&room.CreatedAt, &room.UpdatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Room{}, fmt.Errorf("room number or scanner id already in use: %w", ErrConflict)
		}
		return Room{}, err
	}
	return room, nil
}

// UpdateRoom overwrites a room's mutable fields.
func (r *Repository) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE rooms
		SET room_number = $2, building = $3, floor = $4, scanner_id = $5,
		    latitude = $6, longitude = $7, geofence_radius_m = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`, room.ID, room.RoomNumber, room.Building, room.Floor, room.ScannerID, room.Latitude, room.Longitude, room.GeofenceRadiusM)
	if err := row.Scan(&room.CreatedAt, &room.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Room{}, ErrNotFound
		}
		if store.IsUniqueViolation(err) {
			return Room{}, fmt.Errorf("room number or scanner id already in use: %w", ErrConflict)
		}
		return Room{}, err
	}
	return room, nil
}

// DeleteRoom removes a room and its timetable entries.
func (r *Repository) DeleteRoom(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const roomColumns = `id, room_number, building, floor, scanner_id, latitude, longitude, geofence_radius_m, created_at, updated_at`

// GetRoom returns a room by id.
func (r *Repository) GetRoom(ctx context.Context, id string) (Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	return scanRoom(row)
}

// GetRoomByScanner returns the room owning a scanner.
func (r *Repository) GetRoomByScanner(ctx context.Context, scannerID string) (Room, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE scanner_id = $1`, scannerID)
	return scanRoom(row)
}

// ListRooms returns all rooms ordered by room number.
func (r *Repository) ListRooms(ctx context.Context) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY room_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, room)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (Room, error) {
	var room Room
	err := row.Scan(&room.ID, &room.RoomNumber, &room.Building, &room.Floor, &room.ScannerID,
		&room.Latitude, &room.Longitude, &room.GeofenceRadiusM, &room.CreatedAt, &room.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Room{}, ErrNotFound
	}
	if err != nil {
		return Room{}, err
	}
	return room, nil
}

// ---------- Courses ----------

// InsertCourse writes a new course.
func (r *Repository) InsertCourse(ctx context.Context, course Course) (Course, error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO courses (id, course_code, course_name, instructor_name)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, course.ID, course.CourseCode, course.CourseName, course.InstructorName)
	if err := row.Scan(&course.CreatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Course{}, fmt.Errorf("course code already in use: %w", ErrConflict)
		}
		return Course{}, err
	}
	return course, nil
}

// UpdateCourse overwrites a course.
func (r *Repository) UpdateCourse(ctx context.Context, course Course) (Course, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE courses SET course_code = $2, course_name = $3, instructor_name = $4
		WHERE id = $1
		RETURNING created_at
	`, course.ID, course.CourseCode, course.CourseName, course.InstructorName)
	if err := row.Scan(&course.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		if store.IsUniqueViolation(err) {
			return Course{}, fmt.Errorf("course code already in use: %w", ErrConflict)
		}
		return Course{}, err
	}
	return course, nil
}

// DeleteCourse removes a course.
func (r *Repository) DeleteCourse(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetCourse returns a course by id.
func (r *Repository) GetCourse(ctx context.Context, id string) (Course, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, course_code, course_name, instructor_name, created_at FROM courses WHERE id = $1
	`, id)
	var c Course
	if err := row.Scan(&c.ID, &c.CourseCode, &c.CourseName, &c.InstructorName, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// ListCourses returns all courses ordered by code.
func (r *Repository) ListCourses(ctx context.Context) ([]Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_code, course_name, instructor_name, created_at FROM courses ORDER BY course_code
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Course
	for rows.Next() {
		var c Course
		if err := rows.Scan(&c.ID, &c.CourseCode, &c.CourseName, &c.InstructorName, &c.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// ---------- Timetable ----------

// InsertEntry writes a new timetable entry. Overlap checking happens in the
// service before this call.
func (r *Repository) InsertEntry(ctx context.Context, e TimetableEntry) (TimetableEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO timetable_entries (id, room_id, course_id, day, start_time, end_time)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, e.ID, e.RoomID, e.CourseID, e.Day, e.StartTime, e.EndTime)
	if err := row.Scan(&e.CreatedAt); err != nil {
		return TimetableEntry{}, err
	}
	return e, nil
}

// DeleteEntry removes a timetable entry.
func (r *Repository) DeleteEntry(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const entryColumns = `t.id, t.room_id, t.course_id, t.day, t.start_time, t.end_time,
	c.course_code, c.course_name, c.instructor_name, r.room_number, t.created_at`

const entryJoins = `
	FROM timetable_entries t
	JOIN courses c ON c.id = t.course_id
	JOIN rooms r ON r.id = t.room_id`

// ListEntries returns timetable entries with optional room/course/day
// filters, joined with course and room display fields.
func (r *Repository) ListEntries(ctx context.Context, roomID, courseID, day string) ([]TimetableEntry, error) {
	query := `SELECT ` + entryColumns + entryJoins
	args := []any{}
	clauses := []string{}
	if roomID != "" {
		clauses = append(clauses, "t.room_id = $"+itoa(len(args)+1))
		args = append(args, roomID)
	}
	if courseID != "" {
		clauses = append(clauses, "t.course_id = $"+itoa(len(args)+1))
		args = append(args, courseID)
	}
	if day != "" {
		clauses = append(clauses, "t.day = $"+itoa(len(args)+1))
		args = append(args, day)
	}
	if len(clauses) > 0 {
		query += " WHERE " + joinClauses(clauses, " AND ")
	}
	query += " ORDER BY t.day, t.start_time"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

// ListEntriesForRoomDay returns all slots for one room on one weekday. The
// scheduler and the overlap check both narrow from this set in memory, where
// the time-of-day comparison lives.
func (r *Repository) ListEntriesForRoomDay(ctx context.Context, roomID, day string) ([]TimetableEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryColumns+entryJoins+`
		WHERE t.room_id = $1 AND t.day = $2
		ORDER BY t.start_time
	`, roomID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]TimetableEntry, error) {
	var res []TimetableEntry
	for rows.Next() {
		var e TimetableEntry
		if err := rows.Scan(&e.ID, &e.RoomID, &e.CourseID, &e.Day, &e.StartTime, &e.EndTime,
			&e.CourseCode, &e.CourseName, &e.InstructorName, &e.RoomNumber, &e.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
