package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/store"
)

// ErrAlreadyMarked is returned when the student already has a ledger entry
// for the calendar date. It is a terminal outcome of the flow, not a fault.
var ErrAlreadyMarked = errors.New("attendance: already marked for this date")

// Entry is one confirmed attendance mark: a student was verified present in
// a room on a UTC calendar date.
type Entry struct {
	EnrollNumber     string    `json:"enroll_number"`
	Date             time.Time `json:"date"`
	RoomID           string    `json:"room_id"`
	LocationVerified bool      `json:"location_verified"`
	MarkedAt         time.Time `json:"marked_at"`
}

// PunchRecord is the durable audit row written at scan ingestion, before any
// verification has happened.
type PunchRecord struct {
	ID           string    `json:"id"`
	EnrollNumber string    `json:"enroll_number"`
	CardNumber   string    `json:"card_number"`
	RoomID       string    `json:"room_id"`
	ScannerID    string    `json:"scanner_id"`
	Date         time.Time `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}

// Summary aggregates one student's ledger for listing.
type Summary struct {
	EnrollNumber string  `json:"enroll_number"`
	PresentDates []Entry `json:"entries"`
	TotalPresent int     `json:"total_present"`
}

// DateUTC truncates an instant to midnight UTC. Every stored or compared
// ledger date goes through this so "one entry per day" stays well-defined.
func DateUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Repository persists the attendance ledger and punch audit rows in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// InsertMark appends a ledger entry. The (enroll_number, date) unique index
// makes the daily idempotency check atomic: a duplicate insert fails at the
// storage layer and maps to ErrAlreadyMarked, so no racy pre-read is needed.
func (r *Repository) InsertMark(ctx context.Context, e Entry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_entries (enroll_number, date, room_id, location_verified, marked_at)
		VALUES ($1,$2,$3,$4,$5)
	`, e.EnrollNumber, DateUTC(e.Date), e.RoomID, e.LocationVerified, e.MarkedAt)
	if store.IsUniqueViolation(err) {
		return ErrAlreadyMarked
	}
	return err
}

// ListMarks returns a student's ledger entries, newest first.
func (r *Repository) ListMarks(ctx context.Context, enrollNumber string) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT enroll_number, date, room_id, location_verified, marked_at
		FROM attendance_entries
		WHERE enroll_number = $1
		ORDER BY date DESC
	`, enrollNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EnrollNumber, &e.Date, &e.RoomID, &e.LocationVerified, &e.MarkedAt); err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

// ListSummaries returns every student's ledger rolled up for the admin view.
func (r *Repository) ListSummaries(ctx context.Context) ([]Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT enroll_number, date, room_id, location_verified, marked_at
		FROM attendance_entries
		ORDER BY enroll_number, date DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Summary
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.EnrollNumber, &e.Date, &e.RoomID, &e.LocationVerified, &e.MarkedAt); err != nil {
			return nil, err
		}
		if len(res) == 0 || res[len(res)-1].EnrollNumber != e.EnrollNumber {
			res = append(res, Summary{EnrollNumber: e.EnrollNumber})
		}
		last := &res[len(res)-1]
		last.PresentDates = append(last.PresentDates, e)
		last.TotalPresent++
	}
	return res, rows.Err()
}

// InsertPunchRecord writes the audit row for a scan.
func (r *Repository) InsertPunchRecord(ctx context.Context, p PunchRecord) (PunchRecord, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO punch_records (id, enroll_number, card_number, room_id, scanner_id, date)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, p.ID, p.EnrollNumber, p.CardNumber, p.RoomID, p.ScannerID, DateUTC(p.Date))
	if err := row.Scan(&p.CreatedAt); err != nil {
		return PunchRecord{}, err
	}
	return p, nil
}

// RecentPunchRecords returns a student's latest scans, newest first.
func (r *Repository) RecentPunchRecords(ctx context.Context, enrollNumber string, limit int) ([]PunchRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, enroll_number, card_number, room_id, scanner_id, date, created_at
		FROM punch_records
		WHERE enroll_number = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, enrollNumber, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []PunchRecord
	for rows.Next() {
		var p PunchRecord
		if err := rows.Scan(&p.ID, &p.EnrollNumber, &p.CardNumber, &p.RoomID, &p.ScannerID, &p.Date, &p.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}
