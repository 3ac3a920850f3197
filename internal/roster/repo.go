// Package roster holds student identity records: who can log in, which RFID
// card maps to whom, and whether the student is still active.
package roster

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"campusattend/internal/store"
)

var (
	// ErrNotFound is returned when no student matches the key.
	ErrNotFound = errors.New("roster: student not found")
	// ErrConflict is returned when an enrollment or card number is already
	// taken.
	ErrConflict = errors.New("roster: conflict")
)

// Student is an identity record. CardNumber is optional; when present it is
// unique across active and inactive students alike.
type Student struct {
	ID           string    `json:"id"`
	EnrollNumber string    `json:"enroll_number"`
	Name         string    `json:"name"`
	CardNumber   string    `json:"card_number,omitempty"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository persists students in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const studentColumns = `id, enroll_number, name, COALESCE(card_number, ''), password_hash, is_active, is_admin, created_at, updated_at`

// Insert writes a new student. An empty card number is stored as NULL so the
// partial unique index only bites on real card assignments.
func (r *Repository) Insert(ctx context.Context, s Student) (Student, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO students (id, enroll_number, name, card_number, password_hash, is_active, is_admin)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at
	`, s.ID, s.EnrollNumber, s.Name, nullable(s.CardNumber), s.PasswordHash, s.IsActive, s.IsAdmin)
	if err := row.Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		if store.IsUniqueViolation(err) {
			return Student{}, fmt.Errorf("enrollment or card number already in use: %w", ErrConflict)
		}
		return Student{}, err
	}
	return s, nil
}

// Update overwrites a student's mutable fields. The password hash is only
// replaced when non-empty.
func (r *Repository) Update(ctx context.Context, s Student) (Student, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE students
		SET name = $2, card_number = $3,
		    password_hash = CASE WHEN $4 = '' THEN password_hash ELSE $4 END,
		    is_active = $5, is_admin = $6, updated_at = NOW()
		WHERE enroll_number = $1
		RETURNING id, created_at, updated_at
	`, s.EnrollNumber, s.Name, nullable(s.CardNumber), s.PasswordHash, s.IsActive, s.IsAdmin)
	if err := row.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Student{}, ErrNotFound
		}
		if store.IsUniqueViolation(err) {
			return Student{}, fmt.Errorf("card number already in use: %w", ErrConflict)
		}
		return Student{}, err
	}
	return s, nil
}

// Delete removes a student by enrollment number.
func (r *Repository) Delete(ctx context.Context, enrollNumber string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE enroll_number = $1`, enrollNumber)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByEnroll returns a student by enrollment number.
func (r *Repository) GetByEnroll(ctx context.Context, enrollNumber string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE enroll_number = $1`, enrollNumber)
	return scanStudent(row)
}

// GetByCard returns a student by card number.
func (r *Repository) GetByCard(ctx context.Context, cardNumber string) (Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE card_number = $1`, cardNumber)
	return scanStudent(row)
}

// List returns all students ordered by enrollment number.
func (r *Repository) List(ctx context.Context) ([]Student, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+studentColumns+` FROM students ORDER BY enroll_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.EnrollNumber, &s.Name, &s.CardNumber, &s.PasswordHash,
		&s.IsActive, &s.IsAdmin, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Student{}, ErrNotFound
	}
	if err != nil {
		return Student{}, err
	}
	return s, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
