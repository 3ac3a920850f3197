package roster

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInactive is returned when a known student is flagged inactive. Callers
// treat it as a distinct negative from ErrNotFound.
var ErrInactive = errors.New("roster: student inactive")

// ErrBadCredentials is returned on login with a wrong password.
var ErrBadCredentials = errors.New("roster: bad credentials")

// Service validates and authenticates students.
type Service struct {
	repo *Repository
}

// NewService creates a service backed by a repository.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Create hashes the password and persists a new student. New students are
// active unless the caller says otherwise.
func (s *Service) Create(ctx context.Context, st Student, password string) (Student, error) {
	if st.EnrollNumber == "" || st.Name == "" {
		return Student{}, errors.New("enroll_number and name are required")
	}
	if password == "" {
		return Student{}, errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Student{}, err
	}
	st.PasswordHash = string(hash)
	return s.repo.Insert(ctx, st)
}

// Update overwrites a student; password is changed only when non-empty.
func (s *Service) Update(ctx context.Context, st Student, password string) (Student, error) {
	if st.EnrollNumber == "" {
		return Student{}, errors.New("enroll_number is required")
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return Student{}, err
		}
		st.PasswordHash = string(hash)
	} else {
		st.PasswordHash = ""
	}
	return s.repo.Update(ctx, st)
}

// Delete removes a student.
func (s *Service) Delete(ctx context.Context, enrollNumber string) error {
	return s.repo.Delete(ctx, enrollNumber)
}

// List returns all students.
func (s *Service) List(ctx context.Context) ([]Student, error) {
	return s.repo.List(ctx)
}

// GetByEnroll returns a student by enrollment number.
func (s *Service) GetByEnroll(ctx context.Context, enrollNumber string) (Student, error) {
	return s.repo.GetByEnroll(ctx, enrollNumber)
}

// ActiveByCard resolves a card swipe to an active student. A known but
// inactive student returns ErrInactive so scan ingestion can reject the
// punch before anything is queued.
func (s *Service) ActiveByCard(ctx context.Context, cardNumber string) (Student, error) {
	st, err := s.repo.GetByCard(ctx, cardNumber)
	if err != nil {
		return Student{}, err
	}
	if !st.IsActive {
		return Student{}, ErrInactive
	}
	return st, nil
}

// Authenticate checks an enrollment number + password pair for login.
func (s *Service) Authenticate(ctx context.Context, enrollNumber, password string) (Student, error) {
	st, err := s.repo.GetByEnroll(ctx, enrollNumber)
	if err != nil {
		return Student{}, err
	}
	if !st.IsActive {
		return Student{}, ErrInactive
	}
	if bcrypt.CompareHashAndPassword([]byte(st.PasswordHash), []byte(password)) != nil {
		return Student{}, ErrBadCredentials
	}
	return st, nil
}
