package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusattend/internal/campus"
	"campusattend/internal/metrics"
	"campusattend/internal/punchqueue"
	"campusattend/internal/roster"
)

// ErrNoPending is returned when a student submits a location with no live
// claim in the queue. Distinct from an eligibility rejection: the student
// has to be re-scanned, not just move closer.
var ErrNoPending = errors.New("attendance: no pending request")

// StudentDirectory resolves card swipes to active students.
type StudentDirectory interface {
	ActiveByCard(ctx context.Context, cardNumber string) (roster.Student, error)
}

// Ledger is the write side of attendance storage the flow depends on.
type Ledger interface {
	InsertMark(ctx context.Context, e Entry) error
	InsertPunchRecord(ctx context.Context, p PunchRecord) (PunchRecord, error)
}

// Verification status values. Marked and AlreadyMarked are success-shaped;
// Rejected carries the eligibility payload explaining why.
const (
	StatusMarked        = "marked"
	StatusAlreadyMarked = "already_marked"
	StatusRejected      = "rejected"
)

// VerifyResult is the terminal outcome of one location submission.
type VerifyResult struct {
	Status      string      `json:"status"`
	Eligibility Eligibility `json:"eligibility"`
	Entry       *Entry      `json:"entry,omitempty"`
}

// IngestResult summarizes a successfully queued scan.
type IngestResult struct {
	Student roster.Student   `json:"student"`
	Room    campus.Room      `json:"room"`
	Claim   punchqueue.Claim `json:"claim"`
	Record  PunchRecord      `json:"record"`
}

// Service drives the attendance state machine: scan ingestion creates a
// claim, the student's later location submission consumes it.
type Service struct {
	rooms     RoomDirectory
	students  StudentDirectory
	evaluator *Evaluator
	queue     punchqueue.Queue
	ledger    Ledger
	ttl       time.Duration
	now       func() time.Time
}

// NewService wires the flow's collaborators together.
func NewService(rooms RoomDirectory, students StudentDirectory, evaluator *Evaluator, queue punchqueue.Queue, ledger Ledger, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = punchqueue.DefaultTTL
	}
	return &Service{
		rooms:     rooms,
		students:  students,
		evaluator: evaluator,
		queue:     queue,
		ledger:    ledger,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Ingest handles a raw scanner event: resolve the room by scanner id and the
// student by card number, write the audit row, and stage a claim for the
// student to confirm. A missing room or student, or an inactive student,
// fails this call only; nothing is queued.
func (s *Service) Ingest(ctx context.Context, cardNumber, scannerID string) (IngestResult, error) {
	room, err := s.rooms.GetRoomByScanner(ctx, scannerID)
	if err != nil {
		return IngestResult{}, fmt.Errorf("scanner %s: %w", scannerID, err)
	}
	student, err := s.students.ActiveByCard(ctx, cardNumber)
	if err != nil {
		return IngestResult{}, err
	}

	now := s.now()
	record, err := s.ledger.InsertPunchRecord(ctx, PunchRecord{
		EnrollNumber: student.EnrollNumber,
		CardNumber:   cardNumber,
		RoomID:       room.ID,
		ScannerID:    scannerID,
		Date:         now,
	})
	if err != nil {
		return IngestResult{}, err
	}

	claim := punchqueue.Claim{
		EnrollNumber: student.EnrollNumber,
		CardNumber:   cardNumber,
		RoomID:       room.ID,
		ScannerID:    scannerID,
		Timestamp:    now.UnixMilli(),
	}
	if err := s.queue.Enqueue(ctx, claim); err != nil {
		return IngestResult{}, err
	}

	metrics.PunchesIngested.Inc()
	return IngestResult{Student: student, Room: room, Claim: claim, Record: record}, nil
}

// Pending returns the student's live claim together with its remaining
// lifetime, or ErrNoPending.
func (s *Service) Pending(ctx context.Context, enrollNumber string) (punchqueue.Claim, time.Duration, error) {
	claim, err := s.queue.Peek(ctx, enrollNumber)
	if err != nil {
		return punchqueue.Claim{}, 0, err
	}
	if claim == nil {
		return punchqueue.Claim{}, 0, ErrNoPending
	}
	return *claim, claim.ExpiresIn(s.now(), s.ttl), nil
}

// Verify consumes a pending claim with a location submission.
//
// An ineligible result keeps the claim so the student can move closer and
// retry within the TTL. On the eligible path the ledger insert decides:
// a fresh date marks attendance and removes the claim; an already-marked
// date removes the claim too (the scan has nothing left to confirm) and
// reports the conflict as its own outcome.
func (s *Service) Verify(ctx context.Context, enrollNumber string, lat, lon float64) (VerifyResult, error) {
	claim, err := s.queue.Peek(ctx, enrollNumber)
	if err != nil {
		return VerifyResult{}, err
	}
	if claim == nil {
		metrics.Verifications.WithLabelValues("no_pending").Inc()
		return VerifyResult{}, ErrNoPending
	}

	now := s.now()
	eligibility, err := s.evaluator.Evaluate(ctx, claim.RoomID, lat, lon, now)
	if err != nil {
		return VerifyResult{}, err
	}
	if !eligibility.Eligible {
		metrics.Verifications.WithLabelValues(StatusRejected).Inc()
		return VerifyResult{Status: StatusRejected, Eligibility: eligibility}, nil
	}

	entry := Entry{
		EnrollNumber:     enrollNumber,
		Date:             DateUTC(now),
		RoomID:           claim.RoomID,
		LocationVerified: true,
		MarkedAt:         now,
	}
	switch err := s.ledger.InsertMark(ctx, entry); {
	case errors.Is(err, ErrAlreadyMarked):
		// Stale claim for a day that is already settled; clean it up so the
		// student is not stuck in Pending.
		_, _ = s.queue.Remove(ctx, enrollNumber)
		metrics.Verifications.WithLabelValues(StatusAlreadyMarked).Inc()
		return VerifyResult{Status: StatusAlreadyMarked, Eligibility: eligibility}, nil
	case err != nil:
		return VerifyResult{}, err
	}

	if _, err := s.queue.Remove(ctx, enrollNumber); err != nil {
		return VerifyResult{}, err
	}
	metrics.Verifications.WithLabelValues(StatusMarked).Inc()
	return VerifyResult{Status: StatusMarked, Eligibility: eligibility, Entry: &entry}, nil
}
