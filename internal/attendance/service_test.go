package attendance

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"campusattend/internal/campus"
	"campusattend/internal/punchqueue"
	"campusattend/internal/roster"
)

type fakeStudents struct {
	byCard map[string]roster.Student
}

func (f *fakeStudents) ActiveByCard(_ context.Context, cardNumber string) (roster.Student, error) {
	st, ok := f.byCard[cardNumber]
	if !ok {
		return roster.Student{}, roster.ErrNotFound
	}
	if !st.IsActive {
		return roster.Student{}, roster.ErrInactive
	}
	return st, nil
}

type fakeLedger struct {
	marks   map[string]Entry
	punches []PunchRecord
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{marks: make(map[string]Entry)}
}

func (f *fakeLedger) InsertMark(_ context.Context, e Entry) error {
	key := e.EnrollNumber + "|" + DateUTC(e.Date).Format("2006-01-02")
	if _, ok := f.marks[key]; ok {
		return ErrAlreadyMarked
	}
	f.marks[key] = e
	return nil
}

func (f *fakeLedger) InsertPunchRecord(_ context.Context, p PunchRecord) (PunchRecord, error) {
	p.ID = fmt.Sprintf("pr-%d", len(f.punches)+1)
	f.punches = append(f.punches, p)
	return p, nil
}

type flowFixture struct {
	svc    *Service
	queue  *punchqueue.InMemory
	ledger *fakeLedger
}

func newFlowFixture(activeClass *campus.TimetableEntry) *flowFixture {
	rooms := &fakeRooms{
		byID: map[string]campus.Room{
			"room-1": {ID: "room-1", RoomNumber: "A-101", Building: "Main", ScannerID: "SCN-1", Latitude: roomLat, Longitude: roomLon, GeofenceRadiusM: 50},
		},
		byScanner: map[string]campus.Room{
			"SCN-1": {ID: "room-1", RoomNumber: "A-101", Building: "Main", ScannerID: "SCN-1", Latitude: roomLat, Longitude: roomLon, GeofenceRadiusM: 50},
		},
	}
	students := &fakeStudents{byCard: map[string]roster.Student{
		"CARD-A": {EnrollNumber: "EN-001", Name: "Asha", CardNumber: "CARD-A", IsActive: true},
		"CARD-B": {EnrollNumber: "EN-002", Name: "Bela", CardNumber: "CARD-B", IsActive: false},
	}}
	queue := punchqueue.NewInMemory(punchqueue.DefaultTTL)
	ledger := newFakeLedger()
	evaluator := NewEvaluator(rooms, &fakeScheduler{entries: map[string]*campus.TimetableEntry{"room-1": activeClass}})
	svc := NewService(rooms, students, evaluator, queue, ledger, punchqueue.DefaultTTL)
	return &flowFixture{svc: svc, queue: queue, ledger: ledger}
}

func TestHappyPath(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(&campus.TimetableEntry{ID: "tt-1", CourseCode: "CS101"})

	ingest, err := fx.svc.Ingest(ctx, "CARD-A", "SCN-1")
	if err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if ingest.Student.EnrollNumber != "EN-001" || ingest.Room.ID != "room-1" {
		t.Fatalf("Ingest() = %+v", ingest)
	}
	if len(fx.ledger.punches) != 1 {
		t.Fatalf("punch records = %d, want 1", len(fx.ledger.punches))
	}

	claim, remaining, err := fx.svc.Pending(ctx, "EN-001")
	if err != nil {
		t.Fatalf("Pending() error = %v", err)
	}
	if claim.RoomID != "room-1" || remaining <= 0 {
		t.Fatalf("Pending() = %+v remaining %s", claim, remaining)
	}

	result, err := fx.svc.Verify(ctx, "EN-001", roomLat, roomLon)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Status != StatusMarked {
		t.Errorf("status = %q, want %q", result.Status, StatusMarked)
	}
	if result.Entry == nil || !result.Entry.LocationVerified {
		t.Errorf("entry = %+v, want location-verified ledger entry", result.Entry)
	}
	if len(fx.ledger.marks) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(fx.ledger.marks))
	}
	if got, _ := fx.queue.Peek(ctx, "EN-001"); got != nil {
		t.Errorf("claim still in queue after mark: %+v", got)
	}
}

func TestVerifyOutOfRangeKeepsClaim(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(&campus.TimetableEntry{ID: "tt-1"})

	if _, err := fx.svc.Ingest(ctx, "CARD-A", "SCN-1"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}

	result, err := fx.svc.Verify(ctx, "EN-001", farLat, farLon)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Status != StatusRejected {
		t.Errorf("status = %q, want %q", result.Status, StatusRejected)
	}
	if result.Eligibility.LocationVerified {
		t.Error("location_verified = true, want false")
	}
	if len(fx.ledger.marks) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(fx.ledger.marks))
	}
	// The claim survives the rejection so the student can walk closer and
	// retry before the TTL runs out.
	if got, _ := fx.queue.Peek(ctx, "EN-001"); got == nil {
		t.Error("claim was removed on rejection, want retained")
	}
	retry, err := fx.svc.Verify(ctx, "EN-001", roomLat, roomLon)
	if err != nil {
		t.Fatalf("retry Verify() error = %v", err)
	}
	if retry.Status != StatusMarked {
		t.Errorf("retry status = %q, want %q", retry.Status, StatusMarked)
	}
}

func TestVerifyNoClassScheduled(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(nil)

	if _, err := fx.svc.Ingest(ctx, "CARD-A", "SCN-1"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	result, err := fx.svc.Verify(ctx, "EN-001", roomLat, roomLon)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if result.Status != StatusRejected || result.Eligibility.WithinClassTime {
		t.Errorf("result = %+v, want schedule rejection", result)
	}
	if len(fx.ledger.marks) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(fx.ledger.marks))
	}
}

func TestVerifyAlreadyMarkedRemovesClaim(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(&campus.TimetableEntry{ID: "tt-1"})

	// First scan and mark settles today.
	if _, err := fx.svc.Ingest(ctx, "CARD-A", "SCN-1"); err != nil {
		t.Fatalf("Ingest() error = %v", err)
	}
	if _, err := fx.svc.Verify(ctx, "EN-001", roomLat, roomLon); err != nil {
		t.Fatalf("first Verify() error = %v", err)
	}

	// Second scan the same day: verification reports the conflict and must
	// clean up the now-pointless claim.
	if _, err := fx.svc.Ingest(ctx, "CARD-A", "SCN-1"); err != nil {
		t.Fatalf("second Ingest() error = %v", err)
	}
	result, err := fx.svc.Verify(ctx, "EN-001", roomLat, roomLon)
	if err != nil {
		t.Fatalf("second Verify() error = %v", err)
	}
	if result.Status != StatusAlreadyMarked {
		t.Errorf("status = %q, want %q", result.Status, StatusAlreadyMarked)
	}
	if len(fx.ledger.marks) != 1 {
		t.Errorf("ledger entries = %d, want exactly 1", len(fx.ledger.marks))
	}
	if got, _ := fx.queue.Peek(ctx, "EN-001"); got != nil {
		t.Errorf("stale claim left in queue: %+v", got)
	}
}

func TestVerifyStaleClaimIsNoPending(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(&campus.TimetableEntry{ID: "tt-1"})

	// A claim enqueued 601 seconds ago: the queue's wall-clock check must
	// treat it as absent even though nothing evicted it.
	stale := punchqueue.Claim{
		EnrollNumber: "EN-001",
		RoomID:       "room-1",
		Timestamp:    time.Now().Add(-601 * time.Second).UnixMilli(),
	}
	if err := fx.queue.Enqueue(ctx, stale); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	_, err := fx.svc.Verify(ctx, "EN-001", roomLat, roomLon)
	if !errors.Is(err, ErrNoPending) {
		t.Errorf("Verify() error = %v, want ErrNoPending", err)
	}
	if len(fx.ledger.marks) != 0 {
		t.Errorf("ledger entries = %d, want 0", len(fx.ledger.marks))
	}
}

func TestVerifyWithoutScan(t *testing.T) {
	fx := newFlowFixture(&campus.TimetableEntry{ID: "tt-1"})
	_, err := fx.svc.Verify(context.Background(), "EN-001", roomLat, roomLon)
	if !errors.Is(err, ErrNoPending) {
		t.Errorf("Verify() error = %v, want ErrNoPending", err)
	}
}

func TestIngestRejectsInactiveStudent(t *testing.T) {
	ctx := context.Background()
	fx := newFlowFixture(&campus.TimetableEntry{ID: "tt-1"})

	_, err := fx.svc.Ingest(ctx, "CARD-B", "SCN-1")
	if !errors.Is(err, roster.ErrInactive) {
		t.Fatalf("Ingest() error = %v, want roster.ErrInactive", err)
	}
	if got, _ := fx.queue.Peek(ctx, "EN-002"); got != nil {
		t.Errorf("claim queued for inactive student: %+v", got)
	}
	if len(fx.ledger.punches) != 0 {
		t.Errorf("punch records = %d, want 0", len(fx.ledger.punches))
	}
}

func TestIngestUnknownScanner(t *testing.T) {
	fx := newFlowFixture(nil)
	_, err := fx.svc.Ingest(context.Background(), "CARD-A", "SCN-UNKNOWN")
	if !errors.Is(err, campus.ErrNotFound) {
		t.Errorf("Ingest() error = %v, want campus.ErrNotFound", err)
	}
}

func TestIngestUnknownCard(t *testing.T) {
	fx := newFlowFixture(nil)
	_, err := fx.svc.Ingest(context.Background(), "CARD-MISSING", "SCN-1")
	if !errors.Is(err, roster.ErrNotFound) {
		t.Errorf("Ingest() error = %v, want roster.ErrNotFound", err)
	}
}

func TestDateUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "afternoon truncates to midnight",
			in:   time.Date(2025, 9, 1, 14, 30, 45, 123, time.UTC),
			want: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "local zone converts before truncating",
			in:   time.Date(2025, 9, 2, 1, 0, 0, 0, ist),
			want: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "midnight is a fixed point",
			in:   time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DateUTC(tt.in); !got.Equal(tt.want) {
				t.Errorf("DateUTC(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}
