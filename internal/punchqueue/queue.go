// Package punchqueue stages unverified RFID punches. A scan at a fixed
// scanner lands here keyed by the student's enrollment number and waits, for
// at most the TTL, for that student to confirm their location from their own
// device. One live claim per student; a fresh scan overwrites.
package punchqueue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces claim keys in the shared redis instance.
const KeyPrefix = "punch_queue:"

// DefaultTTL is how long a punch waits for location confirmation.
const DefaultTTL = 10 * time.Minute

// Claim is one pending punch awaiting location confirmation.
type Claim struct {
	EnrollNumber string `json:"enroll_number"`
	CardNumber   string `json:"card_number"`
	RoomID       string `json:"room_id"`
	ScannerID    string `json:"scanner_id"`
	Timestamp    int64  `json:"timestamp"` // epoch millis at scan time
}

// Age returns how long ago the claim was created.
func (c Claim) Age(now time.Time) time.Duration {
	return now.Sub(time.UnixMilli(c.Timestamp))
}

// ExpiresIn returns the remaining lifetime of the claim, floored at zero.
func (c Claim) ExpiresIn(now time.Time, ttl time.Duration) time.Duration {
	remaining := ttl - c.Age(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Queue is the abstraction over claim storage backends.
//
// Peek returns (nil, nil) when no live claim exists. A stored claim whose
// timestamp says it is older than the TTL is treated as absent and deleted
// on the spot, regardless of whether the backend has evicted the key; this
// wall-clock double-check guards against store/client clock skew.
type Queue interface {
	Enqueue(ctx context.Context, claim Claim) error
	Peek(ctx context.Context, enrollNumber string) (*Claim, error)
	Remove(ctx context.Context, enrollNumber string) (bool, error)
}

// RedisQueue stores claims as JSON strings under SETEX keys.
type RedisQueue struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisQueue builds a queue over the given client. A zero ttl falls back
// to DefaultTTL.
func NewRedisQueue(client *redis.Client, ttl time.Duration) *RedisQueue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisQueue{client: client, ttl: ttl, now: time.Now}
}

// Enqueue stores the claim, unconditionally replacing any prior claim for
// the same student. Last scan wins.
func (q *RedisQueue) Enqueue(ctx context.Context, claim Claim) error {
	payload, err := json.Marshal(claim)
	if err != nil {
		return err
	}
	return q.client.Set(ctx, KeyPrefix+claim.EnrollNumber, payload, q.ttl).Err()
}

// Peek returns the student's live claim, if any.
func (q *RedisQueue) Peek(ctx context.Context, enrollNumber string) (*Claim, error) {
	raw, err := q.client.Get(ctx, KeyPrefix+enrollNumber).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var claim Claim
	if err := json.Unmarshal([]byte(raw), &claim); err != nil {
		return nil, err
	}
	if claim.Age(q.now()) > q.ttl {
		_, _ = q.Remove(ctx, enrollNumber)
		return nil, nil
	}
	return &claim, nil
}

// Remove deletes the claim and reports whether one existed.
func (q *RedisQueue) Remove(ctx context.Context, enrollNumber string) (bool, error) {
	n, err := q.client.Del(ctx, KeyPrefix+enrollNumber).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InMemory is a map-backed queue for dev and tests. Expiry is enforced the
// same way as the redis backend: lazily, on Peek.
type InMemory struct {
	mu     sync.Mutex
	claims map[string]Claim
	ttl    time.Duration
	now    func() time.Time
}

// NewInMemory creates an empty in-memory queue.
func NewInMemory(ttl time.Duration) *InMemory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemory{claims: make(map[string]Claim), ttl: ttl, now: time.Now}
}

// Enqueue stores the claim, replacing any prior one for the student.
func (q *InMemory) Enqueue(_ context.Context, claim Claim) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.claims[claim.EnrollNumber] = claim
	return nil
}

// Peek returns the student's live claim, if any.
func (q *InMemory) Peek(_ context.Context, enrollNumber string) (*Claim, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	claim, ok := q.claims[enrollNumber]
	if !ok {
		return nil, nil
	}
	if claim.Age(q.now()) > q.ttl {
		delete(q.claims, enrollNumber)
		return nil, nil
	}
	return &claim, nil
}

// Remove deletes the claim and reports whether one existed.
func (q *InMemory) Remove(_ context.Context, enrollNumber string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.claims[enrollNumber]
	delete(q.claims, enrollNumber)
	return ok, nil
}
