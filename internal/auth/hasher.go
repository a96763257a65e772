package auth

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentHashes bounds concurrent Argon2id work when the
// configuration does not say otherwise.
const DefaultMaxConcurrentHashes = 4

// Hasher runs password hashing and verification under a weighted semaphore
// so that a burst of logins cannot allocate unbounded Argon2id memory.
type Hasher struct {
	sem *semaphore.Weighted
}

// NewHasher creates a Hasher allowing maxConcurrent computations at once.
// Values below 1 fall back to DefaultMaxConcurrentHashes.
func NewHasher(maxConcurrent int) *Hasher {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrentHashes
	}
	return &Hasher{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

// Hash hashes password once a slot is free, or returns ctx's error.
func (h *Hasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("waiting for hash slot: %w", err)
	}
	defer h.sem.Release(1)

	return HashPassword(password)
}

// Verify checks password against encoded once a slot is free.
// A cancelled ctx counts as a failed verification.
func (h *Hasher) Verify(ctx context.Context, password, encoded string) bool {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false
	}
	defer h.sem.Release(1)

	return VerifyPassword(password, encoded)
}
