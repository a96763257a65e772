package auth

import (
	"testing"
	"time"
)

// ─── Password hashing (Argon2id, intentionally slow) ────────────────

func BenchmarkHashPassword(b *testing.B) {
	for i := 0; i < b.N; i++ {
		HashPassword("correct-horse-battery-staple") //nolint:errcheck // benchmark
	}
}

func BenchmarkVerifyPassword(b *testing.B) {
	hash, err := HashPassword("correct-horse-battery-staple")
	if err != nil {
		b.Fatalf("HashPassword: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		VerifyPassword("correct-horse-battery-staple", hash)
	}
}

// ─── Bearer tokens (per-request hot path) ───────────────────────────

func BenchmarkValidateToken(b *testing.B) {
	tokens, err := NewTokenService("benchmark-secret-key-32-bytes-xx")
	if err != nil {
		b.Fatalf("NewTokenService: %v", err)
	}
	now := time.Now()
	token, err := tokens.Issue("bench", now)
	if err != nil {
		b.Fatalf("Issue: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tokens.Validate(token, now) //nolint:errcheck // benchmark
	}
}
