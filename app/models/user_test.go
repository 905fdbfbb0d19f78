package models

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPasswordHash("s3cret-pass", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPasswordHash("wrong-pass", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestHashAPIKey(t *testing.T) {
	a := HashAPIKey("vel_live_abc123")
	b := HashAPIKey("vel_live_abc123")
	if a != b {
		t.Fatal("hash must be deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	if a == HashAPIKey("vel_live_abc124") {
		t.Fatal("distinct keys must not collide")
	}
}
