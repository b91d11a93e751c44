package checksum

import (
	"testing"
	"time"
)

func testSubject() Subject {
	return Subject{
		ID:        "u1",
		Email:     "a@x.com",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateIsDeterministic(t *testing.T) {
	for _, d := range []Digest{DigestSHA256, DigestBLAKE3, DigestFallback} {
		t.Run(d.String(), func(t *testing.T) {
			h := New(d)
			s := testSubject()
			first := h.Create(s)
			second := h.Create(s)
			if first == "" {
				t.Fatal("expected non-empty checksum")
			}
			if first != second {
				t.Fatalf("checksum not deterministic: %q vs %q", first, second)
			}
		})
	}
}

func TestCreateChangesWithEmail(t *testing.T) {
	for _, d := range []Digest{DigestSHA256, DigestBLAKE3, DigestFallback} {
		t.Run(d.String(), func(t *testing.T) {
			h := New(d)
			s := testSubject()
			before := h.Create(s)
			s.Email = "b@x.com"
			if after := h.Create(s); after == before {
				t.Fatal("expected email change to change checksum")
			}
		})
	}
}

func TestCreateIgnoresLocation(t *testing.T) {
	s := testSubject()
	local := s
	local.CreatedAt = s.CreatedAt.In(time.FixedZone("UTC+5", 5*3600))
	if Create(s) != Create(local) {
		t.Fatal("same instant in different zones must produce the same checksum")
	}
}

func TestDigestsDiffer(t *testing.T) {
	s := testSubject()
	sha := New(DigestSHA256).Create(s)
	b3 := New(DigestBLAKE3).Create(s)
	fb := New(DigestFallback).Create(s)
	if sha == b3 || sha == fb || b3 == fb {
		t.Fatalf("expected distinct digests, got %q %q %q", sha, b3, fb)
	}
	if len(sha) != 64 || len(b3) != 64 {
		t.Fatalf("unexpected hex lengths %d %d", len(sha), len(b3))
	}
}

func TestValidate(t *testing.T) {
	s := testSubject()
	stored := Create(s)

	tests := []struct {
		name    string
		subject *Subject
		stored  string
		want    bool
	}{
		{name: "match", subject: &s, stored: stored, want: true},
		{name: "nil subject", subject: nil, stored: stored, want: false},
		{name: "empty stored", subject: &s, stored: "", want: false},
		{name: "mismatch", subject: &Subject{ID: "u2", Email: s.Email, CreatedAt: s.CreatedAt}, stored: stored, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Validate(tc.subject, tc.stored); got != tc.want {
				t.Fatalf("Validate() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNewUnknownDigestFallsBack(t *testing.T) {
	if got := New(Digest(42)).Digest(); got != DigestFallback {
		t.Fatalf("expected fallback digest, got %v", got)
	}
}
