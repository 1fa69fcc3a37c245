package security

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndVerify(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, password := range []string{"password", "password123", strings.Repeat("p", 72), "päßwörd-ünïcode"} {
		hash, err := h.Hash(password)
		if err != nil {
			t.Fatalf("Hash(%q): %v", password, err)
		}
		if hash == "" || hash == password {
			t.Fatalf("Hash(%q) returned %q", password, hash)
		}
		if !h.Verify(password, hash) {
			t.Errorf("Verify(%q) = false, want true", password)
		}
		if h.Verify(flipFirstByte(password), hash) {
			t.Errorf("Verify(%q) with altered first byte = true", password)
		}
	}
}

// flipFirstByte changes the password inside the bytes bcrypt compares.
func flipFirstByte(password string) string {
	b := []byte(password)
	b[0] ^= 0x01
	return string(b)
}

func TestHasher_SaltedPerCall(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := h.Hash("secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password should differ")
	}
}

func TestHasher_TruncatesPast72Bytes(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	base := strings.Repeat("a", MaxPasswordBytes)
	hash, err := h.Hash(base + "suffix-that-is-ignored")
	if err != nil {
		t.Fatalf("Hash of long password: %v", err)
	}
	if !h.Verify(base, hash) {
		t.Error("72-byte prefix should verify against hash of longer password")
	}
	if !h.Verify(base+"another-suffix", hash) {
		t.Error("different suffix beyond byte 72 should verify")
	}
	if h.Verify(base[:71], hash) {
		t.Error("71-byte prefix should not verify")
	}
}

func TestHasher_VerifyMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, hash := range []string{"", "not-a-hash", "$2b$12$short"} {
		if h.Verify("password123", hash) {
			t.Errorf("Verify with malformed hash %q = true", hash)
		}
	}
}

func TestHasher_Cost(t *testing.T) {
	if got := NewHasher(12).Cost; got != 12 {
		t.Errorf("Cost want 12, got %d", got)
	}
	if got := NewHasher(0).Cost; got != DefaultCost {
		t.Errorf("zero cost should select DefaultCost, got %d", got)
	}
	if got := NewHasher(2).Cost; got != bcrypt.MinCost {
		t.Errorf("low cost should clamp to MinCost, got %d", got)
	}
	if got := NewHasher(99).Cost; got != bcrypt.MaxCost {
		t.Errorf("high cost should clamp to MaxCost, got %d", got)
	}
}
