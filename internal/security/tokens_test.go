package security

import (
	"encoding/base64"
	"encoding/json"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-signing-secret")

func newTestTokenProvider() *TokenProvider {
	return NewTokenProvider(testSecret, 15*time.Minute, 7*24*time.Hour)
}

func payloadKeys(t *testing.T, token string) []string {
	t.Helper()
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d segments, want 3", len(parts))
	}
	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func TestTokenProvider_IssueAccessAndDecode(t *testing.T) {
	p := newTestTokenProvider()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	access, exp, err := p.IssueAccess("acct-1", "user", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if !exp.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("expiresAt = %v, want %v", exp, now.Add(15*time.Minute))
	}
	if got := strings.Join(payloadKeys(t, access), ","); got != "exp,iat,role,sub" {
		t.Errorf("access payload keys = %s", got)
	}

	claims, err := p.Decode(access)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "acct-1" || claims.Role != "user" {
		t.Errorf("Decode: got sub=%q role=%q", claims.Subject, claims.Role)
	}
	if !claims.IssuedAt.Time.Equal(now) {
		t.Errorf("iat = %v, want %v", claims.IssuedAt.Time, now)
	}
	if !p.IsLive(claims, now.Add(14*time.Minute)) {
		t.Error("token should be live before expiry")
	}
	if p.IsLive(claims, exp) {
		t.Error("token should not be live at expiry")
	}
	if p.IsLive(claims, exp.Add(time.Second)) {
		t.Error("token should not be live after expiry")
	}
}

func TestTokenProvider_IssueRefresh(t *testing.T) {
	p := newTestTokenProvider()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	refresh, jti, exp, err := p.IssueRefresh(now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if len(jti) != 32 {
		t.Errorf("jti length = %d, want 32 hex chars", len(jti))
	}
	if !exp.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Errorf("expiresAt = %v", exp)
	}
	if got := strings.Join(payloadKeys(t, refresh), ","); got != "exp,iat,jti" {
		t.Errorf("refresh payload keys = %s", got)
	}
	claims, err := p.Decode(refresh)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.ID != jti {
		t.Errorf("Decode jti = %q, want %q", claims.ID, jti)
	}

	_, jti2, _, err := p.IssueRefresh(now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if jti2 == jti {
		t.Error("jti should be unique per issuance")
	}
}

func TestTokenProvider_DecodeInvalid(t *testing.T) {
	p := newTestTokenProvider()
	access, _, err := p.IssueAccess("acct-1", "user", time.Now())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	parts := strings.Split(access, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	other := NewTokenProvider([]byte("another-secret"), time.Minute, time.Hour)
	foreign, _, err := other.IssueAccess("acct-1", "admin", time.Now())
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{Role: "admin"}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign HS512: %v", err)
	}

	cases := map[string]string{
		"garbage":        "invalid-token",
		"empty":          "",
		"tampered sig":   tampered,
		"wrong secret":   foreign,
		"alg none":       none,
		"alg HS512":      hs512,
		"two segments":   parts[0] + "." + parts[1],
		"bad payload":    parts[0] + ".bm90LWpzb24." + parts[2],
		"wrong exp type": signRaw(t, `{"sub":"acct-1","exp":"tomorrow"}`),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := p.Decode(tok)
			if err != ErrInvalidToken {
				t.Errorf("Decode: want ErrInvalidToken, got %v", err)
			}
			if claims != nil {
				t.Errorf("Decode: want nil claims, got %+v", claims)
			}
		})
	}
}

func TestTokenProvider_NoExpiryNeverLive(t *testing.T) {
	p := newTestTokenProvider()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "acct-1"},
		Role:             "user",
	}).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	claims, err := p.Decode(tok)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.IsLive(claims, time.Now()) {
		t.Error("token without exp should never be live")
	}
	if p.IsLive(nil, time.Now()) {
		t.Error("nil claims should never be live")
	}
}

// signRaw signs an arbitrary JSON payload with the test secret.
func signRaw(t *testing.T, payload string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	body := base64.RawURLEncoding.EncodeToString([]byte(payload))
	sig, err := jwt.SigningMethodHS256.Sign(header+"."+body, testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return header + "." + body + "." + base64.RawURLEncoding.EncodeToString(sig)
}
