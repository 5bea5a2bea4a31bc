package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/nuvemlab/nuvem/internal/config"
)

func newTestGate() *Gate {
	return NewGate(config.AdminConfig{
		Username:    "admin",
		Password:    "senha-forte",
		TokenSecret: "test-secret",
		TokenTTLMin: 60,
	})
}

func TestCheckExactMatchOnly(t *testing.T) {
	g := newTestGate()
	tests := []struct {
		user, pass string
		want       bool
	}{
		{"admin", "senha-forte", true},
		{"admin", "senha-fortE", false},
		{"Admin", "senha-forte", false},
		{"admin", "senha-forte ", false},
		{"admin", "", false},
		{"", "senha-forte", false},
		{"", "", false},
	}
	for _, tt := range tests {
		if got := g.Check(tt.user, tt.pass); got != tt.want {
			t.Errorf("Check(%q, %q) = %v, want %v", tt.user, tt.pass, got, tt.want)
		}
	}
}

func TestDisabledGateFailsClosed(t *testing.T) {
	g := NewGate(config.AdminConfig{Username: "admin", Password: ""})
	if g.Enabled() {
		t.Error("gate with empty password should be disabled")
	}
	if g.Check("admin", "") {
		t.Error("disabled gate must reject even the matching empty password")
	}
	if g.Check("admin", "anything") {
		t.Error("disabled gate must reject everything")
	}
}

func TestTokenLifecycle(t *testing.T) {
	g := newTestGate()
	token, err := g.IssueToken()
	if err != nil {
		t.Fatal(err)
	}
	if !g.Verify(token) {
		t.Error("freshly issued token should verify")
	}

	g.Revoke(token)
	if g.Verify(token) {
		t.Error("revoked token should not verify")
	}

	// Logout of garbage is a no-op, never a failure.
	g.Revoke("not-a-token")
}

func TestVerifyRejectsTamperedToken(t *testing.T) {
	g := newTestGate()
	token, err := g.IssueToken()
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if g.Verify(tampered) {
		t.Error("tampered signature should not verify")
	}
	if g.Verify("") {
		t.Error("empty token should not verify")
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	g := newTestGate()
	other := NewGate(config.AdminConfig{
		Username: "admin", Password: "senha-forte", TokenSecret: "other-secret", TokenTTLMin: 60,
	})
	token, err := other.IssueToken()
	if err != nil {
		t.Fatal(err)
	}
	if g.Verify(token) {
		t.Error("token signed with a different secret should not verify")
	}
}

func TestRandomSecretWhenUnconfigured(t *testing.T) {
	cfg := config.AdminConfig{Username: "admin", Password: "x", TokenTTLMin: 1}
	a, b := NewGate(cfg), NewGate(cfg)
	token, err := a.IssueToken()
	if err != nil {
		t.Fatal(err)
	}
	if !a.Verify(token) {
		t.Error("issuer should verify its own token")
	}
	if b.Verify(token) {
		t.Error("a second gate with its own random secret should reject the token")
	}
}

func TestTTLDefault(t *testing.T) {
	g := NewGate(config.AdminConfig{Username: "admin", Password: "x"})
	if g.ttl != 12*time.Hour {
		t.Errorf("ttl = %v, want 12h default", g.ttl)
	}
}
