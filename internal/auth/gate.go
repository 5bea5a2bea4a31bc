// Package auth implements the admin session gate: credential checks and
// bearer-token sessions for the admin API.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nuvemlab/nuvem/internal/config"
)

// Gate validates admin credentials and manages admin session tokens.
// A gate configured with an empty password is permanently disabled: no
// credential check can ever succeed.
type Gate struct {
	username string
	password string
	secret   []byte
	ttl      time.Duration

	mu      sync.Mutex
	revoked map[string]time.Time // jti -> expiry, logout revocation
}

// NewGate creates a gate from admin config. When no signing secret is
// configured a random per-process secret is generated, which invalidates
// outstanding tokens across restarts; that is acceptable for a tool whose
// sessions span one event.
func NewGate(cfg config.AdminConfig) *Gate {
	secret := []byte(cfg.TokenSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		_, _ = rand.Read(buf)
		secret = []byte(hex.EncodeToString(buf))
	}
	ttl := time.Duration(cfg.TokenTTLMin) * time.Minute
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Gate{
		username: cfg.Username,
		password: cfg.Password,
		secret:   secret,
		ttl:      ttl,
		revoked:  make(map[string]time.Time),
	}
}

// Enabled reports whether the admin area is usable at all.
func (g *Gate) Enabled() bool {
	return g.password != ""
}

// Check compares the submitted credentials against the configured pair using
// constant-time equality on both fields. It returns false unconditionally
// when the gate is disabled.
func (g *Gate) Check(username, password string) bool {
	if !g.Enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	return userOK && passOK
}

// IssueToken returns a signed admin session token (HS256) with the
// configured TTL.
func (g *Gate) IssueToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": g.username,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(g.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
}

// Verify reports whether token is a valid, unexpired, unrevoked admin token.
func (g *Gate) Verify(token string) bool {
	claims, err := g.parse(token)
	if err != nil {
		return false
	}
	jti, _ := claims["jti"].(string)
	g.mu.Lock()
	_, revoked := g.revoked[jti]
	g.mu.Unlock()
	return !revoked
}

// Revoke invalidates token (logout). Unknown or malformed tokens are a
// no-op: logout always succeeds.
func (g *Gate) Revoke(token string) {
	claims, err := g.parse(token)
	if err != nil {
		return
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return
	}
	expiry := time.Now().Add(g.ttl)
	if exp, perr := claims.GetExpirationTime(); perr == nil && exp != nil {
		expiry = exp.Time
	}
	g.mu.Lock()
	g.revoked[jti] = expiry
	g.pruneLocked()
	g.mu.Unlock()
}

func (g *Gate) parse(token string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return g.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	return claims, nil
}

// pruneLocked drops revocation records for tokens that have expired anyway.
func (g *Gate) pruneLocked() {
	now := time.Now()
	for jti, expiry := range g.revoked {
		if now.After(expiry) {
			delete(g.revoked, jti)
		}
	}
}
