package console

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName = "sipconsole_session"

	maxLoginFailures = 5
	lockoutDuration  = 15 * time.Minute
)

type loginAttempts struct {
	failures    int
	lockedUntil time.Time
}

// Auth manages access-code authentication for the console. A random
// 8-digit code is generated per process and printed in the serve banner.
type Auth struct {
	accessCode string
	store      SessionStore

	mu       sync.Mutex
	attempts map[string]*loginAttempts
}

// NewAuth generates an access code and wires the given session store.
func NewAuth(store SessionStore) *Auth {
	return &Auth{
		accessCode: generateAccessCode(),
		store:      store,
		attempts:   make(map[string]*loginAttempts),
	}
}

// AccessCode returns the code the operator must enter to authenticate.
func (a *Auth) AccessCode() string {
	return a.accessCode
}

// ValidateCode checks a submitted code against the access code.
func (a *Auth) ValidateCode(code string) bool {
	return code == a.accessCode
}

// CreateSession mints a session token and records it in the store.
func (a *Auth) CreateSession() (string, error) {
	token := generateSessionToken()
	if err := a.store.Put(token); err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}
	return token, nil
}

// ValidateSession reports whether a token names a live session.
func (a *Auth) ValidateSession(token string) bool {
	return a.store.Valid(token)
}

// InvalidateSession drops a session, used on logout.
func (a *Auth) InvalidateSession(token string) {
	a.store.Invalidate(token)
}

// CheckRateLimit reports whether ip may attempt a login, and if not, how
// long until the lockout lifts.
func (a *Auth) CheckRateLimit(ip string) (bool, time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	la, ok := a.attempts[ip]
	if !ok {
		return true, 0
	}
	if remaining := time.Until(la.lockedUntil); remaining > 0 {
		return false, remaining
	}
	return true, 0
}

// RecordFailure counts a failed attempt and returns a non-zero lockout
// duration once the threshold is crossed.
func (a *Auth) RecordFailure(ip string) time.Duration {
	a.mu.Lock()
	defer a.mu.Unlock()
	la, ok := a.attempts[ip]
	if !ok {
		la = &loginAttempts{}
		a.attempts[ip] = la
	}
	la.failures++
	if la.failures >= maxLoginFailures {
		la.lockedUntil = time.Now().Add(lockoutDuration)
		la.failures = 0
		return lockoutDuration
	}
	return 0
}

// RecordSuccess clears the attempt counter for ip.
func (a *Auth) RecordSuccess(ip string) {
	a.mu.Lock()
	delete(a.attempts, ip)
	a.mu.Unlock()
}

// Middleware protects console routes, redirecting unauthenticated
// requests to the login page.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only console pages are guarded; health and metrics stay open.
		if !strings.HasPrefix(r.URL.Path, "/console") || r.URL.Path == "/console/login" {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || !a.ValidateSession(cookie.Value) {
			http.Redirect(w, r, "/console/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}

// generateAccessCode returns a random 8-digit numeric code.
func generateAccessCode() string {
	n, _ := rand.Int(rand.Reader, big.NewInt(100_000_000))
	return fmt.Sprintf("%08d", n.Int64())
}

// generateSessionToken returns a cryptographically random hex string.
func generateSessionToken() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%x", b)
}
