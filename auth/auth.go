/*
Package auth issues and checks admin session tokens.

PURPOSE:
  The fund has a single admin account configured through the environment
  (email plus bcrypt hash). A successful login yields an HS256 JWT; requests
  carrying a valid token act as fund.Admin, everything else acts as
  fund.Guest and is read-only.

SEE ALSO:
  - fund/auth.go: AuthContext and capability checks
  - api/server.go: Middleware wiring
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alohafunds/engine/fund"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "aloha-funds"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrLoginDisabled      = errors.New("admin login is not configured")
)

// Claims are the JWT claims of an admin session.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Token is the result of a successful login.
type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Service authenticates the admin and signs tokens.
type Service struct {
	secret       []byte
	ttl          time.Duration
	adminEmail   string
	passwordHash []byte
	now          func() time.Time
}

// NewService creates a service. An empty adminEmail or passwordHash
// disables login; everyone is then a guest.
func NewService(secret string, ttl time.Duration, adminEmail, passwordHash string) *Service {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Service{
		secret:       []byte(secret),
		ttl:          ttl,
		adminEmail:   strings.ToLower(strings.TrimSpace(adminEmail)),
		passwordHash: []byte(passwordHash),
		now:          time.Now,
	}
}

// Enabled reports whether an admin account is configured.
func (s *Service) Enabled() bool {
	return s.adminEmail != "" && len(s.passwordHash) > 0 && len(s.secret) > 0
}

// Login checks the credentials and returns a signed token.
func (s *Service) Login(email, password string) (Token, error) {
	if !s.Enabled() {
		return Token{}, ErrLoginDisabled
	}
	if strings.ToLower(strings.TrimSpace(email)) != s.adminEmail {
		return Token{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return Token{}, ErrInvalidCredentials
	}
	return s.issue(s.adminEmail)
}

func (s *Service) issue(email string) (Token, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := Claims{
		Email: email,
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   email,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{AccessToken: signed, ExpiresAt: expires}, nil
}

// Parse validates a token and returns its claims.
func (s *Service) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != "admin" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// =============================================================================
// REQUEST CONTEXT
// =============================================================================

type contextKey struct{}

// WithAuth returns a copy of ctx carrying auth.
func WithAuth(ctx context.Context, auth fund.AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, auth)
}

// FromContext returns the caller's capabilities, fund.Guest if none.
func FromContext(ctx context.Context) fund.AuthContext {
	if auth, ok := ctx.Value(contextKey{}).(fund.AuthContext); ok && auth != nil {
		return auth
	}
	return fund.Guest{}
}

// Middleware resolves the bearer token of each request. Missing or
// invalid tokens leave the request as a guest.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var caller fund.AuthContext = fund.Guest{}
		if raw, ok := bearerToken(r); ok && s.Enabled() {
			if claims, err := s.Parse(raw); err == nil {
				caller = fund.Admin{Email: claims.Email}
			}
		}
		next.ServeHTTP(w, r.WithContext(WithAuth(r.Context(), caller)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
