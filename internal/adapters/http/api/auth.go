package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lantechdigital/sinilai/internal/domain/rolegate"
	"github.com/lantechdigital/sinilai/pkg/metrics"
)

const defaultSessionTTL = 12 * time.Hour

type sessionContextKey struct{}

// SessionFromContext returns the authenticated session, if any.
func SessionFromContext(ctx context.Context) (rolegate.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(rolegate.Session)
	return sess, ok
}

// sessionClaims is the JWT payload for an authenticated access key.
type sessionClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	Key  string `json:"key"`
	jwt.RegisteredClaims
}

// authenticator issues and validates session tokens and gates routes by
// authorization area.
type authenticator struct {
	deps   Dependencies
	secret []byte
	ttl    time.Duration
}

func newAuthenticator(deps Dependencies) *authenticator {
	return &authenticator{
		deps: deps,
		ttl:  defaultSessionTTL,
	}
}

// Issue signs a token for a resolved session.
func (a *authenticator) Issue(sess rolegate.Session) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Role: sess.Role.String(),
		Name: sess.Name,
		Key:  sess.Key,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses a signed token back into a session.
func (a *authenticator) Validate(raw string) (rolegate.Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return rolegate.Session{}, WrapKind("api.auth", ErrUnauthorized, err)
	}

	role, err := rolegate.FromName(claims.Role)
	if err != nil {
		return rolegate.Session{}, WrapKind("api.auth", ErrUnauthorized, err)
	}
	return rolegate.Session{Role: role, Key: claims.Key, Name: claims.Name}, nil
}

// Require builds a middleware that authenticates the bearer token and
// checks that the session's role may touch the given area.
func (a *authenticator) Require(area rolegate.Area) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				metrics.RecordAuthFailure()
				writeError(w, http.StatusUnauthorized, "unauthorized", NewKind("api.auth", ErrUnauthorized))
				return
			}

			sess, err := a.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				metrics.RecordAuthFailure()
				writeError(w, http.StatusUnauthorized, "unauthorized", err)
				return
			}

			if !sess.Allowed(area) {
				writeError(w, http.StatusForbidden, "forbidden", NewKind("api.auth", ErrForbidden))
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// loginRequest carries the access key exchanged for a session token.
type loginRequest struct {
	AccessKey string `json:"access_key" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

// LoginHandler exchanges access keys for signed session tokens.
type LoginHandler struct {
	deps Dependencies
	auth *authenticator
}

// NewLoginHandler creates a new login handler.
func NewLoginHandler(deps Dependencies, auth *authenticator) *LoginHandler {
	return &LoginHandler{deps: deps, auth: auth}
}

// HandleLogin handles POST /api/login requests.
func (h *LoginHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	sess, err := h.deps.ResolveKey(r.Context(), req.AccessKey)
	if err != nil {
		// Every resolution failure reads the same to the caller; an
		// attacker learns nothing about which keys exist.
		writeError(w, http.StatusUnauthorized, "unauthorized", NewKind(op, ErrUnauthorized))
		return
	}

	token, err := h.auth.Issue(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: token,
		Role:  sess.Role.String(),
		Name:  sess.Name,
	})
}
