package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 24 * time.Hour

type ctxKey int

const userIDKey ctxKey = iota

// Auth issues and validates HS256 session tokens.
type Auth struct {
	Secret []byte
	Issuer string
}

// IssueToken signs a token whose subject is the user id.
func (a *Auth) IssueToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iss": a.Issuer,
		"iat": now.Unix(),
		"exp": now.Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.Secret)
}

// ParseToken verifies the signature and expiry and returns the user id.
func (a *Auth) ParseToken(signed string) (int64, error) {
	token, err := jwt.Parse(signed, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.Secret, nil
	}, jwt.WithIssuer(a.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return 0, err
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("token missing subject: %w", err)
	}
	return strconv.ParseInt(sub, 10, 64)
}

// Wrap is the HandlerWrapper that requires a valid Bearer token and puts
// the user id into the request context.
func (a *Auth) Wrap(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			WriteSimpleErrorJSON(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		userID, err := a.ParseToken(raw)
		if err != nil {
			WriteSimpleErrorJSON(w, http.StatusUnauthorized, "invalid token")
			return
		}
		inner.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// UserID extracts the authenticated user id placed by Auth.Wrap.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
