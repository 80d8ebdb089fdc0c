package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sleepoutside/backend/internal/models"
)

type contextKey string

const SubjectKey contextKey = "subject"

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier checks a bearer token and returns the subject it was issued
// to.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// JWTVerifier issues and checks HS256 admin tokens.
type JWTVerifier struct {
	secret     []byte
	expiration time.Duration
	now        func() time.Time
}

func NewJWTVerifier(secret string, expiration time.Duration) *JWTVerifier {
	return &JWTVerifier{
		secret:     []byte(secret),
		expiration: expiration,
		now:        time.Now,
	}
}

// Issue signs a token for subject and returns it with its expiry.
func (v *JWTVerifier) Issue(subject string) (string, time.Time, error) {
	now := v.now()
	expiresAt := now.Add(v.expiration)
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": expiresAt.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return v.secret, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return "", ErrInvalidToken
	}
	return subject, nil
}

// AdminAuth accepts a request whose bearer token passes any of verifiers,
// tried in order. nil verifiers are skipped.
func AdminAuth(verifiers ...TokenVerifier) func(http.Handler) http.Handler {
	active := make([]TokenVerifier, 0, len(verifiers))
	for _, v := range verifiers {
		if v != nil {
			active = append(active, v)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
				return
			}
			tokenString := strings.TrimSpace(parts[1])

			for _, v := range active {
				subject, err := v.Verify(r.Context(), tokenString)
				if err != nil {
					continue
				}
				ctx := context.WithValue(r.Context(), SubjectKey, subject)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
		})
	}
}

// GetSubject extracts the authenticated subject from context
func GetSubject(ctx context.Context) string {
	subject, ok := ctx.Value(SubjectKey).(string)
	if !ok {
		return ""
	}
	return subject
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
