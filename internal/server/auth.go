package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const (
	subjectKey   contextKey = "subject"
	requestIDKey contextKey = "requestID"
)

// Claims are the access token claims issued by the external auth service
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenValidator verifies HS256 bearer tokens
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator creates a validator for tokens signed with secret
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// Validate parses and verifies a token string
func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("token string is empty")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

// User returns the user id, falling back to the registered subject
func (c *Claims) User() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.RegisteredClaims.Subject
}

// authMiddleware accepts a configured API key or a valid bearer token
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authEnabled() {
			next(w, r)
			return
		}

		credential := requestCredential(r)
		if credential == "" {
			s.Logger.Info("Authentication failed: missing credential",
				"endpoint", r.URL.Path,
				"client_ip", clientIP(r),
				"request_id", requestID(r.Context()))
			writeErrorEnvelope(w, http.StatusUnauthorized, "Access token is required", "UNAUTHORIZED")
			return
		}

		if s.APIKeys[credential] {
			s.Logger.Debug("API key authentication successful",
				"endpoint", r.URL.Path,
				"api_key_prefix", maskAPIKey(credential))
			next(w, r.WithContext(context.WithValue(r.Context(), subjectKey, "api:"+maskAPIKey(credential))))
			return
		}

		if s.tokens != nil {
			claims, err := s.tokens.Validate(credential)
			if err == nil {
				next(w, r.WithContext(context.WithValue(r.Context(), subjectKey, claims.User())))
				return
			}
			if stderrors.Is(err, jwt.ErrTokenExpired) {
				writeErrorEnvelope(w, http.StatusUnauthorized, "Access token has expired", "TOKEN_EXPIRED")
				return
			}
		}

		s.Logger.Info("Authentication failed: invalid credential",
			"endpoint", r.URL.Path,
			"client_ip", clientIP(r),
			"api_key_prefix", maskAPIKey(credential),
			"request_id", requestID(r.Context()))
		writeErrorEnvelope(w, http.StatusUnauthorized, "Invalid access token", "UNAUTHORIZED")
	}
}

// requestCredential reads X-API-Key, then an Authorization bearer value
func requestCredential(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return ""
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}
