package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type contextKey string

const subjectKey contextKey = "subject"

// requestID propagates the caller's X-Request-ID or assigns a new UUID. The id
// is stored under chi's key so middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			var subject string
			ctx := context.WithValue(r.Context(), subjectKey, &subject)
			next.ServeHTTP(ww, r.WithContext(ctx))
			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if subject != "" {
				attrs = append(attrs, "subject", subject)
			}
			logger.Info("request", attrs...)
		})
	}
}

// requireJWT rejects requests without a valid HS256 bearer token signed with secret.
func requireJWT(secret []byte) func(http.Handler) http.Handler {
	keyFunc := func(t *jwt.Token) (any, error) {
		return secret, nil
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			tokenStr, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || tokenStr == "" {
				writeError(w, "missing or invalid token", http.StatusUnauthorized)
				return
			}

			claims := jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(tokenStr, &claims, keyFunc,
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
			if err != nil || !token.Valid {
				writeError(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
				return
			}

			if subject, ok := r.Context().Value(subjectKey).(*string); ok {
				*subject = claims.Subject
			}
			next.ServeHTTP(w, r)
		})
	}
}
