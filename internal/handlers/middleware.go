package handlers

import (
	"context"
	"net/http"
	"strings"

	"roomShare/internal/models"
	"roomShare/internal/storage"

	"github.com/golang-jwt/jwt/v4"
)

type sessionKey struct{}

func SessionFrom(ctx context.Context) models.Session {
	session, _ := ctx.Value(sessionKey{}).(models.Session)
	return session
}

func WithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// AuthorizationMiddleware accepts a bearer token only while its session is
// still held in the cache, so logout revokes it.
func AuthorizationMiddleware(next http.Handler, cache storage.Cache, jwtKey string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			w.Header().Set("Retry-After", "3")
			http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		claims := &models.CustomClaims{}

		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(jwtKey), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil || !token.Valid {
			w.Header().Set("Retry-After", "3")
			http.Error(w, "User unauthorized", http.StatusUnauthorized)
			return
		}

		session, err := cache.GetSession(r.Context(), claims.SessionId)
		if err != nil || session.Caller != claims.Caller {
			w.Header().Set("Retry-After", "3")
			http.Error(w, "Session expired", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}
