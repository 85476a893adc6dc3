package handlers

import (
	"fmt"
	"net/http"
	"time"

	"roomShare/internal/apperrors"
	"roomShare/internal/models"
	"roomShare/internal/storage"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IssueToken signs the JWT handed to the browser for session.
func IssueToken(session models.Session, key string, ttl time.Duration) (string, error) {
	claims := &models.CustomClaims{
		SessionId: session.Id,
		Caller:    session.Caller,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.Id,
			IssuedAt:  jwt.NewNumericDate(session.CreatedAt),
			ExpiresAt: jwt.NewNumericDate(session.CreatedAt.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(key))
}

// LoginHandler binds the browser to one of the node's unlocked accounts,
// picked by its index in eth_accounts.
func LoginHandler(registry storage.Registry, cache storage.Cache, settings Settings, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var login models.LoginRequest
		if err := decodeBody(w, r, &login); err != nil {
			respondError(w, log, err, nil)
			return
		}

		accounts, err := registry.Accounts(r.Context())
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		if login.Account < 0 || login.Account >= len(accounts) {
			respondError(w, log, fmt.Errorf("%w: no account %d among %d", apperrors.ErrMalformedInput, login.Account, len(accounts)), nil)
			return
		}

		session := models.Session{
			Id:        uuid.NewString(),
			Caller:    accounts[login.Account],
			CreatedAt: time.Now().UTC(),
		}

		if err := cache.PutSession(r.Context(), session, settings.SessionTTL); err != nil {
			w.Header().Set("Retry-After", "3")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		tokenStr, err := IssueToken(session, settings.JWTKey, settings.SessionTTL)
		if err != nil {
			w.Header().Set("Retry-After", "3")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		log.Info("session opened", zap.String("session", session.Id), zap.String("caller", session.Caller))

		respondJSON(w, http.StatusOK, models.AuthorizationToken{Token: tokenStr})
	})
}

func LogoutHandler(cache storage.Cache, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFrom(r.Context())

		if err := cache.DeleteSession(r.Context(), session.Id); err != nil {
			w.Header().Set("Retry-After", "3")
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		log.Info("session closed", zap.String("session", session.Id))

		w.WriteHeader(http.StatusNoContent)
	})
}
