package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"roomShare/internal/apperrors"
	"roomShare/internal/models"

	"go.uber.org/zap"
)

type Settings struct {
	JWTKey          string
	SessionTTL      time.Duration
	SubmitLockTTL   time.Duration
	ContractAddress string
	ExchangeRate    float64
	ReferenceYear   int
}

type errorResponse struct {
	Error          string                 `json:"error"`
	Message        string                 `json:"message"`
	Recommendation *models.Recommendation `json:"recommendation,omitempty"`
}

func wantsHTML(r *http.Request) bool {
	return r.URL.Query().Get(`format`) == `html`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, log *zap.Logger, err error, recommendation *models.Recommendation) {
	status := apperrors.Status(err)

	if status >= http.StatusInternalServerError || errors.Is(err, apperrors.ErrSubmissionInFlight) {
		w.Header().Set("Retry-After", "3")
		log.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		log.Info("request refused", zap.Int("status", status), zap.Error(err))
	}

	respondJSON(w, status, errorResponse{
		Error:          apperrors.Kind(err),
		Message:        apperrors.Message(err),
		Recommendation: recommendation,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrMalformedInput, err)
	}

	return nil
}
