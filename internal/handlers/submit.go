package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"roomShare/internal/apperrors"
	"roomShare/internal/models"
	"roomShare/internal/pricing"
	"roomShare/internal/storage"

	"go.uber.org/zap"
)

// submit runs one contract write for the session's caller. Only one write
// per caller may be in flight, and every attempt is journaled.
func submit(ctx context.Context, cache storage.Cache, journal storage.Journal, settings Settings, log *zap.Logger,
	entry models.Submission, send func(context.Context) (models.Receipt, error)) (models.Receipt, error) {
	acquired, err := cache.AcquireSubmission(ctx, entry.Caller, settings.SubmitLockTTL)
	if err != nil {
		return models.Receipt{}, err
	}
	if !acquired {
		return models.Receipt{}, apperrors.ErrSubmissionInFlight
	}
	defer cache.ReleaseSubmission(context.WithoutCancel(ctx), entry.Caller)

	entry, err = journal.CreateSubmission(ctx, entry)
	if err != nil {
		log.Warn("submission not journaled", zap.String("kind", entry.Kind), zap.Error(err))
	}

	receipt, sendErr := send(ctx)

	status := models.StatusSucceeded
	if sendErr != nil {
		status = models.StatusFailed
	}

	if entry.Id != 0 {
		if err := journal.FinishSubmission(context.WithoutCancel(ctx), entry.Id, status, receipt.TxHash, apperrors.Kind(sendErr)); err != nil {
			log.Warn("submission outcome not journaled", zap.Int64("submission", entry.Id), zap.Error(err))
		}
	}

	return receipt, sendErr
}

func ShareRoomHandler(registry storage.Registry, cache storage.Cache, journal storage.Journal, settings Settings, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var listing models.Listing
		if err := decodeBody(w, r, &listing); err != nil {
			respondError(w, log, err, nil)
			return
		}

		listing.Name = strings.TrimSpace(listing.Name)
		listing.Location = strings.TrimSpace(listing.Location)
		if listing.Name == `` || listing.Location == `` || listing.Price < 0 {
			respondError(w, log, fmt.Errorf("%w: a listing needs a name, a location and a non-negative price", apperrors.ErrMalformedInput), nil)
			return
		}

		caller := SessionFrom(r.Context()).Caller
		// shareRoom carries no value, so the journaled payment stays 0.
		entry := models.Submission{Kind: models.SubmissionListing, Caller: caller}

		receipt, err := submit(r.Context(), cache, journal, settings, log, entry, func(ctx context.Context) (models.Receipt, error) {
			return registry.SubmitRoomListing(ctx, caller, listing)
		})
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		cache.DeleteRooms(r.Context())

		log.Info("room shared", zap.String("caller", caller), zap.String("tx", receipt.TxHash))

		respondJSON(w, http.StatusOK, receipt)
	})
}

// RentRoomHandler pays rate*(checkOut-checkIn) for the selected room. When
// the contract refuses the dates, the reply carries recommendDate's range.
func RentRoomHandler(registry storage.Registry, cache storage.Cache, journal storage.Journal, settings Settings, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request models.RentalRequest
		if err := decodeBody(w, r, &request); err != nil {
			respondError(w, log, err, nil)
			return
		}

		room, err := resolveRoom(r.Context(), registry, cache, log, request.Selection, request.RoomIndex)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		checkIn, checkOut, err := parseStay(request.CheckIn, request.CheckOut)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		rental := models.Rental{
			RoomId:   room.Id,
			CheckIn:  checkIn,
			CheckOut: checkOut,
			Cost:     pricing.ComputeRentalCost(room.Price, checkIn, checkOut),
		}

		caller := SessionFrom(r.Context()).Caller
		entry := models.Submission{
			Kind:     models.SubmissionRental,
			Caller:   caller,
			RoomId:   rental.RoomId,
			CheckIn:  rental.CheckIn,
			CheckOut: rental.CheckOut,
			Payment:  rental.Cost,
		}

		receipt, err := submit(r.Context(), cache, journal, settings, log, entry, func(ctx context.Context) (models.Receipt, error) {
			return registry.SubmitRental(ctx, caller, rental)
		})
		if err != nil {
			respondError(w, log, err, recommend(r.Context(), registry, log, rental, err))
			return
		}

		log.Info("room rented", zap.String("caller", caller), zap.Int64("room", rental.RoomId), zap.String("tx", receipt.TxHash))

		respondJSON(w, http.StatusOK, receipt)
	})
}

func recommend(ctx context.Context, registry storage.Registry, log *zap.Logger, rental models.Rental, err error) *models.Recommendation {
	if !errors.Is(err, apperrors.ErrContractReverted) {
		return nil
	}

	recommendation, recErr := registry.RecommendDate(ctx, rental.RoomId, rental.CheckIn, rental.CheckOut)
	if recErr != nil {
		log.Warn("recommendDate failed", zap.Int64("room", rental.RoomId), zap.Error(recErr))
		return nil
	}

	return &recommendation
}
