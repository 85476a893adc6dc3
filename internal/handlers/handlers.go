package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"roomShare/internal/apperrors"
	"roomShare/internal/dates"
	"roomShare/internal/models"
	"roomShare/internal/pricing"
	"roomShare/internal/selection"
	"roomShare/internal/storage"
	"roomShare/internal/view"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// loadRooms serves the room list from the cache, falling back to one
// contract round trip per room.
func loadRooms(ctx context.Context, registry storage.Registry, cache storage.Cache, log *zap.Logger) ([]models.Room, error) {
	data, err := cache.GetRooms(ctx)
	if err == nil {
		var rooms []models.Room
		if err := json.Unmarshal(data, &rooms); err == nil {
			return rooms, nil
		}
		log.Warn("discarding undecodable rooms cache")
	} else if !errors.Is(err, redis.Nil) {
		log.Warn("rooms cache unavailable", zap.Error(err))
	}

	rooms, err := registry.GetAllRooms(ctx)
	if err != nil {
		return nil, err
	}

	if err := cache.PutRooms(ctx, rooms); err != nil {
		log.Warn("could not cache rooms", zap.Error(err))
	}

	return rooms, nil
}

func pathId(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[`id`], 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: room id %q", apperrors.ErrMalformedInput, mux.Vars(r)[`id`])
	}

	return id, nil
}

func writeHTML(w http.ResponseWriter, log *zap.Logger, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		log.Error("render failed", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func PageHandler(settings Settings, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w, log, func(buf *bytes.Buffer) error {
			return view.Page(buf, view.PageData{
				ContractAddress: settings.ContractAddress,
				ExchangeRate:    settings.ExchangeRate,
				ReferenceYear:   settings.ReferenceYear,
			})
		})
	})
}

func AllRoomsHandler(registry storage.Registry, cache storage.Cache, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rooms, err := loadRooms(r.Context(), registry, cache, log)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		if wantsHTML(r) {
			writeHTML(w, log, func(buf *bytes.Buffer) error { return view.RoomRows(buf, rooms) })
			return
		}

		respondJSON(w, http.StatusOK, rooms)
	})
}

// RoomOptionsHandler lists the rentable rooms.
func RoomOptionsHandler(registry storage.Registry, cache storage.Cache, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rooms, err := loadRooms(r.Context(), registry, cache, log)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		if wantsHTML(r) {
			writeHTML(w, log, func(buf *bytes.Buffer) error { return view.RoomOptions(buf, rooms) })
			return
		}

		respondJSON(w, http.StatusOK, selection.Active(rooms))
	})
}

func RoomHandler(registry storage.Registry, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		room, err := registry.GetRoom(r.Context(), id)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		respondJSON(w, http.StatusOK, room)
	})
}

func RoomHistoryHandler(registry storage.Registry, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := pathId(r)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		history, err := registry.GetRoomHistory(r.Context(), id)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		if wantsHTML(r) {
			writeHTML(w, log, func(buf *bytes.Buffer) error { return view.HistoryRows(buf, history) })
			return
		}

		respondJSON(w, http.StatusOK, history)
	})
}

func MyRentsHandler(registry storage.Registry, settings Settings, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFrom(r.Context())

		rents, err := registry.GetMyRents(r.Context(), session.Caller)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		if wantsHTML(r) {
			writeHTML(w, log, func(buf *bytes.Buffer) error { return view.RentRows(buf, rents, settings.ReferenceYear) })
			return
		}

		respondJSON(w, http.StatusOK, rents)
	})
}

func AccountHandler(registry storage.Registry, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFrom(r.Context())

		balance, err := registry.Balance(r.Context(), session.Caller)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		respondJSON(w, http.StatusOK, models.Account{Address: session.Caller, Balance: pricing.WeiToEther(balance)})
	})
}

func SubmissionsHandler(journal storage.Journal, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		submissions, err := journal.GetSubmissionsByCaller(r.Context(), SessionFrom(r.Context()).Caller)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		respondJSON(w, http.StatusOK, submissions)
	})
}

// resolveRoom reads the selection either from its encoded option value or
// from an index into the active room list.
func resolveRoom(ctx context.Context, registry storage.Registry, cache storage.Cache, log *zap.Logger, encoded string, index *int) (models.Room, error) {
	if index == nil {
		return selection.Decode(encoded)
	}

	rooms, err := loadRooms(ctx, registry, cache, log)
	if err != nil {
		return models.Room{}, err
	}

	return selection.Pick(selection.Active(rooms), *index)
}

func parseStay(checkIn, checkOut string) (int64, int64, error) {
	in, err := dates.ParseDayOffset(checkIn)
	if err != nil {
		return 0, 0, fmt.Errorf("check-in: %w", err)
	}

	out, err := dates.ParseDayOffset(checkOut)
	if err != nil {
		return 0, 0, fmt.Errorf("check-out: %w", err)
	}

	if out <= in {
		return 0, 0, fmt.Errorf("%w: check-out day %d is not after check-in day %d", apperrors.ErrMalformedInput, out, in)
	}

	return in, out, nil
}

func QuoteHandler(registry storage.Registry, cache storage.Cache, settings Settings, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		var index *int
		if raw := query.Get(`roomIndex`); raw != `` {
			i, err := strconv.Atoi(raw)
			if err != nil {
				respondError(w, log, fmt.Errorf("%w: roomIndex %q", apperrors.ErrInvalidSelection, raw), nil)
				return
			}
			index = &i
		}

		room, err := resolveRoom(r.Context(), registry, cache, log, query.Get(`selection`), index)
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		in, out, err := parseStay(query.Get(`checkIn`), query.Get(`checkOut`))
		if err != nil {
			respondError(w, log, err, nil)
			return
		}

		respondJSON(w, http.StatusOK, pricing.NewQuote(room.Price, in, out, settings.ExchangeRate))
	})
}

func NormalizeDateHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{`value`: dates.NormalizeDateInput(r.URL.Query().Get(`value`))})
}

func DisplayHandler(settings Settings, log *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.URL.Query().Get(`amount`)

		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, log, fmt.Errorf("%w: amount %q", apperrors.ErrMalformedInput, raw), nil)
			return
		}

		respondJSON(w, http.StatusOK, map[string]float64{`display`: pricing.ToDisplayCurrency(amount, settings.ExchangeRate)})
	})
}
