package router

import (
	"net/http"

	"roomShare/internal/handlers"
	"roomShare/internal/storage"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func New(registry storage.Registry, cache storage.Cache, journal storage.Journal, settings handlers.Settings, allowedOrigins []string, log *zap.Logger) http.Handler {
	router := mux.NewRouter()

	auth := func(h http.Handler) http.Handler {
		return handlers.AuthorizationMiddleware(h, cache, settings.JWTKey)
	}

	router.Handle(`/`, handlers.PageHandler(settings, log)).Methods(`GET`)
	router.HandleFunc(`/dates/normalize`, handlers.NormalizeDateHandler).Methods(`GET`)
	router.Handle(`/display`, handlers.DisplayHandler(settings, log)).Methods(`GET`)
	router.Handle(`/login`, handlers.LoginHandler(registry, cache, settings, log)).Methods(`POST`)

	router.Handle(`/logout`, auth(handlers.LogoutHandler(cache, log))).Methods(`POST`)
	router.Handle(`/account`, auth(handlers.AccountHandler(registry, log))).Methods(`GET`)
	router.Handle(`/rooms`, auth(handlers.AllRoomsHandler(registry, cache, log))).Methods(`GET`)
	router.Handle(`/rooms/options`, auth(handlers.RoomOptionsHandler(registry, cache, log))).Methods(`GET`)
	router.Handle(`/rooms/share`, auth(handlers.ShareRoomHandler(registry, cache, journal, settings, log))).Methods(`POST`)
	router.Handle(`/rooms/{id:[0-9]+}`, auth(handlers.RoomHandler(registry, log))).Methods(`GET`)
	router.Handle(`/rooms/{id:[0-9]+}/history`, auth(handlers.RoomHistoryHandler(registry, log))).Methods(`GET`)
	router.Handle(`/rents/mine`, auth(handlers.MyRentsHandler(registry, settings, log))).Methods(`GET`)
	router.Handle(`/rents`, auth(handlers.RentRoomHandler(registry, cache, journal, settings, log))).Methods(`POST`)
	router.Handle(`/quote`, auth(handlers.QuoteHandler(registry, cache, settings, log))).Methods(`GET`)
	router.Handle(`/submissions`, auth(handlers.SubmissionsHandler(journal, log))).Methods(`GET`)

	handler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{`GET`, `POST`, `OPTIONS`},
		AllowedHeaders:   []string{`Content-Type`, `Authorization`},
		AllowCredentials: true,
	}).Handler(router)

	return handler
}
