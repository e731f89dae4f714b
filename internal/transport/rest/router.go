package rest

import (
	"net/http"

	"github.com/gorilla/mux"

	"sentinel-echo/internal/cache"
	"sentinel-echo/internal/service"
	"sentinel-echo/internal/transport/rest/handler"
)

// Container holds all dependencies for the router.
type Container struct {
	SoulService *service.SoulService
	PvPService  *service.PvPService
	Leaderboard cache.LeaderboardCache
}

// NewRouter builds the read-only admin API. Everything here is a plain
// consumer of the game services; no state is mutated over HTTP.
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	h := handler.NewGameHandler(c.SoulService, c.PvPService, c.Leaderboard)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/fame", h.HallOfFame).Methods("GET")
	v1.HandleFunc("/souls/top", h.TopSouls).Methods("GET")
	v1.HandleFunc("/ratings/top", h.TopRatings).Methods("GET")
	v1.HandleFunc("/leagues/{name}/top", h.LeagueTop).Methods("GET")
	v1.HandleFunc("/players/{id}/stats", h.PlayerStats).Methods("GET")
	v1.HandleFunc("/players/{id}/soul", h.PlayerSoul).Methods("GET")
	v1.HandleFunc("/players/{id}/league", h.PlayerLeague).Methods("GET")

	return r
}
