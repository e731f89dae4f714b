package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"sentinel-echo/internal/cache"
	"sentinel-echo/internal/service"
)

// GameHandler serves the read-only admin endpoints.
type GameHandler struct {
	soulSvc     *service.SoulService
	pvpSvc      *service.PvPService
	leaderboard cache.LeaderboardCache
}

func NewGameHandler(soulSvc *service.SoulService, pvpSvc *service.PvPService, leaderboard cache.LeaderboardCache) *GameHandler {
	return &GameHandler{
		soulSvc:     soulSvc,
		pvpSvc:      pvpSvc,
		leaderboard: leaderboard,
	}
}

// HallOfFame handles GET /v1/fame
func (h *GameHandler) HallOfFame(w http.ResponseWriter, r *http.Request) {
	records, err := h.soulSvc.HallOfFame(r.Context(), limitParam(r, 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// TopSouls handles GET /v1/souls/top
func (h *GameHandler) TopSouls(w http.ResponseWriter, r *http.Request) {
	limit := limitParam(r, 10)

	// Serve from the Redis mirror when available.
	if h.leaderboard != nil {
		if entries, err := h.leaderboard.TopSouls(r.Context(), limit); err == nil && len(entries) > 0 {
			writeJSON(w, http.StatusOK, entries)
			return
		}
	}

	players, err := h.soulSvc.TopSouls(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	entries := make([]cache.Entry, len(players))
	for i, p := range players {
		entries[i] = cache.Entry{TelegramID: p.TelegramID, Score: p.Soul.Current, Rank: i + 1}
	}
	writeJSON(w, http.StatusOK, entries)
}

// TopRatings handles GET /v1/ratings/top
func (h *GameHandler) TopRatings(w http.ResponseWriter, r *http.Request) {
	if h.leaderboard == nil {
		writeError(w, http.StatusServiceUnavailable, "leaderboard cache not configured")
		return
	}
	entries, err := h.leaderboard.TopRatings(r.Context(), limitParam(r, 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// LeagueTop handles GET /v1/leagues/{name}/top
func (h *GameHandler) LeagueTop(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	players, err := h.pvpSvc.GetLeagueTop(r.Context(), name, limitParam(r, 10))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if players == nil {
		writeError(w, http.StatusNotFound, "league not found")
		return
	}

	type row struct {
		TelegramID int64  `json:"telegramId"`
		Username   string `json:"username"`
		Rating     int    `json:"rating"`
		Wins       int    `json:"wins"`
		Losses     int    `json:"losses"`
	}
	rows := make([]row, len(players))
	for i, p := range players {
		rows[i] = row{
			TelegramID: p.TelegramID,
			Username:   p.Username,
			Rating:     p.PvP.Rating,
			Wins:       p.PvP.Wins,
			Losses:     p.PvP.Losses,
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

// PlayerStats handles GET /v1/players/{id}/stats
func (h *GameHandler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	stats, err := h.pvpSvc.GetPlayerStats(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// PlayerSoul handles GET /v1/players/{id}/soul
func (h *GameHandler) PlayerSoul(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	status, err := h.soulSvc.Status(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// PlayerLeague handles GET /v1/players/{id}/league
func (h *GameHandler) PlayerLeague(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	stats, err := h.pvpSvc.GetLeagueStats(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid player id")
		return 0, false
	}
	return id, true
}

func limitParam(r *http.Request, fallback int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			return n
		}
	}
	return fallback
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPlayerNotFound),
		errors.Is(err, service.ErrSoulNotInitialized):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
