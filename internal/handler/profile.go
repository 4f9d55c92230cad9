package handler

import (
	"net/http"

	"retroprofile-api/internal/config"
	"retroprofile-api/internal/service"
	"retroprofile-api/pkg/apierror"
	"retroprofile-api/pkg/response"
)

// ProfileHandler serves the aggregated profile bundle and the per-game
// lookups that accompany it.
type ProfileHandler struct {
	cfg      *config.RetroAchievementsConfig
	profiles *service.ProfileService
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(cfg *config.RetroAchievementsConfig, profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{cfg: cfg, profiles: profiles}
}

// Bundle handles GET /api/v1/bundle
func (h *ProfileHandler) Bundle(w http.ResponseWriter, r *http.Request) {
	user, err := targetUser(h.cfg, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	b := h.profiles.Lookup(r.Context(), user)
	if b == nil {
		writeError(w, r, service.ErrInvalidUsername)
		return
	}
	if b.Failed() {
		response.Error(w, apierror.InternalError(b.Error))
		return
	}
	response.OK(w, b)
}

// GameInfo handles GET /api/v1/games/{gameId}/info
func (h *ProfileHandler) GameInfo(w http.ResponseWriter, r *http.Request) {
	user, err := targetUser(h.cfg, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	gameID, err := gameIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	info, err := h.profiles.GameInfo(r.Context(), user, gameID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, info)
}

// GameHashes handles GET /api/v1/games/{gameId}/hashes
func (h *ProfileHandler) GameHashes(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Validate(); err != nil {
		writeError(w, r, apierror.ConfigError(err.Error()))
		return
	}
	gameID, err := gameIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	hashes, err := h.profiles.GameHashes(r.Context(), gameID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, hashes)
}

// Distribution handles GET /api/v1/games/{gameId}/distribution?hardcore=true
func (h *ProfileHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Validate(); err != nil {
		writeError(w, r, apierror.ConfigError(err.Error()))
		return
	}
	gameID, err := gameIDParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	hardcore := r.URL.Query().Get("hardcore")
	dist, err := h.profiles.AchievementDistribution(r.Context(), gameID, hardcore == "true" || hardcore == "1")
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, dist)
}
