package handler

import (
	"net/http"

	"retroprofile-api/internal/config"
	"retroprofile-api/internal/service"
	"retroprofile-api/pkg/apierror"
	"retroprofile-api/pkg/response"
)

// DashboardHandler serves the per-page aggregates.
type DashboardHandler struct {
	cfg       *config.RetroAchievementsConfig
	dashboard *service.DashboardService
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(cfg *config.RetroAchievementsConfig, dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{cfg: cfg, dashboard: dashboard}
}

// Profile handles GET /api/v1/profile
func (h *DashboardHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := targetUser(h.cfg, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rep, err := h.dashboard.Profile(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, rep)
}

// Badges handles GET /api/v1/badges
func (h *DashboardHandler) Badges(w http.ResponseWriter, r *http.Request) {
	user, err := targetUser(h.cfg, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	awards, err := h.dashboard.Badges(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, awards)
}

// GameProgress handles GET /api/v1/game-progress
func (h *DashboardHandler) GameProgress(w http.ResponseWriter, r *http.Request) {
	user, err := targetUser(h.cfg, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rep, err := h.dashboard.GameProgress(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, rep)
}

// GameDetail handles GET /api/v1/games/{gameId}
func (h *DashboardHandler) GameDetail(w http.ResponseWriter, r *http.Request) {
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

	detail, err := h.dashboard.GameDetail(r.Context(), user, gameID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, detail)
}

// Following handles GET /api/v1/following
func (h *DashboardHandler) Following(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Validate(); err != nil {
		writeError(w, r, apierror.ConfigError(err.Error()))
		return
	}

	rep, err := h.dashboard.Following(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, rep)
}

// Followers handles GET /api/v1/followers
func (h *DashboardHandler) Followers(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Validate(); err != nil {
		writeError(w, r, apierror.ConfigError(err.Error()))
		return
	}

	rep, err := h.dashboard.Followers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, rep)
}

// WantToPlay handles GET /api/v1/want-to-play
func (h *DashboardHandler) WantToPlay(w http.ResponseWriter, r *http.Request) {
	user, err := targetUser(h.cfg, r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rep, err := h.dashboard.WantToPlay(r.Context(), user)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, rep)
}

// Consoles handles GET /api/v1/consoles
func (h *DashboardHandler) Consoles(w http.ResponseWriter, r *http.Request) {
	if err := h.cfg.Validate(); err != nil {
		writeError(w, r, apierror.ConfigError(err.Error()))
		return
	}
	response.OK(w, h.dashboard.Consoles(r.Context()))
}
