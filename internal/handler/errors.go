package handler

import (
	"errors"
	"net/http"
	"strconv"

	"retroprofile-api/internal/config"
	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/retroapi"
	"retroprofile-api/internal/service"
	"retroprofile-api/internal/validation"
	"retroprofile-api/pkg/apierror"
	"retroprofile-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// writeError maps service and upstream errors onto API errors.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierror.Error
	switch {
	case errors.As(err, &apiErr):
	case errors.Is(err, service.ErrInvalidUsername), errors.Is(err, service.ErrInvalidGameID):
		apiErr = apierror.BadRequest(err.Error())
	case errors.Is(err, service.ErrGameNotFound):
		apiErr = apierror.NotFound(err.Error())
	case errors.Is(err, service.ErrInvalidAwards), errors.Is(err, service.ErrEmptyResponse):
		apiErr = apierror.InternalError(err.Error())
	default:
		var fe *retroapi.FetchError
		if errors.As(err, &fe) {
			apiErr = apierror.BadGateway(err.Error())
		} else {
			apiErr = apierror.InternalError("")
		}
	}

	if apiErr.StatusCode >= http.StatusInternalServerError {
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	response.Error(w, apiErr)
}

// targetUser resolves the user a request is about. Missing credentials or a
// missing default user are configuration errors; malformed names are 400s.
func targetUser(cfg *config.RetroAchievementsConfig, r *http.Request) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", apierror.ConfigError(err.Error())
	}

	q := r.URL.Query()
	requested := q.Get("targetUser")
	if requested == "" {
		requested = q.Get("username")
	}

	user, err := cfg.TargetUser(requested)
	if err != nil {
		return "", apierror.ConfigError(err.Error())
	}
	if err := validation.Username(user); err != nil {
		return "", service.ErrInvalidUsername
	}
	return user, nil
}

func gameIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "gameId"))
	if err != nil || validation.GameID(id) != nil {
		return 0, service.ErrInvalidGameID
	}
	return id, nil
}
