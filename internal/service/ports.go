package service

import (
	"context"
	"errors"

	"retroprofile-api/internal/model"
)

// RetroAPI is the upstream surface the services depend on.
type RetroAPI interface {
	GetUserProfile(ctx context.Context, user string) (*model.UserProfile, error)
	GetUserSummary(ctx context.Context, user string, recentGames, recentAchievements int) (*model.UserSummary, error)
	GetUserAwards(ctx context.Context, user string) (*model.AwardsResponse, error)
	GetUserCompletedGames(ctx context.Context, user string) ([]model.CompletedGame, error)
	GetGameInfoAndUserProgress(ctx context.Context, user string, gameID int, awardMetadata bool) (*model.GameInfo, error)
	GetGameHashes(ctx context.Context, gameID int) ([]model.GameHash, error)
	GetAchievementDistribution(ctx context.Context, gameID int, hardcoreOnly bool) (model.AchievementDistribution, error)
	GetConsoleIDs(ctx context.Context, activeOnly, gameSystemsOnly bool) ([]model.ConsoleDescriptor, error)
	GetUserCompletionProgress(ctx context.Context, user string, count, offset int) (*model.CompletionProgressPage, error)
	GetUserProgress(ctx context.Context, user string, gameIDs []int) (map[string]model.UserProgress, error)
	GetUsersIFollow(ctx context.Context, count, offset int) (*model.FollowPage, error)
	GetUsersFollowingMe(ctx context.Context, count, offset int) (*model.FollowPage, error)
	GetUserWantToPlayList(ctx context.Context, user string, count, offset int) (*model.WantToPlayPage, error)
	GetUserRecentlyPlayedGames(ctx context.Context, user string, count int) ([]model.RecentGame, error)
}

var (
	// ErrInvalidUsername is returned for usernames outside [A-Za-z0-9]+.
	ErrInvalidUsername = errors.New("invalid username")
	// ErrInvalidGameID is returned for non-positive game ids.
	ErrInvalidGameID = errors.New("missing or invalid gameId")
	// ErrGameNotFound is returned when upstream has no data for a game.
	ErrGameNotFound = errors.New("game not found")
	// ErrInvalidAwards is returned when the awards payload has no award list.
	ErrInvalidAwards = errors.New("invalid awards data structure")
	// ErrEmptyResponse is returned when upstream answers with an empty body.
	ErrEmptyResponse = errors.New("empty response from RetroAchievements API")
)
