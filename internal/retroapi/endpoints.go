package retroapi

import (
	"context"

	"retroprofile-api/internal/model"
)

// MaxProgressBatch is the largest id list API_GetUserProgress accepts.
const MaxProgressBatch = 500

// GetUserProfile returns the identity block for user.
func (c *Client) GetUserProfile(ctx context.Context, user string) (*model.UserProfile, error) {
	req := newAPIRequest("API_GetUserProfile").addParam("u", user)
	return fetch[*model.UserProfile](ctx, c, req)
}

// GetUserSummary returns the extended summary with recent games and achievements.
func (c *Client) GetUserSummary(ctx context.Context, user string, recentGames, recentAchievements int) (*model.UserSummary, error) {
	req := newAPIRequest("API_GetUserSummary").
		addParam("u", user).
		addIntParam("g", recentGames).
		addIntParam("a", recentAchievements)
	return fetch[*model.UserSummary](ctx, c, req)
}

// GetUserAwards returns award counters and the visible awards.
func (c *Client) GetUserAwards(ctx context.Context, user string) (*model.AwardsResponse, error) {
	req := newAPIRequest("API_GetUserAwards").addParam("u", user)
	return fetch[*model.AwardsResponse](ctx, c, req)
}

// GetUserCompletedGames returns one row per (game, mode) the user completed.
func (c *Client) GetUserCompletedGames(ctx context.Context, user string) ([]model.CompletedGame, error) {
	req := newAPIRequest("API_GetUserCompletedGames").addParam("u", user)
	return fetch[[]model.CompletedGame](ctx, c, req)
}

// GetGameInfoAndUserProgress returns game metadata with the user's progress.
// awardMetadata adds the user's highest award kind and date.
func (c *Client) GetGameInfoAndUserProgress(ctx context.Context, user string, gameID int, awardMetadata bool) (*model.GameInfo, error) {
	req := newAPIRequest("API_GetGameInfoAndUserProgress").
		addIntParam("g", gameID).
		addParam("u", user).
		addFlag("a", awardMetadata)
	return fetch[*model.GameInfo](ctx, c, req)
}

// GetGameHashes returns the ROM hashes recognised for a game.
func (c *Client) GetGameHashes(ctx context.Context, gameID int) ([]model.GameHash, error) {
	req := newAPIRequest("API_GetGameHashes").addIntParam("i", gameID)
	list, err := fetch[model.GameHashList](ctx, c, req)
	if err != nil {
		return nil, err
	}
	if list.Results == nil {
		return []model.GameHash{}, nil
	}
	return list.Results, nil
}

// GetAchievementDistribution returns unlock-count buckets for a game.
func (c *Client) GetAchievementDistribution(ctx context.Context, gameID int, hardcoreOnly bool) (model.AchievementDistribution, error) {
	req := newAPIRequest("API_GetAchievementDistribution").
		addIntParam("i", gameID).
		addFlag("h", hardcoreOnly)
	return fetch[model.AchievementDistribution](ctx, c, req)
}

// GetConsoleIDs lists consoles.
func (c *Client) GetConsoleIDs(ctx context.Context, activeOnly, gameSystemsOnly bool) ([]model.ConsoleDescriptor, error) {
	req := newAPIRequest("API_GetConsoleIDs").
		addFlag("a", activeOnly).
		addFlag("g", gameSystemsOnly)
	return fetch[[]model.ConsoleDescriptor](ctx, c, req)
}

// GetUserCompletionProgress returns a page of the user's per-game progress.
func (c *Client) GetUserCompletionProgress(ctx context.Context, user string, count, offset int) (*model.CompletionProgressPage, error) {
	req := newAPIRequest("API_GetUserCompletionProgress").
		addParam("u", user).
		addIntParam("c", count).
		addIntParam("o", offset)
	return fetch[*model.CompletionProgressPage](ctx, c, req)
}

// GetUserProgress returns progress keyed by game id for up to
// MaxProgressBatch games.
func (c *Client) GetUserProgress(ctx context.Context, user string, gameIDs []int) (map[string]model.UserProgress, error) {
	if len(gameIDs) == 0 {
		return map[string]model.UserProgress{}, nil
	}
	req := newAPIRequest("API_GetUserProgress").
		addParam("u", user).
		addIntList("i", gameIDs)
	progress, err := fetch[model.FlexMap[string, model.UserProgress]](ctx, c, req)
	if err != nil {
		return nil, err
	}
	return progress, nil
}

// GetUsersIFollow lists users the API key owner follows.
func (c *Client) GetUsersIFollow(ctx context.Context, count, offset int) (*model.FollowPage, error) {
	req := newAPIRequest("API_GetUsersIFollow").
		addIntParam("c", count).
		addIntParam("o", offset)
	return fetch[*model.FollowPage](ctx, c, req)
}

// GetUsersFollowingMe lists users following the API key owner.
func (c *Client) GetUsersFollowingMe(ctx context.Context, count, offset int) (*model.FollowPage, error) {
	req := newAPIRequest("API_GetUsersFollowingMe").
		addIntParam("c", count).
		addIntParam("o", offset)
	return fetch[*model.FollowPage](ctx, c, req)
}

// GetUserWantToPlayList returns a page of the user's want-to-play list.
func (c *Client) GetUserWantToPlayList(ctx context.Context, user string, count, offset int) (*model.WantToPlayPage, error) {
	req := newAPIRequest("API_GetUserWantToPlayList").
		addParam("u", user).
		addIntParam("c", count).
		addIntParam("o", offset)
	return fetch[*model.WantToPlayPage](ctx, c, req)
}

// GetUserRecentlyPlayedGames returns up to count recently played games.
func (c *Client) GetUserRecentlyPlayedGames(ctx context.Context, user string, count int) ([]model.RecentGame, error) {
	req := newAPIRequest("API_GetUserRecentlyPlayedGames").
		addParam("u", user).
		addIntParam("c", count)
	return fetch[[]model.RecentGame](ctx, c, req)
}
