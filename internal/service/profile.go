package service

import (
	"context"
	"fmt"

	"retroprofile-api/internal/cache"
	"retroprofile-api/internal/icons"
	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/media"
	"retroprofile-api/internal/metrics"
	"retroprofile-api/internal/model"
	"retroprofile-api/internal/validation"

	"golang.org/x/sync/errgroup"
)

// ProfileService aggregates a user's profile, awards and completed games
// into one bundle, and serves the per-game lookups that hang off it.
type ProfileService struct {
	api     RetroAPI
	icons   *icons.Resolver
	media   *media.Normalizer
	bundles *cache.Store[model.Bundle]
}

// NewProfileService creates a profile service.
func NewProfileService(api RetroAPI, resolver *icons.Resolver, norm *media.Normalizer, bundles *cache.Store[model.Bundle]) *ProfileService {
	return &ProfileService{
		api:     api,
		icons:   resolver,
		media:   norm,
		bundles: bundles,
	}
}

// Lookup returns the bundle for username.
//
// An invalid username yields nil without any network call. A cached bundle is
// returned without network calls. Otherwise profile, awards and completed
// games are fetched concurrently; if any fails, the result carries only the
// error message and nothing is cached.
func (s *ProfileService) Lookup(ctx context.Context, username string) *model.Bundle {
	if err := validation.Username(username); err != nil {
		metrics.ProfileLookups.WithLabelValues("invalid").Inc()
		return nil
	}

	if b, ok := s.bundles.Get(ctx, username); ok {
		metrics.ProfileLookups.WithLabelValues("cached").Inc()
		return &b
	}

	var (
		profile   *model.UserProfile
		awards    *model.AwardsResponse
		completed []model.CompletedGame
		iconMap   *icons.Map
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.api.GetUserProfile(gctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		awards, err = s.api.GetUserAwards(gctx, username)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = s.api.GetUserCompletedGames(gctx, username)
		return err
	})
	g.Go(func() error {
		iconMap = s.icons.Snapshot(gctx)
		return nil
	})

	err := g.Wait()
	if err == nil && (profile == nil || awards == nil) {
		err = ErrEmptyResponse
	}
	if err != nil {
		metrics.ProfileLookups.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Error().Err(err).Str("user", username).Msg("[Profile] error fetching user data")
		return model.FailedBundle()
	}

	b := s.assemble(profile, awards, completed, iconMap)
	if err := s.bundles.Set(ctx, username, *b); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("user", username).Msg("[Profile] failed to cache bundle")
	}

	metrics.ProfileLookups.WithLabelValues("fetched").Inc()
	return b
}

func (s *ProfileService) assemble(profile *model.UserProfile, awards *model.AwardsResponse, completed []model.CompletedGame, iconMap *icons.Map) *model.Bundle {
	p := *profile
	p.UserPic = s.media.Normalize(p.UserPic)

	consoles := newConsoleSet(iconMap)

	games := make([]model.CompletedGame, len(completed))
	for i, g := range completed {
		g.ImageIcon = s.media.Normalize(g.ImageIcon)
		g.ConsoleIcon = consoles.add(g.ConsoleID.Int(), g.ConsoleName)
		games[i] = g
	}

	userAwards := make([]model.UserAward, len(awards.VisibleUserAwards))
	for i, a := range awards.VisibleUserAwards {
		a.ImageIcon = s.media.Normalize(a.ImageIcon)
		a.IconURL = consoles.add(a.ConsoleID.Int(), a.ConsoleName)
		userAwards[i] = a
	}

	counts := awards.AwardCounts

	return &model.Bundle{
		Profile:        &p,
		CompletedGames: games,
		UserAwards:     userAwards,
		AwardCounts:    &counts,
		Consoles:       consoles.list,
	}
}

// consoleSet collects the distinct consoles a bundle refers to.
type consoleSet struct {
	icons *icons.Map
	seen  map[string]bool
	list  []model.ConsoleIcon
}

func newConsoleSet(m *icons.Map) *consoleSet {
	return &consoleSet{icons: m, seen: map[string]bool{}, list: []model.ConsoleIcon{}}
}

func (c *consoleSet) add(id int, name string) *string {
	var u *string
	if id > 0 {
		u = c.icons.IDPtr(id)
	}
	if u == nil && name != "" {
		u = c.icons.NamePtr(name)
	}
	if u != nil && !c.seen[name] {
		c.seen[name] = true
		c.list = append(c.list, model.ConsoleIcon{ID: id, Name: name, IconURL: *u})
	}
	return u
}

// GameInfo returns the user's progress in one game, with media normalized.
// It never touches the bundle cache.
func (s *ProfileService) GameInfo(ctx context.Context, username string, gameID int) (*model.GameInfo, error) {
	if err := validation.Username(username); err != nil {
		return nil, ErrInvalidUsername
	}
	if err := validation.GameID(gameID); err != nil {
		return nil, ErrInvalidGameID
	}

	info, err := s.api.GetGameInfoAndUserProgress(ctx, username, gameID, true)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("game_id", gameID).Msg("[Profile] error fetching game info")
		return nil, fmt.Errorf("fetch game info: %w", err)
	}
	if isEmptyGame(info) {
		return nil, ErrGameNotFound
	}

	out := *info
	s.media.NormalizeAll(&out.ImageIcon, &out.ImageTitle, &out.ImageIngame, &out.ImageBoxArt)
	out.Achievements = s.badgeURLs(info.Achievements)
	return &out, nil
}

// GameHashes returns the ROM hashes for a game.
func (s *ProfileService) GameHashes(ctx context.Context, gameID int) ([]model.GameHash, error) {
	if err := validation.GameID(gameID); err != nil {
		return nil, ErrInvalidGameID
	}

	hashes, err := s.api.GetGameHashes(ctx, gameID)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("game_id", gameID).Msg("[Profile] error fetching game hashes")
		return nil, fmt.Errorf("fetch game hashes: %w", err)
	}
	return hashes, nil
}

// AchievementDistribution returns unlock-count buckets, optionally counting
// hardcore unlocks only.
func (s *ProfileService) AchievementDistribution(ctx context.Context, gameID int, hardcoreOnly bool) (model.AchievementDistribution, error) {
	if err := validation.GameID(gameID); err != nil {
		return nil, ErrInvalidGameID
	}

	dist, err := s.api.GetAchievementDistribution(ctx, gameID, hardcoreOnly)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Int("game_id", gameID).Msg("[Profile] error fetching achievement distribution")
		return nil, fmt.Errorf("fetch achievement distribution: %w", err)
	}
	return dist, nil
}

func (s *ProfileService) badgeURLs(in map[int]model.Achievement) map[int]model.Achievement {
	if in == nil {
		return nil
	}
	out := make(map[int]model.Achievement, len(in))
	for id, a := range in {
		a.BadgeName = s.media.Badge(a.BadgeName)
		out[id] = a
	}
	return out
}
