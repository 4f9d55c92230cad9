package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"retroprofile-api/internal/cache"
	"retroprofile-api/internal/icons"
	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/media"
	"retroprofile-api/internal/model"
	"retroprofile-api/internal/retroapi"
	"retroprofile-api/internal/validation"

	"golang.org/x/sync/errgroup"
)

const (
	recentGamesLimit = 50
	listPageSize     = 500

	memberSinceLayout = "2 Jan 2006, 15:04:05"
)

var upstreamTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// DashboardDeps holds the collaborators of a DashboardService.
type DashboardDeps struct {
	API         RetroAPI
	Icons       *icons.Resolver
	Media       *media.Normalizer
	Cache       cache.Cache
	TTL         time.Duration
	Concurrency int
}

// DashboardService builds the per-page aggregates served by the HTTP API.
type DashboardService struct {
	api         RetroAPI
	icons       *icons.Resolver
	media       *media.Normalizer
	concurrency int

	profiles   *cache.Store[model.ProfileReport]
	progress   *cache.Store[model.GameProgressReport]
	wantToPlay *cache.Store[model.WantToPlayReport]
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(deps DashboardDeps) *DashboardService {
	if deps.Concurrency <= 0 {
		deps.Concurrency = 8
	}
	if deps.TTL <= 0 {
		deps.TTL = 5 * time.Minute
	}
	return &DashboardService{
		api:         deps.API,
		icons:       deps.Icons,
		media:       deps.Media,
		concurrency: deps.Concurrency,
		profiles:    cache.NewStore[model.ProfileReport](deps.Cache, "profile", "profile:", deps.TTL),
		progress:    cache.NewStore[model.GameProgressReport](deps.Cache, "game_progress", "game-progress:", deps.TTL),
		wantToPlay:  cache.NewStore[model.WantToPlayReport](deps.Cache, "want_to_play", "want-to-play:", deps.TTL),
	}
}

// Profile returns the user's summary and the last game they played.
func (s *DashboardService) Profile(ctx context.Context, user string) (model.ProfileReport, error) {
	return s.profiles.GetOrLoad(ctx, user, func(ctx context.Context) (model.ProfileReport, error) {
		return s.loadProfile(ctx, user)
	})
}

func (s *DashboardService) loadProfile(ctx context.Context, user string) (model.ProfileReport, error) {
	summary, err := s.api.GetUserSummary(ctx, user, 1, 1)
	if err != nil {
		return model.ProfileReport{}, fmt.Errorf("fetch user summary: %w", err)
	}
	if summary == nil {
		return model.ProfileReport{}, ErrEmptyResponse
	}

	p := s.enhanceSummary(*summary, user)
	iconMap := s.icons.Snapshot(ctx)

	lastID := summary.LastGameID.Int()
	if lastID == 0 {
		return model.ProfileReport{Profile: &p, Message: "No LastGameID found"}, nil
	}

	recent, err := s.api.GetUserRecentlyPlayedGames(ctx, user, recentGamesLimit)
	if err != nil {
		return model.ProfileReport{}, fmt.Errorf("fetch recently played games: %w", err)
	}

	for _, g := range recent {
		if g.GameID.Int() != lastID {
			continue
		}
		s.media.NormalizeAll(&g.GameIcon, &g.ImageIcon, &g.ImageTitle, &g.ImageIngame, &g.ImageBoxArt)
		g.IconURL = iconMap.IDPtr(g.ConsoleID.Int())
		return model.ProfileReport{Profile: &p, Game: &g}, nil
	}

	return model.ProfileReport{Profile: &p, Message: "LastGameID not found in recent games"}, nil
}

func (s *DashboardService) enhanceSummary(p model.UserSummary, user string) model.UserSummary {
	p.UserPic = s.media.Normalize(p.UserPic)
	if p.MemberSince != "" {
		p.FormattedMemberSince = formatMemberSince(p.MemberSince)
	}
	if p.Status == "" {
		p.Status = "Unknown"
	}
	if p.TotalRanked == 0 {
		p.TotalRanked = p.Rank
	}
	if p.User == "" {
		p.User = user
	}
	if p.LastActivity == nil {
		p.LastActivity = &model.LastActivity{User: p.User}
	}

	if p.LastGame != nil {
		g := *p.LastGame
		s.media.NormalizeAll(&g.ImageIcon, &g.ImageTitle, &g.ImageIngame, &g.ImageBoxArt)
		p.LastGame = &g
	}

	recent := make([]model.RecentGame, len(p.RecentlyPlayed))
	for i, g := range p.RecentlyPlayed {
		s.media.NormalizeAll(&g.ImageIcon, &g.ImageTitle, &g.ImageIngame, &g.ImageBoxArt)
		recent[i] = g
	}
	p.RecentlyPlayed = recent

	if p.RecentAchievements != nil {
		out := make(map[string]map[string]model.RecentAchievement, len(p.RecentAchievements))
		for gameID, achs := range p.RecentAchievements {
			m := make(map[string]model.RecentAchievement, len(achs))
			for id, a := range achs {
				a.BadgeName = s.media.Badge(a.BadgeName)
				m[id] = a
			}
			out[gameID] = m
		}
		p.RecentAchievements = out
	}
	return p
}

func formatMemberSince(raw string) string {
	for _, layout := range upstreamTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(memberSinceLayout)
		}
	}
	return raw
}

// Badges returns the user's visible awards enriched with console icons,
// play mode, completion progress and achievement counts.
func (s *DashboardService) Badges(ctx context.Context, user string) (*model.AwardsResponse, error) {
	var (
		awards    *model.AwardsResponse
		completed []model.CompletedGame
		progress  *model.CompletionProgressPage
		iconMap   *icons.Map
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		awards, err = s.api.GetUserAwards(gctx, user)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = s.api.GetUserCompletedGames(gctx, user)
		return err
	})
	g.Go(func() error {
		var err error
		progress, err = s.api.GetUserCompletionProgress(gctx, user, listPageSize, 0)
		return err
	})
	g.Go(func() error {
		iconMap = s.icons.Snapshot(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch badge data: %w", err)
	}

	if awards == nil || awards.VisibleUserAwards == nil {
		return nil, ErrInvalidAwards
	}

	userProgress := s.userProgress(ctx, user, awardGameIDs(awards.VisibleUserAwards))

	modes := make(map[model.GameModeKey]bool, len(completed))
	for _, c := range completed {
		modes[c.Key()] = true
	}

	byGame := map[int]model.CompletionProgressEntry{}
	if progress != nil {
		for _, e := range progress.Results {
			byGame[e.GameID.Int()] = e
		}
	}

	out := &model.AwardsResponse{
		AwardCounts:       awards.AwardCounts,
		VisibleUserAwards: make([]model.UserAward, len(awards.VisibleUserAwards)),
	}
	for i, a := range awards.VisibleUserAwards {
		gameID := a.AwardData.Int()

		a.ImageIcon = s.media.Normalize(a.ImageIcon)
		a.IconURL = iconMap.IDPtr(a.ConsoleID.Int())
		a.HardcoreMode = hardcoreMode(modes, gameID)

		if e, ok := byGame[gameID]; ok {
			a.CompletionProgress = &e
		}

		up := userProgress[strconv.Itoa(gameID)]
		a.UserProgress = &model.UserProgress{
			NumAchieved:           up.NumAchieved,
			ScoreAchieved:         up.ScoreAchieved,
			NumAchievedHardcore:   up.NumAchievedHardcore,
			ScoreAchievedHardcore: up.ScoreAchievedHardcore,
		}
		out.VisibleUserAwards[i] = a
	}
	return out, nil
}

// hardcoreMode prefers the hardcore row when a game was completed in both modes.
func hardcoreMode(modes map[model.GameModeKey]bool, gameID int) *string {
	for _, mode := range []string{"1", "0"} {
		if modes[model.GameModeKey{GameID: gameID, HardcoreMode: mode}] {
			m := mode
			return &m
		}
	}
	return nil
}

func awardGameIDs(awards []model.UserAward) []int {
	seen := make(map[int]bool, len(awards))
	ids := make([]int, 0, len(awards))
	for _, a := range awards {
		id := a.AwardData.Int()
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// userProgress fetches progress in batches. A failed batch is logged and
// its games fall back to zero counts.
func (s *DashboardService) userProgress(ctx context.Context, user string, ids []int) map[string]model.UserProgress {
	out := make(map[string]model.UserProgress, len(ids))
	for start := 0; start < len(ids); start += retroapi.MaxProgressBatch {
		end := min(start+retroapi.MaxProgressBatch, len(ids))
		batch, err := s.api.GetUserProgress(ctx, user, ids[start:end])
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).
				Int("batch", start/retroapi.MaxProgressBatch+1).
				Msg("[Dashboard] progress fetch failed for batch")
			continue
		}
		for k, v := range batch {
			out[k] = v
		}
	}
	return out
}

// GameProgress returns every game the user has started, each with its
// detail and hashes.
func (s *DashboardService) GameProgress(ctx context.Context, user string) (model.GameProgressReport, error) {
	return s.progress.GetOrLoad(ctx, user, func(ctx context.Context) (model.GameProgressReport, error) {
		return s.loadGameProgress(ctx, user)
	})
}

func (s *DashboardService) loadGameProgress(ctx context.Context, user string) (model.GameProgressReport, error) {
	iconMap := s.icons.Snapshot(ctx)

	list, err := s.api.GetUserCompletionProgress(ctx, user, listPageSize, 0)
	if err != nil {
		return model.GameProgressReport{}, fmt.Errorf("fetch completion progress: %w", err)
	}
	if list == nil {
		return model.GameProgressReport{}, ErrEmptyResponse
	}

	results := make([]model.GameProgressEntry, len(list.Results))

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, game := range list.Results {
		g.Go(func() error {
			results[i] = s.progressEntry(ctx, user, game, iconMap)
			return nil
		})
	}
	_ = g.Wait()

	backfillConsoleIcons(results)

	return model.GameProgressReport{
		Count:   list.Count,
		Total:   list.Total,
		Results: results,
	}, nil
}

func (s *DashboardService) progressEntry(ctx context.Context, user string, game model.CompletionProgressEntry, iconMap *icons.Map) model.GameProgressEntry {
	game.ImageIcon = s.media.Normalize(game.ImageIcon)
	entry := model.GameProgressEntry{
		CompletionProgressEntry: game,
		ConsoleIcon:             iconMap.IDPtr(game.ConsoleID.Int()),
	}
	gameID := game.GameID.Int()

	var (
		info   *model.GameInfo
		hashes []model.GameHash
	)
	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		info, err = s.api.GetGameInfoAndUserProgress(ectx, user, gameID, true)
		return err
	})
	eg.Go(func() error {
		var err error
		hashes, err = s.api.GetGameHashes(ectx, gameID)
		return err
	})
	if err := eg.Wait(); err != nil || info == nil {
		logging.Ctx(ctx).Warn().Err(err).Int("game_id", gameID).Msg("[Dashboard] game detail fetch failed")
		entry.Hashes = []model.GameHash{}
		entry.Error = fmt.Sprintf("Failed to fetch detail/hash for GameID %d", gameID)
		return entry
	}

	gp := info.GameProgress
	s.media.NormalizeAll(&gp.ImageTitle, &gp.ImageIngame, &gp.ImageBoxArt)
	entry.UserProgress = &gp
	entry.Hashes = hashes
	return entry
}

// backfillConsoleIcons copies a console icon onto rows of the same console
// that did not resolve one.
func backfillConsoleIcons(rows []model.GameProgressEntry) {
	byName := map[string]*string{}
	for _, r := range rows {
		if r.ConsoleIcon != nil && r.ConsoleName != "" {
			byName[r.ConsoleName] = r.ConsoleIcon
		}
	}
	for i := range rows {
		if rows[i].ConsoleIcon == nil {
			rows[i].ConsoleIcon = byName[rows[i].ConsoleName]
		}
	}
}

// GameDetail returns one game with the user's progress and its hashes. A
// hash failure leaves the hash list empty.
func (s *DashboardService) GameDetail(ctx context.Context, user string, gameID int) (*model.GameDetail, error) {
	if err := validation.GameID(gameID); err != nil {
		return nil, ErrInvalidGameID
	}

	var (
		info   *model.GameInfo
		hashes []model.GameHash
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = s.api.GetGameInfoAndUserProgress(gctx, user, gameID, true)
		return err
	})
	g.Go(func() error {
		var err error
		hashes, err = s.api.GetGameHashes(gctx, gameID)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Int("game_id", gameID).Msg("[Dashboard] hash fetch failed")
			hashes = []model.GameHash{}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetch game detail: %w", err)
	}
	if isEmptyGame(info) {
		return nil, ErrGameNotFound
	}

	gp := info.GameProgress
	s.media.NormalizeAll(&gp.ImageTitle, &gp.ImageIngame, &gp.ImageBoxArt)
	achievements := make(map[int]model.Achievement, len(info.Achievements))
	for id, a := range info.Achievements {
		a.BadgeName = s.media.Badge(a.BadgeName)
		achievements[id] = a
	}

	return &model.GameDetail{
		GameID:                info.ID,
		Title:                 info.Title,
		ConsoleID:             info.ConsoleID,
		ConsoleName:           info.ConsoleName,
		ImageIcon:             s.media.Normalize(info.ImageIcon),
		ParentGameID:          info.ParentGameID,
		MaxPossible:           gp.NumAchievements,
		NumAwarded:            gp.NumAwardedToUser,
		MostRecentAwardedDate: gp.MostRecentAwardedDate,
		HighestAwardKind:      gp.HighestAwardKind,
		HighestAwardDate:      gp.HighestAwardDate,
		Hashes:                hashes,
		UserProgress:          &model.GameDetailProgress{GameProgress: gp, Achievements: achievements},
	}, nil
}

func isEmptyGame(info *model.GameInfo) bool {
	return info == nil || (info.ID == 0 && info.Title == "")
}

// Following lists the users the API key owner follows.
func (s *DashboardService) Following(ctx context.Context) (model.FollowReport, error) {
	page, err := s.api.GetUsersIFollow(ctx, listPageSize, 0)
	if err != nil {
		return model.FollowReport{}, fmt.Errorf("fetch following: %w", err)
	}
	return s.followReport(page), nil
}

// Followers lists the users following the API key owner.
func (s *DashboardService) Followers(ctx context.Context) (model.FollowReport, error) {
	page, err := s.api.GetUsersFollowingMe(ctx, listPageSize, 0)
	if err != nil {
		return model.FollowReport{}, fmt.Errorf("fetch followers: %w", err)
	}
	return s.followReport(page), nil
}

func (s *DashboardService) followReport(page *model.FollowPage) model.FollowReport {
	users := []model.FollowUser{}
	if page != nil {
		for _, u := range page.Results {
			u.UserPic = s.media.UserPic(u.User)
			users = append(users, u)
		}
	}
	return model.FollowReport{Count: len(users), Results: users}
}

// WantToPlay returns the user's want-to-play list.
func (s *DashboardService) WantToPlay(ctx context.Context, user string) (model.WantToPlayReport, error) {
	return s.wantToPlay.GetOrLoad(ctx, user, func(ctx context.Context) (model.WantToPlayReport, error) {
		page, err := s.api.GetUserWantToPlayList(ctx, user, listPageSize, 0)
		if err != nil {
			return model.WantToPlayReport{}, fmt.Errorf("fetch want to play list: %w", err)
		}
		iconMap := s.icons.Snapshot(ctx)

		items := []model.WantToPlayItem{}
		var count, total int
		if page != nil {
			for _, it := range page.Results {
				it.ImageIcon = s.media.NormalizePtr(it.ImageIcon)
				it.IconURL = iconMap.IDPtr(it.ConsoleID.Int())
				items = append(items, it)
			}
			count, total = page.Count.Int(), page.Total.Int()
		}
		if count == 0 {
			count = len(items)
		}
		if total == 0 {
			total = len(items)
		}
		return model.WantToPlayReport{Count: count, Total: total, WantToPlayList: items}, nil
	})
}

// Consoles lists the active game systems with their icon URLs.
func (s *DashboardService) Consoles(ctx context.Context) []model.ConsoleIcon {
	return s.icons.Consoles(ctx)
}
