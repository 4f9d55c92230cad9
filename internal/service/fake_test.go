package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"retroprofile-api/internal/cache"
	"retroprofile-api/internal/icons"
	"retroprofile-api/internal/media"
	"retroprofile-api/internal/model"
)

var errUpstream = errors.New("upstream down")

// fakeAPI serves canned data and counts calls per endpoint.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error
	delay time.Duration

	// slowUser blocks GetUserProfile until the context is cancelled.
	slowUser string
	// gameInfoGate, when set, holds GetGameInfoAndUserProgress until closed.
	// gameInfoStarted receives once per call that reaches the gate.
	gameInfoGate    chan struct{}
	gameInfoStarted chan struct{}

	profile    *model.UserProfile
	summary    *model.UserSummary
	awards     *model.AwardsResponse
	completed  []model.CompletedGame
	gameInfo   map[int]*model.GameInfo
	hashes     map[int][]model.GameHash
	dist       model.AchievementDistribution
	consoles   []model.ConsoleDescriptor
	completion *model.CompletionProgressPage
	progress   map[string]model.UserProgress
	follows    *model.FollowPage
	wantToPlay *model.WantToPlayPage
	recent     []model.RecentGame

	progressBatches [][]int
	lastHardcore    bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls: map[string]int{},
		errs:  map[string]error{},
		profile: &model.UserProfile{
			User:        "Reiivan",
			UserPic:     "/UserPic/Reiivan.png",
			TotalPoints: 1200,
		},
		awards: &model.AwardsResponse{
			AwardCounts: model.AwardCounts{
				TotalAwardsCount:          12,
				HiddenAwardsCount:         1,
				MasteryAwardsCount:        4,
				CompletionAwardsCount:     2,
				BeatenHardcoreAwardsCount: 3,
				BeatenSoftcoreAwardsCount: 1,
				EventAwardsCount:          1,
				SiteAwardsCount:           0,
			},
			VisibleUserAwards: []model.UserAward{
				{AwardType: "Mastery/Completion", AwardData: 1234, ConsoleID: 1, ConsoleName: "Genesis/Mega Drive", ImageIcon: "/Images/000001.png"},
				{AwardType: "Game Beaten", AwardData: 55, ConsoleID: 7, ConsoleName: "NES/Famicom", ImageIcon: "https://cdn.example/abs.png"},
			},
		},
		completed: []model.CompletedGame{
			{GameID: 1234, Title: "Sonic", ImageIcon: "/Images/000001.png", ConsoleID: 1, ConsoleName: "Genesis/Mega Drive", HardcoreMode: "0"},
			{GameID: 1234, Title: "Sonic", ImageIcon: "/Images/000001.png", ConsoleID: 1, ConsoleName: "Genesis/Mega Drive", HardcoreMode: "1"},
			{GameID: 55, Title: "Mario", ImageIcon: "/Images/000002.png", ConsoleID: 7, ConsoleName: "NES/Famicom", HardcoreMode: "0"},
		},
		consoles: []model.ConsoleDescriptor{
			{ID: 1, Name: "Genesis/Mega Drive", IconURL: "https://static.retroachievements.org/assets/images/system/md.png"},
			{ID: 7, Name: "NES/Famicom", IconURL: "https://static.retroachievements.org/assets/images/system/nes.png"},
		},
		gameInfo: map[int]*model.GameInfo{
			1234: {
				ID:          1234,
				Title:       "Sonic",
				ConsoleID:   1,
				ConsoleName: "Genesis/Mega Drive",
				ImageIcon:   "/Images/000001.png",
				GameProgress: model.GameProgress{
					ImageBoxArt:      "/Images/box.png",
					NumAchievements:  20,
					NumAwardedToUser: 7,
				},
				Achievements: map[int]model.Achievement{
					9: {ID: 9, Title: "Rings", BadgeName: "12345", Type: model.AchievementProgression},
				},
			},
		},
		hashes: map[int][]model.GameHash{
			1234: {{MD5: "abc", Name: "Sonic (USA).md"}},
		},
		dist: model.AchievementDistribution{1: 100, 2: 40},
	}
}

func (f *fakeAPI) hit(name string) error {
	f.mu.Lock()
	f.calls[name]++
	err := f.errs[name]
	delay := f.delay
	f.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	return err
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAPI) fail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakeAPI) GetUserProfile(ctx context.Context, user string) (*model.UserProfile, error) {
	if err := f.hit("profile"); err != nil {
		return nil, err
	}
	if user == f.slowUser {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	p := *f.profile
	p.User = user
	return &p, nil
}

func (f *fakeAPI) GetUserSummary(ctx context.Context, user string, g, a int) (*model.UserSummary, error) {
	if err := f.hit("summary"); err != nil {
		return nil, err
	}
	return f.summary, nil
}

func (f *fakeAPI) GetUserAwards(ctx context.Context, user string) (*model.AwardsResponse, error) {
	if err := f.hit("awards"); err != nil {
		return nil, err
	}
	if f.awards == nil {
		return nil, nil
	}
	a := *f.awards
	a.VisibleUserAwards = append([]model.UserAward(nil), f.awards.VisibleUserAwards...)
	return &a, nil
}

func (f *fakeAPI) GetUserCompletedGames(ctx context.Context, user string) ([]model.CompletedGame, error) {
	if err := f.hit("completed"); err != nil {
		return nil, err
	}
	return append([]model.CompletedGame(nil), f.completed...), nil
}

func (f *fakeAPI) GetGameInfoAndUserProgress(ctx context.Context, user string, gameID int, awardMetadata bool) (*model.GameInfo, error) {
	if err := f.hit("gameInfo"); err != nil {
		return nil, err
	}
	if f.gameInfoGate != nil {
		select {
		case f.gameInfoStarted <- struct{}{}:
		default:
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-f.gameInfoGate:
		}
	}
	info, ok := f.gameInfo[gameID]
	if !ok {
		return &model.GameInfo{}, nil
	}
	return info, nil
}

func (f *fakeAPI) GetGameHashes(ctx context.Context, gameID int) ([]model.GameHash, error) {
	if err := f.hit("hashes"); err != nil {
		return nil, err
	}
	h := f.hashes[gameID]
	if h == nil {
		h = []model.GameHash{}
	}
	return h, nil
}

func (f *fakeAPI) GetAchievementDistribution(ctx context.Context, gameID int, hardcoreOnly bool) (model.AchievementDistribution, error) {
	f.mu.Lock()
	f.lastHardcore = hardcoreOnly
	f.mu.Unlock()
	if err := f.hit("distribution"); err != nil {
		return nil, err
	}
	return f.dist, nil
}

func (f *fakeAPI) GetConsoleIDs(ctx context.Context, activeOnly, gameSystemsOnly bool) ([]model.ConsoleDescriptor, error) {
	if err := f.hit("consoles"); err != nil {
		return nil, err
	}
	return f.consoles, nil
}

func (f *fakeAPI) GetUserCompletionProgress(ctx context.Context, user string, count, offset int) (*model.CompletionProgressPage, error) {
	if err := f.hit("completion"); err != nil {
		return nil, err
	}
	if f.completion == nil {
		return &model.CompletionProgressPage{}, nil
	}
	return f.completion, nil
}

func (f *fakeAPI) GetUserProgress(ctx context.Context, user string, gameIDs []int) (map[string]model.UserProgress, error) {
	f.mu.Lock()
	f.progressBatches = append(f.progressBatches, append([]int(nil), gameIDs...))
	f.mu.Unlock()
	if err := f.hit("progress"); err != nil {
		return nil, err
	}
	return f.progress, nil
}

func (f *fakeAPI) GetUsersIFollow(ctx context.Context, count, offset int) (*model.FollowPage, error) {
	if err := f.hit("following"); err != nil {
		return nil, err
	}
	return f.follows, nil
}

func (f *fakeAPI) GetUsersFollowingMe(ctx context.Context, count, offset int) (*model.FollowPage, error) {
	if err := f.hit("followers"); err != nil {
		return nil, err
	}
	return f.follows, nil
}

func (f *fakeAPI) GetUserWantToPlayList(ctx context.Context, user string, count, offset int) (*model.WantToPlayPage, error) {
	if err := f.hit("wantToPlay"); err != nil {
		return nil, err
	}
	return f.wantToPlay, nil
}

func (f *fakeAPI) GetUserRecentlyPlayedGames(ctx context.Context, user string, count int) ([]model.RecentGame, error) {
	if err := f.hit("recent"); err != nil {
		return nil, err
	}
	return f.recent, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestProfileService(api *fakeAPI, clock *fakeClock) *ProfileService {
	store := cache.NewStore[model.Bundle](cache.NewMemoryCache(0), "bundle", "ra_profile_", 5*time.Minute).WithClock(clock.Now)
	resolver := icons.NewResolver(api, "", 12*time.Hour).WithClock(clock.Now)
	return NewProfileService(api, resolver, media.NewNormalizer(""), store)
}

func newTestDashboardService(api *fakeAPI) *DashboardService {
	return NewDashboardService(DashboardDeps{
		API:         api,
		Icons:       icons.NewResolver(api, "", 12*time.Hour),
		Media:       media.NewNormalizer(""),
		Cache:       cache.NewMemoryCache(0),
		TTL:         5 * time.Minute,
		Concurrency: 4,
	})
}
