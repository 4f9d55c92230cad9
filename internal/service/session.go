package service

import (
	"context"
	"sync"
	"time"

	"retroprofile-api/internal/debounce"
	"retroprofile-api/internal/logging"
	"retroprofile-api/internal/model"
	"retroprofile-api/internal/validation"
)

// SessionState is what a live session exposes to its client.
type SessionState struct {
	Username       string                `json:"username"`
	Profile        *model.UserProfile    `json:"profile"`
	CompletedGames []model.CompletedGame `json:"completedGames"`
	UserAwards     []model.UserAward     `json:"userAwards"`
	AwardCounts    *model.AwardCounts    `json:"awardCounts"`
	Consoles       []model.ConsoleIcon   `json:"consoles"`
	Loading        bool                  `json:"loading"`
	Error          string                `json:"error,omitempty"`

	GameInfo                *model.GameInfo               `json:"gameInfo"`
	GameHashes              []model.GameHash              `json:"gameHashes"`
	AchievementDistribution model.AchievementDistribution `json:"achievementDistribution"`
}

// Session drives one client's profile view. Username changes pass through a
// debounce gate; each commit cancels the previous lookup, and a result that
// arrives for a superseded username is dropped.
type Session struct {
	profiles *ProfileService
	gate     *debounce.Gate[string]
	onChange func(SessionState)
	baseCtx  context.Context

	mu           sync.Mutex
	state        SessionState
	committed    string
	hasCommitted bool
	cancel       context.CancelFunc
	seq          uint64
	closed       bool

	wg sync.WaitGroup
}

// NewSession creates a session. onChange, if set, receives a copy of the
// state after every change.
func NewSession(ctx context.Context, profiles *ProfileService, quiet time.Duration, onChange func(SessionState)) *Session {
	s := &Session{
		profiles: profiles,
		onChange: onChange,
		baseCtx:  ctx,
	}
	s.gate = debounce.New(quiet, s.commit)
	return s
}

// SetUsername records a keystroke-level username change.
func (s *Session) SetUsername(username string) {
	s.gate.Observe(username)
}

// SubmitUsername commits a username immediately.
func (s *Session) SubmitUsername(username string) {
	s.gate.Flush(username)
}

func (s *Session) commit(username string) {
	s.mu.Lock()
	if s.closed || (s.hasCommitted && username == s.committed) {
		s.mu.Unlock()
		return
	}
	s.committed = username
	s.hasCommitted = true

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.seq++
	seq := s.seq

	if validation.Username(username) != nil {
		s.state = SessionState{Username: username}
		st := s.copyState()
		s.mu.Unlock()
		s.notify(st)
		return
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.state.Username = username
	s.state.Loading = true
	s.state.Error = ""
	s.clearGame()
	st := s.copyState()
	s.wg.Add(1)
	s.mu.Unlock()

	s.notify(st)
	go s.load(ctx, seq, username)
}

func (s *Session) load(ctx context.Context, seq uint64, username string) {
	defer s.wg.Done()

	b := s.profiles.Lookup(ctx, username)

	s.mu.Lock()
	if seq != s.seq || s.closed {
		s.mu.Unlock()
		logging.Ctx(ctx).Debug().Str("user", username).Msg("[Session] dropping superseded result")
		return
	}
	s.cancel = nil
	s.state = SessionState{
		Username:                username,
		GameInfo:                s.state.GameInfo,
		GameHashes:              s.state.GameHashes,
		AchievementDistribution: s.state.AchievementDistribution,
	}
	if b != nil {
		s.state.Profile = b.Profile
		s.state.CompletedGames = b.CompletedGames
		s.state.UserAwards = b.UserAwards
		s.state.AwardCounts = b.AwardCounts
		s.state.Consoles = b.Consoles
		s.state.Error = b.Error
	}
	st := s.copyState()
	s.mu.Unlock()

	s.notify(st)
}

// FetchGameInfo loads one game's progress for the committed user. Failure
// clears only the game info field. A result that arrives after the username
// changed is dropped.
func (s *Session) FetchGameInfo(ctx context.Context, gameID int) {
	username, seq := s.current()
	info, err := s.profiles.GameInfo(ctx, username, gameID)
	if err != nil {
		info = nil
	}
	s.update(seq, func(st *SessionState) { st.GameInfo = info })
}

// FetchGameHashes loads a game's hashes. Failure clears only the hashes field.
func (s *Session) FetchGameHashes(ctx context.Context, gameID int) {
	_, seq := s.current()
	hashes, err := s.profiles.GameHashes(ctx, gameID)
	if err != nil {
		hashes = nil
	}
	s.update(seq, func(st *SessionState) { st.GameHashes = hashes })
}

// FetchAchievementDistribution loads a game's unlock distribution. Failure
// clears only the distribution field.
func (s *Session) FetchAchievementDistribution(ctx context.Context, gameID int, hardcoreOnly bool) {
	_, seq := s.current()
	dist, err := s.profiles.AchievementDistribution(ctx, gameID, hardcoreOnly)
	if err != nil {
		dist = nil
	}
	s.update(seq, func(st *SessionState) { st.AchievementDistribution = dist })
}

func (s *Session) current() (string, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed, s.seq
}

// Username returns the last committed username.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyState()
}

// Close stops pending emissions, cancels any in-flight lookup and waits for
// it to return.
func (s *Session) Close() {
	s.gate.Stop()

	s.mu.Lock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.mu.Unlock()

	s.wg.Wait()
}

// update applies fn unless the session closed or a newer username was
// committed since seq.
func (s *Session) update(seq uint64, fn func(*SessionState)) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}
	fn(&s.state)
	st := s.copyState()
	s.mu.Unlock()

	s.notify(st)
}

// clearGame must be called with mu held.
func (s *Session) clearGame() {
	s.state.GameInfo = nil
	s.state.GameHashes = nil
	s.state.AchievementDistribution = nil
}

// copyState must be called with mu held. Slices are shared; they are never
// mutated after being stored.
func (s *Session) copyState() SessionState {
	return s.state
}

func (s *Session) notify(st SessionState) {
	if s.onChange != nil {
		s.onChange(st)
	}
}
