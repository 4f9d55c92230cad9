package service

import (
	"context"
	"testing"
	"time"
)

const testQuiet = 30 * time.Millisecond

func waitFor(t *testing.T, s *Session, cond func(SessionState) bool) SessionState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if st := s.Snapshot(); cond(st) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not reached; state = %+v", s.Snapshot())
	return SessionState{}
}

func loaded(user string) func(SessionState) bool {
	return func(st SessionState) bool {
		return st.Username == user && !st.Loading && st.Profile != nil
	}
}

func TestSessionDebounceCollapsesKeystrokes(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())
	s := NewSession(context.Background(), svc, testQuiet, nil)
	defer s.Close()

	for _, v := range []string{"R", "Re", "Rei", "Reiivan"} {
		s.SetUsername(v)
		time.Sleep(testQuiet / 5)
	}

	st := waitFor(t, s, loaded("Reiivan"))
	if st.Profile.User != "Reiivan" {
		t.Errorf("Profile.User = %q", st.Profile.User)
	}
	if n := api.count("profile"); n != 1 {
		t.Errorf("profile calls = %d, want 1", n)
	}
}

func TestSessionSupersededLookupIsDiscarded(t *testing.T) {
	api := newFakeAPI()
	api.slowUser = "Slow"
	svc := newTestProfileService(api, newFakeClock())
	s := NewSession(context.Background(), svc, testQuiet, nil)
	defer s.Close()

	s.SubmitUsername("Slow")
	waitFor(t, s, func(st SessionState) bool { return st.Loading })

	s.SubmitUsername("Fast")
	st := waitFor(t, s, loaded("Fast"))
	if st.Error != "" {
		t.Errorf("Error = %q, want none", st.Error)
	}

	// Let the cancelled lookup finish; its result must not replace the state.
	time.Sleep(50 * time.Millisecond)
	if st := s.Snapshot(); st.Username != "Fast" || st.Profile.User != "Fast" || st.Error != "" {
		t.Errorf("state replaced by superseded result: %+v", st)
	}
}

func TestSessionInvalidUsernameClearsState(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())
	s := NewSession(context.Background(), svc, testQuiet, nil)
	defer s.Close()

	s.SubmitUsername("Reiivan")
	waitFor(t, s, loaded("Reiivan"))

	s.SubmitUsername("not valid")
	st := s.Snapshot()
	if st.Profile != nil || st.UserAwards != nil || st.Loading || st.Error != "" {
		t.Errorf("state after invalid name = %+v", st)
	}
	if n := api.count("profile"); n != 1 {
		t.Errorf("profile calls = %d, want 1", n)
	}
}

func TestSessionSameUsernameIsNotRefetched(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())
	s := NewSession(context.Background(), svc, testQuiet, nil)
	defer s.Close()

	s.SubmitUsername("Reiivan")
	waitFor(t, s, loaded("Reiivan"))
	s.SubmitUsername("Reiivan")

	if n := api.count("profile"); n != 1 {
		t.Errorf("profile calls = %d, want 1", n)
	}
}

func TestSessionSecondaryFetchIsolation(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())
	s := NewSession(context.Background(), svc, testQuiet, nil)
	defer s.Close()

	s.SubmitUsername("Reiivan")
	before := waitFor(t, s, loaded("Reiivan"))

	ctx := context.Background()
	s.FetchGameInfo(ctx, 1234)
	if s.Snapshot().GameInfo == nil {
		t.Fatal("GameInfo = nil, want data")
	}

	api.fail("gameInfo", errUpstream)
	s.FetchGameInfo(ctx, 1234)
	s.FetchGameHashes(ctx, 1234)
	s.FetchAchievementDistribution(ctx, 1234, false)

	after := s.Snapshot()
	if after.GameInfo != nil {
		t.Errorf("GameInfo = %+v, want nil after failure", after.GameInfo)
	}
	if len(after.GameHashes) != 1 || after.AchievementDistribution[2] != 40 {
		t.Errorf("other secondary fields = %v, %v", after.GameHashes, after.AchievementDistribution)
	}
	if after.Profile != before.Profile || len(after.CompletedGames) != len(before.CompletedGames) ||
		len(after.UserAwards) != len(before.UserAwards) || after.Error != "" {
		t.Errorf("primary state changed: before %+v after %+v", before, after)
	}
}

func TestSessionCloseCancelsPendingInput(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())
	s := NewSession(context.Background(), svc, testQuiet, nil)

	s.SetUsername("Reiivan")
	s.Close()
	time.Sleep(2 * testQuiet)

	if n := api.total(); n != 0 {
		t.Errorf("upstream calls = %d, want 0", n)
	}
}

func TestSessionNotifiesChanges(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())

	states := make(chan SessionState, 8)
	s := NewSession(context.Background(), svc, testQuiet, func(st SessionState) { states <- st })
	defer s.Close()

	s.SubmitUsername("Reiivan")

	first := <-states
	if !first.Loading {
		t.Errorf("first notification = %+v, want loading", first)
	}
	select {
	case second := <-states:
		if second.Loading || second.Profile == nil {
			t.Errorf("second notification = %+v, want loaded", second)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no notification after load")
	}
}

func TestSessionDropsGameInfoForPreviousUser(t *testing.T) {
	api := newFakeAPI()
	api.gameInfoGate = make(chan struct{})
	api.gameInfoStarted = make(chan struct{}, 1)
	svc := newTestProfileService(api, newFakeClock())
	s := NewSession(context.Background(), svc, testQuiet, nil)
	defer s.Close()

	s.SubmitUsername("Reiivan")
	waitFor(t, s, loaded("Reiivan"))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.FetchGameInfo(context.Background(), 1234)
	}()
	<-api.gameInfoStarted

	s.SubmitUsername("Other")
	waitFor(t, s, loaded("Other"))

	close(api.gameInfoGate)
	<-done

	if st := s.Snapshot(); st.GameInfo != nil {
		t.Fatalf("session for %q shows game info fetched for the previous user", st.Username)
	}

	s.FetchGameInfo(context.Background(), 1234)
	if s.Snapshot().GameInfo == nil {
		t.Error("GameInfo = nil for the current user")
	}
}

func TestSessionUsernameChangeClearsGameState(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())
	s := NewSession(context.Background(), svc, testQuiet, nil)
	defer s.Close()
	ctx := context.Background()

	s.SubmitUsername("Reiivan")
	waitFor(t, s, loaded("Reiivan"))
	s.FetchGameInfo(ctx, 1234)
	s.FetchGameHashes(ctx, 1234)
	s.FetchAchievementDistribution(ctx, 1234, false)
	if st := s.Snapshot(); st.GameInfo == nil || st.GameHashes == nil || st.AchievementDistribution == nil {
		t.Fatalf("game state not loaded: %+v", st)
	}

	s.SubmitUsername("Other")
	st := waitFor(t, s, loaded("Other"))
	if st.GameInfo != nil || st.GameHashes != nil || st.AchievementDistribution != nil {
		t.Errorf("game state kept across username change: %+v", st)
	}
}
