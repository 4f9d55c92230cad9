package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"retroprofile-api/internal/model"
)

func TestLookupInvalidUsernameMakesNoCalls(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())

	for _, name := range []string{"", "bad name", "Reiivan!", "name_with_underscore"} {
		if b := svc.Lookup(context.Background(), name); b != nil {
			t.Errorf("Lookup(%q) = %+v, want nil", name, b)
		}
	}
	if n := api.total(); n != 0 {
		t.Fatalf("upstream calls = %d, want 0", n)
	}
}

func TestLookupSuccess(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())

	b := svc.Lookup(context.Background(), "Reiivan")
	if b == nil || b.Failed() {
		t.Fatalf("Lookup() = %+v, want success", b)
	}

	if b.Profile.User != "Reiivan" {
		t.Errorf("Profile.User = %q", b.Profile.User)
	}
	if want := "https://media.retroachievements.org/UserPic/Reiivan.png"; b.Profile.UserPic != want {
		t.Errorf("UserPic = %q, want %q", b.Profile.UserPic, want)
	}
	if *b.AwardCounts != api.awards.AwardCounts {
		t.Errorf("AwardCounts = %+v, want %+v", *b.AwardCounts, api.awards.AwardCounts)
	}

	if len(b.CompletedGames) != 3 {
		t.Fatalf("CompletedGames = %d, want 3 (one row per mode)", len(b.CompletedGames))
	}
	g := b.CompletedGames[0]
	if g.ImageIcon != "https://media.retroachievements.org/Images/000001.png" {
		t.Errorf("ImageIcon = %q", g.ImageIcon)
	}
	if g.ConsoleIcon == nil || *g.ConsoleIcon != "https://static.retroachievements.org/assets/images/system/md.png" {
		t.Errorf("ConsoleIcon = %v", g.ConsoleIcon)
	}

	if b.UserAwards[1].ImageIcon != "https://cdn.example/abs.png" {
		t.Errorf("absolute ImageIcon rewritten: %q", b.UserAwards[1].ImageIcon)
	}
	if len(b.Consoles) != 2 {
		t.Errorf("Consoles = %+v, want 2 entries", b.Consoles)
	}

	// Upstream values are not mutated.
	if api.completed[0].ImageIcon != "/Images/000001.png" {
		t.Errorf("upstream slice mutated: %q", api.completed[0].ImageIcon)
	}
}

func TestLookupAllOrNothing(t *testing.T) {
	for _, endpoint := range []string{"profile", "awards", "completed"} {
		t.Run(endpoint, func(t *testing.T) {
			api := newFakeAPI()
			api.fail(endpoint, errUpstream)
			svc := newTestProfileService(api, newFakeClock())

			b := svc.Lookup(context.Background(), "Reiivan")
			if b == nil {
				t.Fatal("Lookup() = nil, want error bundle")
			}
			if b.Error != model.ErrFetchUserData {
				t.Errorf("Error = %q, want %q", b.Error, model.ErrFetchUserData)
			}
			if b.Profile != nil || b.CompletedGames != nil || b.UserAwards != nil || b.AwardCounts != nil {
				t.Errorf("primary fields populated on failure: %+v", b)
			}

			// Failures are not cached.
			api.fail(endpoint, nil)
			if b := svc.Lookup(context.Background(), "Reiivan"); b.Failed() {
				t.Errorf("second Lookup() = %+v, want success", b)
			}
		})
	}
}

func TestLookupIconFailureIsNotFatal(t *testing.T) {
	api := newFakeAPI()
	api.fail("consoles", errUpstream)
	svc := newTestProfileService(api, newFakeClock())

	b := svc.Lookup(context.Background(), "Reiivan")
	if b.Failed() {
		t.Fatalf("Lookup() failed: %q", b.Error)
	}
	if b.CompletedGames[0].ConsoleIcon != nil {
		t.Errorf("ConsoleIcon = %v, want nil", *b.CompletedGames[0].ConsoleIcon)
	}
	if len(b.Consoles) != 0 {
		t.Errorf("Consoles = %+v, want empty", b.Consoles)
	}
}

func TestLookupCacheHitAndExpiry(t *testing.T) {
	api := newFakeAPI()
	clock := newFakeClock()
	svc := newTestProfileService(api, clock)
	ctx := context.Background()

	first := svc.Lookup(ctx, "Reiivan")
	if first.Failed() {
		t.Fatalf("Lookup() failed: %q", first.Error)
	}

	clock.Advance(4 * time.Minute)
	second := svc.Lookup(ctx, "Reiivan")
	if api.count("profile") != 1 {
		t.Fatalf("profile calls = %d, want 1 (cache hit)", api.count("profile"))
	}
	if !reflect.DeepEqual(*first, *second) {
		t.Errorf("cached bundle differs:\n got %+v\nwant %+v", *second, *first)
	}

	// Keys are exact; a different casing is a different user.
	svc.Lookup(ctx, "reiivan")
	if api.count("profile") != 2 {
		t.Errorf("profile calls = %d, want 2", api.count("profile"))
	}

	clock.Advance(time.Minute)
	svc.Lookup(ctx, "Reiivan")
	if api.count("profile") != 3 {
		t.Errorf("profile calls = %d, want 3 after expiry", api.count("profile"))
	}
}

func TestLookupEmptyAwards(t *testing.T) {
	api := newFakeAPI()
	api.awards = nil
	svc := newTestProfileService(api, newFakeClock())

	if b := svc.Lookup(context.Background(), "Reiivan"); !b.Failed() {
		t.Fatalf("Lookup() = %+v, want failure on empty awards", b)
	}
}

func TestGameInfo(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())
	ctx := context.Background()

	info, err := svc.GameInfo(ctx, "Reiivan", 1234)
	if err != nil {
		t.Fatalf("GameInfo() error = %v", err)
	}
	if info.ImageBoxArt != "https://media.retroachievements.org/Images/box.png" {
		t.Errorf("ImageBoxArt = %q", info.ImageBoxArt)
	}
	if got := info.Achievements[9].BadgeName; got != "https://media.retroachievements.org/Badge/12345.png" {
		t.Errorf("BadgeName = %q", got)
	}
	if api.gameInfo[1234].Achievements[9].BadgeName != "12345" {
		t.Error("upstream achievements mutated")
	}

	if _, err := svc.GameInfo(ctx, "Reiivan", 0); !errors.Is(err, ErrInvalidGameID) {
		t.Errorf("GameInfo(0) error = %v, want ErrInvalidGameID", err)
	}
	if _, err := svc.GameInfo(ctx, "bad name", 1234); !errors.Is(err, ErrInvalidUsername) {
		t.Errorf("GameInfo(bad name) error = %v, want ErrInvalidUsername", err)
	}
	if _, err := svc.GameInfo(ctx, "Reiivan", 777); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("GameInfo(777) error = %v, want ErrGameNotFound", err)
	}
}

func TestSecondaryFetches(t *testing.T) {
	api := newFakeAPI()
	svc := newTestProfileService(api, newFakeClock())
	ctx := context.Background()

	hashes, err := svc.GameHashes(ctx, 1234)
	if err != nil || len(hashes) != 1 {
		t.Fatalf("GameHashes() = %v, %v", hashes, err)
	}

	dist, err := svc.AchievementDistribution(ctx, 1234, true)
	if err != nil || dist[1] != 100 {
		t.Fatalf("AchievementDistribution() = %v, %v", dist, err)
	}
	if !api.lastHardcore {
		t.Error("hardcore flag not forwarded")
	}

	api.fail("hashes", errUpstream)
	if _, err := svc.GameHashes(ctx, 1234); !errors.Is(err, errUpstream) {
		t.Errorf("GameHashes() error = %v, want wrapped upstream error", err)
	}
}
