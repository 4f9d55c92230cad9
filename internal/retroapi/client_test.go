package retroapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	base := []Option{
		WithBaseURL(srv.URL + "/API"),
		WithRetry(3, time.Millisecond),
		WithTimeout(time.Second),
		WithBreakerName(t.Name()),
	}
	return NewClient("secret-key", append(base, opts...)...)
}

func TestRequestShape(t *testing.T) {
	var gotPath, gotKey, gotUser, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("y")
		gotUser = r.URL.Query().Get("u")
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"User":"Reiivan","UserPic":"/UserPic/Reiivan.png","TotalPoints":"1200"}`))
	})

	p, err := c.GetUserProfile(context.Background(), "Reiivan")
	if err != nil {
		t.Fatalf("GetUserProfile() error = %v", err)
	}
	if gotPath != "/API/API_GetUserProfile.php" {
		t.Errorf("path = %q", gotPath)
	}
	if gotKey != "secret-key" || gotUser != "Reiivan" {
		t.Errorf("query y=%q u=%q", gotKey, gotUser)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if p.User != "Reiivan" || p.TotalPoints != 1200 {
		t.Errorf("profile = %+v", p)
	}
}

func TestEndpointParameters(t *testing.T) {
	var query string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Path + "?" + r.URL.RawQuery
		switch {
		case strings.Contains(r.URL.Path, "GameHashes"):
			_, _ = w.Write([]byte(`{"Results":[{"MD5":"abc","Name":"rom.bin","Labels":["nointro"]}]}`))
		case strings.Contains(r.URL.Path, "Distribution"):
			_, _ = w.Write([]byte(`{"1":100,"2":50}`))
		case strings.HasSuffix(r.URL.Path, "/API_GetUserProgress.php"):
			_, _ = w.Write([]byte(`{"10":{"NumAchieved":3}}`))
		default:
			_, _ = w.Write([]byte(`[]`))
		}
	})
	ctx := context.Background()

	hashes, err := c.GetGameHashes(ctx, 42)
	if err != nil || len(hashes) != 1 || hashes[0].MD5 != "abc" {
		t.Fatalf("GetGameHashes() = %+v, %v", hashes, err)
	}
	if !strings.Contains(query, "i=42") {
		t.Errorf("hash query = %q", query)
	}

	dist, err := c.GetAchievementDistribution(ctx, 42, true)
	if err != nil || dist[1] != 100 || dist[2] != 50 {
		t.Fatalf("GetAchievementDistribution() = %v, %v", dist, err)
	}
	if !strings.Contains(query, "h=1") || !strings.Contains(query, "i=42") {
		t.Errorf("distribution query = %q", query)
	}

	if _, err := c.GetConsoleIDs(ctx, true, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(query, "a=1") || !strings.Contains(query, "g=1") {
		t.Errorf("console query = %q", query)
	}

	progress, err := c.GetUserProgress(ctx, "Reiivan", []int{10, 11})
	if err != nil || progress["10"].NumAchieved != 3 {
		t.Fatalf("GetUserProgress() = %v, %v", progress, err)
	}
	if !strings.Contains(query, "i=10%2C11") {
		t.Errorf("progress query = %q", query)
	}

	if _, err := c.GetGameInfoAndUserProgress(ctx, "Reiivan", 7, true); err == nil {
		// body is [] which cannot decode into an object
		t.Error("expected decode error for array body")
	}
	if !strings.Contains(query, "g=7") || !strings.Contains(query, "a=1") {
		t.Errorf("game info query = %q", query)
	}
}

func TestGetUserProgressEmptySkipsCall(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	got, err := c.GetUserProgress(context.Background(), "x", nil)
	if err != nil || len(got) != 0 || calls.Load() != 0 {
		t.Fatalf("got %v, %v, calls %d", got, err, calls.Load())
	}
}

func TestErrorFieldIsFailure(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"Error":"User not found"}`))
	})

	_, err := c.GetUserAwards(context.Background(), "Nobody")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want *FetchError", err)
	}
	if fe.Reason != "User not found" || fe.Endpoint != "API_GetUserAwards" {
		t.Errorf("FetchError = %+v", fe)
	}
	if calls.Load() != 1 {
		t.Errorf("semantic error retried: %d calls", calls.Load())
	}
}

func TestNon2xxIsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Unauthenticated."}`))
	})

	_, err := c.GetUserProfile(context.Background(), "x")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v", err)
	}
	if IsTransient(err) {
		t.Error("401 marked transient")
	}
}

func TestMalformedJSONIsFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	})
	_, err := c.GetUserCompletedGames(context.Background(), "x")
	var fe *FetchError
	if !errors.As(err, &fe) || !strings.Contains(fe.Reason, "malformed") {
		t.Fatalf("err = %v", err)
	}
}

func TestRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`[{"GameID":1,"HardcoreMode":"1"}]`))
	})

	games, err := c.GetUserCompletedGames(context.Background(), "x")
	if err != nil {
		t.Fatalf("GetUserCompletedGames() error = %v", err)
	}
	if len(games) != 1 || calls.Load() != 3 {
		t.Fatalf("games = %d, calls = %d", len(games), calls.Load())
	}
}

func TestRetryGivesUp(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.GetUserCompletedGames(context.Background(), "x")
	if !IsTransient(err) {
		t.Fatalf("err = %v, want transient", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("calls = %d, want 3", calls.Load())
	}
}

func TestTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, WithTimeout(20*time.Millisecond), WithRetry(1, 0))

	start := time.Now()
	_, err := c.GetUserProfile(context.Background(), "x")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("timeout not applied, took %v", time.Since(start))
	}
}

func TestTimeoutBoundsRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}, WithTimeout(50*time.Millisecond), WithRetry(3, 10*time.Millisecond))

	start := time.Now()
	_, err := c.GetUserProfile(context.Background(), "x")
	if err == nil || IsTransient(err) {
		t.Fatalf("err = %v, want non-transient timeout", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("call took %v, want about 50ms", elapsed)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestSlowFailuresShareOneDeadline(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(40 * time.Millisecond)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithTimeout(100*time.Millisecond), WithRetry(10, 10*time.Millisecond))

	start := time.Now()
	if _, err := c.GetUserProfile(context.Background(), "x"); err == nil {
		t.Fatal("expected failure")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("call took %v, want the 100ms budget", elapsed)
	}
	if n := calls.Load(); n >= 10 {
		t.Fatalf("calls = %d, retries ignored the deadline", n)
	}
}

func TestCallerCancellationIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := c.GetUserProfile(ctx, "x")
	if err == nil || IsTransient(err) {
		t.Fatalf("err = %v, want non-transient failure", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestTransportErrorHidesAPIKey(t *testing.T) {
	c := NewClient("secret-key",
		WithBaseURL("http://127.0.0.1:1/API"),
		WithRetry(1, 0),
		WithBreakerName(t.Name()),
	)
	_, err := c.GetUserProfile(context.Background(), "x")
	if err == nil {
		t.Fatal("expected transport error")
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("error leaks API key: %v", err)
	}
}

func TestBuildURL(t *testing.T) {
	got := newAPIRequest("API_GetUserSummary").
		addParam("u", "Reiivan").
		addIntParam("g", 1).
		addParam("empty", "").
		buildURL("https://retroachievements.org/API/", "k")
	want := "https://retroachievements.org/API/API_GetUserSummary.php?g=1&u=Reiivan&y=k"
	if got != want {
		t.Errorf("buildURL() = %q, want %q", got, want)
	}
}
