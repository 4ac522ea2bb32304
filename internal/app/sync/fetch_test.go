package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"dsatrack/internal/common"
)

func newTestFetcher(endpoints map[Platform][]string) *Fetcher {
	return NewFetcher(FetcherOptions{
		MaxAttempts:    3,
		AttemptTimeout: time.Second,
		Backoff:        time.Millisecond,
		Endpoints:      endpoints,
	})
}

func TestFetchSolvedDataFallsBackToNextEndpoint(t *testing.T) {
	var primaryCalls, secondaryCalls atomic.Int32

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryCalls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondaryCalls.Add(1)
		w.Write([]byte(`{"totalSolved": 9}`))
	}))
	defer secondary.Close()

	f := newTestFetcher(map[Platform][]string{
		PlatformLeetCode: {primary.URL + "/{username}", secondary.URL + "/{username}"},
	})

	raw, err := f.FetchSolvedData(context.Background(), PlatformLeetCode, "alice")
	if err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	var payload map[string]int
	if err := json.Unmarshal(raw, &payload); err != nil || payload["totalSolved"] != 9 {
		t.Fatalf("unexpected payload %s", raw)
	}
	// The first endpoint gets its full retry budget before fallover.
	if got := primaryCalls.Load(); got != 3 {
		t.Errorf("expected 3 attempts on primary endpoint, got %d", got)
	}
	if got := secondaryCalls.Load(); got != 1 {
		t.Errorf("expected 1 attempt on secondary endpoint, got %d", got)
	}
}

func TestFetchSolvedDataFirstValidWins(t *testing.T) {
	var secondaryCalls atomic.Int32

	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"totalSolved": 5}`))
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondaryCalls.Add(1)
		w.Write([]byte(`{"totalSolved": 99}`))
	}))
	defer secondary.Close()

	f := newTestFetcher(map[Platform][]string{
		PlatformLeetCode: {primary.URL + "/{username}", secondary.URL + "/{username}"},
	})

	if _, err := f.FetchSolvedData(context.Background(), PlatformLeetCode, "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if secondaryCalls.Load() != 0 {
		t.Error("later endpoints must not be contacted once one succeeds")
	}
}

func TestFetchSolvedDataRejectsErrorIndicator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "user does not exist"}`))
	}))
	defer srv.Close()

	f := newTestFetcher(map[Platform][]string{
		PlatformLeetCode: {srv.URL + "/{username}"},
	})

	_, err := f.FetchSolvedData(context.Background(), PlatformLeetCode, "ghost")
	if err == nil {
		t.Fatal("a 200 body with an error field must not count as valid")
	}
	if !strings.Contains(err.Error(), "user does not exist") {
		t.Errorf("terminal error should carry the upstream message, got %v", err)
	}
}

func TestFetchSolvedDataRejectsNonObjectBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"just a string"`))
	}))
	defer srv.Close()

	f := newTestFetcher(map[Platform][]string{PlatformGFG: {srv.URL + "/{username}"}})
	if _, err := f.FetchSolvedData(context.Background(), PlatformGFG, "bob"); err == nil {
		t.Fatal("non-object JSON must be rejected")
	}
}

func TestFetchSolvedDataTerminalError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := newTestFetcher(map[Platform][]string{
		PlatformLeetCode: {srv.URL + "/a/{username}", srv.URL + "/b/{username}"},
	})

	_, err := f.FetchSolvedData(context.Background(), PlatformLeetCode, "alice")
	if err == nil {
		t.Fatal("expected terminal error after exhausting all endpoints")
	}
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
	if !errors.Is(err, common.ErrUpstreamUnavailable) {
		t.Error("terminal error should wrap ErrUpstreamUnavailable")
	}
	if !strings.Contains(fe.Details(), "429") {
		t.Errorf("details should carry the last attempt's error, got %q", fe.Details())
	}
}

func TestFetchSolvedDataContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewFetcher(FetcherOptions{
		MaxAttempts:    3,
		AttemptTimeout: time.Second,
		Backoff:        time.Minute, // would stall without cancellation
		Endpoints:      map[Platform][]string{PlatformLeetCode: {srv.URL + "/{username}"}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := f.FetchSolvedData(ctx, PlatformLeetCode, "alice"); err == nil {
		t.Fatal("expected error after context cancellation")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation should interrupt the backoff, took %v", elapsed)
	}
}

func TestFetchProfilePhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"info": {"profilePicture": "https://media.geeksforgeeks.org/photo.png"}, "solvedStats": {}}`))
	}))
	defer srv.Close()

	f := newTestFetcher(map[Platform][]string{PlatformGFG: {srv.URL + "/{username}"}})

	photo, err := f.FetchProfilePhoto(context.Background(), "bob")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if photo != "https://media.geeksforgeeks.org/photo.png" {
		t.Errorf("unexpected photo URL %q", photo)
	}
}

func TestExpandEndpoint(t *testing.T) {
	got := expandEndpoint("https://api.example.com/{username}/solved/{username}", "alice bob")
	want := "https://api.example.com/alice%20bob/solved/alice%20bob"
	if got != want {
		t.Errorf("expandEndpoint = %q, want %q", got, want)
	}
}
