package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"
	"dsatrack/internal/domain/repository"
)

type stubLeaderboardRepo struct {
	entries   []model.LeaderboardEntry
	questions int
	lastSince *time.Time
}

func (r *stubLeaderboardRepo) TopSolvers(ctx context.Context, since *time.Time, limit int) ([]model.LeaderboardEntry, error) {
	r.lastSince = since
	return r.entries, nil
}

func (r *stubLeaderboardRepo) CountQuestions(ctx context.Context) (int, error) {
	return r.questions, nil
}

func TestLeaderboardRanksAndRates(t *testing.T) {
	repo := &stubLeaderboardRepo{
		entries: []model.LeaderboardEntry{
			{ID: "a", Username: "alice", SolvedCount: 30},
			{ID: "b", Username: "bob", SolvedCount: 10},
			{ID: "c", Username: "carol", SolvedCount: 0},
		},
		questions: 40,
	}
	svc := NewLeaderboardService(repo, nil, time.Minute)

	resp, err := svc.Get(context.Background(), repository.PeriodAllTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalQuestions != 40 {
		t.Errorf("expected 40 total questions, got %d", resp.TotalQuestions)
	}
	if repo.lastSince != nil {
		t.Error("all-time leaderboard must not filter by time")
	}

	wantRanks := []int{1, 2, 3}
	wantRates := []float64{75, 25, 0}
	for i, e := range resp.Entries {
		if e.Rank != wantRanks[i] {
			t.Errorf("entry %d: expected rank %d, got %d", i, wantRanks[i], e.Rank)
		}
		if e.SuccessRate != wantRates[i] {
			t.Errorf("entry %d: expected success rate %v, got %v", i, wantRates[i], e.SuccessRate)
		}
	}
}

func TestLeaderboardPeriodWindows(t *testing.T) {
	repo := &stubLeaderboardRepo{questions: 1}
	svc := NewLeaderboardService(repo, nil, time.Minute)
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	if _, err := svc.Get(context.Background(), repository.PeriodDaily); err != nil {
		t.Fatal(err)
	}
	if repo.lastSince == nil || !repo.lastSince.Equal(now.Add(-24*time.Hour)) {
		t.Errorf("daily window should start 24h back, got %v", repo.lastSince)
	}

	if _, err := svc.Get(context.Background(), repository.PeriodWeekly); err != nil {
		t.Fatal(err)
	}
	if repo.lastSince == nil || !repo.lastSince.Equal(now.Add(-7*24*time.Hour)) {
		t.Errorf("weekly window should start 7d back, got %v", repo.lastSince)
	}
}

func TestLeaderboardRejectsUnknownPeriod(t *testing.T) {
	svc := NewLeaderboardService(&stubLeaderboardRepo{}, nil, time.Minute)
	if _, err := svc.Get(context.Background(), "monthly"); !errors.Is(err, common.ErrValidation) {
		t.Errorf("expected validation error for unknown period, got %v", err)
	}
}
