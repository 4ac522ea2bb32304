package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"
	"dsatrack/internal/domain/repository"

	"github.com/redis/go-redis/v9"
)

const leaderboardLimit = 50

type LeaderboardService struct {
	leaderboardRepo repository.LeaderboardRepository
	rdb             *redis.Client
	cacheTTL        time.Duration

	now func() time.Time
}

func NewLeaderboardService(leaderboardRepo repository.LeaderboardRepository, rdb *redis.Client, cacheTTL time.Duration) *LeaderboardService {
	return &LeaderboardService{
		leaderboardRepo: leaderboardRepo,
		rdb:             rdb,
		cacheTTL:        cacheTTL,
		now:             time.Now,
	}
}

type LeaderboardResponse struct {
	Period         repository.LeaderboardPeriod `json:"period"`
	TotalQuestions int                          `json:"total_questions"`
	Entries        []model.LeaderboardEntry     `json:"entries"`
}

// Get returns the ranked leaderboard for a period, cached in Redis for a
// short TTL since the underlying aggregate is expensive and read-heavy.
func (s *LeaderboardService) Get(ctx context.Context, period repository.LeaderboardPeriod) (*LeaderboardResponse, error) {
	since, err := s.periodStart(period)
	if err != nil {
		return nil, err
	}

	cacheKey := "leaderboard:" + string(period)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp LeaderboardResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	totalQuestions, err := s.leaderboardRepo.CountQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	entries, err := s.leaderboardRepo.TopSolvers(ctx, since, leaderboardLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	for i := range entries {
		entries[i].Rank = i + 1
		if totalQuestions > 0 {
			rate := float64(entries[i].SolvedCount) / float64(totalQuestions) * 100
			entries[i].SuccessRate = math.Round(rate*100) / 100
		}
	}

	resp := &LeaderboardResponse{
		Period:         period,
		TotalQuestions: totalQuestions,
		Entries:        entries,
	}

	if s.rdb != nil {
		if payload, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				log.Printf("WARN: [LEADERBOARD] failed to cache %s: %v", cacheKey, err)
			}
		}
	}
	return resp, nil
}

func (s *LeaderboardService) periodStart(period repository.LeaderboardPeriod) (*time.Time, error) {
	switch period {
	case repository.PeriodDaily:
		since := s.now().Add(-24 * time.Hour)
		return &since, nil
	case repository.PeriodWeekly:
		since := s.now().Add(-7 * 24 * time.Hour)
		return &since, nil
	case repository.PeriodAllTime, "":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown leaderboard period %q: %w", period, common.ErrValidation)
	}
}
