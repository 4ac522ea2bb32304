package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"
	"dsatrack/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const bulkSyncLockKey = "sync:all-users:lock"
const bulkSyncLockTTL = 10 * time.Minute

// SolvedFetcher is what the coordinator needs from the fetch layer.
type SolvedFetcher interface {
	FetchSolvedData(ctx context.Context, platform Platform, externalUsername string) (json.RawMessage, error)
	FetchProfilePhoto(ctx context.Context, gfgUsername string) (string, error)
}

// ResultStats summarizes one platform sync for the caller.
type ResultStats struct {
	TotalPlatformQuestions int    `json:"totalPlatformQuestions"`
	SolvedQuestions        int    `json:"solvedQuestions"`
	UpdatedQuestions       int    `json:"updatedQuestions"`
	APIStats               Stats  `json:"apiStats"`
	Limitation             string `json:"limitation,omitempty"`
}

type Result struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Stats   ResultStats `json:"stats"`
}

// PlatformOutcome is either a Result or an error description, per
// platform, in an all-platforms sync.
type PlatformOutcome struct {
	*Result
	Error   string `json:"error,omitempty"`
	Details string `json:"details,omitempty"`
}

// UserOutcome aggregates one user's platforms in a bulk sync.
type UserOutcome struct {
	ID           string                        `json:"id"`
	Username     string                        `json:"username"`
	Platforms    map[Platform]*PlatformOutcome `json:"platforms"`
	ProfilePhoto string                        `json:"profile_photo,omitempty"`
}

type BulkResult struct {
	Success         []UserOutcome `json:"success"`
	Failed          []UserOutcome `json:"failed"`
	Total           int           `json:"total"`
	ProfilesUpdated int           `json:"profiles_updated"`
}

type Options struct {
	BatchSize  int
	BatchDelay time.Duration
}

// Service coordinates fetch, normalization, matching and progress
// upserts per user and platform.
type Service struct {
	userRepo     repository.UserRepository
	questionRepo repository.QuestionRepository
	progressRepo repository.ProgressRepository
	fetcher      SolvedFetcher
	rdb          *redis.Client

	batchSize  int
	batchDelay time.Duration

	// Seams for tests.
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewService(
	userRepo repository.UserRepository,
	questionRepo repository.QuestionRepository,
	progressRepo repository.ProgressRepository,
	fetcher SolvedFetcher,
	rdb *redis.Client,
	opts Options,
) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 5
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = 2 * time.Second
	}
	return &Service{
		userRepo:     userRepo,
		questionRepo: questionRepo,
		progressRepo: progressRepo,
		fetcher:      fetcher,
		rdb:          rdb,
		batchSize:    opts.BatchSize,
		batchDelay:   opts.BatchDelay,
		sleep:        sleepCtx,
		now:          time.Now,
	}
}

// SyncPlatform reconciles one user's progress against one platform.
// Returns ErrMissingExternalIdentity when the user has no username bound
// for the platform, and a *FetchError (wrapping ErrUpstreamUnavailable)
// when every endpoint is exhausted. A stats-only upstream payload is a
// success with zero updates and a limitation note.
func (s *Service) SyncPlatform(ctx context.Context, userID string, platform Platform) (*Result, error) {
	if !platform.Syncable() {
		return nil, fmt.Errorf("platform %q cannot be synced: %w", platform, common.ErrBadRequest)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	username := externalUsername(user, platform)
	if username == "" {
		return nil, fmt.Errorf("%s username not found for this user: %w", platform.DisplayName(), common.ErrMissingExternalIdentity)
	}

	raw, err := s.fetcher.FetchSolvedData(ctx, platform, username)
	if err != nil {
		return nil, err
	}

	normalized, err := Normalize(platform, raw)
	if err != nil {
		return nil, fmt.Errorf("normalize %s payload: %w", platform, err)
	}

	questions, err := s.questionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	var candidates []model.Question
	for _, q := range questions {
		if IdentifyPlatform(q.QuestionLink) == platform {
			candidates = append(candidates, q)
		}
	}

	if len(normalized.SolvedItems) == 0 {
		// Aggregate stats only: not a failure, there is just nothing
		// enumerable to match against.
		return &Result{
			Success: true,
			Message: fmt.Sprintf(
				"%s sync completed with limitations. The API reports %d solved problems (%d easy, %d medium, %d hard) but only aggregate stats were available, not the full solved list.",
				platform.DisplayName(), normalized.Stats.Total, normalized.Stats.Easy, normalized.Stats.Medium, normalized.Stats.Hard),
			Stats: ResultStats{
				TotalPlatformQuestions: len(candidates),
				APIStats:               normalized.Stats,
				Limitation:             "APIs only provide recent submissions, not the complete solved problems list",
			},
		}, nil
	}

	matched := MatchSolved(normalized.SolvedItems, candidates, platform)

	updated := 0
	for _, q := range matched {
		solvedAt := s.now()
		if err := s.progressRepo.Upsert(ctx, userID, q.ID, true, &solvedAt); err != nil {
			// Contained per item: one bad write never aborts the batch.
			log.Printf("ERROR: [SYNC] failed to upsert progress for user %s question %s: %v", userID, q.ID, err)
			continue
		}
		updated++
	}

	return &Result{
		Success: true,
		Message: fmt.Sprintf("%s progress synchronized. Updated %d questions.", platform.DisplayName(), updated),
		Stats: ResultStats{
			TotalPlatformQuestions: len(candidates),
			SolvedQuestions:        len(matched),
			UpdatedQuestions:       updated,
			APIStats:               normalized.Stats,
		},
	}, nil
}

// SyncAllPlatforms runs every syncable platform for one user
// concurrently. Platform failures are independent; each gets its own
// outcome keyed by platform.
func (s *Service) SyncAllPlatforms(ctx context.Context, userID string) map[Platform]*PlatformOutcome {
	var (
		mu       sync.Mutex
		outcomes = make(map[Platform]*PlatformOutcome, len(SyncablePlatforms))
		g        errgroup.Group
	)

	for _, platform := range SyncablePlatforms {
		g.Go(func() error {
			result, err := s.SyncPlatform(ctx, userID, platform)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				outcomes[platform] = &PlatformOutcome{
					Error:   fmt.Sprintf("Failed to sync %s progress", platform.DisplayName()),
					Details: err.Error(),
				}
				return nil
			}
			outcomes[platform] = &PlatformOutcome{Result: result}
			return nil
		})
	}
	g.Wait()
	return outcomes
}

// SyncAllUsers syncs every role=user account in fixed-size batches with
// a delay between batches, so the upstream mirrors are not hammered all
// at once. Users inside a batch run concurrently. A Redis lock keeps two
// bulk runs from overlapping.
func (s *Service) SyncAllUsers(ctx context.Context) (*BulkResult, error) {
	if s.rdb != nil {
		ok, err := s.rdb.SetNX(ctx, bulkSyncLockKey, "1", bulkSyncLockTTL).Result()
		if err != nil {
			log.Printf("WARN: [SYNC] could not check bulk sync lock: %v", err)
		} else if !ok {
			return nil, common.ErrSyncInProgress
		} else {
			defer s.rdb.Del(context.WithoutCancel(ctx), bulkSyncLockKey)
		}
	}

	users, err := s.userRepo.ListByRole(ctx, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	result := &BulkResult{
		Success: []UserOutcome{},
		Failed:  []UserOutcome{},
		Total:   len(users),
	}

	var mu sync.Mutex
	for start := 0; start < len(users); start += s.batchSize {
		end := start + s.batchSize
		if end > len(users) {
			end = len(users)
		}

		var g errgroup.Group
		for _, user := range users[start:end] {
			g.Go(func() error {
				outcome, photoUpdated := s.syncUser(ctx, &user)
				mu.Lock()
				defer mu.Unlock()
				if photoUpdated {
					result.ProfilesUpdated++
				}
				if anySucceeded(outcome.Platforms) {
					result.Success = append(result.Success, outcome)
				} else {
					result.Failed = append(result.Failed, outcome)
				}
				return nil
			})
		}
		g.Wait()

		if end < len(users) {
			if err := s.sleep(ctx, s.batchDelay); err != nil {
				return result, fmt.Errorf("bulk sync interrupted: %w", err)
			}
		}
	}
	return result, nil
}

func (s *Service) syncUser(ctx context.Context, user *model.User) (UserOutcome, bool) {
	outcome := UserOutcome{
		ID:        user.ID,
		Username:  user.Username,
		Platforms: make(map[Platform]*PlatformOutcome),
	}

	for _, platform := range SyncablePlatforms {
		if externalUsername(user, platform) == "" {
			continue // nothing bound, nothing to sync
		}
		result, err := s.SyncPlatform(ctx, user.ID, platform)
		if err != nil {
			outcome.Platforms[platform] = &PlatformOutcome{
				Error:   fmt.Sprintf("Failed to sync %s progress", platform.DisplayName()),
				Details: err.Error(),
			}
			continue
		}
		outcome.Platforms[platform] = &PlatformOutcome{Result: result}
	}

	photoUpdated := false
	if user.GFGUsername != nil && *user.GFGUsername != "" {
		photo, err := s.fetcher.FetchProfilePhoto(ctx, *user.GFGUsername)
		if err != nil {
			log.Printf("WARN: [SYNC] failed to fetch profile photo for %s: %v", user.Username, err)
		} else if photo != "" {
			if err := s.userRepo.UpdateProfilePhoto(ctx, user.ID, photo); err != nil {
				log.Printf("ERROR: [SYNC] failed to store profile photo for %s: %v", user.Username, err)
			} else {
				outcome.ProfilePhoto = photo
				photoUpdated = true
			}
		}
	}
	return outcome, photoUpdated
}

func anySucceeded(outcomes map[Platform]*PlatformOutcome) bool {
	for _, o := range outcomes {
		if o.Result != nil && o.Success {
			return true
		}
	}
	return false
}

func externalUsername(user *model.User, platform Platform) string {
	switch platform {
	case PlatformLeetCode:
		if user.LeetCodeUsername != nil {
			return *user.LeetCodeUsername
		}
	case PlatformGFG:
		if user.GFGUsername != nil {
			return *user.GFGUsername
		}
	}
	return ""
}
