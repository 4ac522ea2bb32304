package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"dsatrack/internal/common"
	"dsatrack/internal/domain/model"
)

// ---- fakes ----

type fakeUserRepo struct {
	mu    stdsync.Mutex
	users map[string]*model.User

	photoUpdates map[string]string
}

func newFakeUserRepo(users ...*model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*model.User{}, photoUpdates: map[string]string{}}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(ctx context.Context, id, fullName string, leetcodeUsername, gfgUsername *string) error {
	return nil
}

func (r *fakeUserRepo) UpdateProfilePhoto(ctx context.Context, id, photoURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.photoUpdates[id] = photoURL
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error { return nil }

func (r *fakeUserRepo) StoreRefreshToken(ctx context.Context, token *model.RefreshToken) error {
	return nil
}

func (r *fakeUserRepo) FindRefreshToken(ctx context.Context, userID, token string) (*model.RefreshToken, error) {
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) DeleteRefreshToken(ctx context.Context, token string) error { return nil }

type fakeQuestionRepo struct {
	questions []model.Question
}

func (r *fakeQuestionRepo) Create(ctx context.Context, q *model.Question) error { return nil }
func (r *fakeQuestionRepo) Update(ctx context.Context, q *model.Question) error { return nil }
func (r *fakeQuestionRepo) Delete(ctx context.Context, id string) error         { return nil }
func (r *fakeQuestionRepo) FindByID(ctx context.Context, id string) (*model.Question, error) {
	return nil, common.ErrNotFound
}
func (r *fakeQuestionRepo) List(ctx context.Context) ([]model.Question, error) {
	return r.questions, nil
}
func (r *fakeQuestionRepo) ListFiltered(ctx context.Context, qType model.QuestionType, difficulty model.QuestionDifficulty) ([]model.Question, error) {
	return r.questions, nil
}

type progressKey struct{ userID, questionID string }

type fakeProgressRepo struct {
	mu      stdsync.Mutex
	records map[progressKey]model.ProgressRecord
	upserts int
	failAll bool
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{records: map[progressKey]model.ProgressRecord{}}
}

func (r *fakeProgressRepo) Upsert(ctx context.Context, userID, questionID string, isSolved bool, solvedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return errors.New("storage down")
	}
	r.upserts++
	r.records[progressKey{userID, questionID}] = model.ProgressRecord{
		UserID: userID, QuestionID: questionID, IsSolved: isSolved, SolvedAt: solvedAt,
	}
	return nil
}

func (r *fakeProgressRepo) ListByUser(ctx context.Context, userID string) ([]model.ProgressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProgressRecord
	for k, rec := range r.records {
		if k.userID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type stubFetcher struct {
	payloads map[Platform]json.RawMessage
	photo    string
	err      error
}

func (f *stubFetcher) FetchSolvedData(ctx context.Context, platform Platform, externalUsername string) (json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	if payload, ok := f.payloads[platform]; ok {
		return payload, nil
	}
	return nil, &FetchError{Platform: platform, LastErr: errors.New("no payload")}
}

func (f *stubFetcher) FetchProfilePhoto(ctx context.Context, gfgUsername string) (string, error) {
	return f.photo, nil
}

func strPtr(s string) *string { return &s }

func testUser(id, lcUsername string) *model.User {
	u := &model.User{ID: id, Username: id, Role: model.RoleUser}
	if lcUsername != "" {
		u.LeetCodeUsername = strPtr(lcUsername)
	}
	return u
}

// ---- tests ----

func TestSyncPlatformEndToEnd(t *testing.T) {
	var primaryCalls atomic.Int32
	primary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		primaryCalls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer primary.Close()

	secondary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"totalSolved": 9, "easySolved": 5, "mediumSolved": 3, "hardSolved": 1,
			"recentSubmissions": [
				{"title": "Two Sum", "titleSlug": "two-sum", "statusDisplay": "Accepted"}
			]
		}`))
	}))
	defer secondary.Close()

	fetcher := NewFetcher(FetcherOptions{
		MaxAttempts:    3,
		AttemptTimeout: time.Second,
		Backoff:        time.Millisecond,
		Endpoints: map[Platform][]string{
			PlatformLeetCode: {primary.URL + "/{username}", secondary.URL + "/{username}"},
		},
	})

	userRepo := newFakeUserRepo(testUser("u1", "alice"))
	questionRepo := &fakeQuestionRepo{questions: []model.Question{
		{ID: "q1", QuestionName: "Two Sum", QuestionLink: "https://leetcode.com/problems/two-sum/"},
		{ID: "q2", QuestionName: "3Sum", QuestionLink: "https://leetcode.com/problems/3sum/"},
		{ID: "q3", QuestionName: "Reverse a Linked List", QuestionLink: "https://practice.geeksforgeeks.org/problems/reverse-a-linked-list/1"},
	}}
	progressRepo := newFakeProgressRepo()

	svc := NewService(userRepo, questionRepo, progressRepo, fetcher, nil, Options{BatchSize: 5, BatchDelay: time.Millisecond})

	result, err := svc.SyncPlatform(context.Background(), "u1", PlatformLeetCode)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if primaryCalls.Load() != 3 {
		t.Errorf("expected 3 attempts on the failing endpoint, got %d", primaryCalls.Load())
	}
	if !result.Success {
		t.Error("expected success")
	}
	// Only the LeetCode questions are candidates.
	if result.Stats.TotalPlatformQuestions != 2 {
		t.Errorf("expected 2 platform questions, got %d", result.Stats.TotalPlatformQuestions)
	}
	if result.Stats.SolvedQuestions != 1 || result.Stats.UpdatedQuestions != 1 {
		t.Errorf("expected 1 solved / 1 updated, got %+v", result.Stats)
	}
	if result.Stats.APIStats.Total != 9 {
		t.Errorf("expected apiStats total 9, got %d", result.Stats.APIStats.Total)
	}

	rec, ok := progressRepo.records[progressKey{"u1", "q1"}]
	if !ok || !rec.IsSolved || rec.SolvedAt == nil {
		t.Errorf("expected q1 marked solved with timestamp, got %+v", rec)
	}
	if _, ok := progressRepo.records[progressKey{"u1", "q2"}]; ok {
		t.Error("q2 was never solved and must not get a row")
	}
}

func TestSyncPlatformIdempotent(t *testing.T) {
	payload := json.RawMessage(`{"recentSubmissions": [{"title": "Two Sum", "titleSlug": "two-sum", "statusDisplay": "Accepted"}]}`)
	userRepo := newFakeUserRepo(testUser("u1", "alice"))
	questionRepo := &fakeQuestionRepo{questions: []model.Question{
		{ID: "q1", QuestionName: "Two Sum", QuestionLink: "https://leetcode.com/problems/two-sum/"},
	}}
	progressRepo := newFakeProgressRepo()

	svc := NewService(userRepo, questionRepo, progressRepo,
		&stubFetcher{payloads: map[Platform]json.RawMessage{PlatformLeetCode: payload}}, nil, Options{})

	for i := 0; i < 3; i++ {
		if _, err := svc.SyncPlatform(context.Background(), "u1", PlatformLeetCode); err != nil {
			t.Fatalf("sync %d failed: %v", i, err)
		}
	}

	if len(progressRepo.records) != 1 {
		t.Errorf("repeated syncs must keep exactly one row per pair, got %d", len(progressRepo.records))
	}
	rec := progressRepo.records[progressKey{"u1", "q1"}]
	if !rec.IsSolved {
		t.Error("question must stay solved across repeated syncs")
	}
}

func TestSyncPlatformMissingIdentity(t *testing.T) {
	userRepo := newFakeUserRepo(testUser("u1", "")) // no LeetCode handle
	svc := NewService(userRepo, &fakeQuestionRepo{}, newFakeProgressRepo(), &stubFetcher{}, nil, Options{})

	_, err := svc.SyncPlatform(context.Background(), "u1", PlatformLeetCode)
	if !errors.Is(err, common.ErrMissingExternalIdentity) {
		t.Fatalf("expected ErrMissingExternalIdentity, got %v", err)
	}
}

func TestSyncPlatformUpstreamUnavailable(t *testing.T) {
	userRepo := newFakeUserRepo(testUser("u1", "alice"))
	svc := NewService(userRepo, &fakeQuestionRepo{}, newFakeProgressRepo(),
		&stubFetcher{err: &FetchError{Platform: PlatformLeetCode, LastErr: errors.New("HTTP 429: Too Many Requests")}},
		nil, Options{})

	_, err := svc.SyncPlatform(context.Background(), "u1", PlatformLeetCode)
	if !errors.Is(err, common.ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Details() != "HTTP 429: Too Many Requests" {
		t.Errorf("expected last-attempt details to survive, got %v", err)
	}
}

func TestSyncPlatformStatsOnlyPayload(t *testing.T) {
	payload := json.RawMessage(`{"totalSolved": 12, "easySolved": 6, "mediumSolved": 4, "hardSolved": 2}`)
	userRepo := newFakeUserRepo(testUser("u1", "alice"))
	questionRepo := &fakeQuestionRepo{questions: []model.Question{
		{ID: "q1", QuestionName: "Two Sum", QuestionLink: "https://leetcode.com/problems/two-sum/"},
	}}
	progressRepo := newFakeProgressRepo()

	svc := NewService(userRepo, questionRepo, progressRepo,
		&stubFetcher{payloads: map[Platform]json.RawMessage{PlatformLeetCode: payload}}, nil, Options{})

	result, err := svc.SyncPlatform(context.Background(), "u1", PlatformLeetCode)
	if err != nil {
		t.Fatalf("stats-only payload must not be an error: %v", err)
	}
	if !result.Success || result.Stats.Limitation == "" {
		t.Errorf("expected success with a limitation note, got %+v", result)
	}
	if result.Stats.UpdatedQuestions != 0 || len(progressRepo.records) != 0 {
		t.Error("stats-only sync must not write progress")
	}
	if result.Stats.APIStats.Total != 12 {
		t.Errorf("expected apiStats total 12, got %d", result.Stats.APIStats.Total)
	}
}

func TestSyncPlatformContainsUpsertFailures(t *testing.T) {
	payload := json.RawMessage(`{"recentSubmissions": [{"title": "Two Sum", "titleSlug": "two-sum", "statusDisplay": "Accepted"}]}`)
	userRepo := newFakeUserRepo(testUser("u1", "alice"))
	questionRepo := &fakeQuestionRepo{questions: []model.Question{
		{ID: "q1", QuestionName: "Two Sum", QuestionLink: "https://leetcode.com/problems/two-sum/"},
	}}
	progressRepo := newFakeProgressRepo()
	progressRepo.failAll = true

	svc := NewService(userRepo, questionRepo, progressRepo,
		&stubFetcher{payloads: map[Platform]json.RawMessage{PlatformLeetCode: payload}}, nil, Options{})

	result, err := svc.SyncPlatform(context.Background(), "u1", PlatformLeetCode)
	if err != nil {
		t.Fatalf("storage failures are contained per item, got %v", err)
	}
	if result.Stats.SolvedQuestions != 1 || result.Stats.UpdatedQuestions != 0 {
		t.Errorf("expected 1 matched but 0 updated, got %+v", result.Stats)
	}
}

func TestSyncAllPlatformsContainsFailures(t *testing.T) {
	payload := json.RawMessage(`{"recentSubmissions": [{"title": "Two Sum", "titleSlug": "two-sum", "statusDisplay": "Accepted"}]}`)
	user := testUser("u1", "alice")
	user.GFGUsername = strPtr("alice_gfg")
	userRepo := newFakeUserRepo(user)
	questionRepo := &fakeQuestionRepo{questions: []model.Question{
		{ID: "q1", QuestionName: "Two Sum", QuestionLink: "https://leetcode.com/problems/two-sum/"},
	}}

	// LeetCode succeeds, GFG has no payload and fails.
	svc := NewService(userRepo, questionRepo, newFakeProgressRepo(),
		&stubFetcher{payloads: map[Platform]json.RawMessage{PlatformLeetCode: payload}}, nil, Options{})

	outcomes := svc.SyncAllPlatforms(context.Background(), "u1")
	if len(outcomes) != len(SyncablePlatforms) {
		t.Fatalf("expected an outcome per platform, got %d", len(outcomes))
	}
	if lc := outcomes[PlatformLeetCode]; lc.Result == nil || !lc.Success {
		t.Errorf("LeetCode should succeed, got %+v", lc)
	}
	if gfg := outcomes[PlatformGFG]; gfg.Result != nil || gfg.Error == "" {
		t.Errorf("GFG failure should be contained in its outcome, got %+v", gfg)
	}
}

func TestSyncAllUsersBatching(t *testing.T) {
	payload := json.RawMessage(`{"recentSubmissions": [{"title": "Two Sum", "titleSlug": "two-sum", "statusDisplay": "Accepted"}]}`)

	var users []*model.User
	for i := 0; i < 12; i++ {
		users = append(users, testUser(fmt.Sprintf("u%02d", i), fmt.Sprintf("handle%02d", i)))
	}
	userRepo := newFakeUserRepo(users...)
	questionRepo := &fakeQuestionRepo{questions: []model.Question{
		{ID: "q1", QuestionName: "Two Sum", QuestionLink: "https://leetcode.com/problems/two-sum/"},
	}}

	svc := NewService(userRepo, questionRepo, newFakeProgressRepo(),
		&stubFetcher{payloads: map[Platform]json.RawMessage{PlatformLeetCode: payload}},
		nil, Options{BatchSize: 5, BatchDelay: 2 * time.Second})

	var sleeps []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	result, err := svc.SyncAllUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 12 users in batches of 5: delays between batches only, never after
	// the last one.
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 inter-batch delays, got %d", len(sleeps))
	}
	for _, d := range sleeps {
		if d != 2*time.Second {
			t.Errorf("expected 2s delay, got %v", d)
		}
	}
	if result.Total != 12 || len(result.Success) != 12 || len(result.Failed) != 0 {
		t.Errorf("expected all 12 users to succeed, got total=%d success=%d failed=%d",
			result.Total, len(result.Success), len(result.Failed))
	}
}

func TestSyncAllUsersSkipsUnboundPlatformsAndUpdatesPhotos(t *testing.T) {
	payload := json.RawMessage(`{"recentSubmissions": [{"title": "Two Sum", "titleSlug": "two-sum", "statusDisplay": "Accepted"}]}`)
	gfgPayload := json.RawMessage(`{"solvedStats": {"easy": {"count": 1, "questions": [{"questionUrl": "https://practice.geeksforgeeks.org/problems/two-sum-x/1"}]}}}`)

	withBoth := testUser("both", "lc_handle")
	withBoth.GFGUsername = strPtr("gfg_handle")
	lcOnly := testUser("lconly", "lc_handle2")
	unbound := testUser("unbound", "")

	userRepo := newFakeUserRepo(withBoth, lcOnly, unbound)
	questionRepo := &fakeQuestionRepo{questions: []model.Question{
		{ID: "q1", QuestionName: "Two Sum", QuestionLink: "https://leetcode.com/problems/two-sum/"},
	}}

	svc := NewService(userRepo, questionRepo, newFakeProgressRepo(),
		&stubFetcher{
			payloads: map[Platform]json.RawMessage{PlatformLeetCode: payload, PlatformGFG: gfgPayload},
			photo:    "https://media.geeksforgeeks.org/photo.png",
		},
		nil, Options{BatchSize: 5})
	svc.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	result, err := svc.SyncAllUsers(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Success) != 2 || len(result.Failed) != 1 {
		t.Fatalf("expected 2 success / 1 failed, got %d/%d", len(result.Success), len(result.Failed))
	}
	for _, outcome := range result.Failed {
		if outcome.ID != "unbound" {
			t.Errorf("only the unbound user should fail, got %q", outcome.ID)
		}
		if len(outcome.Platforms) != 0 {
			t.Errorf("unbound platforms must be skipped, not attempted: %+v", outcome.Platforms)
		}
	}

	if result.ProfilesUpdated != 1 {
		t.Errorf("expected 1 profile photo update, got %d", result.ProfilesUpdated)
	}
	if userRepo.photoUpdates["both"] != "https://media.geeksforgeeks.org/photo.png" {
		t.Errorf("expected photo stored for GFG-bound user, got %v", userRepo.photoUpdates)
	}
}
