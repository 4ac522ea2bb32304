package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dsatrack/internal/common"
)

// Endpoint templates per platform, tried strictly in order. These are
// community mirrors with no uptime guarantees; having several per
// platform is the availability strategy.
var defaultEndpoints = map[Platform][]string{
	PlatformLeetCode: {
		"https://alfa-leetcode-api.onrender.com/{username}/userProfileUserQuestionProgressV2/{username}",
		"https://leetcode-api-faisalshohag.vercel.app/{username}",
	},
	PlatformGFG: {
		"https://geeks-for-geeks-api.vercel.app/{username}",
	},
}

const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// FetchError is the terminal failure after every endpoint and attempt
// for a platform has been exhausted. It carries the last error observed
// for diagnostics.
type FetchError struct {
	Platform Platform
	LastErr  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("all %s APIs are currently unavailable: %v", e.Platform.DisplayName(), e.LastErr)
}

func (e *FetchError) Unwrap() error { return common.ErrUpstreamUnavailable }

// Details is the last attempt's error message, surfaced to callers in
// 503 responses.
func (e *FetchError) Details() string {
	if e.LastErr == nil {
		return "unknown error"
	}
	return e.LastErr.Error()
}

// Fetcher retrieves solved-problem payloads from the upstream mirrors
// with per-attempt timeout, retry with backoff, and ordered endpoint
// fallback.
type Fetcher struct {
	client         *http.Client
	endpoints      map[Platform][]string
	maxAttempts    int
	attemptTimeout time.Duration
	backoff        time.Duration
}

type FetcherOptions struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	Backoff        time.Duration
	// Endpoints overrides the default templates; used by tests.
	Endpoints map[Platform][]string
}

func NewFetcher(opts FetcherOptions) *Fetcher {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = 10 * time.Second
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 2 * time.Second
	}
	endpoints := opts.Endpoints
	if endpoints == nil {
		endpoints = defaultEndpoints
	}
	return &Fetcher{
		client:         &http.Client{},
		endpoints:      endpoints,
		maxAttempts:    opts.MaxAttempts,
		attemptTimeout: opts.AttemptTimeout,
		backoff:        opts.Backoff,
	}
}

// FetchSolvedData returns the first valid payload from the platform's
// endpoint chain. Attempts on one endpoint are exhausted (with backoff
// between them) before falling over to the next; the first valid
// response wins and no further endpoints are tried.
func (f *Fetcher) FetchSolvedData(ctx context.Context, platform Platform, externalUsername string) (json.RawMessage, error) {
	endpoints := f.endpoints[platform]
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("no endpoints configured for platform %q", platform)
	}

	var lastErr error
	for i, tmpl := range endpoints {
		endpoint := expandEndpoint(tmpl, externalUsername)
		for attempt := 1; attempt <= f.maxAttempts; attempt++ {
			payload, err := f.fetchOnce(ctx, endpoint)
			if err == nil {
				log.Printf("INFO: [SYNC] fetched %s data from endpoint %d on attempt %d", platform, i+1, attempt)
				return payload, nil
			}
			lastErr = err
			log.Printf("WARN: [SYNC] %s endpoint %d attempt %d failed: %v", platform, i+1, attempt, err)
			if attempt < f.maxAttempts {
				if err := sleepCtx(ctx, f.backoff); err != nil {
					return nil, &FetchError{Platform: platform, LastErr: err}
				}
			}
		}
	}
	return nil, &FetchError{Platform: platform, LastErr: lastErr}
}

// FetchProfilePhoto grabs the profile picture URL from the GFG profile
// payload. Best effort: one attempt, empty string when absent.
func (f *Fetcher) FetchProfilePhoto(ctx context.Context, gfgUsername string) (string, error) {
	endpoints := f.endpoints[PlatformGFG]
	if len(endpoints) == 0 {
		return "", fmt.Errorf("no endpoints configured for platform %q", PlatformGFG)
	}
	payload, err := f.fetchOnce(ctx, expandEndpoint(endpoints[0], gfgUsername))
	if err != nil {
		return "", err
	}
	var p gfgPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", fmt.Errorf("decode gfg profile payload: %w", err)
	}
	if p.Info == nil {
		return "", nil
	}
	return p.Info.ProfilePicture, nil
}

func expandEndpoint(tmpl, username string) string {
	return strings.ReplaceAll(tmpl, "{username}", url.PathEscape(username))
}

// fetchOnce performs a single bounded attempt. A response is valid iff
// the status is 2xx, the body is a JSON object, and it carries no
// error indicator field.
func (f *Fetcher) fetchOnce(ctx context.Context, endpoint string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	for _, key := range []string{"error", "errors"} {
		if raw, ok := probe[key]; ok && present(raw) {
			return nil, fmt.Errorf("upstream error response: %s", strings.TrimSpace(string(raw)))
		}
	}
	return body, nil
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
