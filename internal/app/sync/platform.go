package sync

import (
	"regexp"
	"strings"

	gosimple "github.com/gosimple/slug"
)

// Platform identifies which external judge a question URL belongs to.
type Platform string

const (
	PlatformGFG          Platform = "gfg"
	PlatformLeetCode     Platform = "leetcode"
	PlatformInterviewBit Platform = "interviewbit"
	PlatformUnknown      Platform = "unknown"
)

// SyncablePlatforms are the platforms we have upstream APIs for.
// InterviewBit questions are identified but have no known public API.
var SyncablePlatforms = []Platform{PlatformLeetCode, PlatformGFG}

// IdentifyPlatform classifies a question link by substring. Total: any
// input, including the empty string, maps to one of the four tags.
func IdentifyPlatform(url string) Platform {
	switch {
	case strings.Contains(url, "geeksforgeeks.org") || strings.Contains(url, "practice.geeksforgeeks.org"):
		return PlatformGFG
	case strings.Contains(url, "leetcode.com"):
		return PlatformLeetCode
	case strings.Contains(url, "interviewbit.com"):
		return PlatformInterviewBit
	default:
		return PlatformUnknown
	}
}

func (p Platform) DisplayName() string {
	switch p {
	case PlatformGFG:
		return "GeeksforGeeks"
	case PlatformLeetCode:
		return "LeetCode"
	case PlatformInterviewBit:
		return "InterviewBit"
	default:
		return "Unknown"
	}
}

func (p Platform) Syncable() bool {
	return p == PlatformLeetCode || p == PlatformGFG
}

var (
	leetcodeSlugRe = regexp.MustCompile(`/problems/([^/]+)/?`)
	trailingNumRe  = regexp.MustCompile(`-\d+$`)
)

// ExtractLeetCodeSlug pulls the problem slug out of a LeetCode URL,
// e.g. ".../problems/two-sum/description" -> "two-sum". Empty when the
// URL has no /problems/ segment.
func ExtractLeetCodeSlug(url string) string {
	m := leetcodeSlugRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// ExtractGFGProblemName derives the base problem name from a GFG URL.
// GFG appends a numeric suffix to problem slugs (e.g.
// "chocolate-distribution-problem-1587115620"), which is stripped so the
// same problem matches across catalog and API URLs.
func ExtractGFGProblemName(url string) string {
	_, after, found := strings.Cut(url, "/problems/")
	if !found {
		return url
	}
	base := after
	if i := strings.IndexByte(base, '/'); i >= 0 {
		base = base[:i]
	}
	return trailingNumRe.ReplaceAllString(base, "")
}

// NormalizeTitle lowercases and collapses non-alphanumeric runs to single
// hyphens with the ends trimmed, so "Two Sum!" and "two-sum" compare equal.
func NormalizeTitle(title string) string {
	return gosimple.Make(title)
}
