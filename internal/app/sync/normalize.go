package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// SolvedItem is one problem an external account has solved, as extracted
// from an upstream payload. Either field may be empty, never both for a
// usable item.
type SolvedItem struct {
	Title string `json:"title,omitempty"`
	Slug  string `json:"slug,omitempty"`
}

// Key is the dedup/matching identity: slug when present, else the
// normalized title.
func (it SolvedItem) Key() string {
	if it.Slug != "" {
		return it.Slug
	}
	return NormalizeTitle(it.Title)
}

// Stats are aggregate solved counts reported by the upstream API. Basic
// is only populated by GFG, which tracks a difficulty tier below easy.
type Stats struct {
	Basic  int `json:"basic,omitempty"`
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Total  int `json:"total"`
}

// Normalized is the canonical form of any upstream payload. An empty
// SolvedItems with populated Stats is a partial result (the endpoint only
// exposes aggregates), not a failure.
type Normalized struct {
	SolvedItems []SolvedItem
	Stats       Stats
}

// Normalize converts a raw upstream payload into canonical form. The
// payload shape is detected by field presence in a fixed priority order.
func Normalize(platform Platform, raw json.RawMessage) (*Normalized, error) {
	switch platform {
	case PlatformLeetCode:
		return normalizeLeetCode(raw)
	case PlatformGFG:
		return normalizeGFG(raw)
	default:
		return nil, fmt.Errorf("no normalizer for platform %q", platform)
	}
}

// payloadShape tags the known LeetCode mirror response formats.
type payloadShape int

const (
	shapeStatsOnly payloadShape = iota
	shapeSolvedList
	shapeNestedData
	shapeRecentSubmissions
	shapeProblemsSolved
)

// rawItem tolerates both bare-string entries and the several object
// schemas the mirrors use.
type rawItem struct {
	Title  string
	Slug   string
	Status string
}

func (it *rawItem) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &it.Title)
	}
	var obj struct {
		Title         string `json:"title"`
		TitleSlug     string `json:"titleSlug"`
		Name          string `json:"name"`
		StatusDisplay string `json:"statusDisplay"`
		Status        string `json:"status"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	it.Title = obj.Title
	if it.Title == "" {
		it.Title = obj.Name
	}
	it.Slug = obj.TitleSlug
	it.Status = obj.StatusDisplay
	if it.Status == "" {
		it.Status = obj.Status
	}
	return nil
}

// itemList decodes an array of items; anything that is not an array
// (some mirrors report a bare count under the same key) decodes to nil
// without error.
type itemList []rawItem

func (l *itemList) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		*l = nil
		return nil
	}
	var items []rawItem
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

type submitStatEntry struct {
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type leetcodePayload struct {
	SolvedProblem     json.RawMessage `json:"solvedProblem"`
	Solved            json.RawMessage `json:"solved"`
	RecentSubmissions json.RawMessage `json:"recentSubmissions"`
	ProblemsSolved    json.RawMessage `json:"problemsSolved"`

	Data *struct {
		RecentSubmissionList itemList `json:"recentSubmissionList"`
		SubmitStats          *struct {
			AcSubmissionNum []submitStatEntry `json:"acSubmissionNum"`
		} `json:"submitStats"`
	} `json:"data"`

	EasySolved   int `json:"easySolved"`
	Easy         int `json:"easy"`
	MediumSolved int `json:"mediumSolved"`
	Medium       int `json:"medium"`
	HardSolved   int `json:"hardSolved"`
	Hard         int `json:"hard"`
	TotalSolved  int `json:"totalSolved"`
	Total        int `json:"total"`
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// detectShape tries the known formats in fixed priority order and stops
// at the first whose marker field is present.
func detectShape(p *leetcodePayload) payloadShape {
	switch {
	case present(p.SolvedProblem) || present(p.Solved):
		return shapeSolvedList
	case p.Data != nil:
		return shapeNestedData
	case present(p.RecentSubmissions):
		return shapeRecentSubmissions
	case present(p.ProblemsSolved):
		return shapeProblemsSolved
	default:
		return shapeStatsOnly
	}
}

func normalizeLeetCode(raw json.RawMessage) (*Normalized, error) {
	var p leetcodePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode leetcode payload: %w", err)
	}

	n := &Normalized{Stats: Stats{
		Easy:   firstNonZero(p.EasySolved, p.Easy),
		Medium: firstNonZero(p.MediumSolved, p.Medium),
		Hard:   firstNonZero(p.HardSolved, p.Hard),
	}}

	switch detectShape(&p) {
	case shapeSolvedList:
		var items itemList
		if err := items.UnmarshalJSON(p.SolvedProblem); err != nil {
			return nil, fmt.Errorf("decode solvedProblem list: %w", err)
		}
		if len(items) == 0 {
			if err := items.UnmarshalJSON(p.Solved); err != nil {
				return nil, fmt.Errorf("decode solved list: %w", err)
			}
		}
		n.SolvedItems = dedupeItems(toSolvedItems(items))
		n.Stats.Total = firstNonZero(p.TotalSolved, p.Total, len(n.SolvedItems))

	case shapeNestedData:
		accepted := filterAccepted(p.Data.RecentSubmissionList)
		n.SolvedItems = dedupeItems(toSolvedItems(accepted))
		if p.Data.SubmitStats != nil {
			n.Stats = statsFromSubmitStats(p.Data.SubmitStats.AcSubmissionNum)
		} else {
			n.Stats.Total = sumDifficulties(n.Stats)
		}

	case shapeRecentSubmissions:
		var items itemList
		if err := items.UnmarshalJSON(p.RecentSubmissions); err != nil {
			return nil, fmt.Errorf("decode recentSubmissions list: %w", err)
		}
		n.SolvedItems = dedupeItems(toSolvedItems(filterAccepted(items)))
		n.Stats.Total = firstNonZero(p.TotalSolved, len(n.SolvedItems))

	case shapeProblemsSolved:
		var items itemList
		if err := items.UnmarshalJSON(p.ProblemsSolved); err != nil {
			return nil, fmt.Errorf("decode problemsSolved list: %w", err)
		}
		n.SolvedItems = dedupeItems(toSolvedItems(items))
		n.Stats.Total = firstNonZero(p.TotalSolved, len(n.SolvedItems))

	case shapeStatsOnly:
		n.Stats.Total = firstNonZero(p.TotalSolved, p.Total)
	}

	if computed := sumDifficulties(n.Stats); n.Stats.Total < computed {
		n.Stats.Total = computed
	}
	return n, nil
}

type gfgBucket struct {
	Count     int `json:"count"`
	Questions []struct {
		QuestionURL string `json:"questionUrl"`
	} `json:"questions"`
}

type gfgPayload struct {
	Info *struct {
		ProfilePicture string `json:"profilePicture"`
	} `json:"info"`
	SolvedStats map[string]gfgBucket `json:"solvedStats"`
}

// gfgTiers is the fixed iteration order over GFG difficulty buckets.
var gfgTiers = []string{"basic", "easy", "medium", "hard"}

func normalizeGFG(raw json.RawMessage) (*Normalized, error) {
	var p gfgPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode gfg payload: %w", err)
	}

	n := &Normalized{}
	for _, tier := range gfgTiers {
		bucket, ok := p.SolvedStats[tier]
		if !ok {
			continue
		}
		count := bucket.Count
		if count == 0 {
			count = len(bucket.Questions)
		}
		switch tier {
		case "basic":
			n.Stats.Basic = count
		case "easy":
			n.Stats.Easy = count
		case "medium":
			n.Stats.Medium = count
		case "hard":
			n.Stats.Hard = count
		}
		for _, q := range bucket.Questions {
			if q.QuestionURL == "" {
				continue
			}
			n.SolvedItems = append(n.SolvedItems, SolvedItem{Slug: ExtractGFGProblemName(q.QuestionURL)})
		}
	}
	n.SolvedItems = dedupeItems(n.SolvedItems)
	n.Stats.Total = n.Stats.Basic + sumDifficulties(n.Stats)
	return n, nil
}

func filterAccepted(items itemList) itemList {
	out := make(itemList, 0, len(items))
	for _, it := range items {
		if strings.EqualFold(it.Status, "accepted") {
			out = append(out, it)
		}
	}
	return out
}

func toSolvedItems(items itemList) []SolvedItem {
	out := make([]SolvedItem, 0, len(items))
	for _, it := range items {
		out = append(out, SolvedItem{Title: it.Title, Slug: it.Slug})
	}
	return out
}

// dedupeItems drops repeat solves of the same problem, keeping the first
// occurrence. Items with no usable identity are dropped entirely.
func dedupeItems(items []SolvedItem) []SolvedItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]SolvedItem, 0, len(items))
	for _, it := range items {
		key := it.Key()
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}

func statsFromSubmitStats(entries []submitStatEntry) Stats {
	var s Stats
	var all int
	for _, e := range entries {
		switch strings.ToLower(e.Difficulty) {
		case "easy":
			s.Easy = e.Count
		case "medium":
			s.Medium = e.Count
		case "hard":
			s.Hard = e.Count
		case "all":
			all = e.Count
		}
	}
	s.Total = sumDifficulties(s)
	if all > s.Total {
		s.Total = all
	}
	return s
}

func sumDifficulties(s Stats) int {
	return s.Easy + s.Medium + s.Hard
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
