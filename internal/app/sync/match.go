package sync

import (
	"strings"

	"dsatrack/internal/domain/model"
)

// MatchSolved reconciles solved items against the catalog questions for
// one platform. A question matches when ANY solved item satisfies ANY of:
// slug equality, catalog slug contained in the item's normalized title,
// exact normalized-title equality, or normalized-title containment in
// either direction. Deliberately high-recall: with no shared ID between
// catalog and mirror data, a false positive beats a solved problem
// silently staying unsolved.
func MatchSolved(solvedItems []SolvedItem, candidates []model.Question, platform Platform) []model.Question {
	// Pre-normalize the solved side once.
	type solvedKey struct {
		slug  string
		title string // normalized; falls back to the slug when no title
	}
	keys := make([]solvedKey, 0, len(solvedItems))
	for _, it := range solvedItems {
		if it.Title == "" && it.Slug == "" {
			// Malformed upstream entry: skipped, counts as unmatched.
			continue
		}
		title := it.Title
		if title == "" {
			title = it.Slug
		}
		keys = append(keys, solvedKey{slug: it.Slug, title: NormalizeTitle(title)})
	}

	matched := []model.Question{}
	for _, q := range candidates {
		dbSlug := catalogSlug(q.QuestionLink, platform)
		dbTitle := NormalizeTitle(q.QuestionName)

		for _, k := range keys {
			slugMatch := dbSlug != "" && k.slug != "" && dbSlug == k.slug
			slugInTitle := dbSlug != "" && strings.Contains(k.title, dbSlug)
			exactTitle := dbTitle != "" && dbTitle == k.title
			partial1 := dbTitle != "" && strings.Contains(k.title, dbTitle)
			partial2 := k.title != "" && strings.Contains(dbTitle, k.title)

			if slugMatch || slugInTitle || exactTitle || partial1 || partial2 {
				matched = append(matched, q)
				break
			}
		}
	}
	return matched
}

// catalogSlug extracts the platform-specific slug from a stored question
// link.
func catalogSlug(link string, platform Platform) string {
	switch platform {
	case PlatformGFG:
		name := ExtractGFGProblemName(link)
		if name == link {
			return ""
		}
		return name
	default:
		return ExtractLeetCodeSlug(link)
	}
}
