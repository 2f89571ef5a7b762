package domain

import (
	"strings"
	"time"
)

// KBCategory groups knowledge-base articles.
type KBCategory struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// KBArticle is a markdown article with a draft/publish workflow. The
// category reference is weak; deleting a category leaves articles in
// place.
type KBArticle struct {
	ID          string
	CategoryID  *string
	Title       string
	Excerpt     string
	Content     string
	IsPublished bool
	IsFeatured  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// kbStopwords are skipped when tokenizing titles for the duplicate check.
var kbStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "how": {}, "what": {},
	"why": {}, "when": {}, "can": {}, "not": {}, "you": {}, "your": {},
	"issue": {}, "issues": {}, "problem": {}, "error": {},
}

// SimilarityTokens tokenizes a ticket title for the duplicate-detection
// heuristic: lowercase words of three or more characters, stopwords
// removed. Recall-biased on purpose.
func SimilarityTokens(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if len(f) < 3 {
			continue
		}
		if _, stop := kbStopwords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
