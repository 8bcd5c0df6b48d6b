package core

import (
	"regexp"
	"strings"
)

// unsafeSlugChars matches characters that are dropped from branch name slugs.
var unsafeSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)

// whitespaceRuns matches runs of whitespace for collapsing into hyphens.
var whitespaceRuns = regexp.MustCompile(`\s+`)

// BranchName derives a deterministic git branch name from a task ID and
// description: lowercase, unsafe characters stripped, whitespace collapsed to
// single hyphens, slug truncated to maxLen characters, prefixed with the ID.
// An empty slug falls back to "update" so the result is always a valid name.
func BranchName(taskID, description string, maxLen int) string {
	slug := strings.ToLower(description)
	slug = unsafeSlugChars.ReplaceAllString(slug, "")
	slug = whitespaceRuns.ReplaceAllString(strings.TrimSpace(slug), "-")
	slug = strings.Trim(slug, "-")
	if maxLen > 0 && len(slug) > maxLen {
		slug = slug[:maxLen]
		slug = strings.TrimRight(slug, "-")
	}
	if slug == "" {
		slug = "update"
	}
	return taskID + "-" + slug
}
