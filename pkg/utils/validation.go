package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"inkwell/pkg/models"
)

var (
	nonSlugRunes  = regexp.MustCompile(`[^a-z0-9]+`)
	slugDashRuns  = regexp.MustCompile(`-{2,}`)
	maxSlugLength = 80
)

// ValidateCommentContent trims content and checks it is between 1 and maxLen characters
func ValidateCommentContent(content string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", fmt.Errorf("%w: comment must not be empty", models.ErrInvalidInput)
	}
	if n := utf8.RuneCountInString(trimmed); n > maxLen {
		return "", fmt.Errorf("%w: comment is %d characters, the limit is %d", models.ErrInvalidInput, n, maxLen)
	}
	return trimmed, nil
}

// ValidateTitle validates a post or category title
func ValidateTitle(title string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(title))
	if n < 2 || n > 255 {
		return fmt.Errorf("%w: title must be between 2 and 255 characters", models.ErrInvalidInput)
	}
	return nil
}

// Slugify turns a title into a lowercase ASCII url segment
func Slugify(title string) string {
	// strip accents: é -> e
	decomposed := norm.NFD.String(strings.ToLower(title))
	var b strings.Builder
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	slug := nonSlugRunes.ReplaceAllString(b.String(), "-")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
