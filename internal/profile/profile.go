// Package profile manages user-authored regex extraction profiles,
// persisted one JSON file per profile.
package profile

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Profile names a set of capture/exclude regular expressions for a file
// format. The last capturing group of each capture pattern is the candidate
// text.
type Profile struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	CapturePatterns []string `json:"capture_patterns"`
	ExcludePatterns []string `json:"exclude_patterns"`
	FileType        string   `json:"file_type"`
}

var (
	invalidSlugRE  = regexp.MustCompile(`[^\w\s-]`)
	slugSpacerRE   = regexp.MustCompile(`[-\s]+`)
	stripDiacritic = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Slugify turns a profile name into a filesystem-safe file stem: diacritics
// stripped, lowercased, non-word runs collapsed to single hyphens.
// Digits and underscores survive so names like "Profile v2.0" stay
// distinguishable.
func Slugify(text string) string {
	if stripped, _, err := transform.String(stripDiacritic, text); err == nil {
		text = stripped
	}
	text = strings.ToLower(text)
	text = invalidSlugRE.ReplaceAllString(text, "")
	text = slugSpacerRE.ReplaceAllString(text, "-")
	return strings.Trim(text, "-")
}
