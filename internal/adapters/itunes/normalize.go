package itunes

import (
	"regexp"
	"strings"
)

// Search-term cleaning for catalog lookups. AI-suggested titles often carry
// release decorations ("(feat. ...)", "[Remastered]", "- 2011 Remaster") that
// hurt exact-match quality against catalog naming, and multi-artist credits
// confuse the artist term. Every rule only removes text, so cleaning is
// idempotent.
var (
	featSegment    = regexp.MustCompile(`(?i)\s*\((?:feat\.?|featuring|with)\s[^)]*\)`)
	bracketSegment = regexp.MustCompile(`\s*\[[^\]]*\]`)
	remasterSuffix = regexp.MustCompile(`(?i)\s*-\s*[^-]*remaster[^-]*$`)
	remasteredWord = regexp.MustCompile(`(?i)\bremastered\b`)
	singleSuffix   = regexp.MustCompile(`(?i)\s*-\s*[^-]*\bsingle\b\s*$`)
	versionSegment = regexp.MustCompile(`(?i)\s*\([^)]*version\)`)
	multiSpaceRuns = regexp.MustCompile(`\s{2,}`)
)

func cleanQuery(input string) string {
	out := featSegment.ReplaceAllString(input, "")
	out = bracketSegment.ReplaceAllString(out, "")
	out = remasterSuffix.ReplaceAllString(out, "")
	out = remasteredWord.ReplaceAllString(out, "")
	out = singleSuffix.ReplaceAllString(out, "")
	out = versionSegment.ReplaceAllString(out, "")
	out = multiSpaceRuns.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)

	// Multi-artist credits collapse to the primary artist.
	if idx := strings.IndexAny(out, "&,"); idx != -1 {
		out = strings.TrimSpace(out[:idx])
	}

	return out
}
