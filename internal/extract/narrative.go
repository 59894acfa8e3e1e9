package extract

import (
	"regexp"
	"strings"
)

var separatorLine = regexp.MustCompile(`(?m)^[ \t]*---[ \t]*\r?$`)

// SplitNarrative splits raw on the first line consisting solely of "---".
// structured is everything before the separator and narrative everything
// after the separator's line break, verbatim. When there is no separator,
// structured is raw and found is false.
func SplitNarrative(raw string) (structured, narrative string, found bool) {
	loc := separatorLine.FindStringIndex(raw)
	if loc == nil {
		return raw, "", false
	}
	return raw[:loc[0]], strings.TrimPrefix(raw[loc[1]:], "\n"), true
}
