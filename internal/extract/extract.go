// Package extract finds transaction records embedded in free-form text.
//
// A record is a line starting with
//
//	DD-MM-YYYY | <category> | <description> | <amount>
//
// where the amount is one or more digits optionally followed by a dot and
// more digits. Anything after the amount on the same line is ignored.
// Lines end at \n, \r, U+2028 or U+2029.
package extract

import (
	"iter"
	"regexp"
	"slices"
	"strings"

	"findash/internal/core"
)

var recordPattern = regexp.MustCompile(
	`(?m)(?:^|[\r\x{2028}\x{2029}])(\d{2}-\d{2}-\d{4}) \| ([^\r\n\x{2028}\x{2029}]*?) \| ([^\r\n\x{2028}\x{2029}]*?) \| (\d+(?:\.\d+)?)`)

func isLineEnd(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

// Records yields every record in text, in order of appearance.
// Matching resumes at the next line after each hit, so records never overlap.
// Each range over the returned sequence scans text from the beginning.
func Records(text string) iter.Seq[core.RawMatch] {
	return func(yield func(core.RawMatch) bool) {
		rest := text
		for rest != "" {
			loc := recordPattern.FindStringSubmatchIndex(rest)
			if loc == nil {
				return
			}
			m := core.RawMatch{
				RawDate:     rest[loc[2]:loc[3]],
				RawCategory: rest[loc[4]:loc[5]],
				Description: rest[loc[6]:loc[7]],
				RawAmount:   rest[loc[8]:loc[9]],
			}
			if !yield(m) {
				return
			}
			// The terminator stays in rest; a lone \r is matched by the
			// pattern's line-start alternative.
			end := strings.IndexFunc(rest[loc[1]:], isLineEnd)
			if end < 0 {
				return
			}
			rest = rest[loc[1]+end:]
		}
	}
}

// All collects Records(text) into a slice.
func All(text string) []core.RawMatch {
	return slices.Collect(Records(text))
}
