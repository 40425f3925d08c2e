// Package scan locates monetary amounts and calendar dates in a line of
// document text, and formats replacement values in the surface style of
// the matched source token.
//
// Amounts use Dutch number formatting: a grouping dot, a decimal comma and
// exactly two decimals, with the euro sign on either side (`€ 1.234,56` or
// `1.234,56 €`). Dates are `DD-MM-YYYY` or `DD.MM.YYYY`.
package scan

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Kind classifies a matched token.
type Kind int

const (
	Amount Kind = iota // monetary amount, either symbol placement
	Date               // calendar date, dash or dot separated
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case Amount:
		return "amount"
	case Date:
		return "date"
	default:
		return "unknown"
	}
}

// Match is one located token. Start and End are byte offsets into the
// scanned line (the euro sign is three bytes in UTF-8).
type Match struct {
	Kind  Kind
	Start int
	End   int
	Text  string
}

// Pattern priority is fixed: symbol-left amounts, symbol-right amounts,
// dash dates, dot dates. A span claimed by an earlier pattern is never
// reconsidered by a later one.
var patterns = []struct {
	kind Kind
	re   *regexp.Regexp
}{
	{Amount, regexp.MustCompile(`€\s?[\d\.\s]+,\d{2}`)},
	{Amount, regexp.MustCompile(`[\d\.\s]+,\d{2}\s?€`)},
	{Date, regexp.MustCompile(`\b\d{2}-\d{2}-\d{4}\b`)},
	{Date, regexp.MustCompile(`\b\d{2}\.\d{2}\.\d{4}\b`)},
}

// Find returns all amount and date tokens in line, left to right.
// Overlapping candidates are resolved greedily in pattern priority order:
// the first non-discarded match claims its span. Results are sorted by
// start offset.
func Find(line string) []Match {
	var (
		matches []Match
		claimed [][2]int
	)

	for _, p := range patterns {
		for _, span := range p.re.FindAllStringIndex(line, -1) {
			s, e := span[0], span[1]
			if overlaps(claimed, s, e) {
				continue
			}
			text := line[s:e]
			if p.kind == Amount && suppressed(text) {
				continue
			}
			claimed = append(claimed, [2]int{s, e})
			matches = append(matches, Match{Kind: p.kind, Start: s, End: e, Text: text})
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches
}

// suppressed reports whether an amount candidate looks like a fragment of a
// 4-digit year rather than money: discard iff the text contains "202" and
// is shorter than 12 characters. The rule is deliberately narrow and does
// not cover other decades or longer grouped values.
func suppressed(text string) bool {
	return strings.Contains(text, "202") && utf8.RuneCountInString(text) < 12
}

func overlaps(claimed [][2]int, s, e int) bool {
	for _, c := range claimed {
		if s < c[1] && e > c[0] {
			return true
		}
	}
	return false
}
