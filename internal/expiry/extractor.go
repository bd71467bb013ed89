package expiry

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Label vocabulary seen on product packaging. OCR output is inconsistent,
// so every date shape is matched both with and without a qualifying keyword.
const keyword = `(?:exp(?:iry)?\.?|best\s*before|use\s*by|use\s*before|valid\s*until|bb)(?:\s*date)?[\s:.]+`

// candidate is one parsed date before tie-break selection.
type candidate struct {
	when time.Time
	raw  string
	rule string
}

// matcher scans text for one date shape and returns all valid candidates.
type matcher struct {
	rule  string
	re    *regexp.Regexp
	parse func(groups []string) (time.Time, bool)
}

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

const monthNames = `jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec`

// Keyword-qualified shapes are listed before their bare equivalents. All
// matchers contribute to one candidate pool; the order documents priority,
// it does not short-circuit.
var matchers = []matcher{
	{
		rule:  "keyword day-month-year",
		re:    regexp.MustCompile(`(?i)` + keyword + `(\d{1,2})[/-](\d{1,2})[/-](\d{4})`),
		parse: parseDayMonthYear,
	},
	{
		rule:  "keyword month-year",
		re:    regexp.MustCompile(`(?i)` + keyword + `(\d{1,2})[/-](\d{4})`),
		parse: parseMonthYear,
	},
	{
		rule:  "keyword year-month-day",
		re:    regexp.MustCompile(`(?i)` + keyword + `(\d{4})[/-](\d{1,2})[/-](\d{1,2})`),
		parse: parseYearMonthDay,
	},
	{
		rule:  "bare day-month-year",
		re:    regexp.MustCompile(`(?:^|[^0-9])(\d{1,2})[/-](\d{1,2})[/-](\d{4})(?:[^0-9]|$)`),
		parse: parseDayMonthYear,
	},
	{
		rule:  "bare year-month-day",
		re:    regexp.MustCompile(`(?:^|[^0-9])(\d{4})[/-](\d{1,2})[/-](\d{1,2})(?:[^0-9]|$)`),
		parse: parseYearMonthDay,
	},
	{
		// Leading and trailing guards keep this from firing on a fragment
		// of a full day-month-year or year-month-day sequence.
		rule:  "bare month-year",
		re:    regexp.MustCompile(`(?:^|[^0-9/-])(\d{1,2})[/-](\d{4})(?:[^0-9/-]|$)`),
		parse: parseMonthYear,
	},
	{
		rule:  "keyword textual month",
		re:    regexp.MustCompile(`(?i)` + keyword + `(\d{1,2})\s*(` + monthNames + `)[a-z]*\s*(\d{4})`),
		parse: parseTextualMonth,
	},
	{
		rule:  "bare textual month",
		re:    regexp.MustCompile(`(?i)(?:^|[^0-9])(\d{1,2})\s*(` + monthNames + `)[a-z]*\s*(\d{4})`),
		parse: parseTextualMonth,
	},
	{
		rule:  "keyword end of month",
		re:    regexp.MustCompile(`(?i)` + keyword + `end\s*of\s*(\d{1,2})[/-](\d{4})`),
		parse: parseMonthYear,
	},
}

// ExtractExpiryDate recovers the best-guess expiry date from free-form
// recognized text. It pools candidates from every matcher, discards
// calendar-invalid matches and returns the chronologically latest survivor:
// OCR noise truncates dates more often than it fabricates later ones, and a
// later guess is the safer default to surface for manual correction.
// Candidates in the past are kept; filtering them is the caller's policy,
// since labels routinely carry a manufacture date next to the expiry date.
// The second return value reports whether any plausible date was found.
func ExtractExpiryDate(text string) (time.Time, bool) {
	var found []candidate
	for _, m := range matchers {
		for _, groups := range m.re.FindAllStringSubmatch(text, -1) {
			when, ok := m.parse(groups[1:])
			if !ok {
				continue
			}
			found = append(found, candidate{when: when, raw: groups[0], rule: m.rule})
		}
	}

	if len(found) == 0 {
		return time.Time{}, false
	}

	best := found[0]
	for _, c := range found[1:] {
		if c.when.After(best.when) {
			best = c
		}
	}
	return best.when, true
}

func parseDayMonthYear(groups []string) (time.Time, bool) {
	day, _ := strconv.Atoi(groups[0])
	month, _ := strconv.Atoi(groups[1])
	year, _ := strconv.Atoi(groups[2])
	return makeDate(year, month, day)
}

func parseYearMonthDay(groups []string) (time.Time, bool) {
	year, _ := strconv.Atoi(groups[0])
	month, _ := strconv.Atoi(groups[1])
	day, _ := strconv.Atoi(groups[2])
	return makeDate(year, month, day)
}

// parseMonthYear resolves to the last calendar day of the month, so the
// extracted point represents the last date the product is still safe.
func parseMonthYear(groups []string) (time.Time, bool) {
	month, _ := strconv.Atoi(groups[0])
	year, _ := strconv.Atoi(groups[1])
	if month < 1 || month > 12 {
		return time.Time{}, false
	}
	return lastDayOfMonth(year, time.Month(month)), true
}

func parseTextualMonth(groups []string) (time.Time, bool) {
	day, _ := strconv.Atoi(groups[0])
	month, ok := monthsByName[strings.ToLower(groups[1])]
	if !ok {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(groups[2])
	return makeDate(year, int(month), day)
}

// makeDate builds a midnight-UTC date and rejects calendar-invalid input.
// time.Date normalizes out-of-range components (day 32 becomes the 1st of
// the next month), so the result is checked against the raw fields instead.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// lastDayOfMonth returns midnight UTC on the final day of the given month.
func lastDayOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
}
