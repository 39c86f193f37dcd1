package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// ErrNoDateFound is returned when no date expression is recognized in the
// text. Callers re-prompt rather than guessing a default.
var ErrNoDateFound = errors.New("no date expression found")

const isoDateLayout = "2006-01-02"

var (
	numericDateRe  = regexp.MustCompile(`\b(\d{4}-\d{1,2}-\d{1,2}|\d{1,2}/\d{1,2}/\d{4})\b`)
	monthNameRe    = regexp.MustCompile(`(?i)\b((?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?)\b`)
	dayFirstRe     = regexp.MustCompile(`(?i)\b(\d{1,2}(?:st|nd|rd|th)?\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?(?:,?\s+\d{4})?)\b`)
	weekdayRe      = regexp.MustCompile(`(?i)\b(?:next|coming)\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	inDaysRe       = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+days?\b`)
	inWeeksRe      = regexp.MustCompile(`(?i)\bin\s+(\d+)\s+weeks?\b`)
	yearRe         = regexp.MustCompile(`\b\d{4}\b`)
	ordinalRe      = regexp.MustCompile(`(?i)(\d{1,2})(st|nd|rd|th)`)
	dayYearCommaRe = regexp.MustCompile(`(\d{1,2}),?\s+(\d{4})`)
)

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ExtractDate resolves a natural-language date expression in text to an
// ISO date (YYYY-MM-DD), relative to ref. Resolution rules in priority
// order: explicit absolute dates, today/tomorrow, "next <weekday>" and its
// alias "coming <weekday>" (both strictly after ref, so "next Monday" said
// on a Monday is seven days out), "next week"/"next month", and
// "in N day(s)/week(s)". Returns ErrNoDateFound when nothing matches.
func ExtractDate(text string, ref time.Time) (string, error) {
	lower := strings.ToLower(text)

	// 1. Explicit absolute dates
	if candidate := numericDateRe.FindString(text); candidate != "" {
		if parsed, err := dateparse.ParseAny(candidate); err == nil {
			return parsed.Format(isoDateLayout), nil
		}
	}
	for _, re := range []*regexp.Regexp{monthNameRe, dayFirstRe} {
		candidate := re.FindString(text)
		if candidate == "" {
			continue
		}
		candidate = ordinalRe.ReplaceAllString(candidate, "$1")
		if !yearRe.MatchString(candidate) {
			candidate = fmt.Sprintf("%s %d", candidate, ref.Year())
		}
		if re == monthNameRe {
			// "June 10 2025" parses more reliably as "June 10, 2025"
			candidate = dayYearCommaRe.ReplaceAllString(candidate, "$1, $2")
		}
		if parsed, err := dateparse.ParseAny(candidate); err == nil {
			return parsed.Format(isoDateLayout), nil
		}
	}

	// 2. Relative keywords
	if containsWord(lower, "today") {
		return ref.Format(isoDateLayout), nil
	}
	if containsWord(lower, "tomorrow") {
		return ref.AddDate(0, 0, 1).Format(isoDateLayout), nil
	}

	// 3/4. "next <weekday>" and the alias "coming <weekday>": the nearest
	// occurrence strictly after ref, even if ref falls on that weekday.
	if match := weekdayRe.FindStringSubmatch(lower); match != nil {
		target := weekdays[match[1]]
		ahead := (int(target) - int(ref.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return ref.AddDate(0, 0, ahead).Format(isoDateLayout), nil
	}

	if strings.Contains(lower, "next week") {
		return ref.AddDate(0, 0, 7).Format(isoDateLayout), nil
	}
	if strings.Contains(lower, "next month") {
		return ref.AddDate(0, 0, 30).Format(isoDateLayout), nil
	}

	// 5. "in N days" / "in N weeks"
	if match := inDaysRe.FindStringSubmatch(lower); match != nil {
		days, err := strconv.Atoi(match[1])
		if err == nil {
			return ref.AddDate(0, 0, days).Format(isoDateLayout), nil
		}
	}
	if match := inWeeksRe.FindStringSubmatch(lower); match != nil {
		weeks, err := strconv.Atoi(match[1])
		if err == nil {
			return ref.AddDate(0, 0, 7*weeks).Format(isoDateLayout), nil
		}
	}

	return "", ErrNoDateFound
}

func containsWord(lower, word string) bool {
	idx := strings.Index(lower, word)
	for idx >= 0 {
		before := idx == 0 || !isLetter(lower[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(lower) || !isLetter(lower[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(lower[idx+1:], word)
		if next < 0 {
			return false
		}
		idx = idx + 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
