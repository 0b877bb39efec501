package campusdual

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// DateLayout is the day-first layout every portal date is rendered in (DD.MM.YYYY).
const DateLayout = "02.01.2006"

// EarliestDate is returned by ParseDate for anything it cannot parse, so that
// unparsable dates order before every real one.
var EarliestDate = time.Time{}

// ParseDate parses a DD.MM.YYYY date, it returns EarliestDate on failure.
func ParseDate(value string) time.Time {
	date, err := time.Parse(DateLayout, value)
	if err != nil {
		return EarliestDate
	}
	return date
}

// missingTimeDefect is what the portal renders in warning messages when an exam has no time.
const missingTimeDefect = "   :  "

// normalizeWarning left-trims a warning message and removes the missing time rendering.
func normalizeWarning(message string) string {
	message = strings.TrimLeftFunc(message, unicode.IsSpace)
	return strings.ReplaceAll(message, missingTimeDefect, "")
}

var (
	signupDeadlineRegex  = regexp.MustCompile(`bis (\d{2}\.\d{2}\.\d{4})`)
	signoffDeadlineRegex = regexp.MustCompile(`bis zum (\d{2}\.\d{2}\.\d{4})`)
)

func findDeadline(pattern *regexp.Regexp, message string) *string {
	match := pattern.FindStringSubmatch(message)
	if match == nil {
		return nil
	}
	deadline := match[1]
	return &deadline
}

// signupDeadline extracts the date of "bis DD.MM.YYYY" from a sign-up warning.
func signupDeadline(message string) *string {
	return findDeadline(signupDeadlineRegex, message)
}

// signoffDeadline extracts the date of "bis zum DD.MM.YYYY" from a sign-off warning.
func signoffDeadline(message string) *string {
	return findDeadline(signoffDeadlineRegex, message)
}
