package render

import (
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
)

// UnknownDate is shown when a comment's timestamp can not be parsed.
const UnknownDate = "unknown date"

// parseDate tries strict RFC 3339 first and then any format dateparse
// recognises.
func parseDate(value string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, true
	}
	if t, err := dateparse.ParseAny(value); err == nil {
		return t, true
	}

	return time.Time{}, false
}

// RelativeDate labels a timestamp by the time elapsed until now, such as
// "3 days ago". Unparseable timestamps yield UnknownDate and ok is false.
func RelativeDate(value string, now time.Time) (label string, ok bool) {
	t, ok := parseDate(value)
	if !ok {
		return UnknownDate, false
	}

	return humanize.RelTime(t, now, "ago", "from now"), true
}
