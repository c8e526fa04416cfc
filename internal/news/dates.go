package news

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateLayouts lists the absolute formats tried in order. Search
// backends and feeds are inconsistent about date shapes.
var dateLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006",
	"02 January 2006",
	"2006年01月02日",
	"2006年1月2日",
}

// Relative expressions in both languages, e.g. "3時間前" or
// "5 hours ago".
var (
	relHoursJa   = regexp.MustCompile(`(\d+)\s*時間前`)
	relDaysJa    = regexp.MustCompile(`(\d+)\s*日前`)
	relMinutesJa = regexp.MustCompile(`(\d+)\s*分前`)
	relHoursEn   = regexp.MustCompile(`(\d+)\s*hours?\s+ago`)
	relDaysEn    = regexp.MustCompile(`(\d+)\s*days?\s+ago`)
	relMinutesEn = regexp.MustCompile(`(\d+)\s*minutes?\s+ago`)
)

// ParseDate parses a published-date string into UTC. It tries the
// absolute layouts first, then relative expressions anchored at now.
// Returns false when nothing matches.
func ParseDate(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}

	lower := strings.ToLower(s)
	for _, rel := range []struct {
		re   *regexp.Regexp
		unit time.Duration
	}{
		{relMinutesJa, time.Minute},
		{relHoursJa, time.Hour},
		{relDaysJa, 24 * time.Hour},
		{relMinutesEn, time.Minute},
		{relHoursEn, time.Hour},
		{relDaysEn, 24 * time.Hour},
	} {
		if m := rel.re.FindStringSubmatch(lower); m != nil {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			return now.UTC().Add(-time.Duration(n) * rel.unit), true
		}
	}

	return time.Time{}, false
}
