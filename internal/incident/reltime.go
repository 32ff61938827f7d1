package incident

import (
	"fmt"
	"time"
)

const (
	dayDuration   = 24 * time.Hour
	monthDuration = 30 * dayDuration
	yearDuration  = 365 * dayDuration
)

// RelativeTime renders the age of t as seen at now, e.g. "3 hours ago".
func RelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "Recently"
	}
	age := now.Sub(t)
	switch {
	case age < time.Minute:
		return "Just now"
	case age < time.Hour:
		return plural(int(age/time.Minute), "minute")
	case age < dayDuration:
		return plural(int(age/time.Hour), "hour")
	case age < monthDuration:
		days := int(age / dayDuration)
		switch {
		case days == 1:
			return "Yesterday"
		case days < 7:
			return fmt.Sprintf("%d days ago", days)
		case days < 28:
			return plural(days/7, "week")
		}
		return "4 weeks ago"
	case age < yearDuration:
		return plural(int(age/monthDuration), "month")
	}
	return plural(int(age/yearDuration), "year")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
