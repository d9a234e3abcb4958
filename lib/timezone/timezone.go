package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Stockholm")
	if err != nil {
		panic(err)
	}
}

// force the timezone to Stockholm because the portal renders its booking
// calendar in Swedish local time, and our servers are not guaranteed to
// run in that timezone. date arithmetic on <time.Time>.Year()/Month()/Day()
// would otherwise drift across midnight boundaries.
func Now() time.Time {
	return time.Now().In(Location)
}

// Date constructs a calendar date (midnight) in the portal's timezone.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, Location)
}

// MostRecentMonday returns the Monday of the week containing t, at midnight.
func MostRecentMonday(t time.Time) time.Time {
	t = t.In(Location)
	offset := (int(t.Weekday()) + 6) % 7
	return Date(t.Year(), t.Month(), t.Day()-offset)
}
