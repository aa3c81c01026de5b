// file: internals/helpers/dbtime/dbtime.go
package dbtime

import "time"

// DefaultTimezone dipakai saat sekolah belum set timezone sendiri.
const DefaultTimezone = "Africa/Kigali"

// SchoolLocation load *time.Location milik sekolah.
// Fallback: Africa/Kigali, lalu UTC.
func SchoolLocation(tz string) *time.Location {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// DayBounds: awal & akhir (eksklusif) hari kalender yang memuat t, di zona loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}

// SameCalendarDay: dua waktu jatuh di hari kalender yang sama (zona loc).
func SameCalendarDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}
