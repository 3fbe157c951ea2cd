package ledger

import "time"

// Default admission window bounds, used when the corresponding
// system settings are missing.
const (
	DefaultStartHour = 18
	DefaultEndHour   = 23
)

// Window is the configured hour-of-day range during which reservations
// are accepted. Both bounds are inclusive: the instants StartHour:00:00
// and EndHour:00:00 are valid. The window is always evaluated against the
// current day in local time, regardless of the date being reserved for.
//
// A window with StartHour greater than EndHour does not wrap around
// midnight; the comparison stays literal and such a window admits nothing.
type Window struct {
	StartHour int // First admitted hour of the day, inclusive
	EndHour   int // Last admitted hour of the day, inclusive
}

// DefaultWindow returns the window used when no bounds are configured.
func DefaultWindow() Window {
	return Window{StartHour: DefaultStartHour, EndHour: DefaultEndHour}
}

// Contains reports whether now falls inside the window on now's own
// calendar day.
func (w Window) Contains(now time.Time) bool {
	year, month, day := now.Date()
	start := time.Date(year, month, day, w.StartHour, 0, 0, 0, now.Location())
	end := time.Date(year, month, day, w.EndHour, 0, 0, 0, now.Location())

	return !now.Before(start) && !now.After(end)
}

// Clock supplies the current time. It is injected into the ledger so the
// admission rule can be tested against fixed instants instead of the
// process wall clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
