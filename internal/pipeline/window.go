package pipeline

import "time"

// AlertWindow is the interval before the day's first tip-off during which
// lineup alerts go out: early enough to act on, late enough that lineups
// are mostly set.
type AlertWindow struct {
	// Open is how long before the first tip-off the window opens.
	Open time.Duration

	// Close is how long before the first tip-off the window closes.
	Close time.Duration
}

// DefaultAlertWindow opens one hour before the first game and closes at
// fifteen minutes before.
func DefaultAlertWindow() AlertWindow {
	return AlertWindow{Open: time.Hour, Close: 15 * time.Minute}
}

// Contains reports whether now falls inside [tipOff-Open, tipOff-Close).
func (w AlertWindow) Contains(now, tipOff time.Time) bool {
	open := tipOff.Add(-w.Open)
	close := tipOff.Add(-w.Close)
	return !now.Before(open) && now.Before(close)
}
