package zone

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

const clockLayout = "15:04"

var weekdays = map[string]struct{}{
	"sunday": {}, "monday": {}, "tuesday": {}, "wednesday": {},
	"thursday": {}, "friday": {}, "saturday": {},
}

// TimeWindow is the schedule during which a device may be inside a zone.
// Times are UTC "HH:MM"; an End before Start wraps past midnight. Empty
// fields do not restrict.
type TimeWindow struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Days  []string `json:"days"`
}

// ParseTimeWindow reads a zone's time restrictions. Blank or null input, or
// an object without start, end or days, yields a nil window.
func ParseTimeWindow(raw json.RawMessage) (*TimeWindow, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var w TimeWindow
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, ErrInvalidTimeWindow
	}

	if (w.Start == "") != (w.End == "") {
		return nil, ErrInvalidTimeWindow
	}
	if w.Start != "" {
		start, err := time.Parse(clockLayout, strings.TrimSpace(w.Start))
		if err != nil {
			return nil, ErrInvalidTimeWindow
		}
		end, err := time.Parse(clockLayout, strings.TrimSpace(w.End))
		if err != nil {
			return nil, ErrInvalidTimeWindow
		}
		w.Start, w.End = start.Format(clockLayout), end.Format(clockLayout)
	}

	days := make([]string, 0, len(w.Days))
	for _, d := range w.Days {
		d = strings.ToLower(strings.TrimSpace(d))
		if _, ok := weekdays[d]; !ok {
			return nil, ErrInvalidTimeWindow
		}
		days = append(days, d)
	}
	w.Days = days

	if w.Start == "" && len(w.Days) == 0 {
		return nil, nil
	}
	return &w, nil
}

// Allows reports whether t falls inside the window. A nil window allows all times.
func (w *TimeWindow) Allows(t time.Time) bool {
	if w == nil {
		return true
	}
	t = t.UTC()

	if len(w.Days) > 0 {
		today := strings.ToLower(t.Weekday().String())
		found := false
		for _, d := range w.Days {
			if d == today {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if w.Start == "" {
		return true
	}
	clock := t.Format(clockLayout)
	if w.Start <= w.End {
		return clock >= w.Start && clock <= w.End
	}
	return clock >= w.Start || clock <= w.End
}
