package models

// WidgetMount is the per-instance data a widget needs to mount
type WidgetMount struct {
	URL      string                     `json:"url"`
	AttrID   string                     `json:"attr_id"`
	Settings map[WindowKind]WindowRange `json:"settings"`
	PhoneKey string                     `json:"phone_key"`
}

// Windows converts the mount settings back into time windows. Entries that
// do not parse are skipped.
func (m WidgetMount) Windows() []TimeWindow {
	windows := make([]TimeWindow, 0, len(m.Settings))
	for _, kind := range []WindowKind{WindowWeekday, WindowDayOff} {
		if r, ok := m.Settings[kind]; ok {
			if w, ok := r.window(kind); ok {
				windows = append(windows, w)
			}
		}
	}
	for kind, r := range m.Settings {
		if kind == WindowWeekday || kind == WindowDayOff {
			continue
		}
		if w, ok := r.window(kind); ok {
			windows = append(windows, w)
		}
	}
	return windows
}

func (r WindowRange) window(kind WindowKind) (TimeWindow, bool) {
	from, err := ParseClock(r.From)
	if err != nil {
		return TimeWindow{}, false
	}
	to, err := ParseClock(r.To)
	if err != nil {
		return TimeWindow{}, false
	}
	return TimeWindow{Kind: kind, From: from, To: to}, true
}
