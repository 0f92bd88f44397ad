package models

import (
	"fmt"
	"strconv"
	"strings"
)

// WindowKind selects the calendar days a TimeWindow applies to
type WindowKind string

const (
	// WindowWeekday applies Monday through Friday
	WindowWeekday WindowKind = "weekday"
	// WindowDayOff applies Saturday and Sunday
	WindowDayOff WindowKind = "day_off"
)

// Clock is a wall-clock time of day with minute precision
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses an "HH:MM" 24h time of day
func ParseClock(s string) (Clock, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Clock{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return Clock{}, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("invalid minute in %q", s)
	}

	return Clock{Hour: hour, Minute: minute}, nil
}

// MustParseClock is ParseClock for constants; it panics on bad input
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// MarshalText implements encoding.TextMarshaler
func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Clock) UnmarshalText(text []byte) error {
	parsed, err := ParseClock(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// TimeWindow is one visibility interval of the widget
type TimeWindow struct {
	Kind WindowKind `json:"kind"`
	From Clock      `json:"from"`
	To   Clock      `json:"to"`
}

// WindowRange is the wire shape of a window inside widget mount settings
type WindowRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}
