package widget

import "time"

// Element is a node of the host page
type Element interface {
	// Contains reports whether other is this element or one of its
	// descendants
	Contains(other Element) bool
}

// Document delivers page-level click events in the capture phase
type Document interface {
	// AddClickListener registers fn for every click and returns a func that
	// removes it
	AddClickListener(fn func(target Element)) (remove func())
}

// Timer is a pending scheduled call
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls and reads the client wall clock
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
