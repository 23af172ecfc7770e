package controller

import "time"

// Clock supplies the time used for delta-time stepping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
