package clock

import "time"

// Clock is the single source of truth for timing decisions. Elapsed and
// remaining time are always derived from a server-side Now; client-reported
// timestamps are never trusted.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall-clock backed Clock used in production.
func System() Clock { return systemClock{} }

// Fake is a manually advanced Clock for tests.
type Fake struct {
	Current time.Time
}

func NewFake(t time.Time) *Fake { return &Fake{Current: t} }

func (f *Fake) Now() time.Time { return f.Current }

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) { f.Current = f.Current.Add(d) }
