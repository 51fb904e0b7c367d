package clock

import "time"

type Clock interface {
	Now() time.Time
	Advance(d time.Duration)
	Reset()
}

type clock struct {
	delta time.Duration
	now   func() time.Time
}

func (c *clock) Now() time.Time {
	return c.now().Add(c.delta)
}

func (c *clock) Advance(d time.Duration) {
	c.delta += d
}

func (c *clock) Reset() {
	c.delta = 0
}

// Make returns a wall clock that can be pushed forward with Advance.
func Make() Clock {
	return &clock{now: time.Now}
}

// Manual returns a clock frozen at start that only moves with Advance.
func Manual(start time.Time) Clock {
	return &clock{now: func() time.Time { return start }}
}
