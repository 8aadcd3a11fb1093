package service

import (
	"time"

	"github.com/gestionale-crm/crm-api/internal/period"
)

// Clock gives "now" and "today" in the business time zone
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock creates a clock for loc; a nil location means UTC
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// FixedClock always returns t
func FixedClock(t time.Time, loc *time.Location) *Clock {
	c := NewClock(loc)
	c.now = func() time.Time { return t }
	return c
}

func (c *Clock) Now() time.Time { return c.now() }

// Today is the current calendar date in the clock location
func (c *Clock) Today() time.Time { return period.Day(c.now(), c.loc) }

func (c *Clock) Location() *time.Location { return c.loc }
