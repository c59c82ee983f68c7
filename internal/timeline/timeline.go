// Package timeline normalizes the three time representations the Zepp API
// mixes freely: absolute unix timestamps (seconds or milliseconds), calendar
// date strings, and minute-of-day offsets that can run past 1440 into the
// next day.
package timeline

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/meltforce/zeppvault/internal/models"
)

// ErrInvalidTimeValue marks a numeric time input outside its domain (e.g. a
// negative minute offset).
var ErrInvalidTimeValue = errors.New("invalid time value")

// Unit selects the resolution of an absolute unix timestamp.
type Unit int

const (
	Seconds Unit = iota
	Milliseconds
)

const minutesPerDay = 1440

// ToAbsolute converts a unix timestamp at the given resolution to a UTC
// instant.
func ToAbsolute(value int64, unit Unit) time.Time {
	if unit == Milliseconds {
		return time.UnixMilli(value).UTC()
	}
	return time.Unix(value, 0).UTC()
}

// LocalTime is the result of resolving a minute-of-day offset against a
// reference date: the calendar date (shifted by whole-day overflow) plus the
// in-day clock position.
type LocalTime struct {
	Date   models.Date
	Hour   int
	Minute int
}

// Instant returns the local time as an absolute instant in the fixed-offset
// zone it was resolved with.
func (lt LocalTime) Instant(tzOffsetSeconds int) time.Time {
	loc := FixedZone(tzOffsetSeconds)
	return time.Date(lt.Date.Year(), lt.Date.Month(), lt.Date.Day(),
		lt.Hour, lt.Minute, 0, 0, loc)
}

// MinuteOfDayToLocal resolves a minute-of-day offset against a reference
// date. Values past 1440 spill into following days: dayOffset = value/1440,
// minuteInDay = value%1440. The supplied fixed offset is the only timezone
// information applied; no timezone-database lookup happens, matching the
// API's fixed-offset-string convention. Negative values are out of domain.
func MinuteOfDayToLocal(value int, reference models.Date, tzOffsetSeconds int) (LocalTime, error) {
	if value < 0 {
		return LocalTime{}, fmt.Errorf("%w: minute offset %d is negative", ErrInvalidTimeValue, value)
	}
	dayOffset := value / minutesPerDay
	minuteInDay := value % minutesPerDay
	return LocalTime{
		Date:   reference.AddDays(dayOffset),
		Hour:   minuteInDay / 60,
		Minute: minuteInDay % 60,
	}, nil
}

// FixedZone returns a fixed-offset location for a Zepp tz offset in seconds.
func FixedZone(offsetSeconds int) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", offsetSeconds/3600), offsetSeconds)
}

// ParseTZOffset parses the summary's "tz" field, a UTC offset in seconds
// serialized as a string (e.g. "-21600" for UTC-6). An empty field means UTC.
func ParseTZOffset(tz string) (int, error) {
	if tz == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(tz)
	if err != nil {
		return 0, fmt.Errorf("%w: cannot parse tz offset %q", ErrInvalidTimeValue, tz)
	}
	return offset, nil
}

// MidnightBefore returns the absolute instant of midnight starting the given
// date in the supplied fixed-offset zone. Sleep stage minute offsets are
// relative to this instant for the payload's assigned date.
func MidnightBefore(date models.Date, tzOffsetSeconds int) time.Time {
	loc := FixedZone(tzOffsetSeconds)
	return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
}
