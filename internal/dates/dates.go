// Package dates turns typed dates into the day offsets the RoomShare
// contract stores, and back.
package dates

import (
	"fmt"
	"regexp"
	"time"

	"roomShare/internal/apperrors"
)

const (
	layout        = `2006-01-02`
	displayLayout = `Mon Jan 02 2006`
)

var compactDate = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})|(\d{4})-(\d{2})(\d{2})`)

// NormalizeDateInput rewrites the first YYYYMMDD or YYYY-MMDD run into
// YYYY-MM-DD. Anything else is returned untouched.
func NormalizeDateInput(raw string) string {
	loc := compactDate.FindStringSubmatchIndex(raw)
	if loc == nil {
		return raw
	}

	out := make([]byte, 0, len(raw)+2)
	out = append(out, raw[:loc[0]]...)
	out = compactDate.ExpandString(out, `${1}${4}-${2}${5}-${3}${6}`, raw, loc)
	out = append(out, raw[loc[1]:]...)

	return string(out)
}

func parse(date string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, date, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", apperrors.ErrMalformedInput, date)
	}

	return t, nil
}

// DayOfYear returns the 1-based ordinal of date within its own year.
func DayOfYear(date string) (int, error) {
	t, err := parse(date)
	if err != nil {
		return 0, err
	}

	return t.YearDay(), nil
}

// DateFromDayOfYear is the calendar date day days into year; day 1 is
// January 1st and values past the year's end roll over.
func DateFromDayOfYear(year, day int) time.Time {
	return time.Date(year, time.January, day, 0, 0, 0, 0, time.UTC)
}

// ParseDayOffset normalizes user input and returns its day offset.
func ParseDayOffset(raw string) (int64, error) {
	day, err := DayOfYear(NormalizeDateInput(raw))
	if err != nil {
		return 0, err
	}

	return int64(day), nil
}

func FormatDay(year int, day int64) string {
	return DateFromDayOfYear(year, int(day)).Format(displayLayout)
}
