package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and SQL format of calendar dates.
const DateLayout = "2006-01-02"

// Granularity is the time-bucket truncation unit of a series.
type Granularity string

// Supported granularities.
const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// Granularities lists every supported granularity in display order.
var Granularities = []Granularity{GranularityMonth, GranularityWeek, GranularityDay}

// ParseGranularity parses a granularity name (case-insensitive).
func ParseGranularity(s string) (Granularity, error) {
	g := Granularity(strings.ToLower(strings.TrimSpace(s)))
	if !g.Valid() {
		return "", &InvalidParameterError{Field: "granularity", Value: s, Reason: "must be one of day, week, month"}
	}
	return g, nil
}

// Valid reports whether g is one of the supported granularities.
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return true
	default:
		return false
	}
}

// Truncate returns the start of the bucket containing t.
// Weeks start on Monday.
func (g Granularity) Truncate(t time.Time) time.Time {
	d := DateOf(t)
	switch g {
	case GranularityWeek:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// QueryParams is the caller-supplied input of every aggregation.
// Dates are calendar dates in UTC, the range is inclusive on both ends.
type QueryParams struct {
	StartDate   time.Time
	EndDate     time.Time
	Granularity Granularity
}

// NewQueryParams parses "YYYY-MM-DD" dates and a granularity name into validated params.
func NewQueryParams(start, end, granularity string) (QueryParams, error) {
	s, err := ParseDate("start_date", start)
	if err != nil {
		return QueryParams{}, err
	}
	e, err := ParseDate("end_date", end)
	if err != nil {
		return QueryParams{}, err
	}
	g, err := ParseGranularity(granularity)
	if err != nil {
		return QueryParams{}, err
	}

	p := QueryParams{StartDate: s, EndDate: e, Granularity: g}
	if err := p.Validate(); err != nil {
		return QueryParams{}, err
	}
	return p, nil
}

// Validate checks the range ordering and the granularity.
func (p QueryParams) Validate() error {
	if p.StartDate.IsZero() {
		return &InvalidParameterError{Field: "start_date", Reason: "is required"}
	}
	if p.EndDate.IsZero() {
		return &InvalidParameterError{Field: "end_date", Reason: "is required"}
	}
	if DateOf(p.StartDate).After(DateOf(p.EndDate)) {
		return &InvalidParameterError{
			Field:  "start_date",
			Value:  p.StartDate.Format(DateLayout),
			Reason: fmt.Sprintf("must not be after end_date %s", p.EndDate.Format(DateLayout)),
		}
	}
	if !p.Granularity.Valid() {
		return &InvalidParameterError{Field: "granularity", Value: string(p.Granularity), Reason: "must be one of day, week, month"}
	}
	return nil
}

// Start returns the start date formatted as YYYY-MM-DD.
func (p QueryParams) Start() string { return p.StartDate.Format(DateLayout) }

// End returns the end date formatted as YYYY-MM-DD.
func (p QueryParams) End() string { return p.EndDate.Format(DateLayout) }

// Contains reports whether the calendar date of t lies in [StartDate, EndDate].
func (p QueryParams) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(p.StartDate)) && !d.After(DateOf(p.EndDate))
}

// ParseDate parses a YYYY-MM-DD calendar date; field names the parameter in errors.
func ParseDate(field, s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, &InvalidParameterError{Field: field, Value: s, Reason: "must be a YYYY-MM-DD date"}
	}
	return t, nil
}

// DateOf drops the time of day, keeping the calendar date in UTC.
func DateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
