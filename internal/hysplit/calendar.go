// Package hysplit renders the input files of the HYSPLIT trajectory model and names the
// meteorological archive files a run needs.
package hysplit

import (
	"fmt"
	"time"

	config "github.com/tigerroll/trajbatch/pkg/batch/core/config"
)

// HoursPerWeek is the span of one weekly meteorological archive file.
const HoursPerWeek = 24 * 7

// WeekFunc maps a date to its 1-based week bucket within the month.
type WeekFunc func(t time.Time) int

// WeekOfMonth buckets days by the first Monday of the month: the Monday starts week 1,
// each following Monday starts the next week. Days before the first Monday belong to week 1.
func WeekOfMonth(t time.Time) int {
	day := civilDate(t)
	anchor := firstMonday(day.Year(), day.Month())
	days := int(day.Sub(anchor).Hours() / 24)
	if days < 0 {
		return 1
	}
	return days/7 + 1
}

// WeekOfMonthByDay buckets days by day number: 1-7 is week 1, 8-14 week 2, and so on.
func WeekOfMonthByDay(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// WeekScheme returns the WeekFunc for a configured scheme name.
func WeekScheme(name string) (WeekFunc, error) {
	switch name {
	case config.WeekSchemeMonday, "":
		return WeekOfMonth, nil
	case config.WeekSchemeDayOfMonth:
		return WeekOfMonthByDay, nil
	default:
		return nil, fmt.Errorf("unknown week scheme %q", name)
	}
}

// RuntimeWeeks is the number of archive weeks a run of hours spans, ceil(|hours|/168),
// carrying the sign of hours.
func RuntimeWeeks(hours int) int {
	weeks := hours / HoursPerWeek
	switch {
	case hours%HoursPerWeek > 0:
		weeks++
	case hours%HoursPerWeek < 0:
		weeks--
	}
	return weeks
}

func firstMonday(year int, month time.Month) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// civilDate drops the clock and zone so that day arithmetic is not affected by DST.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
