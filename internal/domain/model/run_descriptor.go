// Package model holds the trajectory batch domain types: the run descriptors read from the
// runs file and the CONTROL file rendered for each model invocation.
package model

import (
	"fmt"
	"time"
)

// Coordinate keeps a numeric field of the runs file as written, for rendering, together with
// its parsed value, for validation.
type Coordinate struct {
	Text  string
	Value float64
}

func (c Coordinate) String() string {
	return c.Text
}

// RunDescriptor is one row of the runs file: where to release, over which dates, for how long.
type RunDescriptor struct {
	// Row is the 1-based line of the runs file the record starts on.
	Row          int
	OutputFolder string
	Latitude     Coordinate
	Longitude    Coordinate
	Height       Coordinate
	StartDate    time.Time
	EndDate      time.Time
	// BackwardHours is the signed trajectory duration; negative runs backward in time.
	BackwardHours int
	// Hours are the release hours, in order. Duplicates are kept.
	Hours []string
	// TopOfModel is written to CONTROL verbatim.
	TopOfModel string
}

// MaxBackwardHours bounds the magnitude of BackwardHours to one hundred years.
const MaxBackwardHours = 100 * 366 * 24

// Validate checks the invariants of a descriptor.
func (r *RunDescriptor) Validate() error {
	if r.OutputFolder == "" {
		return fmt.Errorf("output folder is empty")
	}
	if r.StartDate.After(r.EndDate) {
		return fmt.Errorf("start date %s is after end date %s", r.StartDate.Format(time.DateOnly), r.EndDate.Format(time.DateOnly))
	}
	if r.BackwardHours == 0 {
		return fmt.Errorf("backward hours must not be zero")
	}
	if r.BackwardHours > MaxBackwardHours || r.BackwardHours < -MaxBackwardHours {
		return fmt.Errorf("backward hours %d exceed the limit of %d", r.BackwardHours, MaxBackwardHours)
	}
	if len(r.Hours) == 0 {
		return fmt.Errorf("no release hours given")
	}
	return nil
}

// Dates returns every calendar day from StartDate to EndDate inclusive, ascending.
func (r *RunDescriptor) Dates() []time.Time {
	var dates []time.Time
	for d := r.StartDate; !d.After(r.EndDate); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// InvocationCount is the number of model invocations the run expands to.
func (r *RunDescriptor) InvocationCount() int {
	return len(r.Dates()) * len(r.Hours)
}
