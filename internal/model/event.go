package model

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrNotRecurring is returned when a recurrence query is made on an event
// without a recurrence interval.
var ErrNotRecurring = errors.New("event has no recurrence")

// Event is a single nameable occurrence in the fictional calendar, optionally
// repeating every Recurrence seconds.
//
// Base events come from a snapshot; derived events are built from an
// Election. Events are values: a Calendar assigns ID on insertion.
type Event struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`

	NotifyAt time.Time `json:"notify_at" yaml:"notify_at"`
	Start    time.Time `json:"start_time" yaml:"start_time"`
	End      time.Time `json:"end_time" yaml:"end_time"`

	// Duration, Recurrence and Remind are in seconds. Zero Recurrence or
	// Remind means absent.
	Duration   int64 `json:"duration" yaml:"duration"`
	Recurrence int64 `json:"recurrence,omitempty" yaml:"recurrence,omitempty"`
	Remind     int64 `json:"remind,omitempty" yaml:"remind,omitempty"`
}

func (e Event) String() string {
	return fmt.Sprintf("%s (%s - %s)", e.Title, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// Validate checks the structural invariants of e.
func (e Event) Validate() error {
	if e.End.Before(e.Start) {
		return fmt.Errorf("event %q: end %s before start %s", e.Title, e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
	}
	if e.Recurrence < 0 {
		return fmt.Errorf("event %q: negative recurrence %d", e.Title, e.Recurrence)
	}
	if e.Duration < 0 {
		return fmt.Errorf("event %q: negative duration %d", e.Title, e.Duration)
	}
	return nil
}

// Recurring reports whether e repeats.
func (e Event) Recurring() bool {
	return e.Recurrence > 0
}

// MatchesTick reports whether a repetition of e falls exactly on tick.
func (e Event) MatchesTick(tick time.Time) (bool, error) {
	if !e.Recurring() {
		return false, fmt.Errorf("match %q: %w", e.Title, ErrNotRecurring)
	}
	secs := int64(e.Start.Sub(tick) / time.Second)
	return secs%e.Recurrence == 0, nil
}

// IsUpcoming reports whether e starts strictly after ref.
func (e Event) IsUpcoming(ref time.Time) bool {
	return e.Start.After(ref)
}

// RRule returns the recurrence rule of e starting at dtstart. dtstart must
// be one of e's repetitions.
func (e Event) RRule(dtstart time.Time) (*rrule.RRule, error) {
	if !e.Recurring() {
		return nil, fmt.Errorf("rrule %q: %w", e.Title, ErrNotRecurring)
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:     rrule.SECONDLY,
		Interval: int(e.Recurrence),
		Dtstart:  dtstart.UTC(),
	})
}

// NextOccurrence returns the first start of e strictly after after.
// A non-recurring event occurs once, at Start.
func (e Event) NextOccurrence(after time.Time) (time.Time, bool) {
	if !e.Recurring() {
		if e.Start.After(after) {
			return e.Start, true
		}
		return time.Time{}, false
	}

	// Move DTSTART to the last repetition not after `after` so the rule only
	// has to step once.
	dtstart := e.Start
	period := time.Duration(e.Recurrence) * time.Second
	if after.After(dtstart) {
		dtstart = dtstart.Add(after.Sub(dtstart) / period * period)
	}

	r, err := e.RRule(dtstart)
	if err != nil {
		return time.Time{}, false
	}
	next := r.After(after, false)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

// SortByStart sorts events ascending by Start, keeping the relative order of
// events that start together.
func SortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
}
