package calendar

import (
	"errors"
	"fmt"
	"time"

	"skycal/internal/model"
	"skycal/internal/skytime"
)

// ErrDataUnavailable is returned when base events or elections are missing
// or malformed.
var ErrDataUnavailable = errors.New("calendar data unavailable")

// GeneratedTitle is the title of every generated calendar.
const GeneratedTitle = "Skyblock"

// Generate builds a calendar of the base and festival events falling on the
// fictional day boundaries in [from, to).
//
// Base events must all be recurring. Either a complete calendar or an error
// is returned, never a partial one. An empty or inverted window yields an
// empty calendar.
func Generate(from, to time.Time, base []model.Event, elections model.ElectionSource) (*Calendar, error) {
	if base == nil {
		return nil, fmt.Errorf("generate: base events: %w", ErrDataUnavailable)
	}
	if elections == nil {
		return nil, fmt.Errorf("generate: elections: %w", ErrDataUnavailable)
	}
	for _, ev := range base {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("generate: %w: %w", ErrDataUnavailable, err)
		}
		if !ev.Recurring() {
			return nil, fmt.Errorf("generate: base event %q: %w: %w", ev.Title, ErrDataUnavailable, model.ErrNotRecurring)
		}
	}

	cal := New(GeneratedTitle, "")
	for tick := skytime.NextTick(from); tick.Before(to); tick = tick.Add(skytime.DayLength) {
		events, err := eventsAt(tick, base, elections)
		if err != nil {
			return nil, fmt.Errorf("generate: %w", err)
		}
		for _, ev := range events {
			cal.AddEvent(ev)
		}
	}
	return cal, nil
}

// ElectionFor returns the election whose festivals are scheduled on date:
// the election of the year after date's year.
// TODO: confirm against upstream data whether festivals belong to the
// election of the same year; NewElection dates the term from year itself.
func ElectionFor(date skytime.Date, elections model.ElectionSource) (model.Election, bool) {
	return elections.ElectionForYear(date.Year + 1)
}

// eventsAt returns the events falling on tick: repetitions of base events
// first, then festival events of the election from ElectionFor.
func eventsAt(tick time.Time, base []model.Event, elections model.ElectionSource) ([]model.Event, error) {
	date, err := skytime.FromTime(tick)
	if err != nil {
		return nil, err
	}

	var out []model.Event
	for _, ev := range base {
		ok, err := ev.MatchesTick(tick)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, ev)
		}
	}

	election, ok := ElectionFor(date, elections)
	if !ok {
		return out, nil
	}
	dayStart := date.Time()
	for _, ev := range election.DeriveEvents() {
		if ev.Start.Equal(dayStart) {
			out = append(out, ev)
		}
	}
	return out, nil
}
