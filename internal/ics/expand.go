package ics

import (
	"errors"
	"sort"
	"time"

	appLog "skycal/internal/log"
	"skycal/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// RangeStart / RangeEnd define the half-open window [RangeStart, RangeEnd)
	// for occurrence starts.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps the repetitions returned per event. If zero,
	// defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded occurrences and the events that hit the cap.
type ExpandResult struct {
	Occurrences []model.Occurrence
	// TruncatedEvents records IDs of events that hit MaxOccurrencesPerEvent.
	TruncatedEvents []string
}

// ExpandOccurrences turns events into their concrete repetitions within the
// configured window, sorted by start. Non-recurring events yield at most one
// occurrence.
func ExpandOccurrences(events []model.Event, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	all := make([]model.Occurrence, 0)
	for _, ev := range events {
		occ, hitCap, err := expandEvent(ev, cfg)
		if err != nil {
			return ExpandResult{}, err
		}
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.ID)
			appLog.Error("expand: truncated occurrences due to cap",
				errors.New("max occurrences reached"),
				"event_id", ev.ID,
				"title", ev.Title,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		all = append(all, occ...)
	}

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Start.Before(all[j].Start)
	})
	result.Occurrences = all
	return result, nil
}

func expandEvent(ev model.Event, cfg ExpandConfig) ([]model.Occurrence, bool, error) {
	if !ev.Recurring() {
		if ev.Start.Before(cfg.RangeStart) || !ev.Start.Before(cfg.RangeEnd) {
			return nil, false, nil
		}
		return []model.Occurrence{makeOccurrence(ev, ev.Start)}, false, nil
	}

	// Begin at the first repetition not before RangeStart so the rule does
	// not walk from the original start.
	first, ok := ev.NextOccurrence(cfg.RangeStart.Add(-time.Nanosecond))
	if !ok || first.Before(cfg.RangeStart) || !first.Before(cfg.RangeEnd) {
		return nil, false, nil
	}
	r, err := ev.RRule(first)
	if err != nil {
		return nil, false, err
	}

	// Between is inclusive on both ends; the window is half-open.
	starts := r.Between(first, cfg.RangeEnd.Add(-time.Nanosecond), true)
	hitCap := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, makeOccurrence(ev, s))
	}
	return out, hitCap, nil
}

// makeOccurrence shifts ev to start, keeping its length and notice period.
func makeOccurrence(ev model.Event, start time.Time) model.Occurrence {
	shift := start.Sub(ev.Start)
	occ := model.Occurrence{
		EventID: ev.ID,
		Title:   ev.Title,
		Start:   start,
		End:     ev.End.Add(shift),
	}
	if !ev.NotifyAt.IsZero() {
		occ.NotifyAt = ev.NotifyAt.Add(shift)
	}
	// InstanceKey: event id plus start in RFC3339 as a stable per-instance key.
	occ.InstanceKey = ev.ID + "@" + start.UTC().Format(time.RFC3339)
	return occ
}
