package model

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"skycal/internal/skytime"
)

// Election is the ruling configuration of one fictional year. Its perks
// decide which festival events the year carries.
type Election struct {
	Mayor    string    `json:"mayor" yaml:"mayor"`
	Minister string    `json:"minister" yaml:"minister"`
	Perks    []string  `json:"perks" yaml:"perks"`
	Year     int       `json:"year" yaml:"year"`
	Start    time.Time `json:"start" yaml:"start"`
	End      time.Time `json:"end" yaml:"end"`
}

// electionTerm is how long an elected mayor stays in office.
const electionTerm = 403200 * time.Second

// NewElection builds the election held in year. Mayors take office on
// day 27 of month 5.
func NewElection(mayor, minister string, perks []string, year int) Election {
	start := skytime.NewDate(27, 5, year).Time()
	end := start.Add(electionTerm)
	if ts, err := skytime.TickStart(end); err == nil {
		end = ts
	}
	return Election{
		Mayor:    mayor,
		Minister: minister,
		Perks:    slices.Clone(perks),
		Year:     year,
		Start:    start,
		End:      end,
	}
}

// Validate checks that the election has a positive term.
func (e Election) Validate() error {
	if !e.Start.Before(e.End) {
		return fmt.Errorf("election year %d: start %s not before end %s", e.Year, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
	}
	return nil
}

// HasPerk reports whether the mayor or minister grants perk.
func (e Election) HasPerk(perk string) bool {
	return slices.Contains(e.Perks, perk)
}

// Festival returns the festival enabled by e's perks. When several apply,
// the first in festivalPriority wins.
func (e Election) Festival() Festival {
	for _, f := range festivalPriority {
		if e.HasPerk(f.String()) {
			return f
		}
	}
	return FestivalNone
}

// DeriveEvents returns the festival events granted by e.
func (e Election) DeriveEvents() []Event {
	f := e.Festival()
	switch f {
	case FishingFestival:
		events := make([]Event, 0, 10)
		for i := 5; i < 15; i++ {
			start := skytime.NewDate(1, i%skytime.MonthsPerYear, e.Year).Time()
			events = append(events, e.festivalEvent(f, start, time.Hour, 3600))
		}
		return events
	case MiningFiesta:
		events := make([]Event, 0, 3)
		for i := 0; i < 3; i++ {
			start := skytime.NewDate(1, i%skytime.MonthsPerYear, e.Year).Time()
			events = append(events, e.festivalEvent(f, start, 5*time.Hour, 18000))
		}
		return events
	case MythologicalRitual, ChivalrousCarnival:
		return []Event{e.festivalEvent(f, e.Start, 5*time.Hour, int64(skytime.YearLength/time.Second))}
	case FestivalNone:
		return nil
	}
	panic(fmt.Sprintf("model: unhandled festival %d", f))
}

const (
	festivalNotifyLead = 3 * time.Minute
	festivalRemind     = 120
)

// festivalEvent builds one derived event. Every event of an election shares
// the notice time taken from the election start.
func (e Election) festivalEvent(f Festival, start time.Time, length time.Duration, recurrence int64) Event {
	return Event{
		Title:      f.String(),
		NotifyAt:   e.Start.Add(-festivalNotifyLead),
		Start:      start,
		End:        start.Add(length),
		Duration:   int64(length / time.Second),
		Recurrence: recurrence,
		Remind:     festivalRemind,
	}
}

// ElectionSource looks up the election of a fictional year.
type ElectionSource interface {
	ElectionForYear(year int) (Election, bool)
}

// Elections is an ElectionSource backed by a slice, scanned in order.
type Elections []Election

// ElectionForYear returns the first election held in year.
func (es Elections) ElectionForYear(year int) (Election, bool) {
	for _, e := range es {
		if e.Year == year {
			return e, true
		}
	}
	return Election{}, false
}

// Validate checks every election.
func (es Elections) Validate() error {
	var errs []error
	for _, e := range es {
		if err := e.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
