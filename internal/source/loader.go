package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"skycal/internal/calendar"
	"skycal/internal/ics"
	appLog "skycal/internal/log"
	"skycal/internal/model"
)

// Default locations of the built-in snapshot.
const (
	DefaultEventsLocation    = EmbeddedPrefix + "events.json"
	DefaultElectionsLocation = EmbeddedPrefix + "elections.yaml"
)

// Snapshot is one consistent load of the generator inputs.
type Snapshot struct {
	Events    []model.Event
	Elections model.Elections
}

// Loader reads the base events and elections snapshot.
type Loader struct {
	fetcher   *Fetcher
	events    string
	elections string
}

// NewLoader returns a Loader reading from the given locations. Empty
// locations fall back to the built-in snapshot.
func NewLoader(fetcher *Fetcher, eventsLocation, electionsLocation string) *Loader {
	if eventsLocation == "" {
		eventsLocation = DefaultEventsLocation
	}
	if electionsLocation == "" {
		electionsLocation = DefaultElectionsLocation
	}
	return &Loader{fetcher: fetcher, events: eventsLocation, elections: electionsLocation}
}

// Load fetches and decodes both sources. Any failure is wrapped with
// calendar.ErrDataUnavailable.
func (l *Loader) Load(ctx context.Context) (Snapshot, error) {
	events, err := l.loadEvents(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load events from %s: %w: %w", l.events, calendar.ErrDataUnavailable, err)
	}
	elections, err := l.loadElections(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load elections from %s: %w: %w", l.elections, calendar.ErrDataUnavailable, err)
	}

	appLog.Info("snapshot loaded",
		"events", len(events),
		"elections", len(elections),
		"events_source", l.events,
		"elections_source", l.elections,
	)
	return Snapshot{Events: events, Elections: elections}, nil
}

func (l *Loader) loadEvents(ctx context.Context) ([]model.Event, error) {
	res, err := l.fetcher.Fetch(ctx, l.events)
	if err != nil {
		return nil, err
	}

	var events []model.Event
	if format(l.events) == formatICS {
		events, err = ics.ParseEvents(l.events, res.Body)
	} else {
		err = decode(l.events, res.Body, &events)
	}
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []model.Event{}
	}

	var errs []error
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return events, errors.Join(errs...)
}

func (l *Loader) loadElections(ctx context.Context) (model.Elections, error) {
	res, err := l.fetcher.Fetch(ctx, l.elections)
	if err != nil {
		return nil, err
	}

	var elections model.Elections
	if err := decode(l.elections, res.Body, &elections); err != nil {
		return nil, err
	}
	if elections == nil {
		elections = model.Elections{}
	}

	for i, e := range elections {
		if e.Start.IsZero() && e.End.IsZero() {
			elections[i] = model.NewElection(e.Mayor, e.Minister, e.Perks, e.Year)
		}
	}
	return elections, elections.Validate()
}

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatICS  = "ics"
)

// format picks a decoder from the location's extension; JSON is the default.
func format(location string) string {
	// Drop any query string so URLs like .../events.yaml?v=2 still match.
	if i := strings.IndexByte(location, '?'); i >= 0 {
		location = location[:i]
	}
	switch strings.ToLower(path.Ext(location)) {
	case ".yaml", ".yml":
		return formatYAML
	case ".ics":
		return formatICS
	default:
		return formatJSON
	}
}

func decode(location string, body []byte, v any) error {
	if format(location) == formatYAML {
		return yaml.Unmarshal(body, v)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
