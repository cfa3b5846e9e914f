package calendar

import (
	"errors"
	"testing"
	"time"

	"skycal/internal/model"
	"skycal/internal/skytime"
)

func TestGenerateEmptyRange(t *testing.T) {
	from := skytime.NewDate(1, 1, 300).Time()
	base := []model.Event{sampleEvent("Dark Auction", from)}

	for _, to := range []time.Time{from, from.Add(-time.Hour)} {
		cal, err := Generate(from, to, base, model.Elections{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cal.Len() != 0 {
			t.Errorf("expected empty calendar for to=%s, got %d events", to, cal.Len())
		}
		if cal.Title != GeneratedTitle {
			t.Errorf("title %q, want %q", cal.Title, GeneratedTitle)
		}
	}
}

func TestGenerateBaseEvents(t *testing.T) {
	day := skytime.NewDate(1, 3, 300).Time()
	base := []model.Event{
		sampleEvent("Dark Auction", day),
		{
			Title:      "Jacob's Contest",
			Start:      day.Add(20 * time.Minute),
			End:        day.Add(40 * time.Minute),
			Duration:   1200,
			Recurrence: 3600,
		},
	}

	// Ticks at day, +20m, ..., +100m.
	cal, err := Generate(day.Add(-time.Second), day.Add(2*time.Hour), base, model.Elections{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		title string
		start time.Time
	}{
		{"Dark Auction", day},
		{"Jacob's Contest", day.Add(20 * time.Minute)},
		{"Dark Auction", day},
		{"Jacob's Contest", day.Add(20 * time.Minute)},
	}
	got := cal.Events()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Title != w.title || !got[i].Start.Equal(w.start) {
			t.Errorf("event %d: got %s, want %s at %s", i, got[i], w.title, w.start)
		}
	}
	if got[0].ID == got[2].ID {
		t.Error("repeated source event should get distinct identities")
	}
}

func TestGenerateElectionEventsUseNextYear(t *testing.T) {
	// Fishing Festival of year 11 includes (1, 0, 11), i.e. (1, 12, 10).
	elections := model.Elections{
		model.NewElection("Marina", "Diaz", []string{"Fishing Festival"}, 11),
	}
	day := skytime.NewDate(1, 12, 10).Time()

	cal, err := Generate(day.Add(-time.Minute), day.Add(time.Hour), []model.Event{}, elections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d: %v", len(events), events)
	}
	if events[0].Title != "Fishing Festival" || !events[0].Start.Equal(day) {
		t.Errorf("unexpected event %s", events[0])
	}

	// (1, 5, 11) belongs to the year 11 election but ticks of year 11 consult
	// the year 12 election.
	day = skytime.NewDate(1, 5, 11).Time()
	cal, err = Generate(day.Add(-time.Minute), day.Add(time.Hour), []model.Event{}, elections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cal.Len() != 0 {
		t.Errorf("expected no events, got %v", cal.Events())
	}
}

func TestElectionFor(t *testing.T) {
	elections := model.Elections{
		model.NewElection("Aatrox", "Paul", nil, 10),
		model.NewElection("Marina", "Diaz", nil, 11),
	}
	e, ok := ElectionFor(skytime.NewDate(3, 4, 10), elections)
	if !ok || e.Mayor != "Marina" {
		t.Fatalf("expected the year 11 election, got %+v (found %v)", e, ok)
	}
	if _, ok := ElectionFor(skytime.NewDate(3, 4, 11), elections); ok {
		t.Fatal("expected no election for year 11 dates")
	}
}

func TestGenerateOrdersBaseBeforeElection(t *testing.T) {
	day := skytime.NewDate(1, 12, 10).Time()
	elections := model.Elections{model.NewElection("Marina", "Diaz", []string{"Fishing Festival"}, 11)}
	base := []model.Event{sampleEvent("Dark Auction", day)}

	cal, err := Generate(day.Add(-time.Minute), day.Add(time.Minute), base, elections)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	events := cal.Events()
	if len(events) != 2 || events[0].Title != "Dark Auction" || events[1].Title != "Fishing Festival" {
		t.Fatalf("unexpected events %v", events)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	from := skytime.NewDate(20, 11, 10).Time()
	to := from.Add(DefaultHorizon)
	base := []model.Event{sampleEvent("Dark Auction", from)}
	elections := model.Elections{model.NewElection("Marina", "Diaz", []string{"Fishing Festival"}, 11)}

	a, err := Generate(from, to, base, elections)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(from, to, base, elections)
	if err != nil {
		t.Fatal(err)
	}

	ea, eb := a.Events(), b.Events()
	if len(ea) == 0 || len(ea) != len(eb) {
		t.Fatalf("expected equal non-empty outputs, got %d and %d", len(ea), len(eb))
	}
	for i := range ea {
		if ea[i].Title != eb[i].Title || !ea[i].Start.Equal(eb[i].Start) {
			t.Fatalf("outputs differ at %d: %s vs %s", i, ea[i], eb[i])
		}
	}
}

func TestGenerateDataUnavailable(t *testing.T) {
	from := skytime.NewDate(1, 1, 300).Time()
	to := from.Add(time.Hour)
	once := model.Event{Title: "once", Start: from, End: from}
	inverted := sampleEvent("inverted", from)
	inverted.End = from.Add(-time.Minute)

	tests := []struct {
		name      string
		base      []model.Event
		elections model.ElectionSource
		also      error
	}{
		{"nil base", nil, model.Elections{}, nil},
		{"nil elections", []model.Event{}, nil, nil},
		{"non-recurring base", []model.Event{once}, model.Elections{}, model.ErrNotRecurring},
		{"invalid base", []model.Event{inverted}, model.Elections{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cal, err := Generate(from, to, tt.base, tt.elections)
			if !errors.Is(err, ErrDataUnavailable) {
				t.Fatalf("expected ErrDataUnavailable, got %v", err)
			}
			if tt.also != nil && !errors.Is(err, tt.also) {
				t.Errorf("expected %v in chain, got %v", tt.also, err)
			}
			if cal != nil {
				t.Error("expected no calendar on failure")
			}
		})
	}
}

func TestGenerateBeforeEpochFails(t *testing.T) {
	base := []model.Event{sampleEvent("Dark Auction", skytime.Epoch)}
	cal, err := Generate(skytime.Epoch.Add(-2*time.Hour), skytime.Epoch.Add(time.Hour), base, model.Elections{})
	if !errors.Is(err, skytime.ErrBeforeEpoch) {
		t.Fatalf("expected ErrBeforeEpoch, got %v", err)
	}
	if cal != nil {
		t.Error("expected no calendar on failure")
	}
}
