package model

import (
	"testing"
	"time"

	"skycal/internal/skytime"
)

func TestFestivalPriority(t *testing.T) {
	tests := []struct {
		perks []string
		want  Festival
	}{
		{nil, FestivalNone},
		{[]string{"Pelt-pocalypse"}, FestivalNone},
		{[]string{"Fishing Festival"}, FishingFestival},
		{[]string{"Mining Fiesta", "Fishing Festival"}, FishingFestival},
		{[]string{"Chivalrous Carnival", "Mining Fiesta"}, MiningFiesta},
		{[]string{"Chivalrous Carnival", "Mythological Ritual"}, MythologicalRitual},
		{[]string{"Chivalrous Carnival"}, ChivalrousCarnival},
	}

	for _, tt := range tests {
		e := NewElection("Marina", "Diaz", tt.perks, 400)
		if got := e.Festival(); got != tt.want {
			t.Errorf("perks %v: got %v, want %v", tt.perks, got, tt.want)
		}
	}
}

func TestDeriveEventsFishingFestival(t *testing.T) {
	e := NewElection("Marina", "Foxy", []string{"Luck of the Sea 2.0", "Fishing Festival"}, 400)
	events := e.DeriveEvents()
	if len(events) != 10 {
		t.Fatalf("expected 10 events, got %d", len(events))
	}

	for n, ev := range events {
		i := n + 5
		want := skytime.NewDate(1, i%12, 400).Time()
		if !ev.Start.Equal(want) {
			t.Errorf("event %d: start %s, want %s", n, ev.Start, want)
		}
		if ev.Recurrence != 3600 {
			t.Errorf("event %d: recurrence %d, want 3600", n, ev.Recurrence)
		}
		if ev.End.Sub(ev.Start) != time.Hour || ev.Duration != 3600 {
			t.Errorf("event %d: unexpected length %s / %d", n, ev.End.Sub(ev.Start), ev.Duration)
		}
		if want := e.Start.Add(-3 * time.Minute); !ev.NotifyAt.Equal(want) {
			t.Errorf("event %d: notify %s, want %s (3m before the election start)", n, ev.NotifyAt, want)
		}
		if ev.Remind != 120 {
			t.Errorf("event %d: remind %d, want 120", n, ev.Remind)
		}
		if ev.Title != "Fishing Festival" {
			t.Errorf("event %d: title %q", n, ev.Title)
		}
	}
}

func TestDeriveEventsMiningFiesta(t *testing.T) {
	e := NewElection("Cole", "Diana", []string{"Mining Fiesta"}, 401)
	events := e.DeriveEvents()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	// Month 0 falls on the last month of the previous year.
	if want := skytime.NewDate(1, 12, 400).Time(); !events[0].Start.Equal(want) {
		t.Errorf("first event at %s, want %s", events[0].Start, want)
	}
	for _, ev := range events {
		if ev.Recurrence != 18000 || ev.End.Sub(ev.Start) != 5*time.Hour {
			t.Errorf("unexpected event %s recurrence %d", ev, ev.Recurrence)
		}
	}
}

func TestDeriveEventsYearlyFestivals(t *testing.T) {
	for _, perk := range []string{"Mythological Ritual", "Chivalrous Carnival"} {
		e := NewElection("Diana", "Paul", []string{perk}, 402)
		events := e.DeriveEvents()
		if len(events) != 1 {
			t.Fatalf("%s: expected 1 event, got %d", perk, len(events))
		}
		ev := events[0]
		if ev.Title != perk {
			t.Errorf("title %q, want %q", ev.Title, perk)
		}
		if !ev.Start.Equal(e.Start) {
			t.Errorf("%s: start %s, want election start %s", perk, ev.Start, e.Start)
		}
		if ev.Recurrence != 446400 {
			t.Errorf("%s: recurrence %d, want 446400", perk, ev.Recurrence)
		}
	}
}

func TestDeriveEventsNone(t *testing.T) {
	e := NewElection("Paul", "Aatrox", []string{"EZPZ"}, 403)
	if events := e.DeriveEvents(); len(events) != 0 {
		t.Fatalf("expected no events, got %d", len(events))
	}
}

func TestNewElectionTerm(t *testing.T) {
	e := NewElection("Aatrox", "Cole", nil, 400)
	if want := skytime.NewDate(27, 5, 400).Time(); !e.Start.Equal(want) {
		t.Errorf("start %s, want %s", e.Start, want)
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := e.End.Sub(e.Start); got != 403200*time.Second {
		t.Errorf("term %s, want 403200s", got)
	}
}

func TestElectionsLookup(t *testing.T) {
	es := Elections{
		NewElection("A", "B", nil, 10),
		NewElection("C", "D", nil, 11),
		NewElection("E", "F", nil, 11),
	}
	got, ok := es.ElectionForYear(11)
	if !ok || got.Mayor != "C" {
		t.Fatalf("expected first election of year 11, got %+v %v", got, ok)
	}
	if _, ok := es.ElectionForYear(12); ok {
		t.Fatal("expected no election for year 12")
	}
}

func TestElectionsValidate(t *testing.T) {
	bad := NewElection("A", "B", nil, 10)
	bad.End = bad.Start
	if err := (Elections{NewElection("C", "D", nil, 11), bad}).Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}
