package calendar

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"skycal/internal/model"
)

// Calendar owns a set of events, kept in insertion order.
type Calendar struct {
	ID          uuid.UUID
	Title       string
	Description string

	events map[uuid.UUID]model.Event
	order  []uuid.UUID
}

// New returns an empty calendar.
func New(title, description string) *Calendar {
	return &Calendar{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		events:      make(map[uuid.UUID]model.Event),
	}
}

// AddEvent stores a copy of ev under a fresh identity and returns it. Adding
// the same event twice yields two entries.
func (c *Calendar) AddEvent(ev model.Event) uuid.UUID {
	id := uuid.New()
	ev.ID = id.String()
	c.events[id] = ev
	c.order = append(c.order, id)
	return id
}

// Event returns the event stored under id.
func (c *Calendar) Event(id uuid.UUID) (model.Event, bool) {
	ev, ok := c.events[id]
	return ev, ok
}

// Len returns the number of events.
func (c *Calendar) Len() int {
	return len(c.order)
}

// Events returns all events in insertion order.
func (c *Calendar) Events() []model.Event {
	out := make([]model.Event, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.events[id])
	}
	return out
}

// FindUpcomingEvents returns the events starting after ref, earliest first.
func (c *Calendar) FindUpcomingEvents(ref time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, id := range c.order {
		if ev := c.events[id]; ev.IsUpcoming(ref) {
			out = append(out, ev)
		}
	}
	model.SortByStart(out)
	return out
}

// EventsBetween returns the events starting in [from, to), earliest first.
func (c *Calendar) EventsBetween(from, to time.Time) []model.Event {
	out := make([]model.Event, 0)
	for _, id := range c.order {
		ev := c.events[id]
		if !ev.Start.Before(from) && ev.Start.Before(to) {
			out = append(out, ev)
		}
	}
	model.SortByStart(out)
	return out
}

// Clone returns a deep copy of c with the same identity.
func (c *Calendar) Clone() *Calendar {
	cp := &Calendar{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		events:      make(map[uuid.UUID]model.Event, len(c.events)),
		order:       append([]uuid.UUID(nil), c.order...),
	}
	for id, ev := range c.events {
		cp.events[id] = ev
	}
	return cp
}

type calendarJSON struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Events      []model.Event `json:"events"`
}

// MarshalJSON renders the events as an array in insertion order.
func (c *Calendar) MarshalJSON() ([]byte, error) {
	return json.Marshal(calendarJSON{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Events:      c.Events(),
	})
}
