package calendar

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"skycal/internal/model"
)

// GlobalUserName names the user that owns the shared generated calendar.
const GlobalUserName = "GLOBAL"

// DefaultHorizon is the window generated for the global calendar.
const DefaultHorizon = 7460 * time.Minute

// User owns calendars.
type User struct {
	ID   uuid.UUID
	Name string

	calendars map[uuid.UUID]*Calendar
	order     []uuid.UUID
}

// NewUser returns a user without calendars.
func NewUser(name string) *User {
	return &User{
		ID:        uuid.New(),
		Name:      name,
		calendars: make(map[uuid.UUID]*Calendar),
	}
}

// AddCalendar stores a copy of c under a fresh identity and returns it.
func (u *User) AddCalendar(c *Calendar) uuid.UUID {
	cp := c.Clone()
	cp.ID = uuid.New()
	u.calendars[cp.ID] = cp
	u.order = append(u.order, cp.ID)
	return cp.ID
}

// Calendar returns the calendar stored under id.
func (u *User) Calendar(id uuid.UUID) (*Calendar, bool) {
	c, ok := u.calendars[id]
	return c, ok
}

// Calendars returns the user's calendars in insertion order.
func (u *User) Calendars() []*Calendar {
	out := make([]*Calendar, 0, len(u.order))
	for _, id := range u.order {
		out = append(out, u.calendars[id])
	}
	return out
}

// MarshalJSON renders the calendars as an array in insertion order.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID        uuid.UUID   `json:"id"`
		Name      string      `json:"name"`
		Calendars []*Calendar `json:"calendars"`
	}{u.ID, u.Name, u.Calendars()})
}

// Directory owns all users.
type Directory struct {
	users  map[uuid.UUID]*User
	global uuid.UUID
}

// NewDirectory returns a directory holding the GLOBAL user, whose single
// calendar is generated for [now, now+horizon).
func NewDirectory(now time.Time, horizon time.Duration, base []model.Event, elections model.ElectionSource) (*Directory, error) {
	cal, err := Generate(now, now.Add(horizon), base, elections)
	if err != nil {
		return nil, fmt.Errorf("directory: %w", err)
	}

	global := NewUser(GlobalUserName)
	global.AddCalendar(cal)

	d := &Directory{users: make(map[uuid.UUID]*User)}
	d.AddUser(global)
	d.global = global.ID
	return d, nil
}

// AddUser stores u under its own identity.
func (d *Directory) AddUser(u *User) {
	d.users[u.ID] = u
}

// User returns the user stored under id.
func (d *Directory) User(id uuid.UUID) (*User, bool) {
	u, ok := d.users[id]
	return u, ok
}

// Users returns every user, GLOBAL first, the rest ordered by name.
func (d *Directory) Users() []*User {
	out := make([]*User, 0, len(d.users))
	if g, ok := d.users[d.global]; ok {
		out = append(out, g)
	}
	rest := make([]*User, 0, len(d.users))
	for id, u := range d.users {
		if id != d.global {
			rest = append(rest, u)
		}
	}
	sortUsers(rest)
	return append(out, rest...)
}

// Global returns the GLOBAL user.
func (d *Directory) Global() *User {
	return d.users[d.global]
}

// GlobalCalendar returns the generated calendar of the GLOBAL user.
func (d *Directory) GlobalCalendar() *Calendar {
	cals := d.Global().Calendars()
	if len(cals) == 0 {
		return nil
	}
	return cals[0]
}

func sortUsers(users []*User) {
	slices.SortFunc(users, func(a, b *User) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
