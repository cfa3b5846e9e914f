package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"skycal/internal/app"
	"skycal/internal/calendar"
	"skycal/internal/config"
	"skycal/internal/ics"
	appLog "skycal/internal/log"
	"skycal/internal/model"
	"skycal/internal/skytime"
)

// Server provides the HTTP API over the generated calendars.
type Server struct {
	cfg   *config.Config
	state *app.State
	mux   *http.ServeMux
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, state *app.State) *Server {
	s := &Server{
		cfg:   cfg,
		state: state,
		mux:   http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/users", s.handleUsers)
	s.mux.HandleFunc("GET /api/calendar/events", s.handleCalendarEvents)
	s.mux.HandleFunc("GET /api/calendar/upcoming", s.handleUpcoming)
	s.mux.HandleFunc("GET /api/calendar/generate", s.handleGenerate)
	s.mux.HandleFunc("GET /api/calendar/occurrences", s.handleOccurrences)
	s.mux.HandleFunc("GET /api/skyblock/date", s.handleDate)
	s.mux.HandleFunc("GET /calendar.ics", s.handleICS)
	s.mux.HandleFunc("POST /api/refresh", s.handleRefresh)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// userSummary is the JSON shape of one entry of /api/users.
type userSummary struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	Calendars []calendarSummary `json:"calendars"`
}

type calendarSummary struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Events int       `json:"events"`
}

func (s *Server) handleUsers(w http.ResponseWriter, _ *http.Request) {
	dir, err := s.state.Directory()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	users := dir.Users()
	resp := make([]userSummary, 0, len(users))
	for _, u := range users {
		cals := u.Calendars()
		sum := userSummary{ID: u.ID, Name: u.Name, Calendars: make([]calendarSummary, 0, len(cals))}
		for _, c := range cals {
			sum.Calendars = append(sum.Calendars, calendarSummary{ID: c.ID, Title: c.Title, Events: c.Len()})
		}
		resp = append(resp, sum)
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCalendarEvents returns the GLOBAL calendar with its events in
// generation order.
func (s *Server) handleCalendarEvents(w http.ResponseWriter, _ *http.Request) {
	cal, err := s.globalCalendar()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// upcomingResponse is the JSON response shape for /api/calendar/upcoming.
type upcomingResponse struct {
	At     time.Time     `json:"at"`
	Events []model.Event `json:"events"`
}

// handleUpcoming lists GLOBAL events starting after ?at= (default now),
// sorted by start.
func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	at, err := parseTimeDefault(r.URL.Query().Get("at"), s.state.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cal, err := s.globalCalendar()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, upcomingResponse{At: at, Events: cal.FindUpcomingEvents(at)})
}

// handleGenerate builds a fresh calendar for [from, to).
//
// GET /api/calendar/generate?from=RFC3339&to=RFC3339
//   - from: default now
//   - to:   default from + 24h
//
// The window may not exceed config.MaxWindow.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseTimeDefault(q.Get("from"), s.state.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseTimeDefault(q.Get("to"), from.Add(24*time.Hour))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to is before from")
		return
	}
	if limit := s.cfg.MaxWindow(); to.Sub(from) > limit {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("window exceeds %s", limit))
		return
	}

	appLog.Debug("api generate request",
		"from", from.Format(time.RFC3339),
		"to", to.Format(time.RFC3339),
	)

	cal, err := s.state.Generate(from, to)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cal)
}

// occurrencesResponse is the JSON response shape for /api/calendar/occurrences.
type occurrencesResponse struct {
	Occurrences     []model.Occurrence `json:"occurrences"`
	TruncatedEvents []string           `json:"truncated_events,omitempty"`
	RangeStart      time.Time          `json:"range_start"`
	RangeEnd        time.Time          `json:"range_end"`
}

// handleOccurrences expands the base events into concrete repetitions.
//
// GET /api/calendar/occurrences?days=1
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	days := parseIntDefault(r.URL.Query().Get("days"), 1)
	if days <= 0 {
		days = 1
	}
	// Compare in whole days so huge values never reach time arithmetic.
	const day = 24 * time.Hour
	if limit := s.cfg.MaxWindow(); days > int(limit/day) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("window exceeds %s", limit))
		return
	}
	rangeStart := s.state.Now()
	rangeEnd := rangeStart.Add(time.Duration(days) * day)

	snap, err := s.state.Snapshot()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	// Snapshot events carry no calendar identity; key them by title.
	events := make([]model.Event, len(snap.Events))
	for i, ev := range snap.Events {
		if ev.ID == "" {
			ev.ID = ev.Title
		}
		events[i] = ev
	}

	res, err := ics.ExpandOccurrences(events, ics.ExpandConfig{
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	})
	if err != nil {
		appLog.Error("api occurrences: expand failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand events")
		return
	}

	writeJSON(w, http.StatusOK, occurrencesResponse{
		Occurrences:     res.Occurrences,
		TruncatedEvents: res.TruncatedEvents,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
}

// dateResponse is the JSON response shape for /api/skyblock/date.
type dateResponse struct {
	At       time.Time    `json:"at"`
	Date     skytime.Date `json:"date"`
	Display  string       `json:"display"`
	DayStart time.Time    `json:"day_start"`
	NextTick time.Time    `json:"next_tick"`
	Mayor    string       `json:"mayor,omitempty"`
}

// handleDate converts ?at= (default now) to the in-game date.
func (s *Server) handleDate(w http.ResponseWriter, r *http.Request) {
	at, err := parseTimeDefault(r.URL.Query().Get("at"), s.state.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d, err := skytime.FromTime(at)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := dateResponse{
		At:       at,
		Date:     d,
		Display:  d.String(),
		DayStart: d.Time(),
		NextTick: skytime.NextTick(at),
	}
	if snap, err := s.state.Snapshot(); err == nil {
		// Same election the generator schedules festivals from.
		if e, ok := calendar.ElectionFor(d, snap.Elections); ok {
			resp.Mayor = e.Mayor
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleICS serves the GLOBAL calendar as an iCalendar feed.
func (s *Server) handleICS(w http.ResponseWriter, _ *http.Request) {
	cal, err := s.globalCalendar()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(ics.Export(cal, s.state.Now())))
}

// refreshResponse is the JSON response shape for /api/refresh.
type refreshResponse struct {
	RefreshedAt time.Time `json:"refreshed_at"`
	Events      int       `json:"events"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.state.Refresh(r.Context()); err != nil {
		appLog.Error("api refresh failed", err)
		writeServiceError(w, err)
		return
	}
	cal, err := s.globalCalendar()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{RefreshedAt: s.state.RefreshedAt(), Events: cal.Len()})
}

func (s *Server) globalCalendar() (*calendar.Calendar, error) {
	dir, err := s.state.Directory()
	if err != nil {
		return nil, err
	}
	cal := dir.GlobalCalendar()
	if cal == nil {
		return nil, calendar.ErrDataUnavailable
	}
	return cal, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseTimeDefault(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected RFC3339", s)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeServiceError maps domain errors to status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, skytime.ErrBeforeEpoch):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, calendar.ErrDataUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		appLog.Error("request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
