package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "skycal/internal/log"
	"skycal/internal/model"
)

const icalTimestampFormatUtc = "20060102T150405Z"

// ParseEvents reads the VEVENTs of an iCalendar document as base events.
//
//   - SUMMARY / DESCRIPTION map to Title / Description.
//   - RRULE must use a fixed-length frequency (SECONDLY to DAILY); its
//     interval becomes Recurrence.
//   - The first VALARM with a "-PT..." trigger becomes Remind.
//   - X-SKYCAL-NOTIFY-AT, when present, becomes NotifyAt.
//
// Events that cannot be read are logged and skipped; a document without
// any VEVENT yields an empty slice.
func ParseEvents(name string, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "source", name)
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "source", name, "uid", ve.Id())
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "source", name, "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		end = start
	}
	out.Start = start.UTC()
	out.End = end.UTC()
	out.Duration = int64(out.End.Sub(out.Start) / time.Second)

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
	}
	if p := ve.GetProperty(propertyNotifyAt); p != nil {
		if t, err := time.Parse(icalTimestampFormatUtc, strings.TrimSpace(p.Value)); err == nil {
			out.NotifyAt = t
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		rec, err := recurrenceSeconds(p.Value)
		if err != nil {
			return out, err
		}
		out.Recurrence = rec
	}

	for _, alarm := range ve.Alarms() {
		p := alarm.GetProperty(ical.ComponentPropertyTrigger)
		if p == nil {
			continue
		}
		if secs, ok := parseLeadTrigger(p.Value); ok {
			out.Remind = secs
			break
		}
	}

	return out, out.Validate()
}

var frequencySeconds = map[rrule.Frequency]int64{
	rrule.SECONDLY: 1,
	rrule.MINUTELY: 60,
	rrule.HOURLY:   3600,
	rrule.DAILY:    86400,
}

// recurrenceSeconds converts a fixed-length RRULE into a period in seconds.
func recurrenceSeconds(raw string) (int64, error) {
	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return 0, fmt.Errorf("RRULE %q: %w", raw, err)
	}
	unit, ok := frequencySeconds[opt.Freq]
	if !ok {
		return 0, fmt.Errorf("RRULE %q: unsupported frequency %s", raw, opt.Freq)
	}
	interval := int64(opt.Interval)
	if interval <= 0 {
		interval = 1
	}
	return unit * interval, nil
}

// parseLeadTrigger reads a negative "-PT#H#M#S" trigger as seconds before
// start.
func parseLeadTrigger(v string) (int64, bool) {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "-PT") {
		return 0, false
	}
	rest := v[len("-PT"):]
	var total int64
	for rest != "" {
		i := strings.IndexAny(rest, "HMS")
		if i <= 0 {
			return 0, false
		}
		n, err := strconv.ParseInt(rest[:i], 10, 64)
		if err != nil {
			return 0, false
		}
		switch rest[i] {
		case 'H':
			total += n * 3600
		case 'M':
			total += n * 60
		case 'S':
			total += n
		}
		rest = rest[i+1:]
	}
	return total, total > 0
}
