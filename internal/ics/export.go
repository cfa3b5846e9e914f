package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"skycal/internal/calendar"
	appLog "skycal/internal/log"
)

// productService is the service name carried in PRODID.
const productService = "skycal"

// propertyNotifyAt carries Event.NotifyAt, which iCalendar has no field for.
const propertyNotifyAt = ical.ComponentProperty("X-SKYCAL-NOTIFY-AT")

// Export renders cal as an iCalendar document. now is used for DTSTAMP.
//
//   - One VEVENT per calendar entry, in insertion order, UID = entry id.
//   - Recurring events carry an RRULE built from their rrule-go rule.
//   - Events with a reminder carry a DISPLAY VALARM.
func Export(cal *calendar.Calendar, now time.Time) string {
	out := ical.NewCalendarFor(productService)
	out.SetMethod(ical.MethodPublish)
	out.SetName(cal.Title)
	out.SetXWRCalName(cal.Title)
	if cal.Description != "" {
		out.SetDescription(cal.Description)
	}

	for _, ev := range cal.Events() {
		ve := out.AddEvent(ev.ID)
		ve.SetDtStampTime(now)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if !ev.NotifyAt.IsZero() {
			ve.SetProperty(propertyNotifyAt, ev.NotifyAt.UTC().Format(icalTimestampFormatUtc))
		}

		if ev.Recurring() {
			r, err := ev.RRule(ev.Start)
			if err != nil {
				appLog.Error("ics export: failed to build RRULE", err, "event_id", ev.ID, "title", ev.Title)
			} else {
				ve.AddRrule(r.OrigOptions.RRuleString())
			}
		}

		if ev.Remind > 0 {
			alarm := ve.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-PT%dS", ev.Remind))
			alarm.SetDescription(ev.Title)
		}
	}

	return out.Serialize()
}
