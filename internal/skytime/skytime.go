package skytime

import (
	"errors"
	"fmt"
	"time"
)

// Calendar shape. A fictional day lasts 20 real minutes; months have 31 days
// and years 12 months.
const (
	DayLength     = 20 * time.Minute
	DaysPerMonth  = 31
	MonthsPerYear = 12
	DaysPerYear   = DaysPerMonth * MonthsPerYear

	YearLength = DaysPerYear * DayLength
)

// Epoch is the real instant of fictional date (1,1,1).
//
// Years are numbered from 1 at this epoch. The instant 2024-09-30T05:55:00Z
// is exactly (1,1,376) under this numbering.
var Epoch = time.Unix(1560275700, 0).UTC()

// tickMinutes are the minute marks of each real hour on which a fictional day
// starts. They follow from Epoch falling on :55.
var tickMinutes = [...]int{15, 35, 55}

// ErrBeforeEpoch is returned when converting an instant earlier than Epoch.
var ErrBeforeEpoch = errors.New("skytime: instant is before epoch")

// Date is a day in the fictional calendar.
type Date struct {
	Day   int `json:"day" yaml:"day"`
	Month int `json:"month" yaml:"month"`
	Year  int `json:"year" yaml:"year"`
}

// NewDate is a convenience constructor.
func NewDate(day, month, year int) Date {
	return Date{Day: day, Month: month, Year: year}
}

// Valid reports whether every component lies in its calendar range.
func (d Date) Valid() bool {
	return d.Day >= 1 && d.Day <= DaysPerMonth &&
		d.Month >= 1 && d.Month <= MonthsPerYear &&
		d.Year >= 1
}

// Days returns the number of fictional days between Epoch and d.
//
// No range check is applied: a month of 0 lands on the last month of the
// previous year.
func (d Date) Days() int64 {
	return int64(d.Year-1)*DaysPerYear + int64(d.Month-1)*DaysPerMonth + int64(d.Day-1)
}

// Time returns the real instant at which d starts.
func (d Date) Time() time.Time {
	return Epoch.Add(time.Duration(d.Days()) * DayLength)
}

func (d Date) String() string {
	return fmt.Sprintf("Day %d, Month %d, Year %d", d.Day, d.Month, d.Year)
}

// FromTime returns the fictional date containing t. Fractions of a day are
// truncated, so FromTime(t).Time() is at most one DayLength before t.
func FromTime(t time.Time) (Date, error) {
	delta := t.Sub(Epoch)
	if delta < 0 {
		return Date{}, fmt.Errorf("%w: %s", ErrBeforeEpoch, t.UTC().Format(time.RFC3339))
	}

	deltaMinutes := int64(delta / time.Minute)
	deltaDays := deltaMinutes / int64(DayLength/time.Minute)
	deltaYears := deltaDays / DaysPerYear
	remaining := deltaDays - deltaYears*DaysPerYear

	return Date{
		Day:   int(remaining%DaysPerMonth) + 1,
		Month: int(remaining/DaysPerMonth) + 1,
		Year:  int(deltaYears) + 1,
	}, nil
}

// NextTick returns the first fictional day boundary strictly after t.
// Boundaries fall on minutes 15, 35 and 55 of every UTC hour.
func NextTick(t time.Time) time.Time {
	t = t.UTC()
	hour := t.Truncate(time.Hour)
	for _, m := range tickMinutes {
		c := hour.Add(time.Duration(m) * time.Minute)
		if c.After(t) {
			return c
		}
	}
	return hour.Add(time.Hour + time.Duration(tickMinutes[0])*time.Minute)
}

// TickStart returns the start of the fictional day containing t.
func TickStart(t time.Time) (time.Time, error) {
	d, err := FromTime(t)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time(), nil
}
