package timetable

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/thermod-go/thermod/internal/status"
)

// Day is one of the seven weekday names used as keys in the weekly
// program, in the user's local language-neutral form.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

// Days lists all seven weekdays in time.Weekday order (Sunday first),
// matching Go's time.Weekday numbering so DayFromTime needs no lookup table.
var Days = [7]Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// DayFromTime returns the Day a time.Time falls on.
func DayFromTime(t time.Time) Day {
	return Days[int(t.Weekday())]
}

// Hour is one of the 24 hour keys "h00".."h23".
type Hour string

// HourFromTime returns the Hour key for a time.Time's hour component.
func HourFromTime(t time.Time) Hour {
	return Hour(fmt.Sprintf("h%02d", t.Hour()))
}

// Hours lists all 24 valid hour keys in order.
var Hours = func() [24]Hour {
	var hs [24]Hour
	for i := range hs {
		hs[i] = Hour(fmt.Sprintf("h%02d", i))
	}
	return hs
}()

// QuarterFromTime returns which 15-minute quarter (0..3) a time.Time
// falls in, per spec.md §4.1: quarters are [0,15), [15,30), [30,45), [45,60).
func QuarterFromTime(t time.Time) int {
	return t.Minute() / 15
}

// Cell is a single quarter-hour program entry: either a named
// temperature (tmax/tmin/t0) or a literal temperature in the working
// scale. It round-trips through JSON as a bare string or number.
type Cell struct {
	Name    status.TemperatureName
	Literal float64
	IsName  bool
}

// NamedCell returns a Cell referring to a named comfort temperature.
func NamedCell(name status.TemperatureName) Cell {
	return Cell{Name: name, IsName: true}
}

// LiteralCell returns a Cell holding a literal temperature value.
func LiteralCell(value float64) Cell {
	return Cell{Literal: value}
}

func (c Cell) MarshalJSON() ([]byte, error) {
	if c.IsName {
		return json.Marshal(string(c.Name))
	}
	return json.Marshal(c.Literal)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var asNumber float64
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*c = LiteralCell(asNumber)
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("%w: quarter entry must be a temperature name or a number", status.ErrInvalidContent)
	}
	name := status.TemperatureName(asString)
	if !name.Valid() {
		return fmt.Errorf("%w: unknown temperature name %q", status.ErrInvalidContent, asString)
	}
	*c = NamedCell(name)
	return nil
}

// Quarters is the four 15-minute cells of a single programmed hour.
type Quarters [4]Cell

// HourProgram maps each of the 24 "h00".."h23" keys to its four quarters.
type HourProgram map[Hour]Quarters

// Program is the full weekly schedule: day -> hour -> four quarters.
// Invariant: every day carries exactly 24 hours, every hour exactly 4
// quarters, no cell is ever empty.
type Program map[Day]HourProgram

// Validate checks the structural invariant of §3 and that every named
// cell refers to a temperature actually present in names.
func (p Program) Validate(names map[status.TemperatureName]float64) error {
	if len(p) != 7 {
		return fmt.Errorf("%w: program must define all seven weekdays, found %d", status.ErrInvalidContent, len(p))
	}
	for _, day := range Days {
		hp, ok := p[day]
		if !ok {
			return fmt.Errorf("%w: program is missing day %q", status.ErrInvalidContent, day)
		}
		if len(hp) != 24 {
			return fmt.Errorf("%w: day %q must define all 24 hours, found %d", status.ErrInvalidContent, day, len(hp))
		}
		for _, hour := range Hours {
			quarters, ok := hp[hour]
			if !ok {
				return fmt.Errorf("%w: day %q is missing hour %q", status.ErrInvalidContent, day, hour)
			}
			for i, cell := range quarters {
				if cell.IsName {
					if _, ok := names[cell.Name]; !ok {
						return fmt.Errorf("%w: day %q hour %q quarter %d refers to unknown temperature %q",
							status.ErrInvalidContent, day, hour, i, cell.Name)
					}
				}
			}
		}
	}
	return nil
}

// CellAt returns the programmed cell for a given (day, hour, quarter).
func (p Program) CellAt(day Day, hour Hour, quarter int) (Cell, bool) {
	hp, ok := p[day]
	if !ok {
		return Cell{}, false
	}
	q, ok := hp[hour]
	if !ok {
		return Cell{}, false
	}
	if quarter < 0 || quarter > 3 {
		return Cell{}, false
	}
	return q[quarter], true
}
