package domain

import (
	"fmt"
	"strings"
)

// WeekSlot lists who plays what in a single week, plus the week's leader.
type WeekSlot struct {
	Week        int                     `json:"week"`
	Assignments map[Instrument][]string `json:"assignments"`
	Leader      string                  `json:"leader"`
}

// Players returns the people assigned to inst, in roster order.
func (w WeekSlot) Players(inst Instrument) []string {
	return append([]string(nil), w.Assignments[inst]...)
}

// InstrumentsFor returns the instruments name holds this week, in form order.
func (w WeekSlot) InstrumentsFor(name string) []Instrument {
	var out []Instrument
	for _, inst := range Instruments {
		for _, player := range w.Assignments[inst] {
			if player == name {
				out = append(out, inst)
				break
			}
		}
	}
	return out
}

// Schedule is the week-indexed output table of one solution.
type Schedule struct {
	Weeks []WeekSlot `json:"weeks"`
}

// Week returns the slot for a 1-based week.
func (s Schedule) Week(week int) (WeekSlot, bool) {
	for _, w := range s.Weeks {
		if w.Week == week {
			return w, true
		}
	}
	return WeekSlot{}, false
}

// PersonDiagnostics explains how one person fared in a solution.
type PersonDiagnostics struct {
	Name               string               `json:"name"`
	TotalWeeks         int                  `json:"total_weeks_scheduled"`
	WeeksScheduled     []int                `json:"weeks_scheduled"`
	NumWeeksLeading    int                  `json:"number_of_weeks_leading"`
	WeeksLeading       []int                `json:"weeks_leading"`
	Instruments        map[int][]Instrument `json:"instruments"`
	FrequencyDeviation int                  `json:"frequency_deviation"`
	Violations         []Violation          `json:"violations,omitempty"`
}

// Narrative renders the instrument assignments as "Week 1: vocals, piano; Week 4: cajon".
func (d PersonDiagnostics) Narrative() string {
	parts := make([]string, 0, len(d.WeeksScheduled))
	for _, week := range d.WeeksScheduled {
		insts := d.Instruments[week]
		names := make([]string, len(insts))
		for i, inst := range insts {
			names[i] = string(inst)
		}
		parts = append(parts, fmt.Sprintf("Week %d: %s", week, strings.Join(names, ", ")))
	}
	return strings.Join(parts, "; ")
}

// Diagnostics holds per-person diagnostics in roster order.
type Diagnostics struct {
	People []PersonDiagnostics `json:"people"`
}

// For returns the diagnostics entry for name.
func (d Diagnostics) For(name string) (PersonDiagnostics, bool) {
	for _, p := range d.People {
		if p.Name == name {
			return p, true
		}
	}
	return PersonDiagnostics{}, false
}
