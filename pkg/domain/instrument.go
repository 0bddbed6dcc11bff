package domain

import "fmt"

// Instrument names a weekly performance slot a person can fill.
type Instrument string

// Canonical instruments collected by the availability form.
const (
	Vocals         Instrument = "vocals"
	AcousticGuitar Instrument = "acoustic_guitar"
	Piano          Instrument = "piano"
	Cajon          Instrument = "cajon"
	Strings        Instrument = "strings"
	ElectricGuitar Instrument = "electric_guitar"
	// BassGuitar is collected but reserved: it never takes part in scheduling.
	BassGuitar Instrument = "bass_guitar"
)

// Instruments lists every instrument in form order.
var Instruments = []Instrument{Vocals, AcousticGuitar, Piano, Cajon, Strings, ElectricGuitar, BassGuitar}

// ScheduledInstruments lists the instruments that receive decision variables.
var ScheduledInstruments = []Instrument{Vocals, AcousticGuitar, Piano, Cajon, Strings, ElectricGuitar}

// OptionalInstruments are capped at one player per week and rewarded when used.
var OptionalInstruments = []Instrument{ElectricGuitar, Strings, Cajon}

// CannotSingWith is the group of which a person may hold at most one slot per week.
var CannotSingWith = []Instrument{Cajon, Strings, Vocals}

// ParseInstrument resolves a canonical instrument name.
func ParseInstrument(name string) (Instrument, error) {
	for _, inst := range Instruments {
		if string(inst) == name {
			return inst, nil
		}
	}
	return "", fmt.Errorf("unknown instrument %q", name)
}

// Valid reports whether i is one of the canonical instruments.
func (i Instrument) Valid() bool {
	_, err := ParseInstrument(string(i))
	return err == nil
}

// Optional reports whether i is capped and rewarded rather than required.
func (i Instrument) Optional() bool {
	for _, inst := range OptionalInstruments {
		if inst == i {
			return true
		}
	}
	return false
}

// Coverage returns the weekly lower and upper bound of players for i.
func (i Instrument) Coverage() (min, max int) {
	switch i {
	case Vocals:
		return 3, 3
	case AcousticGuitar, Piano:
		return 1, 1
	case Cajon, Strings, ElectricGuitar:
		return 0, 1
	default:
		return 0, 0
	}
}
