package domain

// HorizonWeeks is the length of the scheduling period carried by every row.
const HorizonWeeks = 10

// Frequency codes accepted from the form: the desired number of weeks.
const (
	MinFrequency = 1
	MaxFrequency = 4
)

var frequencySpacing = map[int]int{1: 4, 2: 3, 3: 2, 4: 1}

// SpacingFor returns the desired minimum gap, in weeks, for a frequency code.
func SpacingFor(frequency int) (int, bool) {
	spacing, ok := frequencySpacing[frequency]
	return spacing, ok
}

// Row is one raw response from the availability form. Nil or absent values
// mark fields the respondent never supplied.
type Row struct {
	Name         string              `json:"name" yaml:"name"`
	Availability []bool              `json:"availability" yaml:"availability"`
	Instruments  map[Instrument]bool `json:"instruments" yaml:"instruments"`
	NumWeeks     *int                `json:"num_weeks" yaml:"num_weeks"`
	IsLeader     *bool               `json:"is_leader" yaml:"is_leader"`
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	cp := r
	cp.Availability = append([]bool(nil), r.Availability...)
	if r.Instruments != nil {
		cp.Instruments = make(map[Instrument]bool, len(r.Instruments))
		for k, v := range r.Instruments {
			cp.Instruments[k] = v
		}
	}
	if r.NumWeeks != nil {
		n := *r.NumWeeks
		cp.NumWeeks = &n
	}
	if r.IsLeader != nil {
		l := *r.IsLeader
		cp.IsLeader = &l
	}
	return cp
}

// Person is a validated roster entry.
type Person struct {
	Name         string
	Availability [HorizonWeeks]bool
	Instruments  map[Instrument]bool
	Frequency    int
	Spacing      int
	IsLeader     bool
}

// Available reports availability for a 1-based week.
func (p Person) Available(week int) bool {
	if week < 1 || week > HorizonWeeks {
		return false
	}
	return p.Availability[week-1]
}

// Plays reports whether p is capable of inst.
func (p Person) Plays(inst Instrument) bool {
	return p.Instruments[inst]
}

// Roster is an immutable, name-indexed collection of people in input order.
type Roster struct {
	people  []Person
	index   map[string]int
	leaders []string
}

// NewRoster indexes people by name. Names must be unique.
func NewRoster(people []Person) (*Roster, error) {
	r := &Roster{
		people: make([]Person, len(people)),
		index:  make(map[string]int, len(people)),
	}
	for i, p := range people {
		if _, dup := r.index[p.Name]; dup {
			return nil, DuplicatePersonError{Name: p.Name}
		}
		r.index[p.Name] = i
		r.people[i] = clonePerson(p)
		if p.IsLeader {
			r.leaders = append(r.leaders, p.Name)
		}
	}
	return r, nil
}

func clonePerson(p Person) Person {
	cp := p
	cp.Instruments = make(map[Instrument]bool, len(p.Instruments))
	for k, v := range p.Instruments {
		cp.Instruments[k] = v
	}
	return cp
}

// Len returns the number of people.
func (r *Roster) Len() int { return len(r.people) }

// At returns the person at index i in input order.
func (r *Roster) At(i int) Person { return clonePerson(r.people[i]) }

// People returns a copy of all people in input order.
func (r *Roster) People() []Person {
	out := make([]Person, len(r.people))
	for i, p := range r.people {
		out[i] = clonePerson(p)
	}
	return out
}

// IndexOf returns the input position of name.
func (r *Roster) IndexOf(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Lookup returns the person called name.
func (r *Roster) Lookup(name string) (Person, bool) {
	i, ok := r.index[name]
	if !ok {
		return Person{}, false
	}
	return clonePerson(r.people[i]), true
}

// Leaders returns leader names in input order.
func (r *Roster) Leaders() []string {
	return append([]string(nil), r.leaders...)
}
