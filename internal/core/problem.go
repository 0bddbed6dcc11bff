package core

import (
	"errors"
	"fmt"

	"rotacore/internal/solver"
	"rotacore/pkg/domain"
)

var (
	errAlreadyPenalized = errors.New("core: penalties already applied")
	errNotPenalized     = errors.New("core: penalties not applied")
)

// varIndex maps (person, week, instrument) triples onto a dense slice.
type varIndex struct {
	people      int
	weeks       int
	instruments int
}

func (ix varIndex) assignment(p, w, i int) int {
	return (p*ix.weeks+w)*ix.instruments + i
}

func (ix varIndex) personWeek(p, w int) int {
	return p*ix.weeks + w
}

// Problem is the solver model built for one roster and horizon together with
// the handles needed to read solutions back. A Problem is built once, then
// sampled any number of times; sampling never mutates it.
type Problem struct {
	roster  *domain.Roster
	horizon int
	model   *solver.Model
	index   varIndex

	assign    []solver.Var
	scheduled []solver.Var
	leaders   []int
	lead      []solver.Var

	penalties *penaltySet
}

// Roster returns the roster the problem was built from.
func (p *Problem) Roster() *domain.Roster { return p.roster }

// Horizon returns the number of scheduled weeks.
func (p *Problem) Horizon() int { return p.horizon }

// Model exposes the underlying solver model.
func (p *Problem) Model() *solver.Model { return p.model }

// Assignment returns the variable for person p playing inst in 1-based week.
func (p *Problem) Assignment(person, week int, inst domain.Instrument) solver.Var {
	return p.assign[p.index.assignment(person, week-1, instrumentIndex(inst))]
}

// Scheduled returns the indicator of person p playing anything in 1-based week.
func (p *Problem) Scheduled(person, week int) solver.Var {
	return p.scheduled[p.index.personWeek(person, week-1)]
}

// Leading returns the variable for the leader at leaderPos leading 1-based week.
func (p *Problem) Leading(leaderPos, week int) solver.Var {
	return p.lead[leaderPos*p.horizon+week-1]
}

// NumLeaders reports how many leaders have leading variables.
func (p *Problem) NumLeaders() int { return len(p.leaders) }

func instrumentIndex(inst domain.Instrument) int {
	for i, candidate := range domain.ScheduledInstruments {
		if candidate == inst {
			return i
		}
	}
	panic(fmt.Sprintf("core: %s is not a scheduled instrument", inst))
}

// BuildModel encodes every hard scheduling rule for roster over the first
// horizon weeks. Horizon must be between 1 and domain.HorizonWeeks.
func BuildModel(roster *domain.Roster, horizon int) (*Problem, error) {
	if roster == nil {
		return nil, errors.New("core: nil roster")
	}
	if horizon < 1 || horizon > domain.HorizonWeeks {
		return nil, domain.ConfigurationError{
			Field:  "horizon_weeks",
			Value:  horizon,
			Reason: fmt.Sprintf("must be between 1 and %d", domain.HorizonWeeks),
		}
	}
	people := roster.People()
	insts := domain.ScheduledInstruments
	p := &Problem{
		roster:  roster,
		horizon: horizon,
		model:   solver.NewModel(),
		index:   varIndex{people: len(people), weeks: horizon, instruments: len(insts)},
	}
	m := p.model

	p.assign = make([]solver.Var, len(people)*horizon*len(insts))
	for pi, person := range people {
		for w := 0; w < horizon; w++ {
			for ii, inst := range insts {
				p.assign[p.index.assignment(pi, w, ii)] = m.NewBoolVar(fmt.Sprintf("x[%s,week%d,%s]", person.Name, w+1, inst))
			}
		}
	}
	for _, name := range roster.Leaders() {
		pi, _ := roster.IndexOf(name)
		p.leaders = append(p.leaders, pi)
		for w := 0; w < horizon; w++ {
			p.lead = append(p.lead, m.NewBoolVar(fmt.Sprintf("lead[%s,week%d]", name, w+1)))
		}
	}
	p.scheduled = make([]solver.Var, len(people)*horizon)
	for pi, person := range people {
		for w := 0; w < horizon; w++ {
			p.scheduled[p.index.personWeek(pi, w)] = m.NewBoolVar(fmt.Sprintf("scheduled[%s,week%d]", person.Name, w+1))
		}
	}

	p.addEligibility(people)
	p.addExclusivity(people)
	p.addCoverage(people)
	p.addLeadership(people)
	p.addScheduledIndicators(people)
	p.addDecisionOrder(people)
	return p, nil
}

// addEligibility pins an assignment to zero unless the person is both
// available that week and capable of the instrument.
func (p *Problem) addEligibility(people []domain.Person) {
	for pi, person := range people {
		for w := 0; w < p.horizon; w++ {
			for ii, inst := range domain.ScheduledInstruments {
				var allowed int64
				if person.Available(w+1) && person.Plays(inst) {
					allowed = 1
				}
				p.model.AddLessOrEqual(solver.Sum(p.assign[p.index.assignment(pi, w, ii)]), allowed)
			}
		}
	}
}

func (p *Problem) addExclusivity(people []domain.Person) {
	for pi := range people {
		for w := 0; w < p.horizon; w++ {
			var nonVocal, conflicting []solver.Var
			for ii, inst := range domain.ScheduledInstruments {
				v := p.assign[p.index.assignment(pi, w, ii)]
				if inst != domain.Vocals {
					nonVocal = append(nonVocal, v)
				}
			}
			for _, inst := range domain.CannotSingWith {
				conflicting = append(conflicting, p.assign[p.index.assignment(pi, w, instrumentIndex(inst))])
			}
			p.model.AddAtMostOne(nonVocal...)
			p.model.AddAtMostOne(conflicting...)
		}
	}
}

func (p *Problem) addCoverage(people []domain.Person) {
	for w := 0; w < p.horizon; w++ {
		for ii, inst := range domain.ScheduledInstruments {
			players := make([]solver.Var, len(people))
			for pi := range people {
				players[pi] = p.assign[p.index.assignment(pi, w, ii)]
			}
			lo, hi := inst.Coverage()
			p.model.AddLinear(solver.Sum(players...), int64(lo), int64(hi))
		}
	}
}

// addLeadership makes exactly one leader lead each week, ties the leader to
// vocals and to acoustic guitar, or piano when they cannot play guitar, and
// bounds how often each leader leads.
func (p *Problem) addLeadership(people []domain.Person) {
	for w := 0; w < p.horizon; w++ {
		weekly := make([]solver.Var, len(p.leaders))
		for li := range p.leaders {
			weekly[li] = p.lead[li*p.horizon+w]
		}
		p.model.AddExactlyOne(weekly...)
	}
	for li, pi := range p.leaders {
		person := people[pi]
		for w := 0; w < p.horizon; w++ {
			l := p.lead[li*p.horizon+w]
			p.model.AddImplication(l, p.assign[p.index.assignment(pi, w, instrumentIndex(domain.Vocals))])
			switch {
			case person.Plays(domain.AcousticGuitar):
				p.model.AddImplication(l, p.assign[p.index.assignment(pi, w, instrumentIndex(domain.AcousticGuitar))])
			case person.Plays(domain.Piano):
				p.model.AddImplication(l, p.assign[p.index.assignment(pi, w, instrumentIndex(domain.Piano))])
			}
		}
		p.model.AddLinear(solver.Sum(p.lead[li*p.horizon:(li+1)*p.horizon]...), MinLeadWeeks, MaxLeadWeeks)
	}
}

func (p *Problem) addScheduledIndicators(people []domain.Person) {
	for pi := range people {
		for w := 0; w < p.horizon; w++ {
			ops := make([]solver.Var, len(domain.ScheduledInstruments))
			for ii := range domain.ScheduledInstruments {
				ops[ii] = p.assign[p.index.assignment(pi, w, ii)]
			}
			p.model.AddMaxEquality(p.scheduled[p.index.personWeek(pi, w)], ops)
		}
	}
}

// addDecisionOrder orders variables week by week, the leader ahead of the
// assignments of that week.
func (p *Problem) addDecisionOrder(people []domain.Person) {
	for w := 0; w < p.horizon; w++ {
		group := make([]solver.Var, 0, len(p.leaders)+len(people)*p.index.instruments)
		for li := range p.leaders {
			group = append(group, p.lead[li*p.horizon+w])
		}
		for pi := range people {
			for ii := range domain.ScheduledInstruments {
				group = append(group, p.assign[p.index.assignment(pi, w, ii)])
			}
		}
		p.model.AddDecisionStrategy(group)
	}
}

// Leadership load bounds per leader over the horizon.
const (
	MinLeadWeeks = 1
	MaxLeadWeeks = 2
)
