package core

import (
	"fmt"

	"rotacore/internal/solver"
	"rotacore/pkg/domain"
)

// LeadGap is the desired minimum distance between two weeks led by the same
// leader. Leading in weeks closer than this is penalised.
const LeadGap = 3

// Weights scale each soft preference in the objective.
type Weights struct {
	Frequency   int64 `json:"frequency" yaml:"frequency"`
	Spacing     int64 `json:"spacing" yaml:"spacing"`
	LeadSpacing int64 `json:"lead_spacing" yaml:"lead_spacing"`
	Optional    int64 `json:"optional" yaml:"optional"`
}

// DefaultWeights returns the stock objective weights.
func DefaultWeights() Weights {
	return Weights{Frequency: 2, Spacing: 3, LeadSpacing: 1, Optional: 1}
}

// Validate rejects negative weights; zero disables a preference.
func (w Weights) Validate() error {
	for field, v := range map[string]int64{
		"frequency":    w.Frequency,
		"spacing":      w.Spacing,
		"lead_spacing": w.LeadSpacing,
		"optional":     w.Optional,
	} {
		if v < 0 {
			return domain.ConfigurationError{Field: "weights." + field, Value: v, Reason: "must not be negative"}
		}
	}
	return nil
}

// SpacingViolation is an indicator that becomes true exactly when one person,
// or one leader, is active in both First and Second.
type SpacingViolation struct {
	Var    solver.Var
	Person string
	Leader bool
	First  int
	Second int
}

type optionalUsage struct {
	Week       int
	Instrument domain.Instrument
	Count      solver.Var
}

type penaltySet struct {
	weights       Weights
	deviation     []solver.Var
	spacing       [][]SpacingViolation
	leaderSpacing [][]SpacingViolation
	optional      []optionalUsage
	objective     solver.LinearExpr
}

// ApplyPenalties adds the soft preferences and sets the weighted objective.
// It may be called once per Problem.
func (p *Problem) ApplyPenalties(w Weights) error {
	if p.penalties != nil {
		return errAlreadyPenalized
	}
	if err := w.Validate(); err != nil {
		return err
	}
	people := p.roster.People()
	ps := &penaltySet{
		weights:       w,
		deviation:     make([]solver.Var, len(people)),
		spacing:       make([][]SpacingViolation, len(people)),
		leaderSpacing: make([][]SpacingViolation, len(p.leaders)),
	}
	m := p.model
	bound := int64(max(p.horizon, domain.MaxFrequency))

	var freq, space, lead, optional solver.LinearExpr
	for pi, person := range people {
		weeks := p.scheduled[p.index.personWeek(pi, 0):p.index.personWeek(pi, p.horizon-1)+1]
		dev := AddBoundedDeviation(m, solver.Sum(weeks...), int64(person.Frequency), bound, fmt.Sprintf("dev[%s]", person.Name))
		ps.deviation[pi] = dev
		freq = freq.Add(dev)

		ps.spacing[pi] = p.pairViolations(person.Name, false, weeks, person.Spacing)
		for _, v := range ps.spacing[pi] {
			space = space.Add(v.Var)
		}
	}
	for li, pi := range p.leaders {
		name := people[pi].Name
		ps.leaderSpacing[li] = p.pairViolations(name, true, p.lead[li*p.horizon:(li+1)*p.horizon], LeadGap-1)
		for _, v := range ps.leaderSpacing[li] {
			lead = lead.Add(v.Var)
		}
	}
	for w := 0; w < p.horizon; w++ {
		for _, inst := range domain.OptionalInstruments {
			_, hi := inst.Coverage()
			count := m.NewIntVar(0, int64(hi), fmt.Sprintf("optional[%s,week%d]", inst, w+1))
			players := make([]solver.Var, len(people))
			for pi := range people {
				players[pi] = p.assign[p.index.assignment(pi, w, instrumentIndex(inst))]
			}
			m.AddEquality(solver.Sum(players...).AddTerm(count, -1), 0)
			ps.optional = append(ps.optional, optionalUsage{Week: w + 1, Instrument: inst, Count: count})
			optional = optional.Add(count)
		}
	}

	ps.objective = solver.LinearExpr{}.
		AddExpr(freq, w.Frequency).
		AddExpr(space, w.Spacing).
		AddExpr(lead, w.LeadSpacing).
		AddExpr(optional, -w.Optional)
	m.Minimize(ps.objective)
	p.penalties = ps
	return nil
}

// pairViolations creates one indicator per pair of weeks closer than
// maxGap+1 apart, using the week indicators in active.
func (p *Problem) pairViolations(name string, leader bool, active []solver.Var, maxGap int) []SpacingViolation {
	kind := "space"
	if leader {
		kind = "leadspace"
	}
	var out []SpacingViolation
	for w := 0; w < p.horizon; w++ {
		for d := 1; d <= maxGap && w+d < p.horizon; d++ {
			a, b := active[w], active[w+d]
			v := p.model.NewBoolVar(fmt.Sprintf("%s[%s,week%d,week%d]", kind, name, w+1, w+d+1))
			p.model.AddGreaterOrEqual(solver.Sum(v).AddTerm(a, -1).AddTerm(b, -1), -1)
			p.model.AddImplication(v, a)
			p.model.AddImplication(v, b)
			out = append(out, SpacingViolation{Var: v, Person: name, Leader: leader, First: w + 1, Second: w + d + 1})
		}
	}
	return out
}

// Objective returns the weighted objective once penalties are applied.
func (p *Problem) Objective() (solver.LinearExpr, error) {
	if p.penalties == nil {
		return solver.LinearExpr{}, errNotPenalized
	}
	return p.penalties.objective, nil
}

// Deviation returns the frequency deviation variable of person pi.
func (p *Problem) Deviation(pi int) (solver.Var, error) {
	if p.penalties == nil {
		return 0, errNotPenalized
	}
	return p.penalties.deviation[pi], nil
}

// SpacingViolations returns the person and leader spacing indicators for the
// person at roster index pi.
func (p *Problem) SpacingViolations(pi int) ([]SpacingViolation, error) {
	if p.penalties == nil {
		return nil, errNotPenalized
	}
	out := append([]SpacingViolation(nil), p.penalties.spacing[pi]...)
	for li, leader := range p.leaders {
		if leader == pi {
			out = append(out, p.penalties.leaderSpacing[li]...)
		}
	}
	return out, nil
}
