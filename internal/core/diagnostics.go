package core

import (
	"fmt"

	"rotacore/internal/solver"
	"rotacore/pkg/domain"
)

// ScheduleOf renders a solved response as a week-indexed table. Players are
// listed in roster order. Responses without a solution produce an empty table.
func (p *Problem) ScheduleOf(resp *solver.Response) domain.Schedule {
	if !resp.HasSolution() {
		return domain.Schedule{}
	}
	people := p.roster.People()
	sched := domain.Schedule{Weeks: make([]domain.WeekSlot, 0, p.horizon)}
	for w := 1; w <= p.horizon; w++ {
		slot := domain.WeekSlot{Week: w, Assignments: make(map[domain.Instrument][]string, len(domain.ScheduledInstruments))}
		for _, inst := range domain.ScheduledInstruments {
			players := []string{}
			for pi, person := range people {
				if resp.BoolValue(p.Assignment(pi, w, inst)) {
					players = append(players, person.Name)
				}
			}
			slot.Assignments[inst] = players
		}
		for li, pi := range p.leaders {
			if resp.BoolValue(p.Leading(li, w)) {
				slot.Leader = people[pi].Name
				break
			}
		}
		sched.Weeks = append(sched.Weeks, slot)
	}
	return sched
}

// Diagnose explains, per person, how a solved response treated them: weeks
// scheduled and led, instruments by week, the realised frequency deviation and
// the spacing indicators that came out true.
func (p *Problem) Diagnose(resp *solver.Response) domain.Diagnostics {
	if !resp.HasSolution() || p.penalties == nil {
		return domain.Diagnostics{}
	}
	people := p.roster.People()
	diag := domain.Diagnostics{People: make([]domain.PersonDiagnostics, 0, len(people))}
	leaderPos := make(map[int]int, len(p.leaders))
	for li, pi := range p.leaders {
		leaderPos[pi] = li
	}
	for pi, person := range people {
		d := domain.PersonDiagnostics{
			Name:         person.Name,
			Instruments:  make(map[int][]domain.Instrument),
			WeeksLeading: []int{},
		}
		for w := 1; w <= p.horizon; w++ {
			if !resp.BoolValue(p.Scheduled(pi, w)) {
				continue
			}
			d.WeeksScheduled = append(d.WeeksScheduled, w)
			for _, inst := range domain.ScheduledInstruments {
				if resp.BoolValue(p.Assignment(pi, w, inst)) {
					d.Instruments[w] = append(d.Instruments[w], inst)
				}
			}
		}
		d.TotalWeeks = len(d.WeeksScheduled)
		if li, ok := leaderPos[pi]; ok {
			for w := 1; w <= p.horizon; w++ {
				if resp.BoolValue(p.Leading(li, w)) {
					d.WeeksLeading = append(d.WeeksLeading, w)
				}
			}
		}
		d.NumWeeksLeading = len(d.WeeksLeading)
		d.FrequencyDeviation = int(resp.Value(p.penalties.deviation[pi]))

		violations, _ := p.SpacingViolations(pi)
		for _, v := range violations {
			if resp.Value(v.Var) > 0 {
				d.Violations = append(d.Violations, spacingEvidence(v, person.Spacing))
			}
		}
		diag.People = append(diag.People, d)
	}
	return diag
}

func spacingEvidence(v SpacingViolation, spacing int) domain.Violation {
	if v.Leader {
		return domain.Violation{
			Rule:     RuleLeaderSpacing,
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("leads weeks %d and %d, fewer than %d weeks apart", v.First, v.Second, LeadGap),
			Person:   v.Person,
			Weeks:    []int{v.First, v.Second},
		}
	}
	return domain.Violation{
		Rule:     RulePersonSpacing,
		Severity: domain.SeverityWarn,
		Message:  fmt.Sprintf("scheduled weeks %d and %d, fewer than %d weeks apart", v.First, v.Second, spacing+1),
		Person:   v.Person,
		Weeks:    []int{v.First, v.Second},
	}
}
