package core

import "rotacore/pkg/domain"

// Rule names reported in violations.
const (
	RuleEligibility   = "eligibility"
	RuleCoverage      = "coverage"
	RuleExclusivity   = "exclusivity"
	RuleLeadership    = "leadership"
	RuleLeaderLoad    = "leader_load"
	RulePersonSpacing = "person_spacing"
	RuleLeaderSpacing = "leader_spacing"
	RuleFrequency     = "frequency"
)

// NewDefaultRulesEngine builds a rules engine that audits solved schedules
// against every hard rule plus the soft spacing and frequency preferences.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewEligibilityRule())
	engine.Register(NewCoverageRule())
	engine.Register(NewExclusivityRule())
	engine.Register(NewLeadershipRule())
	engine.Register(NewSpacingRule())
	engine.Register(NewFrequencyRule())
	return engine
}

type scheduleView struct {
	roster   *domain.Roster
	horizon  int
	schedule domain.Schedule
}

// NewScheduleView wraps a solved schedule for rule evaluation.
func NewScheduleView(roster *domain.Roster, horizon int, schedule domain.Schedule) domain.RuleView {
	return scheduleView{roster: roster, horizon: horizon, schedule: schedule}
}

func (v scheduleView) Roster() *domain.Roster    { return v.roster }
func (v scheduleView) Horizon() int              { return v.horizon }
func (v scheduleView) Schedule() domain.Schedule { return v.schedule }

// weeksOf returns, per person, the 1-based weeks they hold any slot.
func weeksOf(schedule domain.Schedule) map[string][]int {
	out := make(map[string][]int)
	for _, slot := range schedule.Weeks {
		seen := make(map[string]bool)
		for _, inst := range domain.Instruments {
			for _, name := range slot.Assignments[inst] {
				if !seen[name] {
					seen[name] = true
					out[name] = append(out[name], slot.Week)
				}
			}
		}
	}
	return out
}

// leadWeeksOf returns, per leader, the 1-based weeks they lead.
func leadWeeksOf(schedule domain.Schedule) map[string][]int {
	out := make(map[string][]int)
	for _, slot := range schedule.Weeks {
		if slot.Leader != "" {
			out[slot.Leader] = append(out[slot.Leader], slot.Week)
		}
	}
	return out
}
