package core

import (
	"context"

	"rotacore/pkg/domain"
)

// NewLeadershipRule blocks weeks without a designated leader, leaders who are
// not flagged as such or do not hold their required slots, and leaders whose
// total leading weeks fall outside the allowed load.
func NewLeadershipRule() domain.Rule {
	return leadershipRule{}
}

type leadershipRule struct{}

func (leadershipRule) Name() string { return RuleLeadership }

func (leadershipRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	roster := view.Roster()
	for _, slot := range view.Schedule().Weeks {
		if slot.Leader == "" {
			res.Violations = append(res.Violations, blockViolation(RuleLeadership, "", []int{slot.Week}, "week %d has no leader", slot.Week))
			continue
		}
		person, ok := roster.Lookup(slot.Leader)
		if !ok || !person.IsLeader {
			res.Violations = append(res.Violations, blockViolation(RuleLeadership, slot.Leader, []int{slot.Week}, "is not a designated leader"))
			continue
		}
		held := make(map[domain.Instrument]bool)
		for _, inst := range slot.InstrumentsFor(person.Name) {
			held[inst] = true
		}
		if !held[domain.Vocals] {
			res.Violations = append(res.Violations, blockViolation(RuleLeadership, person.Name, []int{slot.Week}, "leads without singing"))
		}
		switch {
		case person.Plays(domain.AcousticGuitar):
			if !held[domain.AcousticGuitar] {
				res.Violations = append(res.Violations, blockViolation(RuleLeadership, person.Name, []int{slot.Week}, "leads without playing %s", domain.AcousticGuitar))
			}
		case person.Plays(domain.Piano):
			if !held[domain.Piano] {
				res.Violations = append(res.Violations, blockViolation(RuleLeadership, person.Name, []int{slot.Week}, "leads without playing %s", domain.Piano))
			}
		}
	}

	led := leadWeeksOf(view.Schedule())
	for _, name := range roster.Leaders() {
		if n := len(led[name]); n < MinLeadWeeks || n > MaxLeadWeeks {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     RuleLeaderLoad,
				Severity: domain.SeverityBlock,
				Message:  leadLoadMessage(n),
				Person:   name,
				Weeks:    led[name],
			})
		}
	}
	return res, nil
}

func leadLoadMessage(n int) string {
	if n < MinLeadWeeks {
		return "never leads"
	}
	return "leads too often"
}
