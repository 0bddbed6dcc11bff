package core

import (
	"context"
	"fmt"

	"rotacore/pkg/domain"
)

// NewEligibilityRule blocks assignments to unknown people, to people who are
// unavailable that week, to instruments a person cannot play, and to
// instruments that are not scheduled at all.
func NewEligibilityRule() domain.Rule {
	return eligibilityRule{}
}

type eligibilityRule struct{}

func (eligibilityRule) Name() string { return RuleEligibility }

func (eligibilityRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	roster := view.Roster()
	for _, slot := range view.Schedule().Weeks {
		if slot.Week < 1 || slot.Week > view.Horizon() {
			res.Violations = append(res.Violations, blockViolation(RuleEligibility, "", []int{slot.Week}, "week %d is outside the %d-week horizon", slot.Week, view.Horizon()))
			continue
		}
		for inst, players := range slot.Assignments {
			for _, name := range players {
				person, ok := roster.Lookup(name)
				switch {
				case !ok:
					res.Violations = append(res.Violations, blockViolation(RuleEligibility, name, []int{slot.Week}, "unknown person assigned to %s", inst))
				case inst == domain.BassGuitar || !inst.Valid():
					res.Violations = append(res.Violations, blockViolation(RuleEligibility, name, []int{slot.Week}, "%s is not a scheduled instrument", inst))
				case !person.Available(slot.Week):
					res.Violations = append(res.Violations, blockViolation(RuleEligibility, name, []int{slot.Week}, "assigned to %s while unavailable", inst))
				case !person.Plays(inst):
					res.Violations = append(res.Violations, blockViolation(RuleEligibility, name, []int{slot.Week}, "assigned to %s without being able to play it", inst))
				}
			}
		}
	}
	return res, nil
}

func blockViolation(rule, person string, weeks []int, format string, args ...any) domain.Violation {
	return domain.Violation{
		Rule:     rule,
		Severity: domain.SeverityBlock,
		Message:  fmt.Sprintf(format, args...),
		Person:   person,
		Weeks:    weeks,
	}
}
