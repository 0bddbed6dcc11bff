package core

import (
	"context"
	"strings"

	"rotacore/pkg/domain"
)

// NewExclusivityRule blocks people holding more than one non-vocal slot in a
// week, or more than one slot among the instruments that cannot be combined
// with singing.
func NewExclusivityRule() domain.Rule {
	return exclusivityRule{}
}

type exclusivityRule struct{}

func (exclusivityRule) Name() string { return RuleExclusivity }

func (exclusivityRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for _, slot := range view.Schedule().Weeks {
		for _, person := range view.Roster().People() {
			held := slot.InstrumentsFor(person.Name)
			var nonVocal, conflicting []string
			for _, inst := range held {
				if inst != domain.Vocals {
					nonVocal = append(nonVocal, string(inst))
				}
				for _, c := range domain.CannotSingWith {
					if inst == c {
						conflicting = append(conflicting, string(inst))
					}
				}
			}
			if len(nonVocal) > 1 {
				res.Violations = append(res.Violations, blockViolation(RuleExclusivity, person.Name, []int{slot.Week}, "plays several instruments: %s", strings.Join(nonVocal, ", ")))
			}
			if len(conflicting) > 1 {
				res.Violations = append(res.Violations, blockViolation(RuleExclusivity, person.Name, []int{slot.Week}, "holds incompatible slots: %s", strings.Join(conflicting, ", ")))
			}
		}
	}
	return res, nil
}
