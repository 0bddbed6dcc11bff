package core

import (
	"context"
	"fmt"

	"rotacore/pkg/domain"
)

// NewSpacingRule warns about people scheduled, and leaders leading, in weeks
// closer together than they asked for.
func NewSpacingRule() domain.Rule {
	return spacingRule{}
}

type spacingRule struct{}

func (spacingRule) Name() string { return RulePersonSpacing }

func (spacingRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	roster := view.Roster()
	scheduled := weeksOf(view.Schedule())
	led := leadWeeksOf(view.Schedule())
	for _, person := range roster.People() {
		for _, pair := range closePairs(scheduled[person.Name], person.Spacing) {
			res.Violations = append(res.Violations, spacingEvidence(SpacingViolation{Person: person.Name, First: pair[0], Second: pair[1]}, person.Spacing))
		}
		if person.IsLeader {
			for _, pair := range closePairs(led[person.Name], LeadGap-1) {
				res.Violations = append(res.Violations, spacingEvidence(SpacingViolation{Person: person.Name, Leader: true, First: pair[0], Second: pair[1]}, person.Spacing))
			}
		}
	}
	return res, nil
}

// closePairs returns every pair of weeks at most maxGap apart. Weeks must be
// ascending.
func closePairs(weeks []int, maxGap int) [][2]int {
	var out [][2]int
	for i := range weeks {
		for j := i + 1; j < len(weeks) && weeks[j]-weeks[i] <= maxGap; j++ {
			out = append(out, [2]int{weeks[i], weeks[j]})
		}
	}
	return out
}

// NewFrequencyRule logs people scheduled more or less often than requested.
func NewFrequencyRule() domain.Rule {
	return frequencyRule{}
}

type frequencyRule struct{}

func (frequencyRule) Name() string { return RuleFrequency }

func (frequencyRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	scheduled := weeksOf(view.Schedule())
	for _, person := range view.Roster().People() {
		got := len(scheduled[person.Name])
		if got == person.Frequency {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     RuleFrequency,
			Severity: domain.SeverityLog,
			Message:  fmt.Sprintf("scheduled %d weeks, asked for %d", got, person.Frequency),
			Person:   person.Name,
			Weeks:    scheduled[person.Name],
		})
	}
	return res, nil
}
