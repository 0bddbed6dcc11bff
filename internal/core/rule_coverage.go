package core

import (
	"context"

	"rotacore/pkg/domain"
)

// NewCoverageRule blocks weeks whose player counts fall outside each
// instrument's coverage bounds.
func NewCoverageRule() domain.Rule {
	return coverageRule{}
}

type coverageRule struct{}

func (coverageRule) Name() string { return RuleCoverage }

func (coverageRule) Evaluate(_ context.Context, view domain.RuleView) (domain.Result, error) {
	res := domain.Result{}
	for week := 1; week <= view.Horizon(); week++ {
		slot, ok := view.Schedule().Week(week)
		if !ok {
			res.Violations = append(res.Violations, blockViolation(RuleCoverage, "", []int{week}, "week %d has no assignments", week))
			continue
		}
		for _, inst := range domain.ScheduledInstruments {
			lo, hi := inst.Coverage()
			if n := len(slot.Assignments[inst]); n < lo || n > hi {
				res.Violations = append(res.Violations, blockViolation(RuleCoverage, "", []int{week}, "%s has %d players, want %d..%d", inst, n, lo, hi))
			}
		}
	}
	return res, nil
}
