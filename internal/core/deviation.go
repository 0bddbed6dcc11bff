package core

import "rotacore/internal/solver"

// AddBoundedDeviation allocates dev in [0, bound] and constrains it to equal
// |target - expr|. The two lower sides are the usual absolute value
// linearisation; a sign indicator closes the upper side so dev stays exact even
// when it carries no objective weight.
func AddBoundedDeviation(m *solver.Model, expr solver.LinearExpr, target, bound int64, name string) solver.Var {
	dev := m.NewIntVar(0, bound, name)
	over := m.NewBoolVar(name + ".over")
	big := 2 * bound

	// dev >= target - expr
	m.AddGreaterOrEqual(solver.Sum(dev).AddExpr(expr, 1), target)
	// dev >= expr - target
	m.AddGreaterOrEqual(solver.Sum(dev).AddExpr(expr, -1), -target)
	// dev <= target - expr + big*over
	m.AddLessOrEqual(solver.Sum(dev).AddExpr(expr, 1).AddTerm(over, -big), target)
	// dev <= expr - target + big*(1-over)
	m.AddLessOrEqual(solver.Sum(dev).AddExpr(expr, -1).AddTerm(over, big), big-target)
	return dev
}
