// Package solver models constraint optimisation problems over bounded integer
// variables and solves them with a pseudo-boolean optimiser. Models are
// assembled once, then solved any number of times; every Solve call encodes
// the model into its own solver instance so a single Model can be shared by
// concurrent solves.
package solver

import (
	"fmt"
	"math"
)

// Var identifies a decision variable within a Model.
type Var int

// Term is a coefficient applied to a variable inside a linear expression.
type Term struct {
	Var  Var
	Coef int64
}

// LinearExpr is a sum of weighted variables plus a constant offset.
type LinearExpr struct {
	Terms  []Term
	Offset int64
}

// Sum returns the expression v1 + v2 + ... + vn.
func Sum(vars ...Var) LinearExpr {
	expr := LinearExpr{Terms: make([]Term, 0, len(vars))}
	for _, v := range vars {
		expr.Terms = append(expr.Terms, Term{Var: v, Coef: 1})
	}
	return expr
}

// Add appends v with coefficient 1.
func (e LinearExpr) Add(v Var) LinearExpr { return e.AddTerm(v, 1) }

// AddTerm appends coef*v.
func (e LinearExpr) AddTerm(v Var, coef int64) LinearExpr {
	terms := make([]Term, len(e.Terms), len(e.Terms)+1)
	copy(terms, e.Terms)
	return LinearExpr{Terms: append(terms, Term{Var: v, Coef: coef}), Offset: e.Offset}
}

// AddConstant shifts the expression by c.
func (e LinearExpr) AddConstant(c int64) LinearExpr {
	terms := make([]Term, len(e.Terms))
	copy(terms, e.Terms)
	return LinearExpr{Terms: terms, Offset: e.Offset + c}
}

// AddExpr appends scale*other.
func (e LinearExpr) AddExpr(other LinearExpr, scale int64) LinearExpr {
	terms := make([]Term, len(e.Terms), len(e.Terms)+len(other.Terms))
	copy(terms, e.Terms)
	for _, t := range other.Terms {
		terms = append(terms, Term{Var: t.Var, Coef: t.Coef * scale})
	}
	return LinearExpr{Terms: terms, Offset: e.Offset + other.Offset*scale}
}

const (
	negInf int64 = math.MinInt64 / 4
	posInf int64 = math.MaxInt64 / 4
)

// linear is lo <= sum(terms) <= hi with merged, non-zero coefficients.
type linear struct {
	terms []Term
	lo    int64
	hi    int64
}

// Model holds variables, constraints, an optional objective and ordering hints.
// A Model must not be mutated once it has been handed to Solve.
type Model struct {
	names      []string
	lo         []int64
	hi         []int64
	cons       []linear
	objective  []Term
	objOffset  int64
	minimize   bool
	strategies [][]Var
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// NewBoolVar allocates a 0/1 variable.
func (m *Model) NewBoolVar(name string) Var {
	return m.NewIntVar(0, 1, name)
}

// NewIntVar allocates an integer variable with domain [lo, hi].
func (m *Model) NewIntVar(lo, hi int64, name string) Var {
	if lo > hi {
		panic(fmt.Sprintf("solver: empty domain [%d,%d] for %s", lo, hi, name))
	}
	m.names = append(m.names, name)
	m.lo = append(m.lo, lo)
	m.hi = append(m.hi, hi)
	return Var(len(m.names) - 1)
}

// NumVars reports the number of allocated variables.
func (m *Model) NumVars() int { return len(m.names) }

// NumConstraints reports the number of linear constraints, including those
// produced by the higher level helpers.
func (m *Model) NumConstraints() int { return len(m.cons) }

// Name returns the label supplied when v was allocated.
func (m *Model) Name(v Var) string {
	m.mustOwn(v)
	return m.names[v]
}

// Bounds returns the initial domain of v.
func (m *Model) Bounds(v Var) (int64, int64) {
	m.mustOwn(v)
	return m.lo[v], m.hi[v]
}

// IsBool reports whether v has domain within [0, 1].
func (m *Model) IsBool(v Var) bool {
	m.mustOwn(v)
	return m.lo[v] >= 0 && m.hi[v] <= 1
}

func (m *Model) mustOwn(v Var) {
	if v < 0 || int(v) >= len(m.names) {
		panic(fmt.Sprintf("solver: variable %d not allocated by this model", v))
	}
}

// AddLinear enforces lo <= expr <= hi. Use math.MinInt64 / math.MaxInt64 for an
// open side.
func (m *Model) AddLinear(expr LinearExpr, lo, hi int64) {
	merged := make(map[Var]int64, len(expr.Terms))
	order := make([]Var, 0, len(expr.Terms))
	for _, t := range expr.Terms {
		m.mustOwn(t.Var)
		if _, seen := merged[t.Var]; !seen {
			order = append(order, t.Var)
		}
		merged[t.Var] += t.Coef
	}
	c := linear{lo: shift(lo, -expr.Offset), hi: shift(hi, -expr.Offset)}
	for _, v := range order {
		if coef := merged[v]; coef != 0 {
			c.terms = append(c.terms, Term{Var: v, Coef: coef})
		}
	}
	m.cons = append(m.cons, c)
}

func shift(bound, delta int64) int64 {
	switch {
	case bound <= negInf:
		return negInf
	case bound >= posInf:
		return posInf
	}
	return bound + delta
}

// AddLessOrEqual enforces expr <= rhs.
func (m *Model) AddLessOrEqual(expr LinearExpr, rhs int64) {
	m.AddLinear(expr, math.MinInt64, rhs)
}

// AddGreaterOrEqual enforces expr >= rhs.
func (m *Model) AddGreaterOrEqual(expr LinearExpr, rhs int64) {
	m.AddLinear(expr, rhs, math.MaxInt64)
}

// AddEquality enforces expr == rhs.
func (m *Model) AddEquality(expr LinearExpr, rhs int64) {
	m.AddLinear(expr, rhs, rhs)
}

// AddAtMostOne enforces that at most one of the boolean vars is true.
func (m *Model) AddAtMostOne(vars ...Var) {
	m.mustBeBool("AddAtMostOne", vars...)
	m.AddLinear(Sum(vars...), math.MinInt64, 1)
}

// AddExactlyOne enforces that exactly one of the boolean vars is true. An
// empty group makes the model infeasible.
func (m *Model) AddExactlyOne(vars ...Var) {
	m.mustBeBool("AddExactlyOne", vars...)
	m.AddLinear(Sum(vars...), 1, 1)
}

// AddImplication enforces a => b over boolean variables.
func (m *Model) AddImplication(a, b Var) {
	m.mustBeBool("AddImplication", a, b)
	m.AddLessOrEqual(Sum(a).AddTerm(b, -1), 0)
}

// AddMaxEquality enforces target == max(vars) for boolean operands.
func (m *Model) AddMaxEquality(target Var, vars []Var) {
	m.mustBeBool("AddMaxEquality", append([]Var{target}, vars...)...)
	for _, v := range vars {
		m.AddGreaterOrEqual(Sum(target).AddTerm(v, -1), 0)
	}
	m.AddLessOrEqual(Sum(target).AddExpr(Sum(vars...), -1), 0)
}

func (m *Model) mustBeBool(op string, vars ...Var) {
	for _, v := range vars {
		if !m.IsBool(v) {
			panic(fmt.Sprintf("solver: %s requires boolean variables, %s has domain [%d,%d]", op, m.names[v], m.lo[v], m.hi[v]))
		}
	}
}

// Minimize sets the objective. Calling it again replaces the previous objective.
func (m *Model) Minimize(expr LinearExpr) {
	merged := make(map[Var]int64, len(expr.Terms))
	var order []Var
	for _, t := range expr.Terms {
		m.mustOwn(t.Var)
		if _, seen := merged[t.Var]; !seen {
			order = append(order, t.Var)
		}
		merged[t.Var] += t.Coef
	}
	m.objective = m.objective[:0]
	for _, v := range order {
		if coef := merged[v]; coef != 0 {
			m.objective = append(m.objective, Term{Var: v, Coef: coef})
		}
	}
	m.objOffset = expr.Offset
	m.minimize = true
}

// HasObjective reports whether Minimize was called.
func (m *Model) HasObjective() bool { return m.minimize }

// AddDecisionStrategy records a group of variables to number, in order, ahead
// of any variable not named by an earlier group. The order steers the
// solver's tie-breaking; seeds other than zero shuffle each group.
func (m *Model) AddDecisionStrategy(vars []Var) {
	for _, v := range vars {
		m.mustOwn(v)
	}
	m.strategies = append(m.strategies, append([]Var(nil), vars...))
}

// Evaluate computes expr for a full assignment of values.
func Evaluate(expr LinearExpr, values func(Var) int64) int64 {
	total := expr.Offset
	for _, t := range expr.Terms {
		total += t.Coef * values(t.Var)
	}
	return total
}
