package solver

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestSolveFindsFeasibleAssignment(t *testing.T) {
	m := NewModel()
	a, b, c := m.NewBoolVar("a"), m.NewBoolVar("b"), m.NewBoolVar("c")
	m.AddExactlyOne(a, b, c)
	m.AddLessOrEqual(Sum(a), 0)
	m.AddImplication(b, c)

	resp := Solve(context.Background(), m, Params{})
	if resp.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s", resp.Status)
	}
	if resp.BoolValue(a) || resp.BoolValue(b) || !resp.BoolValue(c) {
		t.Fatalf("unexpected assignment a=%d b=%d c=%d", resp.Value(a), resp.Value(b), resp.Value(c))
	}
}

func TestSolveProvesInfeasibility(t *testing.T) {
	m := NewModel()
	a, b := m.NewBoolVar("a"), m.NewBoolVar("b")
	m.AddExactlyOne(a, b)
	m.AddLinear(Sum(a, b), 2, 2)

	resp := Solve(context.Background(), m, Params{})
	if resp.Status != StatusInfeasible {
		t.Fatalf("expected infeasible, got %s", resp.Status)
	}
	if resp.HasSolution() {
		t.Fatalf("infeasible response must not carry values")
	}
}

func TestSolveEmptyExactlyOneIsInfeasible(t *testing.T) {
	m := NewModel()
	m.NewBoolVar("unused")
	m.AddExactlyOne()
	if resp := Solve(context.Background(), m, Params{}); resp.Status != StatusInfeasible {
		t.Fatalf("expected infeasible, got %s", resp.Status)
	}
}

func TestSolveMinimizesObjective(t *testing.T) {
	m := NewModel()
	x := m.NewIntVar(0, 10, "x")
	y := m.NewIntVar(0, 10, "y")
	m.AddGreaterOrEqual(Sum(x, y), 7)
	m.AddLessOrEqual(Sum(x).AddTerm(y, -1), 1)
	// minimise 3x + 2y - 4 subject to x + y >= 7, x - y <= 1
	m.Minimize(LinearExpr{Offset: -4}.AddTerm(x, 3).AddTerm(y, 2))

	resp := Solve(context.Background(), m, Params{Seed: 3})
	if resp.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s", resp.Status)
	}
	if resp.Objective != 10 {
		t.Fatalf("expected objective 10, got %d (x=%d y=%d)", resp.Objective, resp.Value(x), resp.Value(y))
	}
	if got := Evaluate(LinearExpr{Offset: -4}.AddTerm(x, 3).AddTerm(y, 2), resp.Value); got != resp.Objective {
		t.Fatalf("objective mismatch: evaluated %d, reported %d", got, resp.Objective)
	}
}

func TestSolveMaximizesThroughNegativeWeights(t *testing.T) {
	m := NewModel()
	vars := []Var{m.NewBoolVar("a"), m.NewBoolVar("b"), m.NewBoolVar("c")}
	m.AddAtMostOne(vars[0], vars[1])
	m.Minimize(LinearExpr{}.AddExpr(Sum(vars...), -1))

	resp := Solve(context.Background(), m, Params{})
	if resp.Status != StatusOptimal || resp.Objective != -2 {
		t.Fatalf("expected optimal objective -2, got %s %d", resp.Status, resp.Objective)
	}
}

func TestAddMaxEqualityTracksOperands(t *testing.T) {
	m := NewModel()
	target := m.NewBoolVar("target")
	ops := []Var{m.NewBoolVar("p"), m.NewBoolVar("q")}
	m.AddMaxEquality(target, ops)
	m.AddEquality(Sum(ops[1]), 1)
	m.Minimize(Sum(target))

	resp := Solve(context.Background(), m, Params{})
	if !resp.BoolValue(target) {
		t.Fatalf("target must be 1 when an operand is 1")
	}

	m2 := NewModel()
	t2 := m2.NewBoolVar("target")
	ops2 := []Var{m2.NewBoolVar("p"), m2.NewBoolVar("q")}
	m2.AddMaxEquality(t2, ops2)
	m2.Minimize(LinearExpr{}.AddTerm(t2, -1))
	resp2 := Solve(context.Background(), m2, Params{})
	if !resp2.BoolValue(t2) {
		t.Fatalf("maximising target should force an operand on")
	}
	if !resp2.BoolValue(ops2[0]) && !resp2.BoolValue(ops2[1]) {
		t.Fatalf("target=1 without any operand set")
	}
}

func TestModelPanicsOnNonBooleanHelpers(t *testing.T) {
	m := NewModel()
	x := m.NewIntVar(0, 3, "x")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for integer operand")
		}
	}()
	m.AddAtMostOne(x)
}

func TestModelPanicsOnForeignVariable(t *testing.T) {
	m := NewModel()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unallocated variable")
		}
	}()
	m.AddEquality(Sum(Var(4)), 1)
}

func TestImprovementLimitStopsSearch(t *testing.T) {
	m := NewModel()
	var vars []Var
	for i := 0; i < 24; i++ {
		vars = append(vars, m.NewBoolVar("v"))
	}
	m.AddLinear(Sum(vars...), 12, 12)
	obj := LinearExpr{}
	for i, v := range vars {
		obj = obj.AddTerm(v, int64(i%5)-2)
	}
	m.Minimize(obj)

	resp := Solve(context.Background(), m, Params{ImprovementLimit: 1})
	if !resp.Status.HasSolution() {
		t.Fatalf("a limited search still keeps its solution, got %s", resp.Status)
	}
	if resp.Improvements > 1 {
		t.Fatalf("expected at most one improvement, got %d", resp.Improvements)
	}
	if got := Evaluate(obj, resp.Value); got != resp.Objective {
		t.Fatalf("objective mismatch: evaluated %d, reported %d", got, resp.Objective)
	}
}

func TestSolveProvesPigeonholeInfeasible(t *testing.T) {
	// five leaders must each lead at least once, one per week, over four weeks
	m := NewModel()
	lead := make([][]Var, 5)
	for l := range lead {
		for w := 0; w < 4; w++ {
			lead[l] = append(lead[l], m.NewBoolVar("lead"))
		}
		m.AddLinear(Sum(lead[l]...), 1, 2)
	}
	for w := 0; w < 4; w++ {
		week := make([]Var, len(lead))
		for l := range lead {
			week[l] = lead[l][w]
		}
		m.AddExactlyOne(week...)
	}
	m.Minimize(Sum(lead[0]...))

	resp := Solve(context.Background(), m, Params{TimeLimit: 10 * time.Second})
	if resp.Status != StatusInfeasible {
		t.Fatalf("expected infeasible, got %s", resp.Status)
	}
}

func TestSolveEncodesShiftedIntegerDomains(t *testing.T) {
	m := NewModel()
	x := m.NewIntVar(-3, 2, "x")
	y := m.NewIntVar(4, 9, "y")
	m.AddEquality(Sum(x, y), 5)
	m.Minimize(LinearExpr{}.AddTerm(x, -1).AddTerm(y, 2))

	resp := Solve(context.Background(), m, Params{})
	if resp.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s", resp.Status)
	}
	// y >= 4 forces x <= 1, so the cheapest pair is x=1, y=4.
	if resp.Value(x) != 1 || resp.Value(y) != 4 || resp.Objective != 7 {
		t.Fatalf("unexpected solution x=%d y=%d objective %d", resp.Value(x), resp.Value(y), resp.Objective)
	}
	if lo, hi := m.Bounds(y); resp.Value(y) < lo || resp.Value(y) > hi {
		t.Fatalf("value outside domain")
	}
}

func TestSolvePinsUnconstrainedVariables(t *testing.T) {
	m := NewModel()
	free := m.NewIntVar(0, 6, "free")
	bonus := m.NewBoolVar("bonus")
	a, b := m.NewBoolVar("a"), m.NewBoolVar("b")
	m.AddExactlyOne(a, b)
	m.Minimize(Sum(free).AddTerm(bonus, -3).Add(a))

	resp := Solve(context.Background(), m, Params{Seed: 7})
	if resp.Status != StatusOptimal {
		t.Fatalf("expected optimal, got %s", resp.Status)
	}
	if resp.Value(free) != 0 || !resp.BoolValue(bonus) || resp.BoolValue(a) || resp.Objective != -3 {
		t.Fatalf("unexpected solution free=%d bonus=%d a=%d objective %d", resp.Value(free), resp.Value(bonus), resp.Value(a), resp.Objective)
	}
}

func TestSolveWithoutConstraints(t *testing.T) {
	m := NewModel()
	x := m.NewIntVar(2, 5, "x")
	m.Minimize(LinearExpr{Offset: 1}.AddTerm(x, -1))

	resp := Solve(context.Background(), m, Params{})
	if resp.Status != StatusOptimal || resp.Value(x) != 5 || resp.Objective != -4 {
		t.Fatalf("expected x=5 objective -4, got %s x=%d objective %d", resp.Status, resp.Value(x), resp.Objective)
	}
}

func TestCancelledContextStopsSearch(t *testing.T) {
	m := NewModel()
	var vars []Var
	for i := 0; i < 40; i++ {
		vars = append(vars, m.NewIntVar(0, 5, "v"))
	}
	m.AddLinear(Sum(vars...), 100, 100)
	m.Minimize(Sum(vars[:20]...).AddExpr(Sum(vars[20:]...), -1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := Solve(ctx, m, Params{})
	if resp.Status == StatusOptimal || resp.Status == StatusInfeasible {
		t.Fatalf("cancelled solve cannot prove anything, got %s", resp.Status)
	}
}

func TestSeedDeterminism(t *testing.T) {
	build := func() (*Model, []Var) {
		m := NewModel()
		var vars []Var
		for i := 0; i < 8; i++ {
			vars = append(vars, m.NewBoolVar("v"))
		}
		m.AddLinear(Sum(vars...), 3, 3)
		m.AddDecisionStrategy(vars)
		return m, vars
	}
	m, vars := build()
	first := Solve(context.Background(), m, Params{Seed: 42})
	second := Solve(context.Background(), m, Params{Seed: 42})
	for _, v := range vars {
		if first.Value(v) != second.Value(v) {
			t.Fatalf("same seed produced different values for var %d", v)
		}
	}
	if first.Seed != 42 {
		t.Fatalf("response should echo seed, got %d", first.Seed)
	}
}

func TestConcurrentSolvesShareModel(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := NewModel()
	var vars []Var
	for i := 0; i < 10; i++ {
		vars = append(vars, m.NewBoolVar("v"))
	}
	m.AddLinear(Sum(vars...), 4, 6)
	m.Minimize(Sum(vars...))
	m.AddDecisionStrategy(vars)

	var wg sync.WaitGroup
	results := make([]*Response, 8)
	for i := range results {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			results[seed] = Solve(context.Background(), m, Params{Seed: int64(seed), TimeLimit: 5 * time.Second})
		}(i)
	}
	wg.Wait()
	for i, resp := range results {
		if resp.Status != StatusOptimal || resp.Objective != 4 {
			t.Fatalf("seed %d: expected optimal objective 4, got %s %d", i, resp.Status, resp.Objective)
		}
	}
	lo, hi := m.Bounds(vars[0])
	if lo != 0 || hi != 1 {
		t.Fatalf("solve must not mutate model bounds, got [%d,%d]", lo, hi)
	}
}

func TestStatusTextRoundTrip(t *testing.T) {
	raw, err := json.Marshal(map[string]Status{"s": StatusFeasible})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"s":"feasible"}` {
		t.Fatalf("unexpected encoding %s", raw)
	}
	var decoded map[string]Status
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["s"] != StatusFeasible {
		t.Fatalf("expected feasible, got %s", decoded["s"])
	}
	var s Status
	if err := s.UnmarshalText([]byte("bogus")); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
