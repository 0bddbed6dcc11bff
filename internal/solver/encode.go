package solver

import (
	"math/bits"
	"math/rand"

	pbsat "github.com/crillab/gophersat/solver"
)

// bitLit is one bit of a variable's binary expansion, possibly negated.
type bitLit struct {
	bit int
	neg bool
}

type bitTerm struct {
	lit    bitLit
	weight int64
}

type atLeast struct {
	terms []bitTerm
	rhs   int64
}

// encoding maps a Model onto pseudo-boolean rows. Variable v takes the value
// lo[v] + sum(2^k * bit[first[v]+k]) for k < width[v].
type encoding struct {
	m     *Model
	first []int
	width []int
	nbits int

	rows       []atLeast
	infeasible bool

	costTerms []bitTerm
	costConst int64

	// satVar is the 1-based solver variable of each bit, or 0 for bits that no
	// row mentions. Those take fixed[bit].
	satVar []int
	fixed  []bool
	nvars  int
}

func encode(m *Model, seed int64) *encoding {
	e := &encoding{
		m:     m,
		first: make([]int, len(m.names)),
		width: make([]int, len(m.names)),
	}
	for v := range m.names {
		span := uint64(m.hi[v] - m.lo[v])
		e.first[v] = e.nbits
		e.width[v] = bits.Len64(span)
		e.nbits += e.width[v]
		if w := e.width[v]; w > 0 && span != 1<<w-1 {
			e.addRow(e.expand(Term{Var: Var(v), Coef: -1}, nil), -int64(span))
		}
	}
	for _, c := range m.cons {
		var constant int64
		var terms []bitTerm
		for _, t := range c.terms {
			constant += t.Coef * m.lo[t.Var]
			terms = e.expand(t, terms)
		}
		if c.lo > negInf {
			e.addRow(terms, c.lo-constant)
		}
		if c.hi < posInf {
			e.addRow(negate(terms), constant-c.hi)
		}
	}
	e.encodeObjective()
	e.number(rand.New(rand.NewSource(seed)), seed != 0)
	return e
}

// expand appends coef*v as weighted bits, leaving lo[v]*coef to the caller.
func (e *encoding) expand(t Term, dst []bitTerm) []bitTerm {
	for k := 0; k < e.width[t.Var]; k++ {
		dst = append(dst, bitTerm{lit: bitLit{bit: e.first[t.Var] + k}, weight: t.Coef << k})
	}
	return dst
}

func negate(terms []bitTerm) []bitTerm {
	out := make([]bitTerm, len(terms))
	for i, t := range terms {
		out[i] = bitTerm{lit: t.lit, weight: -t.weight}
	}
	return out
}

// normalize rewrites negative weights onto negated literals: w*b == w + |w|*!b.
func normalize(terms []bitTerm) ([]bitTerm, int64) {
	var shift int64
	out := make([]bitTerm, 0, len(terms))
	for _, t := range terms {
		switch {
		case t.weight < 0:
			shift += t.weight
			out = append(out, bitTerm{lit: bitLit{bit: t.lit.bit, neg: !t.lit.neg}, weight: -t.weight})
		case t.weight > 0:
			out = append(out, t)
		}
	}
	return out, shift
}

// addRow records sum(terms) >= rhs. Trivially true rows are dropped and an
// unreachable one marks the model infeasible.
func (e *encoding) addRow(terms []bitTerm, rhs int64) {
	pos, shift := normalize(terms)
	rhs -= shift
	if rhs <= 0 {
		return
	}
	var total int64
	for _, t := range pos {
		total += t.weight
	}
	if total < rhs {
		e.infeasible = true
		return
	}
	e.rows = append(e.rows, atLeast{terms: pos, rhs: rhs})
}

func (e *encoding) encodeObjective() {
	if !e.m.minimize {
		return
	}
	var terms []bitTerm
	for _, t := range e.m.objective {
		e.costConst += t.Coef * e.m.lo[t.Var]
		terms = e.expand(t, terms)
	}
	pos, shift := normalize(terms)
	e.costTerms = pos
	e.costConst += shift
}

// number assigns solver variables to the bits used by some row, walking the
// variables in decision-strategy order. A non-zero seed shuffles each strategy
// group and the row order, which changes the solver's tie-breaking.
func (e *encoding) number(rng *rand.Rand, shuffle bool) {
	used := make([]bool, e.nbits)
	for _, r := range e.rows {
		for _, t := range r.terms {
			used[t.lit.bit] = true
		}
	}

	e.satVar = make([]int, e.nbits)
	e.fixed = make([]bool, e.nbits)
	placed := make([]bool, len(e.m.names))
	visit := func(v Var) {
		if placed[v] {
			return
		}
		placed[v] = true
		for k := 0; k < e.width[v]; k++ {
			if b := e.first[v] + k; used[b] {
				e.nvars++
				e.satVar[b] = e.nvars
			}
		}
	}
	for _, group := range e.m.strategies {
		order := append([]Var(nil), group...)
		if shuffle {
			rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		}
		for _, v := range order {
			visit(v)
		}
	}
	for v := range e.m.names {
		visit(Var(v))
	}
	if shuffle {
		rng.Shuffle(len(e.rows), func(i, j int) { e.rows[i], e.rows[j] = e.rows[j], e.rows[i] })
	}

	// Bits outside every row only matter to the objective; pin them to
	// whichever value costs less and drop them from the cost function.
	kept := e.costTerms[:0:0]
	for _, t := range e.costTerms {
		if e.satVar[t.lit.bit] != 0 {
			kept = append(kept, t)
			continue
		}
		e.fixed[t.lit.bit] = t.lit.neg
	}
	e.costTerms = kept
}

func (e *encoding) lit(l bitLit) int {
	v := e.satVar[l.bit]
	if l.neg {
		return -v
	}
	return v
}

// problem builds the pseudo-boolean problem. It must only be called when the
// encoding has rows.
func (e *encoding) problem() *pbsat.Problem {
	constrs := make([]pbsat.PBConstr, len(e.rows))
	for i, r := range e.rows {
		lits := make([]int, len(r.terms))
		weights := make([]int, len(r.terms))
		for j, t := range r.terms {
			lits[j] = e.lit(t.lit)
			weights[j] = int(t.weight)
		}
		constrs[i] = pbsat.PBConstr{Lits: lits, Weights: weights, AtLeast: int(r.rhs)}
	}
	pb := pbsat.ParsePBConstrs(constrs)

	lits := make([]pbsat.Lit, 0, len(e.costTerms))
	weights := make([]int, 0, len(e.costTerms))
	for _, t := range e.costTerms {
		lits = append(lits, pbsat.IntToLit(int32(e.lit(t.lit))))
		weights = append(weights, int(t.weight))
	}
	if len(lits) == 0 {
		// Every assignment is optimal; a unit cost on the first variable
		// keeps the solver in optimisation mode.
		lits = append(lits, pbsat.IntToLit(1))
		weights = append(weights, 1)
	}
	pb.SetCostFunc(lits, weights)
	return pb
}

// values decodes a solver model into one value per model variable. A nil
// model decodes the pinned bits alone.
func (e *encoding) values(model []bool) []int64 {
	out := make([]int64, len(e.m.names))
	for v := range e.m.names {
		val := e.m.lo[v]
		for k := 0; k < e.width[v]; k++ {
			b := e.first[v] + k
			set := e.fixed[b]
			if sv := e.satVar[b]; sv != 0 {
				set = model[sv-1]
			}
			if set {
				val += 1 << k
			}
		}
		out[v] = val
	}
	return out
}
