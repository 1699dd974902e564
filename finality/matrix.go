package finality

// Matrix is the voting-matrix state of one finalization round: the
// validator<->index bijection, the per-validator weights, the N×N level
// matrix M, and the first-level-zero-vote array fzl (spec §3).
//
// Updates are whole-row replacements on M and single-slot writes on fzl; no
// method here ever exposes a partially written row, and the zero value of
// every entry (0 for M, nil for fzl) is itself a valid, fully-initialized
// state.
type Matrix struct {
	validators []Validator
	index      map[Validator]int
	weights    []Weight

	m   [][]Rank
	fzl []*Vote
}

// NewMatrix builds a fresh, zero-valued Matrix for the validator set and
// weights bonded at some LFB's post-state. The validator set is exactly the
// keys of weights (spec invariant 1: index is a bijection for exactly the
// validators with non-zero weight in the LFB post-state); NewMatrix does
// not filter zero-weight entries itself, callers are expected to pass only
// bonded validators, as Detector.rebuild does.
func NewMatrix(weights WeightMap) *Matrix {
	validators := SortValidators(keys(weights))
	n := len(validators)

	index := make(map[Validator]int, n)
	w := make([]Weight, n)
	m := make([][]Rank, n)
	for i, v := range validators {
		index[v] = i
		w[i] = weights[v]
		m[i] = make([]Rank, n)
	}

	return &Matrix{
		validators: validators,
		index:      index,
		weights:    w,
		m:          m,
		fzl:        make([]*Vote, n),
	}
}

func keys(m WeightMap) []Validator {
	out := make([]Validator, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	return out
}

// N is the number of bonded validators tracked by this round.
func (mx *Matrix) N() int { return len(mx.validators) }

// Validators returns the deterministically ordered validator set.
func (mx *Matrix) Validators() []Validator { return mx.validators }

// Index returns validator v's row/column index and whether it is bonded in
// this round.
func (mx *Matrix) Index(v Validator) (int, bool) {
	i, ok := mx.index[v]
	return i, ok
}

// Weight returns the weight of the validator at index i.
func (mx *Matrix) Weight(i int) Weight { return mx.weights[i] }

// Row returns a copy of M[i], the levels validator i has observed for every
// other validator.
func (mx *Matrix) Row(i int) []Rank {
	row := make([]Rank, len(mx.m[i]))
	copy(row, mx.m[i])
	return row
}

// Level returns M[i][j]: the highest level of any message by validator j
// that validator i has observed in its own latest message's panorama.
func (mx *Matrix) Level(i, j int) Rank { return mx.m[i][j] }

// SetRow atomically replaces M[i] with row. row must have length N(); this
// is the only mutator for M, matching spec §4.3's "whole-row replacement"
// contract and §3 invariant 2 (levels are monotone non-decreasing until
// the next rebuild) which callers must uphold by only ever passing a
// freshly computed panorama that dominates the previous row — SetRow
// itself does not enforce monotonicity so that a rebuild (which legitimately
// resets levels to 0) can reuse it.
func (mx *Matrix) SetRow(i int, row []Rank) {
	cp := make([]Rank, len(row))
	copy(cp, row)
	mx.m[i] = cp
}

// FirstLevelZeroVote returns validator i's first-level-zero vote, or nil if
// it has not yet voted in this round.
func (mx *Matrix) FirstLevelZeroVote(i int) *Vote {
	return mx.fzl[i]
}

// SetFirstLevelZeroVote implements spec §4.5 step 5 / §3 invariant 3:
// fzl[i], once set, changes only if the validator switches to a different
// consensus value, and the recorded rank is the earliest seen for the
// current value. Calling it with the same consensus value as the existing
// vote is a no-op, which is what makes replaying the same block through the
// detector twice idempotent.
func (mx *Matrix) SetFirstLevelZeroVote(i int, value BlockHash, rank Rank) {
	cur := mx.fzl[i]
	if cur != nil && cur.ConsensusValue == value {
		return
	}
	mx.fzl[i] = &Vote{ConsensusValue: value, DAGLevel: rank}
}
