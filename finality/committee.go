package finality

// Committee is a mask-stable subset of validators, each of whom observes at
// least q weight of first-level-zero votes for the candidate, together with
// the committee's total weight.
type Committee struct {
	Members []Validator
	Weight  Weight
}

// FindCommittee runs the committee-finder pruning fixed point of spec
// §4.4 against candidate, starting from committeeApprox (the boolean mask
// of "approximately supporting" validators, indexed the same way as m).
// It returns (Committee{}, false) when no quorum subset survives.
//
// Each pass is evaluated against a single snapshot of the mask: both which
// validators are considered, and whose first-level-zero votes count toward
// a given validator's vote_sum, are read from the mask as it stood at the
// start of the pass. This is what makes the fixed point independent of
// iteration order (spec §4.4 tie-break note) — a synchronous pass instead
// of an in-place, order-dependent one. The pass itself is an iterative
// "changed" loop rather than recursion (spec §9: recursive tail-call
// pruning is re-architected as iteration throughout this package).
func FindCommittee(m *Matrix, candidate BlockHash, committeeApprox []bool, q Weight) (Committee, bool) {
	n := m.N()

	cur := make([]bool, n)
	copy(cur, committeeApprox)
	if !any(cur) {
		return Committee{}, false
	}

	for {
		next := make([]bool, n)
		var total Weight
		removed := false

		for i := 0; i < n; i++ {
			if !cur[i] {
				continue
			}

			voteSum := voteSumObservedBy(m, candidate, i, cur)
			if voteSum >= q {
				next[i] = true
				total += m.Weight(i)
			} else {
				removed = true
			}
		}

		if removed {
			if total < q {
				return Committee{}, false
			}
			cur = next
			continue
		}

		return Committee{Members: membersOf(m, cur), Weight: total}, true
	}
}

// voteSumObservedBy computes vote_sum(i) = Σ { weight[j] | fzl[j] = (candidate, level) ∧ level ≤ M[i][j] },
// restricted to validators j still present in mask.
func voteSumObservedBy(m *Matrix, candidate BlockHash, i int, mask []bool) Weight {
	var sum Weight
	for j := 0; j < m.N(); j++ {
		if !mask[j] {
			continue
		}
		vote := m.FirstLevelZeroVote(j)
		if vote == nil || vote.ConsensusValue != candidate {
			continue
		}
		if vote.DAGLevel <= m.Level(i, j) {
			sum += m.Weight(j)
		}
	}
	return sum
}

func any(mask []bool) bool {
	for _, b := range mask {
		if b {
			return true
		}
	}
	return false
}

func membersOf(m *Matrix, mask []bool) []Validator {
	validators := m.Validators()
	members := make([]Validator, 0, len(validators))
	for i, v := range validators {
		if mask[i] {
			members = append(members, v)
		}
	}
	return members
}
