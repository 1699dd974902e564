package finality

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/Fraser999/CasperLabs/log"
)

// Detector orchestrates per-block updates to the voting matrix and decides
// when some descendant of the last finalized block has gathered quorum
// support (spec §4.5).
//
// Detector owns the only shared mutable state in this package (the current
// matrix and the quorum threshold derived for it); every access to that
// state happens inside the critical section guarded by sem.
type Detector struct {
	logger log.Log

	// sem is the single round-scoped permit required by spec §5: acquired
	// on entry to OnNewBlock (and held through any rebuild it triggers) and
	// by CurrentLFB, released on every exit path including failure. The
	// initial rebuild in NewDetector runs before the Detector is shared and
	// does not take it. A semaphore.Weighted(1) is used instead of a
	// plain sync.Mutex because its Acquire takes a context, which is the
	// idiomatic way to hold a lock across a suspension point while still
	// letting a caller cancel a round that has not yet started (spec §5's
	// cancellation contract: "the call runs to completion before
	// cancellation takes effect, or no visible state mutation occurred").
	sem *semaphore.Weighted

	rFTT float64

	lfb    BlockHash
	matrix *Matrix
	q      Weight
}

// NewDetector constructs a Detector rooted at initialLFB. rFTT must be in
// the open interval (0, 0.5); any other value is a precondition violation
// and NewDetector fails loudly rather than clamping it.
func NewDetector(ctx context.Context, dag DAG, initialLFB BlockHash, rFTT float64) (*Detector, error) {
	if err := (Config{RFTT: rFTT}).Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		logger: log.GetLogger().WithName("finality"),
		sem:    semaphore.NewWeighted(1),
		rFTT:   rFTT,
	}
	if err := d.rebuild(ctx, dag, initialLFB); err != nil {
		return nil, fmt.Errorf("initial rebuild at %s: %w", initialLFB.ShortString(), err)
	}
	return d, nil
}

// CurrentLFB returns the last finalized block this detector's state is
// rooted at. It acquires the same round-scoped permit as OnNewBlock/rebuild
// before reading d.lfb: lfb is written alongside matrix/q as part of a
// single rebuild, all three guarded by sem (spec §5), and CurrentLFB may be
// called from a different goroutine than the one driving OnNewBlock (e.g.
// finalizer.Loop's Run goroutine versus a caller feeding blocks directly).
func (d *Detector) CurrentLFB() BlockHash {
	_ = d.sem.Acquire(context.Background(), 1)
	defer d.sem.Release(1)
	return d.lfb
}

// OnNewBlock implements spec §4.5 steps 1–8. It returns (nil, nil) for
// both of the "not an error" outcomes in §7 (no vote on a branch of
// currentLFB; no committee reached quorum), and returns a non-nil error
// only when ctx ends before the permit is acquired or the DAG adapter
// itself failed.
func (d *Detector) OnNewBlock(ctx context.Context, dag DAG, block BlockMeta, currentLFB BlockHash) (*Finalized, error) {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer d.sem.Release(1)

	logger := d.logger.WithFields(block.Hash, log.Stringer("lfb", currentLFB))

	branch, votes, err := dag.VotedBranch(currentLFB, block.Hash)
	if err != nil {
		return nil, wrapLookup(block.Hash, err)
	}
	if !votes {
		logger.With().Debug("block does not vote for any child of the current LFB")
		return nil, nil
	}

	if idx, bonded := d.matrix.Index(block.Creator); bonded {
		panorama, err := ComputePanorama(dag, d.matrix.index, block)
		if err != nil {
			return nil, err
		}
		// Levels never decrease within a round: a block older than the one
		// the current row came from cannot lower it.
		for j, level := range d.matrix.Row(idx) {
			if level > panorama[j] {
				panorama[j] = level
			}
		}
		d.matrix.SetRow(idx, panorama)
		d.matrix.SetFirstLevelZeroVote(idx, branch, block.Rank)
	} else {
		// The block's creator bonded after the current LFB: no-op the
		// matrix update but still run the committee check (spec §4.5
		// step 3, resolving open question 3 in favor of the documented
		// reference behavior).
		logger.With().Info("block creator is not bonded at the current LFB", block.Creator.Field())
	}

	committee, found := FindCommittee(d.matrix, branch, allBonded(d.matrix.N()), d.q)
	if !found {
		return nil, nil
	}

	finalized := &Finalized{ConsensusValue: branch, Committee: committee, Weight: committee.Weight}

	if err := d.rebuild(ctx, dag, branch); err != nil {
		return nil, fmt.Errorf("rebuild at new LFB %s: %w", branch.ShortString(), err)
	}

	return finalized, nil
}

// rebuild implements spec §4.6. It does not acquire sem itself: OnNewBlock
// calls it with sem already held, and NewDetector calls it before the
// Detector is visible to any other goroutine. Zero-weight entries of the new
// LFB's weight map are dropped, so only bonded validators are indexed.
func (d *Detector) rebuild(ctx context.Context, dag DAG, newLFB BlockHash) error {
	meta, err := dag.Lookup(newLFB)
	if err != nil {
		return wrapLookup(newLFB, err)
	}

	bonded := make(WeightMap, len(meta.WeightMap))
	for v, w := range meta.WeightMap {
		if w > 0 {
			bonded[v] = w
		}
	}
	matrix := NewMatrix(bonded)
	q := DeriveQuorum(d.rFTT, bonded.Total())

	latest, err := dag.LatestMessages()
	if err != nil {
		return fmt.Errorf("latest messages: %w", err)
	}

	for v, msg := range latest {
		idx, ok := matrix.Index(v)
		if !ok {
			continue
		}
		branch, votes, err := dag.VotedBranch(newLFB, msg.Hash)
		if err != nil {
			return wrapLookup(msg.Hash, err)
		}
		if !votes {
			continue
		}

		levelZero, err := dag.LevelZeroMessages(v, branch)
		if err != nil {
			return fmt.Errorf("level-zero messages for %s: %w", v, err)
		}
		if len(levelZero) == 0 {
			continue
		}
		// Earliest (lowest-rank) message voting for branch, per the
		// "first-level-zero vote" semantics documented in spec §4.6 and
		// SPEC_FULL §4.6 (resolving the lastOption/"earliest" ambiguity
		// of design note open question 2 in favor of the invariant).
		earliest := levelZero[0]
		matrix.SetFirstLevelZeroVote(idx, branch, earliest.Rank)
	}

	for i, vote := range matrix.fzl {
		if vote == nil {
			continue
		}
		v := matrix.validators[i]
		msg, ok := latest[v]
		if !ok {
			continue
		}
		panorama, err := ComputePanorama(dag, matrix.index, msg)
		if err != nil {
			return err
		}
		matrix.SetRow(i, panorama)
	}

	d.matrix = matrix
	d.q = q
	d.lfb = newLFB

	return nil
}

// allBonded returns a mask that includes every validator tracked by the
// current round: the committee approximation spec §4.5 step 6 starts from
// ("the current approximation (bonded validators)").
func allBonded(n int) []bool {
	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	return mask
}
