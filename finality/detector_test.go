package finality_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/Fraser999/CasperLabs/finality"
	"github.com/Fraser999/CasperLabs/finality/sim"
	"github.com/Fraser999/CasperLabs/log"
)

func TestDetector_SingleValidatorSelfFinalizes(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	weights := WeightMap{"A": 100}

	genesis := b.Genesis("genesis", weights)
	x := b.AddBlock("A", weights, genesis)

	d, err := NewDetector(ctx, b, genesis, 0.1) // q = ceil(0.6*100) = 60
	require.NoError(t, err)

	xMeta, err := b.Lookup(x)
	require.NoError(t, err)

	result, err := d.OnNewBlock(ctx, b, xMeta, genesis)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, x, result.ConsensusValue)
	require.Equal(t, Weight(100), result.Weight)
	require.Equal(t, x, d.CurrentLFB())
}

func TestDetector_ReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	weights := WeightMap{"A": 100}

	genesis := b.Genesis("genesis", weights)
	x := b.AddBlock("A", weights, genesis)

	d, err := NewDetector(ctx, b, genesis, 0.1)
	require.NoError(t, err)

	xMeta, err := b.Lookup(x)
	require.NoError(t, err)

	first, err := d.OnNewBlock(ctx, b, xMeta, genesis)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Replaying the exact same (block, currentLFB) pair again, even though
	// the detector's own state is already rooted past it, must produce the
	// same observable outcome: the state rebuilt at x holds no vote, so the
	// replay records A's vote for x afresh, reaches the same committee, and
	// rebuilds onto x again, which leaves the state as it was.
	second, err := d.OnNewBlock(ctx, b, xMeta, genesis)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, first.ConsensusValue, second.ConsensusValue)
	require.Equal(t, first.Weight, second.Weight)
	require.Equal(t, first.Committee, second.Committee)
	require.Equal(t, x, d.CurrentLFB())
}

// TestDetector_FinalizesAgainAfterRebuildOnNewLFB is spec §8 scenario 5:
// after a block finalizes X, a new block voting for X's child X' must
// finalize again once it reaches quorum, which only happens if rebuild
// correctly re-seeds fzl/the matrix against the new LFB rather than
// leaving stale round-scoped state behind (the "round isolation" property
// of spec §8).
func TestDetector_FinalizesAgainAfterRebuildOnNewLFB(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	weights := WeightMap{"A": 100}

	genesis := b.Genesis("genesis", weights)
	x := b.AddBlock("A", weights, genesis)

	d, err := NewDetector(ctx, b, genesis, 0.1)
	require.NoError(t, err)

	xMeta, err := b.Lookup(x)
	require.NoError(t, err)

	first, err := d.OnNewBlock(ctx, b, xMeta, genesis)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, x, first.ConsensusValue)
	require.Equal(t, x, d.CurrentLFB())

	// A further message from A voting for X's child X' must be processed
	// against the rebuilt state: fzl[A] re-seeded at (X', its rank) and
	// A's row recomputed by the panorama computer, not whatever was left
	// over from the round that finalized X.
	xPrime := b.AddBlock("A", weights, x)
	xPrimeMeta, err := b.Lookup(xPrime)
	require.NoError(t, err)

	second, err := d.OnNewBlock(ctx, b, xPrimeMeta, x)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.Equal(t, xPrime, second.ConsensusValue)
	require.Equal(t, Weight(100), second.Weight)
	require.Equal(t, xPrime, d.CurrentLFB())
}

func TestDetector_NoBondedValidatorsAlwaysReturnsNone(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	weights := WeightMap{}

	genesis := b.Genesis("genesis", weights)
	x := b.AddBlock("Z", weights, genesis)

	d, err := NewDetector(ctx, b, genesis, 0.1)
	require.NoError(t, err)

	xMeta, err := b.Lookup(x)
	require.NoError(t, err)

	result, err := d.OnNewBlock(ctx, b, xMeta, genesis)
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, genesis, d.CurrentLFB())
}

func TestDetector_UnbondedCreatorIsNoOpButStillChecksCommittee(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	weights := WeightMap{"A": 100}

	genesis := b.Genesis("genesis", weights)
	// x is created by an unbonded validator, but still descends from
	// genesis so A's later block can vote for it too.
	x := b.AddBlock("outsider", weights, genesis)

	d, err := NewDetector(ctx, b, genesis, 0.1)
	require.NoError(t, err)

	xMeta, err := b.Lookup(x)
	require.NoError(t, err)
	result, err := d.OnNewBlock(ctx, b, xMeta, genesis)
	require.NoError(t, err)
	require.Nil(t, result) // no bonded validator has voted yet

	a1 := b.AddBlock("A", weights, x)
	a1Meta, err := b.Lookup(a1)
	require.NoError(t, err)
	result, err = d.OnNewBlock(ctx, b, a1Meta, genesis)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, x, result.ConsensusValue)
	require.Equal(t, Weight(100), result.Weight)
}

func TestDetector_TwoOfThreeReachQuorumOnThirdBlock(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	weights := testWeights() // A, B, C at weight 10 each, q = 18

	genesis := b.Genesis("genesis", weights)

	d, err := NewDetector(ctx, b, genesis, 0.1)
	require.NoError(t, err)

	x := b.AddBlock("A", weights, genesis)
	blockB := b.AddBlock("B", weights, x)
	blockA2 := b.AddBlock("A", weights, blockB)

	xMeta, err := b.Lookup(x)
	require.NoError(t, err)
	result, err := d.OnNewBlock(ctx, b, xMeta, genesis)
	require.NoError(t, err)
	require.Nil(t, result) // A alone is weight 10, below q

	blockBMeta, err := b.Lookup(blockB)
	require.NoError(t, err)
	result, err = d.OnNewBlock(ctx, b, blockBMeta, genesis)
	require.NoError(t, err)
	require.Nil(t, result) // B sees A, but A's panorama does not yet see B

	blockA2Meta, err := b.Lookup(blockA2)
	require.NoError(t, err)
	result, err = d.OnNewBlock(ctx, b, blockA2Meta, genesis)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.Equal(t, x, result.ConsensusValue)
	require.Equal(t, Weight(20), result.Weight)
	require.Equal(t, []Validator{"A", "B"}, result.Committee.Members)
}

func TestDetector_DisjointBranchesNeitherReachesQuorum(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	weights := testWeights()

	genesis := b.Genesis("genesis", weights)
	x := b.AddBlock("A", weights, genesis)
	y := b.AddBlock("B", weights, genesis)

	d, err := NewDetector(ctx, b, genesis, 0.1)
	require.NoError(t, err)

	xMeta, err := b.Lookup(x)
	require.NoError(t, err)
	result, err := d.OnNewBlock(ctx, b, xMeta, genesis)
	require.NoError(t, err)
	require.Nil(t, result)

	yMeta, err := b.Lookup(y)
	require.NoError(t, err)
	result, err = d.OnNewBlock(ctx, b, yMeta, genesis)
	require.NoError(t, err)
	require.Nil(t, result)
	require.Equal(t, genesis, d.CurrentLFB())
}

func TestDetector_BlockNotDescendingFromLFBIsANoOp(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	weights := WeightMap{"A": 100}

	genesis := b.Genesis("genesis", weights)
	other := b.Genesis("other-root", weights)

	d, err := NewDetector(ctx, b, genesis, 0.1)
	require.NoError(t, err)

	otherMeta, err := b.Lookup(other)
	require.NoError(t, err)
	result, err := d.OnNewBlock(ctx, b, otherMeta, genesis)
	require.NoError(t, err)
	require.Nil(t, result)
}

func TestNewDetector_RejectsInvalidRFTT(t *testing.T) {
	ctx := context.Background()
	b := sim.New()
	genesis := b.Genesis("genesis", WeightMap{"A": 100})

	_, err := NewDetector(ctx, b, genesis, 0)
	require.ErrorIs(t, err, ErrInvalidRFTT)

	_, err = NewDetector(ctx, b, genesis, 0.5)
	require.ErrorIs(t, err, ErrInvalidRFTT)
}

func init() {
	log.SetupGlobal(log.NewNop())
}
