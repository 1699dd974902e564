package finality_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/Fraser999/CasperLabs/finality"
	"github.com/Fraser999/CasperLabs/finality/sim"
)

func testWeights() WeightMap {
	return WeightMap{"A": 10, "B": 10, "C": 10}
}

func TestComputePanorama(t *testing.T) {
	b := sim.New()
	weights := testWeights()

	genesis := b.Genesis("genesis", weights)
	a1 := b.AddBlock("A", weights, genesis)
	b1 := b.AddBlock("B", weights, a1)
	a2 := b.AddBlock("A", weights, b1)

	index := map[Validator]int{"A": 0, "B": 1}

	meta, err := b.Lookup(a2)
	require.NoError(t, err)

	panorama, err := ComputePanorama(b, index, meta)
	require.NoError(t, err)

	a1Meta, err := b.Lookup(a1)
	require.NoError(t, err)
	b1Meta, err := b.Lookup(b1)
	require.NoError(t, err)

	require.Equal(t, meta.Rank, panorama[0])
	require.Equal(t, b1Meta.Rank, panorama[1])
	require.NotEqual(t, a1Meta.Rank, panorama[0]) // a2 shadows a1's own rank
}

func TestComputePanoramaIgnoresUnindexedValidators(t *testing.T) {
	b := sim.New()
	weights := testWeights()

	genesis := b.Genesis("genesis", weights)
	c1 := b.AddBlock("C", weights, genesis)
	a1 := b.AddBlock("A", weights, c1)

	// index deliberately omits C.
	index := map[Validator]int{"A": 0}

	meta, err := b.Lookup(a1)
	require.NoError(t, err)

	panorama, err := ComputePanorama(b, index, meta)
	require.NoError(t, err)
	require.Len(t, panorama, 1)
	require.Equal(t, meta.Rank, panorama[0])
}

func TestComputePanoramaSingleBlockIsItsOwnPanorama(t *testing.T) {
	b := sim.New()
	weights := testWeights()

	genesis := b.Genesis("genesis", weights)
	a1 := b.AddBlock("A", weights, genesis)

	index := map[Validator]int{"A": 0, "B": 1, "C": 2}

	meta, err := b.Lookup(a1)
	require.NoError(t, err)

	panorama, err := ComputePanorama(b, index, meta)
	require.NoError(t, err)
	require.Equal(t, []Rank{meta.Rank, 0, 0}, panorama)
}
