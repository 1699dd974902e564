// Package sim is a small, deterministic DAG builder used by the finality
// package's own tests and by downstream tests that want to exercise the
// detector without a real block store. It is grounded in the teacher's
// tortoise/sim package, trimmed down to exactly the four DAG-adapter
// operations finality.DAG requires.
package sim

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/Fraser999/CasperLabs/finality"
)

type record struct {
	meta       finality.BlockMeta
	mainParent finality.BlockHash
}

// Builder incrementally constructs a justification DAG and implements
// finality.DAG directly over it, so it can be handed straight to
// finality.NewDetector/OnNewBlock in tests.
type Builder struct {
	counter uint64

	blocks    map[finality.BlockHash]record
	latest    map[finality.Validator]finality.BlockHash
	byCreator map[finality.Validator][]finality.BlockHash
}

// New returns an empty Builder.
func New() *Builder {
	return &Builder{
		blocks:    make(map[finality.BlockHash]record),
		latest:    make(map[finality.Validator]finality.BlockHash),
		byCreator: make(map[finality.Validator][]finality.BlockHash),
	}
}

// Genesis adds a root block with no parent, carrying weights as the weight
// map the detector will read when this block is used as an LFB. It returns
// the new block's hash.
func (b *Builder) Genesis(creator finality.Validator, weights finality.WeightMap) finality.BlockHash {
	return b.add(creator, weights, finality.BlockHash{}, nil, 0)
}

// AddBlock adds a block created by creator whose main parent is mainParent
// (and which additionally justifies extra, if any), carrying weights as its
// post-state weight map. Its rank is one more than the highest rank among
// mainParent and extra.
func (b *Builder) AddBlock(creator finality.Validator, weights finality.WeightMap, mainParent finality.BlockHash, extra ...finality.BlockHash) finality.BlockHash {
	rank := b.rankOf(mainParent)
	for _, j := range extra {
		if r := b.rankOf(j); r > rank {
			rank = r
		}
	}
	return b.add(creator, weights, mainParent, extra, rank+1)
}

func (b *Builder) rankOf(hash finality.BlockHash) finality.Rank {
	rec, ok := b.blocks[hash]
	if !ok {
		return 0
	}
	return rec.meta.Rank
}

func (b *Builder) add(creator finality.Validator, weights finality.WeightMap, mainParent finality.BlockHash, extra []finality.BlockHash, rank finality.Rank) finality.BlockHash {
	hash := b.nextHash()

	justifications := make([]finality.BlockHash, 0, len(extra)+1)
	if !mainParent.IsZero() {
		justifications = append(justifications, mainParent)
	}
	justifications = append(justifications, extra...)

	b.blocks[hash] = record{
		meta: finality.BlockMeta{
			Hash:           hash,
			Creator:        creator,
			Rank:           rank,
			WeightMap:      weights,
			Justifications: justifications,
		},
		mainParent: mainParent,
	}
	b.latest[creator] = hash
	b.byCreator[creator] = append(b.byCreator[creator], hash)
	return hash
}

func (b *Builder) nextHash() finality.BlockHash {
	b.counter++
	var h finality.BlockHash
	binary.BigEndian.PutUint64(h[:8], b.counter)
	return h
}

// Lookup implements finality.DAG.
func (b *Builder) Lookup(hash finality.BlockHash) (finality.BlockMeta, error) {
	rec, ok := b.blocks[hash]
	if !ok {
		return finality.BlockMeta{}, fmt.Errorf("sim: unknown block %s", hash.ShortString())
	}
	return rec.meta, nil
}

// LatestMessages implements finality.DAG.
func (b *Builder) LatestMessages() (map[finality.Validator]finality.BlockMeta, error) {
	out := make(map[finality.Validator]finality.BlockMeta, len(b.latest))
	for v, hash := range b.latest {
		out[v] = b.blocks[hash].meta
	}
	return out, nil
}

// VotedBranch implements finality.DAG by walking the main-parent chain from
// block back toward fromLFB; the child is whichever block on that chain had
// fromLFB as its own main parent.
func (b *Builder) VotedBranch(fromLFB, block finality.BlockHash) (finality.BlockHash, bool, error) {
	cur := block
	var child finality.BlockHash

	for {
		if cur == fromLFB {
			if child.IsZero() {
				return finality.BlockHash{}, false, nil
			}
			return child, true, nil
		}
		rec, ok := b.blocks[cur]
		if !ok {
			return finality.BlockHash{}, false, fmt.Errorf("sim: unknown block %s", cur.ShortString())
		}
		child = cur
		if rec.mainParent.IsZero() {
			return finality.BlockHash{}, false, nil
		}
		cur = rec.mainParent
	}
}

// LevelZeroMessages implements finality.DAG: v's own messages that descend
// from voteValue along the main-parent chain, oldest (lowest rank) first.
func (b *Builder) LevelZeroMessages(v finality.Validator, voteValue finality.BlockHash) ([]finality.BlockMeta, error) {
	var out []finality.BlockMeta
	for _, hash := range b.byCreator[v] {
		if b.isDescendant(hash, voteValue) {
			out = append(out, b.blocks[hash].meta)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (b *Builder) isDescendant(block, ancestor finality.BlockHash) bool {
	cur := block
	for {
		if cur == ancestor {
			return true
		}
		rec, ok := b.blocks[cur]
		if !ok || rec.mainParent.IsZero() {
			return false
		}
		cur = rec.mainParent
	}
}
