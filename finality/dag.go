package finality

import "fmt"

// DAG is the read-only view over the external block store that the
// detector is built on. All operations are read-only with respect to
// consensus state; the adapter is expected to be internally consistent
// (acyclic, total on known hashes).
//
// DAG is the only external collaborator the finality detector depends on;
// the block DAG store, fork-choice estimator, execution engine, wire
// protocol and everything else surrounding consensus live behind it.
type DAG interface {
	// Lookup returns the metadata for hash, or an error if hash is not
	// known to the adapter.
	Lookup(hash BlockHash) (BlockMeta, error)

	// LatestMessages returns, for every validator the adapter currently
	// tracks, that validator's most recent message.
	LatestMessages() (map[Validator]BlockMeta, error)

	// VotedBranch returns the hash of the main-tree child of fromLFB that
	// lies on the path from fromLFB to block, and true, iff block
	// transitively justifies that child. It returns (zero, false, nil)
	// when block does not vote for any child of fromLFB.
	VotedBranch(fromLFB, block BlockHash) (BlockHash, bool, error)

	// LevelZeroMessages returns validator v's own messages that vote for
	// voteValue, ordered oldest (lowest rank) first.
	LevelZeroMessages(v Validator, voteValue BlockHash) ([]BlockMeta, error)
}

// LookupErr wraps a DAG lookup failure for a hash presumed present. It is
// never swallowed: the detector treats the DAG adapter as authoritative and
// surfaces its errors unchanged (spec §7).
type LookupErr struct {
	Hash BlockHash
	Err  error
}

func (e *LookupErr) Error() string {
	return fmt.Sprintf("lookup %s: %v", e.Hash.ShortString(), e.Err)
}

func (e *LookupErr) Unwrap() error { return e.Err }

// wrapLookup wraps err, if non-nil, as a *LookupErr for hash.
func wrapLookup(hash BlockHash, err error) error {
	if err == nil {
		return nil
	}
	return &LookupErr{Hash: hash, Err: err}
}
