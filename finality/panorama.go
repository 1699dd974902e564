package finality

// ComputePanorama returns, for block, an array of length len(index) where
// entry index[v] is the maximum DAG-level among all messages by validator v
// reachable through block's justifications, including block itself when its
// creator is v. Validators absent from index are ignored.
//
// This is a single-source reachability walk over the justification DAG; it
// uses an explicit work-stack rather than recursion (spec §9: "recursive
// tail-call pruning" is re-architected as an iterative loop throughout this
// package) so it terminates in time linear in the number of visited
// messages regardless of DAG depth.
func ComputePanorama(dag DAG, index map[Validator]int, block BlockMeta) ([]Rank, error) {
	panorama := make([]Rank, len(index))

	visited := make(map[BlockHash]struct{})
	visited[block.Hash] = struct{}{}
	stack := []BlockMeta{block}

	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if idx, ok := index[b.Creator]; ok && b.Rank > panorama[idx] {
			panorama[idx] = b.Rank
		}

		for _, justHash := range b.Justifications {
			if _, seen := visited[justHash]; seen {
				continue
			}
			visited[justHash] = struct{}{}

			meta, err := dag.Lookup(justHash)
			if err != nil {
				return nil, wrapLookup(justHash, err)
			}
			stack = append(stack, meta)
		}
	}

	return panorama, nil
}
