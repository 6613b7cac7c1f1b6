package blockchain

import "github.com/cuckoochain/node/pow"

// ancestorBack walks n parents back from node, returning nil if the chain
// is shorter than that (which only happens within the first
// BlocksPerAdjustment blocks of a network's life).
func (cs *ChainState) ancestorBack(node *blockNode, n uint32) *blockNode {
	cur := node
	for i := uint32(0); i < n; i++ {
		if !cur.hasParent {
			return nil
		}
		parent, ok := cs.nodes[cur.parentHash]
		if !ok {
			return nil
		}
		cur = parent
	}
	return cur
}

// expectedBits computes the bits a block built on top of parent must carry,
// per spec.md §4.7's retarget rule: every BlocksPerAdjustment blocks, rescale
// by the ratio of actual to expected timespan over the prior
// BlocksPerAdjustment-1 window; otherwise inherit the parent's bits
// unchanged. This preserves the off-by-one anchor window spec.md documents
// rather than "correcting" it to a full BlocksPerAdjustment window.
func (cs *ChainState) expectedBits(parent *blockNode) uint32 {
	nextHeight := parent.height + 1
	adjust := cs.params.BlocksPerAdjustment
	if nextHeight == 0 || nextHeight%adjust != 0 {
		return parent.block.Header.Bits
	}

	window := adjust - 1
	anchor := cs.ancestorBack(parent, window)
	if anchor == nil {
		return parent.block.Header.Bits
	}

	actual := int64(parent.block.Header.Timestamp) - int64(anchor.block.Header.Timestamp)
	if actual < 1 {
		actual = 1
	}
	expected := cs.params.TargetBlockSeconds * int64(window)

	return pow.Retarget(parent.block.Header.Bits, actual, expected, cs.params.MinTarget)
}
