package blockchain

import (
	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/txscript"
	"github.com/cuckoochain/node/wire"
)

// blockNode is one accepted block in the chainstate's node map. Nodes are
// created on accepted submission and never mutated afterward; the map is
// never pruned, matching spec.md §3's ChainNode lifecycle.
type blockNode struct {
	block      *wire.MsgBlock
	hash       chainhash.Hash
	parentHash chainhash.Hash
	hasParent  bool
	height     uint32
	totalWork  uint64
	utxo       map[txscript.OutPoint]*txscript.TxOut
}

// tip reports (hash, height, totalWork, bits), the ChainTip projection of
// spec.md §3.
func (n *blockNode) tip() (chainhash.Hash, uint32, uint64, uint32) {
	return n.hash, n.height, n.totalWork, n.block.Header.Bits
}
