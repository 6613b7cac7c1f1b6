// Package blockchain implements block validation, the UTXO-backed
// chainstate, fork choice, and on-disk persistence.
package blockchain

import (
	"fmt"
	"sync"
	"time"

	"github.com/cuckoochain/node/chaincfg"
	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/pow"
	"github.com/cuckoochain/node/txscript"
	"github.com/cuckoochain/node/wire"
)

// AcceptResult discriminates the outcome of AcceptBlock.
type AcceptResult int

const (
	// AcceptResultAccepted means the block was validated and linked into
	// the node map (it may or may not have become the new best tip).
	AcceptResultAccepted AcceptResult = iota
	// AcceptResultDuplicate means a node for this block hash already
	// exists.
	AcceptResultDuplicate
	// AcceptResultOrphan means the block's parent is unknown; the caller
	// should request it (the orphan parent hash is returned alongside).
	AcceptResultOrphan
)

// ChainState exclusively owns the node map and the best-hash pointer. It
// serializes all mutation behind a single mutex, the same single-writer
// discipline the mempool and P2P service follow for their own state, so
// that AcceptBlock's multi-step pipeline is never interleaved with another
// submission.
type ChainState struct {
	mu sync.Mutex

	params   *chaincfg.Params
	store    *Storage
	sigCache *txscript.SigCache

	nodes    map[chainhash.Hash]*blockNode
	bestHash chainhash.Hash

	enforceSignatures bool
}

// Config bundles ChainState's construction-time dependencies.
type Config struct {
	Params            *chaincfg.Params
	Store             *Storage
	SigCache          *txscript.SigCache
	EnforceSignatures bool
}

// New creates a ChainState seeded with the network's genesis block,
// replaying persisted blocks from cfg.Store (if non-nil) to rebuild the
// node map and repair a stale best-hash marker.
func New(cfg Config) (*ChainState, error) {
	cs := &ChainState{
		params:            cfg.Params,
		store:             cfg.Store,
		sigCache:          cfg.SigCache,
		nodes:             make(map[chainhash.Hash]*blockNode),
		enforceSignatures: cfg.EnforceSignatures,
	}

	genesis := cfg.Params.GenesisBlock
	genesisHash := cfg.Params.GenesisHash
	genesisNode := &blockNode{
		block:     genesis,
		hash:      genesisHash,
		height:    0,
		totalWork: pow.Work(genesis.Header.Bits),
		utxo:      genesisUTXO(genesis),
	}
	cs.nodes[genesisHash] = genesisNode
	cs.bestHash = genesisHash

	if cs.store != nil {
		if err := cs.store.PutBlock(genesis); err != nil {
			return nil, err
		}
		if err := cs.replay(); err != nil {
			return nil, fmt.Errorf("blockchain: replay failed: %w", err)
		}
		if err := cs.store.PutBestHash(cs.bestHash); err != nil {
			return nil, err
		}
	}

	return cs, nil
}

func genesisUTXO(genesis *wire.MsgBlock) map[txscript.OutPoint]*txscript.TxOut {
	utxo := make(map[txscript.OutPoint]*txscript.TxOut)
	coinbase := genesis.Transactions[0]
	hash := coinbase.TxHash()
	for i, out := range coinbase.TxOut {
		utxo[txscript.OutPoint{Hash: hash, Vout: uint32(i)}] = out
	}
	return utxo
}

// BestTip returns the (hash, height, totalWork, bits) of the current best
// node.
func (cs *ChainState) BestTip() (chainhash.Hash, uint32, uint64, uint32) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.nodes[cs.bestHash].tip()
}

// HaveBlock reports whether hash is already a known node.
func (cs *ChainState) HaveBlock(hash chainhash.Hash) bool {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	_, ok := cs.nodes[hash]
	return ok
}

// Block returns the block stored at a known node, for serving getBlock
// requests.
func (cs *ChainState) Block(hash chainhash.Hash) (*wire.MsgBlock, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	n, ok := cs.nodes[hash]
	if !ok {
		return nil, false
	}
	return n.block, true
}

// UTXOSnapshot returns a read-only view of the best node's UTXO set. The
// caller must not mutate the returned map.
func (cs *ChainState) UTXOSnapshot() map[txscript.OutPoint]*txscript.TxOut {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.nodes[cs.bestHash].utxo
}

// AcceptBlock runs the 8-step accept pipeline of spec.md §4.7 against blk.
func (cs *ChainState) AcceptBlock(blk *wire.MsgBlock) (AcceptResult, chainhash.Hash, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.acceptLocked(blk, time.Now().Unix())
}

func (cs *ChainState) acceptLocked(blk *wire.MsgBlock, now int64) (AcceptResult, chainhash.Hash, error) {
	hash := blk.BlockHash()

	// Step 1: duplicate.
	if _, ok := cs.nodes[hash]; ok {
		return AcceptResultDuplicate, chainhash.Hash{}, nil
	}

	// Step 2: size/structural checks.
	serialized := blk.Serialize()
	if err := checkBlockSanity(len(serialized), cs.params.MaxBlockBytes, blk.Transactions); err != nil {
		return AcceptResultAccepted, chainhash.Hash{}, err
	}

	// Step 3: proof.header == serialize(header); merkle root.
	headerBytes := blk.Header.Serialize()
	proof := blk.Proof()
	if [wire.HeaderSize]byte(headerBytes) != proof.Header {
		return AcceptResultAccepted, chainhash.Hash{}, ruleError(ErrBadProof, "proof header does not match block header")
	}
	if blk.Header.MerkleRoot != wire.MerkleRoot(blk.Transactions) {
		return AcceptResultAccepted, chainhash.Hash{}, ruleError(ErrMerkleRootMismatch, "header merkle root does not match transactions")
	}

	// Step 4: parent lookup.
	parent, ok := cs.nodes[blk.Header.PrevHash]
	if !ok {
		return AcceptResultOrphan, blk.Header.PrevHash, nil
	}

	// Step 5: timestamp checks.
	if blk.Header.Timestamp <= parent.block.Header.Timestamp {
		return AcceptResultAccepted, chainhash.Hash{}, ruleError(ErrTimestampTooOld, "timestamp does not exceed parent's")
	}
	if int64(blk.Header.Timestamp) > now+cs.params.MaxFutureSeconds {
		return AcceptResultAccepted, chainhash.Hash{}, ruleError(ErrTimestampTooNew, "timestamp too far in the future")
	}

	height := parent.height + 1

	// Checkpoints reduce, but never replace, the heaviest-work fork-choice
	// rule: a block at a checkpointed height must match the checkpoint hash.
	for _, cp := range cs.params.Checkpoints {
		if cp.Height == height && cp.Hash != hash {
			return AcceptResultAccepted, chainhash.Hash{}, ruleError(ErrBadCheckpoint, "block hash does not match checkpoint at this height")
		}
	}

	// Step 6: state transition over a copy-on-write UTXO snapshot.
	working := make(map[txscript.OutPoint]*txscript.TxOut, len(parent.utxo))
	for k, v := range parent.utxo {
		working[k] = v
	}
	if err := applyTransactions(working, parent.utxo, blk.Transactions, height, cs.params, cs.sigCache, cs.enforceSignatures); err != nil {
		return AcceptResultAccepted, chainhash.Hash{}, err
	}

	// Step 7: secure-block policy proof verification.
	expectedBits := cs.expectedBits(parent)
	graphParams := cs.params.GraphParamsForHeight(height)
	if err := pow.Verify(proof, graphParams, pow.VerifyOptions{
		ExpectedBits:    expectedBits,
		PolicyMinTarget: cs.params.MinTarget,
	}); err != nil {
		return AcceptResultAccepted, chainhash.Hash{}, ruleError(ErrBadProof, err.Error())
	}

	// Step 8: persist and update best-hash.
	node := &blockNode{
		block:      blk,
		hash:       hash,
		parentHash: parent.hash,
		hasParent:  true,
		height:     height,
		totalWork:  parent.totalWork + pow.Work(blk.Header.Bits),
		utxo:       working,
	}
	cs.nodes[hash] = node

	if cs.store != nil {
		if err := cs.store.PutBlock(blk); err != nil {
			return AcceptResultAccepted, chainhash.Hash{}, err
		}
	}

	cs.evictSigCacheIfDeep(node)

	if isBetterTip(node, cs.nodes[cs.bestHash]) {
		cs.bestHash = hash
		if cs.store != nil {
			if err := cs.store.PutBestHash(cs.bestHash); err != nil {
				return AcceptResultAccepted, chainhash.Hash{}, err
			}
		}
	}

	log.Debugf("accepted block %s at height %d (total work %d)", hash, height, node.totalWork)
	return AcceptResultAccepted, chainhash.Hash{}, nil
}

// evictSigCacheIfDeep walks back txscript.ProactiveEvictionDepth blocks from
// node and, if an ancestor exists at that depth, asynchronously evicts its
// transactions' cached signatures: a block this deep is nearly guaranteed
// never to need re-verification again, matching the block-connected hook the
// sigcache it's adapted from was designed to be called from.
func (cs *ChainState) evictSigCacheIfDeep(node *blockNode) {
	if cs.sigCache == nil {
		return
	}
	ancestor := node
	for i := 0; i < txscript.ProactiveEvictionDepth; i++ {
		if !ancestor.hasParent {
			return
		}
		parent, ok := cs.nodes[ancestor.parentHash]
		if !ok {
			return
		}
		ancestor = parent
	}
	cs.sigCache.EvictEntries(ancestor.block.Transactions)
}

// isBetterTip reports whether candidate should replace current as the best
// tip: strictly more total work, or equal total work with a lexicographically
// smaller hash (the deterministic tie-break of spec.md §4.7 step 8).
func isBetterTip(candidate, current *blockNode) bool {
	if current == nil {
		return true
	}
	if candidate.totalWork != current.totalWork {
		return candidate.totalWork > current.totalWork
	}
	return candidate.hash.Less(current.hash)
}
