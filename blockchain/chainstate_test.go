package blockchain

import (
	"testing"

	"github.com/cuckoochain/node/chaincfg"
	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/pow"
	"github.com/cuckoochain/node/txscript"
	"github.com/cuckoochain/node/wire"
)

func newTestChainState(t *testing.T) (*ChainState, *chaincfg.Params) {
	t.Helper()
	params := chaincfg.RegNetParams()
	cs, err := New(Config{Params: params})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cs, params
}

// childBlock builds a structurally well-formed block extending parentHash at
// parentTimestamp+1, with a single coinbase of the given value and no proof
// verification performed by the helper itself: tests that exercise a
// rejection path earlier in the pipeline than step 7 (proof verification)
// never need a genuine mined proof.
func childBlock(parentHash chainhash.Hash, parentTimestamp uint32, coinbaseValue uint64) *wire.MsgBlock {
	pub := make([]byte, 32)
	lockingScript, _ := txscript.PayToPubKeyScript(pub)
	coinbase := &txscript.MsgTx{
		Version: 1,
		TxIn: []*txscript.TxIn{{
			PreviousOutPoint: txscript.OutPoint{Vout: txscript.CoinbaseVout},
			UnlockingScript:  []byte("height-1"),
		}},
		TxOut: []*txscript.TxOut{{Value: coinbaseValue, LockingScript: lockingScript}},
	}
	txs := []*txscript.MsgTx{coinbase}
	header := wire.BlockHeader{
		Version:    1,
		PrevHash:   parentHash,
		MerkleRoot: wire.MerkleRoot(txs),
		Timestamp:  parentTimestamp + 1,
		Bits:       0x207fffff,
	}
	return &wire.MsgBlock{
		Header:       header,
		CycleEdges:   [pow.CycleLength]uint32{},
		Transactions: txs,
	}
}

func TestAcceptBlockRejectsDuplicate(t *testing.T) {
	cs, params := newTestChainState(t)
	result, _, err := cs.acceptLocked(params.GenesisBlock, 1700000100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != AcceptResultDuplicate {
		t.Fatalf("expected AcceptResultDuplicate for the already-known genesis block, got %v", result)
	}
}

func TestAcceptBlockRejectsOrphan(t *testing.T) {
	cs, _ := newTestChainState(t)
	unknownParent := chainhash.HashH([]byte("no such parent"))
	blk := childBlock(unknownParent, 1700000000, 50*1e8)

	result, orphanParent, err := cs.acceptLocked(blk, 1700000100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != AcceptResultOrphan {
		t.Fatalf("expected AcceptResultOrphan, got %v", result)
	}
	if orphanParent != unknownParent {
		t.Fatalf("orphan parent hash = %s, want %s", orphanParent, unknownParent)
	}
}

func TestAcceptBlockRejectsMerkleMismatch(t *testing.T) {
	cs, params := newTestChainState(t)
	blk := childBlock(params.GenesisHash, params.GenesisBlock.Header.Timestamp, 50*1e8)
	blk.Header.MerkleRoot = chainhash.HashH([]byte("wrong root"))

	_, _, err := cs.acceptLocked(blk, 1700000100)
	assertRuleErrCode(t, err, ErrMerkleRootMismatch)
}

func TestAcceptBlockRejectsTimestampTooOld(t *testing.T) {
	cs, params := newTestChainState(t)
	blk := childBlock(params.GenesisHash, params.GenesisBlock.Header.Timestamp, 50*1e8)
	blk.Header.Timestamp = params.GenesisBlock.Header.Timestamp
	blk.Header.MerkleRoot = wire.MerkleRoot(blk.Transactions)

	_, _, err := cs.acceptLocked(blk, 1700000100)
	assertRuleErrCode(t, err, ErrTimestampTooOld)
}

func TestAcceptBlockRejectsTimestampTooNew(t *testing.T) {
	cs, params := newTestChainState(t)
	blk := childBlock(params.GenesisHash, params.GenesisBlock.Header.Timestamp, 50*1e8)
	blk.Header.Timestamp = params.GenesisBlock.Header.Timestamp + 100000

	now := int64(params.GenesisBlock.Header.Timestamp) + 1
	_, _, err := cs.acceptLocked(blk, now)
	assertRuleErrCode(t, err, ErrTimestampTooNew)
}

func TestAcceptBlockRejectsBadCheckpoint(t *testing.T) {
	cs, params := newTestChainState(t)
	cs.params = &chaincfg.Params{
		Name:                params.Name,
		NetworkID:           params.NetworkID,
		GraphEpochs:         params.GraphEpochs,
		BaseSubsidy:         params.BaseSubsidy,
		HalvingInterval:     params.HalvingInterval,
		TargetBlockSeconds:  params.TargetBlockSeconds,
		BlocksPerAdjustment: params.BlocksPerAdjustment,
		MaxFutureSeconds:    params.MaxFutureSeconds,
		MaxBlockBytes:       params.MaxBlockBytes,
		MinTarget:           params.MinTarget,
		GenesisBlock:        params.GenesisBlock,
		GenesisHash:         params.GenesisHash,
		Checkpoints: []chaincfg.Checkpoint{
			{Height: 1, Hash: chainhash.HashH([]byte("pinned hash, not this block"))},
		},
	}

	blk := childBlock(params.GenesisHash, params.GenesisBlock.Header.Timestamp, 50*1e8)
	_, _, err := cs.acceptLocked(blk, 1700000100)
	assertRuleErrCode(t, err, ErrBadCheckpoint)
}

func TestAcceptBlockRejectsOversizedBlock(t *testing.T) {
	cs, params := newTestChainState(t)
	cs.params = &chaincfg.Params{
		Name: params.Name, NetworkID: params.NetworkID, GraphEpochs: params.GraphEpochs,
		BaseSubsidy: params.BaseSubsidy, HalvingInterval: params.HalvingInterval,
		TargetBlockSeconds: params.TargetBlockSeconds, BlocksPerAdjustment: params.BlocksPerAdjustment,
		MaxFutureSeconds: params.MaxFutureSeconds, MaxBlockBytes: 1,
		MinTarget: params.MinTarget, GenesisBlock: params.GenesisBlock, GenesisHash: params.GenesisHash,
	}

	blk := childBlock(params.GenesisHash, params.GenesisBlock.Header.Timestamp, 50*1e8)
	_, _, err := cs.acceptLocked(blk, 1700000100)
	assertRuleErrCode(t, err, ErrBlockTooLarge)
}

func assertRuleErrCode(t *testing.T, err error, want ErrorCode) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a RuleError with code %s, got nil", want)
	}
	rerr, ok := err.(RuleError)
	if !ok {
		t.Fatalf("expected blockchain.RuleError, got %T: %v", err, err)
	}
	if rerr.Code != want {
		t.Fatalf("expected code %s, got %s", want, rerr.Code)
	}
}

func TestIsBetterTip(t *testing.T) {
	lowWork := &blockNode{totalWork: 10, hash: chainhash.Hash{0x02}}
	highWork := &blockNode{totalWork: 20, hash: chainhash.Hash{0x01}}
	if !isBetterTip(highWork, lowWork) {
		t.Fatal("a node with strictly more total work must be the better tip")
	}
	if isBetterTip(lowWork, highWork) {
		t.Fatal("a node with strictly less total work must not be the better tip")
	}

	equalA := &blockNode{totalWork: 10, hash: chainhash.Hash{0x01}}
	equalB := &blockNode{totalWork: 10, hash: chainhash.Hash{0x02}}
	if !isBetterTip(equalA, equalB) {
		t.Fatal("on equal work, the lexicographically smaller hash must win")
	}
	if isBetterTip(equalB, equalA) {
		t.Fatal("on equal work, the lexicographically larger hash must not win")
	}

	if !isBetterTip(lowWork, nil) {
		t.Fatal("any candidate must beat a nil current tip")
	}
}

func TestHaveBlockAndBestTip(t *testing.T) {
	cs, params := newTestChainState(t)
	if !cs.HaveBlock(params.GenesisHash) {
		t.Fatal("expected the genesis block to be known immediately after New")
	}
	if cs.HaveBlock(chainhash.HashH([]byte("never seen"))) {
		t.Fatal("expected an unknown hash to report as not known")
	}

	hash, height, _, bits := cs.BestTip()
	if hash != params.GenesisHash {
		t.Fatalf("best tip hash = %s, want genesis %s", hash, params.GenesisHash)
	}
	if height != 0 {
		t.Fatalf("best tip height = %d, want 0", height)
	}
	if bits != params.GenesisBlock.Header.Bits {
		t.Fatalf("best tip bits = %x, want %x", bits, params.GenesisBlock.Header.Bits)
	}
}
