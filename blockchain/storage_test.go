package blockchain

import (
	"testing"

	"github.com/cuckoochain/node/chaincfg"
	"github.com/cuckoochain/node/chainhash"
)

func TestStorageBlockRoundTrip(t *testing.T) {
	store, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	defer store.Close()

	params := chaincfg.RegNetParams()
	blk := params.GenesisBlock

	if err := store.PutBlock(blk); err != nil {
		t.Fatalf("PutBlock: %v", err)
	}

	got, ok, err := store.GetBlock(blk.BlockHash())
	if err != nil {
		t.Fatalf("GetBlock: %v", err)
	}
	if !ok {
		t.Fatal("expected the just-written block to be found")
	}
	if got.BlockHash() != blk.BlockHash() {
		t.Fatalf("round-tripped block hash mismatch: got %s, want %s", got.BlockHash(), blk.BlockHash())
	}

	_, ok, err = store.GetBlock(chainhash.HashH([]byte("never written")))
	if err != nil {
		t.Fatalf("GetBlock for missing hash: %v", err)
	}
	if ok {
		t.Fatal("expected a hash that was never written to report not found")
	}
}

func TestStorageListBlocks(t *testing.T) {
	store, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	defer store.Close()

	params := chaincfg.RegNetParams()
	if err := store.PutBlock(params.GenesisBlock); err != nil {
		t.Fatalf("PutBlock: %v", err)
	}

	blocks, err := store.ListBlocks()
	if err != nil {
		t.Fatalf("ListBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("expected 1 persisted block, got %d", len(blocks))
	}
	if blocks[0].BlockHash() != params.GenesisHash {
		t.Fatalf("listed block hash = %s, want %s", blocks[0].BlockHash(), params.GenesisHash)
	}
}

func TestStorageBestHashRoundTrip(t *testing.T) {
	store, err := NewStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	defer store.Close()

	if _, ok, err := store.LoadBestHash(); err != nil || ok {
		t.Fatalf("expected no best-hash marker before one is written, ok=%v err=%v", ok, err)
	}

	want := chainhash.HashH([]byte("best block"))
	if err := store.PutBestHash(want); err != nil {
		t.Fatalf("PutBestHash: %v", err)
	}

	got, ok, err := store.LoadBestHash()
	if err != nil {
		t.Fatalf("LoadBestHash: %v", err)
	}
	if !ok {
		t.Fatal("expected a best-hash marker to be present after PutBestHash")
	}
	if got != want {
		t.Fatalf("LoadBestHash = %s, want %s", got, want)
	}
}

// TestNewReplaysPersistedBlocks checks that constructing a second ChainState
// against a Storage already containing only the genesis block succeeds and
// reports genesis at height 0 as the best tip.
func TestNewReplaysPersistedBlocks(t *testing.T) {
	dir := t.TempDir()
	params := chaincfg.RegNetParams()

	store1, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("NewStorage: %v", err)
	}
	if _, err := New(Config{Params: params, Store: store1}); err != nil {
		t.Fatalf("New (first): %v", err)
	}
	store1.Close()

	store2, err := NewStorage(dir)
	if err != nil {
		t.Fatalf("NewStorage (second): %v", err)
	}
	defer store2.Close()

	cs, err := New(Config{Params: params, Store: store2})
	if err != nil {
		t.Fatalf("New (second): %v", err)
	}
	hash, height, _, _ := cs.BestTip()
	if hash != params.GenesisHash || height != 0 {
		t.Fatalf("expected best tip to be the genesis block at height 0, got hash=%s height=%d", hash, height)
	}
}
