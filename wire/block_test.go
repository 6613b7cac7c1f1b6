package wire

import (
	"bytes"
	"testing"

	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/pow"
	"github.com/cuckoochain/node/txscript"
)

func sampleHeader() BlockHeader {
	return BlockHeader{
		Version:    1,
		PrevHash:   chainhash.HashH([]byte("prev")),
		MerkleRoot: chainhash.HashH([]byte("root")),
		Timestamp:  1700000000,
		Bits:       0x1d00ffff,
	}
}

func sampleBlock() *MsgBlock {
	header := sampleHeader()
	tx := &txscript.MsgTx{
		Version: 1,
		TxIn: []*txscript.TxIn{{
			PreviousOutPoint: txscript.OutPoint{Hash: chainhash.HashH([]byte("coinbase")), Vout: txscript.CoinbaseVout},
		}},
		TxOut: []*txscript.TxOut{{Value: 5000000000, LockingScript: []byte{0x01}}},
	}
	return &MsgBlock{
		Header:       header,
		Nonce:        424242,
		CycleEdges:   [pow.CycleLength]uint32{1, 2, 3, 4, 5, 6, 7, 8},
		Transactions: []*txscript.MsgTx{tx},
	}
}

// TestBlockSerializeRoundTrip checks the header(80) || proof_len:u32 LE ||
// proof_bytes || tx_count:u32 LE || (tx_len:u32 LE | tx_bytes) × tx_count
// wire layout round-trips, including the embedded proof's own header copy.
func TestBlockSerializeRoundTrip(t *testing.T) {
	blk := sampleBlock()
	b := blk.Serialize()

	got, err := DeserializeBlock(b)
	if err != nil {
		t.Fatalf("DeserializeBlock: %v", err)
	}

	if got.Header != blk.Header {
		t.Fatalf("header mismatch: got %+v, want %+v", got.Header, blk.Header)
	}
	if got.Nonce != blk.Nonce {
		t.Fatalf("nonce mismatch: got %d, want %d", got.Nonce, blk.Nonce)
	}
	if got.CycleEdges != blk.CycleEdges {
		t.Fatalf("cycle edges mismatch: got %v, want %v", got.CycleEdges, blk.CycleEdges)
	}
	if len(got.Transactions) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(got.Transactions))
	}
	if !bytes.Equal(got.Transactions[0].Serialize(), blk.Transactions[0].Serialize()) {
		t.Fatal("transaction round trip mismatch")
	}
	if !bytes.Equal(got.Serialize(), b) {
		t.Fatal("re-serialization does not match original bytes")
	}
}

// TestBlockProofEmbedsHeader checks that the proof bytes embedded in the
// block's wire form duplicate the header, a deliberate redundancy rather
// than a bug: proof.header == serialize(header) is a block invariant.
func TestBlockProofEmbedsHeader(t *testing.T) {
	blk := sampleBlock()
	b := blk.Serialize()

	headerBytes := blk.Header.Serialize()
	proofBytes := blk.Proof().Serialize()
	if !bytes.Equal(proofBytes[:HeaderSize], headerBytes) {
		t.Fatal("proof's embedded header does not match the block header")
	}

	// The leading 80 bytes of the wire form is the plain header; the next
	// 4 bytes are the proof length, then the proof bytes begin with the
	// same 80-byte header again.
	if !bytes.Equal(b[0:HeaderSize], headerBytes) {
		t.Fatal("block wire form does not start with the serialized header")
	}
	proofStart := HeaderSize + 4
	if !bytes.Equal(b[proofStart:proofStart+HeaderSize], headerBytes) {
		t.Fatal("embedded proof does not begin with a second copy of the header")
	}
}

func TestDeserializeBlockTruncated(t *testing.T) {
	blk := sampleBlock()
	b := blk.Serialize()
	if _, err := DeserializeBlock(b[:len(b)-1]); err == nil {
		t.Fatal("expected truncated block data to fail to deserialize")
	}
	if _, err := DeserializeBlock(b[:HeaderSize]); err == nil {
		t.Fatal("expected a block with no proof length prefix to fail to deserialize")
	}
}

func TestMerkleRootEmpty(t *testing.T) {
	if got := MerkleRoot(nil); got != (chainhash.Hash{}) {
		t.Fatalf("expected all-zero root for an empty transaction list, got %x", got)
	}
}

func TestMerkleRootOddCountDuplicatesLast(t *testing.T) {
	mk := func(s string) *txscript.MsgTx {
		return &txscript.MsgTx{TxOut: []*txscript.TxOut{{Value: 1, LockingScript: []byte(s)}}}
	}
	three := []*txscript.MsgTx{mk("a"), mk("b"), mk("c")}
	four := []*txscript.MsgTx{mk("a"), mk("b"), mk("c"), mk("c")}

	if MerkleRoot(three) != MerkleRoot(four) {
		t.Fatal("an odd-length level must duplicate its last hash, matching an explicit duplicate")
	}
}

func TestMerkleRootOrderSensitive(t *testing.T) {
	mk := func(s string) *txscript.MsgTx {
		return &txscript.MsgTx{TxOut: []*txscript.TxOut{{Value: 1, LockingScript: []byte(s)}}}
	}
	a := []*txscript.MsgTx{mk("a"), mk("b")}
	b := []*txscript.MsgTx{mk("b"), mk("a")}
	if MerkleRoot(a) == MerkleRoot(b) {
		t.Fatal("swapping transaction order must change the merkle root")
	}
}

func TestBlockHashMatchesHeaderHash(t *testing.T) {
	blk := sampleBlock()
	if blk.BlockHash() != blk.Header.BlockHash() {
		t.Fatal("MsgBlock.BlockHash must match its header's BlockHash")
	}
}
