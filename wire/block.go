package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/pow"
	"github.com/cuckoochain/node/txscript"
)

// MsgBlock is a full block: the header a proof was mined against, the proof
// itself (nonce and cycle edges), and its transactions. Proof() rebuilds
// the pow.Proof from Header, so proof.header == serialize(header) holds for
// every MsgBlock; the wire form carries the header a second time inside the
// proof bytes, and DeserializeBlock rejects data whose two copies differ.
type MsgBlock struct {
	Header       BlockHeader
	Nonce        uint64
	CycleEdges   [pow.CycleLength]uint32
	Transactions []*txscript.MsgTx
}

// Proof reconstructs the pow.Proof this block was mined with.
func (b *MsgBlock) Proof() pow.Proof {
	return pow.Proof{
		Header:     [pow.HeaderSize]byte(b.Header.Serialize()),
		Nonce:      b.Nonce,
		CycleEdges: b.CycleEdges,
	}
}

// BlockHash returns the identity hash of the block's header.
func (b *MsgBlock) BlockHash() chainhash.Hash {
	return b.Header.BlockHash()
}

// Serialize encodes the block as header(80) || proof_len:u32 LE ||
// proof_bytes || tx_count:u32 LE || (tx_len:u32 LE | tx_bytes) × tx_count.
// proof_bytes duplicates the header (pow.Proof embeds it), which is the
// wire format's own redundancy, not a bug in this encoder.
func (b *MsgBlock) Serialize() []byte {
	headerBytes := b.Header.Serialize()
	proofBytes := b.Proof().Serialize()

	txBytes := make([][]byte, len(b.Transactions))
	size := HeaderSize + 4 + len(proofBytes) + 4
	for i, tx := range b.Transactions {
		txBytes[i] = tx.Serialize()
		size += 4 + len(txBytes[i])
	}

	buf := make([]byte, 0, size)
	buf = append(buf, headerBytes...)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(proofBytes)))
	buf = append(buf, u32[:]...)
	buf = append(buf, proofBytes...)

	binary.LittleEndian.PutUint32(u32[:], uint32(len(b.Transactions)))
	buf = append(buf, u32[:]...)
	for _, tb := range txBytes {
		binary.LittleEndian.PutUint32(u32[:], uint32(len(tb)))
		buf = append(buf, u32[:]...)
		buf = append(buf, tb...)
	}
	return buf
}

// DeserializeBlock decodes a block from its wire form.
func DeserializeBlock(b []byte) (*MsgBlock, error) {
	if len(b) < HeaderSize+4 {
		return nil, fmt.Errorf("wire: block data too short")
	}
	header, err := DeserializeBlockHeader(b[0:HeaderSize])
	if err != nil {
		return nil, err
	}
	off := HeaderSize

	proofLen := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4
	if off+int(proofLen) > len(b) {
		return nil, fmt.Errorf("wire: truncated proof")
	}
	proof, err := pow.DeserializeProof(b[off : off+int(proofLen)])
	if err != nil {
		return nil, err
	}
	if proof.Header != [pow.HeaderSize]byte(b[0:HeaderSize]) {
		return nil, fmt.Errorf("wire: proof header does not match block header")
	}
	off += int(proofLen)

	if off+4 > len(b) {
		return nil, fmt.Errorf("wire: truncated transaction count")
	}
	nTx := binary.LittleEndian.Uint32(b[off : off+4])
	off += 4

	blk := &MsgBlock{Header: *header, Nonce: proof.Nonce, CycleEdges: proof.CycleEdges}
	for i := uint32(0); i < nTx; i++ {
		if off+4 > len(b) {
			return nil, fmt.Errorf("wire: truncated transaction length prefix")
		}
		txLen := binary.LittleEndian.Uint32(b[off : off+4])
		off += 4
		if off+int(txLen) > len(b) {
			return nil, fmt.Errorf("wire: truncated transaction body")
		}
		tx, err := txscript.DeserializeTx(b[off : off+int(txLen)])
		if err != nil {
			return nil, err
		}
		off += int(txLen)
		blk.Transactions = append(blk.Transactions, tx)
	}

	return blk, nil
}

// MerkleRoot builds the binary Merkle tree over transaction ids: SHA-256 of
// concatenated left||right at each level, duplicating the last hash when a
// level has an odd count. An empty transaction list yields the all-zero
// root.
func MerkleRoot(txs []*txscript.MsgTx) chainhash.Hash {
	if len(txs) == 0 {
		return chainhash.Hash{}
	}

	level := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		level[i] = tx.TxHash()
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]chainhash.Hash, len(level)/2)
		var buf [64]byte
		for i := 0; i < len(next); i++ {
			copy(buf[0:32], level[2*i][:])
			copy(buf[32:64], level[2*i+1][:])
			next[i] = chainhash.HashH(buf[:])
		}
		level = next
	}
	return level[0]
}
