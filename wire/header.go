// Package wire implements block and header serialization plus the framed
// JSON gossip protocol used between peers.
package wire

import (
	"encoding/binary"
	"fmt"

	"github.com/cuckoochain/node/chainhash"
)

// HeaderSize is the fixed byte length of a serialized BlockHeader.
const HeaderSize = 80

// BlockHeader is the fixed 80-byte header committed to by a block's proof.
type BlockHeader struct {
	Version    uint32
	PrevHash   chainhash.Hash
	MerkleRoot chainhash.Hash
	Timestamp  uint32
	Bits       uint32
}

// Serialize encodes the header into its fixed 80-byte little-endian wire
// form: version:u32 | prev_hash:32B | merkle_root:32B | timestamp:u32 |
// bits:u32.
func (h *BlockHeader) Serialize() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	copy(buf[4:36], h.PrevHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.Timestamp)
	binary.LittleEndian.PutUint32(buf[72:76], h.Bits)
	return buf
}

// BlockHash returns SHA256 of the serialized header, the block's identity
// hash.
func (h *BlockHeader) BlockHash() chainhash.Hash {
	return chainhash.HashH(h.Serialize())
}

// DeserializeBlockHeader decodes a BlockHeader from its fixed 80-byte form.
func DeserializeBlockHeader(b []byte) (*BlockHeader, error) {
	if len(b) != HeaderSize {
		return nil, fmt.Errorf("wire: header must be %d bytes, got %d", HeaderSize, len(b))
	}
	h := &BlockHeader{}
	h.Version = binary.LittleEndian.Uint32(b[0:4])
	copy(h.PrevHash[:], b[4:36])
	copy(h.MerkleRoot[:], b[36:68])
	h.Timestamp = binary.LittleEndian.Uint32(b[68:72])
	h.Bits = binary.LittleEndian.Uint32(b[72:76])
	return h, nil
}
