package pow

import (
	"encoding/binary"
	"fmt"
)

// HeaderSize is the fixed byte length of a serialized block header.
const HeaderSize = 80

// ProofSize is the fixed byte length of a serialized Proof (120 bytes: an
// 80-byte header, an 8-byte little-endian nonce, and 8 little-endian
// uint32 cycle edge indices).
const ProofSize = HeaderSize + 8 + CycleLength*4

// Proof is the tuple a miner submits: the header it was mined against, the
// nonce, and the 8 edge indices forming the claimed cycle.
type Proof struct {
	Header     [HeaderSize]byte
	Nonce      uint64
	CycleEdges [CycleLength]uint32
}

// Serialize encodes the proof into its fixed 120-byte wire form.
func (p Proof) Serialize() []byte {
	out := make([]byte, ProofSize)
	copy(out[0:HeaderSize], p.Header[:])
	binary.LittleEndian.PutUint64(out[HeaderSize:HeaderSize+8], p.Nonce)
	off := HeaderSize + 8
	for i, e := range p.CycleEdges {
		binary.LittleEndian.PutUint32(out[off+i*4:off+i*4+4], e)
	}
	return out
}

// DeserializeProof decodes a Proof from its fixed 120-byte wire form,
// rejecting anything shorter.
func DeserializeProof(b []byte) (Proof, error) {
	var p Proof
	if len(b) < ProofSize {
		return p, fmt.Errorf("pow: proof too short: got %d bytes, want %d", len(b), ProofSize)
	}
	copy(p.Header[:], b[0:HeaderSize])
	p.Nonce = binary.LittleEndian.Uint64(b[HeaderSize : HeaderSize+8])
	off := HeaderSize + 8
	for i := 0; i < CycleLength; i++ {
		p.CycleEdges[i] = binary.LittleEndian.Uint32(b[off+i*4 : off+i*4+4])
	}
	return p, nil
}

// DistinctAndInRange reports whether the proof's cycle edge indices are
// all distinct and less than numEdges, per spec.md §3's Proof invariant.
func (p Proof) DistinctAndInRange(numEdges uint32) bool {
	seen := make(map[uint32]struct{}, CycleLength)
	for _, e := range p.CycleEdges {
		if e >= numEdges {
			return false
		}
		if _, ok := seen[e]; ok {
			return false
		}
		seen[e] = struct{}{}
	}
	return true
}
