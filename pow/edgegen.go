package pow

import (
	"crypto/aes"
	"crypto/sha256"
	"encoding/binary"
)

// Generator produces the dependent-chain bipartite edge set for a (header,
// nonce) pair over a scratchpad it owns. Concurrent miners must each
// allocate their own Generator; the scratchpad it wraps is not safe to
// share across goroutines.
type Generator struct {
	params GraphParams
	pad    *Scratchpad
}

// NewGenerator allocates a fresh scratchpad sized per params and returns a
// Generator that owns it.
func NewGenerator(params GraphParams) *Generator {
	return &Generator{params: params, pad: NewScratchpad(params.ScratchpadBytes)}
}

// fill runs the AES keystream fill described in spec.md §4.1 and returns the
// post-fill chain state (the last written cell).
func (g *Generator) fill(header []byte, nonce uint64) [16]byte {
	var nonceBuf [8]byte
	binary.LittleEndian.PutUint64(nonceBuf[:], nonce)

	h := sha256.New()
	h.Write(header)
	h.Write(nonceBuf[:])
	digest := h.Sum(nil)

	key := digest[0:16]
	block, err := aes.NewCipher(key)
	if err != nil {
		// aes.NewCipher only fails on a bad key length; 16 bytes is always
		// valid, so this is unreachable.
		panic(err)
	}

	var state [16]byte
	copy(state[:], digest[16:32])

	pad := g.pad
	blocks := pad.Blocks()
	for i := 0; i < blocks; i++ {
		var next [16]byte
		block.Encrypt(next[:], state[:])
		copy(pad.Cell(i), next[:])
		state = next
	}
	return state
}

// step advances the dependent chain by one edge, mutating the scratchpad in
// place and returning the new state plus the emitted (u,v) pair.
func (g *Generator) step(state [16]byte) (newState [16]byte, u, v uint32) {
	p := g.params
	pad := g.pad

	s32 := binary.LittleEndian.Uint32(state[0:4])
	matrixBytes := p.MatrixBytes()
	maxOff := p.ScratchpadBytes - 2*matrixBytes
	off := (s32 % maxOff) &^ 3

	aBytes := pad.bytes[off : off+matrixBytes]
	bBytes := pad.bytes[off+matrixBytes : off+2*matrixBytes]
	c := matmulF32(p.MatrixDim, aBytes, bBytes)

	var folded [16]byte
	for i, b := range c {
		folded[i%16] ^= b
	}

	keyBlock, err := aes.NewCipher(state[:])
	if err != nil {
		panic(err)
	}
	var next [16]byte
	keyBlock.Encrypt(next[:], folded[:])

	copy(pad.bytes[off:off+16], next[:])

	u = binary.LittleEndian.Uint32(next[0:4]) & p.NodeMask
	v = binary.LittleEndian.Uint32(next[4:8]) & p.NodeMask
	return next, u, v
}

// Full generates the complete NumEdges-length edge sequence for (header,
// nonce).
func (g *Generator) Full(header []byte, nonce uint64) []Edge {
	state := g.fill(header, nonce)
	edges := make([]Edge, g.params.NumEdges)
	for e := uint32(0); e < g.params.NumEdges; e++ {
		var u, v uint32
		state, u, v = g.step(state)
		edges[e] = Edge{U: u, V: v}
	}
	return edges
}

// ReplayIndices runs the dependent chain from index 0 and returns only the
// edges at the requested indices, keyed by index. Per spec.md §4.1 there is
// no shortcut: time is linear in the maximum requested index.
func (g *Generator) ReplayIndices(header []byte, nonce uint64, indices []uint32) map[uint32]Edge {
	want := make(map[uint32]struct{}, len(indices))
	maxIdx := uint32(0)
	for _, idx := range indices {
		want[idx] = struct{}{}
		if idx > maxIdx {
			maxIdx = idx
		}
	}

	out := make(map[uint32]Edge, len(indices))
	state := g.fill(header, nonce)
	for e := uint32(0); e <= maxIdx; e++ {
		var u, v uint32
		state, u, v = g.step(state)
		if _, ok := want[e]; ok {
			out[e] = Edge{U: u, V: v}
		}
	}
	return out
}
