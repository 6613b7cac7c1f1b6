// Package pow implements the memory-hard edge generator, trimmer, cycle
// finder, difficulty algebra, and proof verifier that make up the chain's
// consensus-critical proof-of-work.
package pow

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/slog"
)

// log is the package-wide logger; disabled until a cmd/ entrypoint wires a
// backend via UseLogger, following the teacher's logging convention.
var log = slog.Disabled

// UseLogger sets the subsystem logger used by this package.
func UseLogger(logger slog.Logger) {
	log = logger
}

const (
	minScratchpadBytes = 12 * 1024 * 1024
	maxScratchpadBytes = 20 * 1024 * 1024
	minTrimRounds      = 60
	maxTrimRounds      = 100
)

// allowedNumEdges enumerates the three legal edge-count powers of two named
// by spec.md's GraphParams invariant.
var allowedNumEdges = [3]uint32{1 << 23, 1 << 24, 1 << 25}

// allowedMatrixDims enumerates the three legal dense-matrix dimensions.
var allowedMatrixDims = [3]int{8, 16, 32}

// GraphParams bundles the per-epoch shape of the bipartite Cuckoo-cycle
// graph: how big the scratchpad is, how many edges are generated, and how
// many trimming rounds run before cycle search.
type GraphParams struct {
	ScratchpadBytes uint32
	NumEdges        uint32
	NumNodes        uint32
	NodeMask        uint32
	MatrixDim       int
	TrimRounds      int
}

// Validate checks GraphParams against the invariants in spec.md §3.
func (p GraphParams) Validate() error {
	if p.ScratchpadBytes%16 != 0 {
		return fmt.Errorf("pow: scratchpad_bytes %d not a multiple of 16", p.ScratchpadBytes)
	}
	if p.ScratchpadBytes < minScratchpadBytes || p.ScratchpadBytes > maxScratchpadBytes {
		return fmt.Errorf("pow: scratchpad_bytes %d out of [%d, %d]", p.ScratchpadBytes, minScratchpadBytes, maxScratchpadBytes)
	}
	okEdges := false
	for _, v := range allowedNumEdges {
		if p.NumEdges == v {
			okEdges = true
		}
	}
	if !okEdges {
		return fmt.Errorf("pow: num_edges %d is not a power of two in {2^23,2^24,2^25}", p.NumEdges)
	}
	if p.NumNodes != p.NumEdges/2 {
		return fmt.Errorf("pow: num_nodes %d != num_edges/2 %d", p.NumNodes, p.NumEdges/2)
	}
	if p.NodeMask+1 != p.NumNodes {
		return fmt.Errorf("pow: node_mask+1 (%d) != num_nodes (%d)", p.NodeMask+1, p.NumNodes)
	}
	okDim := false
	for _, v := range allowedMatrixDims {
		if p.MatrixDim == v {
			okDim = true
		}
	}
	if !okDim {
		return fmt.Errorf("pow: matrix_dim %d not in {8,16,32}", p.MatrixDim)
	}
	if p.TrimRounds < minTrimRounds || p.TrimRounds > maxTrimRounds {
		return fmt.Errorf("pow: trim_rounds %d out of [%d, %d]", p.TrimRounds, minTrimRounds, maxTrimRounds)
	}
	matrixBytes := uint32(p.MatrixDim * p.MatrixDim * 4)
	if p.ScratchpadBytes <= 2*matrixBytes {
		return fmt.Errorf("pow: scratchpad_bytes %d too small for two %dx%d matrices", p.ScratchpadBytes, p.MatrixDim, p.MatrixDim)
	}
	return nil
}

// MatrixBytes returns the byte size of one matrix_dim x matrix_dim float32
// matrix.
func (p GraphParams) MatrixBytes() uint32 {
	return uint32(p.MatrixDim * p.MatrixDim * 4)
}

// DeriveEpochParams deterministically derives a GraphParams from a 32-byte
// epoch seed (see SPEC_FULL.md's epoch activation table). The seed's bytes
// are folded into independent selectors for each field so that small seed
// changes between epochs produce an independent-looking parameter vector,
// without requiring any randomness beyond the seed itself.
func DeriveEpochParams(seed [32]byte) GraphParams {
	edgeSel := binary.LittleEndian.Uint32(seed[0:4]) % uint32(len(allowedNumEdges))
	dimSel := binary.LittleEndian.Uint32(seed[4:8]) % uint32(len(allowedMatrixDims))
	roundsSel := binary.LittleEndian.Uint32(seed[8:12]) % uint32(maxTrimRounds-minTrimRounds+1)

	numEdges := allowedNumEdges[edgeSel]
	matrixDim := allowedMatrixDims[dimSel]
	trimRounds := minTrimRounds + int(roundsSel)

	// Pick a scratchpad size in range, divisible by 16, large enough to hold
	// two matrices with headroom. Fold more seed bytes to vary it by epoch.
	span := uint32(maxScratchpadBytes - minScratchpadBytes)
	sizeSel := binary.LittleEndian.Uint32(seed[12:16]) % (span / 16)
	scratchpadBytes := minScratchpadBytes + sizeSel*16

	numNodes := numEdges / 2
	return GraphParams{
		ScratchpadBytes: scratchpadBytes,
		NumEdges:        numEdges,
		NumNodes:        numNodes,
		NodeMask:        numNodes - 1,
		MatrixDim:       matrixDim,
		TrimRounds:      trimRounds,
	}
}

// Edge is an unordered pair naming a U-partition and a V-partition node,
// identified by its position in the generator's output.
type Edge struct {
	U uint32
	V uint32
}

// Equal reports structural equality, per spec.md §3's Edge invariant.
func (e Edge) Equal(o Edge) bool {
	return e.U == o.U && e.V == o.V
}
