package pow

import (
	"sort"
	"testing"
)

func smallGraphParams() GraphParams {
	return GraphParams{
		ScratchpadBytes: minScratchpadBytes,
		NumEdges:        1 << 23,
		NumNodes:        1 << 22,
		NodeMask:        1<<22 - 1,
		MatrixDim:       8,
		TrimRounds:      minTrimRounds,
	}
}

// TestTrimParallelMatchesSequential checks Trim's parallel reference against
// TrimSequential on a small synthetic edge set: a single 8-cycle plus a long
// dangling chain that should fully trim away.
func TestTrimParallelMatchesSequential(t *testing.T) {
	params := smallGraphParams()
	params.TrimRounds = 10

	edges := single8Cycle()
	// Append a dangling chain hanging off U0 that should fully trim away:
	// U0-V100-U101-V102-U103 (degree-1 endpoints propagate inward).
	edges = append(edges,
		Edge{U: 0, V: 100},
		Edge{U: 101, V: 100},
		Edge{U: 101, V: 102},
		Edge{U: 103, V: 102},
	)

	par := Trim(edges, params)
	seq := TrimSequential(edges, params)

	sort.Slice(par, func(i, j int) bool { return par[i] < par[j] })
	sort.Slice(seq, func(i, j int) bool { return seq[i] < seq[j] })

	if len(par) != len(seq) {
		t.Fatalf("parallel and sequential trim disagree on survivor count: %d vs %d", len(par), len(seq))
	}
	for i := range par {
		if par[i] != seq[i] {
			t.Fatalf("survivor sets differ at index %d: %d vs %d", i, par[i], seq[i])
		}
	}

	// The cycle itself (indices 0-7) must all survive; the dangling chain
	// must not.
	survived := make(map[uint32]bool, len(par))
	for _, s := range par {
		survived[s] = true
	}
	for i := uint32(0); i < 8; i++ {
		if !survived[i] {
			t.Errorf("cycle edge %d did not survive trimming", i)
		}
	}
	for i := uint32(8); i < uint32(len(edges)); i++ {
		if survived[i] {
			t.Errorf("dangling chain edge %d unexpectedly survived trimming", i)
		}
	}
}
