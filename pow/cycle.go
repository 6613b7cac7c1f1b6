package pow

// CycleLength is the fixed length of a valid Cuckoo cycle (spec.md
// GLOSSARY: "8-cycle").
const CycleLength = 8

// adjEntry is one adjacency-list entry: the local index of an incident
// edge, together with the node on the far side of it.
type adjEntry struct {
	edgeIdx int
	other   uint32
}

// FindCycle searches the given surviving subset of edges (indices into the
// full generated edge set) for a single CycleLength-edge alternating
// U-V-U-V... cycle, per the bounded-DFS algorithm in spec.md §4.3. It
// returns the cycle as global edge indices in discovery order, or false if
// none was found. Any valid cycle may be returned; callers must not depend
// on which one.
func FindCycle(edges []Edge, survivors []uint32) ([CycleLength]uint32, bool) {
	local := make([]Edge, len(survivors))
	for i, g := range survivors {
		local[i] = edges[g]
	}

	uAdj := map[uint32][]adjEntry{}
	vAdj := map[uint32][]adjEntry{}
	for i, e := range local {
		uAdj[e.U] = append(uAdj[e.U], adjEntry{edgeIdx: i, other: e.V})
		vAdj[e.V] = append(vAdj[e.V], adjEntry{edgeIdx: i, other: e.U})
	}

	f := &cycleFinder{uAdj: uAdj, vAdj: vAdj, local: local}

	for startU, entries := range uAdj {
		if len(entries) < 2 {
			continue
		}
		for _, e0 := range entries {
			f.visitedU = map[uint32]bool{startU: true}
			f.visitedV = map[uint32]bool{e0.other: true}
			f.path = []int{e0.edgeIdx}
			if f.dfs(startU, e0.other, false, e0.edgeIdx, 1) {
				var out [CycleLength]uint32
				for i, li := range f.path {
					out[i] = survivors[li]
				}
				return out, true
			}
		}
	}
	return [CycleLength]uint32{}, false
}

type cycleFinder struct {
	uAdj, vAdj map[uint32][]adjEntry
	local      []Edge
	visitedU   map[uint32]bool
	visitedV   map[uint32]bool
	path       []int
	startU     uint32
}

// dfs walks from currentNode looking to close an 8-edge cycle back at the
// original start U-node. The first call starts on the V side, having just
// crossed a U->V edge; each recursive call switches sides, and currentIsU
// tracks which side currentNode is on and so which adjacency table to
// consult; lastEdge is excluded so the walk doesn't immediately
// backtrack over the edge it just used; depth counts edges placed in the
// path so far.
func (f *cycleFinder) dfs(startU, currentNode uint32, currentIsU bool, lastEdge, depth int) bool {
	var candidates []adjEntry
	if currentIsU {
		candidates = f.uAdj[currentNode]
	} else {
		candidates = f.vAdj[currentNode]
	}

	for _, cand := range candidates {
		if cand.edgeIdx == lastEdge {
			continue
		}
		other := cand.other
		if depth+1 == CycleLength {
			if !currentIsU && other == startU {
				f.path = append(f.path, cand.edgeIdx)
				return true
			}
			continue
		}

		newIsU := !currentIsU
		if newIsU {
			if f.visitedU[other] {
				continue
			}
			f.visitedU[other] = true
		} else {
			if f.visitedV[other] {
				continue
			}
			f.visitedV[other] = true
		}
		f.path = append(f.path, cand.edgeIdx)

		if f.dfs(startU, other, newIsU, cand.edgeIdx, depth+1) {
			return true
		}

		f.path = f.path[:len(f.path)-1]
		if newIsU {
			delete(f.visitedU, other)
		} else {
			delete(f.visitedV, other)
		}
	}
	return false
}

// FormsValidCycle reports whether the 8 edges (full-graph indices into
// edges) induce a single connected bipartite 4+4 graph with every node of
// degree exactly two — the structural check of spec.md §4.5 step 6, which
// must reject two disjoint 4-cycles.
func FormsValidCycle(edges []Edge, idxs [CycleLength]uint32) bool {
	seen := map[uint32]bool{}
	for _, i := range idxs {
		if seen[i] {
			return false
		}
		seen[i] = true
	}

	degU := map[uint32]int{}
	degV := map[uint32]int{}
	cycleEdges := make([]Edge, CycleLength)
	for i, gi := range idxs {
		if int(gi) >= len(edges) {
			return false
		}
		e := edges[gi]
		cycleEdges[i] = e
		degU[e.U]++
		degV[e.V]++
	}

	if len(degU) != 4 || len(degV) != 4 {
		return false
	}
	for _, d := range degU {
		if d != 2 {
			return false
		}
	}
	for _, d := range degV {
		if d != 2 {
			return false
		}
	}

	return isConnected(cycleEdges)
}

// isConnected checks that the given edge set forms a single connected
// component, ruling out two disjoint 4-cycles that would otherwise satisfy
// the degree-exactly-2 check in isolation.
func isConnected(edges []Edge) bool {
	if len(edges) == 0 {
		return false
	}
	type nodeKey struct {
		isU bool
		n   uint32
	}
	parent := map[nodeKey]nodeKey{}
	var find func(nodeKey) nodeKey
	find = func(x nodeKey) nodeKey {
		if parent[x] != x {
			parent[x] = find(parent[x])
		}
		return parent[x]
	}
	union := func(a, b nodeKey) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, e := range edges {
		ku, kv := nodeKey{true, e.U}, nodeKey{false, e.V}
		if _, ok := parent[ku]; !ok {
			parent[ku] = ku
		}
		if _, ok := parent[kv]; !ok {
			parent[kv] = kv
		}
		union(ku, kv)
	}
	var root nodeKey
	first := true
	for k := range parent {
		r := find(k)
		if first {
			root = r
			first = false
		} else if r != root {
			return false
		}
	}
	return true
}
