package pow

import (
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// trimShard is the number of edges handed to one worker goroutine per
// sub-pass; chosen to keep goroutine overhead small relative to the
// per-edge work while still giving errgroup's worker pool enough shards to
// fill available cores.
const trimShard = 1 << 16

// Trim runs trim_rounds passes of degree-<=1 elimination over edges and
// returns the surviving edge indices in ascending order. It uses a bounded
// parallel worker pool (golang.org/x/sync/errgroup fan-out over edge
// shards) for the two sub-passes each round; TrimSequential below is the
// single-threaded reference implementation required by spec.md §4.2 to
// produce the same surviving set.
func Trim(edges []Edge, params GraphParams) []uint32 {
	degU := make([]int32, params.NumNodes)
	degV := make([]int32, params.NumNodes)
	alive := make([]int32, len(edges))
	for i := range alive {
		alive[i] = 1
	}
	for _, e := range edges {
		degU[e.U]++
		degV[e.V]++
	}

	for round := 0; round < params.TrimRounds; round++ {
		killedU := trimPassParallel(edges, alive, degU, degV, true)
		killedV := trimPassParallel(edges, alive, degU, degV, false)
		if killedU == 0 && killedV == 0 {
			break
		}
	}

	return surviving(alive)
}

// trimPassParallel runs one sub-pass (U-side if byU, else V-side) over all
// edges using a bounded worker pool, returning the number of edges killed.
func trimPassParallel(edges []Edge, alive []int32, degU, degV []int32, byU bool) int32 {
	var killed int32
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0)) // at most GOMAXPROCS shards run at once

	n := len(edges)
	for start := 0; start < n; start += trimShard {
		start := start
		end := start + trimShard
		if end > n {
			end = n
		}
		g.Go(func() error {
			var local int32
			for i := start; i < end; i++ {
				if atomic.LoadInt32(&alive[i]) == 0 {
					continue
				}
				e := edges[i]
				var deadDeg int32
				if byU {
					deadDeg = atomic.LoadInt32(&degU[e.U])
				} else {
					deadDeg = atomic.LoadInt32(&degV[e.V])
				}
				if deadDeg > 1 {
					continue
				}
				if !atomic.CompareAndSwapInt32(&alive[i], 1, 0) {
					continue
				}
				atomic.AddInt32(&degU[e.U], -1)
				atomic.AddInt32(&degV[e.V], -1)
				local++
			}
			atomic.AddInt32(&killed, local)
			return nil
		})
	}
	_ = g.Wait()
	return killed
}

// TrimSequential is the CPU reference implementation: no goroutines, no
// atomics, same degree-elimination rule. It must produce the same surviving
// set as Trim for identical inputs, per spec.md §4.2.
func TrimSequential(edges []Edge, params GraphParams) []uint32 {
	degU := make([]int32, params.NumNodes)
	degV := make([]int32, params.NumNodes)
	alive := make([]bool, len(edges))
	for i := range alive {
		alive[i] = true
	}
	for _, e := range edges {
		degU[e.U]++
		degV[e.V]++
	}

	for round := 0; round < params.TrimRounds; round++ {
		killed := 0
		for i, e := range edges {
			if !alive[i] || degU[e.U] > 1 {
				continue
			}
			alive[i] = false
			degU[e.U]--
			degV[e.V]--
			killed++
		}
		for i, e := range edges {
			if !alive[i] || degV[e.V] > 1 {
				continue
			}
			alive[i] = false
			degU[e.U]--
			degV[e.V]--
			killed++
		}
		if killed == 0 {
			break
		}
	}

	out := make([]uint32, 0, len(edges))
	for i, a := range alive {
		if a {
			out = append(out, uint32(i))
		}
	}
	return out
}

func surviving(alive []int32) []uint32 {
	out := make([]uint32, 0, len(alive))
	for i, a := range alive {
		if a == 1 {
			out = append(out, uint32(i))
		}
	}
	return out
}
