package main

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/cuckoochain/node/chaincfg"
	"github.com/cuckoochain/node/pow"
)

// benchCmd implements `cuckoochain bench`: times edge generation, trimming,
// and cycle search over a fixed number of random headers, reporting
// per-stage throughput. A thin harness, deliberately out of scope for deep
// logic per the CLI surface's own boundary note.
type benchCmd struct {
	opts *globalOptions

	Iterations int `short:"i" long:"iterations" description:"number of headers to mine against" default:"3"`
}

func (c *benchCmd) Execute(_ []string) error {
	var params *chaincfg.Params
	switch c.opts.Network {
	case "regtest":
		params = chaincfg.RegNetParams()
	default:
		params = chaincfg.MainNetParams()
	}
	graphParams := params.GraphParamsForHeight(0)

	fmt.Printf("graph params: num_edges=%d matrix_dim=%d trim_rounds=%d scratchpad_bytes=%d\n",
		graphParams.NumEdges, graphParams.MatrixDim, graphParams.TrimRounds, graphParams.ScratchpadBytes)

	var totalGen, totalTrim, totalCycle time.Duration
	found := 0

	for i := 0; i < c.Iterations; i++ {
		var header [pow.HeaderSize]byte
		if _, err := rand.Read(header[:]); err != nil {
			return err
		}

		gen := pow.NewGenerator(graphParams)

		t0 := time.Now()
		edges := gen.Full(header[:], uint64(i))
		t1 := time.Now()

		survivors := pow.Trim(edges, graphParams)
		t2 := time.Now()

		_, ok := pow.FindCycle(edges, survivors)
		t3 := time.Now()

		if ok {
			found++
		}

		totalGen += t1.Sub(t0)
		totalTrim += t2.Sub(t1)
		totalCycle += t3.Sub(t2)

		fmt.Printf("iter %d: gen=%s trim=%s (%d survivors) cycle=%s found=%v\n",
			i, t1.Sub(t0), t2.Sub(t1), len(survivors), t3.Sub(t2), ok)
	}

	fmt.Printf("totals: gen=%s trim=%s cycle=%s cycles_found=%d/%d\n",
		totalGen, totalTrim, totalCycle, found, c.Iterations)
	return nil
}
