package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/pow"
)

// mineCmd implements `cuckoochain mine`: repeatedly tries nonces against a
// header until a proof satisfying the target is found, or MaxNonces is
// exhausted.
type mineCmd struct {
	opts *globalOptions

	HeaderHex  string `long:"header" description:"hex-encoded 80-byte header to mine against" required:"true"`
	Height     uint32 `long:"height" description:"block height the header will be mined at, selecting the graph epoch" default:"0"`
	MaxNonces  uint64 `long:"max-nonces" description:"stop after this many nonces" default:"1000000"`
	OutputFile string `short:"o" long:"output" description:"path to write the winning proof's 120-byte serialization" default:"proof.bin"`
}

func (c *mineCmd) Execute(_ []string) error {
	params, err := c.opts.params()
	if err != nil {
		return err
	}
	dataDir, err := c.opts.dataDir()
	if err != nil {
		return err
	}
	closer, err := initLogging(dataDir, c.opts.LogLevel)
	if err != nil {
		return err
	}
	defer closer.Close()

	header, err := decodeHeaderHex(c.HeaderHex)
	if err != nil {
		return err
	}

	graphParams := params.GraphParamsForHeight(c.Height)
	bits := pow.HeaderBits(header)
	target := pow.CompactToTarget(bits)

	gen := pow.NewGenerator(graphParams)

	start := time.Now()
	for nonce := uint64(0); nonce < c.MaxNonces; nonce++ {
		edges := gen.Full(header[:], nonce)
		survivors := pow.Trim(edges, graphParams)
		cycleEdges, found := pow.FindCycle(edges, survivors)
		if !found {
			continue
		}

		proof := pow.Proof{Header: header, Nonce: nonce, CycleEdges: cycleEdges}
		digest := chainhash.HashH(proof.Serialize())
		if !target.Satisfies(digest) {
			continue
		}

		if err := os.WriteFile(c.OutputFile, proof.Serialize(), 0o644); err != nil {
			return err
		}
		fmt.Printf("found proof at nonce %d after %s, written to %s\n", nonce, time.Since(start), c.OutputFile)
		return nil
	}
	return fmt.Errorf("mine: exhausted %d nonces without finding a satisfying proof", c.MaxNonces)
}

func decodeHeaderHex(s string) ([pow.HeaderSize]byte, error) {
	var out [pow.HeaderSize]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != pow.HeaderSize {
		return out, fmt.Errorf("header must be exactly %d bytes, got %d", pow.HeaderSize, len(b))
	}
	copy(out[:], b)
	return out, nil
}
