// Command cuckoochain exposes the mine, bench, verify, and node subcommands
// described at the CLI boundary of the consensus specification: a thin
// external collaborator around the pow/blockchain/mempool/p2p libraries.
package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// exit codes per the CLI surface contract: 0 success, 1 operation failure,
// 2 argument error.
const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

type rootOptions struct {
	globalOptions
}

func main() {
	os.Exit(run())
}

func run() int {
	var opts rootOptions
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = false

	if _, err := parser.AddCommand("mine", "mine proofs against the current tip or a supplied header", "", &mineCmd{opts: &opts.globalOptions}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if _, err := parser.AddCommand("bench", "benchmark edge generation, trimming, and cycle search", "", &benchCmd{opts: &opts.globalOptions}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if _, err := parser.AddCommand("verify", "verify a proof file against a graph epoch", "", &verifyCmd{opts: &opts.globalOptions}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if _, err := parser.AddCommand("node", "run a full node: chainstate, mempool, and P2P service", "", &nodeCmd{opts: &opts.globalOptions}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return exitSuccess
		}
		if _, ok := err.(*flags.Error); ok {
			return exitUsage
		}
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitSuccess
}
