package blockchain

import "github.com/cuckoochain/node/chaincfg"

// CalcBlockSubsidy returns the block reward at height for the given network
// parameters: BaseSubsidy right-shifted once per HalvingInterval blocks,
// floored to zero after 63 halvings, per spec.md §4.7.
func CalcBlockSubsidy(params *chaincfg.Params, height uint32) uint64 {
	return params.Subsidy(height)
}
