// Package chaincfg defines chain-wide consensus parameters: per-epoch
// proof-of-work graph parameters, subsidy and retarget schedule, checkpoints,
// and the genesis block, for each supported network.
package chaincfg
