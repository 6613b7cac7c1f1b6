package chaincfg

import (
	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/pow"
	"github.com/cuckoochain/node/txscript"
	"github.com/cuckoochain/node/wire"
)

// EpochSpec names the height at which a new proof-of-work epoch seed takes
// effect. Graph parameters for any height are derived from the seed of the
// latest epoch whose StartHeight is <= that height, via
// pow.DeriveEpochParams.
type EpochSpec struct {
	StartHeight uint32
	Seed        [32]byte
}

// Checkpoint pins a known-good (height, hash) pair: the chainstate rejects
// any block at that height whose hash differs. Replay still re-validates
// every persisted block; checkpoints do not skip any validation.
type Checkpoint struct {
	Height uint32
	Hash   chainhash.Hash
}

// Params bundles every network-specific consensus and policy constant.
type Params struct {
	Name        string
	NetworkID   string
	DefaultPort string

	GraphEpochs []EpochSpec

	BaseSubsidy        uint64
	HalvingInterval    uint32
	TargetBlockSeconds int64

	BlocksPerAdjustment uint32
	MaxFutureSeconds    int64
	MaxBlockBytes       int

	MinTarget pow.Target

	Checkpoints []Checkpoint

	// GraphParamsOverride, when non-nil, is used for every height instead
	// of deriving from GraphEpochs. Regression-test networks pin this to a
	// small, cheap-to-mine shape so local testing never has to run the
	// largest graph the seed derivation could produce.
	GraphParamsOverride *pow.GraphParams

	GenesisBlock *wire.MsgBlock
	GenesisHash  chainhash.Hash
}

// GraphParamsForHeight resolves the pow.GraphParams in effect at height,
// selecting the latest epoch whose StartHeight does not exceed it, unless
// GraphParamsOverride is set.
func (p *Params) GraphParamsForHeight(height uint32) pow.GraphParams {
	if p.GraphParamsOverride != nil {
		return *p.GraphParamsOverride
	}
	seed := p.GraphEpochs[0].Seed
	for _, e := range p.GraphEpochs {
		if e.StartHeight > height {
			break
		}
		seed = e.Seed
	}
	return pow.DeriveEpochParams(seed)
}

// Subsidy returns the block reward at height: BaseSubsidy halved every
// HalvingInterval blocks, floored to zero after 63 halvings.
func (p *Params) Subsidy(height uint32) uint64 {
	halvings := height / p.HalvingInterval
	if halvings >= 64 {
		return 0
	}
	return p.BaseSubsidy >> halvings
}

// regNetGraphParams pins the regression-test network to the smallest legal
// graph shape (2^23 edges, an 8x8 matrix, the trim-round floor) and the
// smallest legal scratchpad, so a local test node never has to mine or
// verify against the largest shape pow.DeriveEpochParams could otherwise
// hand it, mirroring the way the teacher's simnet relaxes mainnet's PoW
// difficulty for local development.
var regNetGraphParams = pow.GraphParams{
	ScratchpadBytes: 12 * 1024 * 1024,
	NumEdges:        1 << 23,
	NumNodes:        1 << 22,
	NodeMask:        1<<22 - 1,
	MatrixDim:       8,
	TrimRounds:      60,
}

// genesisMinTargetBits is the compact encoding of the easiest permitted
// mainnet/regtest target: exponent 0x1e (30), coefficient 0x00ffff, the
// conventional maximum-target starting point carried over from the
// teacher's own PowLimit construction.
const genesisMinTargetBits = 0x1e00ffff

// unspendableGenesisPubKey is the all-zero 32-byte Ed25519 "public key"
// used for the genesis coinbase output. No private key produces a valid
// Ed25519 signature against it, so the genesis payout is permanently
// unspendable; only its presence (and the chain's first-block invariants)
// matter.
var unspendableGenesisPubKey [32]byte

func buildGenesisBlock(networkID string, timestamp uint32, bits uint32) *wire.MsgBlock {
	lockingScript, err := txscript.PayToPubKeyScript(unspendableGenesisPubKey[:])
	if err != nil {
		panic(err)
	}

	coinbase := &txscript.MsgTx{
		Version: 1,
		TxIn: []*txscript.TxIn{{
			PreviousOutPoint: txscript.OutPoint{
				Hash: chainhash.Hash{},
				Vout: txscript.CoinbaseVout,
			},
			UnlockingScript: []byte(networkID + "-genesis"),
		}},
		TxOut: []*txscript.TxOut{{
			Value:         0,
			LockingScript: lockingScript,
		}},
		LockTime: 0,
	}

	header := wire.BlockHeader{
		Version:    1,
		PrevHash:   chainhash.Hash{},
		MerkleRoot: wire.MerkleRoot([]*txscript.MsgTx{coinbase}),
		Timestamp:  timestamp,
		Bits:       bits,
	}

	return &wire.MsgBlock{
		Header:       header,
		Nonce:        0,
		CycleEdges:   [pow.CycleLength]uint32{},
		Transactions: []*txscript.MsgTx{coinbase},
	}
}

// MainNetParams returns the consensus parameters for the production
// network.
func MainNetParams() *Params {
	genesis := buildGenesisBlock("cuckoochain-mainnet", 1700000000, genesisMinTargetBits)

	p := &Params{
		Name:        "mainnet",
		NetworkID:   "cuckoochain-mainnet",
		DefaultPort: "9833",

		GraphEpochs: []EpochSpec{
			{StartHeight: 0, Seed: chainhash.HashH([]byte("cuckoochain-mainnet-epoch-0"))},
		},

		BaseSubsidy:        50 * 1e8,
		HalvingInterval:    210_000,
		TargetBlockSeconds: 120,

		BlocksPerAdjustment: 2016,
		MaxFutureSeconds:    2 * 60 * 60,
		MaxBlockBytes:       4 * 1024 * 1024,

		MinTarget: pow.CompactToTarget(genesisMinTargetBits),

		Checkpoints: []Checkpoint{},

		GenesisBlock: genesis,
		GenesisHash:  genesis.BlockHash(),
	}
	return p
}

// RegNetParams returns consensus parameters for a local regression-test
// network: trivial difficulty and a short halving interval so tests don't
// need to mine real proofs of meaningful difficulty.
func RegNetParams() *Params {
	genesis := buildGenesisBlock("cuckoochain-regtest", 1700000000, 0x207fffff)

	p := &Params{
		Name:        "regtest",
		NetworkID:   "cuckoochain-regtest",
		DefaultPort: "19833",

		GraphEpochs: []EpochSpec{
			{StartHeight: 0, Seed: chainhash.HashH([]byte("cuckoochain-regtest-epoch-0"))},
		},
		GraphParamsOverride: &regNetGraphParams,

		BaseSubsidy:        50 * 1e8,
		HalvingInterval:    150,
		TargetBlockSeconds: 1,

		BlocksPerAdjustment: 2016,
		MaxFutureSeconds:    2 * 60 * 60,
		MaxBlockBytes:       4 * 1024 * 1024,

		MinTarget: pow.CompactToTarget(0x207fffff),

		Checkpoints: []Checkpoint{},

		GenesisBlock: genesis,
		GenesisHash:  genesis.BlockHash(),
	}
	return p
}
