package chaincfg

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/pow"
)

func TestGenesisBlockDeterministic(t *testing.T) {
	a := MainNetParams()
	b := MainNetParams()
	require.Equal(t, a.GenesisHash, b.GenesisHash, "two independently constructed mainnet genesis blocks must hash identically")
	require.Equal(t, a.GenesisBlock.Serialize(), b.GenesisBlock.Serialize(), "two independently constructed mainnet genesis blocks must serialize identically")
}

func TestGenesisBlockHashMatchesHeader(t *testing.T) {
	p := MainNetParams()
	if p.GenesisHash != p.GenesisBlock.BlockHash() {
		t.Fatal("GenesisHash must match the genesis block's own header hash")
	}
}

func TestMainNetAndRegNetGenesisDiffer(t *testing.T) {
	main := MainNetParams()
	reg := RegNetParams()
	if main.GenesisHash == reg.GenesisHash {
		t.Fatal("mainnet and regtest genesis blocks must not collide")
	}
}

func TestGraphParamsForHeightSelectsLatestEligibleEpoch(t *testing.T) {
	seed0 := chainhash.HashH([]byte("epoch-0"))
	seed1 := chainhash.HashH([]byte("epoch-1"))
	p := &Params{
		GraphEpochs: []EpochSpec{
			{StartHeight: 0, Seed: seed0},
			{StartHeight: 100, Seed: seed1},
		},
	}

	got := p.GraphParamsForHeight(50)
	want := pow.DeriveEpochParams(seed0)
	if !reflect.DeepEqual(got, want) {
		t.Fatal("height before the second epoch's start must use the first epoch's params")
	}

	got = p.GraphParamsForHeight(100)
	want = pow.DeriveEpochParams(seed1)
	if !reflect.DeepEqual(got, want) {
		t.Fatal("height exactly at the second epoch's start must use the second epoch's params")
	}

	got = p.GraphParamsForHeight(1_000_000)
	if !reflect.DeepEqual(got, want) {
		t.Fatal("height far past the last epoch's start must still use the last epoch's params")
	}
}

func TestSubsidyHalvingSchedule(t *testing.T) {
	p := &Params{BaseSubsidy: 50 * 1e8, HalvingInterval: 100}

	require.EqualValues(t, 50*1e8, p.Subsidy(0))
	require.EqualValues(t, 50*1e8, p.Subsidy(99), "still within the first interval")
	require.EqualValues(t, 25*1e8, p.Subsidy(100), "first halving")
	require.EqualValues(t, 0, p.Subsidy(100*64), "floored to zero after 64 halvings")
}

func TestRegNetParamsUsableForTesting(t *testing.T) {
	p := RegNetParams()
	if p.MinTarget.Cmp(MainNetParams().MinTarget) <= 0 {
		t.Fatal("regtest's minimum target must be looser (easier) than mainnet's")
	}
}
