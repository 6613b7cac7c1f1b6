package blockchain

import (
	"crypto/ed25519"
	"testing"

	"github.com/cuckoochain/node/chaincfg"
	"github.com/cuckoochain/node/txscript"
)

func makeCoinbase(value uint64, script []byte) *txscript.MsgTx {
	return &txscript.MsgTx{
		Version: 1,
		TxIn: []*txscript.TxIn{{
			PreviousOutPoint: txscript.OutPoint{Vout: txscript.CoinbaseVout},
		}},
		TxOut: []*txscript.TxOut{{Value: value, LockingScript: script}},
	}
}

func TestCheckBlockSanity(t *testing.T) {
	coinbase := makeCoinbase(50*1e8, []byte{0x01})

	if err := checkBlockSanity(100, 1000, []*txscript.MsgTx{coinbase}); err != nil {
		t.Fatalf("expected a sane block to pass, got %v", err)
	}
	if err := checkBlockSanity(1001, 1000, []*txscript.MsgTx{coinbase}); err == nil {
		t.Fatal("expected an oversized block to be rejected")
	}
	if err := checkBlockSanity(100, 1000, nil); err == nil {
		t.Fatal("expected a block with no transactions to be rejected")
	}
	if err := checkBlockSanity(100, 1000, []*txscript.MsgTx{coinbase, coinbase}); err == nil {
		t.Fatal("expected duplicate txids within a block to be rejected")
	}
}

func TestApplyTransactionsCoinbaseOnly(t *testing.T) {
	params := chaincfg.RegNetParams()
	working := make(map[txscript.OutPoint]*txscript.TxOut)
	parentUTXO := make(map[txscript.OutPoint]*txscript.TxOut)
	coinbase := makeCoinbase(params.Subsidy(1), []byte{0x01})

	err := applyTransactions(working, parentUTXO, []*txscript.MsgTx{coinbase}, 1, params, nil, false)
	if err != nil {
		t.Fatalf("expected a coinbase-only block within subsidy to be accepted, got %v", err)
	}
	if len(working) != 1 {
		t.Fatalf("expected one UTXO entry after applying the coinbase, got %d", len(working))
	}
}

func TestApplyTransactionsRejectsExcessiveCoinbase(t *testing.T) {
	params := chaincfg.RegNetParams()
	working := make(map[txscript.OutPoint]*txscript.TxOut)
	parentUTXO := make(map[txscript.OutPoint]*txscript.TxOut)
	coinbase := makeCoinbase(params.Subsidy(1)+1, []byte{0x01})

	err := applyTransactions(working, parentUTXO, []*txscript.MsgTx{coinbase}, 1, params, nil, false)
	assertRuleErrCode(t, err, ErrBadCoinbaseValue)
}

func TestApplyTransactionsRejectsMissingUTXO(t *testing.T) {
	params := chaincfg.RegNetParams()
	working := make(map[txscript.OutPoint]*txscript.TxOut)
	parentUTXO := make(map[txscript.OutPoint]*txscript.TxOut)
	coinbase := makeCoinbase(params.Subsidy(1), []byte{0x01})
	spender := &txscript.MsgTx{
		TxIn:  []*txscript.TxIn{{PreviousOutPoint: txscript.OutPoint{Vout: 0}}},
		TxOut: []*txscript.TxOut{{Value: 1}},
	}

	err := applyTransactions(working, parentUTXO, []*txscript.MsgTx{coinbase, spender}, 1, params, nil, false)
	assertRuleErrCode(t, err, ErrMissingUTXO)
}

func TestApplyTransactionsSpendAndFee(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	params := chaincfg.RegNetParams()
	lockingScript, err := txscript.PayToPubKeyScript(pub)
	if err != nil {
		t.Fatal(err)
	}

	fundingTx := &txscript.MsgTx{
		TxIn:  []*txscript.TxIn{{PreviousOutPoint: txscript.OutPoint{Vout: txscript.CoinbaseVout}}},
		TxOut: []*txscript.TxOut{{Value: 1000, LockingScript: lockingScript}},
	}
	fundingOutpoint := txscript.OutPoint{Hash: fundingTx.TxHash(), Vout: 0}
	parentUTXO := map[txscript.OutPoint]*txscript.TxOut{fundingOutpoint: fundingTx.TxOut[0]}
	working := map[txscript.OutPoint]*txscript.TxOut{fundingOutpoint: fundingTx.TxOut[0]}

	spend := &txscript.MsgTx{
		TxIn:  []*txscript.TxIn{{PreviousOutPoint: fundingOutpoint}},
		TxOut: []*txscript.TxOut{{Value: 900, LockingScript: []byte{0x01}}},
	}
	sigHash := txscript.SigHash(spend, 0)
	sig := ed25519.Sign(priv, sigHash)
	unlockingScript, err := txscript.UnlockingScript(sig)
	if err != nil {
		t.Fatal(err)
	}
	spend.TxIn[0].UnlockingScript = unlockingScript

	coinbase := makeCoinbase(params.Subsidy(1)+100, []byte{0x01}) // subsidy + 100 fee

	err = applyTransactions(working, parentUTXO, []*txscript.MsgTx{coinbase, spend}, 1, params, nil, true)
	if err != nil {
		t.Fatalf("expected a correctly signed spend with matching fee to be accepted, got %v", err)
	}
	if _, stillThere := working[fundingOutpoint]; stillThere {
		t.Fatal("expected the spent outpoint to be removed from the working UTXO set")
	}
}

func TestApplyTransactionsRejectsBadSignature(t *testing.T) {
	_, wrongPriv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	params := chaincfg.RegNetParams()
	lockingScript, err := txscript.PayToPubKeyScript(pub)
	if err != nil {
		t.Fatal(err)
	}

	fundingTx := &txscript.MsgTx{
		TxOut: []*txscript.TxOut{{Value: 1000, LockingScript: lockingScript}},
	}
	fundingOutpoint := txscript.OutPoint{Hash: fundingTx.TxHash(), Vout: 0}
	parentUTXO := map[txscript.OutPoint]*txscript.TxOut{fundingOutpoint: fundingTx.TxOut[0]}
	working := map[txscript.OutPoint]*txscript.TxOut{fundingOutpoint: fundingTx.TxOut[0]}

	spend := &txscript.MsgTx{
		TxIn:  []*txscript.TxIn{{PreviousOutPoint: fundingOutpoint}},
		TxOut: []*txscript.TxOut{{Value: 900, LockingScript: []byte{0x01}}},
	}
	sigHash := txscript.SigHash(spend, 0)
	sig := ed25519.Sign(wrongPriv, sigHash) // signed with the wrong key
	unlockingScript, err := txscript.UnlockingScript(sig)
	if err != nil {
		t.Fatal(err)
	}
	spend.TxIn[0].UnlockingScript = unlockingScript

	coinbase := makeCoinbase(params.Subsidy(1), []byte{0x01})
	err = applyTransactions(working, parentUTXO, []*txscript.MsgTx{coinbase, spend}, 1, params, nil, true)
	assertRuleErrCode(t, err, ErrBadSignature)
}
