package blockchain

import (
	"github.com/cuckoochain/node/chaincfg"
	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/txscript"
)

// MaxTxPerBlock bounds how many transactions a block may carry.
const MaxTxPerBlock = 100_000

// checkBlockSanity runs the size/structural checks of spec.md §4.7 step 2
// that don't require chain context: serialized size, transaction count, and
// per-transaction structural validity plus no duplicate txids.
func checkBlockSanity(serializedSize, maxBlockBytes int, txs []*txscript.MsgTx) error {
	if serializedSize > maxBlockBytes {
		return ruleError(ErrBlockTooLarge, "serialized block exceeds max block size")
	}
	if len(txs) == 0 {
		return ruleError(ErrNoTransactions, "block has no transactions")
	}
	if len(txs) > MaxTxPerBlock {
		return ruleError(ErrTooManyTransactions, "block exceeds max transaction count")
	}
	seen := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		if err := txscript.CheckTransactionSanity(tx); err != nil {
			return ruleError(ErrBadTransaction, err.Error())
		}
		id := tx.TxHash()
		key := string(id[:])
		if _, ok := seen[key]; ok {
			return ruleError(ErrDuplicateTxids, "block contains duplicate txid")
		}
		seen[key] = struct{}{}
	}
	return nil
}

// applyTransactions runs the state transition of spec.md §4.7 step 6 over
// working, a mutable copy-on-write clone of the parent's UTXO set. It
// requires the first transaction to be a coinbase and every other
// transaction to be non-coinbase, spending only outpoints present in
// working (including outputs created earlier in the same block), with no
// in-block double-spend, valid Ed25519 signatures, and sum_in >= sum_out.
// The coinbase's own output total is checked against subsidy+fees only
// after every fee is known.
func applyTransactions(
	working map[txscript.OutPoint]*txscript.TxOut,
	parentUTXO map[txscript.OutPoint]*txscript.TxOut,
	txs []*txscript.MsgTx,
	height uint32,
	params *chaincfg.Params,
	sigCache *txscript.SigCache,
	enforceSignatures bool,
) error {
	if !txs[0].IsCoinBase() {
		return ruleError(ErrFirstTxNotCoinbase, "first transaction is not a coinbase")
	}
	for _, tx := range txs[1:] {
		if tx.IsCoinBase() {
			return ruleError(ErrExtraCoinbases, "only the first transaction may be a coinbase")
		}
	}

	var totalFees uint64
	for _, tx := range txs[1:] {
		var sumIn uint64
		spentOuts := make([]*txscript.TxOut, len(tx.TxIn))
		for i, in := range tx.TxIn {
			op := in.PreviousOutPoint
			prevOut, ok := working[op]
			if !ok {
				if _, existedAtParent := parentUTXO[op]; existedAtParent {
					return ruleError(ErrDoubleSpendInBlock, "outpoint already spent earlier in this block")
				}
				return ruleError(ErrMissingUTXO, "referenced outpoint not found in UTXO set")
			}
			delete(working, op)
			spentOuts[i] = prevOut
			sumIn += prevOut.Value
		}

		var sumOut uint64
		for _, out := range tx.TxOut {
			sumOut += out.Value
		}
		if sumIn < sumOut {
			return ruleError(ErrSpendTooHigh, "transaction spends more than its inputs provide")
		}
		totalFees += sumIn - sumOut

		if enforceSignatures {
			for i, prevOut := range spentOuts {
				if !verifyInputCached(tx, i, prevOut, sigCache) {
					return ruleError(ErrBadSignature, "input signature verification failed")
				}
			}
		}

		txHash := tx.TxHash()
		for i, out := range tx.TxOut {
			working[txscript.OutPoint{Hash: txHash, Vout: uint32(i)}] = out
		}
	}

	coinbase := txs[0]
	var coinbaseTotal uint64
	for _, out := range coinbase.TxOut {
		coinbaseTotal += out.Value
	}
	subsidy := CalcBlockSubsidy(params, height)
	if coinbaseTotal > subsidy+totalFees {
		return ruleError(ErrBadCoinbaseValue, "coinbase output total exceeds subsidy plus fees")
	}

	coinbaseHash := coinbase.TxHash()
	for i, out := range coinbase.TxOut {
		working[txscript.OutPoint{Hash: coinbaseHash, Vout: uint32(i)}] = out
	}

	return nil
}

// verifyInputCached checks input i of tx against prevOut, consulting and
// populating sigCache (when non-nil) so repeated mempool/block verification
// of the same signature is not re-paid.
func verifyInputCached(tx *txscript.MsgTx, i int, prevOut *txscript.TxOut, sigCache *txscript.SigCache) bool {
	if sigCache == nil {
		return txscript.VerifyInput(tx, i, prevOut)
	}

	sig, sigErr := txscript.ExtractSignature(tx.TxIn[i].UnlockingScript)
	pub, pubErr := txscript.ExtractPubKey(prevOut.LockingScript)
	if sigErr != nil || pubErr != nil {
		return false
	}
	sigHash := hashSigHash(tx, i)
	if sigCache.Exists(sigHash, sig, pub) {
		return true
	}
	if !txscript.VerifyInput(tx, i, prevOut) {
		return false
	}
	sigCache.Add(sigHash, sig, pub, tx)
	return true
}

// hashSigHash keys the signature cache on the digest of the sighash
// preimage rather than the preimage itself, since the preimage is
// potentially large (the whole blanked transaction).
func hashSigHash(tx *txscript.MsgTx, i int) chainhash.Hash {
	return chainhash.HashH(txscript.SigHash(tx, i))
}
