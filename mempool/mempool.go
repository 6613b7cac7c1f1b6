// Package mempool implements transaction admission and conflict tracking
// for not-yet-mined transactions.
package mempool

import (
	"fmt"
	"sync"

	"github.com/decred/slog"

	"github.com/cuckoochain/node/chainhash"
	"github.com/cuckoochain/node/txscript"
)

// log is the package-wide subsystem logger.
var log = slog.Disabled

// UseLogger sets the logger used by this package.
func UseLogger(logger slog.Logger) {
	log = logger
}

// Limits bounds mempool admission, per spec.md §4.8.
type Limits struct {
	MaxTxBytes int
	MaxEntries int
}

// ChainView is the read-only handle the mempool holds on chainstate for
// UTXO queries, per spec.md §3's Ownership note: the mempool exclusively
// owns its entries but does not own chain state.
type ChainView interface {
	UTXOSnapshot() map[txscript.OutPoint]*txscript.TxOut
}

// entry is a MempoolEntry: a transaction plus the outpoints it spends. No
// two entries may share an outpoint, and no entry may be a coinbase.
type entry struct {
	tx       *txscript.MsgTx
	outpoints map[txscript.OutPoint]struct{}
}

// Pool is the serialized-actor mempool: a single mutex linearizes admission
// and removal so the duplicate/capacity/conflict checks in Admit are never
// interleaved with a concurrent Admit or RemoveByTxid.
type Pool struct {
	mu sync.Mutex

	limits Limits
	chain  ChainView

	allowUnconfirmedParents bool

	entries       map[chainhash.Hash]*entry
	spentOutpoint map[txscript.OutPoint]chainhash.Hash
}

// New creates an empty Pool bounded by limits, consulting chain for
// tip-UTXO checks during admission.
func New(limits Limits, chain ChainView, allowUnconfirmedParents bool) *Pool {
	return &Pool{
		limits:                  limits,
		chain:                   chain,
		allowUnconfirmedParents: allowUnconfirmedParents,
		entries:                 make(map[chainhash.Hash]*entry),
		spentOutpoint:           make(map[txscript.OutPoint]chainhash.Hash),
	}
}

// AdmitResult discriminates Admit's outcome.
type AdmitResult int

const (
	AdmitResultAccepted AdmitResult = iota
	AdmitResultDuplicate
	AdmitResultRejected
)

// Admit runs the admission pipeline of spec.md §4.8, in order.
func (p *Pool) Admit(tx *txscript.MsgTx) (AdmitResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := txscript.CheckTransactionSanity(tx); err != nil {
		return AdmitResultRejected, err
	}
	if tx.IsCoinBase() {
		return AdmitResultRejected, fmt.Errorf("mempool: coinbase transactions are not admitted")
	}
	if len(tx.TxIn) == 0 {
		return AdmitResultRejected, fmt.Errorf("mempool: transaction has no inputs")
	}
	if len(tx.Serialize()) > p.limits.MaxTxBytes {
		return AdmitResultRejected, fmt.Errorf("mempool: transaction exceeds max size")
	}

	txid := tx.TxHash()
	if _, ok := p.entries[txid]; ok {
		return AdmitResultDuplicate, nil
	}
	if len(p.entries) >= p.limits.MaxEntries {
		return AdmitResultRejected, fmt.Errorf("mempool: at capacity")
	}

	outpoints := make(map[txscript.OutPoint]struct{}, len(tx.TxIn))
	for _, in := range tx.TxIn {
		op := in.PreviousOutPoint
		if _, dup := outpoints[op]; dup {
			return AdmitResultRejected, fmt.Errorf("mempool: transaction spends the same outpoint twice")
		}
		outpoints[op] = struct{}{}
		if owner, collides := p.spentOutpoint[op]; collides {
			return AdmitResultRejected, fmt.Errorf("mempool: outpoint already spent by pending tx %s", owner)
		}
	}

	if p.chain != nil {
		utxo := p.chain.UTXOSnapshot()
		var sumIn, sumOut uint64
		missing := false
		spentOuts := make([]*txscript.TxOut, len(tx.TxIn))
		for i, in := range tx.TxIn {
			out, ok := utxo[in.PreviousOutPoint]
			if !ok {
				missing = true
				continue
			}
			spentOuts[i] = out
			sumIn += out.Value
		}
		if missing {
			if !p.allowUnconfirmedParents {
				return AdmitResultRejected, fmt.Errorf("mempool: referenced outpoint not found in current UTXO set")
			}
			// Unconfirmed-parents mode tolerates missing inputs but does
			// not admit the transaction under current policy.
			return AdmitResultRejected, fmt.Errorf("mempool: unconfirmed parent, not admitted under current policy")
		}
		for _, out := range tx.TxOut {
			sumOut += out.Value
		}
		if sumIn < sumOut {
			return AdmitResultRejected, fmt.Errorf("mempool: negative fee")
		}
		for i, out := range spentOuts {
			if !txscript.VerifyInput(tx, i, out) {
				return AdmitResultRejected, fmt.Errorf("mempool: input signature verification failed")
			}
		}
	}

	p.entries[txid] = &entry{tx: tx, outpoints: outpoints}
	for op := range outpoints {
		p.spentOutpoint[op] = txid
	}
	log.Debugf("admitted tx %s to mempool (%d entries)", txid, len(p.entries))
	return AdmitResultAccepted, nil
}

// RemoveByTxid evicts the entry for txid, if present, freeing the outpoints
// it held. The P2P service calls this for every transaction of each block
// the chainstate accepts, whether or not that block becomes the best tip;
// the chainstate itself does not call it, and transactions of blocks
// disconnected by a reorganisation are not returned to the pool.
func (p *Pool) RemoveByTxid(txid chainhash.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.removeLocked(txid)
}

func (p *Pool) removeLocked(txid chainhash.Hash) {
	e, ok := p.entries[txid]
	if !ok {
		return
	}
	for op := range e.outpoints {
		delete(p.spentOutpoint, op)
	}
	delete(p.entries, txid)
}

// Size returns the number of entries currently held.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Get returns the transaction for txid, if present.
func (p *Pool) Get(txid chainhash.Hash) (*txscript.MsgTx, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[txid]
	if !ok {
		return nil, false
	}
	return e.tx, true
}
