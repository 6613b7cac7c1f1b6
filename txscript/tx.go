// Package txscript implements transaction serialization, structural
// validation, and the fixed Ed25519 pay-to-pubkey script template.
package txscript

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cuckoochain/node/chainhash"
)

// Structural limits enforced by CheckTransactionSanity. These are consensus
// constants, not configurable per network.
const (
	MaxInputsPerTx  = 10_000
	MaxOutputsPerTx = 10_000
	MaxScriptBytes  = 10_000
)

// CoinbaseVout is the fixed vout value of a coinbase's single input.
const CoinbaseVout = 0xFFFFFFFF

// OutPoint identifies a transaction output by (txid, vout), used as the key
// of the UTXO map.
type OutPoint struct {
	Hash chainhash.Hash
	Vout uint32
}

func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Vout)
}

// TxIn is a transaction input: the outpoint it spends and the unlocking
// script proving the right to spend it.
type TxIn struct {
	PreviousOutPoint OutPoint
	UnlockingScript  []byte
}

// TxOut is a transaction output: a value and the locking script that
// constrains who may spend it.
type TxOut struct {
	Value         uint64
	LockingScript []byte
}

// MsgTx is a transaction: a set of inputs spending prior outputs, a set of
// new outputs, and a locktime.
type MsgTx struct {
	Version  uint32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// NewMsgTx returns an empty transaction with the given version.
func NewMsgTx(version uint32) *MsgTx {
	return &MsgTx{Version: version}
}

// IsCoinBase reports whether tx is a coinbase: exactly one input whose
// outpoint is the all-zero hash and vout 0xFFFFFFFF.
func (tx *MsgTx) IsCoinBase() bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prev := tx.TxIn[0].PreviousOutPoint
	return prev.Hash.IsZero() && prev.Vout == CoinbaseVout
}

// Serialize encodes tx into its fixed little-endian wire form:
// version:u32, n_in:u32, (prev_txid:32, vout:u32, scriptlen:u32, script) *
// n_in, n_out:u32, (value:u64, scriptlen:u32, script) * n_out, locktime:u32.
func (tx *MsgTx) Serialize() []byte {
	size := 4 + 4 + 4
	for _, in := range tx.TxIn {
		size += 32 + 4 + 4 + len(in.UnlockingScript)
	}
	for _, out := range tx.TxOut {
		size += 8 + 4 + len(out.LockingScript)
	}
	buf := make([]byte, 0, size)

	var u32 [4]byte
	var u64 [8]byte

	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(u32[:], v)
		buf = append(buf, u32[:]...)
	}
	putU64 := func(v uint64) {
		binary.LittleEndian.PutUint64(u64[:], v)
		buf = append(buf, u64[:]...)
	}

	putU32(tx.Version)
	putU32(uint32(len(tx.TxIn)))
	for _, in := range tx.TxIn {
		buf = append(buf, in.PreviousOutPoint.Hash[:]...)
		putU32(in.PreviousOutPoint.Vout)
		putU32(uint32(len(in.UnlockingScript)))
		buf = append(buf, in.UnlockingScript...)
	}
	putU32(uint32(len(tx.TxOut)))
	for _, out := range tx.TxOut {
		putU64(out.Value)
		putU32(uint32(len(out.LockingScript)))
		buf = append(buf, out.LockingScript...)
	}
	putU32(tx.LockTime)
	return buf
}

// TxHash returns the transaction id: SHA256 of the serialized transaction.
func (tx *MsgTx) TxHash() chainhash.Hash {
	return chainhash.HashH(tx.Serialize())
}

// DeserializeTx decodes a transaction from its fixed wire form.
func DeserializeTx(b []byte) (*MsgTx, error) {
	r := &byteReader{b: b}

	version, err := r.u32()
	if err != nil {
		return nil, err
	}
	nIn, err := r.u32()
	if err != nil {
		return nil, err
	}
	if nIn > MaxInputsPerTx {
		return nil, fmt.Errorf("txscript: n_in %d exceeds MaxInputsPerTx", nIn)
	}

	tx := &MsgTx{Version: version}
	for i := uint32(0); i < nIn; i++ {
		var in TxIn
		hashBytes, err := r.bytes(32)
		if err != nil {
			return nil, err
		}
		copy(in.PreviousOutPoint.Hash[:], hashBytes)
		vout, err := r.u32()
		if err != nil {
			return nil, err
		}
		in.PreviousOutPoint.Vout = vout
		scriptLen, err := r.u32()
		if err != nil {
			return nil, err
		}
		if scriptLen > MaxScriptBytes {
			return nil, fmt.Errorf("txscript: unlocking script length %d exceeds MaxScriptBytes", scriptLen)
		}
		script, err := r.bytes(int(scriptLen))
		if err != nil {
			return nil, err
		}
		in.UnlockingScript = script
		tx.TxIn = append(tx.TxIn, &in)
	}

	nOut, err := r.u32()
	if err != nil {
		return nil, err
	}
	if nOut > MaxOutputsPerTx {
		return nil, fmt.Errorf("txscript: n_out %d exceeds MaxOutputsPerTx", nOut)
	}
	for i := uint32(0); i < nOut; i++ {
		var out TxOut
		value, err := r.u64()
		if err != nil {
			return nil, err
		}
		out.Value = value
		scriptLen, err := r.u32()
		if err != nil {
			return nil, err
		}
		if scriptLen > MaxScriptBytes {
			return nil, fmt.Errorf("txscript: locking script length %d exceeds MaxScriptBytes", scriptLen)
		}
		script, err := r.bytes(int(scriptLen))
		if err != nil {
			return nil, err
		}
		out.LockingScript = script
		tx.TxOut = append(tx.TxOut, &out)
	}

	lockTime, err := r.u32()
	if err != nil {
		return nil, err
	}
	tx.LockTime = lockTime

	return tx, nil
}

// CheckTransactionSanity enforces the structural-validity rules of spec.md
// §4.6: non-empty outputs, bounded input/output counts, bounded script
// sizes, and non-overflowing output sum. It does not touch the UTXO set.
func CheckTransactionSanity(tx *MsgTx) error {
	if len(tx.TxOut) == 0 {
		return fmt.Errorf("txscript: transaction has no outputs")
	}
	if len(tx.TxIn) > MaxInputsPerTx {
		return fmt.Errorf("txscript: transaction has %d inputs, max %d", len(tx.TxIn), MaxInputsPerTx)
	}
	if len(tx.TxOut) > MaxOutputsPerTx {
		return fmt.Errorf("txscript: transaction has %d outputs, max %d", len(tx.TxOut), MaxOutputsPerTx)
	}
	for _, in := range tx.TxIn {
		if len(in.UnlockingScript) > MaxScriptBytes {
			return fmt.Errorf("txscript: unlocking script too large")
		}
	}
	var sum uint64
	for _, out := range tx.TxOut {
		if len(out.LockingScript) > MaxScriptBytes {
			return fmt.Errorf("txscript: locking script too large")
		}
		if sum > math.MaxUint64-out.Value {
			return fmt.Errorf("txscript: output value sum overflows u64")
		}
		sum += out.Value
	}
	return nil
}

// byteReader is a minimal bounds-checked cursor over a fixed-layout byte
// slice, used by DeserializeTx instead of a general varint-aware decoder
// since spec.md's wire format carries explicit length prefixes, not
// varints.
type byteReader struct {
	b   []byte
	pos int
}

func (r *byteReader) u32() (uint32, error) {
	v, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (r *byteReader) u64() (uint64, error) {
	v, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v), nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.b) {
		return nil, fmt.Errorf("txscript: unexpected end of transaction data")
	}
	v := r.b[r.pos : r.pos+n]
	r.pos += n
	return v, nil
}
