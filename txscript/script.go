package txscript

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
)

// Script tags. The locking script template is a single tag byte followed by
// the public key; the unlocking script is a bare signature with no tag
// since there is only one template.
const (
	lockingTagP2PK = 0x01

	pubKeyLen = ed25519.PublicKeySize  // 32
	sigLen    = ed25519.SignatureSize  // 64
)

// PayToPubKeyScript builds the locking script for pub: tag 0x01 followed by
// the raw 32-byte Ed25519 public key.
func PayToPubKeyScript(pub ed25519.PublicKey) ([]byte, error) {
	if len(pub) != pubKeyLen {
		return nil, fmt.Errorf("txscript: public key must be %d bytes, got %d", pubKeyLen, len(pub))
	}
	script := make([]byte, 1+pubKeyLen)
	script[0] = lockingTagP2PK
	copy(script[1:], pub)
	return script, nil
}

// ExtractPubKey parses the Ed25519 public key out of a locking script built
// by PayToPubKeyScript.
func ExtractPubKey(lockingScript []byte) (ed25519.PublicKey, error) {
	if len(lockingScript) != 1+pubKeyLen || lockingScript[0] != lockingTagP2PK {
		return nil, fmt.Errorf("txscript: locking script is not a recognized pay-to-pubkey template")
	}
	pub := make([]byte, pubKeyLen)
	copy(pub, lockingScript[1:])
	return pub, nil
}

// UnlockingScript builds the unlocking script for sig: the bare 64-byte
// Ed25519 signature.
func UnlockingScript(sig []byte) ([]byte, error) {
	if len(sig) != sigLen {
		return nil, fmt.Errorf("txscript: signature must be %d bytes, got %d", sigLen, len(sig))
	}
	out := make([]byte, sigLen)
	copy(out, sig)
	return out, nil
}

// ExtractSignature parses the Ed25519 signature out of an unlocking script
// built by UnlockingScript.
func ExtractSignature(unlockingScript []byte) ([]byte, error) {
	if len(unlockingScript) != sigLen {
		return nil, fmt.Errorf("txscript: unlocking script is not a recognized signature template")
	}
	sig := make([]byte, sigLen)
	copy(sig, unlockingScript)
	return sig, nil
}

// SigHash computes the signing/verification preimage for input inIdx of tx,
// per spec.md §4.6: the serialized transaction with every input's unlocking
// script blanked to zero bytes, followed by the input index as a little
// endian u32.
func SigHash(tx *MsgTx, inIdx int) []byte {
	blanked := &MsgTx{
		Version:  tx.Version,
		LockTime: tx.LockTime,
		TxOut:    tx.TxOut,
	}
	for _, in := range tx.TxIn {
		blanked.TxIn = append(blanked.TxIn, &TxIn{
			PreviousOutPoint: in.PreviousOutPoint,
			UnlockingScript:  nil,
		})
	}

	preimage := blanked.Serialize()
	var idxBuf [4]byte
	binary.LittleEndian.PutUint32(idxBuf[:], uint32(inIdx))
	return append(preimage, idxBuf[:]...)
}

// VerifyInput checks that input inIdx of tx is authorized to spend prevOut:
// it parses the public key from prevOut's locking script, the signature
// from the input's unlocking script, and verifies Ed25519 over SigHash.
func VerifyInput(tx *MsgTx, inIdx int, prevOut *TxOut) bool {
	if inIdx < 0 || inIdx >= len(tx.TxIn) {
		return false
	}
	pub, err := ExtractPubKey(prevOut.LockingScript)
	if err != nil {
		return false
	}
	sig, err := ExtractSignature(tx.TxIn[inIdx].UnlockingScript)
	if err != nil {
		return false
	}
	return ed25519.Verify(pub, SigHash(tx, inIdx), sig)
}
