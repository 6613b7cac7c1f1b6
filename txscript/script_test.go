package txscript

import (
	"crypto/ed25519"
	"testing"
)

func TestPayToPubKeyScriptRoundTrip(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	script, err := PayToPubKeyScript(pub)
	if err != nil {
		t.Fatalf("PayToPubKeyScript: %v", err)
	}
	got, err := ExtractPubKey(script)
	if err != nil {
		t.Fatalf("ExtractPubKey: %v", err)
	}
	if !got.Equal(pub) {
		t.Fatal("extracted public key does not match original")
	}
}

func TestUnlockingScriptRoundTrip(t *testing.T) {
	sig := make([]byte, ed25519.SignatureSize)
	for i := range sig {
		sig[i] = byte(i)
	}
	script, err := UnlockingScript(sig)
	if err != nil {
		t.Fatalf("UnlockingScript: %v", err)
	}
	got, err := ExtractSignature(script)
	if err != nil {
		t.Fatalf("ExtractSignature: %v", err)
	}
	if string(got) != string(sig) {
		t.Fatal("extracted signature does not match original")
	}
}

func TestVerifyInputValidAndInvalid(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	lockingScript, err := PayToPubKeyScript(pub)
	if err != nil {
		t.Fatal(err)
	}
	prevOut := &TxOut{Value: 500, LockingScript: lockingScript}

	tx := sampleTx()
	tx.TxOut[0].LockingScript = lockingScript

	sigHash := SigHash(tx, 0)
	sig := ed25519.Sign(priv, sigHash)
	unlockingScript, err := UnlockingScript(sig)
	if err != nil {
		t.Fatal(err)
	}
	tx.TxIn[0].UnlockingScript = unlockingScript

	if !VerifyInput(tx, 0, prevOut) {
		t.Fatal("expected a correctly signed input to verify")
	}

	// Mutating any field covered by SigHash invalidates the signature.
	tx.TxOut[0].Value += 1
	if VerifyInput(tx, 0, prevOut) {
		t.Fatal("expected signature to be invalidated by a changed output value")
	}
}

func TestSigHashBlanksUnlockingScripts(t *testing.T) {
	tx := sampleTx()
	tx.TxIn[0].UnlockingScript = []byte{0xde, 0xad, 0xbe, 0xef}
	withSig := SigHash(tx, 0)

	tx2 := sampleTx()
	tx2.TxIn[0].UnlockingScript = []byte{0x00}
	withDifferentSig := SigHash(tx2, 0)

	if string(withSig) != string(withDifferentSig) {
		t.Fatal("SigHash must not depend on the unlocking script's contents")
	}
}
