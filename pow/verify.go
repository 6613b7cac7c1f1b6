package pow

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// bitsOffset is the byte offset of the bits field within an 80-byte header
// (version:4, prev_hash:32, merkle_root:32, timestamp:4, bits:4).
const bitsOffset = 72

// HeaderBits extracts the compact difficulty bits from a serialized 80-byte
// header.
func HeaderBits(header [HeaderSize]byte) uint32 {
	return binary.LittleEndian.Uint32(header[bitsOffset : bitsOffset+4])
}

// VerifyOptions configures the ordered checks in Verify. Callers doing a
// structural-only or replay-light check (mining loop self-check, RPC
// "is this a cycle" debug query) set CycleOnly to skip the difficulty and
// trim-survival steps.
type VerifyOptions struct {
	// ExpectedBits, if non-zero, must equal the header's bits field
	// (step 2). Zero means "don't check".
	ExpectedBits uint32
	// PolicyMinTarget is the network's easiest permitted target (step 3).
	PolicyMinTarget Target
	// CycleOnly skips steps 2-4 and 7: bits/target/hash-meets-target and
	// trim-survival are not checked, only cycle structure. Not part of
	// consensus; for debugging and tests only.
	CycleOnly bool
}

// Verify runs the ordered fatal checks of spec.md §4.5 against proof, using
// params to regenerate the edge set proof claims to have mined against.
// Each failure returns immediately with a typed *Error.
func Verify(proof Proof, params GraphParams, opts VerifyOptions) error {
	if !proof.DistinctAndInRange(params.NumEdges) {
		return ruleError(ErrStructural, "cycle edges must be distinct and < num_edges")
	}

	bits := HeaderBits(proof.Header)

	if !opts.CycleOnly {
		if opts.ExpectedBits != 0 && bits != opts.ExpectedBits {
			return ruleError(ErrBitsMismatch, fmt.Sprintf("header bits %08x != expected %08x", bits, opts.ExpectedBits))
		}

		target := CompactToTarget(bits)
		if target.Cmp(opts.PolicyMinTarget) > 0 {
			return ruleError(ErrBelowMinDifficulty, "header target is easier than the policy minimum")
		}

		digest := sha256.Sum256(proof.Serialize())
		if !target.Satisfies(digest) {
			return ruleError(ErrInsufficientWork, "proof hash does not meet target")
		}
	}

	gen := NewGenerator(params)
	edges := gen.Full(proof.Header[:], proof.Nonce)

	if !FormsValidCycle(edges, proof.CycleEdges) {
		return ruleError(ErrNotACycle, "cycle edges do not form a single valid 8-cycle")
	}

	if !opts.CycleOnly {
		survivors := Trim(edges, params)
		surviveSet := make(map[uint32]struct{}, len(survivors))
		for _, s := range survivors {
			surviveSet[s] = struct{}{}
		}
		for _, idx := range proof.CycleEdges {
			if _, ok := surviveSet[idx]; !ok {
				return ruleError(ErrDidNotSurviveTrim, "cycle edge did not survive trimming")
			}
		}
	}

	return nil
}

// VerifyCycleOnly runs only the structural cycle check (steps 1, 5, 6),
// using partial edge replay so callers don't need to regenerate the full
// edge set. This is the debug interface of spec.md §4.5's final paragraph
// and carries no consensus weight.
func VerifyCycleOnly(proof Proof, params GraphParams) error {
	if !proof.DistinctAndInRange(params.NumEdges) {
		return ruleError(ErrStructural, "cycle edges must be distinct and < num_edges")
	}

	gen := NewGenerator(params)
	replayed := gen.ReplayIndices(proof.Header[:], proof.Nonce, proof.CycleEdges[:])

	full := make([]Edge, params.NumEdges)
	for idx, e := range replayed {
		full[idx] = e
	}

	if !FormsValidCycle(full, proof.CycleEdges) {
		return ruleError(ErrNotACycle, "cycle edges do not form a single valid 8-cycle")
	}
	return nil
}
