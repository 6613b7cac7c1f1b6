package pow

import "fmt"

// ErrorCode discriminates the reasons a Proof can fail verification,
// following the teacher's ruleError/ErrorCode pattern (blockchain's
// ruleError(ErrBlockOneTx, ...)).
type ErrorCode int

const (
	// ErrStructural covers malformed proof shape: wrong length, a
	// repeated or out-of-range cycle edge index.
	ErrStructural ErrorCode = iota
	// ErrBitsMismatch is returned when a caller-supplied expected_bits
	// does not match the header's bits field.
	ErrBitsMismatch
	// ErrBelowMinDifficulty is returned when the header's target is
	// easier than the policy minimum.
	ErrBelowMinDifficulty
	// ErrInsufficientWork is returned when the proof hash does not meet
	// its own target.
	ErrInsufficientWork
	// ErrNotACycle is returned when the claimed 8 edges do not form a
	// valid 8-cycle.
	ErrNotACycle
	// ErrDidNotSurviveTrim is returned when a cycle edge does not survive
	// trimming of the full edge set.
	ErrDidNotSurviveTrim
)

func (c ErrorCode) String() string {
	switch c {
	case ErrStructural:
		return "structural"
	case ErrBitsMismatch:
		return "bits-mismatch"
	case ErrBelowMinDifficulty:
		return "below-min-difficulty"
	case ErrInsufficientWork:
		return "insufficient-work"
	case ErrNotACycle:
		return "not-a-cycle"
	case ErrDidNotSurviveTrim:
		return "did-not-survive-trim"
	default:
		return "unknown"
	}
}

// Error is the verifier's discriminated failure result.
type Error struct {
	Code        ErrorCode
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pow: %s: %s", e.Code, e.Description)
}

func ruleError(code ErrorCode, desc string) error {
	return &Error{Code: code, Description: desc}
}
