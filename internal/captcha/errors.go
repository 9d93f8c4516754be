package captcha

import (
	"errors"
	"fmt"
)

// ErrInvalidSize indicates a challenge size below MinSize.
var ErrInvalidSize = fmt.Errorf("challenge size must be at least %d", MinSize)

// ErrInvalidDifficulty indicates a difficulty outside easy..hard.
var ErrInvalidDifficulty = errors.New("difficulty must be easy, normal or hard")

// ErrInvalidProfile indicates operand bounds that cannot keep expressions bounded.
var ErrInvalidProfile = errors.New("profile must satisfy 0 <= min <= max <= max_abs <= 2147483647")

// ErrInvalidKind indicates an unknown captcha kind.
var ErrInvalidKind = errors.New("captcha kind must be expression or string")

// FormatError reports a challenge string that does not match the expression grammar,
// or one that cannot be evaluated (division by zero).
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed challenge %q: %s", e.Input, e.Reason)
}

// InvariantError reports a generator state that should be unreachable.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return "expression generator invariant violated: " + e.Reason
}

// IsFormatError reports whether err is, or wraps, a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}
