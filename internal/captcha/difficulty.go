package captcha

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Difficulty is the captcha difficulty level.
type Difficulty int

const (
	Easy Difficulty = iota
	Normal
	Hard
)

// LevelCount is the number of supported difficulty levels.
const LevelCount = 3

// MinSize is the smallest challenge size accepted by the generators.
const MinSize = 2

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Normal:
		return "normal"
	case Hard:
		return "hard"
	default:
		return "unknown"
	}
}

// Valid reports whether d is one of the supported levels.
func (d Difficulty) Valid() bool {
	return d >= Easy && d <= Hard
}

// ParseDifficulty accepts a level name ("easy", "normal", "hard") or its digit.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "normal", "medium":
		return Normal, nil
	case "hard":
		return Hard, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Difficulty(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDifficulty, s)
	}
	return Difficulty(n), nil
}

// ClampDifficulty maps any level into the supported range.
func ClampDifficulty(d Difficulty) Difficulty {
	if d < Easy {
		return Easy
	}
	if d > Hard {
		return Hard
	}
	return d
}

// ClampSize raises size to MinSize and, when max > 0, caps it at max.
func ClampSize(size, max int) int {
	if size < MinSize {
		size = MinSize
	}
	if max >= MinSize && size > max {
		size = max
	}
	return size
}

// Profile holds the numeric bounds of one difficulty level.
type Profile struct {
	// Min and Max bound every drawn operand, inclusive.
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
	// MaxAbs bounds the absolute value of every running subtotal and the final value.
	MaxAbs int `yaml:"max_abs" json:"max_abs"`
}

// MaxProfileBound caps Profile.MaxAbs so the product of two bounded values fits in an int64.
const MaxProfileBound = math.MaxInt32

// Validate checks 0 <= Min <= Max <= MaxAbs <= MaxProfileBound. Operands never exceeding
// MaxAbs keeps one of ADD/SUB admissible at every step of expression generation.
func (p Profile) Validate() error {
	if p.Min < 0 || p.Min > p.Max || p.Max > p.MaxAbs || p.MaxAbs > MaxProfileBound {
		return fmt.Errorf("%w: min=%d max=%d max_abs=%d", ErrInvalidProfile, p.Min, p.Max, p.MaxAbs)
	}
	return nil
}

// Profiles maps each difficulty level to its Profile.
type Profiles [LevelCount]Profile

// DefaultProfiles returns the built-in bounds: MaxAbs grows by 10 per level.
func DefaultProfiles() Profiles {
	return Profiles{
		Easy:   {Min: 0, Max: 3, MaxAbs: 10},
		Normal: {Min: 1, Max: 6, MaxAbs: 20},
		Hard:   {Min: 2, Max: 9, MaxAbs: 30},
	}
}

// IsZero reports whether no profile has been set.
func (p Profiles) IsZero() bool {
	return p == Profiles{}
}

// Validate validates every level.
func (p Profiles) Validate() error {
	for i, profile := range p {
		if err := profile.Validate(); err != nil {
			return fmt.Errorf("%s: %w", Difficulty(i), err)
		}
	}
	return nil
}

// For returns the profile of d, falling back to the defaults when p is zero.
func (p Profiles) For(d Difficulty) Profile {
	if p.IsZero() {
		p = DefaultProfiles()
	}
	return p[d]
}
