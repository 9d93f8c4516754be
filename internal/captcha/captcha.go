// Package captcha generates and checks human-solvable challenges.
//
// Two kinds are supported:
//   - expression: a bounded arithmetic expression such as "2+3x4", answered by its value.
//   - string: random characters from a fixed alphabet, answered by retyping them.
//
// Generation is deterministic with respect to a seed and keeps no state between calls.
// Answers are never stored alongside a challenge: Answer and Check re-derive them from the
// challenge text alone, so the displayed text is the only thing a verifier needs.
package captcha

import (
	"fmt"
	"strings"
)

// Kind selects the type of challenge.
type Kind string

const (
	KindExpression Kind = "expression"
	KindString     Kind = "string"
)

// ParseKind accepts "expression" or "string", case-insensitively. An empty string selects
// KindExpression.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindExpression:
		return KindExpression, nil
	case KindString:
		return KindString, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Request describes a challenge of either kind.
type Request struct {
	Kind       Kind
	Size       int
	Difficulty Difficulty
	Seed       int64
	// Profiles only applies to expression challenges.
	Profiles Profiles
}

// Challenge is an issued challenge. Text is what gets rendered.
type Challenge struct {
	Kind       Kind       `json:"kind"`
	Text       string     `json:"text"`
	Size       int        `json:"size"`
	Difficulty Difficulty `json:"difficulty"`
	Seed       int64      `json:"seed"`
}

// New generates a challenge of the requested kind.
func New(request Request) (Challenge, error) {
	challenge := Challenge{
		Kind:       request.Kind,
		Size:       request.Size,
		Difficulty: request.Difficulty,
		Seed:       request.Seed,
	}

	switch request.Kind {
	case KindExpression:
		result, err := GenerateExpression(ExpressionRequest{
			Size:       request.Size,
			Difficulty: request.Difficulty,
			Seed:       request.Seed,
			Profiles:   request.Profiles,
		})
		if err != nil {
			return Challenge{}, err
		}
		challenge.Text = result.Challenge
	case KindString:
		result, err := GenerateString(StringRequest{
			Size:       request.Size,
			Difficulty: request.Difficulty,
			Seed:       request.Seed,
		})
		if err != nil {
			return Challenge{}, err
		}
		challenge.Text = result.Challenge
	default:
		return Challenge{}, fmt.Errorf("%w: %q", ErrInvalidKind, request.Kind)
	}

	return challenge, nil
}

// Answer returns the expected answer for a challenge text.
func Answer(kind Kind, text string) (string, error) {
	switch kind {
	case KindExpression:
		return Solve(text)
	case KindString:
		return text, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

// Check reports whether answer solves the challenge text. String challenges are
// case-sensitive; expression answers are compared by value.
func Check(kind Kind, text, answer string) bool {
	switch kind {
	case KindExpression:
		return Verify(text, answer)
	case KindString:
		return text != "" && answer == text
	default:
		return false
	}
}
