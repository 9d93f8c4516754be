package captcha

import (
	"math/big"
	"regexp"
	"strings"
)

// answerPattern accepts plain decimal integers, decimals and fractions. Base prefixes,
// exponents, digit separators and a leading '+' are rejected.
var answerPattern = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+|/[0-9]+)?$`)

// Evaluate parses an arithmetic challenge and computes its value using only the string.
//
// The grammar is operand (operator operand)*, where an operand is one or more ASCII digits
// and an operator is one of '+', '-', 'x', ':'. Multiplication and division bind tighter
// than addition and subtraction and associate left to right. Arithmetic is exact, so "7:2"
// evaluates to 7/2.
//
// Any deviation from the grammar, and division by zero, returns a *FormatError.
func Evaluate(challenge string) (*big.Rat, error) {
	operands, operators, err := tokenize(challenge)
	if err != nil {
		return nil, err
	}

	// Resolve MUL and DIV first. The result replaces the right operand; the left operand
	// becomes a zero added with the operator that preceded it, so the summation pass below
	// skips it while indexes stay aligned.
	for i, op := range operators {
		if !op.multiplicative() {
			continue
		}
		switch op {
		case Mul:
			operands[i+1].Mul(operands[i], operands[i+1])
		case Div:
			if operands[i+1].Sign() == 0 {
				return nil, &FormatError{Input: challenge, Reason: "division by zero"}
			}
			operands[i+1].Quo(operands[i], operands[i+1])
		}
		operands[i].SetInt64(0)
		if i == 0 {
			operators[i] = Add
		} else {
			operators[i] = operators[i-1]
		}
	}

	total := new(big.Rat).Set(operands[0])
	for i, op := range operators {
		if op == Sub {
			total.Sub(total, operands[i+1])
		} else {
			total.Add(total, operands[i+1])
		}
	}
	return total, nil
}

// tokenize validates challenge against the grammar and splits it into operands and operators.
func tokenize(challenge string) ([]*big.Rat, []Operator, error) {
	if challenge == "" {
		return nil, nil, &FormatError{Input: challenge, Reason: "empty challenge"}
	}

	var (
		operands  []*big.Rat
		operators []Operator
	)
	start := -1
	for i := 0; i < len(challenge); i++ {
		c := challenge[i]
		if c >= '0' && c <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		op, ok := parseOperator(c)
		if !ok {
			return nil, nil, &FormatError{Input: challenge, Reason: "unexpected character " + quoteByte(c)}
		}
		if start < 0 {
			return nil, nil, &FormatError{Input: challenge, Reason: "operator " + op.String() + " is not preceded by an operand"}
		}
		operands = append(operands, parseOperand(challenge[start:i]))
		operators = append(operators, op)
		start = -1
	}
	if start < 0 {
		return nil, nil, &FormatError{Input: challenge, Reason: "challenge must end with an operand"}
	}
	operands = append(operands, parseOperand(challenge[start:]))

	return operands, operators, nil
}

// parseOperand converts a validated digit run.
func parseOperand(digits string) *big.Rat {
	n, _ := new(big.Int).SetString(digits, 10)
	return new(big.Rat).SetInt(n)
}

func quoteByte(c byte) string {
	return "'" + string(rune(c)) + "'"
}

// Matches reports whether challenge evaluates exactly to candidate. Malformed challenges
// and nil candidates never match.
func Matches(challenge string, candidate *big.Rat) bool {
	if candidate == nil {
		return false
	}
	value, err := Evaluate(challenge)
	if err != nil {
		return false
	}
	return value.Cmp(candidate) == 0
}

// Verify parses answer as a number ("14", "-1", "7/2", "3.5") and reports whether it is
// the value of challenge.
func Verify(challenge, answer string) bool {
	candidate, ok := ParseAnswer(answer)
	if !ok {
		return false
	}
	return Matches(challenge, candidate)
}

// ParseAnswer parses a user-supplied numeric answer in base 10: "14", "-1", "3.5" or "7/2".
func ParseAnswer(answer string) (*big.Rat, bool) {
	answer = strings.TrimSpace(answer)
	if !answerPattern.MatchString(answer) {
		return nil, false
	}

	if num, den, ok := strings.Cut(answer, "/"); ok {
		n, okNum := new(big.Int).SetString(num, 10)
		d, okDen := new(big.Int).SetString(den, 10)
		if !okNum || !okDen || d.Sign() == 0 {
			return nil, false
		}
		return new(big.Rat).SetFrac(n, d), true
	}
	if !strings.Contains(answer, ".") {
		n, ok := new(big.Int).SetString(answer, 10)
		if !ok {
			return nil, false
		}
		return new(big.Rat).SetInt(n), true
	}
	// a decimal point makes SetString read base 10
	return new(big.Rat).SetString(answer)
}

// Solve returns the canonical answer string of challenge: an integer when the value is
// whole, otherwise a reduced fraction such as "7/2".
func Solve(challenge string) (string, error) {
	value, err := Evaluate(challenge)
	if err != nil {
		return "", err
	}
	return value.RatString(), nil
}
