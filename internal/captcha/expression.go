package captcha

import (
	"math/rand"
	"strconv"
	"strings"
)

// ExpressionRequest describes an arithmetic challenge to generate.
type ExpressionRequest struct {
	// Size is the number of operands, at least MinSize.
	Size       int
	Difficulty Difficulty
	Seed       int64
	// Profiles overrides the per-level bounds; the zero value selects DefaultProfiles.
	Profiles Profiles
}

// ExpressionResult is a generated arithmetic challenge.
type ExpressionResult struct {
	Challenge string
	Value     int
	Operands  []int
	Operators []Operator
	Seed      int64
}

// group is a run of consecutive multiplications and divisions.
type group struct {
	operands  []int
	operators []Operator
	value     int
}

type expression struct {
	operands  []int
	operators []Operator
	value     int
}

// GenerateExpression builds a random left-to-right arithmetic challenge.
//
// # Determinism
//
// GenerateExpression is deterministic with respect to Seed: the same Seed, Size,
// Difficulty and Profiles always produce the same ExpressionResult.
//
// # Bounds
//
// Every operand is drawn from the difficulty's [Min, Max]. The running value, taken with
// the open multiplicative group, never leaves [-MaxAbs, MaxAbs], and a division is only
// chosen when it is exact. Value always equals Evaluate(Challenge).
//
// # Operator choice
//
// At each position the admissible operators are weighted ADD x1, SUB x1, MUL x2, DIV x2
// and one is drawn uniformly. An ADD or SUB closes the open group and folds it into the
// expression; MUL and DIV extend it.
//
// Constraints and errors
//
//   - Size below MinSize returns ErrInvalidSize.
//   - A difficulty outside easy..hard returns ErrInvalidDifficulty.
//   - Profiles that fail Validate return ErrInvalidProfile.
//   - An empty admissible set returns *InvariantError; valid profiles make this unreachable.
func GenerateExpression(request ExpressionRequest) (ExpressionResult, error) {
	if request.Size < MinSize {
		return ExpressionResult{}, ErrInvalidSize
	}
	if !request.Difficulty.Valid() {
		return ExpressionResult{}, ErrInvalidDifficulty
	}
	profile := request.Profiles.For(request.Difficulty)
	if err := profile.Validate(); err != nil {
		return ExpressionResult{}, err
	}

	rng := newRand(request.Seed)
	expr := expression{
		operands:  make([]int, 0, request.Size),
		operators: make([]Operator, 0, request.Size-1),
	}

	first := between(rng, profile.Min, profile.Max)
	current := group{operands: []int{first}, value: first}

	for i := 1; i < request.Size; i++ {
		number := between(rng, profile.Min, profile.Max)
		op, err := nextOperator(rng, expr.value, current.value, number, profile.MaxAbs)
		if err != nil {
			return ExpressionResult{}, err
		}

		switch op {
		case Add, Sub:
			expr.fold(current)
			value := number
			if op == Sub {
				value = -number
			}
			current = group{operands: []int{number}, value: value}
		case Mul:
			current.operands = append(current.operands, number)
			current.operators = append(current.operators, op)
			current.value *= number
		case Div:
			current.operands = append(current.operands, number)
			current.operators = append(current.operators, op)
			current.value /= number
		}
	}
	expr.fold(current)

	if len(expr.operands) != request.Size || len(expr.operators) != request.Size-1 {
		return ExpressionResult{}, &InvariantError{Reason: "operand and operator counts do not match the size"}
	}
	if abs(expr.value) > profile.MaxAbs {
		return ExpressionResult{}, &InvariantError{Reason: "final value exceeds the difficulty bound"}
	}

	return ExpressionResult{
		Challenge: expr.String(),
		Value:     expr.value,
		Operands:  expr.operands,
		Operators: expr.operators,
		Seed:      request.Seed,
	}, nil
}

// nextOperator draws an operator admissible for joining number to the open group.
func nextOperator(rng *rand.Rand, exprValue, groupValue, number, maxAbs int) (Operator, error) {
	total := exprValue + groupValue
	candidates := make([]Operator, 0, 6)

	if abs(total+number) <= maxAbs {
		candidates = append(candidates, Add)
	}
	if abs(total-number) <= maxAbs {
		candidates = append(candidates, Sub)
	}
	if abs(exprValue+groupValue*number) <= maxAbs {
		candidates = append(candidates, Mul, Mul)
	}
	if number != 0 && groupValue%number == 0 {
		candidates = append(candidates, Div, Div)
	}

	if len(candidates) == 0 {
		return 0, &InvariantError{Reason: "no admissible operator for operand " + strconv.Itoa(number)}
	}
	return candidates[rng.Intn(len(candidates))], nil
}

// fold commits a closed group. The group's sign is carried by the inferred operator
// in front of it; a zero group counts as non-negative.
func (e *expression) fold(g group) {
	if len(e.operands) > 0 {
		if g.value >= 0 {
			e.operators = append(e.operators, Add)
		} else {
			e.operators = append(e.operators, Sub)
		}
	}
	e.operands = append(e.operands, g.operands...)
	e.operators = append(e.operators, g.operators...)
	e.value += g.value
}

func (e *expression) String() string {
	var sb strings.Builder
	for i, operand := range e.operands {
		if i > 0 {
			sb.WriteByte(byte(e.operators[i-1]))
		}
		sb.WriteString(strconv.Itoa(operand))
	}
	return sb.String()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
