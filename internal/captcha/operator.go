package captcha

// Operator is an arithmetic operator as it appears in a challenge string.
type Operator byte

const (
	Add Operator = '+'
	Sub Operator = '-'
	Mul Operator = 'x'
	Div Operator = ':'
)

func (o Operator) String() string {
	return string(o)
}

// multiplicative reports whether o binds tighter than ADD/SUB.
func (o Operator) multiplicative() bool {
	return o == Mul || o == Div
}

// parseOperator maps a challenge character to its operator.
func parseOperator(c byte) (Operator, bool) {
	switch Operator(c) {
	case Add, Sub, Mul, Div:
		return Operator(c), true
	default:
		return 0, false
	}
}
