package assignments

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redox-os/ion-sub003/core/types"
)

// Operator is the operator of an assignment.
type Operator int

const (
	Equal         Operator = iota // =
	Add                           // +=
	Subtract                      // -=
	Divide                        // /=
	IntegerDivide                 // //=
	Multiply                      // *=
	Exponent                      // **=
	Default                       // ?=
	Append                        // ++=
	Prepend                       // ::=
	Filter                        // \\=
)

var operatorText = []string{"=", "+=", "-=", "/=", "//=", "*=", "**=", "?=", "++=", "::=", `\\=`}

func (op Operator) String() string {
	if op >= 0 && int(op) < len(operatorText) {
		return operatorText[op]
	}
	return "unknown"
}

// ParseOperator is the inverse of Operator.String.
func ParseOperator(text string) (Operator, bool) {
	for i, s := range operatorText {
		if s == text {
			return Operator(i), true
		}
	}
	return 0, false
}

// IsMath reports whether the operator needs numbers on both sides.
func (op Operator) IsMath() bool {
	switch op {
	case Add, Subtract, Divide, IntegerDivide, Multiply, Exponent:
		return true
	}
	return false
}

// operatorAt returns the operator starting at data[i], longest first.
func operatorAt(data string, i int) (Operator, int, bool) {
	var candidates []Operator
	switch data[i] {
	case '=':
		return Equal, 1, true
	case '+':
		candidates = []Operator{Append, Add}
	case '-':
		candidates = []Operator{Subtract}
	case '/':
		candidates = []Operator{IntegerDivide, Divide}
	case '*':
		candidates = []Operator{Exponent, Multiply}
	case '?':
		candidates = []Operator{Default}
	case ':':
		candidates = []Operator{Prepend}
	case '\\':
		candidates = []Operator{Filter}
	}
	for _, op := range candidates {
		if strings.HasPrefix(data[i:], op.String()) {
			return op, len(op.String()), true
		}
	}
	return 0, 0, false
}

// MathError is returned when an arithmetic operator can't be applied.
type MathError struct {
	Op     Operator
	Lhs    string
	Rhs    string
	Reason string
}

func (e *MathError) Error() string {
	return fmt.Sprintf("cannot apply %s to %q and %q: %s", e.Op, e.Lhs, e.Rhs, e.Reason)
}

// Apply combines the current value of a variable with an assigned value.
func (op Operator) Apply(current, value types.Value) (types.Value, error) {
	switch op {
	case Equal:
		return value, nil

	case Default:
		if current.IsNone() || (!current.IsArray() && current.String() == "") {
			return value, nil
		}
		return current, nil

	case Append, Prepend:
		if !current.IsArray() && !value.IsArray() {
			if op == Append {
				return types.Str(current.String() + value.String()), nil
			}
			return types.Str(value.String() + current.String()), nil
		}
		head, tail := current.Items(), value.Items()
		if !current.IsArray() && !current.IsNone() {
			head = []types.Value{current}
		}
		if !value.IsArray() {
			tail = []types.Value{value}
		}
		if op == Prepend {
			head, tail = tail, head
		}
		items := make([]types.Value, 0, len(head)+len(tail))
		items = append(append(items, head...), tail...)
		return types.Array(items...), nil

	case Filter:
		if !current.IsArray() {
			return types.None, &MathError{Op: op, Lhs: current.String(), Rhs: value.String(), Reason: "not an array"}
		}
		drop := make(map[string]bool)
		for _, w := range value.Words() {
			drop[w] = true
		}
		var kept []types.Value
		for _, item := range current.Items() {
			if !drop[item.String()] {
				kept = append(kept, item)
			}
		}
		return types.Array(kept...), nil
	}

	return op.arithmetic(current, value)
}

func (op Operator) arithmetic(current, value types.Value) (types.Value, error) {
	lhs, rhs := current.String(), value.String()
	fail := func(reason string) (types.Value, error) {
		return types.None, &MathError{Op: op, Lhs: lhs, Rhs: rhs, Reason: reason}
	}
	if current.IsArray() || value.IsArray() {
		return fail("arrays are not numbers")
	}

	a, aErr := strconv.ParseInt(lhs, 10, 64)
	b, bErr := strconv.ParseInt(rhs, 10, 64)
	if aErr == nil && bErr == nil {
		switch op {
		case Add:
			return intValue(a + b), nil
		case Subtract:
			return intValue(a - b), nil
		case Multiply:
			return intValue(a * b), nil
		case IntegerDivide:
			if b == 0 {
				return fail("division by zero")
			}
			return intValue(floorDiv(a, b)), nil
		}
	}

	x, err := strconv.ParseFloat(lhs, 64)
	if err != nil {
		return fail("left side is not a number")
	}
	y, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return fail("right side is not a number")
	}

	var result float64
	switch op {
	case Add:
		result = x + y
	case Subtract:
		result = x - y
	case Multiply:
		result = x * y
	case Divide:
		if y == 0 {
			return fail("division by zero")
		}
		result = x / y
	case IntegerDivide:
		if y == 0 {
			return fail("division by zero")
		}
		result = math.Floor(x / y)
	case Exponent:
		result = math.Pow(x, y)
	default:
		return fail("not an arithmetic operator")
	}
	return types.Str(strconv.FormatFloat(result, 'f', -1, 64)), nil
}

func intValue(n int64) types.Value {
	return types.Str(strconv.FormatInt(n, 10))
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
