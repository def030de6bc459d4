package ops

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned by Lookup for a kind name it does not know.
var ErrUnknownKind = errors.New("ops: unknown operation kind")

// ParamSlotter is implemented by operations that require a Parameter leaf
// in one of their operand slots.
type ParamSlotter interface {
	ParamSlot() int
}

// Kinds lists the names accepted by Lookup.
var Kinds = []string{"sum", "product", "pow", "sin", "add_param", "mul_param", "loss"}

// Lookup builds an operation from its textual kind. exponent is only used by "pow".
func Lookup(kind string, exponent float64) (Operation, error) {
	switch kind {
	case "sum":
		return NewSum(), nil
	case "product":
		return NewProduct(), nil
	case "pow":
		return NewPower(exponent), nil
	case "sin":
		return NewSin(), nil
	case "add_param":
		return NewAddParam(), nil
	case "mul_param":
		return NewMulParam(), nil
	case "loss":
		return NewLoss(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}
