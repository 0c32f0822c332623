package services

import (
	"fmt"
)

// Operator is the closed comparison set badge criteria may use. The source
// of truth is this enum: catalog loading rejects anything else, so an
// unknown operator never reaches evaluation.
type Operator string

const (
	OpGTE Operator = ">="
	OpLTE Operator = "<="
	OpEQ  Operator = "=="
	OpGT  Operator = ">"
	OpLT  Operator = "<"
	OpNE  Operator = "!="
)

// ParseOperator validates a raw operator string from a badge definition.
// Called at catalog load/seed time; a malformed definition is rejected here
// instead of silently falling back during evaluation.
func ParseOperator(raw string) (Operator, error) {
	switch Operator(raw) {
	case OpGTE, OpLTE, OpEQ, OpGT, OpLT, OpNE:
		return Operator(raw), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperator, raw)
}

// Evaluate applies the criterion `value <op> threshold`. Pure and total for
// any numeric input. The default arm fails closed as >= — it is unreachable
// for catalog-validated definitions and exists only so a row written behind
// the validator's back still degrades to a deterministic comparison.
func (op Operator) Evaluate(value, threshold float64) bool {
	switch op {
	case OpGTE:
		return value >= threshold
	case OpLTE:
		return value <= threshold
	case OpEQ:
		return value == threshold
	case OpGT:
		return value > threshold
	case OpLT:
		return value < threshold
	case OpNE:
		return value != threshold
	default:
		return value >= threshold
	}
}
