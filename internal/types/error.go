package types

import (
	"errors"
	"fmt"
)

// InvalidPeriodRangeError rejects a recompute request before any computation
// starts: inverted bounds or a range spanning non-finalized periods.
type InvalidPeriodRangeError struct {
	From    uint64
	To      uint64
	Message string
}

func (e *InvalidPeriodRangeError) Error() string {
	return fmt.Sprintf("invalid period range [%d, %d]: %s", e.From, e.To, e.Message)
}

func IsInvalidPeriodRangeError(err error) bool {
	var target *InvalidPeriodRangeError
	return errors.As(err, &target)
}

// InvalidAmountError rejects an override with a negative or unparseable amount
type InvalidAmountError struct {
	Amount  string
	Message string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid amount %q: %s", e.Amount, e.Message)
}

func IsInvalidAmountError(err error) bool {
	var target *InvalidAmountError
	return errors.As(err, &target)
}

// InvalidRuleError marks malformed agreement rule data (rate out of bounds,
// unknown method). Structural, so it fails the whole job.
type InvalidRuleError struct {
	RuleOrder uint32
	Message   string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid agreement rule (order %d): %s", e.RuleOrder, e.Message)
}

func IsInvalidRuleError(err error) bool {
	var target *InvalidRuleError
	return errors.As(err, &target)
}
