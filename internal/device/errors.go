package device

import (
	"fmt"

	"github.com/victor987/hitemp/internal/api"
)

// NotWritableError rejects a write to a read-only or undocumented parameter.
// Raised before any network I/O.
type NotWritableError struct {
	Code string
}

func (e *NotWritableError) Error() string {
	return fmt.Sprintf("parameter %s is not writable", e.Code)
}

// OutOfRangeError rejects a write whose value falls outside the documented
// range. Raised before any network I/O.
type OutOfRangeError struct {
	Code     string
	Value    float64
	Min, Max float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("parameter %s: value %v outside range [%v, %v]", e.Code, e.Value, e.Min, e.Max)
}

// BatchError reports a write batch the vendor refused. The protocol gives
// only an aggregate verdict: it is unknown which, if any, of the updates were
// applied. Callers should re-read the affected codes and reconcile rather
// than assume either success or failure.
type BatchError struct {
	Updates []api.Update
	Err     error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("write batch of %d update(s) failed, effect unknown: %v", len(e.Updates), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
