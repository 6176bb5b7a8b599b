// Package werr implements the two error layers from spec §7: structured,
// recoverable operation errors raised by world mutations, and fatal
// conditions that should terminate the process at startup.
package werr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code classifies a structured operation error.
type Code uint8

const (
	NotFound Code = iota
	InvalidRef
	PlacementBlocked
	InvariantViolation
	QuotaExceeded
)

func (c Code) String() string {
	switch c {
	case NotFound:
		return "NotFound"
	case InvalidRef:
		return "InvalidRef"
	case PlacementBlocked:
		return "PlacementBlocked"
	case InvariantViolation:
		return "InvariantViolation"
	case QuotaExceeded:
		return "QuotaExceeded"
	default:
		return "Unknown"
	}
}

// OperationError is the recoverable error type every worldstore/shapecache/
// physics/vision mutation returns. The caller reports it up the stack; in
// the network path it becomes a client kick reason, a chat error line, or a
// dialog failure code (§7) — never a crash.
type OperationError struct {
	Code Code
	Op   string // the operation that failed, e.g. "worldstore.CreateEntity"
	err  error  // wrapped cause, carries a stack via github.com/pkg/errors
}

func (e *OperationError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Code)
}

func (e *OperationError) Unwrap() error { return e.err }

// New builds an OperationError, attaching a stack trace to the first wrap.
func New(code Code, op string, cause error) *OperationError {
	var wrapped error
	if cause != nil {
		wrapped = errors.WithStack(cause)
	} else {
		wrapped = errors.New(op)
	}
	return &OperationError{Code: code, Op: op, err: wrapped}
}

// Is lets errors.Is(err, werr.NotFound) style checks work against the Code.
func (e *OperationError) Is(target error) bool {
	other, ok := target.(*OperationError)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// Sentinel codes for errors.Is comparisons that only care about the Code.
func Sentinel(code Code) *OperationError { return &OperationError{Code: code} }

// BundleError is the codec-layer error family (§4.6/§7): I/O failures and
// malformed-data failures. bundle.Read returns one for malformed data
// before an import replays any record into the world.
type BundleError struct {
	Reason string
	err    error
}

func (e *BundleError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("bundle: %s: %v", e.Reason, e.err)
	}
	return fmt.Sprintf("bundle: %s", e.Reason)
}

func (e *BundleError) Unwrap() error { return e.err }

func Bundle(reason string, cause error) *BundleError {
	return &BundleError{Reason: reason, err: errors.WithStack(cause)}
}

// Fatal panics with a process-fatal condition: failure to open the save
// root, subprocess spawn failure, or an invariant assertion tripping inside
// invariant-enforcing code. These signal bugs or unrecoverable startup
// conditions, never runtime/user conditions — callers should only invoke
// this from cmd/server/main.go or an invariant check, never from a
// per-client handler.
func Fatal(op string, cause error) {
	panic(fmt.Sprintf("fatal: %s: %v", op, errors.WithStack(cause)))
}
