// Package consensuserr defines the typed error taxonomy the consensus
// core uses to classify every rejection, built on github.com/pkg/errors
// so a wrapped error retains its causal chain for logs while still being
// matchable with errors.Is/errors.As.
package consensuserr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure into one of the eight buckets callers need
// to distinguish (retry vs reject vs fatal).
type Kind int

const (
	// StructuralInvalid marks a malformed object: bad Merkle root, gas
	// overrun, an invalid transaction payload.
	StructuralInvalid Kind = iota
	// SignatureInvalid marks a failed Ed25519 verification.
	SignatureInvalid
	// AuthorityMismatch marks a wrong-proposer or unknown-validator
	// failure.
	AuthorityMismatch
	// NonMonotonic marks a slot, epoch, or checkpoint that regressed.
	NonMonotonic
	// CapacityExceeded marks a registry at its max_validators bound.
	CapacityExceeded
	// InsufficientStake marks a registry admission below min_stake.
	InsufficientStake
	// NotFound marks a lookup miss (validator, block, account).
	NotFound
	// IOFailure marks a collaborator (store, keystore, gossip) failure.
	IOFailure
)

func (k Kind) String() string {
	switch k {
	case StructuralInvalid:
		return "structural_invalid"
	case SignatureInvalid:
		return "signature_invalid"
	case AuthorityMismatch:
		return "authority_mismatch"
	case NonMonotonic:
		return "non_monotonic"
	case CapacityExceeded:
		return "capacity_exceeded"
	case InsufficientStake:
		return "insufficient_stake"
	case NotFound:
		return "not_found"
	case IOFailure:
		return "io_failure"
	default:
		return fmt.Sprintf("unknown_kind(%d)", int(k))
	}
}

// consensusError pairs a Kind with a causal chain.
type consensusError struct {
	kind Kind
	msg  string
	err  error
}

func (e *consensusError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.msg)
}

func (e *consensusError) Unwrap() error { return e.err }

// Kind reports the Kind of e itself; it does not look at wrapped
// causes (KindOf and Is search the chain).
func (e *consensusError) Kind() Kind { return e.kind }

// New builds a fresh error of the given kind with no underlying cause.
func New(kind Kind, msg string) error {
	return &consensusError{kind: kind, msg: msg}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) error {
	return &consensusError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and msg to err, preserving err as the cause via
// github.com/pkg/errors' stack-trace-capturing WithStack so the causal
// chain survives logging through %+v.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &consensusError{kind: kind, msg: msg, err: errors.WithStack(err)}
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(err error, kind Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &consensusError{kind: kind, msg: fmt.Sprintf(format, args...), err: errors.WithStack(err)}
}

// KindOf returns the Kind carried by err's outermost consensusError in
// its chain, and false if err (or its chain) never wrapped one —
// callers that label metrics by rejection kind use this to fall back to
// a generic label for errors outside this package's taxonomy.
func KindOf(err error) (Kind, bool) {
	var ce *consensusError
	if errors.As(err, &ce) {
		return ce.kind, true
	}
	return 0, false
}

// Is reports whether err (or any error in its chain) carries kind.
func Is(err error, kind Kind) bool {
	var ce *consensusError
	for err != nil {
		if errors.As(err, &ce) {
			if ce.kind == kind {
				return true
			}
			err = ce.err
			continue
		}
		return false
	}
	return false
}
