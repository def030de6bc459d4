package autodiff

import "errors"

var (
	// ErrOrderViolation indicates Forward or Backward was invoked before its
	// dependency preconditions held: an operand without a forward result, or
	// a consumer without a backward result. Always a bug in the driving code.
	ErrOrderViolation = errors.New("autodiff: order violation")

	// ErrCycleOrUnreachable indicates discovery could not establish a valid
	// topological order: a cycle, or a node that is used but cannot be reached
	// from the declared leaves.
	ErrCycleOrUnreachable = errors.New("autodiff: cycle or unreachable node")

	// ErrNoResultYet indicates a value or gradient was read before the pass
	// that produces it completed.
	ErrNoResultYet = errors.New("autodiff: no result yet")

	// ErrInvalidNode indicates a NodeID of the wrong kind, an unknown NodeID,
	// or an operand list that does not fit the operation.
	ErrInvalidNode = errors.New("autodiff: invalid node")

	// ErrSealed indicates an attempt to change a tape that already backs a Graph.
	ErrSealed = errors.New("autodiff: tape is sealed")
)
