// Package errors provides standardized error handling for maiaflow nodes and ports.
//
// # Overview
//
// Errors fall into three classes: Transient (context cancellation, temporary
// conditions), Invalid (bad configuration or wiring, reported before a node
// runs) and Fatal (unrecoverable, ends the owning node). Nothing in the runtime
// retries: a fatal error terminates the node task, which closes the node's ports
// so its neighbours observe the closure.
//
// End-of-input is not an error. PullOrAbort and SelectOrAbort report Abort as an
// ordinary value, and every caller decides what it means.
//
// # Taxonomy
//
//   - ErrPortClosed: pushing to a closed port. Always returned to the pusher.
//   - ContractViolation: a received value does not have the shape its handler
//     needs (for example a batch learner fed a one-shot stream). Fatal.
//   - ErrInvalidConfig and friends, wrapped with WrapInvalid: configuration
//     errors surfaced at construction time.
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: %w"
//
// Three wrapper functions provide classification-aware wrapping:
//
//	errors.WrapTransient(err, "Component", "Method", "action")
//	errors.WrapInvalid(err, "Component", "Method", "action")
//	errors.WrapFatal(err, "Component", "Method", "action")
//
// The generic Wrap() function preserves the original error's classification:
//
//	errors.Wrap(err, "Component", "Method", "action")
//
// # Integration with errors.As/Is
//
// Classification survives wrapping chains:
//
//	wrapped := errors.Wrap(errors.WrapInvalid(errors.ErrInvalidConfig, "Node", "New", "repeat"), "Registry", "Create", "factory")
//	errors.IsInvalid(wrapped) // true
//
//	var cv *errors.ContractViolation
//	if errors.As(err, &cv) {
//	    log.Printf("port %s expected %s, got %s", cv.Port, cv.Expected, cv.Actual)
//	}
package errors
