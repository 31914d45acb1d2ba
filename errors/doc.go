// Package errors provides standardized error handling for wirestreams.
//
// # Classification
//
// Errors fall into three classes: Transient (temporary, retryable), Invalid
// (bad input or configuration, never retried) and Fatal (unrecoverable).
// Wrap helpers attach the class together with the component and operation:
//
//	if err := tx.Commit(); err != nil {
//	    return errors.WrapTransient(err, "RecordStore", "Insert", "commit")
//	}
//
// Classification checks ClassifiedError first, then the domain types below,
// then known sentinels, and finally falls back to message patterns.
//
// # Domain errors
//
//   - ValidationError lists every issue found in a graph description.
//   - ConversionError reports a typed value read or conversion that was refused.
//   - PropagationFailure describes a receiver that returned an error or panicked.
//   - PersistenceError wraps a storage failure with its table and operation.
//
// All of them work with the standard errors.Is and errors.As.
package errors
