package errors

import (
	"fmt"
	"strings"
)

// IssueKind names the rule a graph description violated.
type IssueKind string

// Validation issue kinds
const (
	IssueInvalidComponent IssueKind = "invalid_component"
	IssueDuplicateID      IssueKind = "duplicate_id"
	IssueUnknownKind      IssueKind = "unknown_kind"
	IssueFactoryFailed    IssueKind = "factory_failed"
	IssueDanglingWire     IssueKind = "dangling_wire"
	IssueCapability       IssueKind = "capability_mismatch"
	IssuePortRange        IssueKind = "port_out_of_range"
	IssueFanIn            IssueKind = "fan_in"
	IssueCycle            IssueKind = "cycle"
)

// ValidationIssue is a single problem found while validating a graph description.
type ValidationIssue struct {
	Kind      IssueKind `json:"kind"`
	Component string    `json:"component,omitempty"`
	Wire      string    `json:"wire,omitempty"`
	Message   string    `json:"message"`
}

func (i ValidationIssue) String() string {
	var b strings.Builder
	b.WriteString(string(i.Kind))
	if i.Component != "" {
		b.WriteString(" [" + i.Component + "]")
	}
	if i.Wire != "" {
		b.WriteString(" [" + i.Wire + "]")
	}
	b.WriteString(": ")
	b.WriteString(i.Message)
	return b.String()
}

// ValidationError reports every issue that made a graph description unusable.
// It is always classified as invalid.
type ValidationError struct {
	Issues []ValidationIssue
}

// NewValidationError builds a ValidationError from a single issue.
func NewValidationError(kind IssueKind, component, message string) *ValidationError {
	return &ValidationError{Issues: []ValidationIssue{{Kind: kind, Component: component, Message: message}}}
}

func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "graph validation failed"
	case 1:
		return "graph validation failed: " + e.Issues[0].String()
	}
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return fmt.Sprintf("graph validation failed with %d issues: %s", len(e.Issues), strings.Join(parts, "; "))
}

// Has reports whether any issue is of the given kind.
func (e *ValidationError) Has(kind IssueKind) bool {
	for _, issue := range e.Issues {
		if issue.Kind == kind {
			return true
		}
	}
	return false
}

// ConversionError is returned when a typed value cannot be read or converted as requested.
type ConversionError struct {
	From   string
	To     string
	Reason string
}

func (e *ConversionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cannot convert %s to %s", e.From, e.To)
	}
	return fmt.Sprintf("cannot convert %s to %s: %s", e.From, e.To, e.Reason)
}

// PropagationFailure describes a receiver that failed while handling an envelope.
// Cause is set for returned errors, Panic for recovered panics.
type PropagationFailure struct {
	ComponentID string
	Port        int
	Cause       error
	Panic       any
}

func (e *PropagationFailure) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("propagation to %s:%d panicked: %v", e.ComponentID, e.Port, e.Panic)
	}
	return fmt.Sprintf("propagation to %s:%d failed: %v", e.ComponentID, e.Port, e.Cause)
}

func (e *PropagationFailure) Unwrap() error {
	return e.Cause
}

// Reason returns a short label suitable for metrics.
func (e *PropagationFailure) Reason() string {
	if e.Panic != nil {
		return "panic"
	}
	return Classify(e.Cause).String()
}

// PersistenceError wraps a storage failure with the table and operation involved.
type PersistenceError struct {
	Table string
	Op    string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s on table %q failed: %v", e.Op, e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
