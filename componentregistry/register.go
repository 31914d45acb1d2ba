// Package componentregistry registers every component kind wirestreams ships.
package componentregistry

import (
	"errors"

	"github.com/c360/wirestreams/component"
	pkgerrors "github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/input/udp"
	"github.com/c360/wirestreams/output/logsink"
	"github.com/c360/wirestreams/processor/mathop"
	"github.com/c360/wirestreams/processor/regexfilter"
	"github.com/c360/wirestreams/storage/recordstore"
)

// Register registers all built-in component kinds with registry:
//
// Inputs:
//   - udp-source (JSON datagrams)
//
// Transforms:
//   - regex-filter (field selection by name)
//   - math-transform (numeric field computation)
//
// Sinks:
//   - record-store (relational table with retention)
//   - logger (structured log output)
func Register(registry *component.Registry) error {
	// Nil registry is a programming error (fatal), not invalid input
	if registry == nil {
		return pkgerrors.WrapFatal(
			errors.New("registry cannot be nil"),
			"ComponentRegistry", "Register", "registry validation")
	}

	if err := udp.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "UDP source component registration")
	}

	if err := regexfilter.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "Regex filter component registration")
	}

	if err := mathop.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "Math transform component registration")
	}

	if err := recordstore.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "Record store component registration")
	}

	if err := logsink.Register(registry); err != nil {
		return pkgerrors.WrapInvalid(err, "ComponentRegistry", "Register", "Logger component registration")
	}

	return nil
}
