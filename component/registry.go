package component

import (
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/wirestreams/errors"
	"github.com/c360/wirestreams/types"
)

// MaxIDLength bounds component ids and kind names.
const MaxIDLength = 256

// Factory creates a component instance from its id and properties.
// Factories must not perform I/O; connections are made lazily or by the
// component on first use.
type Factory func(id string, props types.Properties, deps Dependencies) (Component, error)

// Registration holds the factory and metadata for a component kind
type Registration struct {
	Kind        string  `json:"kind"`
	Description string  `json:"description"`
	Schema      string  `json:"schema,omitempty"` // JSON schema for the kind's properties
	Factory     Factory `json:"-"`

	schema *gojsonschema.Schema
}

// RegistrationConfig describes a kind to register.
type RegistrationConfig struct {
	Kind        string  // Component kind (e.g., "regex-filter")
	Description string  // Human-readable description
	Schema      string  // Optional JSON schema for properties
	Factory     Factory // Factory function to create instances
}

// Registry maps component kinds to factories. It is explicit: a kind exists
// only if something registered it.
type Registry struct {
	factories map[string]*Registration
	mu        sync.RWMutex
}

// NewRegistry creates a new empty component registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Registration)}
}

// RegisterWithConfig registers a component kind.
// Returns an error if the kind is invalid, already registered, or its schema does not compile.
func (r *Registry) RegisterWithConfig(cfg RegistrationConfig) error {
	if err := ValidateID(cfg.Kind); err != nil {
		return errors.Wrap(err, "Registry", "RegisterWithConfig", "kind validation")
	}
	if cfg.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Registry", "RegisterWithConfig", "factory function validation")
	}

	reg := &Registration{
		Kind:        cfg.Kind,
		Description: cfg.Description,
		Schema:      cfg.Schema,
		Factory:     cfg.Factory,
	}
	if cfg.Schema != "" {
		compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(cfg.Schema))
		if err != nil {
			return errors.WrapInvalid(err, "Registry", "RegisterWithConfig", "schema compilation")
		}
		reg.schema = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[cfg.Kind]; exists {
		return errors.WrapInvalid(fmt.Errorf("kind '%s' is already registered", cfg.Kind),
			"Registry", "RegisterWithConfig", "duplicate kind check")
	}
	r.factories[cfg.Kind] = reg
	return nil
}

// Lookup returns the registration for kind.
func (r *Registry) Lookup(kind string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.factories[kind]
	return reg, ok
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]string, 0, len(r.factories))
	for kind := range r.factories {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// CheckProperties validates props against the kind's schema and returns one
// message per violation. Kinds without a schema accept anything.
func (r *Registry) CheckProperties(kind string, props types.Properties) ([]string, error) {
	reg, ok := r.Lookup(kind)
	if !ok {
		return nil, errors.WrapInvalid(errors.ErrUnknownKind, "Registry", "CheckProperties", "kind lookup")
	}
	if reg.schema == nil {
		return nil, nil
	}

	result, err := reg.schema.Validate(gojsonschema.NewGoLoader(props.Map()))
	if err != nil {
		return nil, errors.WrapInvalid(err, "Registry", "CheckProperties", "schema validation")
	}
	if result.Valid() {
		return nil, nil
	}
	violations := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		violations = append(violations, e.String())
	}
	return violations, nil
}

// Create instantiates the component described by spec.
//
// Unknown kinds and factory failures are reported as a ValidationError.
// Schema violations are logged as warnings only: typed property accessors
// already fall back to defaults for missing or mistyped values.
func (r *Registry) Create(spec types.ComponentSpec, deps Dependencies) (Component, error) {
	if err := ValidateID(spec.ID); err != nil {
		return nil, errors.NewValidationError(errors.IssueInvalidComponent, spec.ID, err.Error())
	}

	reg, ok := r.Lookup(spec.Kind)
	if !ok {
		return nil, errors.NewValidationError(errors.IssueUnknownKind, spec.ID,
			fmt.Sprintf("no factory registered for kind %q", spec.Kind))
	}

	if violations, err := r.CheckProperties(spec.Kind, spec.Properties); err == nil && len(violations) > 0 {
		deps.GetLoggerWithComponent(spec.ID).Warn("Component properties do not match schema",
			"kind", spec.Kind, "violations", violations)
	}

	props := spec.Properties
	if props == nil {
		props = types.Properties{}
	}
	comp, err := reg.Factory(spec.ID, props, deps)
	if err != nil {
		return nil, &errors.ValidationError{Issues: []errors.ValidationIssue{{
			Kind:      errors.IssueFactoryFailed,
			Component: spec.ID,
			Message:   err.Error(),
		}}}
	}
	if comp == nil {
		return nil, errors.NewValidationError(errors.IssueFactoryFailed, spec.ID, "factory returned no component")
	}
	return comp, nil
}

// ValidateID checks a component id or kind name: non-empty, bounded, and made
// of letters, digits, dash, underscore and dot.
func ValidateID(id string) error {
	if id == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "component", "ValidateID", "empty id")
	}
	if len(id) > MaxIDLength {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "component", "ValidateID", "id too long")
	}
	for _, r := range id {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.') {
			return errors.WrapInvalid(
				fmt.Errorf("invalid character %q in %q", r, id), "component", "ValidateID", "id characters")
		}
	}
	return nil
}
