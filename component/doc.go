// Package component defines the capabilities a wire graph participant can
// have and the registry that creates participants by kind.
//
// # Capabilities
//
// A component is an Emitter (it has output ports), a Receiver (it accepts
// envelopes on input ports), or both, in which case it acts as a transform.
// Receivers return their output as Emissions instead of calling back into the
// engine, so delivery order stays entirely under the engine's control.
//
// # Registration
//
// Registration is explicit. Each component package exports a
// Register(*component.Registry) error function, and componentregistry.Register
// calls them all. There is no init() self-registration and no reflective
// discovery: a graph that names an unregistered kind fails validation.
//
//	func Register(registry *component.Registry) error {
//		return registry.RegisterWithConfig(component.RegistrationConfig{
//			Kind:        "regex-filter",
//			Description: "Retains or removes record fields by name",
//			Schema:      propertySchema,
//			Factory:     NewProcessor,
//		})
//	}
//
// # Properties
//
// Factories receive types.Properties. Accessors take a default and return it
// when a property is missing or holds another kind:
//
//	size := props.Int("window.size", 10)
package component
