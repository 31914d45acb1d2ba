package record

// Envelope is the unit delivered along a wire: the id of the emitting
// component and the records it produced, in order.
type Envelope struct {
	EmitterID string
	Records   []*Record
}

// NewEnvelope builds an envelope for the given emitter.
func NewEnvelope(emitterID string, records ...*Record) Envelope {
	return Envelope{EmitterID: emitterID, Records: records}
}

// IsEmpty reports whether the envelope carries no records. Propagating an
// empty envelope is a no-op.
func (e Envelope) IsEmpty() bool {
	return len(e.Records) == 0
}
