package ocppj

// IdentityCodec is a PayloadCodec that performs no conversion: Pack and
// Unpack both return the value unchanged. Useful for tests and for callers
// that have already converted payloads to wire-ready values upstream.
type IdentityCodec struct{}

var _ PayloadCodec = IdentityCodec{}

func (IdentityCodec) Pack(payload interface{}) (interface{}, error) {
	return payload, nil
}

func (IdentityCodec) Unpack(raw interface{}, action string, kind Kind) (interface{}, error) {
	return raw, nil
}
