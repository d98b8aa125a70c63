package api

import "encoding/json"

// jsonCodec is a connect.Codec that marshals plain Go structs with
// encoding/json instead of requiring a protobuf-generated proto.Message.
// This module has no .proto toolchain in its build, so the planning
// service's wire types are ordinary structs; jsonCodec lets Connect's
// content-negotiation, interceptor chain, and HTTP/2 transport serve
// them exactly as they would a protobuf message.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}
