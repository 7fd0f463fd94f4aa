// Package rpcwire provides a gob-based grpc/encoding.Codec so streaming RPC
// services can be driven with google.golang.org/grpc's low-level
// ClientConn.NewStream/Invoke API when protoc-generated stubs are
// unavailable. It trades interoperability with non-Go servers for letting
// the rest of the pipeline keep using a real grpc.ClientConn end to end:
// connection pooling, keepalive, backoff, and TLS setup are all the
// standard grpc ones, only the wire encoding of individual messages differs
// from protobuf.
package rpcwire

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Name is the content-subtype registered with grpc's encoding package. A
// grpc.CallContentSubtype(Name) call option (or "application/grpc+gob"
// negotiated content-type) selects it.
const Name = "gob"

// Codec implements google.golang.org/grpc/encoding.Codec using encoding/gob.
// Messages must be gob-encodable plain structs; grpc invokes Marshal/Unmarshal
// directly on the interface{} request/response values passed to
// ClientConn.Invoke / NewStream, so no .pb.go generation step is needed.
type Codec struct{}

func (Codec) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("rpcwire: gob marshal: %w", err)
	}
	return buf.Bytes(), nil
}

func (Codec) Unmarshal(data []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(v); err != nil {
		return fmt.Errorf("rpcwire: gob unmarshal: %w", err)
	}
	return nil
}

func (Codec) Name() string { return Name }
