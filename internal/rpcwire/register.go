package rpcwire

import "google.golang.org/grpc/encoding"

func init() {
	encoding.RegisterCodec(Codec{})
}
