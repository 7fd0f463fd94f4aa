package rpcwire

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// OpenBidiStream opens a client-streaming/server-streaming RPC against
// fullMethod (e.g. "/voicecore.asr.v1.AsrService/StreamingTranscribe")
// using the gob Codec, without a protoc-generated client stub. Callers send
// with stream.SendMsg(req) and receive with stream.RecvMsg(&resp).
func OpenBidiStream(ctx context.Context, conn *grpc.ClientConn, fullMethod string) (grpc.ClientStream, error) {
	desc := &grpc.StreamDesc{
		StreamName:    fullMethod,
		ServerStreams: true,
		ClientStreams: true,
	}
	stream, err := conn.NewStream(ctx, desc, fullMethod, grpc.CallContentSubtype(Name))
	if err != nil {
		return nil, fmt.Errorf("rpcwire: open stream %s: %w", fullMethod, err)
	}
	return stream, nil
}
