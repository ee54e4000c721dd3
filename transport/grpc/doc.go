// Package grpc carries raft.RPC over google.golang.org/grpc. Rather
// than depend on protoc-generated stubs, it registers its own
// encoding.Codec (gob) and a hand-built grpc.ServiceDesc, keeping the
// real grpc-go transport, framing and connection pooling without a
// codegen step in the build.
package grpc
