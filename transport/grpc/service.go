package grpc

import (
	"context"

	"google.golang.org/grpc"

	"raftengine/raft"
)

const serviceName = "raftengine.RaftTransport"

// rpcHandler is the server-side contract the hand-built ServiceDesc
// dispatches to, standing in for the interface a protoc-gen-go-grpc
// *Server type would declare.
type rpcHandler interface {
	handleRequestVote(ctx context.Context, args *raft.RequestVoteArgs) (*raft.RequestVoteReply, error)
	handleAppendEntries(ctx context.Context, args *raft.AppendEntriesArgs) (*raft.AppendEntriesReply, error)
}

func requestVoteHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(raft.RequestVoteArgs)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(rpcHandler).handleRequestVote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/RequestVote"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(rpcHandler).handleRequestVote(ctx, req.(*raft.RequestVoteArgs))
	}
	return interceptor(ctx, in, info, handler)
}

func appendEntriesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(raft.AppendEntriesArgs)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(rpcHandler).handleAppendEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AppendEntries"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(rpcHandler).handleAppendEntries(ctx, req.(*raft.AppendEntriesArgs))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*rpcHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RequestVote", Handler: requestVoteHandler},
		{MethodName: "AppendEntries", Handler: appendEntriesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "raftengine/transport/grpc",
}
