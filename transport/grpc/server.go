package grpc

import (
	"context"
	"net"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"raftengine/raft"
)

// Server exposes one node's inbound RequestVote/AppendEntries handlers
// over grpc-go.
type Server struct {
	engine     *raft.Engine
	log        *zap.Logger
	grpcServer *grpc.Server
	listener   net.Listener
}

// NewServer wraps engine for serving. logger may be nil.
func NewServer(engine *raft.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, log: logger}
}

func (s *Server) handleRequestVote(_ context.Context, args *raft.RequestVoteArgs) (*raft.RequestVoteReply, error) {
	return s.engine.HandleRequestVote(args), nil
}

func (s *Server) handleAppendEntries(_ context.Context, args *raft.AppendEntriesArgs) (*raft.AppendEntriesReply, error) {
	return s.engine.HandleAppendEntries(args), nil
}

// Start listens on address and serves in the background.
func (s *Server) Start(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	s.listener = lis

	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(&serviceDesc, s)

	go func() {
		if err := s.grpcServer.Serve(lis); err != nil {
			s.log.Error("raft transport server stopped", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the listener's bound address, valid after Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop drains in-flight RPCs and shuts the server down.
func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}
