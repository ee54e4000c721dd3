package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"raftengine/raft"
)

// Client is a raft.RPC backed by one grpc.ClientConn per peer. Dial
// connects to every peer address concurrently up front, since the
// engine's peer set is fixed at construction.
type Client struct {
	mu      sync.RWMutex
	conns   map[raft.PeerID]*grpc.ClientConn
	timeout time.Duration
}

// Dial concurrently connects to every address in addresses. On any
// dial failure it closes the connections already made and returns the
// first error.
func Dial(ctx context.Context, addresses map[raft.PeerID]string, timeout time.Duration) (*Client, error) {
	c := &Client{
		conns:   make(map[raft.PeerID]*grpc.ClientConn),
		timeout: timeout,
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for id, addr := range addresses {
		id, addr := id, addr
		g.Go(func() error {
			conn, err := grpc.DialContext(gctx, addr,
				grpc.WithTransportCredentials(insecure.NewCredentials()),
				grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)))
			if err != nil {
				return fmt.Errorf("transport/grpc: dial %s (%s): %w", id, addr, err)
			}
			mu.Lock()
			c.conns[id] = conn
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) connFor(peer raft.PeerID) (*grpc.ClientConn, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conn, ok := c.conns[peer]
	return conn, ok
}

func (c *Client) SendRequestVote(ctx context.Context, peer raft.PeerID, args *raft.RequestVoteArgs, onResponse func(*raft.RequestVoteReply, error)) {
	conn, ok := c.connFor(peer)
	if !ok {
		go onResponse(nil, raft.ErrPeerUnknown)
		return
	}
	go func() {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		reply := new(raft.RequestVoteReply)
		if err := conn.Invoke(callCtx, "/"+serviceName+"/RequestVote", args, reply); err != nil {
			onResponse(nil, err)
			return
		}
		onResponse(reply, nil)
	}()
}

func (c *Client) SendAppendEntries(ctx context.Context, peer raft.PeerID, args *raft.AppendEntriesArgs, onResponse func(*raft.AppendEntriesReply, error)) {
	conn, ok := c.connFor(peer)
	if !ok {
		go onResponse(nil, raft.ErrPeerUnknown)
		return
	}
	go func() {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()
		reply := new(raft.AppendEntriesReply)
		if err := conn.Invoke(callCtx, "/"+serviceName+"/AppendEntries", args, reply); err != nil {
			onResponse(nil, err)
			return
		}
		onResponse(reply, nil)
	}()
}

// Close closes every peer connection.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.conns {
		conn.Close()
	}
}
