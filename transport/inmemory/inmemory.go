// Package inmemory is an in-process raft.RPC implementation for tests
// and local demos. It wires engines directly to each other's inbound
// handlers instead of going over a socket, and lets a test isolate a
// node the way a network partition would.
package inmemory

import (
	"context"
	"errors"
	"sync"
	"time"

	"raftengine/raft"
)

// ErrPartitioned is delivered to a send's callback when either end of
// the link is currently isolated.
var ErrPartitioned = errors.New("inmemory: peer partitioned")

type handler struct {
	requestVote   func(*raft.RequestVoteArgs) *raft.RequestVoteReply
	appendEntries func(*raft.AppendEntriesArgs) *raft.AppendEntriesReply
}

// Network is a shared switchboard for a set of in-process engines.
// Latency simulates network delay; Register wires up one node.
type Network struct {
	mu       sync.Mutex
	handlers map[raft.PeerID]handler
	isolated map[raft.PeerID]bool
	Latency  time.Duration
}

// NewNetwork returns an empty switchboard with no simulated latency.
func NewNetwork() *Network {
	return &Network{
		handlers: make(map[raft.PeerID]handler),
		isolated: make(map[raft.PeerID]bool),
	}
}

// Register wires id's inbound RPC handlers into the switchboard so
// other nodes' Transport can reach it.
func (n *Network) Register(id raft.PeerID, engine *raft.Engine) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[id] = handler{
		requestVote:   engine.HandleRequestVote,
		appendEntries: engine.HandleAppendEntries,
	}
}

// Transport returns a raft.RPC that sends as id.
func (n *Network) Transport(id raft.PeerID) raft.RPC {
	return &Transport{network: n, from: id}
}

// Partition isolates id: every send to or from it fails until Heal or
// HealAll is called.
func (n *Network) Partition(id raft.PeerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.isolated[id] = true
}

// Heal rejoins id to the network.
func (n *Network) Heal(id raft.PeerID) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.isolated, id)
}

// HealAll rejoins every partitioned node.
func (n *Network) HealAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.isolated = make(map[raft.PeerID]bool)
}

func (n *Network) blocked(a, b raft.PeerID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.isolated[a] || n.isolated[b]
}

func (n *Network) handlerFor(id raft.PeerID) (handler, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	h, ok := n.handlers[id]
	return h, ok
}

// Transport is one node's view of a Network: it sends as "from".
type Transport struct {
	network *Network
	from    raft.PeerID
}

func (t *Transport) SendRequestVote(ctx context.Context, peer raft.PeerID, args *raft.RequestVoteArgs, onResponse func(*raft.RequestVoteReply, error)) {
	go func() {
		if t.network.blocked(t.from, peer) {
			onResponse(nil, ErrPartitioned)
			return
		}
		h, ok := t.network.handlerFor(peer)
		if !ok {
			onResponse(nil, raft.ErrPeerUnknown)
			return
		}
		if t.network.Latency > 0 {
			time.Sleep(t.network.Latency)
		}
		if t.network.blocked(t.from, peer) {
			onResponse(nil, ErrPartitioned)
			return
		}
		onResponse(h.requestVote(args), nil)
	}()
}

func (t *Transport) SendAppendEntries(ctx context.Context, peer raft.PeerID, args *raft.AppendEntriesArgs, onResponse func(*raft.AppendEntriesReply, error)) {
	go func() {
		if t.network.blocked(t.from, peer) {
			onResponse(nil, ErrPartitioned)
			return
		}
		h, ok := t.network.handlerFor(peer)
		if !ok {
			onResponse(nil, raft.ErrPeerUnknown)
			return
		}
		if t.network.Latency > 0 {
			time.Sleep(t.network.Latency)
		}
		if t.network.blocked(t.from, peer) {
			onResponse(nil, ErrPartitioned)
			return
		}
		onResponse(h.appendEntries(args), nil)
	}()
}
