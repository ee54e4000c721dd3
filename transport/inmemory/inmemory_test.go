package inmemory

import (
	"context"
	"errors"
	"testing"
	"time"

	"raftengine/kvstatemachine"
	"raftengine/memlog"
	"raftengine/raft"
)

func newNetworkWithNodes(ids ...raft.PeerID) *Network {
	network := NewNetwork()
	for _, id := range ids {
		var peers []raft.PeerID
		for _, peer := range ids {
			if peer != id {
				peers = append(peers, peer)
			}
		}
		engine := raft.NewEngine(raft.DefaultConfig(id, peers...), memlog.New(), kvstatemachine.New(), network.Transport(id), nil)
		network.Register(id, engine)
	}
	return network
}

func awaitRequestVote(t *testing.T, network *Network, from, to raft.PeerID) (*raft.RequestVoteReply, error) {
	t.Helper()
	type result struct {
		reply *raft.RequestVoteReply
		err   error
	}
	done := make(chan result, 1)

	network.Transport(from).SendRequestVote(context.Background(), to,
		&raft.RequestVoteArgs{Term: 1, CandidateID: from},
		func(reply *raft.RequestVoteReply, err error) {
			done <- result{reply, err}
		})

	select {
	case r := <-done:
		return r.reply, r.err
	case <-time.After(time.Second):
		t.Fatal("no response delivered within a second")
		return nil, nil
	}
}

func TestNetworkRoutesToRegisteredHandler(t *testing.T) {
	network := newNetworkWithNodes("n1", "n2")

	reply, err := awaitRequestVote(t, network, "n1", "n2")
	if err != nil {
		t.Fatalf("SendRequestVote: %v", err)
	}
	if !reply.VoteGranted {
		t.Error("an idle node should grant a first-term vote")
	}
}

func TestNetworkReportsUnknownPeer(t *testing.T) {
	network := newNetworkWithNodes("n1", "n2")

	_, err := awaitRequestVote(t, network, "n1", "n9")
	if !errors.Is(err, raft.ErrPeerUnknown) {
		t.Errorf("expected ErrPeerUnknown, got %v", err)
	}
}

func TestPartitionBlocksBothDirectionsUntilHealed(t *testing.T) {
	network := newNetworkWithNodes("n1", "n2")
	network.Partition("n2")

	if _, err := awaitRequestVote(t, network, "n1", "n2"); !errors.Is(err, ErrPartitioned) {
		t.Errorf("expected ErrPartitioned sending to an isolated node, got %v", err)
	}
	if _, err := awaitRequestVote(t, network, "n2", "n1"); !errors.Is(err, ErrPartitioned) {
		t.Errorf("expected ErrPartitioned sending from an isolated node, got %v", err)
	}

	network.Heal("n2")

	if _, err := awaitRequestVote(t, network, "n1", "n2"); err != nil {
		t.Errorf("expected delivery after Heal, got %v", err)
	}
}
