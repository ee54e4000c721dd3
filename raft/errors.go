package raft

import "errors"

// Sentinel errors returned by the engine's public surface. Checked
// with errors.Is.
var (
	// ErrNotLeader is returned by ExecuteCommand when this node is not
	// currently the Leader. Callers are expected to redirect using
	// GetLeaderID.
	ErrNotLeader = errors.New("raft: not the leader")

	// ErrStopped is returned by ExecuteCommand after Stop.
	ErrStopped = errors.New("raft: engine stopped")

	// ErrLogAppendRejected is returned when the Log collaborator
	// refuses an append the engine attempted.
	ErrLogAppendRejected = errors.New("raft: log append rejected")

	// ErrPeerUnknown is delivered by a transport when a send names a
	// PeerID it has no route to.
	ErrPeerUnknown = errors.New("raft: unknown peer")
)
