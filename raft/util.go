package raft

import (
	"math/rand"
	"time"
)

// Default tunables. Config.withDefaults falls back to these for any
// zero-valued field; an embedder overrides by setting the
// corresponding Config field.
const (
	ElectionTimeoutFixed  = 1000 * time.Millisecond
	ElectionTimeoutRandom = 2000 * time.Millisecond
	HeartbeatInterval     = 250 * time.Millisecond
	MaxEntriesPerRequest  = 250
	TickPeriod            = 10 * time.Millisecond

	// appendPendingDeadline bounds how long a per-peer outstanding
	// append may sit unanswered before the engine clears appendPending
	// itself and tries again, so a dropped reply cannot strand a peer.
	appendPendingDeadline = 4 * HeartbeatInterval
)

// electionTimeout draws this engine's next randomised election
// deadline from its Config.
func (e *Engine) electionTimeout() time.Duration {
	return e.cfg.ElectionTimeoutFixed + time.Duration(rand.Int63n(int64(e.cfg.ElectionTimeoutRandom)))
}

func minUint64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxUint64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// quorumSize returns the number of affirmative votes/acks required
// (self included) out of a cluster with peerCount remote members.
func quorumSize(peerCount int) int {
	return 1 + peerCount/2
}
