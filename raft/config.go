package raft

import "time"

// Config carries construction-time settings for an Engine: identity,
// the initial peer set and the timing/batching tunables, all settable
// by the embedding binary rather than parsed from environment or flags
// inside the engine itself — the engine has no CLI of its own.
type Config struct {
	// ID is this node's identity. May be left zero and set later with
	// SetPeerID, but must be set before Start.
	ID PeerID
	// Peers is the initial, fixed cluster membership. Peers are added
	// before Start and never removed. May be left empty and grown
	// later with AddPeer.
	Peers []PeerID

	// ElectionTimeoutFixed and ElectionTimeoutRandom together bound
	// the randomised election deadline: fixed + uniformRandom[0, random).
	ElectionTimeoutFixed  time.Duration
	ElectionTimeoutRandom time.Duration
	// HeartbeatInterval is the minimum gap between appends to an
	// up-to-date peer.
	HeartbeatInterval time.Duration
	// MaxEntriesPerRequest caps entries sent in one AppendEntries.
	MaxEntriesPerRequest int
	// TickPeriod is the period of the periodic tick.
	TickPeriod time.Duration
	// AppendPendingDeadline bounds how long a per-peer outstanding
	// append may sit unanswered before the engine clears it and tries
	// again, so a dropped reply cannot strand a peer.
	AppendPendingDeadline time.Duration
}

// DefaultConfig returns id and peers paired with the default tunables.
func DefaultConfig(id PeerID, peers ...PeerID) Config {
	return Config{ID: id, Peers: peers}.withDefaults()
}

// withDefaults fills every zero-valued tunable with its default, so an
// embedder may set only the fields it cares to override (or pass a
// zero-valued Config{} and configure ID/peers separately via
// SetPeerID/AddPeer).
func (c Config) withDefaults() Config {
	if c.ElectionTimeoutFixed == 0 {
		c.ElectionTimeoutFixed = ElectionTimeoutFixed
	}
	if c.ElectionTimeoutRandom == 0 {
		c.ElectionTimeoutRandom = ElectionTimeoutRandom
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = HeartbeatInterval
	}
	if c.MaxEntriesPerRequest == 0 {
		c.MaxEntriesPerRequest = MaxEntriesPerRequest
	}
	if c.TickPeriod == 0 {
		c.TickPeriod = TickPeriod
	}
	if c.AppendPendingDeadline == 0 {
		c.AppendPendingDeadline = appendPendingDeadline
	}
	return c
}
