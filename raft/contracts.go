// Package raft implements the control core of a Raft consensus engine:
// role transitions, leader election, log replication dispatch, commit
// advancement and the apply loop. Durable storage, wire transport and
// the state machine itself are collaborators reached only through the
// interfaces in this file.
package raft

import "context"

// PeerID identifies a cluster member. The zero value means "no peer".
type PeerID string

// LogEntry is one replicated record: a position in the log (Index,
// Term) and the command that was appended there.
type LogEntry struct {
	Index   uint64
	Term    uint64
	Command Command
}

// Command is a user-domain operation the state machine knows how to
// apply. Concrete command types are defined by the embedder (see
// package kvstatemachine for a reference implementation).
type Command interface {
	ApplyTo(sm StateMachine) error
}

// Log is the durable, ordered command log collaborator. Persistence
// and snapshotting are left to the implementation; this interface only
// describes the shape the engine depends on.
type Log interface {
	// LastIndex returns the index of the last entry, or 0 if empty.
	LastIndex() uint64
	// LastTerm returns the term of the last entry, or 0 if empty.
	LastTerm() uint64
	// TermAt returns the term stored at index, or 0 if index is 0 or
	// not present.
	TermAt(index uint64) uint64
	// CommitIndex returns the highest index known committed.
	CommitIndex() uint64
	// SetCommitIndex advances the commit index. Implementations must
	// reject (return an error) any index lower than the current one.
	SetCommitIndex(index uint64) error
	// AppendCommand appends command at term as the new last entry and
	// returns the resulting entry. Used only by a Leader (optimistic
	// local append of a freshly submitted client command). The bool is
	// false if the log refused the append.
	AppendCommand(term uint64, command Command) (LogEntry, bool)
	// AppendEntry appends (or overwrites, per Raft log-matching rules)
	// a replicated entry received from the leader. Returns false if
	// the entry could not be appended.
	AppendEntry(entry LogEntry) bool
	// IsConsistentWith reports whether the log has an entry at index
	// with term, or whether index and term are both 0 (the universal
	// base case).
	IsConsistentWith(index, term uint64) bool
	// EntriesFrom returns up to maxCount entries starting at start, in
	// order. An empty result is a valid heartbeat payload.
	EntriesFrom(start uint64, maxCount int) []LogEntry
	// Entry returns the entry at index, if present.
	Entry(index uint64) (LogEntry, bool)
}

// StateMachine is the deterministic, replicated application state. See
// package kvstatemachine for a reference implementation.
type StateMachine interface {
	// Index returns the highest applied log index.
	Index() uint64
	// Apply advances the state machine's applied index marker to
	// index/term. The command itself was already delivered via
	// Command.ApplyTo before this is called.
	Apply(index, term uint64) error
	// Reset discards all applied state, returning the state machine to
	// its zero value. Used to discard optimistically-applied leader
	// state that never committed.
	Reset()
}

// RequestVoteArgs is the payload of an outbound/inbound RequestVote RPC.
type RequestVoteArgs struct {
	Term         uint64
	CandidateID  PeerID
	LastLogIndex uint64
	LastLogTerm  uint64
}

// RequestVoteReply is the response to a RequestVote RPC.
type RequestVoteReply struct {
	Term        uint64
	VoteGranted bool
}

// AppendEntriesArgs is the payload of an outbound/inbound AppendEntries
// RPC. A nil/empty Entries is a heartbeat.
type AppendEntriesArgs struct {
	Term         uint64
	LeaderID     PeerID
	PrevLogIndex uint64
	PrevLogTerm  uint64
	Entries      []LogEntry
	LeaderCommit uint64
}

// AppendEntriesReply is the response to an AppendEntries RPC.
type AppendEntriesReply struct {
	Term         uint64
	Success      bool
	LastLogIndex uint64 // receiver's lastIndex(), aids leader rewind
}

// RPC is the transport collaborator. Sends are fire-and-forget: the
// response (or a transport error) is delivered at most once, later and
// asynchronously, to onResponse. See package transport/grpc and
// transport/inmemory for concrete implementations.
type RPC interface {
	SendRequestVote(ctx context.Context, peer PeerID, args *RequestVoteArgs, onResponse func(*RequestVoteReply, error))
	SendAppendEntries(ctx context.Context, peer PeerID, args *AppendEntriesArgs, onResponse func(*AppendEntriesReply, error))
}
