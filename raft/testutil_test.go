package raft

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// fakeLog is a minimal in-memory Log for unit tests, independent of
// package memlog to avoid a test-only import cycle (memlog imports
// raft). Semantics mirror memlog.Log.
type fakeLog struct {
	entries     []LogEntry
	commitIndex uint64
}

func newFakeLog() *fakeLog {
	return &fakeLog{entries: []LogEntry{{Index: 0, Term: 0}}}
}

func (l *fakeLog) LastIndex() uint64 { return uint64(len(l.entries) - 1) }
func (l *fakeLog) LastTerm() uint64  { return l.entries[len(l.entries)-1].Term }

func (l *fakeLog) TermAt(index uint64) uint64 {
	if index == 0 || index >= uint64(len(l.entries)) {
		return 0
	}
	return l.entries[index].Term
}

func (l *fakeLog) CommitIndex() uint64 { return l.commitIndex }

func (l *fakeLog) SetCommitIndex(index uint64) error {
	if index < l.commitIndex {
		return fmt.Errorf("fakeLog: commit index must not decrease")
	}
	l.commitIndex = index
	return nil
}

func (l *fakeLog) AppendCommand(term uint64, command Command) (LogEntry, bool) {
	entry := LogEntry{Index: uint64(len(l.entries)), Term: term, Command: command}
	l.entries = append(l.entries, entry)
	return entry, true
}

func (l *fakeLog) AppendEntry(entry LogEntry) bool {
	if entry.Index == 0 || entry.Index > uint64(len(l.entries)) {
		return false
	}
	if entry.Index < uint64(len(l.entries)) {
		if l.entries[entry.Index].Term == entry.Term {
			return true
		}
		l.entries = l.entries[:entry.Index]
	}
	l.entries = append(l.entries, entry)
	return true
}

func (l *fakeLog) IsConsistentWith(index, term uint64) bool {
	if index == 0 {
		return term == 0
	}
	if index >= uint64(len(l.entries)) {
		return false
	}
	return l.entries[index].Term == term
}

func (l *fakeLog) EntriesFrom(start uint64, maxCount int) []LogEntry {
	if start == 0 {
		start = 1
	}
	if start >= uint64(len(l.entries)) {
		return nil
	}
	end := start + uint64(maxCount)
	if end > uint64(len(l.entries)) {
		end = uint64(len(l.entries))
	}
	out := make([]LogEntry, end-start)
	copy(out, l.entries[start:end])
	return out
}

func (l *fakeLog) Entry(index uint64) (LogEntry, bool) {
	if index >= uint64(len(l.entries)) {
		return LogEntry{}, false
	}
	return l.entries[index], true
}

// fakeStateMachine is a minimal StateMachine recording what it applied.
type fakeStateMachine struct {
	index   uint64
	applied []LogEntry
}

func (s *fakeStateMachine) Index() uint64 { return s.index }

func (s *fakeStateMachine) Apply(index, term uint64) error {
	s.index = index
	s.applied = append(s.applied, LogEntry{Index: index, Term: term})
	return nil
}

func (s *fakeStateMachine) Reset() {
	s.index = 0
	s.applied = nil
}

// noopCommand is a Command with no side effect, for tests that only
// care about log/commit/apply bookkeeping.
type noopCommand string

func (noopCommand) ApplyTo(StateMachine) error { return nil }

// capturingRPC records every outbound send instead of completing it,
// so a test can inspect what the engine sent and reply on its own
// schedule by invoking the captured onResponse callback.
type capturingRPC struct {
	mu            sync.Mutex
	requestVotes  []capturedRequestVote
	appendEntries []capturedAppendEntries
}

type capturedRequestVote struct {
	peer       PeerID
	args       *RequestVoteArgs
	onResponse func(*RequestVoteReply, error)
}

type capturedAppendEntries struct {
	peer       PeerID
	args       *AppendEntriesArgs
	onResponse func(*AppendEntriesReply, error)
}

func (r *capturingRPC) SendRequestVote(_ context.Context, peer PeerID, args *RequestVoteArgs, onResponse func(*RequestVoteReply, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requestVotes = append(r.requestVotes, capturedRequestVote{peer, args, onResponse})
}

func (r *capturingRPC) SendAppendEntries(_ context.Context, peer PeerID, args *AppendEntriesArgs, onResponse func(*AppendEntriesReply, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appendEntries = append(r.appendEntries, capturedAppendEntries{peer, args, onResponse})
}

func (r *capturingRPC) lastAppendTo(peer PeerID) (capturedAppendEntries, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.appendEntries) - 1; i >= 0; i-- {
		if r.appendEntries[i].peer == peer {
			return r.appendEntries[i], true
		}
	}
	return capturedAppendEntries{}, false
}

// newTestEngine builds an un-started engine with the given peers
// registered, wired to fakes rather than memlog/kvstatemachine/grpc
// (those import this package, and an internal test file importing them
// back would be a cycle).
func newTestEngine(id PeerID, peers ...PeerID) (*Engine, *fakeLog, *fakeStateMachine, *capturingRPC) {
	log := newFakeLog()
	sm := &fakeStateMachine{}
	rpc := &capturingRPC{}
	e := NewEngine(DefaultConfig(id, peers...), log, sm, rpc, zap.NewNop())
	return e, log, sm, rpc
}
