// Package memlog is a non-persistent reference implementation of
// raft.Log, for testing and demos. Durable, snapshot-capable storage
// is left to a real embedder.
package memlog

import (
	"fmt"
	"sync"

	"raftengine/raft"
)

// Log is an in-memory, growable slice of raft.LogEntry. entries[0] is
// always the dummy base entry (index 0, term 0), so entries[i].Index
// == i holds as an invariant.
type Log struct {
	mu          sync.RWMutex
	entries     []raft.LogEntry
	commitIndex uint64
}

// New returns an empty log, positioned at index 0.
func New() *Log {
	return &Log{
		entries: []raft.LogEntry{{Index: 0, Term: 0}},
	}
}

func (l *Log) LastIndex() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.entries) - 1)
}

func (l *Log) LastTerm() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[len(l.entries)-1].Term
}

func (l *Log) TermAt(index uint64) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index == 0 || index >= uint64(len(l.entries)) {
		return 0
	}
	return l.entries[index].Term
}

func (l *Log) CommitIndex() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.commitIndex
}

func (l *Log) SetCommitIndex(index uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if index < l.commitIndex {
		return fmt.Errorf("memlog: commit index must not decrease: have %d, got %d", l.commitIndex, index)
	}
	l.commitIndex = index
	return nil
}

func (l *Log) AppendCommand(term uint64, command raft.Command) (raft.LogEntry, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := raft.LogEntry{
		Index:   uint64(len(l.entries)),
		Term:    term,
		Command: command,
	}
	l.entries = append(l.entries, entry)
	return entry, true
}

// AppendEntry appends a replicated entry, applying Raft's
// log-matching overwrite rule: if an entry already exists at this
// index with a different term, it and everything after it are
// discarded first.
func (l *Log) AppendEntry(entry raft.LogEntry) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.Index == 0 || entry.Index > uint64(len(l.entries)) {
		return false
	}
	if entry.Index < uint64(len(l.entries)) {
		if l.entries[entry.Index].Term == entry.Term {
			return true // already present, idempotent
		}
		l.entries = l.entries[:entry.Index]
	}
	l.entries = append(l.entries, entry)
	return true
}

func (l *Log) IsConsistentWith(index, term uint64) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index == 0 {
		return term == 0
	}
	if index >= uint64(len(l.entries)) {
		return false
	}
	return l.entries[index].Term == term
}

func (l *Log) EntriesFrom(start uint64, maxCount int) []raft.LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
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
	out := make([]raft.LogEntry, end-start)
	copy(out, l.entries[start:end])
	return out
}

func (l *Log) Entry(index uint64) (raft.LogEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index >= uint64(len(l.entries)) {
		return raft.LogEntry{}, false
	}
	return l.entries[index], true
}
