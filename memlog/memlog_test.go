package memlog

import (
	"testing"

	"raftengine/raft"
)

type testCommand string

func (testCommand) ApplyTo(raft.StateMachine) error { return nil }

func TestLog_BasicAppend(t *testing.T) {
	l := New()

	if l.LastIndex() != 0 || l.LastTerm() != 0 {
		t.Fatalf("empty log should be at (0,0), got (%d,%d)", l.LastIndex(), l.LastTerm())
	}

	entry, ok := l.AppendCommand(1, testCommand("a"))
	if !ok {
		t.Fatal("AppendCommand failed")
	}
	if entry.Index != 1 || entry.Term != 1 {
		t.Errorf("expected entry (1,1), got (%d,%d)", entry.Index, entry.Term)
	}
	if l.LastIndex() != 1 || l.LastTerm() != 1 {
		t.Errorf("expected log at (1,1), got (%d,%d)", l.LastIndex(), l.LastTerm())
	}
	if l.TermAt(1) != 1 {
		t.Errorf("expected TermAt(1) == 1, got %d", l.TermAt(1))
	}
}

func TestLog_CommitIndexNeverDecreases(t *testing.T) {
	l := New()
	l.AppendCommand(1, testCommand("a"))
	l.AppendCommand(1, testCommand("b"))

	if err := l.SetCommitIndex(2); err != nil {
		t.Fatalf("SetCommitIndex(2): %v", err)
	}
	if err := l.SetCommitIndex(1); err == nil {
		t.Error("expected an error lowering the commit index")
	}
	if l.CommitIndex() != 2 {
		t.Errorf("expected commit index 2, got %d", l.CommitIndex())
	}
}

func TestLog_AppendEntryOverwritesConflict(t *testing.T) {
	l := New()
	l.AppendCommand(1, testCommand("a")) // index 1, term 1
	l.AppendCommand(1, testCommand("b")) // index 2, term 1
	l.AppendCommand(2, testCommand("c")) // index 3, term 2

	// A leader with a different entry at index 2 truncates 2..3 first.
	if !l.AppendEntry(raft.LogEntry{Index: 2, Term: 3, Command: testCommand("x")}) {
		t.Fatal("conflicting AppendEntry should succeed by truncating")
	}
	if l.LastIndex() != 2 {
		t.Errorf("expected truncation to index 2, got lastIndex %d", l.LastIndex())
	}
	if l.TermAt(2) != 3 {
		t.Errorf("expected term 3 at index 2 after overwrite, got %d", l.TermAt(2))
	}
}

func TestLog_AppendEntryIdempotent(t *testing.T) {
	l := New()
	l.AppendCommand(1, testCommand("a"))

	if !l.AppendEntry(raft.LogEntry{Index: 1, Term: 1, Command: testCommand("a")}) {
		t.Fatal("re-appending an identical entry should succeed")
	}
	if l.LastIndex() != 1 {
		t.Errorf("idempotent append must not grow the log, lastIndex %d", l.LastIndex())
	}
}

func TestLog_AppendEntryRejectsGap(t *testing.T) {
	l := New()
	if l.AppendEntry(raft.LogEntry{Index: 5, Term: 1}) {
		t.Error("appending past the end of the log should fail")
	}
	if l.AppendEntry(raft.LogEntry{Index: 0, Term: 0}) {
		t.Error("appending at index 0 should fail")
	}
}

func TestLog_IsConsistentWith(t *testing.T) {
	l := New()
	l.AppendCommand(2, testCommand("a"))

	if !l.IsConsistentWith(0, 0) {
		t.Error("(0,0) must be consistent against any log")
	}
	if !l.IsConsistentWith(1, 2) {
		t.Error("expected (1,2) to be consistent")
	}
	if l.IsConsistentWith(1, 1) {
		t.Error("(1,1) must not be consistent with a term-2 entry at index 1")
	}
	if l.IsConsistentWith(2, 2) {
		t.Error("an index past the end must not be consistent")
	}
}

func TestLog_EntriesFromBounds(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		l.AppendCommand(1, testCommand("x"))
	}

	entries := l.EntriesFrom(2, 2)
	if len(entries) != 2 || entries[0].Index != 2 || entries[1].Index != 3 {
		t.Errorf("expected entries [2,3], got %v", entries)
	}

	if got := l.EntriesFrom(6, 10); got != nil {
		t.Errorf("expected nil past the end, got %v", got)
	}

	all := l.EntriesFrom(1, 100)
	if len(all) != 5 {
		t.Errorf("expected all 5 entries, got %d", len(all))
	}
}
