package raft

import "testing"

func TestAdvanceCommitRequiresMajority(t *testing.T) {
	e, log, _, _ := newTestEngine("n1", "n2", "n3", "n4", "n5")
	e.mu.Lock()
	e.role = Leader
	e.currentTerm = 1
	log.AppendCommand(1, noopCommand("x"))

	e.peers["n2"].matchIndex = 1 // only self + n2 == 2 of 5, not a majority
	e.advanceCommitLocked()
	gotBeforeMajority := log.CommitIndex()

	e.peers["n3"].matchIndex = 1 // self + n2 + n3 == 3, quorumSize(4) == 3
	e.advanceCommitLocked()
	gotAfterMajority := log.CommitIndex()
	e.mu.Unlock()

	if gotBeforeMajority != 0 {
		t.Errorf("expected commit index to stay 0 before a majority, got %d", gotBeforeMajority)
	}
	if gotAfterMajority != 1 {
		t.Errorf("expected commit index 1 once a majority replicated it, got %d", gotAfterMajority)
	}
}

func TestAdvanceCommitRefusesPriorTermEntryByCountAlone(t *testing.T) {
	e, log, _, _ := newTestEngine("n1", "n2", "n3")
	e.mu.Lock()
	e.role = Leader
	log.AppendCommand(1, noopCommand("x")) // index 1, term 1
	e.currentTerm = 2                      // leader has since moved to term 2

	e.peers["n2"].matchIndex = 1
	e.peers["n3"].matchIndex = 1
	e.advanceCommitLocked()
	got := log.CommitIndex()
	e.mu.Unlock()

	if got != 0 {
		t.Errorf("an entry from a prior term must not be committed by count alone, got commitIndex=%d", got)
	}
}

func TestAdvanceCommitAllowsCurrentTermEntryToCarryPriorOnes(t *testing.T) {
	e, log, _, _ := newTestEngine("n1", "n2", "n3")
	e.mu.Lock()
	e.role = Leader
	log.AppendCommand(1, noopCommand("x")) // index 1, term 1
	e.currentTerm = 2
	log.AppendCommand(2, noopCommand("y")) // index 2, term 2 (the current term)

	e.peers["n2"].matchIndex = 2
	e.peers["n3"].matchIndex = 2
	e.advanceCommitLocked()
	got := log.CommitIndex()
	e.mu.Unlock()

	if got != 2 {
		t.Errorf("expected commit index 2 once a current-term entry reaches majority, got %d", got)
	}
}
