package raft

// isCommittableLocked reports whether N has been replicated to a
// strict majority of the cluster, counting self as always caught up to
// lastIndex. Caller must hold mu.
func (e *Engine) isCommittableLocked(N uint64) bool {
	count := 1 // self
	for _, p := range e.peers {
		if p.matchIndex >= N {
			count++
		}
	}
	return count >= e.quorumNeeded()
}

// advanceCommitLocked is the leader-only commit advancer.
// isCommittable(N) is monotonically non-increasing in N, so the scan
// can stop at the first N that fails it. The additional
// log.TermAt(N) == currentTerm check restores the canonical Raft
// safety property of never committing an entry from a prior term by
// counting alone; see DESIGN.md. Caller must hold mu.
func (e *Engine) advanceCommitLocked() {
	commitIndex := e.log.CommitIndex()
	lastIndex := e.log.LastIndex()
	newCommit := commitIndex

	for n := commitIndex + 1; n <= lastIndex; n++ {
		if !e.isCommittableLocked(n) {
			break
		}
		if e.log.TermAt(n) == e.currentTerm {
			newCommit = n
		}
	}

	if newCommit > commitIndex {
		if err := e.log.SetCommitIndex(newCommit); err == nil {
			e.logger.commitAdvanced(newCommit, e.currentTerm)
		}
	}
}
