package raft

// driveApplyLocked advances the state machine to the current commit
// index. Caller must hold mu.
func (e *Engine) driveApplyLocked() {
	e.updateStateMachineLocked(e.log.CommitIndex())
}

// updateStateMachineLocked applies committed entries in order up to
// targetIndex. An applyTo failure is a programming/data-integrity bug
// that would otherwise let replicas diverge, and is therefore fatal.
func (e *Engine) updateStateMachineLocked(targetIndex uint64) {
	for e.sm.Index() < targetIndex {
		entry, ok := e.log.Entry(e.sm.Index() + 1)
		if !ok {
			panic("raft: missing log entry below commit index")
		}
		if entry.Command != nil {
			if err := entry.Command.ApplyTo(e.sm); err != nil {
				panic("raft: state machine apply failed: " + err.Error())
			}
		}
		if err := e.sm.Apply(entry.Index, entry.Term); err != nil {
			panic("raft: state machine apply failed: " + err.Error())
		}
		e.logger.applied(entry.Index, entry.Term)
	}
}

// ExecuteCommand appends command to the log under the current term and
// optimistically advances the state machine ahead of majority
// acknowledgement. Valid only when this node is Leader; otherwise
// ErrNotLeader, and the caller should redirect via GetLeaderID.
func (e *Engine) ExecuteCommand(command Command) (LogEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.role == Leaving {
		return LogEntry{}, ErrStopped
	}
	if e.role != Leader {
		return LogEntry{}, ErrNotLeader
	}

	entry, ok := e.log.AppendCommand(e.currentTerm, command)
	if !ok {
		return LogEntry{}, ErrLogAppendRejected
	}

	e.updateStateMachineLocked(e.log.LastIndex())

	// Nudge replication immediately rather than waiting for the next
	// tick; harmless, since dispatch is idempotent and per-peer gated
	// by appendPending and HeartbeatInterval.
	e.dispatchToAllPeersLocked()

	return entry, nil
}
