package raft

import "context"

// startElectionLocked drives Follower/Candidate → Candidate and issues
// vote requests to every peer. Caller must hold mu.
func (e *Engine) startElectionLocked() {
	old := e.role
	e.role = Candidate
	e.currentTerm++
	e.votedFor = e.myPeerID
	e.votesReceived = 1 // self
	term := e.currentTerm

	for _, p := range e.peers {
		p.nextIndex = 1
		p.matchIndex = 0
	}

	e.logger.stateChange(old, Candidate, term)
	e.logger.electionStarted(term)
	e.rescheduleElectionLocked("election started")

	args := &RequestVoteArgs{
		Term:         term,
		CandidateID:  e.myPeerID,
		LastLogIndex: e.log.LastIndex(),
		LastLogTerm:  e.log.LastTerm(),
	}

	// A single-node cluster wins its own election immediately.
	if e.votesReceived >= e.quorumNeeded() {
		e.becomeLeaderLocked(term)
		return
	}

	for id := range e.peers {
		peer := id
		e.rpc.SendRequestVote(context.Background(), peer, args, func(reply *RequestVoteReply, err error) {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.handleRequestVoteReplyLocked(term, peer, reply, err)
		})
	}
}

// handleRequestVoteReplyLocked processes one RequestVote response,
// stale or not, and promotes to Leader once a quorum is reached. Caller
// must hold mu.
func (e *Engine) handleRequestVoteReplyLocked(requestTerm uint64, peer PeerID, reply *RequestVoteReply, err error) {
	if err != nil || reply == nil {
		return
	}
	if e.stepDownLocked(reply.Term) {
		return
	}
	if requestTerm != e.currentTerm || e.role != Candidate {
		return // stale response for a prior election
	}
	if !reply.VoteGranted {
		return
	}

	e.votesReceived++
	needed := e.quorumNeeded()
	e.logger.voteReceived(peer, e.votesReceived, needed)
	if e.votesReceived >= needed {
		e.logger.electionWon(e.currentTerm, e.votesReceived, needed)
		e.becomeLeaderLocked(e.currentTerm)
	}
}

// becomeLeaderLocked transitions Candidate → Leader and resets
// per-peer replication state. Caller must hold mu.
func (e *Engine) becomeLeaderLocked(term uint64) {
	if e.currentTerm != term || (e.role != Candidate) {
		return
	}

	old := e.role
	e.role = Leader
	e.leaderID = e.myPeerID
	e.logger.stateChange(old, Leader, term)

	lastIndex := e.log.LastIndex()
	for _, p := range e.peers {
		p.matchIndex = 0
		p.nextIndex = lastIndex + 1
		p.appendPending = false
	}

	// Append a term-opening no-op so the commit advancer's term-safety
	// check can clear entries from prior terms without waiting on a
	// client command.
	if _, ok := e.log.AppendCommand(term, nil); ok {
		e.updateStateMachineLocked(e.log.LastIndex())
	}

	e.dispatchToAllPeersLocked()
}

// stepDownLocked reverts a Candidate or Leader to Follower on
// observing a higher term. Caller must hold mu. Returns true iff term
// was newer and a step-down occurred.
func (e *Engine) stepDownLocked(term uint64) bool {
	if term <= e.currentTerm {
		return false
	}

	oldTerm := e.currentTerm
	oldRole := e.role
	e.currentTerm = term
	e.votedFor = ""

	if oldRole == Candidate || oldRole == Leader {
		e.role = Follower
		e.logger.stateChange(oldRole, Follower, term)
	}

	// Discard any leader-side optimistic apply that never committed.
	if e.sm.Index() > e.log.CommitIndex() {
		e.sm.Reset()
		e.updateStateMachineLocked(e.log.CommitIndex())
	}

	e.logger.steppedDown(oldTerm, term)
	e.rescheduleElectionLocked("stepped down")
	return true
}

// isLogUpToDateLocked reports whether the candidate's last index and
// last term are both at least this node's own (a conjunction of both
// bounds, not the canonical lexicographic OR). Caller must hold mu.
func (e *Engine) isLogUpToDateLocked(candidateLastIndex, candidateLastTerm uint64) bool {
	return candidateLastIndex >= e.log.LastIndex() && candidateLastTerm >= e.log.LastTerm()
}

// HandleRequestVote serves an inbound RequestVote RPC.
func (e *Engine) HandleRequestVote(args *RequestVoteArgs) *RequestVoteReply {
	e.mu.Lock()
	defer e.mu.Unlock()

	if args.Term > e.currentTerm {
		e.stepDownLocked(args.Term)
	}

	granted := args.Term >= e.currentTerm &&
		(e.votedFor == "" || e.votedFor == args.CandidateID) &&
		e.isLogUpToDateLocked(args.LastLogIndex, args.LastLogTerm)

	if granted {
		e.votedFor = args.CandidateID
		e.logger.voteGranted(args.CandidateID, e.currentTerm)
		e.rescheduleElectionLocked("vote granted")
	} else {
		e.logger.voteDenied(args.CandidateID, args.Term, "term/log/vote check failed")
	}

	return &RequestVoteReply{Term: e.currentTerm, VoteGranted: granted}
}
