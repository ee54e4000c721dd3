package raft

import (
	"context"
	"time"
)

// dispatchToAllPeersLocked offers every peer a chance to receive an
// append/heartbeat this tick. Caller must hold mu.
func (e *Engine) dispatchToAllPeersLocked() {
	for _, p := range e.peers {
		e.maybeDispatchLocked(p)
	}
}

// maybeDispatchLocked issues at most one outstanding AppendEntries RPC
// to p: only when it has new entries to catch up on, or the heartbeat
// interval has elapsed. Caller must hold mu.
func (e *Engine) maybeDispatchLocked(p *peerState) {
	now := time.Now()

	if p.appendPending {
		// A dropped response would otherwise strand this peer forever.
		if now.Sub(p.appendPendingSince) > e.cfg.AppendPendingDeadline {
			p.appendPending = false
		} else {
			return
		}
	}

	hasNewEntries := p.nextIndex <= e.log.LastIndex()
	heartbeatDue := now.Sub(p.lastAppendInstant) >= e.cfg.HeartbeatInterval
	if !hasNewEntries && !heartbeatDue {
		return
	}

	dispatchTerm := e.currentTerm
	prevLogIndex := p.nextIndex - 1
	prevLogTerm := e.log.TermAt(prevLogIndex)
	entries := e.log.EntriesFrom(p.nextIndex, e.cfg.MaxEntriesPerRequest)

	args := &AppendEntriesArgs{
		Term:         dispatchTerm,
		LeaderID:     e.myPeerID,
		PrevLogIndex: prevLogIndex,
		PrevLogTerm:  prevLogTerm,
		Entries:      entries,
		LeaderCommit: e.log.CommitIndex(),
	}

	p.appendPending = true
	p.appendPendingSince = now
	p.lastAppendInstant = now

	if len(entries) == 0 {
		e.logger.heartbeatSent(p.id, dispatchTerm)
	}

	peer := p.id
	var lastSentIndex uint64
	if len(entries) > 0 {
		lastSentIndex = entries[len(entries)-1].Index
	}
	hadEntries := len(entries) > 0

	e.rpc.SendAppendEntries(context.Background(), peer, args, func(reply *AppendEntriesReply, err error) {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.handleAppendEntriesReplyLocked(dispatchTerm, peer, lastSentIndex, hadEntries, reply, err)
	})
}

// handleAppendEntriesReplyLocked processes one AppendEntries response,
// tagged with the term it was dispatched under. Caller must hold mu.
//
// dispatchTerm guards against a reply that outlives its leadership
// term: the appendPendingDeadline supplement (util.go) lets a fresh
// dispatch for a peer fire while an earlier one is still in flight, so
// a response arriving after this node has stepped down and later
// regained leadership in a higher term must not be mistaken for a
// response to the current term's request — it would otherwise set
// matchIndex/nextIndex from a stale send, undoing becomeLeaderLocked's
// per-transition reset.
func (e *Engine) handleAppendEntriesReplyLocked(dispatchTerm uint64, peer PeerID, lastSentIndex uint64, hadEntries bool, reply *AppendEntriesReply, err error) {
	p, ok := e.peers[peer]
	if !ok {
		return
	}

	if err != nil || reply == nil {
		if dispatchTerm == e.currentTerm {
			p.appendPending = false
		}
		return // dropped RPC: next tick/heartbeat will retry
	}
	if e.stepDownLocked(reply.Term) {
		return
	}
	if dispatchTerm != e.currentTerm || e.role != Leader {
		return // stale response from a prior leadership term
	}

	p.appendPending = false

	if reply.Success {
		if hadEntries {
			p.matchIndex = lastSentIndex
			p.nextIndex = p.matchIndex + 1
			e.logger.appendAccepted(peer, p.matchIndex)
		}
		// Pipeline progress without waiting for the next tick.
		e.maybeDispatchLocked(p)
		return
	}

	e.logger.appendRejected(peer, reply.Term, reply.LastLogIndex)
	if p.nextIndex > reply.LastLogIndex {
		p.nextIndex = maxUint64(reply.LastLogIndex, 1)
	} else if p.nextIndex > 1 {
		p.nextIndex--
	}
}

// HandleAppendEntries serves an inbound AppendEntries RPC.
func (e *Engine) HandleAppendEntries(args *AppendEntriesArgs) *AppendEntriesReply {
	e.mu.Lock()
	defer e.mu.Unlock()

	if args.Term < e.currentTerm {
		return &AppendEntriesReply{Term: e.currentTerm, Success: false, LastLogIndex: e.log.LastIndex()}
	}

	if args.Term > e.currentTerm {
		e.stepDownLocked(args.Term)
	}

	e.rescheduleElectionLocked("append entries received")

	if e.leaderID != args.LeaderID {
		e.leaderID = args.LeaderID
	}

	if !e.log.IsConsistentWith(args.PrevLogIndex, args.PrevLogTerm) {
		return &AppendEntriesReply{Term: e.currentTerm, Success: false, LastLogIndex: e.log.LastIndex()}
	}

	for _, entry := range args.Entries {
		if !e.log.AppendEntry(entry) {
			return &AppendEntriesReply{Term: e.currentTerm, Success: false, LastLogIndex: e.log.LastIndex()}
		}
	}

	_ = e.log.SetCommitIndex(minUint64(args.LeaderCommit, e.log.LastIndex()))

	return &AppendEntriesReply{Term: e.currentTerm, Success: true, LastLogIndex: e.log.LastIndex()}
}
