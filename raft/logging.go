package raft

import "go.uber.org/zap"

// eventLogger groups the engine's structured logging by event kind,
// one helper per loggable event, rather than scattering ad-hoc log
// calls through the control flow.
type eventLogger struct {
	log *zap.Logger
}

func newEventLogger(log *zap.Logger, id PeerID) *eventLogger {
	return &eventLogger{log: log.With(zap.String("node", string(id)))}
}

func (l *eventLogger) stateChange(old, new Role, term uint64) {
	l.log.Info("role transition",
		zap.String("from", old.String()),
		zap.String("to", new.String()),
		zap.Uint64("term", term))
}

func (l *eventLogger) electionStarted(term uint64) {
	l.log.Info("election started", zap.Uint64("term", term))
}

func (l *eventLogger) electionWon(term uint64, votes, needed int) {
	l.log.Info("election won", zap.Uint64("term", term), zap.Int("votes", votes), zap.Int("needed", needed))
}

func (l *eventLogger) voteReceived(from PeerID, votes, needed int) {
	l.log.Debug("vote received", zap.String("from", string(from)), zap.Int("votes", votes), zap.Int("needed", needed))
}

func (l *eventLogger) voteGranted(candidate PeerID, term uint64) {
	l.log.Info("vote granted", zap.String("candidate", string(candidate)), zap.Uint64("term", term))
}

func (l *eventLogger) voteDenied(candidate PeerID, term uint64, reason string) {
	l.log.Debug("vote denied", zap.String("candidate", string(candidate)), zap.Uint64("term", term), zap.String("reason", reason))
}

func (l *eventLogger) heartbeatSent(peer PeerID, term uint64) {
	l.log.Debug("heartbeat sent", zap.String("peer", string(peer)), zap.Uint64("term", term))
}

func (l *eventLogger) appendRejected(peer PeerID, term uint64, peerLastLogIndex uint64) {
	l.log.Debug("append entries rejected", zap.String("peer", string(peer)), zap.Uint64("term", term), zap.Uint64("peerLastLogIndex", peerLastLogIndex))
}

func (l *eventLogger) appendAccepted(peer PeerID, matchIndex uint64) {
	l.log.Debug("append entries accepted", zap.String("peer", string(peer)), zap.Uint64("matchIndex", matchIndex))
}

func (l *eventLogger) commitAdvanced(index, term uint64) {
	l.log.Info("commit index advanced", zap.Uint64("index", index), zap.Uint64("term", term))
}

func (l *eventLogger) applied(index, term uint64) {
	l.log.Debug("applied to state machine", zap.Uint64("index", index), zap.Uint64("term", term))
}

func (l *eventLogger) steppedDown(oldTerm, newTerm uint64) {
	l.log.Info("stepping down", zap.Uint64("oldTerm", oldTerm), zap.Uint64("newTerm", newTerm))
}

func (l *eventLogger) electionTimerReset(reason string) {
	l.log.Debug("election timer reset", zap.String("reason", reason))
}
