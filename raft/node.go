package raft

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Role is the engine's position in the Raft role state machine:
// Joining → Follower → Candidate → Leader → Leaving, plus the
// non-voting Observer role.
type Role int

const (
	Joining Role = iota
	Follower
	Candidate
	Leader
	Leaving
	Observer
)

func (r Role) String() string {
	switch r {
	case Joining:
		return "Joining"
	case Follower:
		return "Follower"
	case Candidate:
		return "Candidate"
	case Leader:
		return "Leader"
	case Leaving:
		return "Leaving"
	case Observer:
		return "Observer"
	default:
		return "Unknown"
	}
}

// peerState is the per-remote-peer replication bookkeeping.
type peerState struct {
	id                 PeerID
	nextIndex          uint64
	matchIndex         uint64
	appendPending      bool
	appendPendingSince time.Time
	lastAppendInstant  time.Time
}

// Engine is the Raft control core: role controller, election
// subsystem, replication subsystem, commit advancer, apply loop and
// inbound RPC handlers, all protected by a single exclusion domain:
// every entry point takes the same mutex.
type Engine struct {
	mu sync.Mutex

	cfg Config

	role             Role
	currentTerm      uint64
	votedFor         PeerID
	leaderID         PeerID
	myPeerID         PeerID
	electionDeadline time.Time
	votesReceived    int

	peers map[PeerID]*peerState

	log Log
	sm  StateMachine
	rpc RPC

	rawLogger *zap.Logger
	logger    *eventLogger

	ticker   *time.Ticker
	stopCh   chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewEngine constructs an un-started engine from cfg. If cfg.ID is
// empty, SetPeerID must be called before Start; AddPeer may be used
// either way to grow the peer set cfg.Peers started with.
func NewEngine(cfg Config, log Log, sm StateMachine, rpc RPC, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:       cfg,
		role:      Joining,
		myPeerID:  cfg.ID,
		peers:     make(map[PeerID]*peerState),
		log:       log,
		sm:        sm,
		rpc:       rpc,
		rawLogger: logger,
		logger:    newEventLogger(logger, cfg.ID),
		stopCh:    make(chan struct{}),
	}
	for _, p := range cfg.Peers {
		e.peers[p] = &peerState{id: p, nextIndex: 1}
	}
	return e
}

// SetPeerID assigns this node's identity. Must be called before Start.
func (e *Engine) SetPeerID(id PeerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.myPeerID = id
	e.logger = newEventLogger(e.rawLogger, id)
}

// AddPeer registers a remote cluster member. Must be called before
// Start; the peer set is fixed for the lifetime of the engine.
func (e *Engine) AddPeer(id PeerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.peers[id]; ok {
		return
	}
	e.peers[id] = &peerState{id: id, nextIndex: 1}
}

// Start transitions Joining → Follower and begins the periodic tick.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.myPeerID == "" {
		return fmt.Errorf("raft: SetPeerID must be called before Start")
	}
	if e.started {
		return nil
	}
	e.started = true

	e.role = Follower
	e.currentTerm = maxUint64(e.currentTerm, 1)
	e.rescheduleElectionLocked("start")

	e.ticker = time.NewTicker(e.cfg.TickPeriod)
	go e.run()

	return nil
}

// Stop transitions the engine to Leaving, terminal for the tick
// goroutine.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		e.role = Leaving
		e.mu.Unlock()
		close(e.stopCh)
	})
}

func (e *Engine) run() {
	for {
		select {
		case <-e.stopCh:
			if e.ticker != nil {
				e.ticker.Stop()
			}
			return
		case <-e.ticker.C:
			e.tick()
		}
	}
}

// tick is the periodic logical clock driving the engine.
func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.role == Leaving {
		return
	}

	e.driveApplyLocked()

	switch e.role {
	case Follower, Candidate:
		if time.Now().After(e.electionDeadline) {
			e.startElectionLocked()
		}
	case Leader:
		e.advanceCommitLocked()
		e.dispatchToAllPeersLocked()
	case Joining, Observer, Leaving:
		// no action
	}
}

// SetObserver marks this node as a non-voting Observer: it still
// serves RequestVote/AppendEntries like a Follower but never times out
// to Candidate. The core never makes this transition itself; it is for
// the embedder to call, typically right after Start.
func (e *Engine) SetObserver() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.role == Follower || e.role == Joining {
		e.role = Observer
	}
}

// GetRole returns the current role.
func (e *Engine) GetRole() Role {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.role
}

// GetCurrentTerm returns the current term.
func (e *Engine) GetCurrentTerm() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTerm
}

// GetLeaderID returns the last observed leader for the current term,
// or "" if none is known. Advisory only: not guaranteed current.
func (e *Engine) GetLeaderID() PeerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.leaderID
}

// GetLog returns the Log collaborator.
func (e *Engine) GetLog() Log { return e.log }

// GetStateMachine returns the StateMachine collaborator.
func (e *Engine) GetStateMachine() StateMachine { return e.sm }

// rescheduleElectionLocked resets the election deadline. Caller must
// hold mu.
func (e *Engine) rescheduleElectionLocked(reason string) {
	e.electionDeadline = time.Now().Add(e.electionTimeout())
	e.logger.electionTimerReset(reason)
}

// quorumNeeded returns the number of affirmative votes/acks required,
// counting self. This engine does not track remote peers' own roles,
// so all registered peers are assumed voting members.
func (e *Engine) quorumNeeded() int {
	return quorumSize(len(e.peers))
}
