package light

import (
	"github.com/tendermint/tendermint/libs/log"
)

// Instance packages one peer's LightClient together with its State.
type Instance struct {
	Client *LightClient
	State  *State
}

// NewInstance constructs an Instance.
func NewInstance(client *LightClient, state *State) *Instance {
	return &Instance{Client: client, State: state}
}

// LatestTrusted returns the highest Trusted block this instance holds, if
// any.
func (i *Instance) LatestTrusted() (*LightBlock, bool) {
	trusted := i.State.Store.All(StatusTrusted)
	if len(trusted) == 0 {
		return nil, false
	}
	// All returns ascending height order; the last entry is the highest.
	return trusted[len(trusted)-1], true
}

// TrustBlock promotes block to Trusted in this instance's store.
func (i *Instance) TrustBlock(block *LightBlock) {
	i.State.Store.Update(block, StatusTrusted)
}

// PeerList tracks one primary Instance and zero or more witness Instances,
// and implements the rotation policy: a faulty primary is replaced by
// promoting a witness; a faulty witness is simply dropped.
type PeerList struct {
	primaryID PeerID
	instances map[PeerID]*Instance
	witnesses []PeerID // ordered, excludes primaryID
}

// NewPeerList constructs a PeerList with primary as the initial primary and
// witnesses as the initial witness set. witnesses must not include primary.
func NewPeerList(primary PeerID, primaryInstance *Instance, witnesses map[PeerID]*Instance) *PeerList {
	pl := &PeerList{
		primaryID: primary,
		instances: make(map[PeerID]*Instance, len(witnesses)+1),
	}
	pl.instances[primary] = primaryInstance
	for id, inst := range witnesses {
		pl.instances[id] = inst
		pl.witnesses = append(pl.witnesses, id)
	}
	return pl
}

// Primary returns the current primary peer id and Instance.
func (pl *PeerList) Primary() (PeerID, *Instance) {
	return pl.primaryID, pl.instances[pl.primaryID]
}

// WitnessIDs returns the current witness peer ids.
func (pl *PeerList) WitnessIDs() []PeerID {
	out := make([]PeerID, len(pl.witnesses))
	copy(out, pl.witnesses)
	return out
}

// Get returns the Instance for id, if tracked (primary or witness).
func (pl *PeerList) Get(id PeerID) (*Instance, bool) {
	inst, ok := pl.instances[id]
	return inst, ok
}

// Witnesses returns the Io port of every current witness, for use by a
// ForkDetector.
func (pl *PeerList) Witnesses() map[PeerID]Io {
	out := make(map[PeerID]Io, len(pl.witnesses))
	for _, id := range pl.witnesses {
		out[id] = pl.instances[id].Client.Io
	}
	return out
}

// ReplaceFaultyPrimary drops the current primary and promotes the first
// remaining witness in place of it. Returns ErrNoWitnesses if none remain.
func (pl *PeerList) ReplaceFaultyPrimary() error {
	delete(pl.instances, pl.primaryID)

	if len(pl.witnesses) == 0 {
		return ErrNoWitnesses()
	}

	newPrimary := pl.witnesses[0]
	pl.witnesses = pl.witnesses[1:]
	pl.primaryID = newPrimary
	return nil
}

// ReplaceFaultyWitness drops id from the witness set, if present.
func (pl *PeerList) ReplaceFaultyWitness(id PeerID) {
	delete(pl.instances, id)
	for i, w := range pl.witnesses {
		if w == id {
			pl.witnesses = append(pl.witnesses[:i], pl.witnesses[i+1:]...)
			return
		}
	}
}

// Supervisor drives primary verification followed by fork detection across
// witnesses, rotating peers on faults, and submitting evidence when an
// actual fork is found.
type Supervisor struct {
	peers            *PeerList
	forkDetector     ForkDetector
	evidenceReporter EvidenceReporter

	requests chan supervisorRequest
	done     chan struct{}

	logger  log.Logger
	metrics *Metrics
}

// NewSupervisor constructs a Supervisor. Call Run in its own goroutine to
// start serving Handle requests; until then, VerifyToHighest/VerifyToTarget
// may also be called directly and synchronously.
func NewSupervisor(peers *PeerList, detector ForkDetector, reporter EvidenceReporter) *Supervisor {
	return &Supervisor{
		peers:            peers,
		forkDetector:     detector,
		evidenceReporter: reporter,
		requests:         make(chan supervisorRequest),
		done:             make(chan struct{}),
		logger:           log.NewNopLogger(),
	}
}

// SetLogger sets the logger used for diagnostic output.
func (s *Supervisor) SetLogger(logger log.Logger) { s.logger = logger }

// SetMetrics attaches a Metrics instance; passing nil disables recording.
func (s *Supervisor) SetMetrics(metrics *Metrics) { s.metrics = metrics }

// VerifyToHighest verifies to the primary's highest available block,
// performing fork detection and peer rotation as needed.
func (s *Supervisor) VerifyToHighest() (*LightBlock, error) {
	return s.verify(nil)
}

// VerifyToTarget verifies to the given height, performing fork detection and
// peer rotation as needed.
func (s *Supervisor) VerifyToTarget(height Height) (*LightBlock, error) {
	return s.verify(&height)
}

// LatestTrusted returns the primary's highest Trusted block, if any.
func (s *Supervisor) LatestTrusted() (*LightBlock, bool) {
	_, primary := s.peers.Primary()
	return primary.LatestTrusted()
}

func (s *Supervisor) verify(height *Height) (*LightBlock, error) {
	s.metrics.incVerificationAttempt()

	_, primary := s.peers.Primary()

	var verified *LightBlock
	var err error
	if height == nil {
		verified, err = primary.Client.VerifyToHighest()
	} else {
		verified, err = primary.Client.VerifyToTarget(*height)
	}

	if err != nil {
		s.logger.Info("primary verification failed, rotating", "peer", primary.Client.Primary, "err", err)
		if rotateErr := s.peers.ReplaceFaultyPrimary(); rotateErr != nil {
			return nil, rotateErr
		}
		s.metrics.incPrimaryRotation()
		return s.verify(height)
	}

	trusted, ok := primary.LatestTrusted()
	if !ok {
		return nil, ErrNoInitialTrustedState()
	}

	detection, err := s.detectForks(verified, trusted)
	if err != nil {
		return nil, err
	}

	if detection.Kind == NotDetected {
		primary.TrustBlock(verified)
		s.metrics.setTrustedHeight(verified.Height())
		return verified, nil
	}

	forkedPeers, err := s.processForks(detection.Forks)
	if err != nil {
		return nil, err
	}
	if len(forkedPeers) > 0 {
		s.metrics.incForkDetected()
		return nil, ErrForkDetected(forkedPeers)
	}

	// Only timeouts/faulty witnesses were removed; no hard fork. Retry.
	return s.verify(height)
}

func (s *Supervisor) detectForks(verified, trusted *LightBlock) (ForkDetection, error) {
	witnesses := s.peers.Witnesses()
	if len(witnesses) == 0 {
		return ForkDetection{}, ErrNoWitnesses()
	}

	trace := primaryTraceFor(s.peers, verified.Height())
	return s.forkDetector.Detect(verified, trusted, trace, witnesses), nil
}

func primaryTraceFor(peers *PeerList, target Height) []*LightBlock {
	_, primary := peers.Primary()
	return primary.State.GetTrace(target)
}

func (s *Supervisor) processForks(forks []Fork) ([]PeerID, error) {
	_, primary := s.peers.Primary()

	var forked []PeerID
	for _, fork := range forks {
		switch fork.Kind {
		case FaultForked:
			if err := SubmitEvidence(s.evidenceReporter, fork, primary.Client.Primary, s.logger); err != nil {
				s.logger.Error("failed to submit fork evidence", "peer", fork.Peer, "err", err)
			}
			forked = append(forked, fork.Peer)
		case FaultTimeout, FaultFaulty:
			s.peers.ReplaceFaultyWitness(fork.Peer)
			s.metrics.incWitnessRotation()
		}
	}
	return forked, nil
}

// supervisorRequest is one queued Handle call, carried over the requests
// channel into the Supervisor's own goroutine.
type supervisorRequest struct {
	kind   requestKind
	height Height // meaningful only for requestVerifyToTarget
	result chan<- supervisorResult
}

type requestKind uint8

const (
	requestVerifyToHighest requestKind = iota
	requestVerifyToTarget
	requestLatestTrusted
	requestTerminate
)

type supervisorResult struct {
	block *LightBlock
	ok    bool
	err   error
}

// Handle is a thread-safe façade onto a Supervisor running its own event
// loop via Run.
type Handle struct {
	requests chan<- supervisorRequest
}

// Handle returns a new Handle bound to this Supervisor's request channel.
// Run must be started (in its own goroutine) for Handle calls to complete.
func (s *Supervisor) Handle() *Handle {
	return &Handle{requests: s.requests}
}

// Run serves Handle requests until Terminate is called. Intended to be
// launched with `go supervisor.Run()`.
func (s *Supervisor) Run() {
	for {
		req := <-s.requests
		switch req.kind {
		case requestTerminate:
			req.result <- supervisorResult{}
			close(s.done)
			return
		case requestLatestTrusted:
			block, ok := s.LatestTrusted()
			req.result <- supervisorResult{block: block, ok: ok}
		case requestVerifyToHighest:
			block, err := s.VerifyToHighest()
			req.result <- supervisorResult{block: block, err: err}
		case requestVerifyToTarget:
			block, err := s.VerifyToTarget(req.height)
			req.result <- supervisorResult{block: block, err: err}
		}
	}
}

// VerifyToHighest implements the async Handle call by round-tripping
// through the Supervisor's event loop.
func (h *Handle) VerifyToHighest() (*LightBlock, error) {
	result := make(chan supervisorResult, 1)
	h.requests <- supervisorRequest{kind: requestVerifyToHighest, result: result}
	r := <-result
	return r.block, r.err
}

// VerifyToTarget implements the async Handle call by round-tripping through
// the Supervisor's event loop.
func (h *Handle) VerifyToTarget(height Height) (*LightBlock, error) {
	result := make(chan supervisorResult, 1)
	h.requests <- supervisorRequest{kind: requestVerifyToTarget, height: height, result: result}
	r := <-result
	return r.block, r.err
}

// LatestTrusted implements the async Handle call by round-tripping through
// the Supervisor's event loop.
func (h *Handle) LatestTrusted() (*LightBlock, bool) {
	result := make(chan supervisorResult, 1)
	h.requests <- supervisorRequest{kind: requestLatestTrusted, result: result}
	r := <-result
	return r.block, r.ok
}

// Terminate stops the Supervisor's Run loop.
func (h *Handle) Terminate() {
	result := make(chan supervisorResult, 1)
	h.requests <- supervisorRequest{kind: requestTerminate, result: result}
	<-result
}
