package session

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rewindnet/rewind/src/engine"
	"github.com/rewindnet/rewind/src/frame"
	"github.com/rewindnet/rewind/src/input"
	"github.com/rewindnet/rewind/src/ledger"
	"github.com/rewindnet/rewind/src/net"
	"github.com/rewindnet/rewind/src/peers"
	"github.com/rewindnet/rewind/src/recorder"
	"github.com/sirupsen/logrus"
)

// Sample is one (frame, fingerprint) pair, published to spectators.
type Sample struct {
	Frame    frame.Frame `json:"frame"`
	Checksum uint16      `json:"checksum"`
}

// Node drives a Core: it runs the fixed-tick frame loop, consumes transport
// RPCs, broadcasts local input, and owns the session state machine.
type Node struct {
	state

	conf   *Config
	logger *logrus.Entry

	validator *Validator
	players   *peers.PlayerSet

	core     *Core
	coreLock sync.Mutex

	trans net.Transport
	netCh <-chan net.RPC

	rec recorder.Recorder

	// latest local controls, staged by SubmitControls
	controls     input.Packet
	controlsLock sync.Mutex

	// last frame received from each remote player
	acks map[uint32]frame.Frame

	// pending rollback signal for the next frame
	rollback frame.RollbackStatus

	// terminal desync fault, set once
	desync *ledger.IntegrityError

	samplesCh chan Sample

	sigintCh   chan os.Signal
	shutdownCh chan struct{}
	resumeCh   chan struct{}

	controlTimer *ControlTimer

	start     time.Time
	framesRun int
}

// NewNode is a factory method that returns a Node instance
func NewNode(
	conf *Config,
	validator *Validator,
	players *peers.PlayerSet,
	world engine.World,
	trans net.Transport,
	rec recorder.Recorder,
) (*Node, error) {

	core, err := NewCore(validator, players, world, conf, conf.Logger)
	if err != nil {
		return nil, err
	}

	//Prepare sigintCh to relay SIGINT system calls
	sigintCh := make(chan os.Signal, 1)
	signal.Notify(sigintCh, os.Interrupt, syscall.SIGINT)

	node := &Node{
		conf:         conf,
		logger:       conf.Logger.WithField("this_id", validator.ID()),
		validator:    validator,
		players:      players,
		core:         core,
		trans:        trans,
		netCh:        trans.Consumer(),
		rec:          rec,
		controls:     input.NewPacket(),
		acks:         make(map[uint32]frame.Frame),
		samplesCh:    make(chan Sample, 256),
		sigintCh:     sigintCh,
		shutdownCh:   make(chan struct{}),
		resumeCh:     make(chan struct{}, 1),
		controlTimer: NewFixedControlTimer(),
	}

	return node, nil
}

// Init initialises the node
func (n *Node) Init() error {
	if err := n.conf.Validate(); err != nil {
		return err
	}
	n.start = time.Now()
	n.setState(Running)
	return nil
}

// RunAsync calls Run as a separate thread
func (n *Node) RunAsync() {
	go n.Run()
}

// Run invokes the main loop of the node
func (n *Node) Run() {
	go n.controlTimer.Run(n.conf.TickInterval())

	go n.doBackgroundWork()

	for {
		state := n.getState()

		n.logger.WithField("state", state.String()).Debug("Run loop")

		switch state {
		case Running:
			n.running()
		case Suspended:
			n.suspended()
		case Desynced:
			n.desynced()
		case Shutdown:
			return
		}
	}
}

func (n *Node) doBackgroundWork() {
	for {
		select {
		case rpc := <-n.netCh:
			n.goFunc(func() {
				n.logger.Debug("Processing RPC")
				n.processRPC(rpc)
			})
		case <-n.shutdownCh:
			return
		case <-n.sigintCh:
			n.logger.Debug("Reacting to SIGINT")
			n.Shutdown()
			os.Exit(0)
		}
	}
}

// running steps the simulation on every timer tick, until the state changes.
func (n *Node) running() {
	n.logger.Debug("RUNNING")

	for {
		select {
		case <-n.controlTimer.tickCh:
			n.stepFrame()
			n.resetTimer()
			if n.getState() != Running {
				return
			}
		case <-n.shutdownCh:
			return
		}
	}
}

// suspended waits for a resume or a shutdown.
func (n *Node) suspended() {
	n.logger.Debug("SUSPENDED")

	select {
	case <-n.resumeCh:
	case <-n.shutdownCh:
	}
}

// desynced is terminal: the simulations have provably diverged, so stepping
// further would only compound the damage. The node stays alive for the
// diagnostics service until it is shut down.
func (n *Node) desynced() {
	n.logger.Error("DESYNCED - simulation halted")

	<-n.shutdownCh
}

func (n *Node) resetTimer() {
	if !n.controlTimer.set {
		n.controlTimer.resetCh <- n.conf.TickInterval()
	}
}

// stepFrame runs one frame: update the confirmed horizon, build and broadcast
// the local input packet, then advance the core.
func (n *Node) stepFrame() {
	n.coreLock.Lock()

	n.updateConfirmed()

	n.controlsLock.Lock()
	controls := n.controls
	n.controlsLock.Unlock()

	packet := n.core.BuildInput(controls)

	// The frame the staged controls execute on; peers ack this number.
	current := n.core.Cursor().Current

	if !n.core.CanAdvance() {
		n.coreLock.Unlock()

		n.logger.WithField("frame", current).Debug("Prediction limit, stalling")

		// Keep broadcasting while stalled. The packet re-advertises our
		// frame, so a peer that stalled on our silence can refresh its ack
		// horizon and confirm again. Without it, a delivery gap longer than
		// the prediction window would leave both ends starving each other's
		// acks forever.
		n.broadcast(current, packet)

		return
	}

	status := n.rollback
	n.rollback = frame.RollbackStatus{}

	f, sum, err := n.core.RunFrame(status)

	n.coreLock.Unlock()

	if err != nil {
		if ledger.IsIntegrity(err) {
			n.handleDesync(err)
		} else {
			n.logger.WithError(err).Error("stepFrame")
		}
		return
	}

	n.framesRun++

	if f != frame.Null {
		if n.rec != nil {
			if rerr := n.rec.RecordFrame(f, sum); rerr != nil {
				n.logger.WithError(rerr).Warning("Recording frame")
			}
		}
		select {
		case n.samplesCh <- Sample{Frame: f, Checksum: sum}:
		default:
		}
	}

	n.broadcast(current, packet)
}

// broadcast sends the input packet to every other player, fire and forget.
func (n *Node) broadcast(current frame.Frame, packet input.Packet) {
	for _, p := range n.players.Others(n.validator.ID()) {
		peer := p
		n.goFunc(func() {
			n.sendInput(peer, current, packet)
		})
	}
}

// updateConfirmed recomputes the confirmed horizon. A frame is confirmed once
// every remote player's input for it has been received; a solo session
// confirms every simulated frame immediately.
func (n *Node) updateConfirmed() {
	current := n.core.Cursor().Current

	confirmed := current - 1

	for _, p := range n.players.Others(n.validator.ID()) {
		ack := n.acks[p.ID()]
		if ack < confirmed {
			confirmed = ack
		}
	}

	n.core.SetConfirmed(confirmed)
}

// handleDesync moves the node to the terminal Desynced state.
func (n *Node) handleDesync(err error) {
	var ierr *ledger.IntegrityError
	if !errors.As(err, &ierr) {
		return
	}

	n.logger.WithFields(logrus.Fields{
		"ledger": ierr.Ledger,
		"frame":  ierr.Frame,
		"have":   ierr.Have,
		"got":    ierr.Got,
	}).Error("DESYNC detected")

	n.desync = ierr

	if n.rec != nil {
		rep := recorder.Desync{
			Frame:      ierr.Frame,
			Ledger:     ierr.Ledger,
			Have:       ierr.Have,
			Got:        ierr.Got,
			OccurredAt: time.Now(),
		}
		if rerr := n.rec.RecordDesync(rep); rerr != nil {
			n.logger.WithError(rerr).Warning("Recording desync")
		}
	}

	n.setState(Desynced)
}

// SubmitControls stages the local controls consumed by the next frame.
func (n *Node) SubmitControls(p input.Packet) {
	n.controlsLock.Lock()
	defer n.controlsLock.Unlock()
	n.controls = p
}

// Suspend pauses the frame loop.
func (n *Node) Suspend() {
	if n.getState() == Running {
		n.setState(Suspended)
	}
}

// Resume restarts a suspended frame loop.
func (n *Node) Resume() {
	if n.getState() == Suspended {
		n.setState(Running)
		select {
		case n.resumeCh <- struct{}{}:
		default:
		}
	}
}

// Shutdown shuts down the node
func (n *Node) Shutdown() {
	if n.getState() != Shutdown {
		n.logger.Debug("Shutdown")

		//Exit any non-shutdown state immediately
		n.setState(Shutdown)

		//Stop and wait for concurrent operations
		close(n.shutdownCh)

		n.waitRoutines()

		n.controlTimer.Shutdown()

		//transport and recorder should only be closed once all concurrent
		//operations are finished otherwise they will panic trying to use
		//closed objects
		n.trans.Close()

		if n.rec != nil {
			n.rec.Close()
		}
	}
}

// Samples returns the channel on which (frame, fingerprint) samples are
// published. Samples are dropped when the channel is full.
func (n *Node) Samples() <-chan Sample {
	return n.samplesCh
}

// Desync returns the terminal integrity fault, if one occurred.
func (n *Node) Desync() *ledger.IntegrityError {
	return n.desync
}

// GetState returns the current state of the node.
func (n *Node) GetState() State {
	return n.getState()
}

// ID returns the local player ID.
func (n *Node) ID() uint32 {
	return n.validator.ID()
}

// Moniker returns the local player moniker.
func (n *Node) Moniker() string {
	return n.validator.Moniker
}

// Players returns the player set.
func (n *Node) Players() *peers.PlayerSet {
	return n.players
}

// Cursor returns the frame cursor.
func (n *Node) Cursor() frame.Cursor {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()
	return n.core.Cursor()
}

// LedgerEntries returns a copy of the outbound ledger, for diagnostics.
func (n *Node) LedgerEntries() []ledger.Entry {
	n.coreLock.Lock()
	defer n.coreLock.Unlock()
	return n.core.LedgerEntries()
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	n.coreLock.Lock()
	cursor := n.core.Cursor()
	n.coreLock.Unlock()

	timeElapsed := time.Since(n.start)

	framesPerSecond := float64(n.framesRun) / timeElapsed.Seconds()

	s := map[string]string{
		"state":           n.getState().String(),
		"moniker":         n.validator.Moniker,
		"current_frame":   strconv.Itoa(int(cursor.Current)),
		"confirmed_frame": strconv.Itoa(int(cursor.Confirmed)),
		"frames_run":      strconv.Itoa(n.framesRun),
		"frames_per_sec":  strconv.FormatFloat(framesPerSecond, 'f', 2, 64),
		"target_fps":      strconv.Itoa(n.conf.FPS),
		"num_players":     strconv.Itoa(n.players.Len()),
		"id":              fmt.Sprint(n.validator.ID()),
	}

	if n.desync != nil {
		s["desync_frame"] = strconv.Itoa(int(n.desync.Frame))
		s["desync_ledger"] = n.desync.Ledger
	}

	return s
}
