// Package rewind wires a complete node together: configuration, identity
// key, player set, transport, session, flight recorder and HTTP service.
package rewind

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/rewindnet/rewind/src/config"
	"github.com/rewindnet/rewind/src/crypto/keys"
	"github.com/rewindnet/rewind/src/engine"
	"github.com/rewindnet/rewind/src/net"
	"github.com/rewindnet/rewind/src/net/signal/wamp"
	"github.com/rewindnet/rewind/src/peers"
	"github.com/rewindnet/rewind/src/recorder"
	"github.com/rewindnet/rewind/src/service"
	"github.com/rewindnet/rewind/src/session"
	"github.com/sirupsen/logrus"
)

// Rewind is a concentration of all the components of a rewind node.
type Rewind struct {
	Config    *config.Config
	World     engine.World
	Players   *peers.PlayerSet
	Transport net.Transport
	Recorder  recorder.Recorder
	Node      *session.Node
	Service   *service.Service
}

// NewRewind instantiates a new Rewind node from a config object and a world.
func NewRewind(conf *config.Config, world engine.World) *Rewind {
	return &Rewind{
		Config: conf,
		World:  world,
	}
}

func (r *Rewind) initKey() error {
	if r.Config.Key == nil {
		keyfile := keys.NewSimpleKeyfile(r.Config.Keyfile())

		privKey, err := keyfile.ReadKey()
		if err != nil {
			return fmt.Errorf("cannot read private key from file: %v", err)
		}

		r.Config.Key = privKey
	}
	return nil
}

func (r *Rewind) initPlayers() error {
	if r.Players != nil {
		return nil
	}

	store := peers.NewJSONPlayerSet(r.Config.DataDir)

	players, err := store.PlayerSet()
	if err != nil {
		return err
	}

	if players.Len() < 1 {
		return fmt.Errorf("players.json should define at least one player")
	}

	r.Players = players

	return nil
}

func (r *Rewind) initTransport() error {
	logger := r.Config.Logger()

	if r.Config.WebRTC {
		signal, err := wamp.NewClient(
			r.Config.SignalAddr,
			r.Config.SignalRealm,
			keys.PublicKeyHex(&r.Config.Key.PublicKey),
			r.Config.CertFile(),
			r.Config.SignalSkipVerify,
			r.Config.HelloTimeout,
			logger,
		)
		if err != nil {
			return err
		}

		transport, err := net.NewWebRTCTransport(
			signal,
			r.Config.ICEServers(),
			r.Config.MaxPool,
			r.Config.TCPTimeout,
			r.Config.HelloTimeout,
			logger,
		)
		if err != nil {
			return err
		}

		r.Transport = transport

		return nil
	}

	transport, err := net.NewTCPTransport(
		r.Config.BindAddr,
		r.Config.AdvertiseAddr,
		r.Config.MaxPool,
		r.Config.TCPTimeout,
		r.Config.HelloTimeout,
		logger,
	)
	if err != nil {
		return err
	}

	r.Transport = transport

	return nil
}

func (r *Rewind) initRecorder() error {
	if !r.Config.Store {
		r.Recorder = recorder.NewInmemRecorder()

		r.Config.Logger().Debug("created new in-mem recorder")

		return nil
	}

	r.Config.Logger().WithField("path", r.Config.DatabaseDir).
		Debug("Attempting to load or create database")

	rec, err := recorder.NewBadgerRecorder(r.Config.DatabaseDir)
	if err != nil {
		return err
	}

	r.Recorder = rec

	return nil
}

func (r *Rewind) initNode() error {
	validator := session.NewValidator(r.Config.Key, r.Config.Moniker)

	p, ok := r.Players.ByPubKey[validator.PublicKeyHex()]
	if !ok {
		return fmt.Errorf("cannot find self pubkey in players.json")
	}

	r.Config.Logger().WithFields(logrus.Fields{
		"id":      p.ID(),
		"moniker": validator.Moniker,
		"players": r.Players.Len(),
	}).Debug("PLAYERS")

	sessConf := session.NewConfig(
		r.Config.FPS,
		r.Config.MaxPrediction,
		r.Config.LedgerCapacity,
		r.Config.WarmupFrames,
		r.Config.RawLogger(),
	)

	node, err := session.NewNode(
		sessConf,
		validator,
		r.Players,
		r.World,
		r.Transport,
		r.Recorder,
	)
	if err != nil {
		return err
	}

	if err := node.Init(); err != nil {
		return fmt.Errorf("failed to initialize node: %s", err)
	}

	r.Node = node

	return nil
}

func (r *Rewind) initService() error {
	if !r.Config.NoService {
		r.Service = service.NewService(r.Config.ServiceAddr, r.Node, r.Config.Logger())
	}
	return nil
}

// Init initialises the rewind node, in the config-key-players-transport-
// recorder-node-service order.
func (r *Rewind) Init() error {
	if err := r.initKey(); err != nil {
		return err
	}

	if err := r.initPlayers(); err != nil {
		return err
	}

	if err := r.initTransport(); err != nil {
		return err
	}

	if err := r.initRecorder(); err != nil {
		return err
	}

	if err := r.initNode(); err != nil {
		return err
	}

	if err := r.initService(); err != nil {
		return err
	}

	return nil
}

// Run starts the transport listener, the optional service, greets the other
// players, and enters the frame loop. This is a blocking call.
func (r *Rewind) Run() error {
	if r.Service != nil {
		go r.Service.Serve()
	}

	go r.Transport.Listen()

	// Leave the listeners a moment to come up before greeting.
	time.Sleep(100 * time.Millisecond)

	if err := r.Node.Hello(); err != nil {
		r.Config.Logger().WithError(err).Warning("Hello round incomplete, continuing")
	}

	r.Node.Run()

	return nil
}

// Keygen generates a new private key and writes it to the given keyfile,
// refusing to overwrite an existing one.
func Keygen(keyfile string) (*ecdsa.PrivateKey, error) {
	store := keys.NewSimpleKeyfile(keyfile)

	if _, err := store.ReadKey(); err == nil {
		return nil, fmt.Errorf("another key already lives under %s", keyfile)
	}

	privKey, err := keys.GenerateECDSAKey()
	if err != nil {
		return nil, err
	}

	if err := store.WriteKey(privKey); err != nil {
		return nil, err
	}

	return privKey, nil
}
