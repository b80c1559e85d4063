// Package service exposes a read-only HTTP API over a running session:
// JSON endpoints for stats, players and the fingerprint ledger, and a
// websocket feed of per-frame fingerprint samples for spectators.
package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rewindnet/rewind/src/session"
	"github.com/sirupsen/logrus"
)

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	node        *session.Node
	logger      *logrus.Entry

	upgrader websocket.Upgrader

	watchersLock sync.Mutex
	watchers     map[*websocket.Conn]bool
}

// NewService ...
func NewService(bindAddress string, n *session.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		watchers: map[*websocket.Conn]bool{},
	}

	service.registerHandlers()

	go service.broadcastSamples()

	return &service
}

// registerHandlers registers the API handlers with the DefaultServerMux of
// the http package. It is possible that another server in the same process is
// simultaneously using the DefaultServerMux. In which case, the handlers will
// be accessible from both servers.
func (s *Service) registerHandlers() {
	s.logger.Debug("Registering rewind API handlers")
	http.HandleFunc("/stats", s.makeHandler(s.GetStats))
	http.HandleFunc("/players", s.makeHandler(s.GetPlayers))
	http.HandleFunc("/ledger", s.makeHandler(s.GetLedger))
	http.HandleFunc("/desync", s.makeHandler(s.GetDesync))
	http.HandleFunc("/watch", s.Watch)
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call. It is not necessary to
// call Serve when rewind is used in-memory and another server has already
// been started with the DefaultServerMux and the same address:port
// combination. Indeed, the API handlers have already been registered when the
// service was instantiated.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving rewind API")

	// Use the DefaultServerMux
	err := http.ListenAndServe(s.bindAddress, nil)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(stats)
}

// GetPlayers ...
func (s *Service) GetPlayers(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(s.node.Players().Players)
}

// GetLedger returns the outbound fingerprint ledger, in slot order.
func (s *Service) GetLedger(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(s.node.LedgerEntries())
}

// GetDesync returns the terminal integrity fault, or null.
func (s *Service) GetDesync(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(s.node.Desync())
}

// Watch upgrades the connection to a websocket and streams (frame,
// fingerprint) samples until the client goes away.
func (s *Service) Watch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Error("Upgrading watch connection")
		return
	}

	s.watchersLock.Lock()
	s.watchers[conn] = true
	s.watchersLock.Unlock()

	s.logger.WithField("remote", conn.RemoteAddr()).Debug("Watcher connected")
}

// broadcastSamples fans the node's sample feed out to every connected
// watcher. Watchers that fail a write are dropped.
func (s *Service) broadcastSamples() {
	for sample := range s.node.Samples() {
		payload, err := json.Marshal(sample)
		if err != nil {
			continue
		}

		s.watchersLock.Lock()
		for conn := range s.watchers {
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(s.watchers, conn)
			}
		}
		s.watchersLock.Unlock()
	}
}
