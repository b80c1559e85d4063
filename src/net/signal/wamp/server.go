package wamp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"

	"github.com/gammazero/nexus/v3/router"
	"github.com/gammazero/nexus/v3/wamp"
	"github.com/sirupsen/logrus"
)

// Server is a standalone WAMP router through which players exchange SDP
// offers before establishing direct WebRTC links. It serves WAMP over secure
// websockets; players within the same realm can call each other's procedures.
type Server struct {
	address    string
	router     router.Router
	httpServer *http.Server
	logger     *logrus.Entry
}

// NewServer builds a Server for a single realm, loading the TLS certificate
// and key from the given files.
func NewServer(
	address string,
	realm string,
	certFile string,
	keyFile string,
	logger *logrus.Entry,
) (*Server, error) {

	r, err := router.NewRouter(&router.Config{
		RealmConfigs: []*router.RealmConfig{
			{
				URI:           wamp.URI(realm),
				AnonymousAuth: true,
			},
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("loading X509 key pair: %s", err)
	}

	return &Server{
		address: address,
		router:  r,
		httpServer: &http.Server{
			Handler: router.NewWebsocketServer(r),
			Addr:    address,
			TLSConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
			},
		},
		logger: logger,
	}, nil
}

// Run serves websocket connections until Shutdown. The certificate arguments
// are empty because the key pair is already loaded in the server's TLSConfig.
func (s *Server) Run() error {
	err := s.httpServer.ListenAndServeTLS("", "")
	if err != nil && err != http.ErrServerClosed {
		s.logger.WithError(err).Error("Signal server stopped")
	}
	return err
}

// Shutdown stops the websocket server and closes the WAMP router.
func (s *Server) Shutdown() {
	defer s.router.Close()

	if err := s.httpServer.Shutdown(context.Background()); err != nil {
		s.logger.WithError(err).Error("Shutting down http server")
	}
}

// Addr returns the address the server was configured with.
func (s *Server) Addr() string {
	return s.address
}
