package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rewindnet/rewind/src/config"
	"github.com/rewindnet/rewind/src/net/signal/wamp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	addr     = "127.0.0.1:2443"
	realm    = config.DefaultSignalRealm
	certFile = "cert.pem"
	keyFile  = "key.pem"
	logLevel = "debug"
)

func init() {
	RootCmd.Flags().StringVar(&addr, "listen", addr, "Listen IP:Port for the signaling server")
	RootCmd.Flags().StringVar(&realm, "realm", realm, "Routing domain for signaling messages")
	RootCmd.Flags().StringVar(&certFile, "cert", certFile, "File containing the TLS certificate")
	RootCmd.Flags().StringVar(&keyFile, "key", keyFile, "File containing the TLS private key")
	RootCmd.Flags().StringVar(&logLevel, "log", logLevel, "debug, info, warn, error, fatal, panic")
}

//RootCmd is the root command for the signaling server
var RootCmd = &cobra.Command{
	Use:   "signal",
	Short: "WebRTC signaling server using WebSockets",
	RunE:  runServer,
}

// runServer starts the WAMP server and waits for a SIGINT or SIGTERM
func runServer(cmd *cobra.Command, args []string) error {
	logger := logrus.New()
	logger.Level = config.LogLevel(logLevel)

	server, err := wamp.NewServer(
		addr,
		realm,
		certFile,
		keyFile,
		logger.WithField("component", "signal"),
	)
	if err != nil {
		return err
	}

	go server.Run()

	//Prepare sigCh to relay SIGINT and SIGTERM system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh

	server.Shutdown()

	return nil
}
