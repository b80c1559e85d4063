package commands

import (
	"github.com/rewindnet/rewind/src/dummy"
	"github.com/rewindnet/rewind/src/peers"
	"github.com/rewindnet/rewind/src/rewind"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//NewRunCmd returns the command that starts a Rewind node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runRewind,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runRewind(cmd *cobra.Command, args []string) error {
	// The player set determines how many bodies the demo world simulates, so
	// read it before building the engine.
	store := peers.NewJSONPlayerSet(_config.DataDir)

	players, err := store.PlayerSet()
	if err != nil {
		return err
	}

	world := dummy.NewWorld(
		players.Len(),
		_config.Logger().WithField("component", "world"),
	)

	engine := rewind.NewRewind(_config, world)
	engine.Players = players

	if err := engine.Init(); err != nil {
		_config.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	return engine.Run()
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {

	cmd.Flags().String("datadir", _config.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", _config.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", _config.LogFile, "Optional file to redirect info, warn and error logs to")
	cmd.Flags().String("moniker", _config.Moniker, "Optional name")

	// Network
	cmd.Flags().StringP("listen", "l", _config.BindAddr, "Listen IP:Port for rewind node")
	cmd.Flags().StringP("advertise", "a", _config.AdvertiseAddr, "Advertise IP:Port for rewind node")
	cmd.Flags().DurationP("timeout", "t", _config.TCPTimeout, "TCP Timeout")
	cmd.Flags().Duration("hello-timeout", _config.HelloTimeout, "Hello Timeout")
	cmd.Flags().Int("max-pool", _config.MaxPool, "Connection pool size max")

	// WebRTC
	cmd.Flags().Bool("webrtc", _config.WebRTC, "Use WebRTC transport instead of TCP")
	cmd.Flags().String("signal-addr", _config.SignalAddr, "IP:Port of WebRTC signaling server")
	cmd.Flags().String("signal-realm", _config.SignalRealm, "Routing domain within the signaling server")
	cmd.Flags().Bool("signal-skip-verify", _config.SignalSkipVerify, "(unsafe) Skip verifying the signal server's certificate chain")
	cmd.Flags().String("ice-addr", _config.ICEAddress, "Address of a STUN or TURN server")
	cmd.Flags().String("ice-username", _config.ICEUsername, "Username for the ICE server")
	cmd.Flags().String("ice-password", _config.ICEPassword, "Password for the ICE server")

	// Service
	cmd.Flags().Bool("no-service", _config.NoService, "Disable the HTTP service")
	cmd.Flags().StringP("service-listen", "s", _config.ServiceAddr, "Listen IP:Port for HTTP service")

	// Session
	cmd.Flags().Int("fps", _config.FPS, "Target frames per second")
	cmd.Flags().Int("max-prediction", _config.MaxPrediction, "Max frames to advance past the confirmed horizon")
	cmd.Flags().Int("ledger-capacity", _config.LedgerCapacity, "Number of slots in each fingerprint ledger")
	cmd.Flags().Int("warmup-frames", _config.WarmupFrames, "Frames exempt from rollback at session start")

	// Recorder
	cmd.Flags().Bool("store", _config.Store, "Record frames to badgerDB instead of in-mem")
	cmd.Flags().String("db", _config.DatabaseDir, "Database directory")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.SetDataDir(_config.DataDir)

	logFields := logrus.Fields{
		"DataDir":        _config.DataDir,
		"BindAddr":       _config.BindAddr,
		"AdvertiseAddr":  _config.AdvertiseAddr,
		"NoService":      _config.NoService,
		"ServiceAddr":    _config.ServiceAddr,
		"MaxPool":        _config.MaxPool,
		"TCPTimeout":     _config.TCPTimeout,
		"HelloTimeout":   _config.HelloTimeout,
		"LogLevel":       _config.LogLevel,
		"Moniker":        _config.Moniker,
		"FPS":            _config.FPS,
		"MaxPrediction":  _config.MaxPrediction,
		"LedgerCapacity": _config.LedgerCapacity,
		"WarmupFrames":   _config.WarmupFrames,
		"Store":          _config.Store,
	}

	if _config.Store {
		logFields["DatabaseDir"] = _config.DatabaseDir
	}

	if _config.WebRTC {
		logFields["SignalAddr"] = _config.SignalAddr
		logFields["SignalRealm"] = _config.SignalRealm
		logFields["ICEAddress"] = _config.ICEAddress
	}

	_config.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/rewind.toml (.json, .yaml also work)
	viper.SetConfigName("rewind")        // name of config file (without extension)
	viper.AddConfigPath(_config.DataDir) // search root directory

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		_config.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		_config.Logger().Debugf("No config file found in: %s", _config.DataDir)
	} else {
		return err
	}

	// second unmarshal to read from config file
	return viper.Unmarshal(_config)
}
