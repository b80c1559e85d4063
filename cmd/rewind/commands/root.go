package commands

import (
	"github.com/rewindnet/rewind/src/config"
	"github.com/spf13/cobra"
)

var _config = config.NewDefaultConfig()

//RootCmd is the root command for Rewind
var RootCmd = &cobra.Command{
	Use:              "rewind",
	Short:            "deterministic rollback sessions",
	TraverseChildren: true,
}

func init() {
	RootCmd.AddCommand(
		NewRunCmd(),
		NewKeygenCmd(),
		VersionCmd,
	)
}
