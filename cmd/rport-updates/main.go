package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openrport/rport-updates/client/updates"
	"github.com/openrport/rport-updates/cmd/rport-updates/cli"
	chshare "github.com/openrport/rport-updates/share"
	"github.com/openrport/rport-updates/share/logger"
)

var updatesHelp = `
  Usage: rport-updates [options]

  Prints the updates available for the installed rpm packages as one line
  of JSON. Only locally cached repository metadata is used, run
  "dnf makecache" (or "yum makecache") to refresh it.

  Options:

    --config, -c, An optional path to a TOML config file
    (defaults to ./rport-updates.conf if present).

    --backend, Package manager to query. Values: "auto", "dnf", "yum"
    (defaults to "auto": dnf if available, otherwise yum).

    --root, Install root to inspect (defaults to "/").

    --releasever, Overrides the detected release version.

    --basearch, Overrides the detected base architecture.

    --workers, Number of goroutines computing update candidates (defaults to 1).

    --pretty, Indent the JSON output.

    --debug, Log timing and memory usage of each step.

    --verbose, -v, Specify log level. Values: "error", "info", "debug" (defaults to "error")

    --log-file, -l, Specifies log file path. (defaults to empty string: log printed to stderr)

    --help, This help text

    --version, Print version info and exit

  Every option can also be set with an environment variable, e.g.
  RPORT_UPDATES_UPDATES_BACKEND=yum or RPORT_UPDATES_OUTPUT_PRETTY=true.

`

var RootCmd = &cobra.Command{
	Use:           "rport-updates",
	Version:       chshare.BuildVersion,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runMain,
}

func init() {
	cli.SetPFlags(RootCmd.PersistentFlags())

	RootCmd.SetHelpFunc(func(*cobra.Command, []string) {
		fmt.Fprint(os.Stderr, updatesHelp)
	})
	RootCmd.SetUsageFunc(func(*cobra.Command) error {
		fmt.Fprint(os.Stderr, updatesHelp)
		return nil
	})
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runMain(cmd *cobra.Command, args []string) error {
	pFlags := cmd.PersistentFlags()

	cfgPath, err := pFlags.GetString("config")
	if err != nil {
		return err
	}

	ml := logger.NewMemLogger()
	config, err := cli.DecodeConfig(cfgPath, pFlags, ml)
	if err != nil {
		return err
	}

	if err := config.ParseAndValidate(); err != nil {
		return err
	}

	if err := config.Logging.LogOutput.Start(); err != nil {
		return err
	}
	defer config.Logging.LogOutput.Shutdown()

	l := logger.NewLogger("rport-updates", config.Logging.LogOutput, config.Logging.LogLevel)
	ml.Flush(l)
	l.Debugf("rport-updates %s", chshare.BuildVersion)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report, err := updates.Run(ctx, config.Updates.Backend, config.Options(), config.Settings(), l)
	if err != nil {
		return err
	}

	data, err := report.Marshal(config.Output.Pretty)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
