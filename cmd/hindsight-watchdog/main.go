// Command hindsight-watchdog is the out-of-process side of the wire
// protocol in spec §6: it reads a Request off standard input, resolves
// every address against the host process's debug information, and
// prints one logical frame per line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/glebov-andrey/hindsight"
	"github.com/glebov-andrey/hindsight/internal/log"
	"github.com/glebov-andrey/hindsight/watchdog"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hindsight-watchdog:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "hindsight-watchdog",
		Short: "Resolve a crashed process's captured stack from standard input",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, configFile)
		},
	}

	flags := pflag.NewFlagSet("hindsight-watchdog", pflag.ContinueOnError)
	flags.StringVar(&configFile, "config", "", "path to a YAML config file (log-level override)")
	flags.String("log-level", "info", `"off" discards log output; any other value installs no log backend, so nothing is printed`)
	cmd.Flags().AddFlagSet(flags)
	_ = viper.BindPFlags(cmd.Flags())

	return cmd
}

func run(cmd *cobra.Command, configFile string) error {
	viper.SetEnvPrefix("HINDSIGHT_WATCHDOG")
	viper.AutomaticEnv()
	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	switch viper.GetString("log-level") {
	case "off":
		log.Disabled()
	default:
		// No seelog backend is installed for any other value, so
		// internal/log keeps buffering and prints nothing.
	}

	req, err := watchdog.Decode(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("decode request: %w", err)
	}

	detach, err := hindsight.AttachForeignProcess(req.PID)
	if err != nil {
		log.Warnf("hindsight-watchdog: ptrace attach to pid %d failed, memory reads may be restricted: %s", req.PID, err)
	} else {
		defer detach()
	}

	return watchdog.Resolve(cmd.OutOrStdout(), req)
}
