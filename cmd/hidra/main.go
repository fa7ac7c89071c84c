// Command hidra is the thin CLI glue around the engine: run a world for
// a fixed number of ticks against a genome, validate a genome file
// without running it, or inspect a snapshot document. It is not the
// evolution driver or the HTTP controller layer — spec §1 calls both of
// those external collaborators — it is the zero-network equivalent a
// local operator reaches for to exercise the snapshot codec and the HGL
// parser directly.
package main

import (
	"fmt"
	"os"

	"github.com/hidra-sim/hidra/internal/config"
	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	v := viper.New()

	root := &cobra.Command{
		Use:           "hidra",
		Short:         "Hidra deterministic simulation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (json/yaml/toml)")

	root.AddCommand(newRunCmd(v, &cfgFile))
	root.AddCommand(newGenomeCmd())
	root.AddCommand(newSnapshotCmd())
	return root
}

func newLogger() *zap.Logger {
	log, err := zap.NewProduction()
	if err != nil {
		log = zap.NewNop()
	}
	return log
}

func loadConfig(v *viper.Viper, cfgFile string) (config.HidraConfig, error) {
	return config.Load(v, cfgFile)
}
