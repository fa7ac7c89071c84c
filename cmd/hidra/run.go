package main

import (
	"fmt"
	"os"

	"github.com/hidra-sim/hidra/internal/hgl"
	"github.com/hidra-sim/hidra/internal/snapshot"
	"github.com/hidra-sim/hidra/internal/world"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	var (
		genomePath   string
		ticks        uint64
		snapshotOut  string
		snapshotIn   string
		experimentID string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a world for a fixed number of ticks against a genome",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger()
			defer log.Sync() //nolint:errcheck

			genomeText, err := os.ReadFile(genomePath)
			if err != nil {
				return fmt.Errorf("reading genome file: %w", err)
			}
			genome, err := hgl.ParseGenome(string(genomeText))
			if err != nil {
				return err
			}

			var w *world.World
			if snapshotIn != "" {
				data, err := os.ReadFile(snapshotIn)
				if err != nil {
					return fmt.Errorf("reading snapshot file: %w", err)
				}
				doc, err := snapshot.ParseDocument(data)
				if err != nil {
					return err
				}
				if err := doc.Config.Validate(); err != nil {
					return err
				}
				w, err = snapshot.Restore(doc, genome, log)
				if err != nil {
					return err
				}
			} else {
				cfg, err := loadConfig(v, *cfgFile)
				if err != nil {
					return err
				}
				if err := genome.Validate(cfg.SystemGeneCount); err != nil {
					return err
				}
				w = world.New(cfg, genome, log)
			}

			for i := uint64(0); i < ticks; i++ {
				w.Step()
			}

			if snapshotOut != "" {
				doc, err := snapshot.Build(w, experimentID)
				if err != nil {
					return err
				}
				data, err := snapshot.Marshal(doc)
				if err != nil {
					return err
				}
				if err := os.WriteFile(snapshotOut, data, 0o644); err != nil {
					return fmt.Errorf("writing snapshot file: %w", err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "ran %d ticks, now at tick %d\n", ticks, w.CurrentTick())
			return nil
		},
	}

	cmd.Flags().StringVar(&genomePath, "genome", "", "path to an HGL genome text file (required)")
	cmd.Flags().Uint64Var(&ticks, "ticks", 1, "number of ticks to run")
	cmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "write the resulting world snapshot to this path")
	cmd.Flags().StringVar(&snapshotIn, "snapshot-in", "", "resume from this snapshot instead of building an empty world")
	cmd.Flags().StringVar(&experimentID, "experiment-id", "", "experiment ID recorded in any output snapshot")
	_ = cmd.MarkFlagRequired("genome")

	return cmd
}
