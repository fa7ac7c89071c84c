package main

import (
	"fmt"
	"os"

	"github.com/hidra-sim/hidra/internal/snapshot"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect Hidra world snapshot documents",
	}
	cmd.AddCommand(newSnapshotInspectCmd())
	return cmd
}

func newSnapshotInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Print a snapshot document's headline state without restoring a world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading snapshot file: %w", err)
			}
			doc, err := snapshot.ParseDocument(data)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "schema_version: %d\n", doc.SchemaVersion)
			fmt.Fprintf(out, "engine_version: %s\n", doc.EngineVersion)
			fmt.Fprintf(out, "experiment_id:  %s\n", doc.ExperimentID)
			fmt.Fprintf(out, "created_at:     %s\n", doc.CreatedAt)
			fmt.Fprintf(out, "current_tick:   %d\n", doc.CurrentTick)
			fmt.Fprintf(out, "neurons:        %d\n", len(doc.Neurons))
			fmt.Fprintf(out, "synapses:       %d\n", len(doc.Synapses))
			fmt.Fprintf(out, "input_nodes:    %d\n", len(doc.InputNodes))
			fmt.Fprintf(out, "output_nodes:   %d\n", len(doc.OutputNodes))
			fmt.Fprintf(out, "pending_events: %d\n", len(doc.Events))
			return nil
		},
	}
	return cmd
}
