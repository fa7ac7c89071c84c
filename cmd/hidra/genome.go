package main

import (
	"fmt"
	"os"

	"github.com/hidra-sim/hidra/internal/hgl"

	"github.com/spf13/cobra"
)

func newGenomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genome",
		Short: "Inspect and validate HGL genome files",
	}
	cmd.AddCommand(newGenomeValidateCmd())
	return cmd
}

func newGenomeValidateCmd() *cobra.Command {
	var systemGeneCount int

	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Parse a genome file and check it satisfies the core's load-time invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading genome file: %w", err)
			}
			reg, err := hgl.ParseGenome(string(data))
			if err != nil {
				return err
			}
			if err := reg.Validate(systemGeneCount); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "genome valid: %d gene(s), Gene 0 (Genesis) present\n", len(reg.Genes()))
			return nil
		},
	}
	cmd.Flags().IntVar(&systemGeneCount, "system-gene-count", 4, "number of reserved system gene slots to check for")
	return cmd
}
