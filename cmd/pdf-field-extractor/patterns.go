package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/a3tai/pdf-field-extractor/internal/patterns"
)

func newPatternsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "Inspect and save the active pattern chains",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every field with its ordered pattern chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			printSpecs(cmd.OutOrStdout(), a.service.Registry().Specs())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save <file>",
		Short: "Write the active pattern chains to a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			if err := patterns.SaveFile(args[0], a.service.Registry().Patterns()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved patterns to %s\n", args[0])
			return nil
		},
	})

	return cmd
}

func printSpecs(w io.Writer, specs []patterns.FieldSpec) {
	for _, spec := range specs {
		fmt.Fprintf(w, "%s (%s) kind=%s policy=%s\n", spec.ID, spec.Label, spec.Kind, patterns.PolicyName(spec.Policy))
		for i, p := range spec.Patterns {
			fmt.Fprintf(w, "  %d. %s\n", i+1, p)
		}
	}
}
