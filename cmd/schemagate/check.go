package main

import (
	"fmt"

	"github.com/aretw0/schemagate/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check [schema...]",
		Short: "Compile schemas and report problems",
		Long:  `Compiles the named schemas, or every schema the source lists, and prints one status line per schema.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}

			ids := args
			if len(ids) == 0 {
				if ids, err = a.gate.List(); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			failed := 0
			for _, id := range ids {
				_, err := a.gate.Compile(cmd.Context(), id)
				if err != nil {
					failed++
				}
				fmt.Fprintln(out, tui.StatusLine(id, err))
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d schemas failed to compile", failed, len(ids))
			}
			return nil
		},
	}
}
