package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/schemagate"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of Schemagate",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "schemagate version %s\n", strings.TrimSpace(schemagate.Version))
		},
	}
}
