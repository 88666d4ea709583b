package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/schemagate/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the Model Context Protocol (MCP) server",
		Long: `Exposes validate_record, describe_schema and list_schemas as MCP tools,
over stdio (default) or SSE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transport, _ := cmd.Flags().GetString("transport")
			addr, _ := cmd.Flags().GetString("addr")

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			srv := mcp.NewServer(a.gate, a.logger)

			switch transport {
			case "stdio":
				return srv.ServeStdio()
			case "sse":
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return srv.ServeSSE(ctx, addr)
			default:
				return fmt.Errorf("unknown transport %q (want stdio or sse)", transport)
			}
		},
	}
	cmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	cmd.Flags().String("addr", ":8090", "Listen address for the sse transport")
	return cmd
}
