package main

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/schemagate/internal/presentation/diagram"
	"github.com/aretw0/schemagate/internal/presentation/tui"
	"github.com/aretw0/schemagate/pkg/openapi"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <schema...>",
		Short: "Show the compiled form of one or more schemas",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			asOpenAPI, _ := cmd.Flags().GetBool("openapi")

			a, err := setup(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")

			if asOpenAPI {
				for _, id := range args {
					v, err := a.gate.Compile(cmd.Context(), id)
					if err != nil {
						return err
					}
					if err := enc.Encode(openapi.Schema(v)); err != nil {
						return err
					}
				}
				return nil
			}

			summaries := make([]*schema.Summary, 0, len(args))
			for _, id := range args {
				s, err := a.gate.Describe(cmd.Context(), id)
				if err != nil {
					return err
				}
				summaries = append(summaries, s)
			}

			switch format {
			case "json":
				for _, s := range summaries {
					if err := enc.Encode(s); err != nil {
						return err
					}
				}
			case "mermaid":
				fmt.Fprintln(out, diagram.GenerateMermaid(summaries))
			case "markdown":
				render := tui.NewRenderer()
				for _, s := range summaries {
					rendered, err := render(tui.SummaryMarkdown(s))
					if err != nil {
						return err
					}
					fmt.Fprint(out, rendered)
				}
			default:
				return fmt.Errorf("unknown format %q (want markdown, json or mermaid)", format)
			}
			return nil
		},
	}
	cmd.Flags().StringP("format", "f", "markdown", "Output format: markdown, json or mermaid")
	cmd.Flags().Bool("openapi", false, "Print the OpenAPI schema object instead")
	return cmd
}
