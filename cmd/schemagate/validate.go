package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/schemagate/internal/presentation/tui"
	"github.com/aretw0/schemagate/pkg/schema"
	"github.com/spf13/cobra"
)

// errInvalidRecords is returned when at least one record fails validation.
var errInvalidRecords = errors.New("one or more records are invalid")

type recordResult struct {
	Index  int                  `json:"index"`
	Valid  bool                 `json:"valid"`
	Record *schema.Record       `json:"record,omitempty"`
	Errors []*schema.FieldError `json:"errors,omitempty"`
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <schema> [file|-]",
		Short: "Validate records against a schema",
		Long: `Reads one JSON object, a JSON array of objects, or newline-delimited objects
from a file (or stdin when the file is omitted or "-") and validates each record.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			if output != "text" && output != "json" {
				return fmt.Errorf("unknown output %q (want text or json)", output)
			}

			a, err := setup(cmd)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			records, err := readRecords(in)
			if err != nil {
				return err
			}

			id := args[0]
			render := tui.NewRenderer()
			out := cmd.OutOrStdout()
			enc := json.NewEncoder(out)
			invalid := 0

			for i, raw := range records {
				rec, err := a.gate.Validate(cmd.Context(), id, raw)
				if err != nil && !errors.Is(err, schema.ErrValidation) {
					return err
				}
				if err != nil {
					invalid++
				}

				if output == "json" {
					res := recordResult{Index: i, Valid: err == nil, Record: rec, Errors: schema.Causes(err)}
					if encErr := enc.Encode(res); encErr != nil {
						return encErr
					}
					continue
				}
				rendered, rErr := render(tui.ValidationMarkdown(id, rec, err))
				if rErr != nil {
					return rErr
				}
				fmt.Fprint(out, rendered)
			}

			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d", errInvalidRecords, invalid, len(records))
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "text", "Output format: text or json")
	return cmd
}

// readRecords decodes a stream of JSON values. Each value is either an
// object or an array of objects. Numbers are kept as json.Number.
func readRecords(r io.Reader) ([]map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var records []map[string]any
	for {
		var v any
		err := dec.Decode(&v)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid input: %w", err)
		}

		switch t := v.(type) {
		case map[string]any:
			records = append(records, t)
		case []any:
			for i, item := range t {
				obj, ok := item.(map[string]any)
				if !ok {
					return nil, fmt.Errorf("invalid input: element %d is not an object", i)
				}
				records = append(records, obj)
			}
		default:
			return nil, fmt.Errorf("invalid input: expected object or array, got %T", v)
		}
	}

	if len(records) == 0 {
		return nil, errors.New("invalid input: no records")
	}
	return records, nil
}
