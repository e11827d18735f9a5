package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export",
		Short: "Write a progress backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			return withUser(cmd, func(rt *runtime) error {
				if output == "" {
					path, err := rt.tracker.ExportTo(".")
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Saved backup to %s\n", path)
					return nil
				}

				e, err := rt.tracker.Export()
				if err != nil {
					return err
				}
				raw, err := json.MarshalIndent(e, "", "  ")
				if err != nil {
					return fmt.Errorf("encode export: %w", err)
				}
				if output == "-" {
					_, err := cmd.OutOrStdout().Write(append(raw, '\n'))
					return err
				}
				if err := os.WriteFile(output, raw, 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Saved backup to %s\n", output)
				return nil
			})
		},
	}
	c.Flags().StringP("output", "o", "", "Output file, or - for stdout")
	return c
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace progress with a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read backup: %w", err)
			}
			return withUser(cmd, func(rt *runtime) error {
				e, err := rt.tracker.Import(cmd.Context(), raw)
				if err != nil {
					return err
				}
				done := 0
				for _, v := range e.Completion {
					if v {
						done++
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d completed topics\n", done)
				return nil
			})
		},
	}
}
