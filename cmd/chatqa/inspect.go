package main

import (
	"fmt"
	"os"

	"chatqa/internal/source"

	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Describe the messages payload: shape, record count, samples and top authors",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var body []byte
			if file != "" {
				if body, err = os.ReadFile(file); err != nil {
					return err
				}
			} else {
				ctx, stop := signalContext()
				defer stop()
				fmt.Fprintln(cmd.OutOrStdout(), "Requesting:", cfg.Source.URL)
				if body, err = newHTTPSource(cfg).FetchRaw(ctx); err != nil {
					return err
				}
			}

			report, err := source.Inspect(body)
			if report != nil {
				report.Print(cmd.OutOrStdout())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "inspect a local JSON file instead of the messages API")
	return cmd
}
