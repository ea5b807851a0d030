package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"chatqa/internal/qa"

	"github.com/spf13/cobra"
)

func askCmd() *cobra.Command {
	var (
		src    sourceFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and exit",
		Example: `  chatqa ask "When is Layla planning her trip to London?"
  chatqa ask --file messages.json "How many cars does Vikram Desai have?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				return fmt.Errorf("question must not be empty")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			msgSource, closeSource, err := openSource(cfg, src)
			if err != nil {
				return err
			}
			defer closeSource()

			ctx, stop := signalContext()
			defer stop()

			records, err := msgSource.Fetch(ctx)
			if err != nil {
				return fmt.Errorf("fetch messages from %s: %w", msgSource.Name(), err)
			}

			ans, err := qa.NewEngine(logger).Ask(question, records)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				return enc.Encode(map[string]string{
					"answer": ans.Text,
					"intent": string(ans.Intent),
					"name":   ans.Name,
				})
			}
			fmt.Fprintln(out, ans.Text)
			return nil
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the answer with its intent and resolved name as JSON")
	return cmd
}
