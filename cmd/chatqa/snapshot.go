package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"chatqa/internal/domain"
	"chatqa/internal/source"
	"chatqa/internal/store"

	"github.com/spf13/cobra"
)

func snapshotCmd() *cobra.Command {
	var (
		dbPath string
		file   string
		keep   int
		list   bool
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch the transcript and store it in a SQLite snapshot database",
		Long:  "Stores the current messages so 'ask --db' and 'serve --db' can answer offline. Identical consecutive snapshots are stored once.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = defaultSnapshotDB(cfg)
			}

			st, err := store.NewSQLiteStore(dbPath, logger)
			if err != nil {
				return err
			}
			defer st.Close()

			ctx, stop := signalContext()
			defer stop()
			out := cmd.OutOrStdout()

			if list {
				snaps, err := st.ListSnapshots(ctx, 50)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tRECORDS\tCREATED\tSOURCE")
				for _, s := range snaps {
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", s.ID, s.Records, s.CreatedAt.Local().Format(time.DateTime), s.Source)
				}
				return tw.Flush()
			}

			// Snapshots are taken from a file or the API, never from another snapshot.
			var msgSource domain.MessageSource
			switch {
			case file != "":
				msgSource = source.NewFileSource(file)
			case cfg.Source.URL != "":
				msgSource = newHTTPSource(cfg)
			case cfg.Source.File != "":
				msgSource = source.NewFileSource(cfg.Source.File)
			default:
				return fmt.Errorf("nothing to snapshot: set source.url or pass --file")
			}

			records, err := msgSource.Fetch(ctx)
			if err != nil {
				return fmt.Errorf("fetch messages from %s: %w", msgSource.Name(), err)
			}
			snap, err := st.SaveSnapshot(ctx, msgSource.Name(), records)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "snapshot %d: %d records from %s\n", snap.ID, snap.Records, snap.Source)

			if keep > 0 {
				removed, err := st.Prune(ctx, keep)
				if err != nil {
					return err
				}
				if removed > 0 {
					fmt.Fprintf(out, "pruned %d old snapshot(s)\n", removed)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "snapshot database path (default: source.snapshotDb or ~/.chatqa/snapshots.db)")
	cmd.Flags().StringVar(&file, "file", "", "snapshot a local JSON file instead of the messages API")
	cmd.Flags().IntVar(&keep, "keep", 0, "after saving, keep only the newest N snapshots")
	cmd.Flags().BoolVar(&list, "list", false, "list stored snapshots instead of fetching")
	return cmd
}
