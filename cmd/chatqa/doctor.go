package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"chatqa/internal/config"
	"chatqa/internal/store"

	"github.com/spf13/cobra"
)

type checkResult struct {
	out                    io.Writer
	passed, warned, failed int
}

func (c *checkResult) pass(check, detail string) {
	fmt.Fprintf(c.out, "  [PASS] %-20s %s\n", check, detail)
	c.passed++
}

func (c *checkResult) fail(check, detail string) {
	fmt.Fprintf(c.out, "  [FAIL] %-20s %s\n", check, detail)
	c.failed++
}

func (c *checkResult) warn(check, detail string) {
	fmt.Fprintf(c.out, "  [WARN] %-20s %s\n", check, detail)
	c.warned++
}

func doctorCmd() *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on config, message source and snapshot database",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			c := &checkResult{out: out}
			cfgPath := resolveConfigPath()
			fmt.Fprintf(out, "chatqa doctor v%s\n\n", version)

			// 1. Config file
			cfg, found, err := config.LoadOrDefaults(cfgPath)
			switch {
			case err != nil:
				c.fail("Config", err.Error())
				fmt.Fprintf(out, "\n%d passed, %d failed\n", c.passed, c.failed)
				return fmt.Errorf("config invalid")
			case found:
				c.pass("Config", cfgPath)
			default:
				c.warn("Config", fmt.Sprintf("not found at %s, using defaults (run 'chatqa init')", cfgPath))
			}

			// 2. Message source
			switch {
			case cfg.Source.File != "":
				if _, err := os.Stat(cfg.Source.File); err != nil {
					c.fail("Messages file", err.Error())
				} else {
					c.pass("Messages file", cfg.Source.File)
				}
			case offline:
				c.warn("Messages API", "skipped (--offline)")
			default:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				records, err := newHTTPSource(cfg).Fetch(ctx)
				cancel()
				if err != nil {
					c.fail("Messages API", err.Error())
				} else {
					c.pass("Messages API", fmt.Sprintf("%d records from %s", len(records), cfg.Source.URL))
				}
			}

			// 3. Snapshot database
			if cfg.Source.SnapshotDB != "" {
				if n, err := checkSnapshotDB(cfg.Source.SnapshotDB); err != nil {
					c.fail("Snapshot DB", err.Error())
				} else if n == 0 {
					c.warn("Snapshot DB", "no snapshots yet (run 'chatqa snapshot')")
				} else {
					c.pass("Snapshot DB", fmt.Sprintf("latest snapshot has %d records", n))
				}
			}

			// 4. Listen port
			if err := checkPort(cfg.Server.Addr()); err != nil {
				c.warn("Server port", fmt.Sprintf("%s may be in use: %v", cfg.Server.Addr(), err))
			} else {
				c.pass("Server port", cfg.Server.Addr()+" available")
			}

			// 5. Log file writable
			if cfg.General.LogFile != "" {
				if err := os.MkdirAll(filepath.Dir(cfg.General.LogFile), 0o755); err != nil {
					c.warn("Log file", fmt.Sprintf("cannot create log directory: %v", err))
				} else {
					c.pass("Log file", cfg.General.LogFile)
				}
			}

			fmt.Fprintf(out, "\nResults: %d passed, %d warnings, %d failed\n", c.passed, c.warned, c.failed)
			if c.failed > 0 {
				return fmt.Errorf("%d check(s) failed", c.failed)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the messages API request")
	return cmd
}

func checkSnapshotDB(path string) (int, error) {
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return 0, err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	records, err := st.Fetch(ctx)
	if errors.Is(err, store.ErrNoSnapshot) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

func checkPort(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}
