// scrappyctl inspects a running Scrappy setup: the controller's game history
// and the state both devices publish to Redis.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"scrappy/internal/config"
	"scrappy/internal/logger"
	"scrappy/internal/messaging"
	"scrappy/internal/store"
	"scrappy/internal/types"
)

var version = "dev"

func main() {
	_ = config.LoadDotEnv()

	var (
		dbPath    string
		redisAddr string
		redisDB   int
	)

	root := &cobra.Command{
		Use:          "scrappyctl",
		Short:        "Inspect Scrappy game history and device state",
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dbPath, "db", os.Getenv("SCRAPPY_DB_PATH"), "Game history database")
	root.PersistentFlags().StringVar(&redisAddr, "redis", envOr("SCRAPPY_REDIS_ADDR", "127.0.0.1:6379"), "Redis address")
	root.PersistentFlags().IntVar(&redisDB, "redis-db", 0, "Redis database")

	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "List recent games",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			games, err := s.RecentGames(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(games) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No games recorded yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "WHEN\tDIFFICULTY\tLEVEL\tOUTCOME\tDURATION")
			for _, g := range games {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
					humanize.Time(g.EndedAt), g.Difficulty.Title(), g.Level, g.Outcome, g.Duration().Round(time.Second))
			}
			return w.Flush()
		},
	}
	history.Flags().IntVarP(&limit, "limit", "n", 10, "Number of games to show")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Summarise the game history",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Played: %s, won: %s\n", humanize.Comma(int64(st.Played)), humanize.Comma(int64(st.Won)))
			for _, d := range []types.Difficulty{types.Easy, types.Medium, types.Hard} {
				if best, ok := st.BestLevel[d]; ok {
					fmt.Fprintf(out, "  %-7s best level %d\n", d.Title(), best)
				}
			}
			return nil
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the state published by both devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			rc := messaging.NewRedisClient(redisAddr, redisDB, logger.Discard())
			defer rc.Close()
			if err := rc.Connect(); err != nil {
				return err
			}
			for _, hash := range []string{messaging.ControllerHash, messaging.RobotHash} {
				fields, err := rc.ReadState(cmd.Context(), hash)
				if err != nil {
					return err
				}
				printState(cmd, hash, fields)
			}
			return nil
		},
	}

	root.AddCommand(history, stats, status)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func openStore(path string) (*store.Store, error) {
	if path == "" {
		return nil, fmt.Errorf("no game history configured, set --db or SCRAPPY_DB_PATH")
	}
	return store.Open(path)
}

func printState(cmd *cobra.Command, hash string, fields map[string]string) {
	out := cmd.OutOrStdout()
	if len(fields) == 0 {
		fmt.Fprintf(out, "%s: nothing published\n", hash)
		return
	}
	state := fields["state"]
	if ts, err := time.Parse(time.RFC3339, fields["state:timestamp"]); err == nil {
		state += " (" + humanize.Time(ts) + ")"
	}
	fmt.Fprintf(out, "%s: %s\n", hash, state)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "state" && k != "state:timestamp" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %s\n", k, fields[k])
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
