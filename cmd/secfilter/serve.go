package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/seenimoa/secfilter/api"
	"github.com/seenimoa/secfilter/internal/config"
	"github.com/seenimoa/secfilter/internal/filings"
	"github.com/seenimoa/secfilter/internal/provider"
	"github.com/seenimoa/secfilter/internal/providers"
)

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if port, _ := cmd.Flags().GetInt("port"); port > 0 {
			cfg.API.Port = port
		}

		stack, err := providers.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		if warm, _ := cmd.Flags().GetBool("warm"); warm {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			if err := stack.Resolver.Warm(ctx); err != nil {
				logger.Warn("reference list warm-up failed", "error", err)
			} else {
				logger.Info("reference lists loaded", "sizes", stack.Resolver.ReferenceSizes())
			}
			cancel()
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		go pruneTickers(ctx, stack.Resolver, memoPruneInterval)

		srv := api.NewServer(cfg, stack.Pipeline, stack.Registry, logger)
		srv.SetVersion(version)
		srv.SetStatusReporter(stack)
		return srv.ListenAndServe(net.JoinHostPort(cfg.API.Host, strconv.Itoa(cfg.API.Port)))
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default: api.port)")
	serveCmd.Flags().Bool("warm", false, "load the reference stock lists before accepting requests")
}

// memoPruneInterval is how often serve evicts expired ticker memo entries.
const memoPruneInterval = 10 * time.Minute

// pruneTickers evicts expired ticker memo entries until ctx is done.
func pruneTickers(ctx context.Context, r *filings.TickerResolver, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			logger.Debug("ticker memo pruned", "entries", r.Prune())
		}
	}
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, API keys and provider reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintln(out, "  secfilter - System Status")
		fmt.Fprintln(out, "═══════════════════════════════════════")
		fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  Configuration:")
		fmt.Fprintf(out, "    Recent window:  %d days\n", cfg.Pipeline.RecentWindowDays)
		fmt.Fprintf(out, "    Batch size:     %d\n", cfg.Pipeline.BatchSize)
		fmt.Fprintf(out, "    FMP rate:       %g req/s\n", cfg.FMP.RateLimit)
		fmt.Fprintf(out, "    SEC rate:       %d req/s\n", cfg.SEC.RateLimit)
		store := "disabled"
		if cfg.Cache.RedisURL != "" {
			store = "redis"
		}
		fmt.Fprintf(out, "    Ticker store:   %s\n", store)
		fmt.Fprintf(out, "    API Server:     %s:%d\n", cfg.API.Host, cfg.API.Port)
		fmt.Fprintln(out)

		fmt.Fprintln(out, "  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Fprintf(out, "    %-25s %s\n", k.Name+":", status)
		}
		fmt.Fprintln(out)

		stack, err := providers.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		fmt.Fprintln(out, "  Providers:")
		for _, s := range stack.Registry.PingAll(cmd.Context(), 10*time.Second) {
			status := fmt.Sprintf("✅ ok (%s)", s.Latency.Round(time.Millisecond))
			if !s.OK {
				status = "❌ " + s.Error
			}
			fmt.Fprintf(out, "    %-25s %s\n", s.Name+":", status)
		}
		fmt.Fprintln(out)

		if warm, _ := cmd.Flags().GetBool("warm"); warm {
			if err := stack.Resolver.Warm(cmd.Context()); err != nil {
				fmt.Fprintf(out, "  ⚠️  reference lists: %v\n\n", err)
			}
		}
		writeCacheStatus(out, stack.Status(), stack.Registry.Capabilities())

		fmt.Fprintln(out, "═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("warm", false, "load the reference stock lists before reporting")
}

// writeCacheStatus prints the capability map and the pipeline cache state.
func writeCacheStatus(out io.Writer, st filings.Status, caps map[provider.Capability][]string) {
	fmt.Fprintln(out, "  Capabilities:")
	for _, c := range provider.AllCapabilities {
		names := caps[c]
		if len(names) == 0 {
			fmt.Fprintf(out, "    %-25s -\n", string(c)+":")
			continue
		}
		fmt.Fprintf(out, "    %-25s %s\n", string(c)+":", strings.Join(names, ", "))
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "  Caches:")
	fmt.Fprintf(out, "    %-25s %s\n", "Historical feed:", st.HistoricalFeed)
	fmt.Fprintf(out, "    %-25s %d\n", "Ticker memo entries:", st.TickerMemo)
	names := make([]string, 0, len(st.References))
	for name := range st.References {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ref := st.References[name]
		state := "not loaded"
		if ref.Loaded {
			state = fmt.Sprintf("%d names, loaded %s ago", ref.Entries,
				time.Duration(ref.AgeSecs)*time.Second)
		}
		fmt.Fprintf(out, "    %-25s %s\n", name+" reference list:", state)
	}
}
