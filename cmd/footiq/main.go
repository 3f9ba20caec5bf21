// Command footiq is the FootIQ data CLI.
//
// Usage:
//
//	footiq normalize games --file fixtures/sportapi/athletes_games__939180__last5.json
//	footiq normalize lineup --file fixtures/sportapi/athlete_lineup__939180__11001.json
//	footiq analyze --athlete 939180 --metric goals --mode replay
//	footiq baselines show --position forwards
//	footiq baselines import --file config/baselines.json
//	footiq fixtures record --athlete 939180 --last 5
//	footiq fixtures check
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/footiq/internal/app"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/db"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/listener"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/normalize"
	"github.com/albapepper/footiq/internal/playerdata"
	"github.com/albapepper/footiq/internal/provider"
	"github.com/albapepper/footiq/internal/replay"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "footiq",
		Short:         "FootIQ metric normalization and analytics CLI",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(normalizeCmd())
	root.AddCommand(analyzeCmd())
	root.AddCommand(baselinesCmd())
	root.AddCommand(fixturesCmd())
	return root
}

// --------------------------------------------------------------------------
// normalize command
// --------------------------------------------------------------------------

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize a raw upstream payload into canonical records",
	}
	cmd.AddCommand(normalizeKindCmd("games", "Normalize a game-list payload (Tier1 metrics)"))
	cmd.AddCommand(normalizeKindCmd("lineup", "Normalize a lineup payload (Tier1 + Tier2 metrics)"))
	return cmd
}

func normalizeKindCmd(kind, short string) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			raw, err := provider.DecodePayload(data)
			if err != nil {
				return err
			}

			n := normalize.New(metric.Default())
			if kind == "games" {
				games, warnings := n.Games(raw)
				return writeJSON(cmd.OutOrStdout(), map[string]any{"games": games, "warnings": nonNil(warnings)})
			}
			record, warnings := n.Lineup(raw)
			return writeJSON(cmd.OutOrStdout(), map[string]any{"record": record, "warnings": nonNil(warnings)})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Path to a raw JSON payload")
	return cmd
}

// --------------------------------------------------------------------------
// analyze command
// --------------------------------------------------------------------------

func analyzeCmd() *cobra.Command {
	var (
		athleteID  int64
		metricKey  string
		mode       string
		lastN      int
		window     int
		population baseline.Population
		noLive     bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the full per-metric analysis for an athlete",
		RunE: func(cmd *cobra.Command, args []string) error {
			if athleteID <= 0 || metricKey == "" {
				return fmt.Errorf("--athlete and --metric are required")
			}
			return withApp(func(ctx context.Context, cfg *config.Config, a *app.App) error {
				if mode == "" {
					mode = cfg.DataMode
				}
				m, err := playerdata.ParseMode(mode)
				if err != nil {
					return err
				}

				runID := uuid.NewString()
				start := time.Now()
				out, err := a.Analyzer.Analyze(ctx,
					playerdata.Request{Mode: m, AllowLiveFetch: cfg.AllowLiveFetch && !noLive},
					playerdata.AnalyzeParams{
						AthleteID:  athleteID,
						Metric:     metricKey,
						LastN:      lastN,
						FormWindow: window,
						Population: population,
					})
				var log diag.Log
				log.Add(out.Warnings...)
				logger.Info("Analysis finished",
					"run_id", runID,
					"athlete_id", athleteID, "metric", metricKey, "mode", m,
					"duration", time.Since(start).Round(time.Millisecond),
					"warnings", log.Summary())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), out)
			})
		},
	}
	cmd.Flags().Int64Var(&athleteID, "athlete", 0, "Athlete ID")
	cmd.Flags().StringVar(&metricKey, "metric", "", "Metric key (see `footiq baselines show` or /api/v1/metrics/definitions)")
	cmd.Flags().StringVar(&mode, "mode", "", "Data mode: live or replay (default DATA_MODE)")
	cmd.Flags().IntVar(&lastN, "last", playerdata.DefaultLastN, "Number of recent games")
	cmd.Flags().IntVar(&window, "window", 0, "Form window (default 5)")
	cmd.Flags().StringVar(&population.League, "league", "", "Baseline league")
	cmd.Flags().StringVar(&population.Season, "season", "", "Baseline season")
	cmd.Flags().StringVar(&population.Position, "position", "", "Baseline position group")
	cmd.Flags().BoolVar(&noLive, "cache-only", false, "Never call the upstream API")
	return cmd
}

// --------------------------------------------------------------------------
// baselines command
// --------------------------------------------------------------------------

func baselinesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baselines",
		Short: "Inspect and import league baselines",
	}
	cmd.AddCommand(baselinesShowCmd())
	cmd.AddCommand(baselinesImportCmd())
	return cmd
}

func baselinesShowCmd() *cobra.Command {
	var file string
	var filter baseline.Population
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the baseline table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file != "" {
				t, err := baseline.LoadFile(file)
				if err != nil {
					return err
				}
				return printBaselines(cmd.OutOrStdout(), t, filter)
			}
			return withApp(func(ctx context.Context, cfg *config.Config, a *app.App) error {
				return printBaselines(cmd.OutOrStdout(), a.Comparator.Table(), filter)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Read a baseline file instead of the configured source")
	cmd.Flags().StringVar(&filter.League, "league", "", "Only this league")
	cmd.Flags().StringVar(&filter.Season, "season", "", "Only this season")
	cmd.Flags().StringVar(&filter.Position, "position", "", "Only this position group")
	return cmd
}

func baselinesImportCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Upsert a JSON/YAML baseline file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			t, err := baseline.LoadFile(file)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL must be set")
			}
			pool, err := db.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			defer pool.Close()

			start := time.Now()
			n, err := baseline.Import(ctx, pool, t)
			if err != nil {
				return err
			}
			logger.Info("Baselines imported", "file", file, "rows", n, "duration", time.Since(start).Round(time.Millisecond))

			if err := listener.Notify(ctx, pool, listener.ChangeEvent{Rows: n, Source: "cli"}); err != nil {
				logger.Warn("Failed to notify running servers", "error", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Baseline file (.json, .yaml, .yml)")
	return cmd
}

func printBaselines(w io.Writer, t *baseline.Table, filter baseline.Population) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LEAGUE\tSEASON\tPOSITION\tMETRIC\tMEAN\tSTD\tN")
	for _, e := range t.Entries() {
		if !matches(filter, e.Population) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			e.League, e.Season, e.Position, e.Metric, formatValue(e.Mean), formatValue(e.Std), e.N)
	}
	return tw.Flush()
}

func matches(filter, p baseline.Population) bool {
	return (filter.League == "" || filter.League == p.League) &&
		(filter.Season == "" || filter.Season == p.Season) &&
		(filter.Position == "" || filter.Position == p.Position)
}

func formatValue(v metric.Value) string {
	f, ok := v.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.3f", f)
}

// --------------------------------------------------------------------------
// fixtures command
// --------------------------------------------------------------------------

func fixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Record and check replay fixtures",
	}
	cmd.AddCommand(fixturesRecordCmd())
	cmd.AddCommand(fixturesCheckCmd())
	return cmd
}

func fixturesRecordCmd() *cobra.Command {
	var (
		athleteID int64
		lastN     int
		lineups   bool
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Fetch live payloads and save them as replay fixtures",
		RunE: func(cmd *cobra.Command, args []string) error {
			if athleteID <= 0 {
				return fmt.Errorf("--athlete is required")
			}
			return withApp(func(ctx context.Context, cfg *config.Config, a *app.App) error {
				store := replay.New(cfg.FixtureDir)

				raw, err := a.Client.AthleteGames(ctx, athleteID, lastN)
				if err != nil {
					return err
				}
				name := replay.AthleteGamesFixture(athleteID, lastN)
				if err := store.Save(name, raw); err != nil {
					return err
				}
				logger.Info("Fixture recorded", "fixture", name)

				if !lineups {
					return nil
				}
				games, _ := normalize.New(a.Registry).Games(raw)
				var result recordResult
				for _, g := range games {
					if g.GameID == nil {
						continue
					}
					lraw, err := a.Client.GameLineup(ctx, athleteID, *g.GameID)
					if err != nil {
						result.AddErrorf("lineup %d: %v", *g.GameID, err)
						continue
					}
					if err := store.Save(replay.LineupFixture(athleteID, *g.GameID), lraw); err != nil {
						result.AddErrorf("save lineup %d: %v", *g.GameID, err)
						continue
					}
					result.Recorded++
				}
				logger.Info("Lineups recorded", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("record error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().Int64Var(&athleteID, "athlete", 0, "Athlete ID")
	cmd.Flags().IntVar(&lastN, "last", playerdata.DefaultLastN, "Number of recent games")
	cmd.Flags().BoolVar(&lineups, "lineups", true, "Also record one lineup per game")
	return cmd
}

func fixturesCheckCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Normalize every fixture and report data-quality warnings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				dir = cfg.FixtureDir
			}
			result, err := checkFixtures(replay.New(dir), normalize.New(metric.Default()))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
			for _, e := range result.Errors {
				fmt.Fprintln(cmd.OutOrStdout(), "error:", e)
			}
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d fixtures failed", len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Fixture directory (default FIXTURE_DIR)")
	return cmd
}

// checkResult tracks counts and warnings from a fixture check.
type checkResult struct {
	Files    int
	Games    int
	Lineups  int
	Warnings diag.Log
	Errors   []string
}

func (r *checkResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *checkResult) Summary() string {
	return fmt.Sprintf("files=%d games=%d lineups=%d errors=%d %s",
		r.Files, r.Games, r.Lineups, len(r.Errors), r.Warnings.Summary())
}

func checkFixtures(store *replay.Store, n *normalize.Normalizer) (*checkResult, error) {
	names, err := store.List()
	if err != nil {
		return nil, err
	}

	result := &checkResult{}
	for _, name := range names {
		result.Files++
		raw, err := store.Load(name)
		if err != nil {
			result.AddErrorf("%s: %v", name, err)
			continue
		}
		switch {
		case strings.HasPrefix(name, "athletes_games__"):
			games, warnings := n.Games(raw)
			result.Games += len(games)
			result.Warnings.Add(warnings...)
		case strings.HasPrefix(name, "athlete_lineup__"):
			_, warnings := n.Lineup(raw)
			result.Lineups++
			result.Warnings.Add(warnings...)
		default:
			result.AddErrorf("%s: unrecognized fixture name", name)
		}
	}
	return result, nil
}

// recordResult tracks lineup recordings.
type recordResult struct {
	Recorded int
	Errors   []string
}

func (r *recordResult) AddErrorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *recordResult) Summary() string {
	return fmt.Sprintf("recorded=%d errors=%d", r.Recorded, len(r.Errors))
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// withApp handles config loading, component wiring, and context cancellation.
func withApp(fn func(ctx context.Context, cfg *config.Config, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, cfg, a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func nonNil(ws []diag.Warning) []diag.Warning {
	if ws == nil {
		return []diag.Warning{}
	}
	return ws
}
