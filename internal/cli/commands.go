// Package cli is the command-line surface: analyze one symbol, batch a
// watchlist, reflect on a finished run, and inspect persisted runs.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tradedesk/internal/config"
	"tradedesk/internal/graph"
	"tradedesk/internal/models"
	"tradedesk/internal/storage"
	"tradedesk/internal/trading"
	"tradedesk/internal/utils"
)

type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store *storage.Store
}

// setup loads .env, the on-disk config, and the environment overlay, then
// opens the database. Called once per command invocation.
func setup(configDir string, debug bool) (*app, error) {
	_ = godotenv.Load()

	var opts []config.ManagerOption
	if configDir != "" {
		opts = append(opts, config.WithConfigDir(configDir))
	}
	mgr, err := config.NewManager(opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := mgr.Get()
	cfg.ApplyEnv()
	if debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("create directories: %w", err)
	}

	log, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &app{cfg: &cfg, log: log, store: store}, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (a *app) close() {
	_ = a.store.Close()
	_ = a.log.Sync()
}

func (a *app) session(ctx context.Context) (*trading.Session, error) {
	g, err := graph.NewTradingGraph(ctx, a.cfg,
		graph.WithLogger(a.log),
		graph.WithStore(a.store),
	)
	if err != nil {
		return nil, err
	}
	return trading.NewSession(g, a.log), nil
}

func NewRootCmd() *cobra.Command {
	var (
		configDir string
		debug     bool
	)

	rootCmd := &cobra.Command{
		Use:   "tradedesk",
		Short: "Multi-agent trading analysis",
		Long: `tradedesk runs a multi-agent trading evaluation: analysts gather data,
researchers debate the bull and bear cases, a trader drafts a plan, risk
analysts stress it, and a final BUY/SELL/HOLD signal is extracted.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Directory holding config.json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newAnalyzeCmd(&configDir, &debug))
	rootCmd.AddCommand(newBatchCmd(&configDir, &debug))
	rootCmd.AddCommand(newReflectCmd(&configDir, &debug))
	rootCmd.AddCommand(newRunsCmd(&configDir, &debug))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func parseTradeDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return t, nil
}

func newAnalyzeCmd(configDir *string, debug *bool) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "analyze SYMBOL",
		Short: "Run a full evaluation for one symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tradeDate, err := parseTradeDate(date)
			if err != nil {
				return err
			}

			a, err := setup(*configDir, *debug)
			if err != nil {
				return err
			}
			defer a.close()

			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			state, err := sess.Execute(cmd.Context(), args[0], tradeDate)
			if state != nil {
				fmt.Println(RenderResult(state))
				if path, werr := utils.WriteReport(a.cfg.ResultsDir, state); werr != nil {
					a.log.Warn("write report", zap.Error(werr))
				} else {
					fmt.Printf("report written to %s\n", path)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Trade date in YYYY-MM-DD (default: today)")
	return cmd
}

func newBatchCmd(configDir *string, debug *bool) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "batch SYMBOL...",
		Short: "Run evaluations for several symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tradeDate, err := parseTradeDate(date)
			if err != nil {
				return err
			}

			a, err := setup(*configDir, *debug)
			if err != nil {
				return err
			}
			defer a.close()

			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(args))
			for _, symbol := range args {
				id, err := sess.StartRun(cmd.Context(), symbol, tradeDate)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			var firstErr error
			for _, id := range ids {
				state, err := sess.Wait(cmd.Context(), id)
				if err != nil && firstErr == nil {
					firstErr = err
				}
				if state == nil {
					continue
				}
				decision, derr := sess.FinalResult(id)
				if derr != nil {
					decision = models.DecisionFromState(state)
				}
				fmt.Println(RenderSignalLine(decision))
				if _, werr := utils.WriteReport(a.cfg.ResultsDir, state); werr != nil {
					a.log.Warn("write report", zap.Error(werr))
				}
			}
			return firstErr
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Trade date in YYYY-MM-DD (default: today)")
	return cmd
}

func newReflectCmd(configDir *string, debug *bool) *cobra.Command {
	var (
		date    string
		returns float64
	)

	cmd := &cobra.Command{
		Use:   "reflect SYMBOL",
		Short: "Reflect on a persisted run given its realized returns",
		Long: `Looks up the persisted run for SYMBOL on the given date, reviews each
agent's contribution against the realized returns, and stores the lessons
in the memory banks for future runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tradeDate, err := parseTradeDate(date)
			if err != nil {
				return err
			}

			a, err := setup(*configDir, *debug)
			if err != nil {
				return err
			}
			defer a.close()

			state, err := a.store.LoadRun(args[0], tradeDate.Format("2006-01-02"))
			if err != nil {
				return fmt.Errorf("load run for %s on %s: %w", args[0], tradeDate.Format("2006-01-02"), err)
			}
			state.Config = a.cfg

			sess, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := sess.Reflect(cmd.Context(), state, returns); err != nil {
				return err
			}
			fmt.Println("reflections stored")
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Trade date of the run in YYYY-MM-DD (default: today)")
	cmd.Flags().Float64Var(&returns, "returns", 0, "Realized returns over the holding period, e.g. 0.05 for +5%")
	_ = cmd.MarkFlagRequired("returns")
	return cmd
}

func newRunsCmd(configDir *string, debug *bool) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List persisted runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configDir, *debug)
			if err != nil {
				return err
			}
			defer a.close()

			records, err := a.store.ListRuns(limit)
			if err != nil {
				return err
			}
			fmt.Println(RenderRuns(records))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show SYMBOL DATE",
		Short: "Show one persisted run in full",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configDir, *debug)
			if err != nil {
				return err
			}
			defer a.close()

			state, err := a.store.LoadRun(args[0], args[1])
			if err != nil {
				return fmt.Errorf("load run for %s on %s: %w", args[0], args[1], err)
			}
			fmt.Println(RenderResult(state))
			return nil
		},
	})

	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum runs to list")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("tradedesk v0.1.0")
		},
	}
}
