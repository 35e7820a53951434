// Command leaguectl runs engine operations against the configured backends
// without starting the HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/leaguelearn/internal/adapters/mq/worker"
	service "github.com/okian/leaguelearn/internal/app"
	"github.com/okian/leaguelearn/internal/config"
	"github.com/okian/leaguelearn/internal/domain/model"
	"github.com/okian/leaguelearn/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// opener builds a service for one command; tests swap it for a memory-backed one.
type opener func(ctx context.Context, cfg *config.Config) (*service.Service, error)

func openFromConfig(ctx context.Context, cfg *config.Config) (*service.Service, error) {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(os.Stderr)); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
	}
	return service.Open(ctx, cfg, logger.Get().Named("leaguectl"))
}

func newRootCmd(out io.Writer) *cobra.Command {
	return newRootCmdWith(out, openFromConfig, time.Now)
}

func newRootCmdWith(out io.Writer, open opener, now func() time.Time) *cobra.Command {
	root := &cobra.Command{
		Use:   "leaguectl",
		Short: "Operate the league-weight learning engine",
		Long: `leaguectl runs one-off engine operations against the backends selected by
the LEAGUELEARN_* environment (or LEAGUELEARN_CONFIG file).

Examples:
  leaguectl classify --type dynasty --superflex --specialty idp
  leaguectl weights --class dynasty_sf
  leaguectl recalibrate --season 2024
  leaguectl liquidity 784512`,
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.AddCommand(
		newClassifyCmd(),
		newWeightsCmd(open),
		newRecalibrateCmd(open, now),
		newLiquidityCmd(open),
	)
	return root
}

type classFlags struct {
	leagueType string
	specialty  string
	superflex  bool
}

func (f *classFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.leagueType, "type", "redraft", "League type: redraft, dynasty, keeper, best_ball")
	cmd.Flags().StringVar(&f.specialty, "specialty", "", "Specialty format: idp, te_premium, devy")
	cmd.Flags().BoolVar(&f.superflex, "superflex", false, "League starts a superflex slot")
}

func newClassifyCmd() *cobra.Command {
	var f classFlags
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the league class for the given attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Classification is pure; no backends are needed.
			svc := service.New(config.New())
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"league_class": string(svc.Classify(f.leagueType, f.specialty, f.superflex)),
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newWeightsCmd(open opener) *cobra.Command {
	var (
		f     classFlags
		class string
	)
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Print the effective weights for a league class",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *service.Service) error {
				c := svc.Classify(f.leagueType, f.specialty, f.superflex)
				if class != "" {
					c = model.LeagueClass(strings.ToLower(strings.TrimSpace(class)))
				}
				return writeJSON(cmd.OutOrStdout(), svc.Weights(ctx, c))
			})
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&class, "class", "", "League class, overrides --type/--specialty/--superflex")
	return cmd
}

func newRecalibrateCmd(open opener, now func() time.Time) *cobra.Command {
	var season int
	cmd := &cobra.Command{
		Use:   "recalibrate",
		Short: "Run one recalibration pass synchronously and print its report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *service.Service) error {
				s := season
				if s == 0 {
					s = worker.SeasonFor(now(), time.Month(svc.Config().SeasonStartMonth))
				}
				if s < 0 {
					return fmt.Errorf("season must be positive, got %d", s)
				}
				report, err := svc.RunRecalibration(ctx, s)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), report)
			})
		},
	}
	cmd.Flags().IntVar(&season, "season", 0, "Season to recalibrate (default: current season)")
	return cmd
}

func newLiquidityCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "liquidity <league-id>",
		Short: "Print the trade liquidity score for a league",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, open, func(ctx context.Context, svc *service.Service) error {
				return writeJSON(cmd.OutOrStdout(), svc.LeagueLiquidity(ctx, args[0]))
			})
		},
	}
}

// withService loads config, opens the backends, runs fn and releases them.
func withService(cmd *cobra.Command, open opener, fn func(context.Context, *service.Service) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	svc, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if stopErr := svc.Stop(context.WithoutCancel(ctx)); err == nil {
			err = stopErr
		}
	}()
	return fn(ctx, svc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
