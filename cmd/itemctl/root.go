package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/itemdex/internal/app"
	"github.com/kailas-cloud/itemdex/internal/config"
	logpkg "github.com/kailas-cloud/itemdex/internal/logger"
	"github.com/kailas-cloud/itemdex/internal/usecase/seed"
	"github.com/kailas-cloud/itemdex/internal/version"
)

// opener builds the application for a command. Tests replace it.
type opener func(ctx context.Context, env string) (*app.App, *zap.Logger, error)

func openApp(ctx context.Context, env string) (*app.App, *zap.Logger, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return a, logger, nil
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(openApp)
}

func newRootCmdWith(open opener) *cobra.Command {
	var env string

	root := &cobra.Command{
		Use:           "itemctl",
		Short:         "Operate the itemdex primary store and search index",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.String(),
	}
	root.PersistentFlags().StringVarP(&env, "env", "e", config.GetEnv(), "configuration environment (config/<env>.yaml)")

	// withApp opens the stores for one command run and closes them after.
	withApp := func(run func(cmd *cobra.Command, a *app.App, logger *zap.Logger) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			a, logger, err := open(cmd.Context(), env)
			if err != nil {
				return err
			}
			defer a.Close()
			defer func() { _ = logger.Sync() }()
			return run(cmd, a, logger)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "ensure-index",
			Short: "Create the search index if it does not exist",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.App, _ *zap.Logger) error {
				if err := a.Index.EnsureIndex(cmd.Context()); err != nil {
					return fmt.Errorf("ensure index: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "index ready")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Re-sync every primary store item into the search index",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.App, _ *zap.Logger) error {
				if err := a.Index.EnsureIndex(cmd.Context()); err != nil {
					return fmt.Errorf("ensure index: %w", err)
				}
				rep := a.Items.Reconcile(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "total=%d succeeded=%d failed=%d orphans_removed=%d duration=%s\n",
					rep.Total, rep.Succeeded, rep.Failed, rep.OrphansRemoved, rep.Duration.Round(time.Millisecond))
				return rep.Err()
			}),
		},
		newSeedCmd(withApp),
		&cobra.Command{
			Use:   "clear",
			Short: "Delete every item from the primary store and the search index",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.App, logger *zap.Logger) error {
				n, err := seed.New(a.Items, nil, logger).Clear(cmd.Context())
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d items\n", n)
				return err
			}),
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Show item totals per category and the year range",
			Args:  cobra.NoArgs,
			RunE: withApp(func(cmd *cobra.Command, a *app.App, _ *zap.Logger) error {
				st, err := a.Primary.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("stats: %w", err)
				}
				printStats(cmd.OutOrStdout(), st.Total, st.ByCategory, st.MinYear, st.MaxYear)
				return nil
			}),
		},
	)
	return root
}

func newSeedCmd(
	withApp func(func(*cobra.Command, *app.App, *zap.Logger) error) func(*cobra.Command, []string) error,
) *cobra.Command {
	var (
		count   int
		force   bool
		rndSeed uint64
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create random items through the synchronizer",
		Long: `Create random boat items. Items are written through the synchronizer,
so the search index is populated as well.

Seeding is skipped when the store already holds items unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, a *app.App, logger *zap.Logger) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			if err := a.Index.EnsureIndex(cmd.Context()); err != nil {
				logger.Warn("Search index unavailable, items will be indexed by the next reconcile", zap.Error(err))
			}
			if rndSeed == 0 {
				rndSeed = uint64(time.Now().UnixNano())
			}
			gen := seed.NewGenerator(rndSeed, time.Now)
			res, err := seed.New(a.Items, gen, logger).Seed(cmd.Context(), count, force)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			if res.Skipped {
				fmt.Fprintf(cmd.OutOrStdout(), "store already holds %d items, skipping (use --force to seed anyway)\n", res.Total)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d items, total %d\n", res.Created, res.Total)
			return nil
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "n", 50, "number of items to create")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "seed even when items already exist")
	cmd.Flags().Uint64Var(&rndSeed, "seed", 0, "random seed (0 = time based)")
	return cmd
}

func printStats[C ~string](w io.Writer, total int, byCategory map[C]int, minYear, maxYear int) {
	fmt.Fprintf(w, "Total items: %d\n", total)
	if total == 0 {
		return
	}
	fmt.Fprintf(w, "Years: %d - %d\n\n", minYear, maxYear)

	cats := make([]C, 0, len(byCategory))
	for c := range byCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if byCategory[cats[i]] != byCategory[cats[j]] {
			return byCategory[cats[i]] > byCategory[cats[j]]
		}
		return cats[i] < cats[j]
	})

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tCOUNT")
	for _, c := range cats {
		fmt.Fprintf(tw, "%s\t%d\n", c, byCategory[c])
	}
	_ = tw.Flush()
}
