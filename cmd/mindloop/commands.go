package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mindloop/internal/config"
	"mindloop/internal/pathlib"
	"mindloop/internal/retrospect"
	"mindloop/internal/types"
)

// newRunCmd starts the scheduler and blocks until interrupted.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the cognitive scheduler until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			if err := c.scheduler.Start(); err != nil {
				return err
			}
			zlog.Infow("scheduler running", "workers", cfg.Scheduler.CognitiveTasks.MaxConcurrentTasks)

			watcher, err := config.NewWatcher(cfgPath, func(next *config.Config) {
				zlog.Infow("configuration reloaded", "path", cfgPath)
				c.scheduler.ApplyConfig(next)
			})
			if err != nil {
				zlog.Warnw("config hot-reload unavailable", "error", err)
			} else {
				if err := watcher.Start(cmd.Context()); err != nil {
					zlog.Warnw("config watcher failed to start", "error", err)
				}
				defer watcher.Stop()
			}

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig

			zlog.Info("shutting down")
			c.scheduler.Stop()
			return nil
		},
	}
}

// newStatusCmd prints a one-shot scheduler and library snapshot.
func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show scheduler, library and explorer counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			out := map[string]interface{}{
				"scheduler": c.scheduler.GetStatus(),
				"library":   c.library.Stats(),
				"explorer":  c.explorer.GetStats(),
			}
			return printJSON(cmd, out)
		},
	}
}

// newPathsCmd lists reasoning paths or recommends them for a task type.
func newPathsCmd() *cobra.Command {
	var taskType string
	var max int

	pathsCmd := &cobra.Command{
		Use:   "paths",
		Short: "List or recommend reasoning paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			if taskType != "" {
				ctx := &types.PathContext{TaskType: taskType}
				recs := c.library.Recommend(ctx, max, pathlib.DefaultMinEffectiveness)
				return printJSON(cmd, recs)
			}
			return printJSON(cmd, c.library.Query(pathlib.QueryOptions{}))
		},
	}
	pathsCmd.Flags().StringVar(&taskType, "recommend", "", "recommend paths for this task type")
	pathsCmd.Flags().IntVar(&max, "max", 5, "maximum recommendations")
	return pathsCmd
}

// newExploreCmd runs one user-directed exploration synchronously.
func newExploreCmd() *cobra.Command {
	var timeout time.Duration

	exploreCmd := &cobra.Command{
		Use:   "explore <query>",
		Short: "Run a user-directed knowledge exploration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			query := args[0]
			targets := c.explorer.UserDirectedTargets(ctx, query)
			result := c.explorer.Explore(ctx, targets, "")

			if len(result.GeneratedSeeds) > 0 {
				ids, err := c.library.LearnFromExploration(&result, types.SourceExploration)
				if err != nil {
					zlog.Warnw("learning from exploration failed", "error", err)
				} else if len(ids) > 0 {
					zlog.Infow("learned new paths", "count", len(ids))
				}
			}
			return printJSON(cmd, result)
		},
	}
	exploreCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "exploration timeout")
	return exploreCmd
}

// newRetroCmd runs one synchronous retrospection session over demo history.
func newRetroCmd() *cobra.Command {
	var strategy, target string
	retroCmd := &cobra.Command{
		Use:   "retro",
		Short: "Run one retrospection session over recorded turns",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := buildCore(cfg)
			if err != nil {
				return err
			}
			defer c.close()

			result := c.scheduler.PerformRetrospection(cmd.Context(), retrospect.RunOptions{
				Strategy:     types.RetrospectionStrategy(strategy),
				TargetTaskID: target,
			})
			return printJSON(cmd, result)
		},
	}
	retroCmd.Flags().StringVar(&strategy, "strategy", "", "selection strategy override (e.g. failure_focused, recent_tasks)")
	retroCmd.Flags().StringVar(&target, "target", "", "review exactly this turn ID")
	return retroCmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
