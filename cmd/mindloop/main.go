// mindloop is the demo CLI around the cognitive core: it wires the state
// store, MAB store, path library, knowledge explorer, retrospection engine
// and scheduler together and exposes them as subcommands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindloop/internal/config"
	"mindloop/internal/logging"
)

var (
	cfgPath string
	cfg     *config.Config
	zlog    *zap.SugaredLogger
)

func main() {
	root := &cobra.Command{
		Use:   "mindloop",
		Short: "Autonomous cognitive scheduler with retrospection, exploration and a learnable path library",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := zap.NewDevelopment()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			zlog = logger.Sugar()

			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := logging.Initialize("."); err != nil {
				zlog.Warnw("file logging unavailable", "error", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.CloseAll()
			if zlog != nil {
				_ = zlog.Sync()
			}
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "mindloop.yaml", "configuration file")

	root.AddCommand(newRunCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newPathsCmd())
	root.AddCommand(newExploreCmd())
	root.AddCommand(newRetroCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
