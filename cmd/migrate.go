package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type migrateFlags struct {
	dir    string
	config string
}

// migrate runs the legacy history sweep once and exits.
// Lazy migration on read stays in place; this only closes the window where both formats exist.
func init() {
	env := new(migrateFlags)

	var migrateCommand = &cobra.Command{
		Use:   "migrate [-c config_file] [-d working_dir]",
		Short: "Migrate every legacy revision history to the current format. // 将所有旧格式修订历史迁移为当前格式。",
		RunE: func(cmd *cobra.Command, args []string) error {
			chdir(env.dir)

			runEnv := &runFlags{config: env.config}
			if err := resolveConfig(runEnv); err != nil {
				return err
			}

			_, _, lg, app, err := loadRuntime(runEnv.config)
			if err != nil {
				return err
			}
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), app.Config().GetSweepTimeout())
				defer cancel()
				if err := app.Shutdown(ctx); err != nil {
					lg.Error("failed to shutdown app container", zap.Error(err))
				}
			}()

			result, err := app.SweepLegacy(cmd.Context())
			if result != nil {
				fmt.Printf("scanned=%d migrated=%d failed=%d\n", result.Scanned, result.Migrated, result.Failed)
			}
			return err
		},
	}

	rootCmd.AddCommand(migrateCommand)
	fs := migrateCommand.Flags()
	fs.StringVarP(&env.dir, "dir", "d", "", "run dir")
	fs.StringVarP(&env.config, "config", "c", "", "config file")
}
