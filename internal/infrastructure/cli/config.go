package cli

import (
	"fmt"
	"os"

	"github.com/felixgeelhaar/timelens/internal/infrastructure/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(global *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, global)
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(e.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ResolvePath(global.configFile)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return NewCLIError("config file already exists", "Use --force to overwrite "+path, nil)
			}
			if err := config.Save(path, config.Default()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
