package cli

import (
	"fmt"

	"grisera/internal/config"

	"github.com/spf13/cobra"
)

func configCmd(configPath *string) *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	c.AddCommand(configInitCmd(configPath))
	c.AddCommand(configShowCmd(configPath))
	return c
}

func configInitCmd(configPath *string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the default settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := *configPath
			if path == "" {
				path = config.DefaultConfigPath()
			}
			if exists(path) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, used, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if used == "" {
				used = "(defaults)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", used)
			return cfg.Write(cmd.OutOrStdout())
		},
	}
}
