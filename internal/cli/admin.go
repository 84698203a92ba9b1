package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Shivanand-hulikatti/parking-management/internal/database"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			url := cfg.Database.MigrateURL()
			if err := database.MigrateUp(url); err != nil {
				return err
			}
			return printVersion(cmd, url)
		},
	}

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			steps, _ := cmd.Flags().GetInt("steps")
			url := cfg.Database.MigrateURL()
			if err := database.MigrateDown(url, steps); err != nil {
				return err
			}
			return printVersion(cmd, url)
		},
	}
	down.Flags().Int("steps", 1, "number of migrations to roll back")

	cmd.AddCommand(up, down)
	return cmd
}

func printVersion(cmd *cobra.Command, url string) error {
	v, dirty, err := database.Version(url)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", v, dirty)
	return nil
}

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}

	createAdmin := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account if it does not exist",
		Args:  cobra.NoArgs,
		RunE:  runCreateAdmin,
	}
	createAdmin.Flags().String("username", "", "admin username")
	createAdmin.Flags().String("password", "", "admin password")
	_ = createAdmin.MarkFlagRequired("username")
	_ = createAdmin.MarkFlagRequired("password")

	cmd.AddCommand(createAdmin)
	return cmd
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")

	ctx := context.Background()
	pool, err := database.NewPool(ctx, cfg.Database.DSN(), log)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	a, err := wire(cfg, pool, log)
	if err != nil {
		return err
	}
	created, err := a.auth.BootstrapAdmin(ctx, username, password)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "admin %q created\n", username)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "admin %q already exists\n", username)
	}
	return nil
}
