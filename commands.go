package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pdxmph/pocket-contacts/internal/config"
	"github.com/pdxmph/pocket-contacts/internal/contact"
	"github.com/pdxmph/pocket-contacts/internal/db"
	"github.com/pdxmph/pocket-contacts/internal/intents"
)

func newInitCmd(flags *globalFlags) *cobra.Command {
	var fixtures bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an empty contacts database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(flags)
			if err != nil {
				return err
			}
			defer log.Sync()

			if cfg.Database.Driver == config.MemoryDriver {
				return errors.New("the memory driver has no database to create")
			}

			if fixtures {
				err = db.CreateFixturesDatabase(cfg.Database.Driver, cfg.Database.Path, db.WithLogger(log))
			} else {
				err = db.Initialize(cfg.Database.Driver, cfg.Database.Path)
			}
			if err != nil {
				return err
			}

			log.Info("database created", zap.String("path", cfg.Database.Path), zap.Bool("fixtures", fixtures))
			fmt.Fprintf(cmd.OutOrStdout(), "Database created at %s\n", cfg.Database.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fixtures, "fixtures", false, "Seed the database with sample contacts")
	return cmd
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all contacts to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unknown format %q, use yaml or json", format)
			}

			cfg, log, err := setup(flags)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, _, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			contacts, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if contacts == nil {
				contacts = []contact.Contact{}
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(contacts)
			}
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(contacts); err != nil {
				return fmt.Errorf("encoding contacts: %w", err)
			}
			return enc.Close()
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml or json")
	return cmd
}

func newImportCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Add contacts from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			var contacts []contact.Contact
			if err := yaml.Unmarshal(data, &contacts); err != nil {
				return fmt.Errorf("parsing %s: %w", args[0], err)
			}

			cfg, log, err := setup(flags)
			if err != nil {
				return err
			}
			defer log.Sync()

			store, _, err := openStore(cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			// Bad records are reported and skipped
			var errs []error
			imported := 0
			for i, c := range contacts {
				if _, err := store.Create(cmd.Context(), c); err != nil {
					errs = append(errs, fmt.Errorf("contact %d (%s): %w", i+1, c.FullName(), err))
					continue
				}
				imported++
			}

			log.Info("import finished", zap.Int("imported", imported), zap.Int("failed", len(errs)))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d contacts\n", imported, len(contacts))
			return errors.Join(errs...)
		},
	}
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configPath
			if path == "" {
				path = config.Path()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}

			cfg := config.Default()
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return fmt.Errorf("creating config directory: %w", err)
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func newLaunchersCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "launchers",
		Short: "List the ways call, message and email links can be opened",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(flags)
			if err != nil {
				return err
			}
			defer log.Sync()

			manager, err := intents.NewManager(cfg.Launcher.Name)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range intents.LauncherStatuses() {
				marker := " "
				if s.Name == manager.Name() {
					marker = "*"
				}
				state := "unavailable"
				if s.Enabled {
					state = "available"
				}
				fmt.Fprintf(out, "%s %-8s %s\n", marker, s.Name, state)
			}
			return nil
		},
	}
}
