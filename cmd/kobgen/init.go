package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kobweb-dev/kobgen/internal/config"
	"github.com/kobweb-dev/kobgen/internal/errors"
)

func initCmd() *cobra.Command {
	var (
		group  string
		module string
		asYAML bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default kobgen config",
		Long: `Write kobgen.json (or kobgen.yaml with --yaml) with the default
source roots, packages and output directory.

Examples:
  kobgen init --group com.example.site
  kobgen init site --yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if config.Exists(dir) {
				return errors.Newf(errors.CategoryConfig, "%s already has a kobgen config", dir).
					WithSuggestion("Edit the existing file instead")
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.New("K501").Wrap(err)
			}

			cfg := config.New()
			cfg.Group = group
			cfg.Module = module
			if err := cfg.Validate(); err != nil {
				return err
			}

			name := config.JSONFileName
			if asYAML {
				name = config.YAMLFileName
			}
			path := filepath.Join(dir, name)
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			success("Created %s", path)
			info("Pages package: %s", cfg.PagesPackage())
			info("API package:   %s", cfg.APIPackage())
			info("Run kobgen process to generate %s", filepath.Join(cfg.Output.Dir, cfg.Output.File))
			return nil
		},
	}

	cmd.Flags().StringVarP(&group, "group", "g", "", "Base package, e.g. com.example.site")
	cmd.Flags().StringVar(&module, "module", "", "Module name (default: the directory name)")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Write kobgen.yaml instead of kobgen.json")
	return cmd
}
