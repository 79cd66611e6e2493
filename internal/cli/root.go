// Package cli wires the engine to a cobra command tree.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bjacobin3d/githulu/internal/config"
	"github.com/bjacobin3d/githulu/internal/logging"
	"github.com/bjacobin3d/githulu/internal/registry"
	"github.com/bjacobin3d/githulu/internal/service"
)

// app carries the pieces every command needs. It is built once in the
// root command's PersistentPreRunE and shared by reference.
type app struct {
	cfg config.Config
	log *slog.Logger
	reg *registry.Registry

	// svc is created lazily: registry-only commands never pay for a
	// watcher or a git binary lookup.
	svc *service.Service
}

func (a *app) service() (*service.Service, error) {
	if a.svc == nil {
		svc, err := service.New(a.cfg, a.reg, a.log)
		if err != nil {
			return nil, err
		}
		a.svc = svc
	}
	return a.svc, nil
}

// NewRootCmd creates the root cobra command
func NewRootCmd(version string) *cobra.Command {
	var (
		configPath string
		debug      bool
	)

	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "githulu",
		Short:   "Githulu keeps live git status for many repositories at once",
		Version: version,
		Long: `Githulu keeps live git status for many repositories at once.

Register working copies, then query their status, run fetch/pull/push with
progress, or leave the watcher running to refresh on filesystem change.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}

			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			if debug {
				cfg.Log.Debug = true
			}

			regPath := cfg.RegistryPath
			if regPath == "" {
				if regPath, err = registry.DefaultPath(); err != nil {
					return err
				}
			}
			reg, err := registry.Open(regPath)
			if err != nil {
				return err
			}

			a.cfg = cfg
			a.log = logging.New(cfg.Log, os.Stderr)
			a.reg = reg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.svc != nil {
				a.svc.Shutdown()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the config file.")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging.")

	// Add subcommands
	rootCmd.AddCommand(newRepoCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newFetchCmd(a))
	rootCmd.AddCommand(newPullCmd(a))
	rootCmd.AddCommand(newPushCmd(a))
	rootCmd.AddCommand(newBranchesCmd(a))
	rootCmd.AddCommand(newStashesCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))

	return rootCmd
}

// resolveRepo maps a registered name to its record.
func resolveRepo(a *app, name string) (registry.Repo, error) {
	repo, err := a.reg.FindByName(name)
	if err != nil {
		return registry.Repo{}, fmt.Errorf("unknown repository %q (see 'githulu repo list'): %w", name, err)
	}
	return repo, nil
}
