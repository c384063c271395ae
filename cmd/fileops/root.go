package main

import (
	"os"

	"github.com/orbitfm/fileops/cmd/fileops/commands"
	"github.com/orbitfm/fileops/cmd/fileops/opts"
	"github.com/orbitfm/fileops/pkg/config"
	"github.com/orbitfm/fileops/pkg/conflict"
	"github.com/orbitfm/fileops/pkg/dispatch"
	"github.com/orbitfm/fileops/pkg/log"
	"github.com/orbitfm/fileops/pkg/operation"
	"github.com/orbitfm/fileops/pkg/trash"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

var (
	// Flags
	configFile string
	debug      bool
)

func newRootCmd() *cobra.Command {
	ro := &opts.RootOpts{}

	cmd := &cobra.Command{
		Use:           "fileops",
		Short:         "Asynchronous file operations with progress, cancellation and undo",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogging()
			return initRootOpts(ro)
		},
	}
	addRootFlags(cmd)

	cmd.AddCommand(
		commands.NewCopyCmd(ro),
		commands.NewMoveCmd(ro),
		commands.NewDeleteCmd(ro),
		commands.NewShellCmd(ro),
		commands.NewTrashCmd(ro),
	)
	return cmd
}

// initRootOpts loads the config and wires the manager, dispatcher and
// trash every subcommand shares
func initRootOpts(ro *opts.RootOpts) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// The debug flag wins; otherwise the config decides the level.
	if !debug {
		if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}

	manager := operation.NewManager()

	var tr *trash.Trash
	if cfg.TrashDir != "" {
		tr, err = trash.New(cfg.TrashDir)
		if err != nil {
			return errors.Errorf("opening trash: %w", err)
		}
	}

	d := dispatch.New(manager, dispatch.Options{
		Workers: cfg.Workers,
		Trash:   tr,
		Exclude: cfg.Exclude,
		Decider: conflict.StaticDecider(cfg.OnConflict),
	})
	d.Engine().ResponseTimeout = cfg.ResponseTimeout

	ro.Config = cfg
	ro.Manager = manager
	ro.Dispatcher = d
	ro.Trash = tr
	ro.UserLogger = log.New(os.Stdout, zerolog.GlobalLevel())
	return nil
}

// loadConfig reads the configured file, falling back to defaults when
// the default path does not exist
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configFile); err != nil {
		if os.IsNotExist(err) && configFile == defaultConfigFile {
			return config.Default(), nil
		}
		return nil, errors.Errorf("reading config: %w", err)
	}
	return config.Load(configFile)
}

const defaultConfigFile = ".fileops.yaml"

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile, "config file path")
	cmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")
}

// setupLogging configures zerolog based on flags
func setupLogging() {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &log
}
