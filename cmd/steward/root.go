package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deixis/steward/internal/config"
	"github.com/deixis/steward/internal/history"
	"github.com/deixis/steward/internal/logging"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "steward",
		Short:         "Steward runs kolla-ansible and continues past unreachable hosts when asked to",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	persistent := cmd.PersistentFlags()
	persistent.String("config", "", "project file (default: search for .steward.yml, .steward.yaml or steward.toml)")
	persistent.String("log-level", "", "log level (default: $"+logging.LevelEnv+" or info)")
	persistent.String("log-format", logging.FormatText, "log format (text|json)")
	persistent.CountP("verbose", "v", "increase verbosity; passed on to kolla-ansible")
	persistent.String("history-dir", "", "directory for run records (default: history_dir or a temp dir)")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newStagesCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// app holds what every subcommand needs.
type app struct {
	cfg       *config.Config
	log       *logrus.Logger
	store     *history.DiskStore
	verbosity int
}

func setup(cmd *cobra.Command) (*app, error) {
	flags := cmd.Flags()
	level, _ := flags.GetString("log-level")
	format, _ := flags.GetString("log-format")
	verbosity, _ := flags.GetCount("verbose")

	log, err := logging.New(level, format, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if verbosity > 0 && !flags.Changed("log-level") {
		log.SetLevel(logging.VerbosityLevel(log.GetLevel(), verbosity))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	dir := cfg.HistoryDir
	if flags.Changed("history-dir") {
		dir, _ = flags.GetString("history-dir")
	}

	return &app{
		cfg:       cfg,
		log:       log,
		store:     history.NewDiskStore(dir),
		verbosity: verbosity,
	}, nil
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("determining working directory: %w", err)
	}
	loaded, err := config.Load(wd)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return loaded.Config, nil
}
