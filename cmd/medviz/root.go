package main

import (
	"log/slog"

	"github.com/paveg/medviz/internal/config"
	"github.com/paveg/medviz/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds the state shared by the subcommands of one invocation
type app struct {
	v       *viper.Viper
	cfgFile string
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "medviz",
		Short: "Visualize a medical examination dataset",
		Long: `medviz loads a medical examination table, derives an overweight flag,
normalizes cholesterol and glucose, and draws two figures: a count plot of the
categorical indicators split by cardiovascular disease, and a heat map of the
correlation matrix of a cleaned subset.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug, info, warn or error")
	_ = a.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(
		newRunCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// load returns the effective configuration for this invocation
func (a *app) load() (config.Config, error) {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	return cfg.WithDefaults(), nil
}

func (a *app) logger(cmd *cobra.Command, cfg config.Config) *slog.Logger {
	return logging.Setup(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
}
