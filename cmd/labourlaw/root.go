package main

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/common/logger"
	"github.com/alibaba/higress/plugins/golang-filter/mcp-server/servers/labourlaw/config"
)

type globalFlags struct {
	configPath string
	envFile    string
	logLevel   string
	debug      bool
}

func newRootCmd(lookup config.LookupFunc) *cobra.Command {
	var g globalFlags

	cmd := &cobra.Command{
		Use:          "labourlaw",
		Short:        "Cited answers to Indian labour-law questions, per jurisdiction",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file (defaults are used when omitted)")
	cmd.PersistentFlags().StringVar(&g.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "debug|info|warn|error (overrides config)")
	cmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "development logging")

	cmd.AddCommand(serveCmd(&g, lookup), askCmd(&g, lookup))
	return cmd
}

// loadConfig resolves configuration in order: defaults, file, .env, environment, flags.
func loadConfig(g *globalFlags, lookup config.LookupFunc) (*labourlaw.LabourLawConfig, error) {
	if g.envFile != "" {
		if err := godotenv.Load(g.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	raw, err := config.ReadFile(g.configPath)
	if err != nil {
		return nil, err
	}
	lc := labourlaw.NewLabourLawConfig()
	if err := lc.ParseConfig(raw); err != nil {
		return nil, err
	}
	cfg := lc.Config()
	config.ApplyEnv(cfg, lookup)
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.debug {
		cfg.Log.Development = true
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
		return nil, err
	}
	if err := lc.Validate(); err != nil {
		return nil, err
	}
	return lc, nil
}
