package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/clambin/go-common/charmer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/thermod-go/thermod/internal/app"
	"github.com/thermod-go/thermod/internal/config"
)

// overridden during build via -ldflags, matching the teacher's
// cmd/tado/tado.go.
var version = "change-me"

var (
	configFilename string
	levelVar       = new(slog.LevelVar)

	rootCmd = cobra.Command{
		Use:     "thermod",
		Short:   "Programmable thermostat daemon",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			charmer.SetJSONLogger(cmd, viper.GetBool("debug"))
			if viper.GetBool("debug") {
				levelVar.Set(slog.LevelDebug)
			}
		},
		RunE: run,
	}
)

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&configFilename, "config", "", "Configuration file")
	if err := charmer.SetPersistentFlags(&rootCmd, viper.GetViper(), config.Args); err != nil {
		panic("failed to set flags: " + err.Error())
	}
}

func initConfig() {
	v := viper.GetViper()
	if configFilename != "" {
		v.SetConfigFile(configFilename)
	} else {
		v.AddConfigPath("/etc/thermod/")
		v.AddConfigPath("$HOME/.thermod")
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	if err := charmer.SetDefaults(v, config.Args); err != nil {
		panic("failed to set viper defaults: " + err.Error())
	}

	v.SetEnvPrefix("THERMOD")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

func run(_ *cobra.Command, _ []string) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: levelVar}))

	daemonCfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}
	pipeline, err := config.LoadPipeline(daemonCfg.PipelineFile)
	if err != nil {
		return err
	}

	d, err := app.New(daemonCfg, pipeline, version, prometheus.DefaultRegisterer, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGUSR1)
	go func() {
		for sig := range sigCh {
			switch sig {
			case syscall.SIGHUP:
				if err := d.Cycle.Reload(); err != nil {
					logger.Error("reload failed", slog.Any("err", err))
				}
			case syscall.SIGUSR1:
				if levelVar.Level() == slog.LevelDebug {
					levelVar.Set(slog.LevelInfo)
				} else {
					levelVar.Set(slog.LevelDebug)
				}
			default:
				logger.Info("shutting down", slog.String("signal", sig.String()))
				cancel()
				return
			}
		}
	}()

	logger.Info("thermod starting", slog.String("version", version))
	return d.Manager.Run(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to start", slog.Any("err", err))
		os.Exit(1)
	}
}
