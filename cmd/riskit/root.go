package main

import (
	"github.com/spf13/cobra"

	"github.com/rushteam/riskit/config"
	_ "github.com/rushteam/riskit/config/builders"
	"github.com/rushteam/riskit/pkg/logging"
)

// Version 构建时注入
var Version = "0.1.0"

// app 命令共享的运行时配置
type app struct {
	cfgFile string
	cfg     *config.AppConfig
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "riskit",
		Short: "WOE/IV credit-risk feature engine",
		Long: `riskit aggregates customer transactions into Recency/Frequency/Monetary
features, ranks them by Information Value, fits a Weight-of-Evidence encoder
and serves risk predictions with the same fitted transform.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			logging.Init(cfg.Logging)
			a.cfg = cfg
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (yaml); RISKIT_* env vars override it")

	root.AddCommand(newTrainCmd(a))
	root.AddCommand(newIVCmd(a))
	root.AddCommand(newServeCmd(a))
	root.AddCommand(newMetricsCmd(a))
	return root
}
