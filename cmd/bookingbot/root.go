package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bogdankol/telrgam-bot-calendar/internal/config"
	"github.com/bogdankol/telrgam-bot-calendar/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "bookingbot",
	Short: "Telegram calendar booking bot",
	Long:  `bookingbot walks Telegram clients through booking a meeting slot against Google calendars, guaranteeing no two clients commit to the same slot.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.bookingbot/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
}
