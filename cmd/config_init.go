package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/marketdesk/feedsync/internal/config"
)

var configInitPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml with the default settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteStarter(configInitPath); err != nil {
			return err
		}
		zap.L().Info("starter config written", zap.String("path", configInitPath))
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "config.yaml", "where to write the starter file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
