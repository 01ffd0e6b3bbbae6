package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/quizagent/config"
	"github.com/mohammad-safakhou/quizagent/internal/server"
)

func main() {
	root := &cobra.Command{Use: "quizagentd"}
	root.AddCommand(serveCMD())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCMD() *cobra.Command {
	var cfgPath string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the quiz trigger HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			return server.Run(cfg)
		},
	}
	serve.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default searches ./config and .)")
	return serve
}
