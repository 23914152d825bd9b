package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Backtest workspace server and tools",
}

func init() {
	serveCmd.Flags().String("config", "", "path to a yaml config file")
	serveCmd.Flags().Int("port", 0, "override server.port")
	rootCmd.AddCommand(serveCmd)

	treeCmd.Flags().String("url", "http://localhost:8080", "workspace server url")
	treeCmd.Flags().String("home", "", "only print this home instance")
	rootCmd.AddCommand(treeCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
