package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Family tree admin back-office",
	Long: `Back-office service for the family tree application.

Run "admin serve" to start the HTTP API, "admin migrate" to update the schema
and "admin create-admin" to seed an operator account.

Configuration is read from the environment, an optional .env file and the
YAML file named by CONFIG_FILE.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
