package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	noColor    bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "crawldash",
	Short: "Manage crawl monitoring sites, keywords, tasks and results",
	Long: `crawldash is a client for a crawl monitoring backend.

It keeps a session with the backend, mirrors your sites, keywords, crawl
tasks and crawl results, and can serve them locally over HTTP or MCP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the crawldash version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "crawldash version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print collections as JSON")

	rootCmd.AddCommand(
		loginCmd, registerCmd, logoutCmd, whoamiCmd,
		refreshCmd, dashboardCmd,
		sitesCmd, keywordsCmd, tasksCmd, resultsCmd,
		serveCmd, statusCmd, stopCmd,
		configCmd, versionCmd,
	)
}

func main() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		noColor = true
	}
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
