package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	host   string
	userID string
	token  string
)

var rootCmd = &cobra.Command{
	Use:   "matchqueue-cli",
	Short: "A CLI to interact with the matchqueue server",
	Long: `A command-line interface for submitting match requests, answering
match offers and triggering maintenance on a matchqueue server.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&host, "host", "http://localhost:8080", "The host address of the server")
	rootCmd.PersistentFlags().StringVar(&userID, "user", os.Getenv("MATCHQUEUE_USER"), "The player to act as (sent as X-User-ID)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("MATCHQUEUE_TOKEN"), "A bearer token; takes precedence over --user")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your command '%s'", err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
