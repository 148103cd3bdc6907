package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	apiKey    string
)

func main() {
	root := &cobra.Command{
		Use:           "typesearch-admin",
		Short:         "Manage the typesearch service's search collections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&serverURL, "server", envOr("TYPESEARCH_SERVER", "http://localhost:8080"),
		"base URL of the typesearch service")
	root.PersistentFlags().StringVar(&apiKey, "api-key", os.Getenv("TYPESEARCH_ADMIN_API_KEY"),
		"admin API key")

	root.AddCommand(newPingCmd())
	root.AddCommand(newCollectionsCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
