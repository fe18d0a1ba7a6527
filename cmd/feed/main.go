// Package main provides the feed service binary.
//
// Usage:
//
//	feed serve --config ./configs/feed.yaml
//	feed search --user user-1 --days 7 --size 10
//	feed schema list --registry-url http://localhost:8081
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/app"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/clients"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/embedding"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/vectorstore"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/messaging/kafka"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/observability"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "feed",
		Short:        "windeath44 memorial feed service",
		Long:         `feed vectorizes memorials from Kafka, serves personalized feed searches and manages the Avro schemas it publishes.`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (defaults to CONFIG_FILE)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newSchemaCmd())

	return rootCmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Consume memorial vectorizing and delete requests",
		Long: `Start the memorial listeners.

Vectorizing requests are embedded together with their character and stored in
the vector store; delete requests remove the stored vector. Both publish a
response event. Liveness and readiness are served on health.addr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			fx.New(serveModules(configPath)...).Run()
			return nil
		},
	}
}

func serveModules(configPath string) []fx.Option {
	return []fx.Option{
		core.NewCoreModule(coreOptions(configPath)...),
		observability.NewObservabilityModule(),
		kafka.NewMessagingModule(),
		clients.NewClientsModule(),
		embedding.NewEmbeddingModule(),
		vectorstore.NewVectorStoreModule(),
		app.NewFeedModule(),
	}
}

func coreOptions(configPath string) []core.Option {
	if configPath == "" {
		return nil
	}
	return []core.Option{core.WithConfigPath(configPath)}
}
