package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/app"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/clients"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/embedding"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/feed"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/output"
	"github.com/PARADOX-BSSM/windeath44.server.feed/internal/vectorstore"
	"github.com/PARADOX-BSSM/windeath44.server.feed/pkg/core"
)

type searchFlags struct {
	userID  string
	days    int
	size    int
	timeout time.Duration
	format  string
}

func newSearchCmd() *cobra.Command {
	flags := &searchFlags{}

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Print the personalized feed of a user",
		Long: `Build the feed of a user from the memorials they visited recently.

The visited memorials are embedded, their vectors averaged, and the nearest
stored memorials printed.

Example:
  feed search --user user-1 --days 7 --size 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runSearch(cmd, configPath, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.userID, "user", "u", "", "User id (required)")
	cmd.Flags().IntVarP(&flags.days, "days", "d", feed.DefaultSearchDays, fmt.Sprintf("Look-back window in days (1-%d)", feed.MaxSearchDays))
	cmd.Flags().IntVarP(&flags.size, "size", "s", feed.DefaultTopK, fmt.Sprintf("Number of results (1-%d)", feed.MaxTopK))
	cmd.Flags().DurationVar(&flags.timeout, "timeout", time.Minute, "Overall timeout")
	cmd.Flags().StringVarP(&flags.format, "output", "o", "json", "Output format: table, json, yaml")

	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runSearch(cmd *cobra.Command, configPath string, flags *searchFlags) error {
	var service *feed.SearchService
	fxApp := fx.New(
		core.NewCoreModule(append(coreOptions(configPath), core.WithoutHealthServer())...),
		clients.NewClientsModule(),
		embedding.NewEmbeddingModule(),
		vectorstore.NewVectorStoreModule(),
		app.NewServicesModule(),
		fx.Populate(&service),
	)

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
	defer cancel()

	if err := fxApp.Start(ctx); err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	defer func() { _ = fxApp.Stop(context.Background()) }()

	result, err := service.Search(ctx, flags.userID, flags.days, flags.size)
	if err != nil {
		return err
	}

	return output.NewPrinter(flags.format, cmd.OutOrStdout()).Print(result, []string{"ID", "Score", "Memorial", "Character"}, func() [][]string {
		rows := make([][]string, 0, len(result.Matches))
		for _, m := range result.Matches {
			rows = append(rows, []string{
				m.ID,
				strconv.FormatFloat(float64(m.Score), 'f', 4, 32),
				fmt.Sprint(m.Metadata["memorialId"]),
				fmt.Sprint(m.Metadata["characterName"]),
			})
		}
		return rows
	})
}
