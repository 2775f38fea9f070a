package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marketlens/marketlens/internal/config"
	"github.com/marketlens/marketlens/internal/survey"
)

var (
	seedUsers int
	seedValue uint64
	seedOut   string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate sample survey data",
	Long: `Generates fake survey responses for the demo brand catalog and
inserts them into the survey store. Rows are keyed by response ID, so
re-running adds only new data. Needs no API key.`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedUsers, "users", config.DefaultSeedRespondents, "number of respondents to generate")
	seedCmd.Flags().Uint64Var(&seedValue, "seed", 0, "random seed (0 = random)")
	seedCmd.Flags().StringVar(&seedOut, "out", "", "survey store path (overrides the configured data dir)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if seedUsers <= 0 {
		return fmt.Errorf("--users must be positive, got %d", seedUsers)
	}

	logger := newLogger()

	path := cfg.SurveyDBPath()
	if seedOut != "" {
		path = seedOut
	}

	store, err := survey.Open(path, logger)
	if err != nil {
		return fmt.Errorf("opening survey store: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	dataset := survey.NewGenerator(seedValue).Dataset(seedUsers)
	if err := store.Seed(ctx, dataset); err != nil {
		return fmt.Errorf("seeding survey store: %w", err)
	}

	total, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting responses: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d responses for %d respondents (%d total in store)\n",
		len(dataset), seedUsers, total)
	return nil
}
