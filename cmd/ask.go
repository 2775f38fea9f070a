package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marketlens/marketlens/internal/agent"
	"github.com/marketlens/marketlens/internal/api"
	"github.com/marketlens/marketlens/internal/app"
	"github.com/marketlens/marketlens/internal/config"
	"github.com/marketlens/marketlens/internal/ui"
)

var (
	askUser   string
	askThread string
	askBrand  string
	askSurvey string
	askPlain  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a one-shot question about the survey data",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askUser, "user", "cli", "user ID for conversation context")
	askCmd.Flags().StringVar(&askThread, "thread", "cli", "thread ID for conversation context")
	askCmd.Flags().StringVar(&askBrand, "brand", "", "scope the question to one brand (e.g. TechCorp)")
	askCmd.Flags().StringVar(&askSurvey, "survey", "", "scope the question to one survey")
	askCmd.Flags().BoolVar(&askPlain, "plain", false, "plain markdown output, no terminal styling")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.ValidateAPIKey(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	question := strings.Join(args, " ")

	convCtx := map[string]any{}
	if sess, err := a.Sessions.Context(ctx, askUser, askThread); err != nil {
		logger.Warn("loading conversation context failed, continuing without", "error", err)
	} else {
		convCtx = sess.CombinedHistory
	}
	if askBrand != "" {
		convCtx["brand_id"] = askBrand
	}
	if askSurvey != "" {
		convCtx["survey_id"] = askSurvey
	}

	result, err := a.Agents.Process(ctx, question, convCtx)
	if err != nil {
		return fmt.Errorf("processing question: %w", err)
	}

	var suggestions []string
	if result.QuestionType == agent.KindVague {
		suggestions = api.VagueFollowUps
	}

	markdown := ui.FormatResult(result, suggestions)
	if askPlain {
		fmt.Fprintln(cmd.OutOrStdout(), markdown)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), ui.NewRenderer(0).Render(markdown))
	}

	if raw, err := json.Marshal(result); err == nil {
		if err := a.Sessions.RecordInteraction(ctx, askUser, askThread, question, string(raw)); err != nil {
			logger.Warn("recording interaction failed", "error", err)
		}
	}

	return nil
}
