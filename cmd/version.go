package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marketlens/marketlens/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion(cmd)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "marketlens %s\n", Version)
	fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)

	cfg, err := config.Load()
	if err != nil {
		// Version output should work even with a broken config file.
		fmt.Fprintf(out, "\nConfiguration: unavailable (%v)\n", err)
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration:")
	fmt.Fprintf(out, "  Provider: %s\n", cfg.Provider)
	fmt.Fprintf(out, "  Model: %s\n", cfg.FullModelName())
	fmt.Fprintf(out, "  Data directory: %s\n", cfg.DataDir)
	fmt.Fprintf(out, "  Listen address: %s\n", cfg.Addr)

	fmt.Fprintf(out, "  API key: %s\n", apiKeyStatus(cfg))
	return nil
}

// apiKeyStatus reports whether the provider's API key is set, without
// printing the key itself.
func apiKeyStatus(cfg *config.Config) string {
	var name string
	switch cfg.Provider {
	case config.ProviderOpenAI:
		name = "OPENAI_API_KEY"
	case config.ProviderOllama:
		return "not required (ollama)"
	default:
		name = "GEMINI_API_KEY"
	}

	if os.Getenv(name) != "" {
		return name + " (configured)"
	}
	return name + " not set"
}
