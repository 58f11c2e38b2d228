package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/4xmen/chatview/internal/logging"
	"github.com/4xmen/chatview/pkg/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "chatview",
	Short: "Conversation timeline server and terminal viewer",
	Long: "chatview serves chat timelines over HTTP and renders them in the terminal.\n" +
		"Run without a subcommand to start the server.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if fixture, _ := cmd.Flags().GetString("fixture"); fixture != "" {
			loaded.FixturePath = fixture
		}
		cfg = loaded

		logging.Init(logging.Config{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			Output: os.Stderr,
		})
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().String("fixture", "", "conversation fixture (YAML); defaults to FIXTURE_PATH or the built-in seed")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
