package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"debatearena/internal/character"
	"debatearena/internal/client"
	"debatearena/internal/config"
	"debatearena/internal/observability"
)

var (
	serverURL string
	appConfig config.Config
	logger    *observability.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "arena",
	Short: "Debate AI opponents from the terminal",
	Long: `arena talks to a running debate arena server.

Pick an opponent, argue your side of a topic and collect points for
relevant arguments. Replies can be read aloud with --speak.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		appConfig = config.Load()
		if strings.TrimSpace(serverURL) == "" {
			serverURL = appConfig.ArenaServerURL
		}
		logger = observability.NewLoggerTo("arena", os.Stderr)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Arena server URL (default: ARENA_SERVER_URL)")

	rootCmd.AddCommand(debateCmd)
	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(charactersCmd)
	rootCmd.AddCommand(sayCmd)
	rootCmd.AddCommand(roomTokenCmd)
	rootCmd.AddCommand(healthCmd)
}

func apiClient() *client.Client {
	return client.New(serverURL)
}

// localCharacters carries the voice settings the server does not publish.
func localCharacters() (*character.Registry, error) {
	if appConfig.CharactersFile == "" {
		return character.Builtin(), nil
	}
	return character.Load(appConfig.CharactersFile)
}

func oppositeSide(side string) string {
	if strings.EqualFold(strings.TrimSpace(side), "con") {
		return "pro"
	}
	return "con"
}
