package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"debatearena/internal/room"
	"debatearena/internal/voice"
)

// ============================================================================
// TOPICS
// ============================================================================

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List or add custom debate topics",
}

var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := apiClient().Topics(cmd.Context())
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No custom topics yet. Add one with: arena topics add \"...\"")
			return nil
		}
		for i, topic := range saved {
			fmt.Fprintf(cmd.OutOrStdout(), "%3d. %s\n", i+1, topic)
		}
		return nil
	},
}

var topicsAddCmd = &cobra.Command{
	Use:   "add [topic]",
	Short: "Save a new topic (at least 10 characters)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := apiClient().SaveTopic(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return errors.New(apiMessage(err))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%d topics)\n", result.Message, len(result.Topics))
		return nil
	},
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)
	topicsCmd.AddCommand(topicsAddCmd)
}

// ============================================================================
// CHARACTERS
// ============================================================================

var charactersCmd = &cobra.Command{
	Use:     "characters",
	Short:   "List debate opponents",
	Aliases: []string{"chars"},
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := apiClient().Characters(cmd.Context())
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tLEVEL\tMODEL\tDESCRIPTION")
		for _, c := range catalog.Characters {
			id := c.ID
			if id == catalog.Default {
				id += " *"
			}
			fmt.Fprintf(w, "%s\t%s %s\t%s\t%s\t%s\n", id, c.Emoji, c.Name, c.Level, c.Model, c.Description)
		}
		return w.Flush()
	},
}

// ============================================================================
// HEALTH
// ============================================================================

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		health, err := apiClient().Health(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "Status:\t%s\n", health.Status)
		fmt.Fprintf(w, "Model API:\t%s\n", health.GroqStatus)
		fmt.Fprintf(w, "Topic store:\t%s (%d topics)\n", health.TopicStoreStatus, health.CustomTopicsCount)
		fmt.Fprintf(w, "Characters:\t%d\n", health.CharactersAvailable)
		fmt.Fprintf(w, "Scoring:\t%v\n", health.ScoringEnabled)
		return w.Flush()
	},
}

// ============================================================================
// SAY
// ============================================================================

var sayCmd = &cobra.Command{
	Use:   "say [text]",
	Short: "Speak text in a character's voice",
	Long: `Speak text with the configured voice backend.

Examples:
  arena say "Let me counter that point." --character titan
  VOICE_BACKEND=system arena say "Hello there"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		registry, err := localCharacters()
		if err != nil {
			return err
		}
		id, _ := cmd.Flags().GetString("character")
		persona := registry.Lookup(id)

		synth, err := voice.NewFromConfig(appConfig, logger)
		if err != nil {
			return err
		}
		defer synth.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", persona.Name, strings.Join(synth.Backends(), " -> "))
		err = synth.Speak(ctx, strings.Join(args, " "), persona)
		if voice.IsStopped(err) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	sayCmd.Flags().StringP("character", "c", "luna", "Character whose voice to use")
}

// ============================================================================
// ROOM TOKEN
// ============================================================================

var roomTokenCmd = &cobra.Command{
	Use:   "room-token",
	Short: "Get an access token for a voice debate room",
	Long: `Ask the server for a room access token. Outside production, when
LIVEKIT_* credentials are set locally, a token is minted locally if the
server cannot provide one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		roomName, _ := cmd.Flags().GetString("room")
		name, _ := cmd.Flags().GetString("name")
		if strings.TrimSpace(name) == "" {
			name = "player-" + uuid.NewString()[:8]
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		token, err := room.NewTokenSource(appConfig, apiClient(), logger).Token(ctx, roomName, name)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(map[string]string{
			"token":     token.Token,
			"url":       token.URL,
			"roomName":  token.RoomName,
			"identity":  token.Identity,
			"expiresAt": token.ExpiresAt.UTC().Format(time.RFC3339),
		})
	},
}

func init() {
	roomTokenCmd.Flags().String("room", "", "Room name (default: a new room)")
	roomTokenCmd.Flags().String("name", "", "Participant name")
}
