package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"debatearena/internal/character"
	"debatearena/internal/client"
	"debatearena/internal/debate"
	"debatearena/internal/observability"
	"debatearena/internal/transcript"
	"debatearena/internal/voice"
)

var debateCmd = &cobra.Command{
	Use:   "debate [topic]",
	Short: "Start a debate",
	Long: `Start a debate against one of the AI characters.

Type an argument and press enter. Commands:
  /stop   silence the current reply
  /quit   end the debate

Examples:
  arena debate "Remote work is better than office work"
  arena debate --character titan --side con --speak
  arena debate "Space exploration is worth the cost" --export debate.pdf`,
	RunE: runDebate,
}

var (
	characterFlag string
	sideFlag      string
	speakFlag     bool
	exportFlag    string
	roundsFlag    int
)

func init() {
	debateCmd.Flags().StringVarP(&characterFlag, "character", "c", "luna", "Opponent character id")
	debateCmd.Flags().StringVarP(&sideFlag, "side", "s", "pro", "Your side (pro or con)")
	debateCmd.Flags().BoolVar(&speakFlag, "speak", false, "Read replies aloud")
	debateCmd.Flags().StringVarP(&exportFlag, "export", "o", "", "Write the transcript to a .json, .md or .pdf file, or pass just a format name")
	debateCmd.Flags().IntVarP(&roundsFlag, "rounds", "r", 0, "Stop after this many arguments (0 = until /quit)")
}

type debateSession struct {
	api     *client.Client
	persona character.Character
	synth   *voice.Synthesizer
	record  transcript.Transcript
	history []client.Turn
	out     io.Writer
}

func runDebate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var format transcript.Format
	if exportFlag != "" {
		var err error
		if format, err = transcript.ParseFormat(exportFlag); err != nil {
			return err
		}
	}

	api := apiClient()
	topic, err := chooseTopic(ctx, api, strings.Join(args, " "))
	if err != nil {
		return err
	}

	registry, err := localCharacters()
	if err != nil {
		return fmt.Errorf("load characters: %w", err)
	}
	persona := registry.Lookup(characterFlag)
	userSide := strings.ToLower(strings.TrimSpace(sideFlag))
	if userSide != "pro" && userSide != "con" {
		return fmt.Errorf("--side must be pro or con")
	}

	session := &debateSession{
		api:     api,
		persona: persona,
		out:     cmd.OutOrStdout(),
		record: transcript.Transcript{
			Topic:         topic,
			Character:     persona.ID,
			CharacterName: persona.Name,
			Level:         persona.Level,
			UserSide:      userSide,
			AISide:        oppositeSide(userSide),
			StartedAt:     time.Now(),
		},
	}
	if speakFlag {
		synth, err := voice.NewFromConfig(appConfig, logger)
		if err != nil {
			return fmt.Errorf("voice: %w", err)
		}
		defer synth.Close()
		session.synth = synth
	}

	fmt.Fprintf(session.out, "\n%s %s (%s) argues %s on: %s\n\n", persona.Emoji, persona.Name, persona.Level, session.record.AISide, topic)
	intro, err := api.Introduce(ctx, client.IntroRequest{CharacterID: persona.ID, Topic: topic, AISide: session.record.AISide})
	if err != nil {
		return fmt.Errorf("introduction: %w", err)
	}
	session.say(ctx, intro.Introduction)
	session.record.AddAI(intro.Introduction, time.Now())

	err = session.loop(ctx, cmd.InOrStdin())
	fmt.Fprintf(session.out, "\nFinal score: %d points\n", session.record.TotalScore)

	if exportFlag != "" {
		path := exportFlag
		if filepath.Ext(path) == "" {
			path = transcript.Filename(session.record, format)
		}
		if exportErr := writeTranscript(session.record, path, format); exportErr != nil {
			return exportErr
		}
		fmt.Fprintf(session.out, "Transcript written to %s\n", path)
	}
	return err
}

func (s *debateSession) loop(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	rounds := 0
	for {
		fmt.Fprint(s.out, "> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case next, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(next)
		}

		switch line {
		case "":
			continue
		case "/quit":
			return nil
		case "/stop":
			if s.synth != nil {
				s.synth.Stop()
			}
			continue
		}

		if err := s.turn(ctx, line); err != nil {
			if client.StatusCode(err) == http.StatusBadRequest {
				fmt.Fprintf(s.out, "! %s\n", apiMessage(err))
				continue
			}
			return err
		}
		rounds++
		if roundsFlag > 0 && rounds >= roundsFlag {
			return nil
		}
	}
}

func (s *debateSession) turn(ctx context.Context, argument string) error {
	reply, err := s.api.Respond(ctx, client.DebateRequest{
		UserMessage:         argument,
		CharacterID:         s.persona.ID,
		Topic:               s.record.Topic,
		UserSide:            s.record.UserSide,
		AISide:              s.record.AISide,
		ConversationHistory: s.history,
	})
	if err != nil {
		return err
	}
	score, err := s.api.Score(ctx, client.ScoreRequest{
		Response:       argument,
		Topic:          s.record.Topic,
		CharacterLevel: s.persona.Level,
	})
	if err != nil {
		return err
	}

	now := time.Now()
	s.record.AddUser(argument, score, now)
	s.record.AddAI(reply.Response, now)
	s.history = append(s.history,
		client.Turn{Role: debate.RoleUser, Text: argument},
		client.Turn{Role: debate.RoleAI, Text: reply.Response},
	)

	fmt.Fprintf(s.out, "  +%d points (relevance %d/10)  total %d\n\n", score.FinalScore, score.Relevance, s.record.TotalScore)
	s.say(ctx, reply.Response)
	return nil
}

// say prints text and, with --speak, queues it without waiting so the next
// argument can be typed while the reply plays.
func (s *debateSession) say(ctx context.Context, text string) {
	fmt.Fprintf(s.out, "%s: %s\n\n", s.persona.Name, text)
	if s.synth == nil {
		return
	}
	result := s.synth.Enqueue(ctx, text, s.persona)
	go func() {
		if err := <-result; err != nil && !voice.IsStopped(err) && !errors.Is(err, context.Canceled) {
			logger.Warn("speech_failed", observability.Fields{"character": s.persona.ID, "error": err})
		}
	}()
}

func chooseTopic(ctx context.Context, api *client.Client, topic string) (string, error) {
	if topic = strings.TrimSpace(topic); topic != "" {
		return topic, nil
	}
	saved, err := api.Topics(ctx)
	if err != nil {
		return "", fmt.Errorf("list topics: %w", err)
	}
	if len(saved) == 0 {
		return "", errors.New("no topic given and no saved topics; pass one as an argument")
	}
	return saved[len(saved)-1], nil
}

func writeTranscript(record transcript.Transcript, path string, format transcript.Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := record.Export(f, format); err != nil {
		f.Close()
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}

func apiMessage(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
