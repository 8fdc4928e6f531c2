package voice

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// CommandPlayer pipes PCM into an external audio player's stdin.
type CommandPlayer struct {
	// Command is split on spaces; {rate} and {channels} are replaced with the
	// stream's format.
	Command string
}

var knownPlayers = []string{
	"ffplay -nodisp -autoexit -loglevel error -f s16le -ar {rate} -ac {channels} -",
	"aplay -q -f S16_LE -r {rate} -c {channels} -",
	"play -q -t raw -e signed -b 16 -r {rate} -c {channels} -",
}

// NewCommandPlayer uses command when set, otherwise the first installed
// player among ffplay, aplay and sox.
func NewCommandPlayer(command string) (*CommandPlayer, error) {
	if command = strings.TrimSpace(command); command != "" {
		return &CommandPlayer{Command: command}, nil
	}
	for _, candidate := range knownPlayers {
		name, _, _ := strings.Cut(candidate, " ")
		if _, err := exec.LookPath(name); err == nil {
			return &CommandPlayer{Command: candidate}, nil
		}
	}
	return nil, fmt.Errorf("voice: no audio player found (set VOICE_PLAYER)")
}

func (p *CommandPlayer) argv(format AudioFormat) []string {
	replacer := strings.NewReplacer(
		"{rate}", strconv.Itoa(format.SampleRate),
		"{channels}", strconv.Itoa(format.Channels),
	)
	return strings.Fields(replacer.Replace(p.Command))
}

func (p *CommandPlayer) Play(ctx context.Context, audio io.Reader, format AudioFormat) error {
	argv := p.argv(format)
	if len(argv) == 0 {
		return fmt.Errorf("voice: empty player command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = audio
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("voice: %s: %w: %s", argv[0], err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
