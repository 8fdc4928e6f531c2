package voice

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"debatearena/internal/character"
)

type fakeBackend struct {
	name    string
	err     error
	started chan string
	release chan struct{}

	mu  sync.Mutex
	log []string
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) Speak(ctx context.Context, text string, _ character.Character) error {
	f.record("start:" + text)
	if f.started != nil {
		f.started <- text
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			f.record("abort:" + text)
			return ctx.Err()
		}
	}
	f.record("end:" + text)
	return f.err
}

func (f *fakeBackend) record(entry string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log = append(f.log, entry)
}

func (f *fakeBackend) entries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.log...)
}

func newSynth(t *testing.T, opts Options) *Synthesizer {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("new synthesizer: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func waitResult(t *testing.T, result <-chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for utterance result")
		return nil
	}
}

func TestSpeechIsSerialized(t *testing.T) {
	backend := &fakeBackend{name: "fake", started: make(chan string, 4), release: make(chan struct{})}
	s := newSynth(t, Options{Primary: backend})
	persona := character.Builtin().Default()
	ctx := context.Background()

	first := s.Enqueue(ctx, "one", persona)
	second := s.Enqueue(ctx, "two", persona)

	if got := <-backend.started; got != "one" {
		t.Fatalf("expected first utterance to start, got %q", got)
	}
	select {
	case got := <-backend.started:
		t.Fatalf("utterance %q started before the first one finished", got)
	case <-time.After(50 * time.Millisecond):
	}

	backend.release <- struct{}{}
	if err := waitResult(t, first); err != nil {
		t.Fatalf("first utterance: %v", err)
	}
	if got := <-backend.started; got != "two" {
		t.Fatalf("expected second utterance to start, got %q", got)
	}
	backend.release <- struct{}{}
	if err := waitResult(t, second); err != nil {
		t.Fatalf("second utterance: %v", err)
	}

	want := []string{"start:one", "end:one", "start:two", "end:two"}
	if got := backend.entries(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected playback order: %v", got)
	}
}

func TestStopFailsPendingAndAbortsCurrent(t *testing.T) {
	backend := &fakeBackend{name: "fake", started: make(chan string, 4), release: make(chan struct{})}
	s := newSynth(t, Options{Primary: backend})
	persona := character.Builtin().Default()

	var (
		mu    sync.Mutex
		ended []Event
	)
	s.Subscribe(func(event Event) {
		if event.Kind == SpeechEnded {
			mu.Lock()
			ended = append(ended, event)
			mu.Unlock()
		}
	})

	ctx := context.Background()
	current := s.Enqueue(ctx, "current", persona)
	pendingA := s.Enqueue(ctx, "pending a", persona)
	pendingB := s.Enqueue(ctx, "pending b", persona)
	<-backend.started

	s.Stop()

	for name, result := range map[string]<-chan error{"current": current, "pending a": pendingA, "pending b": pendingB} {
		if err := waitResult(t, result); !errors.Is(err, ErrStopped) {
			t.Fatalf("%s: expected ErrStopped, got %v", name, err)
		}
	}
	if s.Speaking() {
		t.Fatalf("synthesizer should be idle after Stop")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ended) != 1 || !IsStopped(ended[0].Err) || ended[0].PersonaID != persona.ID {
		t.Fatalf("expected one stopped SpeechEnded event, got %#v", ended)
	}
}

func TestHostedFailureFallsBackToSystem(t *testing.T) {
	primary := &fakeBackend{name: "hosted", err: errors.New("quota exceeded")}
	fallback := &fakeBackend{name: "system:say"}
	s := newSynth(t, Options{Primary: primary, Fallback: fallback})

	var backends []string
	var mu sync.Mutex
	s.Subscribe(func(event Event) {
		mu.Lock()
		defer mu.Unlock()
		backends = append(backends, string(event.Kind)+"@"+event.Backend)
	})

	if err := s.Speak(context.Background(), "hello there", character.Builtin().Lookup("titan")); err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if got := fallback.entries(); !reflect.DeepEqual(got, []string{"start:hello there", "end:hello there"}) {
		t.Fatalf("fallback backend not used: %v", got)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"speech_started@hosted", "speech_ended@system:say"}
	if !reflect.DeepEqual(backends, want) {
		t.Fatalf("unexpected events: %v", backends)
	}
}

func TestPartialSpeechIsNotRepeated(t *testing.T) {
	primary := &fakeBackend{name: "hosted", err: fmt.Errorf("%w: connection reset", ErrPartialSpeech)}
	fallback := &fakeBackend{name: "system:say"}
	s := newSynth(t, Options{Primary: primary, Fallback: fallback})

	err := s.Speak(context.Background(), "hello there", character.Builtin().Lookup("titan"))
	if !errors.Is(err, ErrPartialSpeech) {
		t.Fatalf("expected ErrPartialSpeech, got %v", err)
	}
	if got := fallback.entries(); len(got) != 0 {
		t.Fatalf("fallback must not replay a partly spoken utterance: %v", got)
	}
}

func TestPauseHoldsQueue(t *testing.T) {
	backend := &fakeBackend{name: "fake", started: make(chan string, 4)}
	s := newSynth(t, Options{Primary: backend})

	s.Pause()
	result := s.Enqueue(context.Background(), "held", character.Builtin().Default())
	select {
	case <-backend.started:
		t.Fatalf("utterance started while paused")
	case <-time.After(50 * time.Millisecond):
	}

	s.Resume()
	if err := waitResult(t, result); err != nil {
		t.Fatalf("resumed utterance: %v", err)
	}
}

func TestCancelledCallerIsSkipped(t *testing.T) {
	backend := &fakeBackend{name: "fake"}
	s := newSynth(t, Options{Primary: backend})
	s.Pause()

	ctx, cancel := context.WithCancel(context.Background())
	result := s.Enqueue(ctx, "never", character.Builtin().Default())
	cancel()
	s.Resume()

	if err := waitResult(t, result); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if got := backend.entries(); len(got) != 0 {
		t.Fatalf("cancelled utterance should not play, got %v", got)
	}
}

func TestClosedSynthesizerRejectsSpeech(t *testing.T) {
	s, err := New(Options{Primary: &fakeBackend{name: "fake"}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Speak(context.Background(), "late", character.Builtin().Default()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestUnsubscribeStopsEvents(t *testing.T) {
	s := newSynth(t, Options{Primary: &fakeBackend{name: "fake"}})

	var mu sync.Mutex
	count := 0
	unsubscribe := s.Subscribe(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	persona := character.Builtin().Default()
	if err := s.Speak(context.Background(), "first", persona); err != nil {
		t.Fatalf("speak: %v", err)
	}
	unsubscribe()
	if err := s.Speak(context.Background(), "second", persona); err != nil {
		t.Fatalf("speak: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 2 {
		t.Fatalf("expected start and end events for first utterance only, got %d", count)
	}
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected ErrNoBackend, got %v", err)
	}
}
