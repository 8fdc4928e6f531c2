package voice

import (
	"context"
	"errors"
	"strings"
	"sync"

	"debatearena/internal/character"
	"debatearena/internal/observability"
)

type Options struct {
	// Primary speaks every utterance first.
	Primary Backend
	// Fallback, when set, speaks utterances the primary backend failed on.
	Fallback Backend
	Logger   *observability.Logger
}

type job struct {
	ctx     context.Context
	text    string
	persona character.Character
	result  chan error
	stopped bool
}

// Synthesizer serializes speech: an utterance starts only after the previous
// one has finished or failed.
type Synthesizer struct {
	primary  Backend
	fallback Backend
	logger   *observability.Logger

	mu        sync.Mutex
	pending   []*job
	current   *job
	cancelCur context.CancelFunc
	paused    bool
	closed    bool
	listeners map[int]func(Event)
	nextID    int

	wake chan struct{}
	done chan struct{}
}

func New(opts Options) (*Synthesizer, error) {
	if opts.Primary == nil {
		return nil, ErrNoBackend
	}
	s := &Synthesizer{
		primary:   opts.Primary,
		fallback:  opts.Fallback,
		logger:    opts.Logger,
		listeners: map[int]func(Event){},
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// Backends names the primary backend and, when configured, the fallback.
func (s *Synthesizer) Backends() []string {
	names := []string{s.primary.Name()}
	if s.fallback != nil {
		names = append(names, s.fallback.Name())
	}
	return names
}

// Speak queues text and waits until it has been spoken.
func (s *Synthesizer) Speak(ctx context.Context, text string, persona character.Character) error {
	result := s.Enqueue(ctx, text, persona)
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue queues text and returns a channel that receives exactly one value
// when the utterance finishes, fails or is dropped.
func (s *Synthesizer) Enqueue(ctx context.Context, text string, persona character.Character) <-chan error {
	result := make(chan error, 1)
	text = strings.TrimSpace(text)
	if text == "" {
		result <- nil
		return result
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		result <- ErrClosed
		return result
	}
	s.pending = append(s.pending, &job{ctx: ctx, text: text, persona: persona, result: result})
	s.mu.Unlock()
	s.signal()
	return result
}

// Stop fails every pending utterance with ErrStopped and aborts the one
// currently playing.
func (s *Synthesizer) Stop() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	if s.current != nil {
		s.current.stopped = true
	}
	cancel := s.cancelCur
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, j := range pending {
		j.result <- ErrStopped
	}
}

// Pause holds queued utterances. The one already playing runs to completion.
func (s *Synthesizer) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

func (s *Synthesizer) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
	s.signal()
}

// Speaking reports whether an utterance is playing.
func (s *Synthesizer) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Subscribe registers handler for playback events and returns a function that
// removes it. Handlers run on the queue goroutine and must not block.
func (s *Synthesizer) Subscribe(handler func(Event)) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = handler
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Close stops playback and ends the queue goroutine.
func (s *Synthesizer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.Stop()
	s.signal()
	<-s.done
	return nil
}

func (s *Synthesizer) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Synthesizer) run() {
	defer close(s.done)
	for {
		j, ctx, ok := s.next()
		if !ok {
			return
		}
		s.play(ctx, j)
	}
}

// next blocks until an utterance may start. Utterances whose caller already
// gave up are answered without being played.
func (s *Synthesizer) next() (*job, context.Context, bool) {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return nil, nil, false
		}
		for !s.paused && len(s.pending) > 0 {
			j := s.pending[0]
			s.pending = s.pending[1:]
			if err := j.ctx.Err(); err != nil {
				j.result <- err
				continue
			}
			ctx, cancel := context.WithCancel(j.ctx)
			s.current = j
			s.cancelCur = cancel
			s.mu.Unlock()
			return j, ctx, true
		}
		s.mu.Unlock()
		<-s.wake
	}
}

func (s *Synthesizer) play(ctx context.Context, j *job) {
	backend := s.primary.Name()
	s.emit(Event{Kind: SpeechStarted, PersonaID: j.persona.ID, Backend: backend})

	err := s.primary.Speak(ctx, j.text, j.persona)
	if err != nil && s.fallback != nil && ctx.Err() == nil && !errors.Is(err, ErrPartialSpeech) {
		s.logger.Warn("voice_backend_failed", observability.Fields{
			"backend":   backend,
			"fallback":  s.fallback.Name(),
			"character": j.persona.ID,
			"error":     err,
		})
		backend = s.fallback.Name()
		err = s.fallback.Speak(ctx, j.text, j.persona)
	}

	s.mu.Lock()
	if j.stopped {
		err = ErrStopped
	}
	s.cancelCur()
	s.current = nil
	s.cancelCur = nil
	s.mu.Unlock()

	s.emit(Event{Kind: SpeechEnded, PersonaID: j.persona.ID, Backend: backend, Err: err})
	j.result <- err
}

func (s *Synthesizer) emit(event Event) {
	s.mu.Lock()
	handlers := make([]func(Event), 0, len(s.listeners))
	for _, handler := range s.listeners {
		handlers = append(handlers, handler)
	}
	s.mu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// IsStopped reports whether err means the utterance was cut short by Stop.
func IsStopped(err error) bool {
	return errors.Is(err, ErrStopped)
}
