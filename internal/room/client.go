package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"debatearena/internal/observability"
)

const DefaultFrameInterval = time.Second / 60

type Options struct {
	// URL is used when the token source does not return one.
	URL    string
	Tokens TokenSource
	// FrameInterval paces audio level sampling.
	FrameInterval time.Duration
	Logger        *observability.Logger
}

type Client struct {
	transport Transport
	url       string
	tokens    TokenSource
	interval  time.Duration
	logger    *observability.Logger

	mu         sync.Mutex
	connected  bool
	speaking   bool
	local      LocalTrack
	remote     *Participant
	stopLevels context.CancelFunc
	levelsDone chan struct{}

	listenersMu sync.Mutex
	listeners   map[EventKind]map[int]func(Event)
	nextID      int
}

func New(transport Transport, opts Options) *Client {
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &Client{
		transport: transport,
		url:       strings.TrimSpace(opts.URL),
		tokens:    opts.Tokens,
		interval:  interval,
		logger:    opts.Logger,
		listeners: map[EventKind]map[int]func(Event){},
	}
}

// Subscribe registers handler for events of kind. Several handlers may listen
// to the same kind; the returned function removes this one. AudioLevelChanged
// handlers run on the sampling goroutine and must not call StopLocalAudio.
func (c *Client) Subscribe(kind EventKind, handler func(Event)) (unsubscribe func()) {
	if handler == nil {
		return func() {}
	}
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	if c.listeners[kind] == nil {
		c.listeners[kind] = map[int]func(Event){}
	}
	c.listeners[kind][id] = handler
	c.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			delete(c.listeners[kind], id)
			c.listenersMu.Unlock()
		})
	}
}

func (c *Client) emit(event Event) {
	c.listenersMu.Lock()
	handlers := make([]func(Event), 0, len(c.listeners[event.Kind]))
	for _, handler := range c.listeners[event.Kind] {
		handlers = append(handlers, handler)
	}
	c.listenersMu.Unlock()

	for _, handler := range handlers {
		handler(event)
	}
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) Speaking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.speaking
}

// Remote returns the tracked remote participant, if any.
func (c *Client) Remote() (Participant, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remote == nil {
		return Participant{}, false
	}
	return *c.remote, true
}

// Connect fetches a token for roomName and joins the room. On failure the
// client stays disconnected and subscribers see ConnectionStateChanged(false).
func (c *Client) Connect(ctx context.Context, roomName, participantName string) (Token, error) {
	if c.Connected() {
		if err := c.Disconnect(ctx); err != nil {
			return Token{}, err
		}
	}
	if c.tokens == nil {
		return Token{}, c.connectFailed(errors.New("room: no token source"))
	}

	token, err := c.tokens.Token(ctx, roomName, participantName)
	if err != nil {
		return Token{}, c.connectFailed(fmt.Errorf("room: token: %w", err))
	}
	url := strings.TrimSpace(token.URL)
	if url == "" {
		url = c.url
	}
	if url == "" {
		return Token{}, c.connectFailed(ErrNoURL)
	}

	if err := c.transport.Connect(ctx, url, token.Token, c.handle); err != nil {
		return Token{}, c.connectFailed(fmt.Errorf("room: connect: %w", err))
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	c.logger.Info("room_connected", observability.Fields{
		"room":     token.RoomName,
		"identity": token.Identity,
	})
	c.emit(Event{Kind: ConnectionStateChanged, Connected: true})
	return token, nil
}

func (c *Client) connectFailed(err error) error {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
	c.logger.Warn("room_connect_failed", observability.Fields{"error": err})
	c.emit(Event{Kind: ConnectionStateChanged, Connected: false, Err: err})
	return err
}

// Disconnect stops the microphone and leaves the room.
func (c *Client) Disconnect(ctx context.Context) error {
	audioErr := c.StopLocalAudio(ctx)

	c.mu.Lock()
	c.connected = false
	c.remote = nil
	c.mu.Unlock()
	leaveErr := c.transport.Disconnect(ctx)

	c.emit(Event{Kind: ConnectionStateChanged, Connected: false})
	return errors.Join(audioErr, leaveErr)
}

// StartLocalAudio publishes the microphone and starts reporting its level.
// A microphone already published is replaced.
func (c *Client) StartLocalAudio(ctx context.Context) error {
	if !c.Connected() {
		return ErrNotConnected
	}
	c.mu.Lock()
	hasLocal := c.local != nil
	c.mu.Unlock()
	if hasLocal {
		if err := c.StopLocalAudio(ctx); err != nil {
			return err
		}
	}

	track, err := c.transport.PublishMicrophone(ctx)
	if err != nil {
		return fmt.Errorf("room: publish microphone: %w", err)
	}

	levelCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.mu.Lock()
	c.local = track
	c.speaking = true
	c.stopLevels = cancel
	c.levelsDone = done
	c.mu.Unlock()

	go c.sampleLevels(levelCtx, track.Analyser(), done)
	c.emit(Event{Kind: SpeakingStateChanged, Speaking: true})
	return nil
}

// StopLocalAudio unpublishes the microphone. It always reports
// SpeakingStateChanged(false).
func (c *Client) StopLocalAudio(ctx context.Context) error {
	c.haltLevels()

	c.mu.Lock()
	track := c.local
	c.local = nil
	c.speaking = false
	c.mu.Unlock()

	var err error
	if track != nil {
		if unpublishErr := c.transport.Unpublish(ctx, track); unpublishErr != nil {
			err = fmt.Errorf("room: unpublish microphone: %w", unpublishErr)
		}
		track.Stop()
	}
	c.emit(Event{Kind: SpeakingStateChanged, Speaking: false})
	return err
}

func (c *Client) haltLevels() {
	c.mu.Lock()
	cancel, done := c.stopLevels, c.levelsDone
	c.stopLevels, c.levelsDone = nil, nil
	c.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Client) sampleLevels(ctx context.Context, analyser Analyser, done chan struct{}) {
	defer close(done)
	if analyser == nil {
		return
	}
	bins := make([]byte, analyser.FrequencyBinCount())
	if len(bins) == 0 {
		return
	}
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		analyser.ByteFrequencyData(bins)
		c.emit(Event{Kind: AudioLevelChanged, Level: averageLevel(bins)})
	}
}

func averageLevel(bins []byte) float64 {
	if len(bins) == 0 {
		return 0
	}
	total := 0
	for _, b := range bins {
		total += int(b)
	}
	return float64(total) / float64(len(bins))
}

func (c *Client) handle(event TransportEvent) {
	local := c.transport.LocalIdentity()
	isLocal := event.Participant.Identity == local

	switch event.Type {
	case ParticipantJoined:
		if isLocal {
			return
		}
		participant := event.Participant
		c.mu.Lock()
		c.remote = &participant
		c.mu.Unlock()
		c.emit(Event{Kind: RemoteParticipantConnected, Participant: participant})
	case ParticipantLeft:
		c.mu.Lock()
		tracked := c.remote != nil && c.remote.Identity == event.Participant.Identity
		if tracked {
			c.remote = nil
		}
		c.mu.Unlock()
		if tracked {
			c.emit(Event{Kind: RemoteParticipantDisconnected, Participant: event.Participant})
		}
	case TrackSubscribed:
		if event.Track.Kind == TrackAudio && !isLocal {
			c.emit(Event{Kind: RemoteAudioStarted, Participant: event.Participant})
		}
	case TrackUnsubscribed:
		if event.Track.Kind == TrackAudio && !isLocal {
			c.emit(Event{Kind: RemoteAudioStopped, Participant: event.Participant})
		}
	case Disconnected:
		c.haltLevels()
		c.mu.Lock()
		wasConnected := c.connected
		track := c.local
		c.connected = false
		c.speaking = false
		c.local = nil
		c.remote = nil
		c.mu.Unlock()
		if track != nil {
			track.Stop()
		}
		if wasConnected {
			c.logger.Warn("room_disconnected", observability.Fields{"error": event.Err})
			c.emit(Event{Kind: ConnectionStateChanged, Connected: false, Err: event.Err})
		}
	}
}
