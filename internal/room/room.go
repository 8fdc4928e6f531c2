// Package room joins a real-time audio room for a voice debate. The room
// service itself sits behind Transport; Client tracks connection, microphone
// and remote-participant state and fans room activity out to subscribers.
//
// No Transport ships with this package. A WebRTC adapter (for example one
// built on the LiveKit server SDK's room client) implements Transport by
// mapping its participant and track callbacks onto TransportEvent and
// wrapping its published microphone track as a LocalTrack. Tokens for it come
// from NewTokenSource.
package room

import (
	"context"
	"errors"
)

var (
	ErrNotConnected = errors.New("room: not connected")
	ErrNoURL        = errors.New("room: no server url")
)

type EventKind string

const (
	ConnectionStateChanged        EventKind = "connection_state_changed"
	SpeakingStateChanged          EventKind = "speaking_state_changed"
	AudioLevelChanged             EventKind = "audio_level_changed"
	RemoteParticipantConnected    EventKind = "remote_participant_connected"
	RemoteParticipantDisconnected EventKind = "remote_participant_disconnected"
	RemoteAudioStarted            EventKind = "remote_audio_started"
	RemoteAudioStopped            EventKind = "remote_audio_stopped"
)

// Event is delivered to subscribers of its Kind. Only the fields relevant to
// the kind are set.
type Event struct {
	Kind        EventKind
	Connected   bool
	Speaking    bool
	Level       float64
	Participant Participant
	Err         error
}

type Participant struct {
	Identity string
	Name     string
}

type TrackKind string

const (
	TrackAudio TrackKind = "audio"
	TrackVideo TrackKind = "video"
)

type Track struct {
	SID  string
	Kind TrackKind
}

type TransportEventType int

const (
	ParticipantJoined TransportEventType = iota + 1
	ParticipantLeft
	TrackSubscribed
	TrackUnsubscribed
	Disconnected
)

// TransportEvent is what a Transport reports about the room after Connect.
type TransportEvent struct {
	Type        TransportEventType
	Participant Participant
	Track       Track
	Err         error
}

// Analyser exposes the frequency spectrum of the local microphone, one byte
// per bin.
type Analyser interface {
	FrequencyBinCount() int
	ByteFrequencyData(dst []byte)
}

// LocalTrack is a published microphone track.
type LocalTrack interface {
	Analyser() Analyser
	Stop()
}

// Transport adapts a room SDK. handler may be called from any goroutine
// until Disconnect returns.
type Transport interface {
	Connect(ctx context.Context, url, token string, handler func(TransportEvent)) error
	Disconnect(ctx context.Context) error
	LocalIdentity() string
	PublishMicrophone(ctx context.Context) (LocalTrack, error)
	Unpublish(ctx context.Context, track LocalTrack) error
}
