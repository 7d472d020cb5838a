package stt

import "context"

type EventKind string

const (
	// EventPartial is an interim transcript fragment for the utterance in
	// progress; later fragments replace or extend it.
	EventPartial EventKind = "partial"

	// EventFinal is a stable transcript fragment that will not change.
	EventFinal EventKind = "final"

	// EventUtteranceEnd signals the recognizer believes the speaker paused.
	// The turn buffer may ignore it depending on the expected input type.
	EventUtteranceEnd EventKind = "utterance_end"
)

// Event is one recognizer emission for a call's inbound audio.
type Event struct {
	Kind       EventKind
	Text       string
	Confidence float64
}

// Stream is one live recognition stream. Send accepts raw mu-law 8 kHz
// audio; Events delivers fragments until the stream is closed or fails,
// after which Err reports the terminal error if any.
type Stream interface {
	Send(audio []byte) error
	Events() <-chan Event
	Err() error
	Close() error
}

type Provider interface {
	// OpenStream starts a recognition stream for one call. language is a
	// BCP-47 tag such as "en-US".
	OpenStream(ctx context.Context, language string) (Stream, error)
	Close() error
}
