package stt

import (
	"context"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

type GoogleSpeech struct {
	c *speech.Client
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{c: c}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) OpenStream(ctx context.Context, language string) (Stream, error) {
	if language == "" {
		language = "en-US"
	}

	rs, err := g.c.StreamingRecognize(ctx)
	if err != nil {
		return nil, err
	}

	// First request carries the config; audio follows. The encoding is
	// pinned to the telephony wire format: mu-law, 8 kHz, mono.
	err = rs.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   speechpb.RecognitionConfig_MULAW,
					SampleRateHertz:            8000,
					AudioChannelCount:          1,
					LanguageCode:               language,
					EnableAutomaticPunctuation: true,
				},
				InterimResults: true,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	s := &googleStream{
		rs:     rs,
		events: make(chan Event, 32),
	}
	go s.recvLoop()
	return s, nil
}

type googleStream struct {
	rs speechpb.Speech_StreamingRecognizeClient

	events chan Event

	mu     sync.Mutex
	err    error
	closed bool
}

func (s *googleStream) Send(audio []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return io.ErrClosedPipe
	}
	s.mu.Unlock()

	return s.rs.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: audio,
		},
	})
}

func (s *googleStream) Events() <-chan Event { return s.events }

func (s *googleStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *googleStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()
	return s.rs.CloseSend()
}

func (s *googleStream) recvLoop() {
	defer close(s.events)

	for {
		resp, err := s.rs.Recv()
		if err == io.EOF {
			return
		}
		if err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = err
			}
			s.mu.Unlock()
			return
		}

		for _, res := range resp.Results {
			if len(res.Alternatives) == 0 {
				continue
			}
			alt := res.Alternatives[0]
			if alt.Transcript == "" {
				continue
			}

			kind := EventPartial
			if res.IsFinal {
				kind = EventFinal
			}
			s.events <- Event{
				Kind:       kind,
				Text:       alt.Transcript,
				Confidence: float64(alt.Confidence),
			}

			// A final result is the recognizer's utterance boundary; surface
			// it as a distinct event so the buffer can act (or not) on it.
			if res.IsFinal {
				s.events <- Event{Kind: EventUtteranceEnd}
			}
		}
	}
}
