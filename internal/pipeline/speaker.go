package pipeline

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/voicedeskhq/voicedesk/internal/audio"
)

const synthesisTimeout = 10 * time.Second

var errEmptyText = errors.New("refusing to synthesize empty text")

// speak synthesizes one reply and streams it out as transport frames. At
// most one reply may be on the wire per session: a newer reply bumps the
// generation and stale audio is discarded before it is sent.
func (s *Session) speak(text string) {
	if err := s.synthesize(text); err != nil {
		if errors.Is(err, errEmptyText) {
			s.log.Warn("dialogue produced empty reply, nothing to speak")
			return
		}
		s.log.WithError(err).Error("speech synthesis failed")
	}
}

func (s *Session) synthesize(text string) error {
	if strings.TrimSpace(text) == "" {
		return errEmptyText
	}

	gen := s.synthGen.Add(1)

	ctx, cancel := context.WithTimeout(s.ctx, synthesisTimeout)
	defer cancel()

	raw, err := s.ttsProvider.Synthesize(ctx, text)
	if err != nil {
		return err
	}

	if s.synthGen.Load() != gen {
		// A newer reply superseded this one while it was synthesizing.
		s.log.Debug("discarding superseded synthesis")
		return nil
	}

	for _, chunk := range audio.ChunkForTransport(raw) {
		if s.synthGen.Load() != gen || s.ctx.Err() != nil {
			return nil
		}
		if err := s.out.SendAudio(chunk); err != nil {
			return err
		}
	}

	return s.out.SendMark("reply-" + strconv.FormatInt(gen, 10))
}
