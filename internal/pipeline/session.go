// Package pipeline owns a single phone call's real-time loop: inbound audio
// into the recognizer, turn delimitation, dialogue replies, and synthesized
// speech back out as transport frames. One Session per call; sessions share
// nothing mutable.
package pipeline

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/voicedeskhq/voicedesk/internal/models"
	"github.com/voicedeskhq/voicedesk/internal/providers/llm"
	"github.com/voicedeskhq/voicedesk/internal/providers/stt"
	"github.com/voicedeskhq/voicedesk/internal/providers/tts"
	"github.com/voicedeskhq/voicedesk/internal/services"
	"github.com/voicedeskhq/voicedesk/internal/turn"
	"github.com/voicedeskhq/voicedesk/internal/workers"
)

// Outbound is the transport surface the session speaks through. The media
// websocket handler implements it with a write-serialized connection.
type Outbound interface {
	SendAudio(payloadB64 string) error
	SendMark(name string) error
	Clear() error
}

// Config identifies the call and fixes the assistant's opening behavior.
type Config struct {
	CallID         string
	OrganizationID string
	AssistantID    string
	CallerPhone    string
	Direction      string
	Language       string

	// Greeting is spoken as soon as the media stream starts.
	Greeting string

	// SystemPrompt frames every dialogue request for this assistant.
	SystemPrompt string
}

const fallbackUtterance = "I'm sorry, I'm having a little trouble hearing you. Could you say that again?"

// inboundQueueSize bounds audio waiting for the recognizer; at 20 ms per
// frame this is about 1.3 s of backlog before frames are dropped.
const inboundQueueSize = 64

type Session struct {
	cfg Config
	out Outbound

	sttProvider stt.Provider
	llmProvider llm.Provider
	ttsProvider tts.Provider
	calls       services.CallService
	rdb         *redis.Client

	log *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	buffer *turn.Buffer
	stream stt.Stream

	audioCh chan []byte

	mu         sync.Mutex
	status     string
	transcript []models.TranscriptEntry

	// synthGen supersedes stale synthesis work: only the newest reply may
	// put audio on the wire.
	synthGen atomic.Int64

	endOnce sync.Once
}

// Deps carries the session's collaborators; everything is per-process
// except the Outbound transport, which is per-connection.
type Deps struct {
	STT   stt.Provider
	LLM   llm.Provider
	TTS   tts.Provider
	Calls services.CallService
	Redis *redis.Client
	Log   *logrus.Logger
}

func NewSession(cfg Config, out Outbound, d Deps) *Session {
	if d.Log == nil {
		d.Log = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		cfg:         cfg,
		out:         out,
		sttProvider: d.STT,
		llmProvider: d.LLM,
		ttsProvider: d.TTS,
		calls:       d.Calls,
		rdb:         d.Redis,
		ctx:         ctx,
		cancel:      cancel,
		audioCh:     make(chan []byte, inboundQueueSize),
		status:      models.CallStatusActive,
		log: d.Log.WithFields(logrus.Fields{
			"call_id":      cfg.CallID,
			"assistant_id": cfg.AssistantID,
		}),
	}
	s.buffer = turn.NewBuffer(s.onFlush)
	s.buffer.Logger = s.log
	return s
}

// Start opens the recognition stream and begins the call, speaking the
// greeting if one is configured.
func (s *Session) Start() error {
	stream, err := s.sttProvider.OpenStream(s.ctx, s.cfg.Language)
	if err != nil {
		return err
	}
	s.stream = stream

	go s.pumpAudio()
	go s.pumpRecognizer()

	if g := strings.TrimSpace(s.cfg.Greeting); g != "" {
		s.recordUtterance("assistant", g)
		s.buffer.SetExpectedInput(turn.DetectExpectedInput(g))
		go s.speak(g)
	}

	s.log.Info("call session started")
	return nil
}

// HandleInboundAudio accepts one decoded mu-law payload from the transport.
// It never blocks the transport's read loop: when the recognizer falls
// behind, the oldest backlog is dropped and logged.
func (s *Session) HandleInboundAudio(payload []byte) {
	if len(payload) == 0 {
		return
	}
	select {
	case s.audioCh <- payload:
	default:
		select {
		case <-s.audioCh:
		default:
		}
		select {
		case s.audioCh <- payload:
		default:
		}
		s.log.Warn("inbound audio backlog, dropping oldest frame")
	}
}

// Status returns the session status (active, transferring, ended).
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// MarkTransferring flags the call as handed to a human. The audio loop
// keeps running until the transport closes the stream.
func (s *Session) MarkTransferring() {
	s.mu.Lock()
	s.status = models.CallStatusTransferring
	s.mu.Unlock()

	if s.calls != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = s.calls.SetStatus(ctx, s.cfg.CallID, models.CallStatusTransferring)
	}
}

// End tears the session down: timers cleared, recognizer closed, call record
// finalized, and the analysis job enqueued. Idempotent; safe from any
// goroutine. Analysis continues in the background after teardown.
func (s *Session) End() {
	s.endOnce.Do(func() {
		s.mu.Lock()
		s.status = models.CallStatusEnded
		transcript := s.transcriptTextLocked()
		s.mu.Unlock()

		s.buffer.Close()
		if s.stream != nil {
			_ = s.stream.Close()
		}
		s.cancel()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if s.calls != nil {
			if _, err := s.calls.End(ctx, s.cfg.CallID); err != nil {
				s.log.WithError(err).Warn("failed to finalize call record")
			}
		}

		if s.rdb != nil {
			err := s.rdb.XAdd(ctx, &redis.XAddArgs{
				Stream: workers.AnalysisStream,
				Values: map[string]any{
					"call_id":    s.cfg.CallID,
					"transcript": transcript,
				},
			}).Err()
			if err != nil {
				s.log.WithError(err).Warn("failed to enqueue post-call analysis")
			}
		}

		s.log.Info("call session ended")
	})
}

// pumpAudio feeds queued inbound audio to the recognizer off the transport
// read loop.
func (s *Session) pumpAudio() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case payload := <-s.audioCh:
			if err := s.stream.Send(payload); err != nil {
				s.log.WithError(err).Warn("recognizer rejected audio")
				return
			}
		}
	}
}

// pumpRecognizer turns recognizer events into buffer intake.
func (s *Session) pumpRecognizer() {
	for ev := range s.stream.Events() {
		switch ev.Kind {
		case stt.EventPartial:
			s.buffer.UpdatePartial(ev.Text)
		case stt.EventFinal:
			s.buffer.AddFragment(ev.Text)
		case stt.EventUtteranceEnd:
			s.buffer.UtteranceEnd()
		}
	}
	if err := s.stream.Err(); err != nil && s.ctx.Err() == nil {
		s.log.WithError(err).Error("recognition stream failed")
	}
}

// onFlush receives a finalized caller turn and drives one dialogue round.
func (s *Session) onFlush(ev turn.FlushEvent) {
	if s.ctx.Err() != nil {
		return
	}

	s.log.WithFields(logrus.Fields{
		"input_type": ev.InputType,
		"reason":     ev.Reason,
	}).Debug("turn flushed")

	s.recordUtterance("caller", ev.Text)

	reply, err := s.requestReply(ev.Text)
	if err != nil {
		s.log.WithError(err).Error("dialogue request failed")
		s.speak(fallbackUtterance)
		return
	}
	if strings.TrimSpace(reply) == "" {
		return
	}

	s.recordUtterance("assistant", reply)
	s.buffer.SetExpectedInput(turn.DetectExpectedInput(reply))
	s.speak(reply)
}

// requestReply asks the dialogue layer for the assistant's next line.
func (s *Session) requestReply(turnText string) (string, error) {
	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	var prompt strings.Builder
	if s.cfg.SystemPrompt != "" {
		prompt.WriteString(s.cfg.SystemPrompt)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Conversation so far:\n")
	s.mu.Lock()
	for _, e := range s.transcript {
		prompt.WriteString(e.Role)
		prompt.WriteString(": ")
		prompt.WriteString(e.Content)
		prompt.WriteString("\n")
	}
	s.mu.Unlock()
	prompt.WriteString("caller: ")
	prompt.WriteString(turnText)
	prompt.WriteString("\nassistant:")

	chunks, errs := s.llmProvider.StreamAnswer(ctx, prompt.String())

	var full strings.Builder
	for chunk := range chunks {
		full.WriteString(chunk)
	}

	var streamErr error
	select {
	case streamErr = <-errs:
	default:
	}
	if streamErr != nil {
		return "", streamErr
	}
	return strings.TrimSpace(full.String()), nil
}

func (s *Session) recordUtterance(role, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, models.TranscriptEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	s.mu.Unlock()

	if s.calls != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := s.calls.AppendTranscript(ctx, s.cfg.CallID, role, content); err != nil {
			s.log.WithError(err).Warn("failed to persist transcript entry")
		}
	}
}

func (s *Session) transcriptTextLocked() string {
	var b strings.Builder
	for _, e := range s.transcript {
		b.WriteString(e.Role)
		b.WriteString(": ")
		b.WriteString(e.Content)
		b.WriteString("\n")
	}
	return b.String()
}
