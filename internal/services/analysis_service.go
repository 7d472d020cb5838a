package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/voicedeskhq/voicedesk/internal/models"
	"github.com/voicedeskhq/voicedesk/internal/providers/llm"
	mongorepo "github.com/voicedeskhq/voicedesk/internal/repositories/mongo"
	"github.com/voicedeskhq/voicedesk/internal/utils"
)

const (
	// Transcripts shorter than this carry nothing worth extracting.
	minTranscriptChars = 20

	// Transcript input is truncated before the extraction request.
	maxTranscriptChars = 8000

	analysisTimeout = 15 * time.Second
)

const analysisPrompt = `You are reviewing the transcript of a finished phone call answered by an AI receptionist.
Extract the following as JSON with exactly these keys:
  caller_name (string, empty if never given)
  reason (string, why they called)
  appointment_requested (boolean)
  summary (string, two sentences at most)
  outcome (one of: resolved, follow_up, transferred, unclear)
  collected_data (object of string to string: any phone numbers, emails, addresses or dates the caller provided)

Transcript:
`

// AnalysisService produces the best-effort post-call enrichment. A nil
// result with a nil error means analysis was skipped; callers must treat
// that as a normal outcome.
type AnalysisService interface {
	Analyze(ctx context.Context, callID, transcript string) (*models.CallAnalysis, error)
}

type analysisService struct {
	llm   llm.Provider
	calls mongorepo.CallRepository
	log   *logrus.Logger
}

func NewAnalysisService(provider llm.Provider, calls mongorepo.CallRepository, log *logrus.Logger) AnalysisService {
	if log == nil {
		log = logrus.New()
	}
	return &analysisService{llm: provider, calls: calls, log: log}
}

func (s *analysisService) Analyze(ctx context.Context, callID, transcript string) (*models.CallAnalysis, error) {
	const op = "AnalysisService.Analyze"

	if callID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call_id is required", nil)
	}
	if len(transcript) < minTranscriptChars {
		s.log.WithField("call_id", callID).Debug("transcript below analysis threshold, skipping")
		return nil, nil
	}
	if s.llm == nil {
		// Extraction service not configured; the call record stands as-is.
		return nil, nil
	}

	if len(transcript) > maxTranscriptChars {
		transcript = transcript[:maxTranscriptChars]
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	raw, err := s.llm.ExtractJSON(ctx, analysisPrompt+transcript)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "extraction request failed", err)
	}

	var payload struct {
		CallerName           string            `json:"caller_name"`
		Reason               string            `json:"reason"`
		AppointmentRequested bool              `json:"appointment_requested"`
		Summary              string            `json:"summary"`
		Outcome              string            `json:"outcome"`
		CollectedData        map[string]string `json:"collected_data"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "extraction returned malformed json", err)
	}

	analysis := &models.CallAnalysis{
		CallerName:           payload.CallerName,
		Reason:               payload.Reason,
		AppointmentRequested: payload.AppointmentRequested,
		Summary:              payload.Summary,
		Outcome:              payload.Outcome,
		CollectedData:        payload.CollectedData,
		AnalyzedAt:           time.Now().UTC(),
	}

	if s.calls != nil {
		if err := s.calls.AttachAnalysis(ctx, callID, analysis); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to store analysis", err)
		}
	}
	return analysis, nil
}
