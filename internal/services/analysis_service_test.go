package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/voicedeskhq/voicedesk/internal/models"
)

type fakeLLM struct {
	response string
	err      error
	calls    int
}

func (f *fakeLLM) StreamAnswer(_ context.Context, _ string) (<-chan string, <-chan error) {
	out := make(chan string)
	errs := make(chan error)
	close(out)
	close(errs)
	return out, errs
}

func (f *fakeLLM) ExtractJSON(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func (f *fakeLLM) Close() error { return nil }

type fakeCallRepo struct {
	attached map[string]*models.CallAnalysis
}

func (r *fakeCallRepo) Create(context.Context, *models.CallRecord) error { return nil }
func (r *fakeCallRepo) GetByCallID(context.Context, string) (*models.CallRecord, error) {
	return nil, nil
}
func (r *fakeCallRepo) AppendTranscript(context.Context, string, models.TranscriptEntry) error {
	return nil
}
func (r *fakeCallRepo) SetStatus(context.Context, string, string) error { return nil }
func (r *fakeCallRepo) End(context.Context, string, time.Time, int64) error {
	return nil
}
func (r *fakeCallRepo) AttachAnalysis(_ context.Context, callID string, a *models.CallAnalysis) error {
	if r.attached == nil {
		r.attached = map[string]*models.CallAnalysis{}
	}
	r.attached[callID] = a
	return nil
}

const sampleTranscript = `assistant: Thanks for calling Hartley Plumbing, how can I help?
caller: Hi, this is Maria Santos, my water heater is leaking.
assistant: I'm sorry to hear that. Could I get a number to reach you?
caller: Sure, it's 0412 555 123.`

func TestAnalyzeShortTranscriptSkips(t *testing.T) {
	model := &fakeLLM{}
	svc := NewAnalysisService(model, &fakeCallRepo{}, nil)

	analysis, err := svc.Analyze(context.Background(), "call-1", "hi")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis != nil {
		t.Fatalf("expected skip, got %+v", analysis)
	}
	if model.calls != 0 {
		t.Fatalf("extraction should not run on a short transcript, ran %d times", model.calls)
	}
}

func TestAnalyzeStoresResult(t *testing.T) {
	model := &fakeLLM{response: `{
		"caller_name": "Maria Santos",
		"reason": "leaking water heater",
		"appointment_requested": true,
		"summary": "Caller reported a leaking water heater and left a callback number.",
		"outcome": "follow_up",
		"collected_data": {"phone": "0412555123"}
	}`}
	repo := &fakeCallRepo{}
	svc := NewAnalysisService(model, repo, nil)

	analysis, err := svc.Analyze(context.Background(), "call-1", sampleTranscript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis == nil {
		t.Fatal("expected an analysis")
	}
	if analysis.CallerName != "Maria Santos" {
		t.Fatalf("CallerName = %q", analysis.CallerName)
	}
	if !analysis.AppointmentRequested {
		t.Fatal("AppointmentRequested should be true")
	}
	if analysis.CollectedData["phone"] != "0412555123" {
		t.Fatalf("CollectedData = %+v", analysis.CollectedData)
	}
	if analysis.AnalyzedAt.IsZero() {
		t.Fatal("AnalyzedAt not set")
	}

	stored, ok := repo.attached["call-1"]
	if !ok {
		t.Fatal("analysis was not attached to the call record")
	}
	if stored != analysis {
		t.Fatal("stored analysis differs from returned analysis")
	}
}

func TestAnalyzeMalformedJSONErrors(t *testing.T) {
	model := &fakeLLM{response: "Sure! Here is the JSON you asked for: {..."}
	svc := NewAnalysisService(model, &fakeCallRepo{}, nil)

	if _, err := svc.Analyze(context.Background(), "call-1", sampleTranscript); err == nil {
		t.Fatal("expected an error for malformed extraction output")
	}
}

func TestAnalyzeNilModelSkips(t *testing.T) {
	svc := NewAnalysisService(nil, &fakeCallRepo{}, nil)

	analysis, err := svc.Analyze(context.Background(), "call-1", sampleTranscript)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis != nil {
		t.Fatalf("expected skip with no model configured, got %+v", analysis)
	}
}

func TestAnalyzeTruncatesLongTranscript(t *testing.T) {
	model := &fakeLLM{response: `{"caller_name":"","reason":"","appointment_requested":false,"summary":"","outcome":"unclear","collected_data":{}}`}
	svc := NewAnalysisService(model, &fakeCallRepo{}, nil)

	long := strings.Repeat("caller: and another thing.\n", 2000)
	if _, err := svc.Analyze(context.Background(), "call-1", long); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if model.calls != 1 {
		t.Fatalf("extraction calls = %d", model.calls)
	}
}
