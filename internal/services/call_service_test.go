package services

import (
	"context"
	"testing"
	"time"

	"github.com/voicedeskhq/voicedesk/internal/models"
	"github.com/voicedeskhq/voicedesk/internal/utils"
)

type memCallRepo struct {
	records map[string]*models.CallRecord
}

func newMemCallRepo() *memCallRepo {
	return &memCallRepo{records: map[string]*models.CallRecord{}}
}

func (r *memCallRepo) Create(_ context.Context, call *models.CallRecord) error {
	r.records[call.CallID] = call
	return nil
}

func (r *memCallRepo) GetByCallID(_ context.Context, callID string) (*models.CallRecord, error) {
	call, ok := r.records[callID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *call
	return &cp, nil
}

func (r *memCallRepo) AppendTranscript(_ context.Context, callID string, entry models.TranscriptEntry) error {
	if call, ok := r.records[callID]; ok {
		call.Transcript = append(call.Transcript, entry)
	}
	return nil
}

func (r *memCallRepo) SetStatus(_ context.Context, callID, status string) error {
	if call, ok := r.records[callID]; ok {
		call.Status = status
	}
	return nil
}

func (r *memCallRepo) End(_ context.Context, callID string, endedAt time.Time, durationSeconds int64) error {
	if call, ok := r.records[callID]; ok {
		call.Status = models.CallStatusEnded
		call.EndedAt = &endedAt
		call.DurationSeconds = durationSeconds
	}
	return nil
}

func (r *memCallRepo) AttachAnalysis(_ context.Context, callID string, a *models.CallAnalysis) error {
	if call, ok := r.records[callID]; ok {
		call.Analysis = a
	}
	return nil
}

func TestCallStartDefaultsAndPersists(t *testing.T) {
	repo := newMemCallRepo()
	svc := NewCallService(repo)

	call, err := svc.Start(context.Background(), "org-1", "asst-1", "+15550001111", "", "MZ1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if call.CallID == "" {
		t.Fatal("call id not assigned")
	}
	if call.Direction != models.DirectionInbound {
		t.Fatalf("Direction = %q, want inbound default", call.Direction)
	}
	if call.Status != models.CallStatusActive {
		t.Fatalf("Status = %q", call.Status)
	}
	if _, ok := repo.records[call.CallID]; !ok {
		t.Fatal("record not persisted")
	}
}

func TestCallStartRequiresIdentifiers(t *testing.T) {
	svc := NewCallService(newMemCallRepo())

	if _, err := svc.Start(context.Background(), "", "asst-1", "", "", ""); err == nil {
		t.Fatal("expected error for missing organization id")
	}
	if _, err := svc.Start(context.Background(), "org-1", "", "", "", ""); err == nil {
		t.Fatal("expected error for missing assistant id")
	}
}

func TestCallGetUnknownIsNotFound(t *testing.T) {
	svc := NewCallService(newMemCallRepo())

	_, err := svc.Get(context.Background(), "missing")
	if !utils.IsCode(err, utils.CodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}
}

func TestCallEndComputesDuration(t *testing.T) {
	repo := newMemCallRepo()
	svc := NewCallService(repo)

	call, err := svc.Start(context.Background(), "org-1", "asst-1", "", "inbound", "MZ1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	repo.records[call.CallID].CreatedAt = time.Now().UTC().Add(-90 * time.Second)

	ended, err := svc.End(context.Background(), call.CallID)
	if err != nil {
		t.Fatalf("End: %v", err)
	}
	if ended.Status != models.CallStatusEnded {
		t.Fatalf("Status = %q", ended.Status)
	}
	if ended.EndedAt == nil {
		t.Fatal("EndedAt not set")
	}
	if ended.DurationSeconds < 89 || ended.DurationSeconds > 92 {
		t.Fatalf("DurationSeconds = %d", ended.DurationSeconds)
	}
}

func TestCallAppendTranscript(t *testing.T) {
	repo := newMemCallRepo()
	svc := NewCallService(repo)

	call, err := svc.Start(context.Background(), "org-1", "asst-1", "", "", "MZ1")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := svc.AppendTranscript(context.Background(), call.CallID, "caller", "hello"); err != nil {
		t.Fatalf("AppendTranscript: %v", err)
	}
	if err := svc.AppendTranscript(context.Background(), call.CallID, "", "x"); err == nil {
		t.Fatal("expected error for missing role")
	}

	got := repo.records[call.CallID].Transcript
	if len(got) != 1 || got[0].Content != "hello" {
		t.Fatalf("transcript = %+v", got)
	}
}
