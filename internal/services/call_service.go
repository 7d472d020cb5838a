package services

import (
	"context"
	"errors"
	"time"

	"github.com/voicedeskhq/voicedesk/internal/models"
	mongorepo "github.com/voicedeskhq/voicedesk/internal/repositories/mongo"
	"github.com/voicedeskhq/voicedesk/internal/utils"

	"github.com/google/uuid"
)

type CallService interface {
	Start(ctx context.Context, organizationID, assistantID, callerPhone, direction, streamSID string) (*models.CallRecord, error)
	Get(ctx context.Context, callID string) (*models.CallRecord, error)
	AppendTranscript(ctx context.Context, callID, role, content string) error
	SetStatus(ctx context.Context, callID, status string) error
	End(ctx context.Context, callID string) (*models.CallRecord, error)
}

type callService struct {
	calls mongorepo.CallRepository
}

func NewCallService(calls mongorepo.CallRepository) CallService {
	return &callService{calls: calls}
}

func (s *callService) Start(ctx context.Context, organizationID, assistantID, callerPhone, direction, streamSID string) (*models.CallRecord, error) {
	const op = "CallService.Start"

	if organizationID == "" || assistantID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "organization_id and assistant_id are required", nil)
	}
	if direction == "" {
		direction = models.DirectionInbound
	}

	call := &models.CallRecord{
		CallID:         uuid.NewString(),
		OrganizationID: organizationID,
		AssistantID:    assistantID,
		CallerPhone:    callerPhone,
		Direction:      direction,
		StreamSID:      streamSID,
		Status:         models.CallStatusActive,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.calls.Create(ctx, call); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create call record", err)
	}
	return call, nil
}

func (s *callService) Get(ctx context.Context, callID string) (*models.CallRecord, error) {
	const op = "CallService.Get"

	if callID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call_id is required", nil)
	}

	out, err := s.calls.GetByCallID(ctx, callID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "call not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get call", err)
	}
	return out, nil
}

func (s *callService) AppendTranscript(ctx context.Context, callID, role, content string) error {
	const op = "CallService.AppendTranscript"

	if callID == "" || role == "" || content == "" {
		return utils.E(utils.CodeInvalidArgument, op, "call_id, role, and content are required", nil)
	}
	entry := models.TranscriptEntry{Role: role, Content: content, Timestamp: time.Now().UTC()}
	if err := s.calls.AppendTranscript(ctx, callID, entry); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to append transcript", err)
	}
	return nil
}

func (s *callService) SetStatus(ctx context.Context, callID, status string) error {
	const op = "CallService.SetStatus"

	if callID == "" || status == "" {
		return utils.E(utils.CodeInvalidArgument, op, "call_id and status are required", nil)
	}
	if err := s.calls.SetStatus(ctx, callID, status); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to set status", err)
	}
	return nil
}

func (s *callService) End(ctx context.Context, callID string) (*models.CallRecord, error) {
	const op = "CallService.End"

	if callID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "call_id is required", nil)
	}

	call, err := s.Get(ctx, callID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	dur := int64(now.Sub(call.CreatedAt).Seconds())
	if dur < 0 {
		dur = 0
	}

	if err := s.calls.End(ctx, callID, now, dur); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to end call", err)
	}

	call.Status = models.CallStatusEnded
	call.EndedAt = &now
	call.DurationSeconds = dur
	return call, nil
}
