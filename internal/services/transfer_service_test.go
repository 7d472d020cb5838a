package services

import (
	"context"
	"testing"

	"github.com/voicedeskhq/voicedesk/internal/models"
	"github.com/voicedeskhq/voicedesk/internal/utils"
)

type fakeSettingsRepo struct {
	settings map[string]*models.TransferSettings
}

func (r *fakeSettingsRepo) GetByAssistant(_ context.Context, organizationID, assistantID string) (*models.TransferSettings, error) {
	ts, ok := r.settings[organizationID+"/"+assistantID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return ts, nil
}

func newTestTransferService(settings map[string]*models.TransferSettings) TransferService {
	return NewTransferService(&fakeSettingsRepo{settings: settings}, nil, nil, nil)
}

func baseRequest() models.TransferRequest {
	return models.TransferRequest{
		OrganizationID: "org-1",
		AssistantID:    "asst-1",
		CallID:         "call-1",
		CallerPhone:    "+15550001111",
		Reason:         "billing question",
		Urgency:        models.UrgencyLow,
	}
}

func TestDecideMissingIdentifiersDeclines(t *testing.T) {
	svc := newTestTransferService(nil)

	req := baseRequest()
	req.OrganizationID = ""

	res := svc.Decide(context.Background(), req)
	if res.Success {
		t.Fatalf("expected Success=false, got %+v", res)
	}
	if res.Action != models.TransferActionDeclined {
		t.Fatalf("expected declined, got %q", res.Action)
	}
	if res.Message == "" {
		t.Fatal("declined result must carry a speakable message")
	}
}

func TestDecideNoSettingsDeclines(t *testing.T) {
	svc := newTestTransferService(nil)

	res := svc.Decide(context.Background(), baseRequest())
	if res.Success || res.Action != models.TransferActionDeclined {
		t.Fatalf("expected declined, got %+v", res)
	}
}

func TestDecideHighUrgencyTransfers(t *testing.T) {
	svc := newTestTransferService(map[string]*models.TransferSettings{
		"org-1/asst-1": {
			DirectNumber: "+15559990000",
			DirectName:   "Dana",
		},
	})

	req := baseRequest()
	req.Urgency = models.UrgencyHigh

	res := svc.Decide(context.Background(), req)
	if !res.Success || res.Action != models.TransferActionTransferred {
		t.Fatalf("expected transferred, got %+v", res)
	}
	if res.TransferTo != "+15559990000" {
		t.Fatalf("TransferTo = %q", res.TransferTo)
	}
	if res.Message == "" {
		t.Fatal("transfer result must carry an announce message")
	}
}

func TestDecideAnnounceMessageOverride(t *testing.T) {
	svc := newTestTransferService(map[string]*models.TransferSettings{
		"org-1/asst-1": {
			DirectNumber:    "+15559990000",
			AnnounceMessage: "Connecting you to our on-call plumber now.",
		},
	})

	req := baseRequest()
	req.Urgency = models.UrgencyHigh

	res := svc.Decide(context.Background(), req)
	if res.Message != "Connecting you to our on-call plumber now." {
		t.Fatalf("Message = %q", res.Message)
	}
}

func TestDecideKeywordForcesTransfer(t *testing.T) {
	svc := newTestTransferService(map[string]*models.TransferSettings{
		"org-1/asst-1": {
			DirectNumber: "+15559990000",
			Keywords:     []byte(`["emergency","burst pipe"]`),
		},
	})

	req := baseRequest()
	req.Reason = "there is a BURST PIPE in the basement"

	res := svc.Decide(context.Background(), req)
	if !res.Success || res.Action != models.TransferActionTransferred {
		t.Fatalf("expected keyword transfer, got %+v", res)
	}
}

func TestDecideLowUrgencyCallback(t *testing.T) {
	svc := newTestTransferService(map[string]*models.TransferSettings{
		"org-1/asst-1": {
			CallbackEnabled: true,
			NotifyNumber:    "+15558887777",
		},
	})

	res := svc.Decide(context.Background(), baseRequest())
	if !res.Success || res.Action != models.TransferActionCallback {
		t.Fatalf("expected callback, got %+v", res)
	}
	if res.TransferTo != "" {
		t.Fatalf("callback must not expose a transfer number, got %q", res.TransferTo)
	}
}

func TestDecideLowUrgencyFallsBackToDirectNumber(t *testing.T) {
	svc := newTestTransferService(map[string]*models.TransferSettings{
		"org-1/asst-1": {
			DirectNumber: "+15559990000",
		},
	})

	res := svc.Decide(context.Background(), baseRequest())
	if !res.Success || res.Action != models.TransferActionTransferred {
		t.Fatalf("expected fallback transfer, got %+v", res)
	}
}

func TestDecideNoRouteDeclines(t *testing.T) {
	svc := newTestTransferService(map[string]*models.TransferSettings{
		"org-1/asst-1": {},
	})

	res := svc.Decide(context.Background(), baseRequest())
	if res.Success || res.Action != models.TransferActionDeclined {
		t.Fatalf("expected declined, got %+v", res)
	}
}
