package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/voicedeskhq/voicedesk/internal/cache"
	"github.com/voicedeskhq/voicedesk/internal/models"
	pgrepo "github.com/voicedeskhq/voicedesk/internal/repositories/postgres"
	"github.com/voicedeskhq/voicedesk/internal/utils"
)

// Caller-facing fallbacks. These are spoken to a live caller, so they stay
// apologetic natural language no matter what went wrong internally.
const (
	msgDeclined = "I'm so sorry, I'm not able to transfer you right now, but I'll make sure the team hears about your call."
	msgCallback = "I'm sorry, no one is available to take the call at the moment. I've passed your details along and someone will call you back as soon as possible."
)

const settingsCacheTTL = 5 * time.Minute

// TransferService maps an in-call transfer request to an action. It never
// returns an error to the tool caller; every failure path resolves to a
// declined result with a caller-safe message.
type TransferService interface {
	Decide(ctx context.Context, req models.TransferRequest) models.TransferResult
}

type transferService struct {
	settings pgrepo.TransferSettingsRepository
	cache    cache.Cache
	rdb      *redis.Client
	log      *logrus.Logger
}

func NewTransferService(settings pgrepo.TransferSettingsRepository, c cache.Cache, rdb *redis.Client, log *logrus.Logger) TransferService {
	if log == nil {
		log = logrus.New()
	}
	return &transferService{settings: settings, cache: c, rdb: rdb, log: log}
}

func (s *transferService) Decide(ctx context.Context, req models.TransferRequest) models.TransferResult {
	const op = "TransferService.Decide"

	log := s.log.WithFields(logrus.Fields{
		"call_id":         req.CallID,
		"organization_id": req.OrganizationID,
		"urgency":         req.Urgency,
	})

	if req.OrganizationID == "" || req.AssistantID == "" {
		log.Warn("transfer request missing identifiers")
		return declined()
	}

	ts, err := s.loadSettings(ctx, req.OrganizationID, req.AssistantID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			log.Warn("no transfer settings configured")
		} else {
			log.WithError(err).Error("failed to load transfer settings")
		}
		return declined()
	}

	if ts.DirectNumber != "" && (s.keywordHit(ts, req.Reason) || req.Urgency == models.UrgencyHigh || req.Urgency == models.UrgencyMedium) {
		msg := ts.AnnounceMessage
		if msg == "" {
			name := ts.DirectName
			if name == "" {
				name = "someone from the team"
			}
			msg = "Of course — one moment while I connect you to " + name + "."
		}
		return models.TransferResult{
			Success:        true,
			Action:         models.TransferActionTransferred,
			Message:        msg,
			TransferTo:     ts.DirectNumber,
			TransferToName: ts.DirectName,
		}
	}

	if ts.CallbackEnabled {
		s.notifyCallback(req, ts)
		return models.TransferResult{
			Success: true,
			Action:  models.TransferActionCallback,
			Message: msgCallback,
		}
	}

	if ts.DirectNumber != "" {
		// Low urgency with no callback channel still beats declining.
		return models.TransferResult{
			Success:        true,
			Action:         models.TransferActionTransferred,
			Message:        "Let me put you through to the team now.",
			TransferTo:     ts.DirectNumber,
			TransferToName: ts.DirectName,
		}
	}

	log.WithField("op", op).Warn("transfer settings have no usable route")
	return declined()
}

func declined() models.TransferResult {
	return models.TransferResult{
		Success: false,
		Action:  models.TransferActionDeclined,
		Message: msgDeclined,
	}
}

func (s *transferService) loadSettings(ctx context.Context, organizationID, assistantID string) (*models.TransferSettings, error) {
	key := "transfer_settings:" + organizationID + ":" + assistantID

	if s.cache != nil {
		var cached models.TransferSettings
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	ts, err := s.settings.GetByAssistant(ctx, organizationID, assistantID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, ts, settingsCacheTTL)
	}
	return ts, nil
}

func (s *transferService) keywordHit(ts *models.TransferSettings, reason string) bool {
	if len(ts.Keywords) == 0 || reason == "" {
		return false
	}
	var keywords []string
	if err := json.Unmarshal(ts.Keywords, &keywords); err != nil {
		return false
	}
	lower := strings.ToLower(reason)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// notifyCallback tells the business someone wants a call back. Best effort:
// it runs detached with its own deadline and only logs on failure.
func (s *transferService) notifyCallback(req models.TransferRequest, ts *models.TransferSettings) {
	if s.rdb == nil {
		return
	}

	payload, _ := json.Marshal(map[string]any{
		"type":         "callback_requested",
		"call_id":      req.CallID,
		"caller_phone": req.CallerPhone,
		"reason":       req.Reason,
		"urgency":      req.Urgency,
		"summary":      req.Summary,
		"notify":       ts.NotifyNumber,
	})

	ch := "org:" + req.OrganizationID + ":notifications"
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.rdb.Publish(ctx, ch, string(payload)).Err(); err != nil {
			s.log.WithError(err).WithField("call_id", req.CallID).Warn("callback notification publish failed")
		}
	}()
}
