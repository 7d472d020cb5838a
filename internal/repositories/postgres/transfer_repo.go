package postgres

import (
	"context"
	"errors"

	"github.com/voicedeskhq/voicedesk/internal/models"
	"github.com/voicedeskhq/voicedesk/internal/utils"
	"gorm.io/gorm"
)

type TransferSettingsRepository interface {
	GetByAssistant(ctx context.Context, organizationID, assistantID string) (*models.TransferSettings, error)
}

type transferRepo struct {
	db *gorm.DB
}

func NewTransferRepo(db *gorm.DB) TransferSettingsRepository {
	return &transferRepo{db: db}
}

func (r *transferRepo) GetByAssistant(ctx context.Context, organizationID, assistantID string) (*models.TransferSettings, error) {
	var ts models.TransferSettings
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND assistant_id = ?", organizationID, assistantID).
		Take(&ts).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &ts, err
}
