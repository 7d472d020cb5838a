package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

const (
	TransferActionTransferred = "transferred"
	TransferActionCallback    = "callback"
	TransferActionDeclined    = "declined"
)

// TransferRequest is the in-call tool payload asking for a human. Transient;
// the core never persists it.
type TransferRequest struct {
	OrganizationID string `json:"organizationId"`
	AssistantID    string `json:"assistantId"`
	CallID         string `json:"callId"`
	CallerPhone    string `json:"callerPhone,omitempty"`
	Reason         string `json:"reason"`
	Urgency        string `json:"urgency"` // low|medium|high
	Summary        string `json:"summary,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
}

// TransferResult is what the dialogue layer speaks back to the caller.
// Message is always natural language, apologetic on failure paths; raw
// errors never reach it.
type TransferResult struct {
	Success        bool   `json:"success"`
	Action         string `json:"action"` // transferred|callback|declined
	Message        string `json:"message"`
	TransferTo     string `json:"transferTo,omitempty"`
	TransferToName string `json:"transferToName,omitempty"`
}

// TransferSettings is the per-organization transfer rule row owned by the
// business configuration (dashboard writes it; this core only reads).
type TransferSettings struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrganizationID string `gorm:"column:organization_id;type:uuid;index:idx_transfer_org_assistant" json:"organization_id"`
	AssistantID    string `gorm:"column:assistant_id;type:uuid;index:idx_transfer_org_assistant" json:"assistant_id"`

	DirectNumber    string `gorm:"column:direct_number;type:text" json:"direct_number"`
	DirectName      string `gorm:"column:direct_name;type:text" json:"direct_name"`
	AnnounceMessage string `gorm:"column:announce_message;type:text" json:"announce_message"`

	CallbackEnabled bool   `gorm:"column:callback_enabled" json:"callback_enabled"`
	NotifyNumber    string `gorm:"column:notify_number;type:text" json:"notify_number"`

	// Keywords that force a transfer regardless of urgency, e.g.
	// ["emergency", "burst pipe"]. Stored as a JSON array.
	Keywords datatypes.JSON `gorm:"column:keywords;type:jsonb" json:"keywords"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (TransferSettings) TableName() string { return "transfer_settings" }
