package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	CallStatusActive       = "active"
	CallStatusTransferring = "transferring"
	CallStatusEnded        = "ended"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// TranscriptEntry is one utterance in the ordered call transcript.
type TranscriptEntry struct {
	Role      string    `bson:"role" json:"role"` // "caller" | "assistant"
	Content   string    `bson:"content" json:"content"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// CallRecord is the per-call document the pipeline writes into. The live
// session owns the call exclusively while active; the analysis worker
// attaches enrichment after the call ends.
type CallRecord struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CallID string             `bson:"call_id" json:"call_id"` // uuid v4

	OrganizationID string `bson:"organization_id" json:"organization_id"`
	AssistantID    string `bson:"assistant_id" json:"assistant_id"`
	CallerPhone    string `bson:"caller_phone,omitempty" json:"caller_phone,omitempty"`
	Direction      string `bson:"direction" json:"direction"` // inbound|outbound
	StreamSID      string `bson:"stream_sid,omitempty" json:"stream_sid,omitempty"`

	Status     string            `bson:"status" json:"status"` // active|transferring|ended
	Transcript []TranscriptEntry `bson:"transcript,omitempty" json:"transcript,omitempty"`
	Analysis   *CallAnalysis     `bson:"analysis,omitempty" json:"analysis,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
}
