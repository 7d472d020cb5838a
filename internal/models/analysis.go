package models

import "time"

// CallAnalysis is the best-effort structured summary extracted from a
// finished call's transcript. Absence of an analysis is a valid state;
// nothing in call teardown waits on it.
type CallAnalysis struct {
	CallerName           string            `bson:"caller_name,omitempty" json:"caller_name,omitempty"`
	Reason               string            `bson:"reason,omitempty" json:"reason,omitempty"`
	AppointmentRequested bool              `bson:"appointment_requested" json:"appointment_requested"`
	Summary              string            `bson:"summary,omitempty" json:"summary,omitempty"`
	Outcome              string            `bson:"outcome,omitempty" json:"outcome,omitempty"` // resolved|follow_up|transferred|unclear
	CollectedData        map[string]string `bson:"collected_data,omitempty" json:"collected_data,omitempty"`

	AnalyzedAt time.Time `bson:"analyzed_at" json:"analyzed_at"`
}
