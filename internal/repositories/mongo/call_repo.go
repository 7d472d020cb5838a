package mongo

import (
	"context"
	"time"

	"github.com/voicedeskhq/voicedesk/internal/models"
	"github.com/voicedeskhq/voicedesk/internal/utils"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type CallRepository interface {
	Create(ctx context.Context, call *models.CallRecord) error
	GetByCallID(ctx context.Context, callID string) (*models.CallRecord, error)
	AppendTranscript(ctx context.Context, callID string, entry models.TranscriptEntry) error
	SetStatus(ctx context.Context, callID, status string) error
	End(ctx context.Context, callID string, endedAt time.Time, durationSeconds int64) error
	AttachAnalysis(ctx context.Context, callID string, analysis *models.CallAnalysis) error
}

type callRepo struct {
	col *mongo.Collection
}

func NewCallRepo(db *mongo.Database) CallRepository {
	return &callRepo{col: db.Collection("calls")}
}

func (r *callRepo) Create(ctx context.Context, call *models.CallRecord) error {
	if call.CreatedAt.IsZero() {
		call.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, call)
	return err
}

func (r *callRepo) GetByCallID(ctx context.Context, callID string) (*models.CallRecord, error) {
	var out models.CallRecord
	err := r.col.FindOne(ctx, bson.M{"call_id": callID}).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *callRepo) AppendTranscript(ctx context.Context, callID string, entry models.TranscriptEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	_, err := r.col.UpdateOne(ctx,
		bson.M{"call_id": callID},
		bson.M{"$push": bson.M{"transcript": entry}},
	)
	return err
}

func (r *callRepo) SetStatus(ctx context.Context, callID, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"call_id": callID},
		bson.M{"$set": bson.M{"status": status}},
	)
	return err
}

func (r *callRepo) End(ctx context.Context, callID string, endedAt time.Time, durationSeconds int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"call_id": callID},
		bson.M{"$set": bson.M{
			"status":           models.CallStatusEnded,
			"ended_at":         endedAt,
			"duration_seconds": durationSeconds,
		}},
	)
	return err
}

func (r *callRepo) AttachAnalysis(ctx context.Context, callID string, analysis *models.CallAnalysis) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"call_id": callID},
		bson.M{"$set": bson.M{"analysis": analysis}},
	)
	return err
}
