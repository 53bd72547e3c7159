// internal/app/store/reports/reportstore.go
package reportstore

import (
	"context"
	"errors"
	"time"

	"github.com/unionhubhq/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound  = errors.New("report not found")
	errBadStatus = errors.New(`status must be "resolved" or "dismissed"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("reports")}
}

// Create files a report. New reports always start pending.
func (s *Store) Create(ctx context.Context, rep models.Report) (models.Report, error) {
	now := time.Now().UTC()
	rep.ID = primitive.NewObjectID()
	rep.Status = models.ReportPending
	rep.CreatedAt = now
	rep.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, rep); err != nil {
		return models.Report{}, err
	}
	return rep, nil
}

// GetByID loads one report.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Report, error) {
	var rep models.Report
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rep)
	if err == mongo.ErrNoDocuments {
		return models.Report{}, ErrNotFound
	}
	if err != nil {
		return models.Report{}, err
	}
	return rep, nil
}

// ListByUnion returns a union's reports, pending first, newest first
// within each status.
func (s *Store) ListByUnion(ctx context.Context, unionCode, status string) ([]models.Report, error) {
	filter := bson.M{"union_code": unionCode}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "status", Value: -1}, {Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var reports []models.Report
	if err := cur.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// SetStatus moves a report out of pending. Only resolved and dismissed
// are legal targets; reports never go back to pending.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	if status != models.ReportResolved && status != models.ReportDismissed {
		return errBadStatus
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPending returns the number of pending reports for a union.
func (s *Store) CountPending(ctx context.Context, unionCode string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"union_code": unionCode, "status": models.ReportPending})
}
