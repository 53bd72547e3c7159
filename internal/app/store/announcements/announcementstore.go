// internal/app/store/announcements/announcementstore.go
package announcementstore

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
	ErrNotFound    = errors.New("announcement not found")
	errBadCategory = errors.New(`category must be "urgent", "event", "general", or "merch"`)
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("announcements")}
}

// CreateInput carries the author-supplied fields for a new announcement.
type CreateInput struct {
	UnionCode  string
	Title      string
	Content    string
	Category   string
	AuthorID   primitive.ObjectID
	AuthorName string
}

// Create inserts an announcement.
func (s *Store) Create(ctx context.Context, in CreateInput) (models.Announcement, error) {
	if !validCategory(in.Category) {
		return models.Announcement{}, errBadCategory
	}

	now := time.Now().UTC()
	ann := models.Announcement{
		ID:         primitive.NewObjectID(),
		UnionCode:  in.UnionCode,
		Title:      in.Title,
		Content:    in.Content,
		Category:   in.Category,
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.c.InsertOne(ctx, ann); err != nil {
		return models.Announcement{}, err
	}
	return ann, nil
}

// GetByID loads one announcement.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Announcement, error) {
	var ann models.Announcement
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ann)
	if err == mongo.ErrNoDocuments {
		return models.Announcement{}, ErrNotFound
	}
	if err != nil {
		return models.Announcement{}, err
	}
	return ann, nil
}

// ListByUnion returns a union's announcements, newest first, optionally
// filtered by category. limit <= 0 returns everything.
func (s *Store) ListByUnion(ctx context.Context, unionCode, category string, limit int64) ([]models.Announcement, error) {
	filter := bson.M{"union_code": unionCode}
	if category != "" {
		filter["category"] = category
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var anns []models.Announcement
	if err := cur.All(ctx, &anns); err != nil {
		return nil, err
	}
	return anns, nil
}

// UpdateInput carries the editable fields. Nil pointers leave a field
// untouched.
type UpdateInput struct {
	Title    *string
	Content  *string
	Category *string
}

// Update edits an announcement and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, in UpdateInput) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if in.Title != nil {
		set["title"] = *in.Title
	}
	if in.Content != nil {
		set["content"] = *in.Content
	}
	if in.Category != nil {
		if !validCategory(*in.Category) {
			return errBadCategory
		}
		set["category"] = *in.Category
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an announcement.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func validCategory(c string) bool {
	switch c {
	case models.AnnouncementUrgent, models.AnnouncementEvent,
		models.AnnouncementGeneral, models.AnnouncementMerch:
		return true
	}
	return false
}
