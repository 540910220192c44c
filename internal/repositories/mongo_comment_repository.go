package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anonto42/page-comments/backend/internal/apperrors"
	"github.com/anonto42/page-comments/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// maxStatusRetries bounds the compare-and-set loop in SetStatus
const maxStatusRetries = 3

// MongoCommentRepository implements CommentRepository for MongoDB. Every
// mutation is a single-document update, which MongoDB applies atomically.
type MongoCommentRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments"), now: time.Now}
}

// EnsureIndexes creates the indexes used by List
func (r *MongoCommentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_time", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_time", Value: -1}}},
	})
	return err
}

func (r *MongoCommentRepository) findOneAndUpdate(ctx context.Context, id string, filter bson.M, update bson.M) (*models.Comment, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var comment models.Comment
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("comment", id)
		}
		return nil, err
	}
	return &comment, nil
}

// Ingest upserts by id; only the platform counters change for known comments
func (r *MongoCommentRepository) Ingest(ctx context.Context, incoming models.Comment, post models.Post) (*models.Comment, bool, error) {
	if strings.TrimSpace(incoming.ID) == "" {
		return nil, false, apperrors.Validation("comment id is required")
	}

	now := r.now().UTC()
	created := incoming.CreatedTime
	if created.IsZero() {
		created = now
	}

	onInsert := bson.M{
		"message":      incoming.Message,
		"created_time": created,
		"post_id":      post.ID,
		"post_message": post.Message,
		"status":       models.StatusPending,
		"notes":        bson.A{},
		"replies":      bson.A{},
		"auto_replied": false,
		"updated_at":   now,
	}
	if incoming.From != nil {
		onInsert["from"] = incoming.From
	}

	update := bson.M{
		"$setOnInsert": onInsert,
		"$set": bson.M{
			"like_count":    incoming.LikeCount,
			"comment_count": incoming.CommentCount,
		},
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": incoming.ID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return nil, false, fmt.Errorf("ingest comment: %w", err)
	}

	comment, err := r.GetByID(ctx, incoming.ID)
	if err != nil {
		return nil, false, err
	}
	return comment, res.UpsertedCount == 1, nil
}

// GetByID retrieves a comment by ID from MongoDB
func (r *MongoCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("comment", id)
		}
		return nil, err
	}
	return &comment, nil
}

// SetStatus changes the status with a compare-and-set on the current value
func (r *MongoCommentRepository) SetStatus(ctx context.Context, id string, status models.CommentStatus) (*models.Comment, error) {
	if !status.Valid() {
		return nil, checkTransition("", status)
	}

	for attempt := 0; attempt < maxStatusRetries; attempt++ {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := checkTransition(current.Status, status); err != nil {
			return nil, err
		}

		filter := bson.M{"_id": id, "status": current.Status}
		update := bson.M{"$set": bson.M{"status": status, "updated_at": r.now().UTC()}}
		comment, err := r.findOneAndUpdate(ctx, id, filter, update)
		if apperrors.IsNotFound(err) {
			// status moved underneath us; re-read and re-check
			continue
		}
		return comment, err
	}
	return nil, fmt.Errorf("set status of comment %s: concurrent modification", id)
}

// AddNote appends an internal note
func (r *MongoCommentRepository) AddNote(ctx context.Context, id, text string) (*models.Comment, error) {
	note, err := newNote(text, r.now().UTC())
	if err != nil {
		return nil, err
	}
	update := bson.M{
		"$push": bson.M{"notes": note},
		"$set":  bson.M{"updated_at": note.CreatedAt},
	}
	return r.findOneAndUpdate(ctx, id, bson.M{"_id": id}, update)
}

// RecordReply appends a reply and marks the comment replied in one update
func (r *MongoCommentRepository) RecordReply(ctx context.Context, id string, reply models.Reply) (*models.Comment, error) {
	now := r.now().UTC()
	if reply.CreatedAt.IsZero() {
		reply.CreatedAt = now
	}
	filter := bson.M{"_id": id}
	set := bson.M{"status": models.StatusReplied, "updated_at": now}
	if reply.Auto {
		// another process may have answered the comment already
		filter["auto_replied"] = bson.M{"$ne": true}
		set["auto_replied"] = true
	}
	update := bson.M{
		"$push": bson.M{"replies": reply},
		"$set":  set,
	}
	comment, err := r.findOneAndUpdate(ctx, id, filter, update)
	if err != nil && reply.Auto && apperrors.IsNotFound(err) {
		n, countErr := r.collection.CountDocuments(ctx, bson.M{"_id": id})
		if countErr != nil {
			return nil, countErr
		}
		if n > 0 {
			return nil, ErrAlreadyAutoReplied
		}
	}
	return comment, err
}

// List filters by status, sorts newest first and paginates
func (r *MongoCommentRepository) List(ctx context.Context, filter models.CommentFilter, page, pageSize int) ([]models.Comment, models.Pagination, error) {
	if err := validateFilter(filter); err != nil {
		return nil, models.Pagination{}, err
	}

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	start, end, pagination := Paginate(int(total), page, pageSize)
	comments := []models.Comment{}
	if end <= start {
		return comments, pagination, nil
	}

	findOptions := options.Find().
		SetSkip(int64(start)).
		SetLimit(int64(end - start)).
		SetSort(bson.D{{Key: "created_time", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &comments); err != nil {
		return nil, models.Pagination{}, err
	}
	return comments, pagination, nil
}

// Stats aggregates counts per status
func (r *MongoCommentRepository) Stats(ctx context.Context) (*models.CommentStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":     "$status",
			"count":   bson.M{"$sum": 1},
			"likes":   bson.M{"$sum": "$like_count"},
			"replies": bson.M{"$sum": bson.M{"$size": bson.M{"$ifNull": bson.A{"$replies", bson.A{}}}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status  models.CommentStatus `bson:"_id"`
		Count   int                  `bson:"count"`
		Likes   int                  `bson:"likes"`
		Replies int                  `bson:"replies"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, err
	}

	stats := &models.CommentStats{}
	for _, g := range groups {
		stats.TotalComments += g.Count
		stats.TotalLikes += g.Likes
		stats.TotalReplies += g.Replies
		switch g.Status {
		case models.StatusPending:
			stats.PendingComments = g.Count
		case models.StatusReplied:
			stats.RepliedComments = g.Count
		case models.StatusFlagged:
			stats.FlaggedComments = g.Count
		}
	}
	stats.ResponseRate = responseRate(stats.RepliedComments, stats.TotalComments)
	return stats, nil
}
