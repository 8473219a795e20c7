package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"internsync/discovery-service/internal/model"
)

// Swipes persists swipe records. The (userId, jobId) pair is the logical
// key: repeat swipes overwrite action and timestamp in place via a single
// conditional upsert, so a concurrent double-swipe cannot create a
// duplicate record.
type Swipes struct {
	coll *mongo.Collection
}

// NewSwipes returns a Swipes store bound to the swipes collection.
func NewSwipes(db *mongo.Database) *Swipes {
	return &Swipes{coll: db.Collection("swipes")}
}

// EnsureIndexes creates the unique (userId, jobId) compound index the
// upsert relies on. Without it, Mongo's conditional-upsert semantics allow
// two concurrent upserts with the same filter to both insert. Safe to call
// on every startup; CreateOne is a no-op when the index already exists.
func (s *Swipes) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "jobId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("swipes.EnsureIndexes: %w", err)
	}
	return nil
}

// Upsert records the user's decision on a job. The job snapshot (title,
// tags, categories) is captured only when the record is first created, so
// historical affinity reflects the job as it was at swipe time. Returns
// the stored record and whether it was newly created.
func (s *Swipes) Upsert(ctx context.Context, userID, jobID primitive.ObjectID, action model.SwipeAction, job *model.Job) (*model.SwipeRecord, bool, error) {
	now := time.Now().UTC()

	filter := bson.M{"userId": userID, "jobId": jobID}
	update := bson.M{
		"$set": bson.M{"action": action, "swipedAt": now},
		"$setOnInsert": bson.M{
			"userId":        userID,
			"jobId":         jobID,
			"jobTitle":      job.Title,
			"jobTags":       job.Tags,
			"jobCategories": job.Categories,
		},
	}

	res, err := s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent upsert on the same pair inserted first and the
		// unique index rejected ours. The record now exists, so a retry
		// matches it and applies our $set as a plain update.
		res, err = s.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	}
	if err != nil {
		return nil, false, fmt.Errorf("swipes.Upsert: %w", err)
	}

	var rec model.SwipeRecord
	if err := s.coll.FindOne(ctx, bson.M{"userId": userID, "jobId": jobID}).Decode(&rec); err != nil {
		return nil, false, fmt.Errorf("swipes.Upsert readback: %w", err)
	}
	return &rec, res.UpsertedCount > 0, nil
}

// SwipedJobIDs returns every job id the user has swiped, regardless of
// action. These are permanently excluded from discovery.
func (s *Swipes) SwipedJobIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	raw, err := s.coll.Distinct(ctx, "jobId", bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("swipes.SwipedJobIDs: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// LikedSignals returns the de-duplicated tags and categories snapshotted on
// the user's like/superlike records. Snapshots are read as stored — the
// jobs are not re-fetched.
func (s *Swipes) LikedSignals(ctx context.Context, userID primitive.ObjectID) (tags, categories []string, err error) {
	cur, err := s.coll.Find(ctx, bson.M{
		"userId": userID,
		"action": bson.M{"$in": []model.SwipeAction{model.ActionLike, model.ActionSuperlike}},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("swipes.LikedSignals: %w", err)
	}
	defer cur.Close(ctx)

	seenTag := make(map[string]bool)
	seenCat := make(map[string]bool)
	for cur.Next(ctx) {
		var rec model.SwipeRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, nil, fmt.Errorf("swipes.LikedSignals decode: %w", err)
		}
		for _, t := range rec.JobTags {
			if t != "" && !seenTag[t] {
				seenTag[t] = true
				tags = append(tags, t)
			}
		}
		for _, c := range rec.JobCategories {
			if c != "" && !seenCat[c] {
				seenCat[c] = true
				categories = append(categories, c)
			}
		}
	}
	return tags, categories, cur.Err()
}

// ByUser returns the user's swipe records, newest first, optionally
// restricted to the given actions, with the total match count.
func (s *Swipes) ByUser(ctx context.Context, userID primitive.ObjectID, actions []model.SwipeAction, page, pageSize int) ([]model.SwipeRecord, int64, error) {
	filter := bson.M{"userId": userID}
	if len(actions) > 0 {
		filter["action"] = bson.M{"$in": actions}
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("swipes.ByUser count: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "swipedAt", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("swipes.ByUser find: %w", err)
	}
	defer cur.Close(ctx)

	recs := make([]model.SwipeRecord, 0, pageSize)
	for cur.Next(ctx) {
		var rec model.SwipeRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, 0, fmt.Errorf("swipes.ByUser decode: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, total, cur.Err()
}

// CountByAction groups the user's swipes by action.
func (s *Swipes) CountByAction(ctx context.Context, userID primitive.ObjectID) (map[model.SwipeAction]int64, error) {
	cur, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userID}}},
		{{Key: "$group", Value: bson.M{"_id": "$action", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("swipes.CountByAction: %w", err)
	}
	defer cur.Close(ctx)

	counts := make(map[model.SwipeAction]int64)
	for cur.Next(ctx) {
		var row struct {
			Action model.SwipeAction `bson:"_id"`
			Count  int64             `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("swipes.CountByAction decode: %w", err)
		}
		counts[row.Action] = row.Count
	}
	return counts, cur.Err()
}
