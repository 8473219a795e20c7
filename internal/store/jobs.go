// Package store implements the MongoDB-backed persistence layer for the
// discovery service. Queries receive their predicates from the jobfilter
// compiler; this package owns collection names, sort application and
// cursor handling.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"internsync/discovery-service/internal/jobfilter"
	"internsync/discovery-service/internal/model"
)

// Jobs provides read access to the jobs collection. The write path is
// owned by the admin/import subsystem; the only mutation here is the
// deadline sweep.
type Jobs struct {
	coll *mongo.Collection
}

// NewJobs returns a Jobs store bound to the jobs collection.
func NewJobs(db *mongo.Database) *Jobs {
	return &Jobs{coll: db.Collection("jobs")}
}

// ByID fetches a single job. Returns (nil, nil) when no such job exists.
func (s *Jobs) ByID(ctx context.Context, id primitive.ObjectID) (*model.Job, error) {
	var job model.Job
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobs.ByID: %w", err)
	}
	return &job, nil
}

// ByIDs fetches the given jobs keyed by id. Missing ids are simply absent
// from the result.
func (s *Jobs) ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Job, error) {
	out := make(map[primitive.ObjectID]model.Job, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("jobs.ByIDs: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var job model.Job
		if err := cur.Decode(&job); err != nil {
			return nil, fmt.Errorf("jobs.ByIDs decode: %w", err)
		}
		out[job.ID] = job
	}
	return out, cur.Err()
}

// First returns the single best candidate for the given discovery
// predicate, ordered by the ranking sort. personalized selects whether the
// affinity disjunction is layered on. Returns (nil, nil) when nothing
// matches — an empty result is not an error.
func (s *Jobs) First(ctx context.Context, p jobfilter.DiscoveryParams, personalized bool) (*model.Job, error) {
	filter := jobfilter.CompileBase(p)
	if personalized {
		filter = jobfilter.CompilePersonalized(p)
	}

	var job model.Job
	err := s.coll.FindOne(ctx, filter, options.FindOne().SetSort(jobfilter.RankingSort())).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("jobs.First: %w", err)
	}
	return &job, nil
}

// List runs a compiled listing filter with pagination and returns the page
// plus the total match count.
func (s *Jobs) List(ctx context.Context, filter bson.M, sort bson.D, page, pageSize int) ([]model.Job, int64, error) {
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("jobs.List count: %w", err)
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("jobs.List find: %w", err)
	}
	defer cur.Close(ctx)

	jobs := make([]model.Job, 0, pageSize)
	for cur.Next(ctx) {
		var job model.Job
		if err := cur.Decode(&job); err != nil {
			return nil, 0, fmt.Errorf("jobs.List decode: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, total, cur.Err()
}

// CloseExpired marks OPEN jobs whose application deadline has passed as
// CLOSED. Returns the number of jobs closed.
func (s *Jobs) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.coll.UpdateMany(ctx,
		bson.M{
			"status":              model.JobStatusOpen,
			"applicationDeadline": bson.M{"$ne": nil, "$lt": now},
		},
		bson.M{"$set": bson.M{"status": model.JobStatusClosed, "updatedAt": now}},
	)
	if err != nil {
		return 0, fmt.Errorf("jobs.CloseExpired: %w", err)
	}
	return res.ModifiedCount, nil
}
