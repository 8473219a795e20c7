package discovery

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"internsync/discovery-service/internal/model"
)

// SwipeResult acknowledges one recorded swipe.
type SwipeResult struct {
	JobID    string            `json:"jobId"`
	Action   model.SwipeAction `json:"action"`
	Accepted bool              `json:"accepted"`
}

// RecordSwipe stores the user's decision on a job. A repeat swipe on the
// same job overwrites the earlier action and timestamp in place — it is
// neither an error nor a duplicate. Anything beyond persistence (push
// notifications, application suggestions) is deliberately not triggered
// here.
func (s *Service) RecordSwipe(ctx context.Context, userID primitive.ObjectID, jobIDHex, actionRaw string) (*SwipeResult, error) {
	if jobIDHex == "" {
		return nil, &ValidationError{Msg: "jobId is required"}
	}
	jobID, err := primitive.ObjectIDFromHex(jobIDHex)
	if err != nil {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid jobId %q", jobIDHex)}
	}

	action, err := model.ParseSwipeAction(actionRaw)
	if err != nil {
		return nil, &ValidationError{Msg: err.Error()}
	}

	job, err := s.jobs.ByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrNotFound
	}

	if _, _, err := s.swipes.Upsert(ctx, userID, jobID, action, job); err != nil {
		return nil, err
	}

	// Keep the cached exclusion set current so discovery never re-offers
	// this job even before the cache expires.
	s.cache.Add(ctx, userID, jobID)

	return &SwipeResult{JobID: jobID.Hex(), Action: action, Accepted: true}, nil
}

// HistoryEntry is one swipe with its job populated. Job is nil when the
// job has since been deleted; the denormalised snapshot fields on the
// record itself remain authoritative for affinity.
type HistoryEntry struct {
	SwipeID  string            `json:"swipeId"`
	Action   model.SwipeAction `json:"action"`
	SwipedAt time.Time         `json:"swipedAt"`
	Job      *model.Job        `json:"job"`
}

// History returns the user's swipes, newest first, optionally filtered to
// a single action.
func (s *Service) History(ctx context.Context, userID primitive.ObjectID, actionFilter string, page, pageSize int) ([]HistoryEntry, model.Pagination, error) {
	var actions []model.SwipeAction
	if actionFilter != "" {
		action, err := model.ParseSwipeAction(actionFilter)
		if err != nil {
			return nil, model.Pagination{}, &ValidationError{Msg: err.Error()}
		}
		actions = []model.SwipeAction{action}
	}
	return s.pagedHistory(ctx, userID, actions, page, pageSize)
}

// LikedJobs returns the user's like and superlike swipes, newest first.
func (s *Service) LikedJobs(ctx context.Context, userID primitive.ObjectID, page, pageSize int) ([]HistoryEntry, model.Pagination, error) {
	return s.pagedHistory(ctx, userID,
		[]model.SwipeAction{model.ActionLike, model.ActionSuperlike}, page, pageSize)
}

func (s *Service) pagedHistory(ctx context.Context, userID primitive.ObjectID, actions []model.SwipeAction, page, pageSize int) ([]HistoryEntry, model.Pagination, error) {
	page, pageSize = normalizePage(page, pageSize)

	recs, total, err := s.swipes.ByUser(ctx, userID, actions, page, pageSize)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	ids := make([]primitive.ObjectID, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.JobID)
	}
	jobs, err := s.jobs.ByIDs(ctx, ids)
	if err != nil {
		return nil, model.Pagination{}, err
	}

	entries := make([]HistoryEntry, 0, len(recs))
	for _, r := range recs {
		entry := HistoryEntry{
			SwipeID:  r.ID.Hex(),
			Action:   r.Action,
			SwipedAt: r.SwipedAt,
		}
		if job, ok := jobs[r.JobID]; ok {
			j := job
			entry.Job = &j
		}
		entries = append(entries, entry)
	}

	return entries, model.Pagination{Page: page, PageSize: pageSize, Total: total}, nil
}

// Stats summarises a user's swipe history by action. Repeat swipes count
// once, under their latest action.
type Stats struct {
	TotalSwipes int64 `json:"totalSwipes"`
	Likes       int64 `json:"likes"`
	Dislikes    int64 `json:"dislikes"`
	Superlikes  int64 `json:"superlikes"`
	Skips       int64 `json:"skips"`
}

// SwipeStats returns the per-action counts for the user.
func (s *Service) SwipeStats(ctx context.Context, userID primitive.ObjectID) (*Stats, error) {
	counts, err := s.swipes.CountByAction(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Likes:      counts[model.ActionLike],
		Dislikes:   counts[model.ActionDislike],
		Superlikes: counts[model.ActionSuperlike],
		Skips:      counts[model.ActionSkip],
	}
	stats.TotalSwipes = stats.Likes + stats.Dislikes + stats.Superlikes + stats.Skips
	return stats, nil
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
