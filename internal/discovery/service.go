// Package discovery contains the swipe-based recommendation engine: the
// ranker that selects the next job card for a user, and the swipe
// recording/history operations. It is transport-agnostic; HTTP binding
// lives in handler.go.
package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"internsync/discovery-service/internal/jobfilter"
	"internsync/discovery-service/internal/model"
)

// JobSource is the job-collection read surface the ranker needs.
type JobSource interface {
	First(ctx context.Context, p jobfilter.DiscoveryParams, personalized bool) (*model.Job, error)
	ByID(ctx context.Context, id primitive.ObjectID) (*model.Job, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Job, error)
}

// SwipeStore persists and reads swipe records.
type SwipeStore interface {
	Upsert(ctx context.Context, userID, jobID primitive.ObjectID, action model.SwipeAction, job *model.Job) (*model.SwipeRecord, bool, error)
	SwipedJobIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error)
	LikedSignals(ctx context.Context, userID primitive.ObjectID) (tags, categories []string, err error)
	ByUser(ctx context.Context, userID primitive.ObjectID, actions []model.SwipeAction, page, pageSize int) ([]model.SwipeRecord, int64, error)
	CountByAction(ctx context.Context, userID primitive.ObjectID) (map[model.SwipeAction]int64, error)
}

// ProfileSource resolves callers and their interests. Owned by the
// identity/profile subsystem; read-only here.
type ProfileSource interface {
	ByFirebaseUID(ctx context.Context, uid string) (*model.User, error)
	InterestNames(ctx context.Context, refs []model.InterestRef) ([]string, error)
}

// ExclusionCache is the optional fast path for the swiped-job exclusion
// set. A miss is always safe; the store remains the source of truth.
type ExclusionCache interface {
	SwipedJobIDs(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, bool)
	Store(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID)
	Add(ctx context.Context, userID, jobID primitive.ObjectID)
}

// Service encapsulates the discovery business logic.
type Service struct {
	jobs     JobSource
	swipes   SwipeStore
	profiles ProfileSource
	cache    ExclusionCache
}

// NewService returns a configured Service.
func NewService(jobs JobSource, swipes SwipeStore, profiles ProfileSource, cache ExclusionCache) *Service {
	return &Service{jobs: jobs, swipes: swipes, profiles: profiles, cache: cache}
}

// ResolveUser maps the identity-provider UID forwarded by the gateway to
// the internal user document.
func (s *Service) ResolveUser(ctx context.Context, firebaseUID string) (*model.User, error) {
	if firebaseUID == "" {
		return nil, ErrUnauthenticated
	}
	user, err := s.profiles.ByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}

// CandidateResult is the outcome of one discovery call. Job is nil with an
// explanatory message once the user has exhausted eligible inventory —
// that is a normal response, not an error.
type CandidateResult struct {
	Job          *model.Job `json:"job"`
	Personalized bool       `json:"personalized"`
	Message      string     `json:"message,omitempty"`
}

// NoMoreJobsMessage accompanies an exhausted result.
const NoMoreJobsMessage = "No more jobs available"

// NextCandidate selects the single best unswiped job for the user.
//
// The chain runs: load affinity signals (best-effort) → build the base
// candidate predicate → personalized attempt (only with signals) →
// fallback attempt → exhausted. Two concurrent calls may return the same
// job; a job is only ever withheld once a swipe on it has been recorded.
func (s *Service) NextCandidate(ctx context.Context, user *model.User, bucket string) (*CandidateResult, error) {
	sig := s.loadSignals(ctx, user)

	params, err := s.buildCandidateSet(ctx, user.ID, sig, bucket)
	if err != nil {
		return nil, err
	}

	if job, err := s.personalizedAttempt(ctx, params); err != nil {
		return nil, err
	} else if job != nil {
		return &CandidateResult{Job: job, Personalized: true}, nil
	}

	if job, err := s.fallbackAttempt(ctx, params); err != nil {
		return nil, err
	} else if job != nil {
		return &CandidateResult{Job: job, Personalized: false}, nil
	}

	return &CandidateResult{Message: NoMoreJobsMessage}, nil
}

// signals holds the personalization inputs for one discovery call.
// Everything here is an enhancement: a partial or empty set of signals
// still yields a valid (unpersonalized) result.
type signals struct {
	workMode        string
	locations       []string
	interestNames   []string
	likedTags       []string
	likedCategories []string
}

// loadSignals gathers the user's affinity signals. Lookup failures degrade
// to fewer signals rather than failing the request.
func (s *Service) loadSignals(ctx context.Context, user *model.User) signals {
	sig := signals{
		workMode:  user.Preferences.WorkMode,
		locations: user.Preferences.Locations,
	}

	names, err := s.profiles.InterestNames(ctx, user.Preferences.Interests)
	if err != nil {
		slog.Warn("interest resolution failed, continuing without interests",
			"userId", user.ID.Hex(), "err", err)
	} else {
		sig.interestNames = names
	}

	tags, categories, err := s.swipes.LikedSignals(ctx, user.ID)
	if err != nil {
		slog.Warn("liked-signal lookup failed, continuing without swipe affinity",
			"userId", user.ID.Hex(), "err", err)
	} else {
		sig.likedTags = tags
		sig.likedCategories = categories
	}

	return sig
}

// buildCandidateSet assembles the discovery predicate parameters. The
// exclusion set is correctness-critical — if it cannot be loaded the call
// fails rather than risk re-offering a swiped job. Stored workMode and
// locations are always applied here, unlike the listing endpoint where
// they are opt-in.
func (s *Service) buildCandidateSet(ctx context.Context, userID primitive.ObjectID, sig signals, bucket string) (jobfilter.DiscoveryParams, error) {
	excluded, ok := s.cache.SwipedJobIDs(ctx, userID)
	if !ok {
		var err error
		excluded, err = s.swipes.SwipedJobIDs(ctx, userID)
		if err != nil {
			return jobfilter.DiscoveryParams{}, fmt.Errorf("load exclusion set: %w", err)
		}
		s.cache.Store(ctx, userID, excluded)
	}

	return jobfilter.DiscoveryParams{
		ExcludeIDs:      excluded,
		Bucket:          bucket,
		WorkMode:        sig.workMode,
		Locations:       sig.locations,
		LikedTags:       sig.likedTags,
		LikedCategories: sig.likedCategories,
		InterestNames:   sig.interestNames,
	}, nil
}

// personalizedAttempt looks for a candidate matching the affinity
// disjunction. Returns nil with no error when the attempt should continue
// to the fallback — either because no signal exists or nothing matched.
func (s *Service) personalizedAttempt(ctx context.Context, params jobfilter.DiscoveryParams) (*model.Job, error) {
	if !params.HasAffinity() {
		return nil, nil
	}
	return s.jobs.First(ctx, params, true)
}

// fallbackAttempt runs the base predicate alone.
func (s *Service) fallbackAttempt(ctx context.Context, params jobfilter.DiscoveryParams) (*model.Job, error) {
	return s.jobs.First(ctx, params, false)
}
