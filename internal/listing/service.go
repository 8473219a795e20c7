// Package listing implements the job listing and fetch endpoints. The
// listing endpoint is the public consumer of the jobfilter compiler:
// every filter input is optional, and stored user preferences are applied
// only when the caller opts in — unlike discovery, where they are always
// applied.
package listing

import (
	"context"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"internsync/discovery-service/internal/jobfilter"
	"internsync/discovery-service/internal/model"
	"internsync/discovery-service/internal/store"
)

// Service encapsulates listing business logic.
type Service struct {
	jobs     *store.Jobs
	profiles *store.Users
}

// NewService returns a configured Service.
func NewService(jobs *store.Jobs, profiles *store.Users) *Service {
	return &Service{jobs: jobs, profiles: profiles}
}

// Page is one page of listing results.
type Page struct {
	Items      []model.Job      `json:"items"`
	Pagination model.Pagination `json:"pagination"`
}

// List compiles the given params and returns the matching page. When
// firebaseUID is non-empty the caller opted into stored preferences; their
// resolution is best-effort and silently skipped on failure.
func (s *Service) List(ctx context.Context, params jobfilter.ListParams, sortBy string, firebaseUID string, page, pageSize int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	if firebaseUID != "" {
		params.Preferences = s.loadPreferences(ctx, firebaseUID)
	}

	filter := jobfilter.Compile(params)
	sort := jobfilter.CompileSort(sortBy)

	jobs, total, err := s.jobs.List(ctx, filter, sort, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &Page{
		Items:      jobs,
		Pagination: model.Pagination{Page: page, PageSize: pageSize, Total: total},
	}, nil
}

// loadPreferences resolves the opted-in caller's stored preferences.
// Preference application is an enhancement: any failure degrades to an
// unfiltered listing rather than failing the request.
func (s *Service) loadPreferences(ctx context.Context, firebaseUID string) *jobfilter.StoredPreferences {
	user, err := s.profiles.ByFirebaseUID(ctx, firebaseUID)
	if err != nil || user == nil {
		if err != nil {
			slog.Warn("preference lookup failed, listing without preferences", "err", err)
		}
		return nil
	}

	names, err := s.profiles.InterestNames(ctx, user.Preferences.Interests)
	if err != nil {
		slog.Warn("interest resolution failed, listing without interests",
			"userId", user.ID.Hex(), "err", err)
		names = nil
	}

	return &jobfilter.StoredPreferences{
		WorkMode:      user.Preferences.WorkMode,
		Locations:     user.Preferences.Locations,
		InterestNames: names,
	}
}

// ByID fetches one job. Returns (nil, nil) when it does not exist.
func (s *Service) ByID(ctx context.Context, id primitive.ObjectID) (*model.Job, error) {
	return s.jobs.ByID(ctx, id)
}
