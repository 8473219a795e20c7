// Package model defines the shared document structures for the discovery
// service. Jobs, users and interests are read-only here — their write paths
// are owned by the admin/import and identity subsystems.
package model

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Job statuses mirror the `status` field on job documents.
const (
	JobStatusOpen   = "OPEN"
	JobStatusClosed = "CLOSED"
	JobStatusDraft  = "DRAFT"
)

// Source types distinguish bulk-imported rows from natively created ones.
const (
	SourceTypeCSV = "csv"
	SourceTypeWeb = "web"
)

// LegacyCSVSource is the import marker used by older bulk-import runs that
// predate the sourceType field. Discovery must match either form.
const LegacyCSVSource = "CSV Import"

// Company is the nested employer descriptor on a job document.
type Company struct {
	Name     string `bson:"name" json:"name"`
	Industry string `bson:"industry,omitempty" json:"industry,omitempty"`
	Location string `bson:"location,omitempty" json:"location,omitempty"`
	Address  string `bson:"address,omitempty" json:"address,omitempty"`
}

// Stipend is the compensation descriptor nested under description.
type Stipend struct {
	Currency string  `bson:"currency,omitempty" json:"currency,omitempty"`
	Amount   float64 `bson:"amount" json:"amount"`
}

// Description holds the long-form fields of a job document.
type Description struct {
	Details      string  `bson:"details,omitempty" json:"details,omitempty"`
	Requirements string  `bson:"requirements,omitempty" json:"requirements,omitempty"`
	Stipend      Stipend `bson:"stipend,omitempty" json:"stipend,omitempty"`
}

// Visibility controls where a job surfaces. Only displayInApp jobs are
// eligible for discovery; featured is a listing concern.
type Visibility struct {
	DisplayInApp bool `bson:"displayInApp" json:"displayInApp"`
	Featured     bool `bson:"featured" json:"featured"`
}

// Job is a postable opportunity (internship, scholarship, activity, …).
type Job struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title               string             `bson:"title" json:"title"`
	Company             Company            `bson:"company" json:"company"`
	Location            string             `bson:"location,omitempty" json:"location,omitempty"`
	Description         Description        `bson:"description,omitempty" json:"description,omitempty"`
	StartDate           *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate             *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	ApplicationDeadline *time.Time         `bson:"applicationDeadline,omitempty" json:"applicationDeadline,omitempty"`
	Status              string             `bson:"status" json:"status"`
	JobType             string             `bson:"jobType,omitempty" json:"jobType,omitempty"`
	Categories          []string           `bson:"categories,omitempty" json:"categories,omitempty"`
	Tags                []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Labels              []string           `bson:"labels,omitempty" json:"labels,omitempty"`
	IsRemote            bool               `bson:"isRemote" json:"isRemote"`
	RelevancyScore      float64            `bson:"relevancyScore" json:"relevancyScore"`
	ApplicationsCount   int                `bson:"applicationsCount" json:"applicationsCount"`
	Visibility          Visibility         `bson:"visibility" json:"visibility"`
	SourceType          string             `bson:"sourceType,omitempty" json:"sourceType,omitempty"`
	Source              string             `bson:"source,omitempty" json:"source,omitempty"`
	CreatedAt           time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SwipeAction is one of the four decisions a user can take on a job card.
type SwipeAction string

const (
	ActionLike      SwipeAction = "like"
	ActionDislike   SwipeAction = "dislike"
	ActionSuperlike SwipeAction = "superlike"
	ActionSkip      SwipeAction = "skip"
)

// ParseSwipeAction converts a raw string to a SwipeAction, returning an
// error for unknown values.
func ParseSwipeAction(s string) (SwipeAction, error) {
	a := SwipeAction(s)
	switch a {
	case ActionLike, ActionDislike, ActionSuperlike, ActionSkip:
		return a, nil
	}
	return "", fmt.Errorf("unknown swipe action %q", s)
}

// IsPositive reports whether the action counts as an affinity signal.
func (a SwipeAction) IsPositive() bool {
	return a == ActionLike || a == ActionSuperlike
}

// SwipeRecord is one decision by one user on one job. The job title, tags
// and categories are denormalised at swipe time so historical affinity
// survives subsequent job edits. At most one record exists per
// (userId, jobId) pair — a repeat swipe overwrites action and timestamp.
type SwipeRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	JobID         primitive.ObjectID `bson:"jobId" json:"jobId"`
	Action        SwipeAction        `bson:"action" json:"action"`
	SwipedAt      time.Time          `bson:"swipedAt" json:"swipedAt"`
	JobTitle      string             `bson:"jobTitle,omitempty" json:"jobTitle,omitempty"`
	JobTags       []string           `bson:"jobTags,omitempty" json:"jobTags,omitempty"`
	JobCategories []string           `bson:"jobCategories,omitempty" json:"jobCategories,omitempty"`
}

// WorkMode values stored on user preferences.
const (
	WorkModeRemote = "remote"
	WorkModeOnsite = "onsite"
	WorkModeHybrid = "hybrid"
)

// UserPreferences is the subset of the user document the discovery core
// reads. Interests arrive in two storage forms (see InterestRef).
type UserPreferences struct {
	WorkMode  string        `bson:"workMode,omitempty" json:"workMode,omitempty"`
	Locations []string      `bson:"locations,omitempty" json:"locations,omitempty"`
	Interests []InterestRef `bson:"interests,omitempty" json:"interests,omitempty"`
}

// User is the read-only view of a user document. FirebaseUID is the external
// identity-provider handle forwarded by the gateway.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirebaseUID string             `bson:"firebaseUid" json:"firebaseUid"`
	Preferences UserPreferences    `bson:"preferences,omitempty" json:"preferences,omitempty"`
}

// Interest is a curated interest entity referenced from user preferences.
type Interest struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
}

// Pagination is the envelope metadata returned by list endpoints.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}
