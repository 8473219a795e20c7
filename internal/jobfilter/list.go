package jobfilter

import (
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ListParams carries the raw, optional query inputs of the job listing
// endpoint. Fields hold the values as received off the query string;
// Compile applies the permissive parsing policy.
type ListParams struct {
	Query           string
	Type            string // high-level bucket; alias of OpportunityType
	OpportunityType string
	Categories      string // comma-separated
	Tags            string // comma-separated
	SourceType      string
	IsRemote        string // boolean-as-string
	JobType         string // raw string, exact match
	Featured        string // boolean-as-string
	StipendMin      string
	StipendMax      string
	DeadlineBefore  string
	DeadlineAfter   string
	StartDate       string // creation-date range; only applied with EndDate
	EndDate         string
	Status          string
	SortBy          string

	// Stored user preferences, applied only when the caller opts in.
	Preferences *StoredPreferences
}

// StoredPreferences is the resolved slice of a user's stored preferences
// the listing endpoint can opt into.
type StoredPreferences struct {
	WorkMode      string
	Locations     []string
	InterestNames []string
}

// Bucket returns the effective opportunity-type bucket, honouring the
// type/opportunityType alias pair (type wins when both are present).
func (p ListParams) Bucket() string {
	if p.Type != "" {
		return p.Type
	}
	return p.OpportunityType
}

// Compile reduces all present, valid inputs to a single conjunction.
func Compile(p ListParams) bson.M {
	var frags []bson.M
	add := func(f bson.M, ok bool) {
		if ok {
			frags = append(frags, f)
		}
	}

	add(FreeText(p.Query))
	add(TypeBucket(p.Bucket()))
	add(MembershipIn("categories", p.Categories))
	add(MembershipIn("tags", p.Tags))
	add(Equals("sourceType", p.SourceType))
	add(BoolFlag("isRemote", p.IsRemote))
	add(Equals("jobType", p.JobType))
	add(BoolFlag("visibility.featured", p.Featured))
	add(NumericRange("description.stipend.amount", parseFloat(p.StipendMin), parseFloat(p.StipendMax)))
	add(DateRange("applicationDeadline", parseDate(p.DeadlineAfter), parseDate(p.DeadlineBefore)))
	add(CreatedBetween(parseDate(p.StartDate), parseDate(p.EndDate)))
	add(Equals("status", p.Status))

	if p.Preferences != nil {
		add(WorkMode(p.Preferences.WorkMode))
		add(LocationsAny(p.Preferences.Locations))
		add(InterestsAny(p.Preferences.InterestNames))
	}

	return And(frags...)
}

// parseFloat returns nil for absent or malformed numeric input.
func parseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseDate returns nil for absent or malformed date input.
func parseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}
