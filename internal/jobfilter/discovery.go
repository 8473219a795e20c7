package jobfilter

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"internsync/discovery-service/internal/model"
)

// DiscoveryParams is the fully typed predicate description the swipe
// ranker builds. Unlike the listing endpoint, stored workMode/locations
// are not opt-in here — they are always applied when present.
type DiscoveryParams struct {
	ExcludeIDs []primitive.ObjectID
	Bucket     string // explicit type filter; empty means all buckets
	WorkMode   string
	Locations  []string

	// Affinity signals, only consulted by the personalized attempt.
	LikedTags       []string
	LikedCategories []string
	InterestNames   []string
}

// HasAffinity reports whether any personalization signal exists. With no
// signal the personalized attempt is skipped entirely.
func (p DiscoveryParams) HasAffinity() bool {
	return len(p.LikedTags) > 0 || len(p.LikedCategories) > 0 || len(p.InterestNames) > 0
}

// CompileBase builds the unpersonalized eligibility predicate: OPEN,
// displayed in app, CSV-origin, not previously swiped, hard preference
// filters, and the type bucket (or the union of all buckets).
func CompileBase(p DiscoveryParams) bson.M {
	var frags []bson.M
	add := func(f bson.M, ok bool) {
		if ok {
			frags = append(frags, f)
		}
	}

	frags = append(frags,
		bson.M{"status": model.JobStatusOpen},
		bson.M{"visibility.displayInApp": true},
		csvOrigin(),
	)
	add(ExcludeIDs(p.ExcludeIDs))
	add(WorkMode(p.WorkMode))
	add(LocationsAny(p.Locations))
	if f, ok := TypeBucket(p.Bucket); ok {
		frags = append(frags, f)
	} else {
		frags = append(frags, AnyBucket())
	}

	return And(frags...)
}

// CompilePersonalized layers the affinity disjunction on top of the base
// predicate: tags intersect liked tags, or categories intersect liked
// categories, or categories intersect interest names.
func CompilePersonalized(p DiscoveryParams) bson.M {
	var ors []bson.M
	if len(p.LikedTags) > 0 {
		ors = append(ors, bson.M{"tags": bson.M{"$in": p.LikedTags}})
	}
	if len(p.LikedCategories) > 0 {
		ors = append(ors, bson.M{"categories": bson.M{"$in": p.LikedCategories}})
	}
	if len(p.InterestNames) > 0 {
		ors = append(ors, bson.M{"categories": bson.M{"$in": p.InterestNames}})
	}
	if len(ors) == 0 {
		return CompileBase(p)
	}
	return And(CompileBase(p), bson.M{"$or": ors})
}

// csvOrigin restricts discovery to bulk-imported inventory, matching both
// the current sourceType field and the legacy import marker.
func csvOrigin() bson.M {
	return bson.M{"$or": []bson.M{
		{"sourceType": model.SourceTypeCSV},
		{"source": model.LegacyCSVSource},
	}}
}
