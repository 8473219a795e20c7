package jobfilter

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// And conjoins the given fragments. Zero fragments compile to the empty
// (match-all) filter; a single fragment is returned as-is. Fragments that
// are themselves conjunctions are spliced in so the result stays flat.
func And(frags ...bson.M) bson.M {
	present := make([]bson.M, 0, len(frags))
	for _, f := range frags {
		if len(f) == 0 {
			continue
		}
		if nested, ok := f["$and"].([]bson.M); ok && len(f) == 1 {
			present = append(present, nested...)
			continue
		}
		present = append(present, f)
	}
	switch len(present) {
	case 0:
		return bson.M{}
	case 1:
		return present[0]
	}
	return bson.M{"$and": present}
}

// FreeText compiles a free-text search term to a disjunction of
// case-insensitive substring matches over title, company name, description
// details, location and the normalised labels field.
func FreeText(q string) (bson.M, bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, false
	}
	sub := bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
	return bson.M{"$or": []bson.M{
		{"title": sub},
		{"company.name": sub},
		{"description.details": sub},
		{"location": sub},
		{"labels": bson.M{"$regex": LabelPattern(q), "$options": "i"}},
	}}, true
}

// LabelPattern rewrites a search term into a regex that tolerates any run
// of spaces or hyphens between characters. Label text in the imported data
// is inconsistently hyphenated, so "co op", "co-op" and "coop" must all
// match a label stored as "Co-Op".
func LabelPattern(q string) string {
	var chars []string
	for _, r := range strings.ToLower(q) {
		if r == ' ' || r == '-' {
			continue
		}
		chars = append(chars, regexp.QuoteMeta(string(r)))
	}
	return strings.Join(chars, `[\s-]*`)
}

// TypeBucket compiles a high-level opportunity-type bucket to a disjunction
// over jobType and categories. Unrecognised buckets compile to no
// restriction.
func TypeBucket(bucket string) (bson.M, bool) {
	return termsFragment(BucketTerms(bucket))
}

// AnyBucket restricts to jobs matching any bucket's synonyms. Applied by
// discovery when the caller gives no explicit type filter.
func AnyBucket() bson.M {
	f, _ := termsFragment(AllBucketTerms())
	return f
}

func termsFragment(terms []string) (bson.M, bool) {
	if len(terms) == 0 {
		return nil, false
	}
	return bson.M{"$or": []bson.M{
		{"jobType": bson.M{"$in": terms}},
		{"categories": bson.M{"$in": terms}},
	}}, true
}

// MembershipIn compiles a comma-separated value list to a membership test
// on the given field. Values empty after trim-and-split are dropped; an
// empty result is treated as absent.
func MembershipIn(field, csv string) (bson.M, bool) {
	values := SplitCSV(csv)
	if len(values) == 0 {
		return nil, false
	}
	return bson.M{field: bson.M{"$in": values}}, true
}

// SplitCSV splits a comma-separated string, trimming whitespace and
// dropping empty entries.
func SplitCSV(csv string) []string {
	var out []string
	for _, v := range strings.Split(csv, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Equals compiles a direct equality clause when the value is non-empty.
func Equals(field, value string) (bson.M, bool) {
	if strings.TrimSpace(value) == "" {
		return nil, false
	}
	return bson.M{field: value}, true
}

// BoolFlag compiles a boolean-as-string input to an equality clause.
// Anything but the literal "true"/"false" is silently ignored.
func BoolFlag(field, raw string) (bson.M, bool) {
	switch strings.TrimSpace(raw) {
	case "true":
		return bson.M{field: true}, true
	case "false":
		return bson.M{field: false}, true
	}
	return nil, false
}

// NumericRange compiles independent lower/upper bounds on a numeric field.
func NumericRange(field string, min, max *float64) (bson.M, bool) {
	bounds := bson.M{}
	if min != nil {
		bounds["$gte"] = *min
	}
	if max != nil {
		bounds["$lte"] = *max
	}
	if len(bounds) == 0 {
		return nil, false
	}
	return bson.M{field: bounds}, true
}

// DateRange compiles independent before/after bounds on a date field.
func DateRange(field string, after, before *time.Time) (bson.M, bool) {
	bounds := bson.M{}
	if after != nil {
		bounds["$gte"] = *after
	}
	if before != nil {
		bounds["$lte"] = *before
	}
	if len(bounds) == 0 {
		return nil, false
	}
	return bson.M{field: bounds}, true
}

// CreatedBetween compiles a creation-date range. Both bounds are required:
// a single bound is not a valid invocation path and compiles to no
// restriction.
func CreatedBetween(start, end *time.Time) (bson.M, bool) {
	if start == nil || end == nil {
		return nil, false
	}
	return bson.M{"createdAt": bson.M{"$gte": *start, "$lte": *end}}, true
}

var remoteLocationPattern = "remote|virtual|anywhere"

// WorkMode compiles a stored work-mode preference. remote matches jobs
// flagged remote or located somewhere that reads as remote; onsite and
// hybrid compile to the negation.
func WorkMode(mode string) (bson.M, bool) {
	locRegex := bson.M{"$regex": remoteLocationPattern, "$options": "i"}
	switch mode {
	case "remote":
		return bson.M{"$or": []bson.M{
			{"isRemote": true},
			{"location": locRegex},
		}}, true
	case "onsite", "hybrid":
		return bson.M{"$and": []bson.M{
			{"isRemote": bson.M{"$ne": true}},
			{"location": bson.M{"$not": locRegex}},
		}}, true
	}
	return nil, false
}

// LocationsAny compiles declared location strings to a disjunction of
// substring matches over the job location and company address. Each string
// is escaped before being used as a regex.
func LocationsAny(locations []string) (bson.M, bool) {
	var ors []bson.M
	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		re := bson.M{"$regex": regexp.QuoteMeta(loc), "$options": "i"}
		ors = append(ors, bson.M{"location": re}, bson.M{"company.address": re})
	}
	if len(ors) == 0 {
		return nil, false
	}
	return bson.M{"$or": ors}, true
}

// InterestsAny compiles resolved interest names to a disjunction over
// categories and tags.
func InterestsAny(names []string) (bson.M, bool) {
	if len(names) == 0 {
		return nil, false
	}
	return bson.M{"$or": []bson.M{
		{"categories": bson.M{"$in": names}},
		{"tags": bson.M{"$in": names}},
	}}, true
}

// ExcludeIDs compiles the swiped-job exclusion set.
func ExcludeIDs(ids []primitive.ObjectID) (bson.M, bool) {
	if len(ids) == 0 {
		return nil, false
	}
	return bson.M{"_id": bson.M{"$nin": ids}}, true
}
