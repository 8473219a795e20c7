// Package jobfilter compiles optional, user-supplied filter inputs into
// MongoDB predicate trees.
//
// Every optional input compiles to an independent fragment; a final And
// reduce conjoins whichever fragments are present. Absent, empty or
// malformed optional input degrades to "no constraint", never to an
// always-false clause or a request failure.
package jobfilter

// Opportunity-type buckets. Each high-level bucket expands to a fixed
// synonym list matched against both jobType and categories, because bulk
// imports are inconsistent about which field carries the type.
//
// "extracurricular" is a strict superset of "activity": the app shows
// activity as a narrower tab nested inside the extracurricular bucket, so
// the wider bucket additionally matches volunteering terms.
const (
	BucketInternship      = "internship"
	BucketScholarship     = "scholarship"
	BucketActivity        = "activity"
	BucketExtracurricular = "extracurricular"
)

var activityTerms = []string{"activity", "activities", "extracurricular", "extracurriculars"}

var bucketSynonyms = map[string][]string{
	BucketInternship:      {"internship", "internships", "intern"},
	BucketScholarship:     {"scholarship", "scholarships", "fellowship", "grant"},
	BucketActivity:        activityTerms,
	BucketExtracurricular: append(append([]string{}, activityTerms...), "volunteer", "volunteering"),
}

// BucketTerms returns the synonym list for a bucket name, or nil for an
// unrecognised bucket (which compiles to no restriction).
func BucketTerms(bucket string) []string {
	terms := bucketSynonyms[bucket]
	if terms == nil {
		return nil
	}
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}

// AllBucketTerms returns the de-duplicated union of every bucket's synonym
// list. Discovery applies this when the caller gives no type filter.
func AllBucketTerms() []string {
	seen := make(map[string]bool)
	var out []string
	for _, bucket := range []string{BucketInternship, BucketScholarship, BucketActivity, BucketExtracurricular} {
		for _, t := range bucketSynonyms[bucket] {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}
