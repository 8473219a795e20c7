package jobfilter

import "go.mongodb.org/mongo-driver/bson"

// Sort keys accepted by the listing endpoint.
const (
	SortAppsReceivedAsc  = "appsReceived_asc"
	SortAppsReceivedDesc = "appsReceived_desc"
	SortRelevanceDesc    = "relevance_desc"
	SortDeadlineAsc      = "deadline_asc"
	SortDeadlineDesc     = "deadline_desc"
)

// CompileSort maps a sortBy value to a Mongo sort document. Unknown or
// absent values default to newest first.
func CompileSort(sortBy string) bson.D {
	switch sortBy {
	case SortAppsReceivedAsc:
		return bson.D{{Key: "applicationsCount", Value: 1}}
	case SortAppsReceivedDesc:
		return bson.D{{Key: "applicationsCount", Value: -1}}
	case SortRelevanceDesc:
		return RankingSort()
	case SortDeadlineAsc:
		return bson.D{{Key: "applicationDeadline", Value: 1}}
	case SortDeadlineDesc:
		return bson.D{{Key: "applicationDeadline", Value: -1}}
	}
	return bson.D{{Key: "createdAt", Value: -1}}
}

// RankingSort is the deterministic candidate ordering used everywhere a
// single best job is selected: relevancyScore descending, then createdAt
// descending as the tie-break.
func RankingSort() bson.D {
	return bson.D{
		{Key: "relevancyScore", Value: -1},
		{Key: "createdAt", Value: -1},
	}
}
