package discovery_test

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"internsync/discovery-service/internal/discovery"
	"internsync/discovery-service/internal/jobfilter"
	"internsync/discovery-service/internal/model"
)

// ── In-memory fakes ────────────────────────────────────────────────────────
//
// fakeJobs evaluates the typed discovery predicate over an in-memory pool
// with the same semantics the Mongo compilation expresses, so ranking
// behaviour is testable end to end without a database.

type fakeJobs struct {
	pool []model.Job
}

var remotePattern = regexp.MustCompile(`(?i)remote|virtual|anywhere`)

func (f *fakeJobs) matches(j model.Job, p jobfilter.DiscoveryParams, personalized bool) bool {
	if j.Status != model.JobStatusOpen || !j.Visibility.DisplayInApp {
		return false
	}
	if j.SourceType != model.SourceTypeCSV && j.Source != model.LegacyCSVSource {
		return false
	}
	for _, id := range p.ExcludeIDs {
		if j.ID == id {
			return false
		}
	}

	terms := jobfilter.BucketTerms(p.Bucket)
	if terms == nil {
		terms = jobfilter.AllBucketTerms()
	}
	if !containsAny(terms, j.JobType) && !intersects(j.Categories, terms) {
		return false
	}

	switch p.WorkMode {
	case model.WorkModeRemote:
		if !j.IsRemote && !remotePattern.MatchString(j.Location) {
			return false
		}
	case model.WorkModeOnsite, model.WorkModeHybrid:
		if j.IsRemote || remotePattern.MatchString(j.Location) {
			return false
		}
	}

	if len(p.Locations) > 0 {
		hit := false
		for _, loc := range p.Locations {
			loc = strings.ToLower(loc)
			if strings.Contains(strings.ToLower(j.Location), loc) ||
				strings.Contains(strings.ToLower(j.Company.Address), loc) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}

	if personalized {
		if !intersects(j.Tags, p.LikedTags) &&
			!intersects(j.Categories, p.LikedCategories) &&
			!intersects(j.Categories, p.InterestNames) {
			return false
		}
	}
	return true
}

func (f *fakeJobs) First(_ context.Context, p jobfilter.DiscoveryParams, personalized bool) (*model.Job, error) {
	var cands []model.Job
	for _, j := range f.pool {
		if f.matches(j, p, personalized) {
			cands = append(cands, j)
		}
	}
	if len(cands) == 0 {
		return nil, nil
	}
	sort.SliceStable(cands, func(i, k int) bool {
		if cands[i].RelevancyScore != cands[k].RelevancyScore {
			return cands[i].RelevancyScore > cands[k].RelevancyScore
		}
		return cands[i].CreatedAt.After(cands[k].CreatedAt)
	})
	best := cands[0]
	return &best, nil
}

func (f *fakeJobs) ByID(_ context.Context, id primitive.ObjectID) (*model.Job, error) {
	for _, j := range f.pool {
		if j.ID == id {
			job := j
			return &job, nil
		}
	}
	return nil, nil
}

func (f *fakeJobs) ByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Job, error) {
	out := make(map[primitive.ObjectID]model.Job)
	for _, id := range ids {
		if j, _ := f.ByID(context.Background(), id); j != nil {
			out[id] = *j
		}
	}
	return out, nil
}

func containsAny(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, x := range a {
		if containsAny(b, x) {
			return true
		}
	}
	return false
}

// fakeSwipes keeps one record per (userId, jobId) pair, like the Mongo
// upsert contract.
type fakeSwipes struct {
	recs    []model.SwipeRecord
	failAll bool // simulate a broken dependency
}

func (f *fakeSwipes) find(userID, jobID primitive.ObjectID) int {
	for i, r := range f.recs {
		if r.UserID == userID && r.JobID == jobID {
			return i
		}
	}
	return -1
}

func (f *fakeSwipes) Upsert(_ context.Context, userID, jobID primitive.ObjectID, action model.SwipeAction, job *model.Job) (*model.SwipeRecord, bool, error) {
	if f.failAll {
		return nil, false, errors.New("swipe store unavailable")
	}
	if i := f.find(userID, jobID); i >= 0 {
		f.recs[i].Action = action
		f.recs[i].SwipedAt = time.Now().UTC()
		rec := f.recs[i]
		return &rec, false, nil
	}
	rec := model.SwipeRecord{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		JobID:         jobID,
		Action:        action,
		SwipedAt:      time.Now().UTC(),
		JobTitle:      job.Title,
		JobTags:       job.Tags,
		JobCategories: job.Categories,
	}
	f.recs = append(f.recs, rec)
	return &rec, true, nil
}

func (f *fakeSwipes) SwipedJobIDs(_ context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	if f.failAll {
		return nil, errors.New("swipe store unavailable")
	}
	var ids []primitive.ObjectID
	for _, r := range f.recs {
		if r.UserID == userID {
			ids = append(ids, r.JobID)
		}
	}
	return ids, nil
}

func (f *fakeSwipes) LikedSignals(_ context.Context, userID primitive.ObjectID) ([]string, []string, error) {
	if f.failAll {
		return nil, nil, errors.New("swipe store unavailable")
	}
	var tags, cats []string
	for _, r := range f.recs {
		if r.UserID != userID || !r.Action.IsPositive() {
			continue
		}
		for _, t := range r.JobTags {
			if !containsAny(tags, t) {
				tags = append(tags, t)
			}
		}
		for _, c := range r.JobCategories {
			if !containsAny(cats, c) {
				cats = append(cats, c)
			}
		}
	}
	return tags, cats, nil
}

func (f *fakeSwipes) ByUser(_ context.Context, userID primitive.ObjectID, actions []model.SwipeAction, page, pageSize int) ([]model.SwipeRecord, int64, error) {
	var all []model.SwipeRecord
	for _, r := range f.recs {
		if r.UserID != userID {
			continue
		}
		if len(actions) > 0 {
			keep := false
			for _, a := range actions {
				if r.Action == a {
					keep = true
				}
			}
			if !keep {
				continue
			}
		}
		all = append(all, r)
	}
	sort.SliceStable(all, func(i, k int) bool { return all[i].SwipedAt.After(all[k].SwipedAt) })

	total := int64(len(all))
	start := (page - 1) * pageSize
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (f *fakeSwipes) CountByAction(_ context.Context, userID primitive.ObjectID) (map[model.SwipeAction]int64, error) {
	counts := make(map[model.SwipeAction]int64)
	for _, r := range f.recs {
		if r.UserID == userID {
			counts[r.Action]++
		}
	}
	return counts, nil
}

// fakeProfiles resolves one fixture user and a fixed interest table.
type fakeProfiles struct {
	user          *model.User
	interestNames map[primitive.ObjectID]string
	failResolve   bool
}

func (f *fakeProfiles) ByFirebaseUID(_ context.Context, uid string) (*model.User, error) {
	if f.user != nil && f.user.FirebaseUID == uid {
		u := *f.user
		return &u, nil
	}
	return nil, nil
}

func (f *fakeProfiles) InterestNames(_ context.Context, refs []model.InterestRef) ([]string, error) {
	if f.failResolve {
		return nil, errors.New("interest lookup unavailable")
	}
	var names []string
	for _, r := range refs {
		name := r.Name
		if r.IsReference() {
			name = f.interestNames[r.ID]
		}
		if name != "" && !containsAny(names, name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// nopCache never hits, so every test reads the store directly.
type nopCache struct{}

func (nopCache) SwipedJobIDs(context.Context, primitive.ObjectID) ([]primitive.ObjectID, bool) {
	return nil, false
}
func (nopCache) Store(context.Context, primitive.ObjectID, []primitive.ObjectID) {}
func (nopCache) Add(context.Context, primitive.ObjectID, primitive.ObjectID)     {}

// ── Fixtures ───────────────────────────────────────────────────────────────

type fixture struct {
	svc    *discovery.Service
	jobs   *fakeJobs
	swipes *fakeSwipes
	user   *model.User
}

func newFixture(t *testing.T, pool []model.Job) *fixture {
	t.Helper()
	user := &model.User{ID: primitive.NewObjectID(), FirebaseUID: "fb-test-user"}
	jobs := &fakeJobs{pool: pool}
	swipes := &fakeSwipes{}
	profiles := &fakeProfiles{user: user}
	return &fixture{
		svc:    discovery.NewService(jobs, swipes, profiles, nopCache{}),
		jobs:   jobs,
		swipes: swipes,
		user:   user,
	}
}

var fixtureEpoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// csvJob builds an eligible CSV-origin internship job. ageDays staggers
// createdAt so ordering is observable.
func csvJob(title string, score float64, ageDays int, mutate ...func(*model.Job)) model.Job {
	j := model.Job{
		ID:             primitive.NewObjectID(),
		Title:          title,
		Status:         model.JobStatusOpen,
		JobType:        "internship",
		Visibility:     model.Visibility{DisplayInApp: true},
		SourceType:     model.SourceTypeCSV,
		RelevancyScore: score,
		CreatedAt:      fixtureEpoch.AddDate(0, 0, -ageDays),
	}
	for _, m := range mutate {
		m(&j)
	}
	return j
}

func (f *fixture) swipe(t *testing.T, jobID primitive.ObjectID, action model.SwipeAction) {
	t.Helper()
	if _, err := f.svc.RecordSwipe(context.Background(), f.user.ID, jobID.Hex(), string(action)); err != nil {
		t.Fatalf("RecordSwipe(%s): %v", action, err)
	}
}

func (f *fixture) next(t *testing.T, bucket string) *discovery.CandidateResult {
	t.Helper()
	res, err := f.svc.NextCandidate(context.Background(), f.user, bucket)
	if err != nil {
		t.Fatalf("NextCandidate: %v", err)
	}
	return res
}

// ── Ranker properties ──────────────────────────────────────────────────────

func TestNextCandidate_NeverReturnsSwipedJob(t *testing.T) {
	pool := []model.Job{
		csvJob("A", 5, 1),
		csvJob("B", 4, 2),
		csvJob("C", 3, 3),
	}
	f := newFixture(t, pool)

	seen := make(map[string]bool)
	for i := 0; i < len(pool); i++ {
		res := f.next(t, "")
		if res.Job == nil {
			t.Fatalf("call %d: pool not yet exhausted, want a job", i)
		}
		if seen[res.Job.ID.Hex()] {
			t.Fatalf("job %s was offered again after being swiped", res.Job.Title)
		}
		seen[res.Job.ID.Hex()] = true
		// Every action, including skip and dislike, excludes permanently.
		f.swipe(t, res.Job.ID, model.ActionSkip)
	}

	if res := f.next(t, ""); res.Job != nil {
		t.Errorf("all jobs swiped, but %s was offered", res.Job.Title)
	}
}

func TestNextCandidate_ExhaustedIsNotAnError(t *testing.T) {
	f := newFixture(t, nil)
	res, err := f.svc.NextCandidate(context.Background(), f.user, "")
	if err != nil {
		t.Fatalf("empty pool must not be an error, got %v", err)
	}
	if res.Job != nil || res.Personalized {
		t.Errorf("want null unpersonalized result, got %+v", res)
	}
	if res.Message != discovery.NoMoreJobsMessage {
		t.Errorf("message = %q, want %q", res.Message, discovery.NoMoreJobsMessage)
	}
}

func TestNextCandidate_NoSignalMeansNeverPersonalized(t *testing.T) {
	f := newFixture(t, []model.Job{csvJob("A", 1, 1), csvJob("B", 2, 2)})

	for {
		res := f.next(t, "")
		if res.Job == nil {
			break
		}
		if res.Personalized {
			t.Fatalf("user has no likes and no interests, but %s came personalized", res.Job.Title)
		}
		// dislike keeps the affinity signal set empty
		f.swipe(t, res.Job.ID, model.ActionDislike)
	}
}

func TestNextCandidate_TieBreakPrefersNewest(t *testing.T) {
	older := csvJob("older", 7, 10)
	newer := csvJob("newer", 7, 2)
	f := newFixture(t, []model.Job{older, newer})

	for i := 0; i < 5; i++ {
		res := f.next(t, "")
		if res.Job == nil || res.Job.ID != newer.ID {
			t.Fatalf("equal scores must prefer the newer job, got %+v", res.Job)
		}
	}
}

func TestNextCandidate_HigherRelevancyWins(t *testing.T) {
	low := csvJob("low", 1, 1)
	high := csvJob("high", 9, 30)
	f := newFixture(t, []model.Job{low, high})

	if res := f.next(t, ""); res.Job == nil || res.Job.ID != high.ID {
		t.Fatalf("want the higher-relevancy job first, got %+v", res.Job)
	}
}

func TestNextCandidate_OnlyEligibleInventory(t *testing.T) {
	pool := []model.Job{
		csvJob("closed", 9, 1, func(j *model.Job) { j.Status = model.JobStatusClosed }),
		csvJob("draft", 9, 1, func(j *model.Job) { j.Status = model.JobStatusDraft }),
		csvJob("hidden", 9, 1, func(j *model.Job) { j.Visibility.DisplayInApp = false }),
		csvJob("native", 9, 1, func(j *model.Job) { j.SourceType = model.SourceTypeWeb }),
		csvJob("eligible", 1, 5),
	}
	f := newFixture(t, pool)

	res := f.next(t, "")
	if res.Job == nil || res.Job.Title != "eligible" {
		t.Fatalf("only the eligible CSV-origin job should surface, got %+v", res.Job)
	}
}

func TestNextCandidate_LegacyCSVSourceStillEligible(t *testing.T) {
	legacy := csvJob("legacy", 1, 1, func(j *model.Job) {
		j.SourceType = ""
		j.Source = model.LegacyCSVSource
	})
	f := newFixture(t, []model.Job{legacy})

	if res := f.next(t, ""); res.Job == nil || res.Job.ID != legacy.ID {
		t.Fatalf("legacy import marker should remain discoverable, got %+v", res.Job)
	}
}

func TestNextCandidate_BucketSuperset(t *testing.T) {
	pool := []model.Job{
		csvJob("club", 3, 1, func(j *model.Job) { j.JobType = "activity" }),
		csvJob("drive", 2, 2, func(j *model.Job) { j.JobType = "volunteering" }),
		csvJob("society", 1, 3, func(j *model.Job) {
			j.JobType = "other"
			j.Categories = []string{"extracurricular"}
		}),
	}

	exhaust := func(bucket string) map[string]bool {
		f := newFixture(t, pool)
		got := make(map[string]bool)
		for {
			res := f.next(t, bucket)
			if res.Job == nil {
				return got
			}
			got[res.Job.Title] = true
			f.swipe(t, res.Job.ID, model.ActionSkip)
		}
	}

	narrow := exhaust(jobfilter.BucketActivity)
	wide := exhaust(jobfilter.BucketExtracurricular)

	for title := range narrow {
		if !wide[title] {
			t.Errorf("extracurricular results must include activity result %q", title)
		}
	}
	if !wide["drive"] {
		t.Error("extracurricular bucket should surface volunteering jobs")
	}
	if narrow["drive"] {
		t.Error("activity bucket must not surface volunteering jobs")
	}
}

func TestNextCandidate_PersonalizedByLikedTag(t *testing.T) {
	a := csvJob("A", 8, 1, func(j *model.Job) { j.Tags = []string{"python"} })
	b := csvJob("B", 8, 2)
	c := csvJob("C", 1, 3, func(j *model.Job) { j.Tags = []string{"python"} })
	d := csvJob("D", 9, 4, func(j *model.Job) { j.Tags = []string{"design"} })
	f := newFixture(t, []model.Job{a, b, c, d})

	// Like A (tagged python), then dislike B: only the like feeds affinity.
	f.swipe(t, a.ID, model.ActionLike)
	f.swipe(t, b.ID, model.ActionDislike)

	res := f.next(t, "")
	if res.Job == nil || res.Job.ID != c.ID {
		t.Fatalf("want the python-tagged C despite D's higher score, got %+v", res.Job)
	}
	if !res.Personalized {
		t.Error("affinity match must be flagged personalized")
	}
}

func TestNextCandidate_FallsBackWhenAffinityExhausted(t *testing.T) {
	liked := csvJob("liked", 5, 1, func(j *model.Job) { j.Tags = []string{"python"} })
	plain := csvJob("plain", 5, 2)
	f := newFixture(t, []model.Job{liked, plain})

	f.swipe(t, liked.ID, model.ActionLike)

	res := f.next(t, "")
	if res.Job == nil || res.Job.ID != plain.ID {
		t.Fatalf("nothing matches the affinity clause, want fallback to plain, got %+v", res.Job)
	}
	if res.Personalized {
		t.Error("fallback result must be flagged unpersonalized")
	}
}

func TestNextCandidate_ScenarioFromSwipeHistory(t *testing.T) {
	// User dislikes A and B, likes a python-tagged job P; pool also holds
	// C (python) and D (untagged). C must come first, personalized; after
	// skipping C, D follows unpersonalized; then the pool is exhausted.
	p := csvJob("P", 1, 9, func(j *model.Job) { j.Tags = []string{"python"} })
	a := csvJob("A", 1, 8)
	b := csvJob("B", 1, 7)
	c := csvJob("C", 1, 6, func(j *model.Job) { j.Tags = []string{"python"} })
	d := csvJob("D", 1, 5)
	f := newFixture(t, []model.Job{p, a, b, c, d})

	f.swipe(t, p.ID, model.ActionLike)
	f.swipe(t, a.ID, model.ActionDislike)
	f.swipe(t, b.ID, model.ActionDislike)

	res := f.next(t, "")
	if res.Job == nil || res.Job.ID != c.ID || !res.Personalized {
		t.Fatalf("step 1: want personalized C, got %+v", res)
	}

	f.swipe(t, c.ID, model.ActionSkip)
	res = f.next(t, "")
	if res.Job == nil || res.Job.ID != d.ID || res.Personalized {
		t.Fatalf("step 2: want unpersonalized D, got %+v", res)
	}

	f.swipe(t, d.ID, model.ActionLike)
	res = f.next(t, "")
	if res.Job != nil || res.Message != discovery.NoMoreJobsMessage {
		t.Fatalf("step 3: want exhausted result, got %+v", res)
	}
}

func TestNextCandidate_InterestNamesDriveAffinity(t *testing.T) {
	match := csvJob("match", 1, 1, func(j *model.Job) { j.Categories = []string{"Data Science", "internship"} })
	other := csvJob("other", 9, 2)
	f := newFixture(t, []model.Job{match, other})

	f.user.Preferences.Interests = []model.InterestRef{{Name: "Data Science"}}

	res := f.next(t, "")
	if res.Job == nil || res.Job.ID != match.ID || !res.Personalized {
		t.Fatalf("declared interests alone should personalize, got %+v", res)
	}
}

func TestNextCandidate_DegradesWhenSignalLookupsFail(t *testing.T) {
	pool := []model.Job{csvJob("A", 1, 1)}
	user := &model.User{
		ID:          primitive.NewObjectID(),
		FirebaseUID: "fb-degraded",
		Preferences: model.UserPreferences{Interests: []model.InterestRef{{Name: "AI"}}},
	}
	jobs := &fakeJobs{pool: pool}
	profiles := &fakeProfiles{user: user, failResolve: true}
	svc := discovery.NewService(jobs, &fakeSwipes{}, profiles, nopCache{})

	res, err := svc.NextCandidate(context.Background(), user, "")
	if err != nil {
		t.Fatalf("signal lookup failure must not fail the request: %v", err)
	}
	if res.Job == nil || res.Personalized {
		t.Errorf("want unpersonalized fallback result, got %+v", res)
	}
}

func TestNextCandidate_ExclusionLoadFailureIsFatal(t *testing.T) {
	user := &model.User{ID: primitive.NewObjectID(), FirebaseUID: "fb-x"}
	svc := discovery.NewService(
		&fakeJobs{pool: []model.Job{csvJob("A", 1, 1)}},
		&fakeSwipes{failAll: true},
		&fakeProfiles{user: user},
		nopCache{},
	)

	if _, err := svc.NextCandidate(context.Background(), user, ""); err == nil {
		t.Error("a lost exclusion set risks re-offering swiped jobs and must fail the call")
	}
}

func TestNextCandidate_WorkModeAlwaysApplied(t *testing.T) {
	onsite := csvJob("onsite", 9, 1, func(j *model.Job) { j.Location = "Munich" })
	remote := csvJob("remote", 1, 2, func(j *model.Job) { j.IsRemote = true })
	f := newFixture(t, []model.Job{onsite, remote})

	f.user.Preferences.WorkMode = model.WorkModeRemote

	res := f.next(t, "")
	if res.Job == nil || res.Job.ID != remote.ID {
		t.Fatalf("stored remote preference must filter discovery, got %+v", res.Job)
	}
}

// ── ResolveUser ────────────────────────────────────────────────────────────

func TestResolveUser(t *testing.T) {
	f := newFixture(t, nil)

	if _, err := f.svc.ResolveUser(context.Background(), ""); !errors.Is(err, discovery.ErrUnauthenticated) {
		t.Errorf("empty uid: err = %v, want ErrUnauthenticated", err)
	}
	if _, err := f.svc.ResolveUser(context.Background(), "fb-nobody"); !errors.Is(err, discovery.ErrUnauthenticated) {
		t.Errorf("unknown uid: err = %v, want ErrUnauthenticated", err)
	}
	u, err := f.svc.ResolveUser(context.Background(), "fb-test-user")
	if err != nil || u == nil || u.ID != f.user.ID {
		t.Errorf("known uid: got (%v, %v)", u, err)
	}
}
