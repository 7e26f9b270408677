package repo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"todoline/internal/db"
	"todoline/internal/domain"
	"todoline/internal/migrate"
	"todoline/internal/repo"
)

var repoClock = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newRepo(t *testing.T) repo.Repo {
	t.Helper()
	conn, err := db.Open(db.Config{Workspace: t.TempDir()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return repo.Repo{DB: conn, Now: func() time.Time { return repoClock }}
}

func seed(t *testing.T, r repo.Repo, mut func(*domain.Todo)) domain.Todo {
	t.Helper()
	td := domain.Todo{
		Title:     "task",
		Status:    domain.StatusPlanned,
		Priority:  domain.PriorityMedium,
		Severity:  domain.SeverityLow,
		CreatedAt: "2024-05-01T10:00:00Z",
		UpdatedAt: "2024-05-01T10:00:00Z",
	}
	if mut != nil {
		mut(&td)
	}
	created, err := r.Create(context.Background(), td)
	if err != nil {
		t.Fatalf("seed todo: %v", err)
	}
	return created
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestCreateGetRoundTrip(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	created := seed(t, r, func(td *domain.Todo) {
		td.Title = "Rotate credentials"
		td.Description = "before the audit"
		td.Tags = []string{"security", "audit"}
		td.ComplianceFrameworks = []string{"SOC2"}
		td.Assignee = strp("alice")
		td.DueDate = strp("2024-06-01T00:00:00Z")
	})
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	got, err := r.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(created, got); diff != "" {
		t.Fatalf("round trip diverged (-created +got):\n%s", diff)
	}
	// tag order is insertion order, not alphabetical
	if got.Tags[0] != "security" || got.Tags[1] != "audit" {
		t.Fatalf("tag order lost: %v", got.Tags)
	}
}

func TestGetMissing(t *testing.T) {
	r := newRepo(t)
	_, err := r.Get(context.Background(), "nope")
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateMissing(t *testing.T) {
	r := newRepo(t)
	err := r.Update(context.Background(), "nope", domain.UpdateDoc{Title: strp("x"), UpdatedAt: "2024-05-01T10:00:00Z"})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdatePartialDocument(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	created := seed(t, r, func(td *domain.Todo) {
		td.Assignee = strp("alice")
		td.DueDate = strp("2024-06-01T00:00:00Z")
		td.Tags = []string{"one"}
	})

	doc := domain.UpdateDoc{
		Title:         strp("renamed"),
		ClearAssignee: true,
		Tags:          &[]string{"two", "three"},
		UpdatedAt:     "2024-05-01T11:00:00Z",
	}
	if err := r.Update(ctx, created.ID, doc); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := r.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "renamed" {
		t.Fatalf("title not updated: %q", got.Title)
	}
	if got.Assignee != nil {
		t.Fatalf("assignee not cleared: %v", *got.Assignee)
	}
	if got.DueDate == nil || *got.DueDate != "2024-06-01T00:00:00Z" {
		t.Fatalf("untouched due date changed: %v", got.DueDate)
	}
	if diff := cmp.Diff([]string{"two", "three"}, got.Tags); diff != "" {
		t.Fatalf("tags not replaced (-want +got):\n%s", diff)
	}
	if got.UpdatedAt != "2024-05-01T11:00:00Z" {
		t.Fatalf("updatedAt not written: %s", got.UpdatedAt)
	}
}

func TestDeleteCascadesLabels(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	created := seed(t, r, func(td *domain.Todo) {
		td.Tags = []string{"a", "b"}
		td.ComplianceFrameworks = []string{"SOC2"}
	})
	if err := r.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM todo_tags WHERE todo_id=?`, created.ID).Scan(&n); err != nil {
		t.Fatalf("count tags: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected cascade delete, got %d tag rows", n)
	}
	if err := r.Delete(ctx, created.ID); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func searchIDs(t *testing.T, r repo.Repo, f domain.SearchFilter, s domain.Sort) []string {
	t.Helper()
	todos, _, err := r.Search(context.Background(), f, s, 0, 100)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	ids := make([]string, len(todos))
	for i, td := range todos {
		ids[i] = td.ID
	}
	return ids
}

func TestSearchFilters(t *testing.T) {
	r := newRepo(t)
	planned := seed(t, r, func(td *domain.Todo) {
		td.Title = "write the runbook"
		td.Tags = []string{"docs"}
		td.Assignee = strp("alice")
	})
	done := seed(t, r, func(td *domain.Todo) {
		td.Title = "ship the release"
		td.Status = domain.StatusDone
		td.Priority = domain.PriorityHigh
		td.Tags = []string{"release", "docs"}
		td.CompletedAt = strp("2024-04-30T09:00:00Z")
	})
	urgent := seed(t, r, func(td *domain.Todo) {
		td.Title = "hotfix 500s on checkout"
		td.Status = domain.StatusInProgress
		td.Priority = domain.PriorityCritical
		td.Severity = domain.SeverityCritical
		td.ComplianceFrameworks = []string{"PCI-DSS"}
		td.Assignee = strp("bob")
	})

	got := searchIDs(t, r, domain.SearchFilter{Statuses: []domain.Status{domain.StatusDone}}, domain.Sort{})
	if len(got) != 1 || got[0] != done.ID {
		t.Fatalf("status filter: %v", got)
	}

	got = searchIDs(t, r, domain.SearchFilter{Statuses: []domain.Status{domain.StatusPlanned, domain.StatusInProgress}}, domain.Sort{})
	if len(got) != 2 {
		t.Fatalf("multi status filter: %v", got)
	}

	// tags are match-any
	got = searchIDs(t, r, domain.SearchFilter{Tags: []string{"docs", "nonexistent"}}, domain.Sort{})
	if len(got) != 2 {
		t.Fatalf("tag filter: %v", got)
	}

	got = searchIDs(t, r, domain.SearchFilter{Frameworks: []string{"PCI-DSS"}}, domain.Sort{})
	if len(got) != 1 || got[0] != urgent.ID {
		t.Fatalf("framework filter: %v", got)
	}

	got = searchIDs(t, r, domain.SearchFilter{Assignee: strp("alice")}, domain.Sort{})
	if len(got) != 1 || got[0] != planned.ID {
		t.Fatalf("assignee filter: %v", got)
	}

	got = searchIDs(t, r, domain.SearchFilter{Search: strp("checkout")}, domain.Sort{})
	if len(got) != 1 || got[0] != urgent.ID {
		t.Fatalf("text search: %v", got)
	}

	got = searchIDs(t, r, domain.SearchFilter{
		Priorities: []domain.Priority{domain.PriorityHigh, domain.PriorityCritical},
		Severities: []domain.Severity{domain.SeverityCritical},
	}, domain.Sort{})
	if len(got) != 1 || got[0] != urgent.ID {
		t.Fatalf("priority+severity filter: %v", got)
	}

	got = searchIDs(t, r, domain.SearchFilter{CompletedAfter: strp("2024-04-01T00:00:00Z"), CompletedBefore: strp("2024-05-01T00:00:00Z")}, domain.Sort{})
	if len(got) != 1 || got[0] != done.ID {
		t.Fatalf("completed range filter: %v", got)
	}
}

func TestSearchTextEscapesWildcards(t *testing.T) {
	r := newRepo(t)
	literal := seed(t, r, func(td *domain.Todo) { td.Title = "restore 100% coverage" })
	seed(t, r, func(td *domain.Todo) { td.Title = "restore 100x coverage" })

	got := searchIDs(t, r, domain.SearchFilter{Search: strp("100%")}, domain.Sort{})
	if len(got) != 1 || got[0] != literal.ID {
		t.Fatalf("expected %% treated literally, got %v", got)
	}
}

func TestSearchOverdue(t *testing.T) {
	r := newRepo(t)
	// clock pinned at 2024-05-01T12:00:00Z
	overdue := seed(t, r, func(td *domain.Todo) { td.DueDate = strp("2024-04-01T00:00:00Z") })
	seed(t, r, func(td *domain.Todo) { td.DueDate = strp("2024-06-01T00:00:00Z") })
	seed(t, r, func(td *domain.Todo) {
		td.Status = domain.StatusDone
		td.DueDate = strp("2024-04-01T00:00:00Z")
		td.CompletedAt = strp("2024-04-02T00:00:00Z")
	})
	seed(t, r, nil)

	got := searchIDs(t, r, domain.SearchFilter{Overdue: boolp(true)}, domain.Sort{})
	if len(got) != 1 || got[0] != overdue.ID {
		t.Fatalf("overdue filter: %v", got)
	}

	// done items and items without a due date are never overdue
	got = searchIDs(t, r, domain.SearchFilter{Overdue: boolp(false)}, domain.Sort{})
	if len(got) != 3 {
		t.Fatalf("not-overdue filter: %v", got)
	}
	for _, id := range got {
		if id == overdue.ID {
			t.Fatalf("overdue item in not-overdue result")
		}
	}
}

func TestSearchSortsByRankAndTiebreak(t *testing.T) {
	r := newRepo(t)
	low := seed(t, r, func(td *domain.Todo) { td.Priority = domain.PriorityLow })
	critical := seed(t, r, func(td *domain.Todo) { td.Priority = domain.PriorityCritical })
	medium := seed(t, r, func(td *domain.Todo) { td.Priority = domain.PriorityMedium })
	high := seed(t, r, func(td *domain.Todo) { td.Priority = domain.PriorityHigh })

	got := searchIDs(t, r, domain.SearchFilter{}, domain.Sort{Field: domain.SortPriority, Direction: domain.SortAsc})
	want := []string{low.ID, medium.ID, high.ID, critical.ID}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("priority rank order (-want +got):\n%s", diff)
	}

	got = searchIDs(t, r, domain.SearchFilter{}, domain.Sort{Field: domain.SortPriority, Direction: domain.SortDesc})
	if got[0] != critical.ID {
		t.Fatalf("expected critical first descending, got %v", got)
	}
}

func TestSearchTitleSortAndPaging(t *testing.T) {
	r := newRepo(t)
	for _, title := range []string{"banana", "apple", "cherry", "date", "elder"} {
		title := title
		seed(t, r, func(td *domain.Todo) { td.Title = title })
	}
	todos, total, err := r.Search(context.Background(), domain.SearchFilter{}, domain.Sort{Field: domain.SortTitle, Direction: domain.SortAsc}, 0, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if total != 5 {
		t.Fatalf("expected total 5, got %d", total)
	}
	if todos[0].Title != "apple" || todos[1].Title != "banana" {
		t.Fatalf("unexpected first page: %v", []string{todos[0].Title, todos[1].Title})
	}
	todos, _, err = r.Search(context.Background(), domain.SearchFilter{}, domain.Sort{Field: domain.SortTitle, Direction: domain.SortAsc}, 4, 2)
	if err != nil {
		t.Fatalf("search page 3: %v", err)
	}
	if len(todos) != 1 || todos[0].Title != "elder" {
		t.Fatalf("unexpected last page: %+v", todos)
	}
}

func TestStatsAggregation(t *testing.T) {
	r := newRepo(t)
	seed(t, r, func(td *domain.Todo) { td.Tags = []string{"infra", "alpha"} })
	seed(t, r, func(td *domain.Todo) {
		td.Status = domain.StatusDone
		td.Tags = []string{"infra"}
		td.Assignee = strp("alice")
		td.CompletedAt = strp("2024-04-29T08:00:00Z")
	})
	seed(t, r, func(td *domain.Todo) {
		td.Status = domain.StatusDone
		td.Assignee = strp("alice")
		td.CompletedAt = strp("2024-04-29T19:00:00Z")
	})
	seed(t, r, func(td *domain.Todo) {
		td.Status = domain.StatusDone
		td.Assignee = strp("bob")
		td.CompletedAt = strp("2024-04-30T10:00:00Z")
	})

	agg, err := r.StatsAggregation(context.Background(), domain.StatsQuery{Interval: domain.IntervalDay, TopTagsLimit: 10})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if agg.Total != 4 {
		t.Fatalf("expected total 4, got %d", agg.Total)
	}
	status := map[string]int{}
	for _, b := range agg.ByStatus {
		status[b.Key] = b.Count
	}
	if status["planned"] != 1 || status["done"] != 3 {
		t.Fatalf("unexpected status buckets: %v", agg.ByStatus)
	}
	// infra(2) before alpha(1); ties would fall back to name order
	if len(agg.TopTags) != 2 || agg.TopTags[0].Key != "infra" || agg.TopTags[0].Count != 2 {
		t.Fatalf("unexpected top tags: %v", agg.TopTags)
	}
	wantSeries := []domain.Bucket{
		{Key: "2024-04-29", Count: 2},
		{Key: "2024-04-30", Count: 1},
	}
	if diff := cmp.Diff(wantSeries, agg.CompletedOverTime); diff != "" {
		t.Fatalf("completed series (-want +got):\n%s", diff)
	}
	if len(agg.TopAssignees) != 2 || agg.TopAssignees[0].Key != "alice" || agg.TopAssignees[0].Count != 2 {
		t.Fatalf("unexpected top assignees: %v", agg.TopAssignees)
	}
	if agg.UnassignedCount != 1 {
		t.Fatalf("expected 1 unassigned, got %d", agg.UnassignedCount)
	}
}

func TestStatsTopTagsLimit(t *testing.T) {
	r := newRepo(t)
	seed(t, r, func(td *domain.Todo) { td.Tags = []string{"a", "b", "c", "d"} })
	agg, err := r.StatsAggregation(context.Background(), domain.StatsQuery{Interval: domain.IntervalDay, TopTagsLimit: 2})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(agg.TopTags) != 2 {
		t.Fatalf("expected limit 2, got %d", len(agg.TopTags))
	}
}

func TestStatsCreatedRange(t *testing.T) {
	r := newRepo(t)
	seed(t, r, func(td *domain.Todo) { td.CreatedAt = "2024-04-01T00:00:00Z" })
	seed(t, r, func(td *domain.Todo) { td.CreatedAt = "2024-05-01T00:00:00Z" })
	agg, err := r.StatsAggregation(context.Background(), domain.StatsQuery{
		CreatedAfter: strp("2024-04-15T00:00:00Z"),
		Interval:     domain.IntervalDay,
		TopTagsLimit: 10,
	})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if agg.Total != 1 {
		t.Fatalf("expected range to scope total, got %d", agg.Total)
	}
}

func TestAnalyticsAggregation(t *testing.T) {
	r := newRepo(t)
	seed(t, r, func(td *domain.Todo) {
		td.ComplianceFrameworks = []string{"SOC2", "PCI-DSS"}
		td.Priority = domain.PriorityHigh
		td.DueDate = strp("2024-04-01T00:00:00Z")
	})
	seed(t, r, func(td *domain.Todo) {
		td.Status = domain.StatusDone
		td.ComplianceFrameworks = []string{"SOC2"}
		td.Severity = domain.SeverityHigh
		td.CompletedAt = strp("2024-04-20T00:00:00Z")
	})
	seed(t, r, nil)

	agg, err := r.AnalyticsAggregation(context.Background(), domain.AnalyticsQuery{})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if agg.Total != 3 {
		t.Fatalf("expected total 3, got %d", agg.Total)
	}
	if len(agg.Frameworks) != 2 || agg.Frameworks[0].Key != "SOC2" || agg.Frameworks[0].Count != 2 {
		t.Fatalf("unexpected frameworks: %+v", agg.Frameworks)
	}
	soc2 := map[string]int{}
	for _, b := range agg.Frameworks[0].ByStatus {
		soc2[b.Key] = b.Count
	}
	if soc2["done"] != 1 || soc2["planned"] != 1 {
		t.Fatalf("unexpected SOC2 statuses: %v", agg.Frameworks[0].ByStatus)
	}
	if agg.OverdueTotal != 1 {
		t.Fatalf("expected 1 overdue, got %d", agg.OverdueTotal)
	}
	overduePriority := map[string]int{}
	for _, b := range agg.OverduePriority {
		overduePriority[b.Key] = b.Count
	}
	if overduePriority["high"] != 1 {
		t.Fatalf("unexpected overdue priorities: %v", agg.OverduePriority)
	}
	if len(agg.PrioritySeverity) == 0 {
		t.Fatalf("expected nested priority/severity buckets")
	}
}

func TestAnalyticsFrameworkScope(t *testing.T) {
	r := newRepo(t)
	seed(t, r, func(td *domain.Todo) { td.ComplianceFrameworks = []string{"SOC2"} })
	seed(t, r, func(td *domain.Todo) { td.ComplianceFrameworks = []string{"HIPAA"} })
	seed(t, r, nil)

	agg, err := r.AnalyticsAggregation(context.Background(), domain.AnalyticsQuery{Framework: strp("SOC2")})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if agg.Total != 1 {
		t.Fatalf("expected scoped total 1, got %d", agg.Total)
	}
	if len(agg.Frameworks) != 1 || agg.Frameworks[0].Key != "SOC2" {
		t.Fatalf("expected only SOC2 coverage, got %+v", agg.Frameworks)
	}
}

func TestAnalyticsOverdueOnly(t *testing.T) {
	r := newRepo(t)
	seed(t, r, func(td *domain.Todo) { td.DueDate = strp("2024-04-01T00:00:00Z") })
	seed(t, r, func(td *domain.Todo) { td.DueDate = strp("2024-06-01T00:00:00Z") })

	agg, err := r.AnalyticsAggregation(context.Background(), domain.AnalyticsQuery{OverdueOnly: boolp(true)})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if agg.Total != 1 {
		t.Fatalf("expected overdue-only total 1, got %d", agg.Total)
	}
	if agg.OverdueTotal != 1 {
		t.Fatalf("expected overdue total 1, got %d", agg.OverdueTotal)
	}
}

func TestSuggestionsDistinctSorted(t *testing.T) {
	r := newRepo(t)
	seed(t, r, func(td *domain.Todo) {
		td.Tags = []string{"zeta", "alpha"}
		td.ComplianceFrameworks = []string{"SOC2"}
	})
	seed(t, r, func(td *domain.Todo) {
		td.Tags = []string{"alpha"}
		td.ComplianceFrameworks = []string{"HIPAA", "SOC2"}
	})
	s, err := r.Suggestions(context.Background())
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if diff := cmp.Diff([]string{"alpha", "zeta"}, s.Tags); diff != "" {
		t.Fatalf("tags (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"HIPAA", "SOC2"}, s.ComplianceFrameworks); diff != "" {
		t.Fatalf("frameworks (-want +got):\n%s", diff)
	}
}

func TestSuggestionsEmpty(t *testing.T) {
	r := newRepo(t)
	s, err := r.Suggestions(context.Background())
	if err != nil {
		t.Fatalf("suggestions: %v", err)
	}
	if s.Tags == nil || s.ComplianceFrameworks == nil {
		t.Fatalf("expected empty slices, got %+v", s)
	}
}

func eventTypes(events []domain.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestActivityLog(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	created := seed(t, r, nil)

	done := domain.StatusDone
	doc := domain.UpdateDoc{Status: &done, CompletedAt: strp("2024-05-01T12:00:00Z"), UpdatedAt: "2024-05-01T12:00:00Z"}
	if err := r.Update(ctx, created.ID, doc); err != nil {
		t.Fatalf("update: %v", err)
	}
	planned := domain.StatusPlanned
	doc = domain.UpdateDoc{Status: &planned, ClearCompletedAt: true, UpdatedAt: "2024-05-01T13:00:00Z"}
	if err := r.Update(ctx, created.ID, doc); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := r.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	events, err := r.LatestEvents(ctx, 10, created.ID, "")
	if err != nil {
		t.Fatalf("latest events: %v", err)
	}
	want := []string{"todo.deleted", "todo.reopened", "todo.updated", "todo.completed", "todo.updated", "todo.created"}
	if diff := cmp.Diff(want, eventTypes(events)); diff != "" {
		t.Fatalf("event sequence (-want +got):\n%s", diff)
	}

	// type filter
	events, err = r.LatestEvents(ctx, 10, "", "todo.updated")
	if err != nil {
		t.Fatalf("latest by type: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 update events, got %d", len(events))
	}

	// limit
	events, err = r.LatestEvents(ctx, 2, "", "")
	if err != nil {
		t.Fatalf("latest limited: %v", err)
	}
	if len(events) != 2 || events[0].Type != "todo.deleted" {
		t.Fatalf("expected newest first with limit, got %v", eventTypes(events))
	}
}

func TestActivityLogPayloads(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	created := seed(t, r, func(td *domain.Todo) { td.Title = "observable" })

	doc := domain.UpdateDoc{Title: strp("renamed"), ClearDueDate: true, UpdatedAt: "2024-05-01T12:30:00Z"}
	if err := r.Update(ctx, created.ID, doc); err != nil {
		t.Fatalf("update: %v", err)
	}
	events, err := r.LatestEvents(ctx, 1, created.ID, "todo.updated")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	var payload struct {
		Fields []string `json:"fields"`
	}
	if err := json.Unmarshal([]byte(events[0].Payload), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if diff := cmp.Diff([]string{"title", "dueDate"}, payload.Fields); diff != "" {
		t.Fatalf("changed fields (-want +got):\n%s", diff)
	}
	if events[0].TS != "2024-05-01T12:00:00Z" {
		t.Fatalf("expected pinned clock in ts, got %s", events[0].TS)
	}
}

func TestEventsSurviveTodoDeletion(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	created := seed(t, r, nil)
	if err := r.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	events, err := r.LatestEvents(ctx, 10, created.ID, "")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected created+deleted to remain, got %v", eventTypes(events))
	}
}
