package query_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"todoline/internal/domain"
	"todoline/internal/query"
)

func TestNormalizeListDefaults(t *testing.T) {
	req, warnings := query.NormalizeList(map[string]any{})
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	want := query.ListRequest{Page: domain.DefaultPage(), Sort: domain.DefaultSort()}
	if diff := cmp.Diff(want, req); diff != "" {
		t.Fatalf("unexpected request (-want +got):\n%s", diff)
	}
}

func TestNormalizeListCSVAndArrayEquivalent(t *testing.T) {
	fromCSV, _ := query.NormalizeList(map[string]any{"status": "planned,done", "tags": "a, b ,c"})
	fromArray, _ := query.NormalizeList(map[string]any{"status": []string{"planned", "done"}, "tags": []string{"a", "b", "c"}})
	if diff := cmp.Diff(fromCSV.Filter, fromArray.Filter); diff != "" {
		t.Fatalf("csv and array input diverged (-csv +array):\n%s", diff)
	}
	if got := fromCSV.Filter.Statuses; len(got) != 2 || got[0] != domain.StatusPlanned || got[1] != domain.StatusDone {
		t.Fatalf("unexpected statuses: %v", got)
	}
	if got := fromCSV.Filter.Tags; len(got) != 3 || got[1] != "b" {
		t.Fatalf("expected trimmed tags, got %v", got)
	}
}

func TestNormalizeListDropsUnknownEnumTokens(t *testing.T) {
	req, warnings := query.NormalizeList(map[string]any{
		"status":   "planned,bogus,done",
		"priority": "urgent",
		"severity": []any{"info", 42, "fatal"},
	})
	if len(warnings) != 0 {
		t.Fatalf("lenient filtering must not warn, got %v", warnings)
	}
	if got := req.Filter.Statuses; len(got) != 2 {
		t.Fatalf("expected unrecognized status dropped, got %v", got)
	}
	if req.Filter.Priorities != nil {
		t.Fatalf("expected empty priorities, got %v", req.Filter.Priorities)
	}
	if got := req.Filter.Severities; len(got) != 1 || got[0] != domain.SeverityInfo {
		t.Fatalf("expected only recognized severities, got %v", got)
	}
}

func TestNormalizeListBadPageWarnsAndDefaults(t *testing.T) {
	req, warnings := query.NormalizeList(map[string]any{"page": "garbage", "pageSize": "abc"})
	if req.Page.Number != 1 || req.Page.Size != domain.DefaultPageSize {
		t.Fatalf("expected defaults, got %+v", req.Page)
	}
	if len(warnings) != 2 {
		t.Fatalf("expected two warnings, got %v", warnings)
	}
	for _, w := range warnings {
		if !strings.Contains(w, "cannot parse") {
			t.Fatalf("unexpected warning text: %q", w)
		}
	}
}

func TestNormalizeListNumericCoercions(t *testing.T) {
	req, warnings := query.NormalizeList(map[string]any{"page": "3", "pageSize": float64(50)})
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if req.Page.Number != 3 || req.Page.Size != 50 {
		t.Fatalf("unexpected page: %+v", req.Page)
	}

	req, warnings = query.NormalizeList(map[string]any{"page": 0, "pageSize": 1000})
	if req.Page.Number != 1 {
		t.Fatalf("expected page clamped to 1, got %d", req.Page.Number)
	}
	if req.Page.Size != domain.MaxPageSize {
		t.Fatalf("expected pageSize clamped to %d, got %d", domain.MaxPageSize, req.Page.Size)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning for page 0, got %v", warnings)
	}
}

func TestNormalizeListBooleans(t *testing.T) {
	cases := []struct {
		in   any
		want *bool
	}{
		{"true", boolp(true)},
		{"1", boolp(true)},
		{"false", boolp(false)},
		{"0", boolp(false)},
		{true, boolp(true)},
		{"yes", nil},
		{"", nil},
		{3, nil},
	}
	for _, tc := range cases {
		req, _ := query.NormalizeList(map[string]any{"isOverdue": tc.in})
		got := req.Filter.Overdue
		switch {
		case tc.want == nil && got != nil:
			t.Fatalf("input %v: expected unset, got %v", tc.in, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Fatalf("input %v: expected %v, got %v", tc.in, *tc.want, got)
		}
	}
}

func TestNormalizeListDates(t *testing.T) {
	req, _ := query.NormalizeList(map[string]any{
		"createdAfter":  "2024-01-01T10:00:00+02:00",
		"dueDateBefore": "not a date",
	})
	if req.Filter.CreatedAfter == nil || *req.Filter.CreatedAfter != "2024-01-01T08:00:00Z" {
		t.Fatalf("expected canonical UTC instant, got %v", req.Filter.CreatedAfter)
	}
	if req.Filter.DueBefore != nil {
		t.Fatalf("expected malformed date dropped, got %v", *req.Filter.DueBefore)
	}
}

func TestNormalizeListSort(t *testing.T) {
	req, _ := query.NormalizeList(map[string]any{"sortField": "dueDate", "sortDirection": "ASC"})
	if req.Sort.Field != domain.SortDueDate || req.Sort.Direction != domain.SortAsc {
		t.Fatalf("unexpected sort: %+v", req.Sort)
	}

	req, _ = query.NormalizeList(map[string]any{"sortField": "karma", "sortDirection": "sideways"})
	if diff := cmp.Diff(domain.DefaultSort(), req.Sort); diff != "" {
		t.Fatalf("expected default sort (-want +got):\n%s", diff)
	}
}

func TestNormalizeStats(t *testing.T) {
	q, warnings := query.NormalizeStats(map[string]any{})
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if q.Interval != domain.DefaultInterval || q.TopTagsLimit != domain.DefaultTopTagsLimit {
		t.Fatalf("unexpected defaults: %+v", q)
	}

	q, _ = query.NormalizeStats(map[string]any{"timeInterval": "week", "topTagsLimit": "5"})
	if q.Interval != domain.IntervalWeek || q.TopTagsLimit != 5 {
		t.Fatalf("unexpected query: %+v", q)
	}

	q, _ = query.NormalizeStats(map[string]any{"timeInterval": "fortnight", "topTagsLimit": 400})
	if q.Interval != domain.DefaultInterval {
		t.Fatalf("expected unknown interval dropped, got %s", q.Interval)
	}
	if q.TopTagsLimit != domain.MaxTopTagsLimit {
		t.Fatalf("expected limit clamped, got %d", q.TopTagsLimit)
	}

	q, warnings = query.NormalizeStats(map[string]any{"topTagsLimit": "many"})
	if q.TopTagsLimit != domain.DefaultTopTagsLimit {
		t.Fatalf("expected fallback limit, got %d", q.TopTagsLimit)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %v", warnings)
	}
}

func TestNormalizeAnalytics(t *testing.T) {
	q, _ := query.NormalizeAnalytics(map[string]any{"complianceFramework": " SOC2 ", "overdueOnly": "true"})
	if q.Framework == nil || *q.Framework != "SOC2" {
		t.Fatalf("expected trimmed framework, got %v", q.Framework)
	}
	if q.OverdueOnly == nil || !*q.OverdueOnly {
		t.Fatalf("expected overdueOnly true, got %v", q.OverdueOnly)
	}

	q, _ = query.NormalizeAnalytics(map[string]any{"overdueOnly": "maybe"})
	if q.Framework != nil || q.OverdueOnly != nil {
		t.Fatalf("expected unset fields, got %+v", q)
	}
}

func boolp(b bool) *bool { return &b }
