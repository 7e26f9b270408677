// Package query turns the loosely-typed request maps produced by transport
// layers into well-formed search requests. The policy is lenient: unknown
// and malformed values drop to their defaults instead of failing, and
// numeric fallbacks are reported as warnings for the caller to log. Field
// validation on writes is the strict counterpart and lives in
// internal/validate.
package query

import (
	"fmt"
	"strconv"
	"strings"

	"todoline/internal/domain"
)

// ListRequest is a normalized search request.
type ListRequest struct {
	Filter domain.SearchFilter
	Page   domain.Page
	Sort   domain.Sort
}

// NormalizeList builds a ListRequest from a flat request map. It never
// fails and never consults storage.
func NormalizeList(params map[string]any) (ListRequest, []string) {
	var warnings []string
	req := ListRequest{Page: domain.DefaultPage(), Sort: domain.DefaultSort()}

	if n, ok := intParam(params, "page", 1, &warnings); ok {
		if n < 1 {
			warnings = append(warnings, fmt.Sprintf("page %d out of range, using 1", n))
			n = 1
		}
		req.Page.Number = n
	}
	if n, ok := intParam(params, "pageSize", domain.DefaultPageSize, &warnings); ok {
		if n < 1 {
			warnings = append(warnings, fmt.Sprintf("pageSize %d out of range, using %d", n, domain.DefaultPageSize))
			n = domain.DefaultPageSize
		}
		if n > domain.MaxPageSize {
			n = domain.MaxPageSize
		}
		req.Page.Size = n
	}

	req.Filter.Statuses = enumTokens(params["status"], domain.Status.Valid)
	req.Filter.Priorities = enumTokens(params["priority"], domain.Priority.Valid)
	req.Filter.Severities = enumTokens(params["severity"], domain.Severity.Valid)
	req.Filter.Tags = stringTokens(params["tags"])
	req.Filter.Frameworks = stringTokens(params["complianceFrameworks"])
	req.Filter.Assignee = stringParam(params, "assignee")
	req.Filter.Search = stringParam(params, "searchText")
	req.Filter.DueAfter = dateParam(params, "dueDateAfter")
	req.Filter.DueBefore = dateParam(params, "dueDateBefore")
	req.Filter.CreatedAfter = dateParam(params, "createdAfter")
	req.Filter.CreatedBefore = dateParam(params, "createdBefore")
	req.Filter.UpdatedAfter = dateParam(params, "updatedAfter")
	req.Filter.UpdatedBefore = dateParam(params, "updatedBefore")
	req.Filter.CompletedAfter = dateParam(params, "completedAfter")
	req.Filter.CompletedBefore = dateParam(params, "completedBefore")
	req.Filter.Overdue = boolParam(params, "isOverdue")

	if f, ok := stringToken(params["sortField"]); ok && domain.SortField(f).Valid() {
		req.Sort.Field = domain.SortField(f)
	}
	if d, ok := stringToken(params["sortDirection"]); ok {
		switch strings.ToLower(d) {
		case "asc":
			req.Sort.Direction = domain.SortAsc
		case "desc":
			req.Sort.Direction = domain.SortDesc
		}
	}
	return req, warnings
}

// NormalizeStats builds a StatsQuery from a flat request map.
func NormalizeStats(params map[string]any) (domain.StatsQuery, []string) {
	var warnings []string
	q := domain.StatsQuery{Interval: domain.DefaultInterval, TopTagsLimit: domain.DefaultTopTagsLimit}

	q.CreatedAfter = dateParam(params, "createdAfter")
	q.CreatedBefore = dateParam(params, "createdBefore")
	if v, ok := stringToken(params["timeInterval"]); ok && domain.Interval(v).Valid() {
		q.Interval = domain.Interval(v)
	}
	if n, ok := intParam(params, "topTagsLimit", domain.DefaultTopTagsLimit, &warnings); ok {
		if n < 1 {
			warnings = append(warnings, fmt.Sprintf("topTagsLimit %d out of range, using %d", n, domain.DefaultTopTagsLimit))
			n = domain.DefaultTopTagsLimit
		}
		if n > domain.MaxTopTagsLimit {
			n = domain.MaxTopTagsLimit
		}
		q.TopTagsLimit = n
	}
	return q, warnings
}

// NormalizeAnalytics builds an AnalyticsQuery from a flat request map.
func NormalizeAnalytics(params map[string]any) (domain.AnalyticsQuery, []string) {
	q := domain.AnalyticsQuery{}
	q.Framework = stringParam(params, "complianceFramework")
	q.OverdueOnly = boolParam(params, "overdueOnly")
	return q, nil
}

// stringTokens accepts a comma-separated string, a []string or a []any and
// returns the trimmed non-empty tokens.
func stringTokens(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				raw = append(raw, s)
			}
		}
	default:
		return nil
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// enumTokens keeps only the tokens that are recognized members of the
// target enumeration.
func enumTokens[T ~string](v any, valid func(T) bool) []T {
	var out []T
	for _, s := range stringTokens(v) {
		if m := T(s); valid(m) {
			out = append(out, m)
		}
	}
	return out
}

func stringToken(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func stringParam(params map[string]any, key string) *string {
	if s, ok := stringToken(params[key]); ok {
		return &s
	}
	return nil
}

func dateParam(params map[string]any, key string) *string {
	s, ok := stringToken(params[key])
	if !ok {
		return nil
	}
	canonical, ok := domain.NormalizeInstant(s)
	if !ok {
		return nil
	}
	return &canonical
}

func boolParam(params map[string]any, key string) *bool {
	var b bool
	switch t := params[key].(type) {
	case bool:
		b = t
	case string:
		switch strings.TrimSpace(t) {
		case "true", "1":
			b = true
		case "false", "0":
			b = false
		default:
			return nil
		}
	default:
		return nil
	}
	return &b
}

// intParam reads an integer that may arrive as a number or a numeric
// string. The second return reports whether the key was present at all;
// parse failures fall back to def with a warning.
func intParam(params map[string]any, key string, def int, warnings *[]string) (int, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		if t == float64(int(t)) {
			return int(t), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	*warnings = append(*warnings, fmt.Sprintf("%s: cannot parse %v, using %d", key, v, def))
	return def, true
}
