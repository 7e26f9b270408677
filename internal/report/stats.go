// Package report turns raw backend aggregations into the stable reporting
// views. Both mappers are pure: missing bucket lists mean empty, never an
// error.
package report

import "todoline/internal/domain"

// BuildStats maps a raw aggregation to the statistics view. All four
// statuses appear with explicit counts, the ranked lists keep backend
// order, and the unassigned count comes from its dedicated counter. Raw
// counts only; percentages belong to the analytics view.
func BuildStats(agg domain.StatsAggregation) domain.StatsView {
	view := domain.StatsView{
		Total:             agg.Total,
		ByStatus:          statusCounts(agg.ByStatus),
		TopTags:           make([]domain.TagCount, 0, len(agg.TopTags)),
		CompletedOverTime: make([]domain.TimeBucket, 0, len(agg.CompletedOverTime)),
		TopAssignees:      make([]domain.AssigneeCount, 0, len(agg.TopAssignees)),
		UnassignedCount:   agg.UnassignedCount,
	}
	for _, b := range agg.TopTags {
		view.TopTags = append(view.TopTags, domain.TagCount{Tag: b.Key, Count: b.Count})
	}
	for _, b := range agg.CompletedOverTime {
		view.CompletedOverTime = append(view.CompletedOverTime, domain.TimeBucket{Date: b.Key, Count: b.Count})
	}
	for _, b := range agg.TopAssignees {
		view.TopAssignees = append(view.TopAssignees, domain.AssigneeCount{Assignee: b.Key, Count: b.Count})
	}
	return view
}

func statusCounts(buckets []domain.Bucket) map[domain.Status]int {
	out := make(map[domain.Status]int, len(domain.Statuses))
	for _, s := range domain.Statuses {
		out[s] = 0
	}
	for _, b := range buckets {
		if s := domain.Status(b.Key); s.Valid() {
			out[s] = b.Count
		}
	}
	return out
}
