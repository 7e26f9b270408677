package report

import (
	"math"
	"time"

	"todoline/internal/domain"
)

// BuildAnalytics maps a raw aggregation to the compliance/risk view.
// Coverage entries exist only for frameworks observed in the data, since
// framework names are an open vocabulary. Everything keyed by priority or
// severity is zero-filled against the fixed enumerations, and the matrix
// always carries all 20 combinations in priority-major order.
func BuildAnalytics(now time.Time, agg domain.AnalyticsAggregation) domain.AnalyticsView {
	view := domain.AnalyticsView{
		ComputedAt:         domain.FormatInstant(now),
		TotalTasks:         agg.Total,
		ComplianceCoverage: make([]domain.FrameworkCoverage, 0, len(agg.Frameworks)),
		OverdueTasks: domain.OverdueSummary{
			Total:      agg.OverdueTotal,
			ByPriority: priorityCounts(agg.OverduePriority),
			BySeverity: severityCounts(agg.OverdueSeverity),
		},
		PriorityDistribution:   distribution(domain.Priorities, agg.ByPriority, agg.Total),
		SeverityDistribution:   distribution(domain.Severities, agg.BySeverity, agg.Total),
		PrioritySeverityMatrix: matrix(agg.PrioritySeverity, agg.Total),
	}
	for _, fb := range agg.Frameworks {
		view.ComplianceCoverage = append(view.ComplianceCoverage, frameworkCoverage(fb))
	}
	return view
}

// frameworkCoverage passes the status sub-buckets through as given; unlike
// the fixed enumerations, coverage is not zero-filled.
func frameworkCoverage(fb domain.FrameworkBucket) domain.FrameworkCoverage {
	byStatus := make(map[domain.Status]int, len(fb.ByStatus))
	done := 0
	for _, b := range fb.ByStatus {
		byStatus[domain.Status(b.Key)] = b.Count
		if domain.Status(b.Key) == domain.StatusDone {
			done = b.Count
		}
	}
	return domain.FrameworkCoverage{
		Framework:      fb.Key,
		Total:          fb.Count,
		ByStatus:       byStatus,
		CompletionRate: completionRate(done, fb.Count),
	}
}

func priorityCounts(buckets []domain.Bucket) map[domain.Priority]int {
	out := make(map[domain.Priority]int, len(domain.Priorities))
	for _, p := range domain.Priorities {
		out[p] = 0
	}
	for _, b := range buckets {
		if p := domain.Priority(b.Key); p.Valid() {
			out[p] = b.Count
		}
	}
	return out
}

func severityCounts(buckets []domain.Bucket) map[domain.Severity]int {
	out := make(map[domain.Severity]int, len(domain.Severities))
	for _, s := range domain.Severities {
		out[s] = 0
	}
	for _, b := range buckets {
		if s := domain.Severity(b.Key); s.Valid() {
			out[s] = b.Count
		}
	}
	return out
}

func distribution[T ~string](members []T, buckets []domain.Bucket, total int) []domain.DistributionEntry {
	counts := make(map[string]int, len(buckets))
	for _, b := range buckets {
		counts[b.Key] = b.Count
	}
	out := make([]domain.DistributionEntry, 0, len(members))
	for _, m := range members {
		c := counts[string(m)]
		out = append(out, domain.DistributionEntry{Category: string(m), Count: c, Percentage: percentage(c, total)})
	}
	return out
}

func matrix(buckets []domain.NestedBucket, total int) []domain.MatrixCell {
	counts := make(map[domain.Priority]map[domain.Severity]int, len(buckets))
	for _, nb := range buckets {
		p := domain.Priority(nb.Key)
		if !p.Valid() {
			continue
		}
		row := make(map[domain.Severity]int, len(nb.Sub))
		for _, sb := range nb.Sub {
			if s := domain.Severity(sb.Key); s.Valid() {
				row[s] = sb.Count
			}
		}
		counts[p] = row
	}
	out := make([]domain.MatrixCell, 0, len(domain.Priorities)*len(domain.Severities))
	for _, p := range domain.Priorities {
		for _, s := range domain.Severities {
			c := counts[p][s]
			out = append(out, domain.MatrixCell{Priority: p, Severity: s, Count: c, Percentage: percentage(c, total)})
		}
	}
	return out
}

// completionRate is the share of done items rounded to the nearest
// integer; percentage rounds to one decimal place. Both are 0 when the
// denominator is 0.
func completionRate(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

func percentage(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*1000) / 10
}
