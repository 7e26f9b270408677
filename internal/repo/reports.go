package repo

import (
	"context"
	"strings"

	"todoline/internal/domain"
)

// StatsAggregation runs the GROUP BY queries behind the statistics view.
// It reports only observed buckets; zero-fill is the mapper's job.
func (r Repo) StatsAggregation(ctx context.Context, q domain.StatsQuery) (domain.StatsAggregation, error) {
	var clauses []string
	var args []any
	if q.CreatedAfter != nil {
		clauses = append(clauses, "created_at>=?")
		args = append(args, *q.CreatedAfter)
	}
	if q.CreatedBefore != nil {
		clauses = append(clauses, "created_at<=?")
		args = append(args, *q.CreatedBefore)
	}
	where := whereClause(clauses)

	var agg domain.StatsAggregation
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM todos`+where, args...).Scan(&agg.Total); err != nil {
		return agg, domain.IndexError("stats total", err)
	}
	var err error
	agg.ByStatus, err = r.buckets(ctx, `SELECT status, count(*) FROM todos`+where+` GROUP BY status`, args...)
	if err != nil {
		return agg, domain.IndexError("stats by status", err)
	}
	agg.TopTags, err = r.buckets(ctx,
		`SELECT tt.tag, count(*) FROM todo_tags tt JOIN todos ON todos.id=tt.todo_id`+where+
			` GROUP BY tt.tag ORDER BY count(*) DESC, tt.tag ASC LIMIT ?`,
		append(copyArgs(args), q.TopTagsLimit)...)
	if err != nil {
		return agg, domain.IndexError("stats top tags", err)
	}
	agg.CompletedOverTime, err = r.buckets(ctx,
		`SELECT strftime('`+bucketFormat(q.Interval)+`', completed_at), count(*) FROM todos`+
			whereClause(append(copyClauses(clauses), "completed_at IS NOT NULL"))+
			` GROUP BY 1 ORDER BY 1 ASC`, args...)
	if err != nil {
		return agg, domain.IndexError("stats completed series", err)
	}
	agg.TopAssignees, err = r.buckets(ctx,
		`SELECT assignee, count(*) FROM todos`+
			whereClause(append(copyClauses(clauses), "assignee IS NOT NULL"))+
			` GROUP BY assignee ORDER BY count(*) DESC, assignee ASC LIMIT ?`,
		append(copyArgs(args), q.TopTagsLimit)...)
	if err != nil {
		return agg, domain.IndexError("stats top assignees", err)
	}
	err = r.DB.QueryRowContext(ctx,
		`SELECT count(*) FROM todos`+whereClause(append(copyClauses(clauses), "assignee IS NULL")), args...).
		Scan(&agg.UnassignedCount)
	if err != nil {
		return agg, domain.IndexError("stats unassigned", err)
	}
	return agg, nil
}

func bucketFormat(i domain.Interval) string {
	switch i {
	case domain.IntervalHour:
		return "%Y-%m-%dT%H:00"
	case domain.IntervalWeek:
		return "%Y-W%W"
	case domain.IntervalMonth:
		return "%Y-%m"
	default:
		return "%Y-%m-%d"
	}
}

// AnalyticsAggregation runs the queries behind the compliance/risk view.
// Framework narrows the scope to items carrying that framework; OverdueOnly
// narrows it to currently overdue items.
func (r Repo) AnalyticsAggregation(ctx context.Context, q domain.AnalyticsQuery) (domain.AnalyticsAggregation, error) {
	var clauses []string
	var args []any
	if q.Framework != nil {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM todo_frameworks tf WHERE tf.todo_id=todos.id AND tf.framework=?)`)
		args = append(args, *q.Framework)
	}
	now := domain.FormatInstant(r.now())
	overdueOnly := q.OverdueOnly != nil && *q.OverdueOnly
	if overdueOnly {
		clauses = append(clauses, overduePredicate)
		args = append(args, now)
	}
	where := whereClause(clauses)

	var agg domain.AnalyticsAggregation
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM todos`+where, args...).Scan(&agg.Total); err != nil {
		return agg, domain.IndexError("analytics total", err)
	}

	fclauses := copyClauses(clauses)
	fargs := copyArgs(args)
	if q.Framework != nil {
		fclauses = append(fclauses, "tf.framework=?")
		fargs = append(fargs, *q.Framework)
	}
	fwhere := whereClause(fclauses)
	outer, err := r.buckets(ctx,
		`SELECT tf.framework, count(*) FROM todo_frameworks tf JOIN todos ON todos.id=tf.todo_id`+fwhere+
			` GROUP BY tf.framework ORDER BY count(*) DESC, tf.framework ASC`, fargs...)
	if err != nil {
		return agg, domain.IndexError("analytics frameworks", err)
	}
	nested, err := r.pairBuckets(ctx,
		`SELECT tf.framework, todos.status, count(*) FROM todo_frameworks tf JOIN todos ON todos.id=tf.todo_id`+fwhere+
			` GROUP BY tf.framework, todos.status`, fargs...)
	if err != nil {
		return agg, domain.IndexError("analytics framework statuses", err)
	}
	for _, b := range outer {
		agg.Frameworks = append(agg.Frameworks, domain.FrameworkBucket{Key: b.Key, Count: b.Count, ByStatus: nested[b.Key]})
	}

	oclauses := copyClauses(clauses)
	oargs := copyArgs(args)
	if !overdueOnly {
		oclauses = append(oclauses, overduePredicate)
		oargs = append(oargs, now)
	}
	owhere := whereClause(oclauses)
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM todos`+owhere, oargs...).Scan(&agg.OverdueTotal); err != nil {
		return agg, domain.IndexError("analytics overdue total", err)
	}
	agg.OverduePriority, err = r.buckets(ctx, `SELECT priority, count(*) FROM todos`+owhere+` GROUP BY priority`, oargs...)
	if err != nil {
		return agg, domain.IndexError("analytics overdue by priority", err)
	}
	agg.OverdueSeverity, err = r.buckets(ctx, `SELECT severity, count(*) FROM todos`+owhere+` GROUP BY severity`, oargs...)
	if err != nil {
		return agg, domain.IndexError("analytics overdue by severity", err)
	}

	agg.ByPriority, err = r.buckets(ctx, `SELECT priority, count(*) FROM todos`+where+` GROUP BY priority`, args...)
	if err != nil {
		return agg, domain.IndexError("analytics by priority", err)
	}
	agg.BySeverity, err = r.buckets(ctx, `SELECT severity, count(*) FROM todos`+where+` GROUP BY severity`, args...)
	if err != nil {
		return agg, domain.IndexError("analytics by severity", err)
	}
	pairs, err := r.pairBuckets(ctx, `SELECT priority, severity, count(*) FROM todos`+where+` GROUP BY priority, severity`, args...)
	if err != nil {
		return agg, domain.IndexError("analytics priority severity", err)
	}
	for _, p := range domain.Priorities {
		if sub, ok := pairs[string(p)]; ok {
			count := 0
			for _, b := range sub {
				count += b.Count
			}
			agg.PrioritySeverity = append(agg.PrioritySeverity, domain.NestedBucket{Key: string(p), Count: count, Sub: sub})
		}
	}
	return agg, nil
}

func (r Repo) Suggestions(ctx context.Context) (domain.Suggestions, error) {
	tags, err := r.distinct(ctx, `SELECT DISTINCT tag FROM todo_tags ORDER BY tag ASC`)
	if err != nil {
		return domain.Suggestions{}, domain.IndexError("suggest tags", err)
	}
	frameworks, err := r.distinct(ctx, `SELECT DISTINCT framework FROM todo_frameworks ORDER BY framework ASC`)
	if err != nil {
		return domain.Suggestions{}, domain.IndexError("suggest frameworks", err)
	}
	return domain.Suggestions{Tags: tags, ComplianceFrameworks: frameworks}, nil
}

func (r Repo) buckets(ctx context.Context, query string, args ...any) ([]domain.Bucket, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Bucket
	for rows.Next() {
		var b domain.Bucket
		if err := rows.Scan(&b.Key, &b.Count); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// pairBuckets groups two-key count rows by their first key.
func (r Repo) pairBuckets(ctx context.Context, query string, args ...any) (map[string][]domain.Bucket, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]domain.Bucket{}
	for rows.Next() {
		var key string
		var b domain.Bucket
		if err := rows.Scan(&key, &b.Key, &b.Count); err != nil {
			return nil, err
		}
		out[key] = append(out[key], b)
	}
	return out, rows.Err()
}

func (r Repo) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func copyClauses(in []string) []string {
	return append([]string{}, in...)
}

func copyArgs(in []any) []any {
	return append([]any{}, in...)
}
