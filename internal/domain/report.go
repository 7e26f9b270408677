package domain

type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type AssigneeCount struct {
	Assignee string `json:"assignee"`
	Count    int    `json:"count"`
}

type TimeBucket struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatsView is the operational statistics report. ByStatus always carries
// all four statuses; the ranked lists keep backend order. Counts only, no
// percentages.
type StatsView struct {
	Total             int             `json:"total"`
	ByStatus          map[Status]int  `json:"byStatus"`
	TopTags           []TagCount      `json:"topTags"`
	CompletedOverTime []TimeBucket    `json:"completedOverTime"`
	TopAssignees      []AssigneeCount `json:"topAssignees"`
	UnassignedCount   int             `json:"unassignedCount"`
}

// FrameworkCoverage reports one observed compliance framework. ByStatus
// passes through the raw sub-buckets; frameworks are an open vocabulary, so
// nothing here is zero-filled.
type FrameworkCoverage struct {
	Framework      string         `json:"framework"`
	Total          int            `json:"total"`
	ByStatus       map[Status]int `json:"byStatus"`
	CompletionRate int            `json:"completionRate"`
}

type OverdueSummary struct {
	Total      int              `json:"total"`
	ByPriority map[Priority]int `json:"byPriority"`
	BySeverity map[Severity]int `json:"bySeverity"`
}

type DistributionEntry struct {
	Category   string  `json:"category"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

type MatrixCell struct {
	Priority   Priority `json:"priority"`
	Severity   Severity `json:"severity"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}

// AnalyticsView is the compliance/risk report. Distributions and the matrix
// are zero-filled against the fixed priority and severity enumerations; the
// matrix always has one cell per priority×severity combination.
type AnalyticsView struct {
	ComputedAt             string              `json:"computedAt" format:"date-time"`
	TotalTasks             int                 `json:"totalTasks"`
	ComplianceCoverage     []FrameworkCoverage `json:"complianceCoverage"`
	OverdueTasks           OverdueSummary      `json:"overdueTasks"`
	PriorityDistribution   []DistributionEntry `json:"priorityDistribution"`
	SeverityDistribution   []DistributionEntry `json:"severityDistribution"`
	PrioritySeverityMatrix []MatrixCell        `json:"prioritySeverityMatrix"`
}

// Bucket is one key/count pair from a backend aggregation.
type Bucket struct {
	Key   string
	Count int
}

// FrameworkBucket is a framework bucket with its status sub-buckets.
type FrameworkBucket struct {
	Key      string
	Count    int
	ByStatus []Bucket
}

// NestedBucket is a bucket with one level of sub-buckets.
type NestedBucket struct {
	Key   string
	Count int
	Sub   []Bucket
}

// StatsAggregation is the raw material for a StatsView. Bucket lists may be
// nil; the mapper treats missing lists as empty.
type StatsAggregation struct {
	Total             int
	ByStatus          []Bucket
	TopTags           []Bucket
	CompletedOverTime []Bucket
	TopAssignees      []Bucket
	UnassignedCount   int
}

// AnalyticsAggregation is the raw material for an AnalyticsView.
type AnalyticsAggregation struct {
	Total            int
	Frameworks       []FrameworkBucket
	OverdueTotal     int
	OverduePriority  []Bucket
	OverdueSeverity  []Bucket
	ByPriority       []Bucket
	BySeverity       []Bucket
	PrioritySeverity []NestedBucket
}
