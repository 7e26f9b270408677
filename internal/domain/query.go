package domain

// SearchFilter narrows a todo search. Nil pointers and empty slices mean the
// predicate is not applied. Date bounds are RFC3339 strings, inclusive.
type SearchFilter struct {
	Statuses        []Status
	Tags            []string
	Priorities      []Priority
	Severities      []Severity
	Frameworks      []string
	Assignee        *string
	Search          *string
	DueAfter        *string
	DueBefore       *string
	CreatedAfter    *string
	CreatedBefore   *string
	UpdatedAfter    *string
	UpdatedBefore   *string
	CompletedAfter  *string
	CompletedBefore *string
	Overdue         *bool
}

type SortField string

const (
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortDueDate     SortField = "dueDate"
	SortCompletedAt SortField = "completedAt"
	SortTitle       SortField = "title"
	SortStatus      SortField = "status"
	SortPriority    SortField = "priority"
	SortSeverity    SortField = "severity"
	SortAssignee    SortField = "assignee"
)

var SortFields = []SortField{
	SortCreatedAt, SortUpdatedAt, SortDueDate, SortCompletedAt,
	SortTitle, SortStatus, SortPriority, SortSeverity, SortAssignee,
}

func (f SortField) Valid() bool {
	for _, v := range SortFields {
		if f == v {
			return true
		}
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type Sort struct {
	Field     SortField
	Direction SortDirection
}

func DefaultSort() Sort {
	return Sort{Field: SortCreatedAt, Direction: SortDesc}
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Page struct {
	Number int
	Size   int
}

func DefaultPage() Page {
	return Page{Number: 1, Size: DefaultPageSize}
}

// PageMeta describes one page of a result set.
type PageMeta struct {
	Page            int  `json:"page"`
	PageSize        int  `json:"pageSize"`
	TotalItems      int  `json:"totalItems"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPageMeta derives pagination metadata. TotalPages is zero when the
// result set is empty, and the navigation flags follow from the page number
// against TotalPages alone.
func NewPageMeta(page, pageSize, totalItems int) PageMeta {
	totalPages := 0
	if totalItems > 0 && pageSize > 0 {
		totalPages = (totalItems + pageSize - 1) / pageSize
	}
	return PageMeta{
		Page:            page,
		PageSize:        pageSize,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1 && totalPages > 0,
	}
}

type ListResult struct {
	Items []Todo   `json:"items"`
	Meta  PageMeta `json:"meta"`
}

type Interval string

const (
	IntervalHour  Interval = "hour"
	IntervalDay   Interval = "day"
	IntervalWeek  Interval = "week"
	IntervalMonth Interval = "month"
)

var Intervals = []Interval{IntervalHour, IntervalDay, IntervalWeek, IntervalMonth}

func (i Interval) Valid() bool {
	for _, v := range Intervals {
		if i == v {
			return true
		}
	}
	return false
}

const (
	DefaultInterval     = IntervalDay
	DefaultTopTagsLimit = 10
	MaxTopTagsLimit     = 100
)

// StatsQuery scopes the statistics aggregation.
type StatsQuery struct {
	CreatedAfter  *string
	CreatedBefore *string
	Interval      Interval
	TopTagsLimit  int
}

// AnalyticsQuery scopes the analytics aggregation.
type AnalyticsQuery struct {
	Framework   *string
	OverdueOnly *bool
}

// UpdateDoc is the raw partial document persisted by an update. A nil
// pointer leaves the column untouched; the Clear flags null it out. The
// merged entity is never written back wholesale.
type UpdateDoc struct {
	Title            *string
	Description      *string
	Status           *Status
	Priority         *Priority
	Severity         *Severity
	Tags             *[]string
	Frameworks       *[]string
	Assignee         *string
	ClearAssignee    bool
	DueDate          *string
	ClearDueDate     bool
	CompletedAt      *string
	ClearCompletedAt bool
	UpdatedAt        string
}
