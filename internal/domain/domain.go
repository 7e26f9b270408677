package domain

type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusError      Status = "error"
)

// Statuses lists every status in canonical order. Zero-filled views follow
// this order.
var Statuses = []Status{StatusPlanned, StatusInProgress, StatusDone, StatusError}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var Severities = []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

func (s Severity) Valid() bool {
	for _, v := range Severities {
		if s == v {
			return true
		}
	}
	return false
}

const (
	DefaultStatus   = StatusPlanned
	DefaultPriority = PriorityMedium
	DefaultSeverity = SeverityLow
)

// Todo is a tracked work item. Timestamps are RFC3339 UTC strings so that
// lexicographic order matches chronological order. CompletedAt is present
// exactly when Status is done.
type Todo struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	Description          string   `json:"description,omitempty"`
	Status               Status   `json:"status" enum:"planned,in_progress,done,error"`
	Priority             Priority `json:"priority" enum:"low,medium,high,critical"`
	Severity             Severity `json:"severity" enum:"info,low,medium,high,critical"`
	Tags                 []string `json:"tags"`
	Assignee             *string  `json:"assignee,omitempty"`
	ComplianceFrameworks []string `json:"complianceFrameworks"`
	DueDate              *string  `json:"dueDate,omitempty" format:"date-time"`
	CreatedAt            string   `json:"createdAt" format:"date-time"`
	UpdatedAt            string   `json:"updatedAt" format:"date-time"`
	CompletedAt          *string  `json:"completedAt,omitempty" format:"date-time"`
}

// Suggestions holds the distinct tags and compliance frameworks currently in
// use, for input completion.
type Suggestions struct {
	Tags                 []string `json:"tags"`
	ComplianceFrameworks []string `json:"complianceFrameworks"`
}

// Event is one activity-log entry. Payload carries the JSON recorded at
// write time, unparsed.
type Event struct {
	ID      int64  `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	TodoID  string `json:"todoId,omitempty"`
	Payload string `json:"payload,omitempty"`
}
