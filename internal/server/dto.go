package server

import (
	"bytes"
	"encoding/json"

	"todoline/internal/domain"
	"todoline/internal/engine"
)

// Request payloads

type CreateTodoRequest struct {
	Title                *string  `json:"title,omitempty"`
	Description          *string  `json:"description,omitempty"`
	Status               *string  `json:"status,omitempty"`
	Priority             *string  `json:"priority,omitempty"`
	Severity             *string  `json:"severity,omitempty"`
	Tags                 []string `json:"tags,omitempty"`
	Assignee             *string  `json:"assignee,omitempty"`
	ComplianceFrameworks []string `json:"complianceFrameworks,omitempty"`
	DueDate              *string  `json:"dueDate,omitempty"`
}

// UpdateTodoRequest is the decode target for patch bodies. Patches arrive
// as raw bytes so the handler can tell an absent key from an explicit
// null; unknown keys are ignored rather than rejected.
type UpdateTodoRequest struct {
	Title                *string  `json:"title"`
	Description          *string  `json:"description"`
	Status               *string  `json:"status"`
	Priority             *string  `json:"priority"`
	Severity             *string  `json:"severity"`
	Tags                 []string `json:"tags"`
	Assignee             *string  `json:"assignee"`
	ComplianceFrameworks []string `json:"complianceFrameworks"`
	DueDate              *string  `json:"dueDate"`
}

// listTodosInput declares every list parameter as a plain string; the
// query normalizer owns coercion, so a malformed value degrades to its
// default instead of failing the request.
type listTodosInput struct {
	Page            string `query:"page"`
	PageSize        string `query:"pageSize"`
	Status          string `query:"status"`
	Tags            string `query:"tags"`
	SearchText      string `query:"searchText"`
	Assignee        string `query:"assignee"`
	Priority        string `query:"priority"`
	Severity        string `query:"severity"`
	Frameworks      string `query:"complianceFrameworks"`
	DueDateAfter    string `query:"dueDateAfter"`
	DueDateBefore   string `query:"dueDateBefore"`
	CreatedAfter    string `query:"createdAfter"`
	CreatedBefore   string `query:"createdBefore"`
	UpdatedAfter    string `query:"updatedAfter"`
	UpdatedBefore   string `query:"updatedBefore"`
	CompletedAfter  string `query:"completedAfter"`
	CompletedBefore string `query:"completedBefore"`
	IsOverdue       string `query:"isOverdue"`
	SortField       string `query:"sortField"`
	SortDirection   string `query:"sortDirection"`
}

func (in *listTodosInput) params() map[string]any {
	params := map[string]any{}
	addParam(params, "page", in.Page)
	addParam(params, "pageSize", in.PageSize)
	addParam(params, "status", in.Status)
	addParam(params, "tags", in.Tags)
	addParam(params, "searchText", in.SearchText)
	addParam(params, "assignee", in.Assignee)
	addParam(params, "priority", in.Priority)
	addParam(params, "severity", in.Severity)
	addParam(params, "complianceFrameworks", in.Frameworks)
	addParam(params, "dueDateAfter", in.DueDateAfter)
	addParam(params, "dueDateBefore", in.DueDateBefore)
	addParam(params, "createdAfter", in.CreatedAfter)
	addParam(params, "createdBefore", in.CreatedBefore)
	addParam(params, "updatedAfter", in.UpdatedAfter)
	addParam(params, "updatedBefore", in.UpdatedBefore)
	addParam(params, "completedAfter", in.CompletedAfter)
	addParam(params, "completedBefore", in.CompletedBefore)
	addParam(params, "isOverdue", in.IsOverdue)
	addParam(params, "sortField", in.SortField)
	addParam(params, "sortDirection", in.SortDirection)
	return params
}

func addParam(params map[string]any, key, value string) {
	if value != "" {
		params[key] = value
	}
}

// Conversion helpers

func createOptions(body CreateTodoRequest) engine.TodoCreateOptions {
	return engine.TodoCreateOptions{
		Title:       body.Title,
		Description: body.Description,
		Status:      body.Status,
		Priority:    body.Priority,
		Severity:    body.Severity,
		Tags:        body.Tags,
		Assignee:    body.Assignee,
		Frameworks:  body.ComplianceFrameworks,
		DueDate:     body.DueDate,
	}
}

// updateOptions builds the patch from the raw body. An explicit null on a
// required or enum field maps to an empty string so the strict validators
// reject it; null assignee and dueDate mean clear; null arrays mean empty.
func updateOptions(data []byte) (engine.TodoUpdateOptions, error) {
	var opts engine.TodoUpdateOptions
	if len(bytes.TrimSpace(data)) == 0 {
		return opts, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return opts, domain.ValidationError("request body must be a JSON object", map[string]any{"error": err.Error()})
	}
	var body UpdateTodoRequest
	if err := json.Unmarshal(data, &body); err != nil {
		return opts, domain.ValidationError("invalid request body", map[string]any{"error": err.Error()})
	}

	if r, ok := raw["title"]; ok {
		if isNullRaw(r) {
			opts.Title = strPtr("")
		} else {
			opts.Title = body.Title
		}
	}
	if r, ok := raw["description"]; ok {
		if isNullRaw(r) {
			opts.Description = strPtr("")
		} else {
			opts.Description = body.Description
		}
	}
	if r, ok := raw["status"]; ok {
		if isNullRaw(r) {
			opts.Status = strPtr("")
		} else {
			opts.Status = body.Status
		}
	}
	if r, ok := raw["priority"]; ok {
		if isNullRaw(r) {
			opts.Priority = strPtr("")
		} else {
			opts.Priority = body.Priority
		}
	}
	if r, ok := raw["severity"]; ok {
		if isNullRaw(r) {
			opts.Severity = strPtr("")
		} else {
			opts.Severity = body.Severity
		}
	}
	if _, ok := raw["tags"]; ok {
		tags := nonNilSlice(body.Tags)
		opts.Tags = &tags
	}
	if _, ok := raw["complianceFrameworks"]; ok {
		frameworks := nonNilSlice(body.ComplianceFrameworks)
		opts.Frameworks = &frameworks
	}
	if r, ok := raw["assignee"]; ok {
		if isNullRaw(r) {
			opts.ClearAssignee = true
		} else {
			opts.Assignee = body.Assignee
		}
	}
	if r, ok := raw["dueDate"]; ok {
		if isNullRaw(r) {
			opts.ClearDueDate = true
		} else {
			opts.DueDate = body.DueDate
		}
	}
	return opts, nil
}

func isNullRaw(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func nonNilSlice[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}

func strPtr(in string) *string {
	return &in
}
