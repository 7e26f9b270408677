// Package validate holds the per-field checks applied on create and update.
// Validators are strict: a present-but-invalid value is an error, never a
// silent fallback. The read-side query normalizer is the deliberate
// opposite.
package validate

import (
	"fmt"
	"strings"
	"time"

	"todoline/internal/domain"
)

const (
	TitleMaxLen       = 256
	DescriptionMaxLen = 4000
	TagsMax           = 20
	TagMaxLen         = 50
	AssigneeMaxLen    = 100
	FrameworksMax     = 10
	FrameworkMaxLen   = 100
)

func fieldError(field, message string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	details["field"] = field
	return domain.ValidationError(message, details)
}

// Title checks the title field. Required callers treat absence as an error;
// a present title must be non-blank after trimming in either case.
func Title(v *string, required bool) error {
	if v == nil {
		if required {
			return fieldError("title", "title is required", nil)
		}
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return fieldError("title", "title must not be blank", nil)
	}
	if len(trimmed) > TitleMaxLen {
		return fieldError("title", fmt.Sprintf("title must be at most %d characters", TitleMaxLen), map[string]any{"maxLength": TitleMaxLen, "length": len(trimmed)})
	}
	return nil
}

func Description(v *string) error {
	if v == nil {
		return nil
	}
	if len(*v) > DescriptionMaxLen {
		return fieldError("description", fmt.Sprintf("description must be at most %d characters", DescriptionMaxLen), map[string]any{"maxLength": DescriptionMaxLen, "length": len(*v)})
	}
	return nil
}

func Status(v *string) error {
	if v == nil {
		return nil
	}
	if !domain.Status(*v).Valid() {
		return fieldError("status", fmt.Sprintf("status must be one of %s", enumList(domain.Statuses)), map[string]any{"value": *v})
	}
	return nil
}

func Priority(v *string) error {
	if v == nil {
		return nil
	}
	if !domain.Priority(*v).Valid() {
		return fieldError("priority", fmt.Sprintf("priority must be one of %s", enumList(domain.Priorities)), map[string]any{"value": *v})
	}
	return nil
}

func Severity(v *string) error {
	if v == nil {
		return nil
	}
	if !domain.Severity(*v).Valid() {
		return fieldError("severity", fmt.Sprintf("severity must be one of %s", enumList(domain.Severities)), map[string]any{"value": *v})
	}
	return nil
}

func Tags(v []string) error {
	if len(v) > TagsMax {
		return fieldError("tags", fmt.Sprintf("at most %d tags allowed", TagsMax), map[string]any{"max": TagsMax, "count": len(v)})
	}
	for _, tag := range v {
		if len(tag) > TagMaxLen {
			return fieldError("tags", fmt.Sprintf("tag %q exceeds %d characters", tag, TagMaxLen), map[string]any{"maxLength": TagMaxLen})
		}
	}
	return nil
}

func Assignee(v *string) error {
	if v == nil {
		return nil
	}
	if len(*v) > AssigneeMaxLen {
		return fieldError("assignee", fmt.Sprintf("assignee must be at most %d characters", AssigneeMaxLen), map[string]any{"maxLength": AssigneeMaxLen, "length": len(*v)})
	}
	return nil
}

func Frameworks(v []string) error {
	if len(v) > FrameworksMax {
		return fieldError("complianceFrameworks", fmt.Sprintf("at most %d compliance frameworks allowed", FrameworksMax), map[string]any{"max": FrameworksMax, "count": len(v)})
	}
	for _, fw := range v {
		if len(fw) > FrameworkMaxLen {
			return fieldError("complianceFrameworks", fmt.Sprintf("framework %q exceeds %d characters", fw, FrameworkMaxLen), map[string]any{"maxLength": FrameworkMaxLen})
		}
	}
	return nil
}

// DueDate requires a full RFC3339 instant. Date-only values such as
// "2025-12-31" do not parse under the RFC3339 layout and are rejected.
func DueDate(v *string) error {
	if v == nil {
		return nil
	}
	if _, err := time.Parse(time.RFC3339, *v); err != nil {
		return fieldError("dueDate", "dueDate must be an RFC3339 date-time", map[string]any{"value": *v})
	}
	return nil
}

func enumList[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
