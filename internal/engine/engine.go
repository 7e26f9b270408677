package engine

import (
	"context"
	"strings"
	"time"

	"todoline/internal/domain"
	"todoline/internal/report"
	"todoline/internal/validate"
)

// Store is the persistence and search collaborator. Implementations report
// a missing id as a domain NotFound error and backend faults as domain
// Index errors; the engine propagates both unchanged.
type Store interface {
	Create(ctx context.Context, t domain.Todo) (domain.Todo, error)
	Get(ctx context.Context, id string) (domain.Todo, error)
	Search(ctx context.Context, f domain.SearchFilter, s domain.Sort, offset, limit int) ([]domain.Todo, int, error)
	Update(ctx context.Context, id string, doc domain.UpdateDoc) error
	Delete(ctx context.Context, id string) error
	StatsAggregation(ctx context.Context, q domain.StatsQuery) (domain.StatsAggregation, error)
	AnalyticsAggregation(ctx context.Context, q domain.AnalyticsQuery) (domain.AnalyticsAggregation, error)
	Suggestions(ctx context.Context) (domain.Suggestions, error)
}

type Engine struct {
	Store Store
	Now   func() time.Time
}

func New(store Store) Engine {
	return Engine{Store: store, Now: time.Now}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

type TodoCreateOptions struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Severity    *string
	Tags        []string
	Assignee    *string
	Frameworks  []string
	DueDate     *string
}

// Create validates every writable field, applies defaults and stamps the
// backend-managed timestamps. A todo created directly in status done gets
// its completion time set to the creation time.
func (e Engine) Create(ctx context.Context, opts TodoCreateOptions) (domain.Todo, error) {
	if err := validate.Title(opts.Title, true); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Description(opts.Description); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Status(opts.Status); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Priority(opts.Priority); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Severity(opts.Severity); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Tags(opts.Tags); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Assignee(opts.Assignee); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Frameworks(opts.Frameworks); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.DueDate(opts.DueDate); err != nil {
		return domain.Todo{}, err
	}

	now := domain.FormatInstant(e.now())
	t := domain.Todo{
		Title:                strings.TrimSpace(*opts.Title),
		Status:               domain.DefaultStatus,
		Priority:             domain.DefaultPriority,
		Severity:             domain.DefaultSeverity,
		Tags:                 nonNil(opts.Tags),
		ComplianceFrameworks: nonNil(opts.Frameworks),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if opts.Description != nil {
		t.Description = *opts.Description
	}
	if opts.Status != nil {
		t.Status = domain.Status(*opts.Status)
	}
	if opts.Priority != nil {
		t.Priority = domain.Priority(*opts.Priority)
	}
	if opts.Severity != nil {
		t.Severity = domain.Severity(*opts.Severity)
	}
	if opts.Assignee != nil {
		if a := strings.TrimSpace(*opts.Assignee); a != "" {
			t.Assignee = &a
		}
	}
	if opts.DueDate != nil {
		d, _ := domain.NormalizeInstant(*opts.DueDate)
		t.DueDate = &d
	}
	if t.Status == domain.StatusDone {
		t.CompletedAt = &now
	}
	return e.Store.Create(ctx, t)
}

func (e Engine) Get(ctx context.Context, id string) (domain.Todo, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Todo{}, domain.ValidationError("id is required", map[string]any{"field": "id"})
	}
	return e.Store.Get(ctx, id)
}

// List runs a search and derives pagination metadata. Page bounds are
// clamped here as well, so direct callers get the same guarantees as
// callers going through the request normalizer.
func (e Engine) List(ctx context.Context, f domain.SearchFilter, page domain.Page, sort domain.Sort) (domain.ListResult, error) {
	if page.Number < 1 {
		page.Number = 1
	}
	if page.Size < 1 {
		page.Size = domain.DefaultPageSize
	}
	if page.Size > domain.MaxPageSize {
		page.Size = domain.MaxPageSize
	}
	if !sort.Field.Valid() {
		sort.Field = domain.SortCreatedAt
	}
	if sort.Direction != domain.SortAsc && sort.Direction != domain.SortDesc {
		sort.Direction = domain.SortDesc
	}
	offset := (page.Number - 1) * page.Size
	items, total, err := e.Store.Search(ctx, f, sort, offset, page.Size)
	if err != nil {
		return domain.ListResult{}, err
	}
	return domain.ListResult{
		Items: items,
		Meta:  domain.NewPageMeta(page.Number, page.Size, total),
	}, nil
}

type TodoUpdateOptions struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	Severity      *string
	Tags          *[]string
	Frameworks    *[]string
	Assignee      *string
	ClearAssignee bool
	DueDate       *string
	ClearDueDate  bool
}

func (o TodoUpdateOptions) empty() bool {
	return o.Title == nil && o.Description == nil && o.Status == nil &&
		o.Priority == nil && o.Severity == nil && o.Tags == nil &&
		o.Frameworks == nil && o.Assignee == nil && !o.ClearAssignee &&
		o.DueDate == nil && !o.ClearDueDate
}

// Update validates the present fields, persists the raw partial document
// and returns the merged view. An empty patch is rejected before the store
// is touched. A status change into done stamps CompletedAt with the update
// time; a change out of done clears it; updates that keep the status leave
// it alone.
func (e Engine) Update(ctx context.Context, id string, opts TodoUpdateOptions) (domain.Todo, error) {
	if strings.TrimSpace(id) == "" {
		return domain.Todo{}, domain.ValidationError("id is required", map[string]any{"field": "id"})
	}
	if opts.empty() {
		return domain.Todo{}, domain.ValidationError("at least one field required", nil)
	}
	if err := validate.Title(opts.Title, false); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Description(opts.Description); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Status(opts.Status); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Priority(opts.Priority); err != nil {
		return domain.Todo{}, err
	}
	if err := validate.Severity(opts.Severity); err != nil {
		return domain.Todo{}, err
	}
	if opts.Tags != nil {
		if err := validate.Tags(*opts.Tags); err != nil {
			return domain.Todo{}, err
		}
	}
	if err := validate.Assignee(opts.Assignee); err != nil {
		return domain.Todo{}, err
	}
	if opts.Frameworks != nil {
		if err := validate.Frameworks(*opts.Frameworks); err != nil {
			return domain.Todo{}, err
		}
	}
	if !opts.ClearDueDate {
		if err := validate.DueDate(opts.DueDate); err != nil {
			return domain.Todo{}, err
		}
	}

	existing, err := e.Store.Get(ctx, id)
	if err != nil {
		return domain.Todo{}, err
	}

	doc := buildUpdateDoc(existing, opts, domain.FormatInstant(e.now()))
	if err := e.Store.Update(ctx, id, doc); err != nil {
		return domain.Todo{}, err
	}
	return merge(existing, doc), nil
}

func buildUpdateDoc(existing domain.Todo, opts TodoUpdateOptions, now string) domain.UpdateDoc {
	doc := domain.UpdateDoc{
		Description: opts.Description,
		Tags:        opts.Tags,
		Frameworks:  opts.Frameworks,
		UpdatedAt:   now,
	}
	if opts.Title != nil {
		title := strings.TrimSpace(*opts.Title)
		doc.Title = &title
	}
	if opts.Status != nil {
		s := domain.Status(*opts.Status)
		doc.Status = &s
		if s != existing.Status {
			if s == domain.StatusDone {
				doc.CompletedAt = &now
			} else if existing.Status == domain.StatusDone {
				doc.ClearCompletedAt = true
			}
		}
	}
	if opts.Priority != nil {
		p := domain.Priority(*opts.Priority)
		doc.Priority = &p
	}
	if opts.Severity != nil {
		s := domain.Severity(*opts.Severity)
		doc.Severity = &s
	}
	if opts.ClearAssignee {
		doc.ClearAssignee = true
	} else if opts.Assignee != nil {
		if a := strings.TrimSpace(*opts.Assignee); a == "" {
			doc.ClearAssignee = true
		} else {
			doc.Assignee = &a
		}
	}
	if opts.ClearDueDate {
		doc.ClearDueDate = true
	} else if opts.DueDate != nil {
		d, _ := domain.NormalizeInstant(*opts.DueDate)
		doc.DueDate = &d
	}
	return doc
}

// merge applies an update document to an entity and returns the result as
// a new value. Pointer fields are re-pointed at copies so the merged view
// never aliases the document.
func merge(t domain.Todo, doc domain.UpdateDoc) domain.Todo {
	if doc.Title != nil {
		t.Title = *doc.Title
	}
	if doc.Description != nil {
		t.Description = *doc.Description
	}
	if doc.Status != nil {
		t.Status = *doc.Status
	}
	if doc.Priority != nil {
		t.Priority = *doc.Priority
	}
	if doc.Severity != nil {
		t.Severity = *doc.Severity
	}
	if doc.Tags != nil {
		t.Tags = append([]string(nil), (*doc.Tags)...)
	}
	if doc.Frameworks != nil {
		t.ComplianceFrameworks = append([]string(nil), (*doc.Frameworks)...)
	}
	if doc.ClearAssignee {
		t.Assignee = nil
	} else if doc.Assignee != nil {
		a := *doc.Assignee
		t.Assignee = &a
	}
	if doc.ClearDueDate {
		t.DueDate = nil
	} else if doc.DueDate != nil {
		d := *doc.DueDate
		t.DueDate = &d
	}
	if doc.ClearCompletedAt {
		t.CompletedAt = nil
	} else if doc.CompletedAt != nil {
		c := *doc.CompletedAt
		t.CompletedAt = &c
	}
	if doc.UpdatedAt != "" {
		t.UpdatedAt = doc.UpdatedAt
	}
	return t
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func (e Engine) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ValidationError("id is required", map[string]any{"field": "id"})
	}
	return e.Store.Delete(ctx, id)
}

func (e Engine) Suggestions(ctx context.Context) (domain.Suggestions, error) {
	return e.Store.Suggestions(ctx)
}

func (e Engine) Stats(ctx context.Context, q domain.StatsQuery) (domain.StatsView, error) {
	if !q.Interval.Valid() {
		q.Interval = domain.DefaultInterval
	}
	if q.TopTagsLimit < 1 {
		q.TopTagsLimit = domain.DefaultTopTagsLimit
	}
	if q.TopTagsLimit > domain.MaxTopTagsLimit {
		q.TopTagsLimit = domain.MaxTopTagsLimit
	}
	agg, err := e.Store.StatsAggregation(ctx, q)
	if err != nil {
		return domain.StatsView{}, err
	}
	return report.BuildStats(agg), nil
}

// Analytics stamps the view with the engine clock so reports are
// reproducible under a fixed Now.
func (e Engine) Analytics(ctx context.Context, q domain.AnalyticsQuery) (domain.AnalyticsView, error) {
	agg, err := e.Store.AnalyticsAggregation(ctx, q)
	if err != nil {
		return domain.AnalyticsView{}, err
	}
	return report.BuildAnalytics(e.now(), agg), nil
}
