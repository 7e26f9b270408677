package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"todoline/internal/domain"
	"todoline/internal/events"
)

// Repo implements the engine's store contract on SQLite. Missing ids
// surface as domain NotFound errors and database faults as domain Index
// errors. Now is the clock used for overdue comparisons and the activity
// log; tests pin it.
type Repo struct {
	DB  *sql.DB
	Now func() time.Time
}

func (r Repo) writer() events.Writer {
	return events.Writer{Now: r.Now}
}

func (r Repo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

const todoColumns = `id,title,description,status,priority,severity,assignee,due_date,created_at,updated_at,completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (domain.Todo, error) {
	var t domain.Todo
	var assignee, dueDate, completedAt sql.NullString
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Severity,
		&assignee, &dueDate, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err != nil {
		return t, err
	}
	if assignee.Valid {
		t.Assignee = &assignee.String
	}
	if dueDate.Valid {
		t.DueDate = &dueDate.String
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.String
	}
	return t, nil
}

func (r Repo) Create(ctx context.Context, t domain.Todo) (domain.Todo, error) {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.Tags = nonNilStrings(t.Tags)
	t.ComplianceFrameworks = nonNilStrings(t.ComplianceFrameworks)
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.Todo{}, domain.IndexError("create todo", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO todos(`+todoColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), string(t.Severity),
		nullableStringPtr(t.Assignee), nullableStringPtr(t.DueDate), t.CreatedAt, t.UpdatedAt, nullableStringPtr(t.CompletedAt))
	if err != nil {
		return domain.Todo{}, domain.IndexError("create todo", err)
	}
	if err := insertLabels(ctx, tx, "todo_tags", "tag", t.ID, t.Tags); err != nil {
		return domain.Todo{}, domain.IndexError("create todo tags", err)
	}
	if err := insertLabels(ctx, tx, "todo_frameworks", "framework", t.ID, t.ComplianceFrameworks); err != nil {
		return domain.Todo{}, domain.IndexError("create todo frameworks", err)
	}
	if err := r.writer().Append(ctx, tx, "todo.created", t.ID, events.EventPayload{"title": t.Title, "status": string(t.Status)}); err != nil {
		return domain.Todo{}, domain.IndexError("record event", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.Todo{}, domain.IndexError("create todo", err)
	}
	return t, nil
}

func (r Repo) Get(ctx context.Context, id string) (domain.Todo, error) {
	t, err := scanTodo(r.DB.QueryRowContext(ctx, `SELECT `+todoColumns+` FROM todos WHERE id=?`, id))
	if err == sql.ErrNoRows {
		return domain.Todo{}, domain.NotFoundError(id)
	}
	if err != nil {
		return domain.Todo{}, domain.IndexError("get todo", err)
	}
	t.Tags, err = r.labels(ctx, "todo_tags", "tag", id)
	if err != nil {
		return domain.Todo{}, domain.IndexError("get todo tags", err)
	}
	t.ComplianceFrameworks, err = r.labels(ctx, "todo_frameworks", "framework", id)
	if err != nil {
		return domain.Todo{}, domain.IndexError("get todo frameworks", err)
	}
	return t, nil
}

// Search returns one page of matches plus the total match count.
func (r Repo) Search(ctx context.Context, f domain.SearchFilter, s domain.Sort, offset, limit int) ([]domain.Todo, int, error) {
	clauses, args := r.filterClauses(f)
	where := whereClause(clauses)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT count(*) FROM todos`+where, args...).Scan(&total); err != nil {
		return nil, 0, domain.IndexError("count todos", err)
	}

	query := `SELECT ` + todoColumns + ` FROM todos` + where +
		` ORDER BY ` + orderExpr(s) + ` LIMIT ? OFFSET ?`
	rows, err := r.DB.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, domain.IndexError("search todos", err)
	}
	defer rows.Close()

	todos := []domain.Todo{}
	var ids []string
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, 0, domain.IndexError("search todos", err)
		}
		todos = append(todos, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, domain.IndexError("search todos", err)
	}

	tags, err := r.labelsFor(ctx, "todo_tags", "tag", ids)
	if err != nil {
		return nil, 0, domain.IndexError("search todo tags", err)
	}
	frameworks, err := r.labelsFor(ctx, "todo_frameworks", "framework", ids)
	if err != nil {
		return nil, 0, domain.IndexError("search todo frameworks", err)
	}
	for i := range todos {
		todos[i].Tags = nonNilStrings(tags[todos[i].ID])
		todos[i].ComplianceFrameworks = nonNilStrings(frameworks[todos[i].ID])
	}
	return todos, total, nil
}

// Update applies a partial document. Only present fields become SET
// clauses; the Clear flags null their columns.
func (r Repo) Update(ctx context.Context, id string, doc domain.UpdateDoc) error {
	var sets []string
	var args []any
	if doc.Title != nil {
		sets = append(sets, "title=?")
		args = append(args, *doc.Title)
	}
	if doc.Description != nil {
		sets = append(sets, "description=?")
		args = append(args, *doc.Description)
	}
	if doc.Status != nil {
		sets = append(sets, "status=?")
		args = append(args, string(*doc.Status))
	}
	if doc.Priority != nil {
		sets = append(sets, "priority=?")
		args = append(args, string(*doc.Priority))
	}
	if doc.Severity != nil {
		sets = append(sets, "severity=?")
		args = append(args, string(*doc.Severity))
	}
	if doc.ClearAssignee {
		sets = append(sets, "assignee=NULL")
	} else if doc.Assignee != nil {
		sets = append(sets, "assignee=?")
		args = append(args, *doc.Assignee)
	}
	if doc.ClearDueDate {
		sets = append(sets, "due_date=NULL")
	} else if doc.DueDate != nil {
		sets = append(sets, "due_date=?")
		args = append(args, *doc.DueDate)
	}
	if doc.ClearCompletedAt {
		sets = append(sets, "completed_at=NULL")
	} else if doc.CompletedAt != nil {
		sets = append(sets, "completed_at=?")
		args = append(args, *doc.CompletedAt)
	}
	if doc.UpdatedAt != "" {
		sets = append(sets, "updated_at=?")
		args = append(args, doc.UpdatedAt)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.IndexError("update todo", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE todos SET `+strings.Join(sets, ",")+` WHERE id=?`, append(args, id)...)
	if err != nil {
		return domain.IndexError("update todo", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.IndexError("update todo", err)
	}
	if n == 0 {
		return domain.NotFoundError(id)
	}
	if doc.Tags != nil {
		if err := replaceLabels(ctx, tx, "todo_tags", "tag", id, *doc.Tags); err != nil {
			return domain.IndexError("update todo tags", err)
		}
	}
	if doc.Frameworks != nil {
		if err := replaceLabels(ctx, tx, "todo_frameworks", "framework", id, *doc.Frameworks); err != nil {
			return domain.IndexError("update todo frameworks", err)
		}
	}
	if err := r.writer().Append(ctx, tx, "todo.updated", id, events.EventPayload{"fields": changedFields(doc)}); err != nil {
		return domain.IndexError("record event", err)
	}
	if doc.CompletedAt != nil {
		if err := r.writer().Append(ctx, tx, "todo.completed", id, events.EventPayload{}); err != nil {
			return domain.IndexError("record event", err)
		}
	} else if doc.ClearCompletedAt {
		if err := r.writer().Append(ctx, tx, "todo.reopened", id, events.EventPayload{}); err != nil {
			return domain.IndexError("record event", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.IndexError("update todo", err)
	}
	return nil
}

// changedFields lists the wire names of the fields a document touches, for
// the activity log. Derived timestamps are not listed.
func changedFields(doc domain.UpdateDoc) []string {
	fields := []string{}
	if doc.Title != nil {
		fields = append(fields, "title")
	}
	if doc.Description != nil {
		fields = append(fields, "description")
	}
	if doc.Status != nil {
		fields = append(fields, "status")
	}
	if doc.Priority != nil {
		fields = append(fields, "priority")
	}
	if doc.Severity != nil {
		fields = append(fields, "severity")
	}
	if doc.Tags != nil {
		fields = append(fields, "tags")
	}
	if doc.Frameworks != nil {
		fields = append(fields, "complianceFrameworks")
	}
	if doc.Assignee != nil || doc.ClearAssignee {
		fields = append(fields, "assignee")
	}
	if doc.DueDate != nil || doc.ClearDueDate {
		fields = append(fields, "dueDate")
	}
	return fields
}

func (r Repo) Delete(ctx context.Context, id string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return domain.IndexError("delete todo", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE id=?`, id)
	if err != nil {
		return domain.IndexError("delete todo", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.IndexError("delete todo", err)
	}
	if n == 0 {
		return domain.NotFoundError(id)
	}
	if err := r.writer().Append(ctx, tx, "todo.deleted", id, nil); err != nil {
		return domain.IndexError("record event", err)
	}
	if err := tx.Commit(); err != nil {
		return domain.IndexError("delete todo", err)
	}
	return nil
}

// LatestEvents returns activity-log entries newest first, optionally
// scoped to one todo or one event type.
func (r Repo) LatestEvents(ctx context.Context, limit int, todoID, evtType string) ([]domain.Event, error) {
	clauses := []string{"1=1"}
	var args []any
	if todoID != "" {
		clauses = append(clauses, "todo_id=?")
		args = append(args, todoID)
	}
	if evtType != "" {
		clauses = append(clauses, "type=?")
		args = append(args, evtType)
	}
	query := `SELECT id,ts,type,todo_id,payload_json FROM events WHERE ` + strings.Join(clauses, " AND ") + ` ORDER BY id DESC LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, domain.IndexError("list events", err)
	}
	defer rows.Close()
	res := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		var todo, payload sql.NullString
		if err := rows.Scan(&e.ID, &e.TS, &e.Type, &todo, &payload); err != nil {
			return nil, domain.IndexError("list events", err)
		}
		e.TodoID = todo.String
		e.Payload = payload.String
		res = append(res, e)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.IndexError("list events", err)
	}
	return res, nil
}

func (r Repo) filterClauses(f domain.SearchFilter) ([]string, []any) {
	var clauses []string
	var args []any
	if len(f.Statuses) > 0 {
		clauses = append(clauses, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, v := range f.Statuses {
			args = append(args, string(v))
		}
	}
	if len(f.Priorities) > 0 {
		clauses = append(clauses, "priority IN ("+placeholders(len(f.Priorities))+")")
		for _, v := range f.Priorities {
			args = append(args, string(v))
		}
	}
	if len(f.Severities) > 0 {
		clauses = append(clauses, "severity IN ("+placeholders(len(f.Severities))+")")
		for _, v := range f.Severities {
			args = append(args, string(v))
		}
	}
	if len(f.Tags) > 0 {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM todo_tags tt WHERE tt.todo_id=todos.id AND tt.tag IN (`+placeholders(len(f.Tags))+`))`)
		for _, v := range f.Tags {
			args = append(args, v)
		}
	}
	if len(f.Frameworks) > 0 {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM todo_frameworks tf WHERE tf.todo_id=todos.id AND tf.framework IN (`+placeholders(len(f.Frameworks))+`))`)
		for _, v := range f.Frameworks {
			args = append(args, v)
		}
	}
	if f.Assignee != nil {
		clauses = append(clauses, "assignee=?")
		args = append(args, *f.Assignee)
	}
	if f.Search != nil {
		like := "%" + escapeLike(*f.Search) + "%"
		clauses = append(clauses, `(title LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	ranges := []struct {
		column string
		op     string
		value  *string
	}{
		{"due_date", ">=", f.DueAfter},
		{"due_date", "<=", f.DueBefore},
		{"created_at", ">=", f.CreatedAfter},
		{"created_at", "<=", f.CreatedBefore},
		{"updated_at", ">=", f.UpdatedAfter},
		{"updated_at", "<=", f.UpdatedBefore},
		{"completed_at", ">=", f.CompletedAfter},
		{"completed_at", "<=", f.CompletedBefore},
	}
	for _, rg := range ranges {
		if rg.value != nil {
			clauses = append(clauses, rg.column+rg.op+"?")
			args = append(args, *rg.value)
		}
	}
	if f.Overdue != nil {
		now := domain.FormatInstant(r.now())
		if *f.Overdue {
			clauses = append(clauses, overduePredicate)
		} else {
			clauses = append(clauses, `(due_date IS NULL OR due_date >= ? OR status = 'done')`)
		}
		args = append(args, now)
	}
	return clauses, args
}

// overduePredicate matches items whose due date is past and whose status
// is not done. Takes one arg: the current instant.
const overduePredicate = `(due_date IS NOT NULL AND due_date < ? AND status != 'done')`

var sortColumns = map[domain.SortField]string{
	domain.SortCreatedAt:   "created_at",
	domain.SortUpdatedAt:   "updated_at",
	domain.SortDueDate:     "due_date",
	domain.SortCompletedAt: "completed_at",
	domain.SortTitle:       "title",
	domain.SortStatus:      "status",
	domain.SortAssignee:    "assignee",
}

// orderExpr maps the sort to SQL. Priority and severity sort by rank, not
// alphabetically; id breaks ties so pages are stable.
func orderExpr(s domain.Sort) string {
	dir := "DESC"
	if s.Direction == domain.SortAsc {
		dir = "ASC"
	}
	col, ok := sortColumns[s.Field]
	if !ok {
		switch s.Field {
		case domain.SortPriority:
			col = `CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 WHEN 'high' THEN 2 ELSE 3 END`
		case domain.SortSeverity:
			col = `CASE severity WHEN 'info' THEN 0 WHEN 'low' THEN 1 WHEN 'medium' THEN 2 WHEN 'high' THEN 3 ELSE 4 END`
		default:
			col = "created_at"
		}
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}

func (r Repo) labels(ctx context.Context, table, column, id string) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM %s WHERE todo_id=? ORDER BY pos`, column, table), id)
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

// labelsFor loads child rows for a batch of todos in one query.
func (r Repo) labelsFor(ctx context.Context, table, column string, ids []string) (map[string][]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		fmt.Sprintf(`SELECT todo_id, %s FROM %s WHERE todo_id IN (%s) ORDER BY todo_id, pos`, column, table, placeholders(len(ids))), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string][]string{}
	for rows.Next() {
		var id, v string
		if err := rows.Scan(&id, &v); err != nil {
			return nil, err
		}
		out[id] = append(out[id], v)
	}
	return out, rows.Err()
}

func insertLabels(ctx context.Context, tx *sql.Tx, table, column, id string, values []string) error {
	for i, v := range values {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO %s(todo_id,pos,%s) VALUES (?,?,?)`, table, column), id, i, v); err != nil {
			return err
		}
	}
	return nil
}

func replaceLabels(ctx context.Context, tx *sql.Tx, table, column, id string, values []string) error {
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE todo_id=?`, table), id); err != nil {
		return err
	}
	return insertLabels(ctx, tx, table, column, id, values)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func nullableStringPtr(v *string) any {
	if v == nil {
		return nil
	}
	if *v == "" {
		return nil
	}
	return *v
}
