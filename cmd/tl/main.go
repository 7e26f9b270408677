package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"todoline/internal/app"
	"todoline/internal/config"
	"todoline/internal/db"
	"todoline/internal/engine"
	"todoline/internal/query"
	"todoline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "tl",
	Short: "Todoline CLI",
	Long: `Todoline tracks work items with search, statistics and compliance analytics.
- Workspace: the directory holding the .todoline database; pick one with --workspace.
- Todos: work items with status (planned/in_progress/done/error), priority, severity,
  tags, an assignee, compliance frameworks and a due date.
- Search: 'tl todo list' filters on any field, paginates and sorts.
- Stats and analytics: 'tl stats' for counts, 'tl analytics' for compliance coverage
  and overdue risk breakdowns.
- Activity log: every change is recorded; view with 'tl log'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TODOLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func registerCommands() {
	rootCmd.AddCommand(todoCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(analyticsCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func todoCmd() *cobra.Command {
	todo := &cobra.Command{
		Use:   "todo",
		Short: "Manage todos",
	}
	todo.AddCommand(todoAddCmd())
	todo.AddCommand(todoListCmd())
	todo.AddCommand(todoShowCmd())
	todo.AddCommand(todoUpdateCmd())
	todo.AddCommand(todoDeleteCmd())
	return todo
}

func todoAddCmd() *cobra.Command {
	var title, description, status, priority, severity, assignee, due string
	var tags, frameworks []string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a todo",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.TodoCreateOptions{
				Title:       optionalString(title),
				Description: optionalString(description),
				Status:      optionalString(status),
				Priority:    optionalString(priority),
				Severity:    optionalString(severity),
				Tags:        tags,
				Assignee:    optionalString(assignee),
				Frameworks:  frameworks,
				DueDate:     optionalString(due),
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Engine.Create(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&status, "status", "", "status (planned|in_progress|done|error)")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low|medium|high|critical)")
	cmd.Flags().StringVar(&severity, "severity", "", "severity (info|low|medium|high|critical)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee")
	cmd.Flags().StringArrayVar(&frameworks, "framework", nil, "compliance framework (repeatable)")
	cmd.Flags().StringVar(&due, "due", "", "due date (RFC3339)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func todoListCmd() *cobra.Command {
	var page, pageSize int
	var overdue bool
	var status, priority, severity, tags, frameworks []string
	var search, assignee, sortField, sortDir string
	var dueAfter, dueBefore, createdAfter, createdBefore, updatedAfter, updatedBefore, completedAfter, completedBefore string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Search todos",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			if cmd.Flags().Changed("page") {
				params["page"] = page
			}
			if cmd.Flags().Changed("page-size") {
				params["pageSize"] = pageSize
			}
			if len(status) > 0 {
				params["status"] = status
			}
			if len(priority) > 0 {
				params["priority"] = priority
			}
			if len(severity) > 0 {
				params["severity"] = severity
			}
			if len(tags) > 0 {
				params["tags"] = tags
			}
			if len(frameworks) > 0 {
				params["complianceFrameworks"] = frameworks
			}
			addStringParam(params, "searchText", search)
			addStringParam(params, "assignee", assignee)
			addStringParam(params, "dueDateAfter", dueAfter)
			addStringParam(params, "dueDateBefore", dueBefore)
			addStringParam(params, "createdAfter", createdAfter)
			addStringParam(params, "createdBefore", createdBefore)
			addStringParam(params, "updatedAfter", updatedAfter)
			addStringParam(params, "updatedBefore", updatedBefore)
			addStringParam(params, "completedAfter", completedAfter)
			addStringParam(params, "completedBefore", completedBefore)
			if cmd.Flags().Changed("overdue") {
				params["isOverdue"] = overdue
			}
			addStringParam(params, "sortField", sortField)
			addStringParam(params, "sortDirection", sortDir)

			req, warnings := query.NormalizeList(params)
			printWarnings(warnings)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.List(ctx, req.Filter, req.Page, req.Sort)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(res)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Priority", "Severity", "Assignee", "Due"})
				for _, t := range res.Items {
					assignee := ""
					if t.Assignee != nil {
						assignee = *t.Assignee
					}
					due := ""
					if t.DueDate != nil {
						due = *t.DueDate
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status, t.Priority, t.Severity, assignee, due})
				}
				tw.Render()
				fmt.Printf("page %d of %d (%d todos)\n", res.Meta.Page, res.Meta.TotalPages, res.Meta.TotalItems)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&pageSize, "page-size", 20, "page size (max 100)")
	cmd.Flags().StringArrayVar(&status, "status", nil, "status filter (repeatable)")
	cmd.Flags().StringArrayVar(&priority, "priority", nil, "priority filter (repeatable)")
	cmd.Flags().StringArrayVar(&severity, "severity", nil, "severity filter (repeatable)")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "tag filter (repeatable, any match)")
	cmd.Flags().StringArrayVar(&frameworks, "framework", nil, "framework filter (repeatable, any match)")
	cmd.Flags().StringVar(&search, "search", "", "free text over title and description")
	cmd.Flags().StringVar(&assignee, "assignee", "", "assignee filter")
	cmd.Flags().StringVar(&dueAfter, "due-after", "", "due on or after (RFC3339)")
	cmd.Flags().StringVar(&dueBefore, "due-before", "", "due on or before (RFC3339)")
	cmd.Flags().StringVar(&createdAfter, "created-after", "", "created on or after (RFC3339)")
	cmd.Flags().StringVar(&createdBefore, "created-before", "", "created on or before (RFC3339)")
	cmd.Flags().StringVar(&updatedAfter, "updated-after", "", "updated on or after (RFC3339)")
	cmd.Flags().StringVar(&updatedBefore, "updated-before", "", "updated on or before (RFC3339)")
	cmd.Flags().StringVar(&completedAfter, "completed-after", "", "completed on or after (RFC3339)")
	cmd.Flags().StringVar(&completedBefore, "completed-before", "", "completed on or before (RFC3339)")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "overdue only (=false for not overdue)")
	cmd.Flags().StringVar(&sortField, "sort", "", "sort field")
	cmd.Flags().StringVar(&sortDir, "direction", "", "sort direction (asc|desc)")
	return cmd
}

func todoShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Engine.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	return cmd
}

func todoUpdateCmd() *cobra.Command {
	var title, description, status, priority, severity, assignee, due string
	var tags, frameworks []string
	var clearAssignee, clearDue, clearTags, clearFrameworks bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.TodoUpdateOptions{}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if cmd.Flags().Changed("status") {
				opts.Status = &status
			}
			if cmd.Flags().Changed("priority") {
				opts.Priority = &priority
			}
			if cmd.Flags().Changed("severity") {
				opts.Severity = &severity
			}
			if clearTags {
				opts.Tags = &[]string{}
			} else if cmd.Flags().Changed("tag") {
				opts.Tags = &tags
			}
			if clearFrameworks {
				opts.Frameworks = &[]string{}
			} else if cmd.Flags().Changed("framework") {
				opts.Frameworks = &frameworks
			}
			if clearAssignee {
				opts.ClearAssignee = true
			} else if cmd.Flags().Changed("assignee") {
				opts.Assignee = &assignee
			}
			if clearDue {
				opts.ClearDueDate = true
			} else if cmd.Flags().Changed("due") {
				opts.DueDate = &due
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				t, err := a.Engine.Update(ctx, args[0], opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&status, "status", "", "new status")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	cmd.Flags().StringVar(&severity, "severity", "", "new severity")
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "replace tags (repeatable)")
	cmd.Flags().StringArrayVar(&frameworks, "framework", nil, "replace frameworks (repeatable)")
	cmd.Flags().StringVar(&assignee, "assignee", "", "new assignee")
	cmd.Flags().StringVar(&due, "due", "", "new due date (RFC3339)")
	cmd.Flags().BoolVar(&clearAssignee, "clear-assignee", false, "unassign")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().BoolVar(&clearTags, "clear-tags", false, "remove all tags")
	cmd.Flags().BoolVar(&clearFrameworks, "clear-frameworks", false, "remove all frameworks")
	return cmd
}

func todoDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				if err := a.Engine.Delete(ctx, args[0]); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"deleted": args[0]})
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func statsCmd() *cobra.Command {
	var createdAfter, createdBefore, interval string
	var top int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Todo statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			addStringParam(params, "createdAfter", createdAfter)
			addStringParam(params, "createdBefore", createdBefore)
			addStringParam(params, "timeInterval", interval)
			if cmd.Flags().Changed("top") {
				params["topTagsLimit"] = top
			}
			q, warnings := query.NormalizeStats(params)
			printWarnings(warnings)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				view, err := a.Engine.Stats(ctx, q)
				if err != nil {
					return err
				}
				return printJSONOrTable(view)
			})
		},
	}
	cmd.Flags().StringVar(&createdAfter, "created-after", "", "count todos created on or after (RFC3339)")
	cmd.Flags().StringVar(&createdBefore, "created-before", "", "count todos created on or before (RFC3339)")
	cmd.Flags().StringVar(&interval, "interval", "", "completion bucket (hour|day|week|month)")
	cmd.Flags().IntVar(&top, "top", 10, "top tags/assignees limit")
	return cmd
}

func analyticsCmd() *cobra.Command {
	var framework string
	var overdueOnly bool
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Compliance and risk analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			params := map[string]any{}
			addStringParam(params, "complianceFramework", framework)
			if cmd.Flags().Changed("overdue-only") {
				params["overdueOnly"] = overdueOnly
			}
			q, warnings := query.NormalizeAnalytics(params)
			printWarnings(warnings)
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				view, err := a.Engine.Analytics(ctx, q)
				if err != nil {
					return err
				}
				return printJSONOrTable(view)
			})
		},
	}
	cmd.Flags().StringVar(&framework, "framework", "", "restrict to one compliance framework")
	cmd.Flags().BoolVar(&overdueOnly, "overdue-only", false, "only overdue todos")
	return cmd
}

func suggestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Tags and frameworks in use",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				s, err := a.Engine.Suggestions(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	var n int
	var evtType, todoID string
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Activity log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				events, err := a.Repo.LatestEvents(ctx, n, todoID, evtType)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Todo", "Payload"})
				for _, e := range events {
					tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.TodoID, e.Payload})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&todoID, "id", "", "todo id filter")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Workspace configuration",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default todoline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := atomic.WriteFile(path, strings.NewReader(config.GenerateDefault())); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			data, err := os.ReadFile(path)
			if err != nil {
				if os.IsNotExist(err) {
					fmt.Print(config.GenerateDefault())
					return nil
				}
				return err
			}
			if _, err := config.FromYAML(data); err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer a.Close()
			if !cmd.Flags().Changed("addr") && a.Config.Server.Listen != "" {
				addr = a.Config.Server.Listen
			}
			if !cmd.Flags().Changed("base-path") && a.Config.Server.BasePath != "" {
				basePath = a.Config.Server.BasePath
			}
			authCfg := server.AuthConfig{JWTSecret: a.Config.Auth.JWTSecret, APIKey: a.Config.Auth.APIKey}
			if s := os.Getenv("TODOLINE_JWT_SECRET"); s != "" {
				authCfg.JWTSecret = s
			}
			if s := os.Getenv("TODOLINE_API_KEY"); s != "" {
				authCfg.APIKey = s
			}
			handler, err := server.New(server.Config{
				Engine:          a.Engine,
				BasePath:        basePath,
				Auth:            authCfg,
				DefaultPageSize: a.Config.Defaults.PageSize,
				DefaultTopTags:  a.Config.Defaults.TopTagsLimit,
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Todoline API on http://%s%s (OpenAPI at /openapi.json, docs at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
}

func addStringParam(params map[string]any, key, value string) {
	if value != "" {
		params[key] = value
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
