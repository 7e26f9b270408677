package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"todoline/internal/domain"
	"todoline/internal/engine"
	"todoline/internal/query"
)

// Config for the HTTP API handler.
type Config struct {
	Engine          engine.Engine
	BasePath        string
	Auth            AuthConfig
	Logger          *log.Logger
	DefaultPageSize int
	DefaultTopTags  int
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"validation_error"`
	Message string         `json:"message" example:"title is required"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true" example:"{\"field\":\"title\"}"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Todoline API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	huma.DefaultArrayNullable = false
	// Route Huma's own errors through the same envelope.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(newAuthMiddleware(basePath, cfg.Auth))

	hcfg := huma.DefaultConfig("Todoline API", "0.1.0")
	hcfg.OpenAPIPath = "/openapi"
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	s := service{
		engine:          cfg.Engine,
		logger:          cfg.Logger,
		defaultPageSize: cfg.DefaultPageSize,
		defaultTopTags:  cfg.DefaultTopTags,
	}
	registerHealth(group)
	s.registerTodos(group)
	return router, nil
}

type service struct {
	engine          engine.Engine
	logger          *log.Logger
	defaultPageSize int
	defaultTopTags  int
}

func (s service) log() *log.Logger {
	if s.logger != nil {
		return s.logger
	}
	return log.Default()
}

// warn logs normalizer fallbacks; they never fail the request.
func (s service) warn(ctx context.Context, op string, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	subject := "-"
	if p, ok := principalFromContext(ctx); ok {
		subject = p.Subject
	}
	for _, w := range warnings {
		s.log().Printf("%s: %s (subject=%s)", op, w, subject)
	}
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps the domain error kinds onto the envelope. Conflict and
// business-rule kinds are mapped even though nothing raises them yet.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		switch de.Kind {
		case domain.ErrValidation:
			return newAPIError(http.StatusBadRequest, string(de.Kind), de.Message, de.Details)
		case domain.ErrNotFound:
			return newAPIError(http.StatusNotFound, string(de.Kind), de.Message, de.Details)
		case domain.ErrConflict:
			return newAPIError(http.StatusConflict, string(de.Kind), de.Message, de.Details)
		case domain.ErrBusinessRule:
			return newAPIError(http.StatusUnprocessableEntity, string(de.Kind), de.Message, de.Details)
		case domain.ErrIndex, domain.ErrInternal:
			return newAPIError(http.StatusInternalServerError, string(de.Kind), "internal error", map[string]any{"error": de.Message})
		}
	}
	return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": err.Error()})
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "validation_error"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "business_rule"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

func registerHealth(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body struct {
			Status string `json:"status" example:"ok"`
		} `json:"body"`
	}, error) {
		resp := &struct {
			Body struct {
				Status string `json:"status" example:"ok"`
			} `json:"body"`
		}{}
		resp.Body.Status = "ok"
		return resp, nil
	})
}

func (s service) registerTodos(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-todo",
		Method:        http.MethodPost,
		Path:          "/todos",
		Summary:       "Create todo",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Body CreateTodoRequest `json:"body"`
	}) (*struct {
		Body domain.Todo `json:"body"`
	}, error) {
		t, err := s.engine.Create(ctx, createOptions(input.Body))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Todo `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-todos",
		Method:      http.MethodGet,
		Path:        "/todos",
		Summary:     "List todos",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *listTodosInput) (*struct {
		Body domain.ListResult `json:"body"`
	}, error) {
		params := input.params()
		req, warnings := query.NormalizeList(params)
		s.warn(ctx, "list-todos", warnings)
		if _, ok := params["pageSize"]; !ok && s.defaultPageSize > 0 {
			req.Page.Size = s.defaultPageSize
		}
		res, err := s.engine.List(ctx, req.Filter, req.Page, req.Sort)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.ListResult `json:"body"`
		}{Body: res}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "todo-stats",
		Method:      http.MethodGet,
		Path:        "/todos/stats",
		Summary:     "Todo statistics",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		CreatedAfter  string `query:"createdAfter"`
		CreatedBefore string `query:"createdBefore"`
		TimeInterval  string `query:"timeInterval"`
		TopTagsLimit  string `query:"topTagsLimit"`
	}) (*struct {
		Body domain.StatsView `json:"body"`
	}, error) {
		params := map[string]any{}
		addParam(params, "createdAfter", input.CreatedAfter)
		addParam(params, "createdBefore", input.CreatedBefore)
		addParam(params, "timeInterval", input.TimeInterval)
		addParam(params, "topTagsLimit", input.TopTagsLimit)
		q, warnings := query.NormalizeStats(params)
		s.warn(ctx, "todo-stats", warnings)
		if _, ok := params["topTagsLimit"]; !ok && s.defaultTopTags > 0 {
			q.TopTagsLimit = s.defaultTopTags
		}
		view, err := s.engine.Stats(ctx, q)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.StatsView `json:"body"`
		}{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "todo-analytics",
		Method:      http.MethodGet,
		Path:        "/todos/analytics",
		Summary:     "Compliance and risk analytics",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Framework   string `query:"complianceFramework"`
		OverdueOnly string `query:"overdueOnly"`
	}) (*struct {
		Body domain.AnalyticsView `json:"body"`
	}, error) {
		params := map[string]any{}
		addParam(params, "complianceFramework", input.Framework)
		addParam(params, "overdueOnly", input.OverdueOnly)
		q, warnings := query.NormalizeAnalytics(params)
		s.warn(ctx, "todo-analytics", warnings)
		view, err := s.engine.Analytics(ctx, q)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.AnalyticsView `json:"body"`
		}{Body: view}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "todo-suggestions",
		Method:      http.MethodGet,
		Path:        "/todos/suggestions",
		Summary:     "Tag and framework suggestions",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body domain.Suggestions `json:"body"`
	}, error) {
		sugg, err := s.engine.Suggestions(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Suggestions `json:"body"`
		}{Body: sugg}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-todo",
		Method:      http.MethodGet,
		Path:        "/todos/{id}",
		Summary:     "Get todo",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body domain.Todo `json:"body"`
	}, error) {
		t, err := s.engine.Get(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Todo `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-todo",
		Method:      http.MethodPatch,
		Path:        "/todos/{id}",
		Summary:     "Update todo",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID      string `path:"id"`
		RawBody []byte `contentType:"application/json"`
	}) (*struct {
		Body domain.Todo `json:"body"`
	}, error) {
		opts, err := updateOptions(input.RawBody)
		if err != nil {
			return nil, handleError(err)
		}
		t, err := s.engine.Update(ctx, input.ID, opts)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Todo `json:"body"`
		}{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-todo",
		Method:        http.MethodDelete,
		Path:          "/todos/{id}",
		Summary:       "Delete todo",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct{}, error) {
		if err := s.engine.Delete(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

