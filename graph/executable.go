package graph

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/99designs/gqlgen/graphql"
	gogql "github.com/graph-gophers/graphql-go"
	gqlerrors "github.com/graph-gophers/graphql-go/errors"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.uber.org/zap"

	"github.com/UkralStul/graphql-userlist-service/internal/domain"
	"github.com/UkralStul/graphql-userlist-service/internal/logging"
	"github.com/UkralStul/graphql-userlist-service/internal/metrics"
)

//go:embed schema.graphqls
var schemaSDL string

const defaultMaxParallelism = 10

// Config - параметры исполняемой схемы.
type Config struct {
	Resolvers      *Resolver
	MaxDepth       int
	MaxParallelism int
	Logger         *zap.Logger
}

// executableSchema связывает обработчик gqlgen (транспорты, валидация, расширения)
// с исполнением запросов в graph-gophers по тому же SDL.
type executableSchema struct {
	parsed  *ast.Schema
	schema  *gogql.Schema
	metrics *metrics.Metrics
}

// NewExecutableSchema разбирает schema.graphqls и привязывает к нему резолверы.
func NewExecutableSchema(cfg Config) (graphql.ExecutableSchema, error) {
	parsed, gerr := gqlparser.LoadSchema(&ast.Source{Name: "schema.graphqls", Input: schemaSDL})
	if gerr != nil {
		return nil, fmt.Errorf("failed to load schema: %w", gerr)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	parallelism := cfg.MaxParallelism
	if parallelism <= 0 {
		parallelism = defaultMaxParallelism
	}

	opts := []gogql.SchemaOpt{
		gogql.MaxParallelism(parallelism),
		gogql.Logger(logging.PanicLogger{Logger: logger}),
	}
	if cfg.MaxDepth > 0 {
		opts = append(opts, gogql.MaxDepth(cfg.MaxDepth))
	}

	schema, err := gogql.ParseSchema(schemaSDL, cfg.Resolvers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to bind resolvers: %w", err)
	}

	es := &executableSchema{parsed: parsed, schema: schema}
	if cfg.Resolvers != nil {
		es.metrics = cfg.Resolvers.Metrics
	}
	return es, nil
}

func (e *executableSchema) Schema() *ast.Schema {
	return e.parsed
}

// Complexity оставляет расчет по умолчанию: 1 + сложность дочерних полей.
func (e *executableSchema) Complexity(typeName, fieldName string, childComplexity int, args map[string]interface{}) (int, bool) {
	return 0, false
}

func (e *executableSchema) Exec(ctx context.Context) graphql.ResponseHandler {
	rc := graphql.GetOperationContext(ctx)
	if rc.DisableIntrospection && introspects(rc) {
		return graphql.OneShot(&graphql.Response{
			Errors: gqlerror.List{gqlerror.Errorf("introspection disabled")},
		})
	}

	if err := e.checkEmails(rc, rc.Operation.SelectionSet); err != nil {
		return graphql.OneShot(&graphql.Response{Errors: gqlerror.List{err}})
	}

	vars, _ := normalize(rc.Variables).(map[string]interface{})

	if rc.Operation.Operation == ast.Subscription {
		return e.subscribe(ctx, rc, vars)
	}

	var done bool
	return func(ctx context.Context) *graphql.Response {
		if done {
			return nil
		}
		done = true
		return toResponse(e.schema.Exec(ctx, rc.RawQuery, rc.OperationName, vars))
	}
}

// subscribe регистрирует подписку сразу; каждый вызов обработчика ждет следующее событие.
// Поток завершается, когда graph-gophers закрывает канал или отменяется ctx операции.
func (e *executableSchema) subscribe(ctx context.Context, rc *graphql.OperationContext, vars map[string]interface{}) graphql.ResponseHandler {
	events, err := e.schema.Subscribe(ctx, rc.RawQuery, rc.OperationName, vars)
	if err != nil {
		return graphql.OneShot(&graphql.Response{
			Errors: gqlerror.List{gqlerror.Errorf("%s", err.Error())},
		})
	}

	return func(ctx context.Context) *graphql.Response {
		select {
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			resp, ok := ev.(*gogql.Response)
			if !ok {
				return nil
			}
			return toResponse(resp)
		case <-ctx.Done():
			return nil
		}
	}
}

func introspects(rc *graphql.OperationContext) bool {
	for _, f := range graphql.CollectFields(rc, rc.Operation.SelectionSet, []string{"Query"}) {
		if f.Name == "__schema" || f.Name == "__type" {
			return true
		}
	}
	return false
}

// checkEmails проверяет аргументы типа Email до исполнения операции, чтобы
// ошибка формата дошла до клиента как ValidationError с extensions.
func (e *executableSchema) checkEmails(rc *graphql.OperationContext, set ast.SelectionSet) *gqlerror.Error {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if err := e.checkFieldEmails(rc, sel); err != nil {
				return err
			}
			if err := e.checkEmails(rc, sel.SelectionSet); err != nil {
				return err
			}
		case *ast.InlineFragment:
			if err := e.checkEmails(rc, sel.SelectionSet); err != nil {
				return err
			}
		case *ast.FragmentSpread:
			if sel.Definition != nil {
				if err := e.checkEmails(rc, sel.Definition.SelectionSet); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *executableSchema) checkFieldEmails(rc *graphql.OperationContext, f *ast.Field) *gqlerror.Error {
	for _, arg := range f.Arguments {
		if arg.Value == nil || arg.Value.ExpectedType == nil || arg.Value.ExpectedType.Name() != "Email" {
			continue
		}
		value, err := arg.Value.Value(rc.Variables)
		if err != nil {
			continue
		}
		var inputs []interface{}
		switch v := value.(type) {
		case []interface{}:
			inputs = v
		default:
			inputs = []interface{}{v}
		}
		for _, in := range inputs {
			s, ok := in.(string)
			if !ok {
				// Не строки и null отклонит сам graph-gophers.
				continue
			}
			if _, perr := domain.ParseEmail(s); perr != nil {
				return e.validationError(f, arg, perr)
			}
		}
	}
	return nil
}

func (e *executableSchema) validationError(f *ast.Field, arg *ast.Argument, err error) *gqlerror.Error {
	gerr := &gqlerror.Error{
		Message: err.Error(),
		Path:    ast.Path{ast.PathName(f.Alias)},
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		gerr.Extensions = verr.Extensions()
		e.metrics.ObserveValidationError(verr.Field)
	}
	if arg.Position != nil {
		gerr.Locations = []gqlerror.Location{{Line: arg.Position.Line, Column: arg.Position.Column}}
	}
	return gerr
}

// normalize приводит json.Number из тела запроса gqlgen к float64,
// как это делает стандартный json.Unmarshal, которого ожидает graph-gophers.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = normalize(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = normalize(val)
		}
		return out
	}
	return v
}

func toResponse(r *gogql.Response) *graphql.Response {
	resp := &graphql.Response{
		Data:       r.Data,
		Extensions: r.Extensions,
	}
	for _, qe := range r.Errors {
		resp.Errors = append(resp.Errors, toGQLError(qe))
	}
	return resp
}

func toGQLError(qe *gqlerrors.QueryError) *gqlerror.Error {
	err := &gqlerror.Error{
		Message:    qe.Message,
		Extensions: qe.Extensions,
	}
	for _, loc := range qe.Locations {
		err.Locations = append(err.Locations, gqlerror.Location{Line: loc.Line, Column: loc.Column})
	}
	for _, p := range qe.Path {
		switch p := p.(type) {
		case string:
			err.Path = append(err.Path, ast.PathName(p))
		case int:
			err.Path = append(err.Path, ast.PathIndex(p))
		}
	}
	return err
}
