package params

import (
	"fmt"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

const celEngine = "cel"

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache shares compiled programs through cache.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry exposes registry functions as call(name, [args]).
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. CEL environments
// are typed, so programs are compiled lazily against the variables of the
// context they are first evaluated with.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	if expression == "" {
		return nil, fmt.Errorf("params: cel evaluator: expression must not be empty")
	}
	activation := ctx.withDefaults().variables()
	program, err := e.program(expression, declaredNames(activation))
	if err == nil {
		var out ref.Val
		if out, _, err = program.Eval(activation); err == nil {
			return out.Value(), nil
		}
	}
	return nil, wrapRuleError(celEngine, expression, ctx.Name, err)
}

// Compile defers program construction to first use: the environment is
// not known until the rule sees a context.
func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if expression == "" {
		return nil, fmt.Errorf("params: cel evaluator: expression must not be empty")
	}
	return celCompiledRule{evaluator: e, expression: expression}, nil
}

func declaredNames(activation map[string]any) []string {
	names := make([]string, 0, len(activation))
	for name := range activation {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// celCacheKey folds the declared names into the key; the same source text
// compiles differently against a different set of variables.
func celCacheKey(expression string, names []string) string {
	return celEngine + ":" + expression + "|" + strings.Join(names, ",")
}

func (e *celEvaluator) program(expression string, names []string) (celgo.Program, error) {
	key := celCacheKey(expression, names)
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(celgo.Program); ok {
				return program, nil
			}
		}
	}
	env, err := celgo.NewEnv(e.declarations(names)...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if err := issues.Err(); err != nil {
		return nil, err
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *celEvaluator) declarations(names []string) []celgo.EnvOption {
	decls := make([]celgo.EnvOption, 0, len(names)+1)
	for _, name := range names {
		kind := celgo.DynType
		if name == "now" {
			kind = celgo.TimestampType
		}
		decls = append(decls, celgo.Variable(name, kind))
	}
	if e.registry != nil {
		decls = append(decls, celgo.Function("call", celgo.Overload(
			"call_string_list",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.BinaryBinding(e.invoke()),
		)))
	}
	return decls
}

func (e *celEvaluator) invoke() functions.BinaryOp {
	return func(nameVal, argsVal ref.Val) ref.Val {
		name, ok := nameVal.Value().(string)
		if !ok {
			return types.NewErr("params: call name must be a string, got %s", nameVal.Type().TypeName())
		}
		list, ok := argsVal.(traits.Lister)
		if !ok {
			return types.NewErr("params: call arguments must be a list")
		}
		count, _ := list.Size().Value().(int64)
		arguments := make([]any, count)
		for i := range arguments {
			arguments[i] = list.Get(types.Int(i)).Value()
		}
		result, err := e.registry.Call(name, arguments...)
		switch {
		case err != nil:
			return types.NewErr("%s", err.Error())
		case result == nil:
			return types.NullValue
		default:
			return types.DefaultTypeAdapter.NativeToValue(result)
		}
	}
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
}

func (r celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, fmt.Errorf("params: cel compiled rule is not initialised")
	}
	return r.evaluator.Evaluate(ctx, r.expression)
}
