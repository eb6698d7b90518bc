package params

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

const exprEngine = "expr"

// ExprEvaluatorOption configures the expr-lang evaluator.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache shares compiled programs through cache.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry makes every registry function callable by name
// and through call(name, args...).
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry != nil {
			e.registry = registry.Clone()
		}
	}
}

type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	// compileOpts is fixed at construction since the registry is a clone.
	compileOpts []exprlang.Option
}

// NewExprEvaluator constructs the default rule evaluator, backed by
// expr-lang/expr. Unknown identifiers evaluate to nil rather than failing
// compilation, so one program serves any parameter set.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.compileOpts = []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.registry != nil {
		for _, name := range e.registry.Names() {
			registered := name
			e.compileOpts = append(e.compileOpts, exprlang.Function(registered, func(arguments ...any) (any, error) {
				return e.registry.Call(registered, arguments...)
			}))
		}
	}
	return e
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return e.run(program, expression, ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, err
	}
	return exprCompiledRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *exprEvaluator) program(expression string) (*exprvm.Program, error) {
	if expression == "" {
		return nil, fmt.Errorf("params: expr evaluator: expression must not be empty")
	}
	key := exprEngine + ":" + expression
	if e.cache != nil {
		if program, ok := e.cache.Get(key); ok {
			if typed, ok := program.(*exprvm.Program); ok {
				return typed, nil
			}
		}
	}
	program, err := exprlang.Compile(expression, e.compileOpts...)
	if err != nil {
		return nil, wrapRuleError(exprEngine, expression, "", err)
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *exprEvaluator) run(program *exprvm.Program, expression string, ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	env := ctx.variables()
	if e.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	out, err := exprlang.Run(program, env)
	if err != nil {
		return nil, wrapRuleError(exprEngine, expression, ctx.Name, err)
	}
	return out, nil
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil || r.program == nil {
		return nil, fmt.Errorf("params: expr compiled rule is not initialised")
	}
	return r.evaluator.run(r.program, r.expression, ctx)
}
