//go:build js_eval

package params

import (
	"fmt"

	"github.com/dop251/goja"
)

const jsEvaluatorBuilt = true

// jsEvaluator runs each rule as the body of an immediately invoked function.
// Programs are shared; runtimes are not, since a goja.Runtime is bound to
// one goroutine.
type jsEvaluator struct {
	jsSettings
	// helpers is the global scope contributed by the registry.
	helpers map[string]any
}

// NewJSEvaluator constructs an Evaluator backed by goja.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	e := &jsEvaluator{jsSettings: newJSSettings(opts)}
	if e.registry != nil {
		registry := e.registry
		e.helpers = map[string]any{
			"call": func(name string, arguments ...any) (any, error) {
				return registry.Call(name, arguments...)
			},
		}
		for _, name := range registry.Names() {
			bound := name
			e.helpers[bound] = func(arguments ...any) (any, error) {
				return registry.Call(bound, arguments...)
			}
		}
	}
	return e
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, wrapRuleError(jsEngine, expression, ctx.Name, err)
	}
	return e.exec(program, expression, ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	program, err := e.program(expression)
	if err != nil {
		return nil, wrapRuleError(jsEngine, expression, "", err)
	}
	return jsCompiledRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *jsEvaluator) program(expression string) (*goja.Program, error) {
	if expression == "" {
		return nil, fmt.Errorf("params: js evaluator: expression must not be empty")
	}
	key := jsEngine + ":" + expression
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("rule", "(function(){ return ("+expression+"); })()", true)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(key, program)
	}
	return program, nil
}

func (e *jsEvaluator) exec(program *goja.Program, expression string, ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	vm := goja.New()
	vars := ctx.variables()
	for name, fn := range e.helpers {
		if _, shadowed := vars[name]; !shadowed {
			vars[name] = fn
		}
	}
	for name, value := range vars {
		if err := vm.Set(name, value); err != nil {
			return nil, wrapRuleError(jsEngine, expression, ctx.Name, err)
		}
	}
	value, err := vm.RunProgram(program)
	if err != nil {
		return nil, wrapRuleError(jsEngine, expression, ctx.Name, err)
	}
	return value.Export(), nil
}

type jsCompiledRule struct {
	evaluator  *jsEvaluator
	program    *goja.Program
	expression string
}

func (r jsCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil || r.program == nil {
		return nil, fmt.Errorf("params: js compiled rule is not initialised")
	}
	return r.evaluator.exec(r.program, r.expression, ctx)
}
