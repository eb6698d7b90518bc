package params

const jsEngine = "js"

// JSEvaluatorOption configures the goja rule evaluator.
type JSEvaluatorOption func(*jsSettings)

type jsSettings struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// JSWithProgramCache shares compiled goja programs through cache.
func JSWithProgramCache(cache ProgramCache) JSEvaluatorOption {
	return func(s *jsSettings) { s.cache = cache }
}

// JSWithFunctionRegistry exposes registry functions to JS rules, both by name
// and through call(name, ...args).
func JSWithFunctionRegistry(registry *FunctionRegistry) JSEvaluatorOption {
	return func(s *jsSettings) {
		if registry != nil {
			s.registry = registry.Clone()
		}
	}
}

func newJSSettings(opts []JSEvaluatorOption) jsSettings {
	var s jsSettings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

// JSEvaluatorAvailable reports whether the binary was built with js_eval.
// Without it NewJSEvaluator returns nil and the engine keeps expr.
func JSEvaluatorAvailable() bool {
	return jsEvaluatorBuilt
}
