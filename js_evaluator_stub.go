//go:build !js_eval

package params

const jsEvaluatorBuilt = false

// NewJSEvaluator returns nil unless built with the js_eval tag.
func NewJSEvaluator(...JSEvaluatorOption) Evaluator {
	return nil
}
