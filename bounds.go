package params

import "fmt"

type number interface {
	~int | ~float64
}

// Clamp corrects value against d's bounds and returns one warning per
// corrective action. Non-numeric descriptors and descriptors without bounds
// pass through untouched. Comparisons are strict: a value equal to a bound is
// left as is.
func Clamp(value any, d Descriptor) (any, []Warning) {
	if !d.Type.Numeric() || (d.Min == nil && d.Max == nil) {
		return value, nil
	}
	switch d.Type {
	case TypeInt:
		lo, hi := intBounds(d)
		return clampTyped(value, d.Name, lo, hi)
	default:
		return clampTyped(value, d.Name, d.Min, d.Max)
	}
}

func intBounds(d Descriptor) (*int, *int) {
	var lo, hi *int
	if d.Min != nil {
		v := int(*d.Min)
		lo = &v
	}
	if d.Max != nil {
		v := int(*d.Max)
		hi = &v
	}
	return lo, hi
}

func clampTyped[T number](value any, name string, lo, hi *T) (any, []Warning) {
	switch typed := value.(type) {
	case T:
		return clampScalar(typed, name, lo, hi)
	case []T:
		return clampSlice(typed, name, lo, hi)
	case map[string]T:
		return clampMap(typed, name, lo, hi)
	case map[int]T:
		return clampMap(typed, name, lo, hi)
	default:
		return value, nil
	}
}

func clampScalar[T number](v T, name string, lo, hi *T) (T, []Warning) {
	var warnings []Warning
	if lo != nil && v < *lo {
		warnings = append(warnings, boundsWarning(name,
			"Value of %v for %s is smaller than minimal allowed value. Correcting value to min=%v", v, name, *lo))
		v = *lo
	}
	if hi != nil && v > *hi {
		warnings = append(warnings, boundsWarning(name,
			"Value of %v for %s is greater than maximal allowed value. Correcting value to max=%v", v, name, *hi))
		v = *hi
	}
	return v, warnings
}

func clampSlice[T number](values []T, name string, lo, hi *T) ([]T, []Warning) {
	out := append([]T(nil), values...)
	var warnings []Warning
	if lo != nil && anyBelow(out, *lo) {
		warnings = append(warnings, boundsWarning(name,
			"Some values in %v for %s are smaller than minimal allowed value. Correcting them to min=%v", out, name, *lo))
		for i, v := range out {
			if v < *lo {
				out[i] = *lo
			}
		}
	}
	if hi != nil && anyAbove(out, *hi) {
		warnings = append(warnings, boundsWarning(name,
			"Some values in %v for %s are greater than maximal allowed value. Correcting them to max=%v", out, name, *hi))
		for i, v := range out {
			if v > *hi {
				out[i] = *hi
			}
		}
	}
	return out, warnings
}

// clampMap applies the slice policy to map values; keys are never checked.
func clampMap[K comparable, T number](values map[K]T, name string, lo, hi *T) (map[K]T, []Warning) {
	out := cloneMap(values)
	var warnings []Warning
	if lo != nil && anyValueBelow(out, *lo) {
		warnings = append(warnings, boundsWarning(name,
			"Some values in %v for %s are smaller than minimal allowed value. Correcting them to min=%v", out, name, *lo))
		for k, v := range out {
			if v < *lo {
				out[k] = *lo
			}
		}
	}
	if hi != nil && anyValueAbove(out, *hi) {
		warnings = append(warnings, boundsWarning(name,
			"Some values in %v for %s are greater than maximal allowed value. Correcting them to max=%v", out, name, *hi))
		for k, v := range out {
			if v > *hi {
				out[k] = *hi
			}
		}
	}
	return out, warnings
}

func anyBelow[T number](values []T, bound T) bool {
	for _, v := range values {
		if v < bound {
			return true
		}
	}
	return false
}

func anyAbove[T number](values []T, bound T) bool {
	for _, v := range values {
		if v > bound {
			return true
		}
	}
	return false
}

func anyValueBelow[K comparable, T number](values map[K]T, bound T) bool {
	for _, v := range values {
		if v < bound {
			return true
		}
	}
	return false
}

func anyValueAbove[K comparable, T number](values map[K]T, bound T) bool {
	for _, v := range values {
		if v > bound {
			return true
		}
	}
	return false
}

func boundsWarning(name, format string, args ...any) Warning {
	return Warning{
		Condition: ConditionOutOfBounds,
		Param:     name,
		Message:   fmt.Sprintf(format, args...),
	}
}
