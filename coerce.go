package params

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Condition classifies a recoverable deviation found during resolution.
type Condition string

const (
	ConditionTypeMismatch     Condition = "type_mismatch"
	ConditionOutOfBounds      Condition = "out_of_bounds"
	ConditionConstantOverride Condition = "constant_override"
	ConditionRuleFailed       Condition = "rule_failed"
	ConditionUncorrectable    Condition = "uncorrectable"
)

// Warning is a diagnostic attached to a resolved value.
type Warning struct {
	Condition Condition `json:"condition"`
	Param     string    `json:"param"`
	Message   string    `json:"message"`
}

// Resolved is the outcome of validating one raw value against a descriptor.
type Resolved struct {
	Value    any
	Warnings []Warning
}

var errNilValue = errors.New("value is nil")

// Coerce converts raw into the Go representation of d's declared type:
// string, int, bool or float64 for scalars, []T for vectors and map[string]T
// or map[int]T for maps. Any element failure fails the whole value with a
// *TypeMismatchError. Bounds are not applied; see Clamp.
func Coerce(raw any, d Descriptor) (Resolved, error) {
	value, err := coerceShape(raw, d)
	if err != nil {
		return Resolved{}, &TypeMismatchError{
			Name:     d.Name,
			Expected: d.TypeString(),
			Value:    raw,
			Err:      err,
		}
	}
	return Resolved{Value: value}, nil
}

func coerceShape(raw any, d Descriptor) (any, error) {
	if raw == nil {
		return nil, errNilValue
	}
	switch d.Kind {
	case KindScalar:
		return parseElement(d.Type, raw)
	case KindVector:
		items, err := enumerateSlice(raw)
		if err != nil {
			return nil, err
		}
		return coerceVector(d.Type, items)
	case KindMap:
		pairs, err := enumerateMap(raw)
		if err != nil {
			return nil, err
		}
		switch d.KeyType {
		case TypeString:
			return coerceMapValues(pairs, toString, d.Type)
		case TypeInt:
			return coerceMapValues(pairs, toInt, d.Type)
		default:
			return nil, fmt.Errorf("unsupported map key type %s", d.KeyType)
		}
	default:
		return nil, fmt.Errorf("unsupported kind %s", d.Kind)
	}
}

func parseElement(t ElementType, raw any) (any, error) {
	switch t {
	case TypeString:
		return toString(raw)
	case TypeInt:
		return toInt(raw)
	case TypeBool:
		return toBool(raw)
	case TypeFloat:
		return toFloat(raw)
	default:
		return nil, fmt.Errorf("unsupported element type %s", t)
	}
}

func toString(raw any) (string, error) {
	if raw == nil {
		return "", errNilValue
	}
	return cast.ToStringE(raw)
}

// toInt reads strings as base-10 decimals and saturates out-of-range
// numbers at the int limits, so clamping still picks the nearer bound.
func toInt(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return 0, errNilValue
	case string:
		return parseDecimalInt(v)
	case float64:
		return saturateFloat(v)
	case float32:
		return saturateFloat(float64(v))
	case uint:
		return saturateUint(uint64(v)), nil
	case uint64:
		return saturateUint(v), nil
	}
	return cast.ToIntE(raw)
}

func parseDecimalInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	if whole, frac, ok := strings.Cut(s, "."); ok && frac != "" && strings.Trim(frac, "0") == "" {
		s = whole
	}
	n, err := strconv.ParseInt(s, 10, 0)
	var numErr *strconv.NumError
	if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
		// ParseInt already returns the saturated value on overflow.
		return int(n), nil
	}
	return int(n), err
}

func saturateFloat(f float64) (int, error) {
	switch {
	case math.IsNaN(f):
		return 0, fmt.Errorf("%v is not a number", f)
	case f >= float64(math.MaxInt):
		return math.MaxInt, nil
	case f <= float64(math.MinInt):
		return math.MinInt, nil
	}
	return int(f), nil
}

func saturateUint(u uint64) int {
	if u > math.MaxInt {
		return math.MaxInt
	}
	return int(u)
}

func toBool(raw any) (bool, error) {
	if raw == nil {
		return false, errNilValue
	}
	return cast.ToBoolE(raw)
}

func toFloat(raw any) (float64, error) {
	if raw == nil {
		return 0, errNilValue
	}
	return cast.ToFloat64E(raw)
}

func coerceVector(t ElementType, items []any) (any, error) {
	switch t {
	case TypeString:
		return coerceSlice(items, toString)
	case TypeInt:
		return coerceSlice(items, toInt)
	case TypeBool:
		return coerceSlice(items, toBool)
	case TypeFloat:
		return coerceSlice(items, toFloat)
	default:
		return nil, fmt.Errorf("unsupported element type %s", t)
	}
}

func coerceSlice[T any](items []any, parse func(any) (T, error)) ([]T, error) {
	out := make([]T, len(items))
	for i, item := range items {
		v, err := parse(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

type pair struct {
	key   any
	value any
}

func coerceMapValues[K comparable](pairs []pair, parseKey func(any) (K, error), t ElementType) (any, error) {
	switch t {
	case TypeString:
		return coerceMap(pairs, parseKey, toString)
	case TypeInt:
		return coerceMap(pairs, parseKey, toInt)
	case TypeBool:
		return coerceMap(pairs, parseKey, toBool)
	case TypeFloat:
		return coerceMap(pairs, parseKey, toFloat)
	default:
		return nil, fmt.Errorf("unsupported element type %s", t)
	}
}

func coerceMap[K comparable, V any](pairs []pair, parseKey func(any) (K, error), parseValue func(any) (V, error)) (map[K]V, error) {
	out := make(map[K]V, len(pairs))
	for _, p := range pairs {
		k, err := parseKey(p.key)
		if err != nil {
			return nil, fmt.Errorf("key %v: %w", p.key, err)
		}
		v, err := parseValue(p.value)
		if err != nil {
			return nil, fmt.Errorf("value for key %v: %w", p.key, err)
		}
		out[k] = v
	}
	return out, nil
}

// enumerateSlice accepts slices and arrays. Strings are rejected even though
// they are iterable in some languages.
func enumerateSlice(raw any) ([]any, error) {
	if items, ok := raw.([]any); ok {
		return items, nil
	}
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%T is not a list", raw)
	}
}

func enumerateMap(raw any) ([]pair, error) {
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map {
		return nil, fmt.Errorf("%T is not a map", raw)
	}
	pairs := make([]pair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, pair{key: iter.Key().Interface(), value: iter.Value().Interface()})
	}
	return pairs, nil
}

// zeroValue returns the empty value of d's declared Go type.
func zeroValue(d Descriptor) any {
	switch d.Kind {
	case KindVector:
		v, _ := coerceVector(d.Type, nil)
		return v
	case KindMap:
		var v any
		if d.KeyType == TypeInt {
			v, _ = coerceMapValues(nil, toInt, d.Type)
		} else {
			v, _ = coerceMapValues(nil, toString, d.Type)
		}
		return v
	default:
		switch d.Type {
		case TypeString:
			return ""
		case TypeInt:
			return 0
		case TypeBool:
			return false
		default:
			return float64(0)
		}
	}
}
